package service

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/domain/entity"
)

func pricedAssets(balances map[common.Address]int64, prices map[common.Address]string) (entity.AggregatedAssets, *entity.PriceData) {
	aggregated := entity.AggregatedAssets{
		Assets:        make(map[common.Address]*big.Int),
		ValuationOnly: make(map[common.Address]struct{}),
	}
	for addr, balance := range balances {
		aggregated.Assets[addr] = big.NewInt(balance)
	}

	priceData := entity.NewPriceData(addrWETH)
	for addr, price := range prices {
		priceData.SetPrice(addr, decimal.RequireFromString(price), 18)
	}
	return aggregated, priceData
}

func TestCalculateTotalTruncatesTowardZero(t *testing.T) {
	aggregated, prices := pricedAssets(
		map[common.Address]int64{addrUSDC: 1},
		map[common.Address]string{addrUSDC: "0.999999999999999999"},
	)
	total, err := CalculateTotalAssets(aggregated, prices)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), total)

	aggregated, prices = pricedAssets(
		map[common.Address]int64{addrUSDC: 1},
		map[common.Address]string{addrUSDC: "1.000000000000000001"},
	)
	total, err = CalculateTotalAssets(aggregated, prices)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), total)
}

func TestCalculateTotalEmptyInputIsZero(t *testing.T) {
	aggregated, prices := pricedAssets(nil, nil)

	total, err := CalculateTotalAssets(aggregated, prices)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), total)
}

func TestCalculateTotalEndToEndScenario(t *testing.T) {
	// 1_500_000 raw USDC at 0.0005 base units per raw unit
	aggregated, prices := pricedAssets(
		map[common.Address]int64{addrUSDC: 1_500_000},
		map[common.Address]string{addrUSDC: "0.0005"},
	)

	total, err := CalculateTotalAssets(aggregated, prices)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(750), total)
}

func TestCalculateTotalMissingPricesNamesOnlyMissing(t *testing.T) {
	aggregated, prices := pricedAssets(
		map[common.Address]int64{addrUSDC: 1, addrWETH: 1},
		map[common.Address]string{addrUSDC: "1"},
	)

	_, err := CalculateTotalAssets(aggregated, prices)

	var missingErr *entity.MissingPricesError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []common.Address{addrWETH}, missingErr.Addresses)
}

func TestCalculateTotalMissingPricesCollectsAllSorted(t *testing.T) {
	aggregated, prices := pricedAssets(
		map[common.Address]int64{addrUSDC: 1, addrWETH: 1, addrOther: 1},
		map[common.Address]string{addrOther: "1"},
	)

	_, err := CalculateTotalAssets(aggregated, prices)

	var missingErr *entity.MissingPricesError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []common.Address{addrUSDC, addrWETH}, missingErr.Addresses)
}

func TestCalculateTotalRejectsNonPositivePrices(t *testing.T) {
	aggregated, prices := pricedAssets(
		map[common.Address]int64{addrUSDC: 1, addrWETH: 1},
		map[common.Address]string{addrUSDC: "0", addrWETH: "-1"},
	)

	_, err := CalculateTotalAssets(aggregated, prices)

	var invalidErr *entity.InvalidPricesError
	require.ErrorAs(t, err, &invalidErr)
	require.Len(t, invalidErr.Prices, 2)
	assert.Equal(t, addrUSDC, invalidErr.Prices[0].Address)
	assert.Equal(t, addrWETH, invalidErr.Prices[1].Address)
}

func TestCalculateTotalSumsAcrossAssets(t *testing.T) {
	aggregated, prices := pricedAssets(
		map[common.Address]int64{addrUSDC: 100, addrWETH: 10},
		map[common.Address]string{addrUSDC: "2.5", addrWETH: "1"},
	)

	total, err := CalculateTotalAssets(aggregated, prices)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(260), total)
}
