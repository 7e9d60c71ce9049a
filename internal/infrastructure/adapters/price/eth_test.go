package price

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/domain/entity"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

var (
	baseWETH  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	peggedSt  = common.HexToAddress("0xae7ab96520DE3A18E5e111B5EaAb095312D7fE84")
	unrelated = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func TestEthAdapterBaseAssetMismatch(t *testing.T) {
	adapter := NewEthPriceAdapter(baseWETH, nil, noopLogger{})
	acc := entity.NewPriceData(unrelated)

	err := adapter.FetchPrices(context.Background(), []common.Address{baseWETH}, acc)

	var mismatch *entity.BaseAssetMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, baseWETH, mismatch.Expected)
	assert.Equal(t, unrelated, mismatch.Actual)
}

func TestEthAdapterParityPrices(t *testing.T) {
	adapter := NewEthPriceAdapter(baseWETH, map[common.Address]int{peggedSt: 18}, noopLogger{})
	acc := entity.NewPriceData(baseWETH)

	err := adapter.FetchPrices(context.Background(), []common.Address{baseWETH, peggedSt}, acc)

	require.NoError(t, err)
	basePrice, ok := acc.Price(baseWETH)
	require.True(t, ok)
	assert.True(t, basePrice.Equal(decimal.NewFromInt(1)))
	peggedPrice, ok := acc.Price(peggedSt)
	require.True(t, ok)
	assert.True(t, peggedPrice.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 18, acc.Decimals[peggedSt])
}

func TestEthAdapterLeavesUnknownAssetsUnpriced(t *testing.T) {
	adapter := NewEthPriceAdapter(baseWETH, map[common.Address]int{peggedSt: 18}, noopLogger{})
	acc := entity.NewPriceData(baseWETH)

	err := adapter.FetchPrices(context.Background(), []common.Address{baseWETH, unrelated}, acc)

	require.NoError(t, err)
	_, ok := acc.Price(unrelated)
	assert.False(t, ok)
}
