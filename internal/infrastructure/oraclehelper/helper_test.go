package oraclehelper

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/domain/entity"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type capturingCaller struct {
	gotTotal    *big.Int
	gotAssets   []common.Address
	gotBalances []*big.Int
	prices      []*big.Int
	err         error
}

func (c *capturingCaller) HelperPricesD18(_ context.Context, _ common.Address, totalAssets *big.Int, assets []common.Address, balances []*big.Int) ([]*big.Int, error) {
	c.gotTotal = totalAssets
	c.gotAssets = assets
	c.gotBalances = balances
	return c.prices, c.err
}

var (
	helperAddr = common.HexToAddress("0x5000000000000000000000000000000000000001")
	assetLow   = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	assetHigh  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	synthetic  = common.HexToAddress("0x00000000000000000000000000000000000E0017")
)

func TestDeriveFinalPricesExcludesValuationOnly(t *testing.T) {
	caller := &capturingCaller{prices: []*big.Int{big.NewInt(11), big.NewInt(22)}}
	helper := NewContractHelper(caller, helperAddr, noopLogger{})

	aggregated := entity.AggregatedAssets{
		Assets: map[common.Address]*big.Int{
			assetHigh: big.NewInt(100),
			assetLow:  big.NewInt(200),
			synthetic: big.NewInt(300),
		},
		ValuationOnly: map[common.Address]struct{}{synthetic: {}},
	}

	finalPrices, err := helper.DeriveFinalPrices(context.Background(), big.NewInt(600), aggregated, nil)

	require.NoError(t, err)
	// sorted by address value: 0xA0... before 0xC0...; the synthetic asset never
	// reaches the contract call
	assert.Equal(t, []common.Address{assetLow, assetHigh}, caller.gotAssets)
	assert.Equal(t, []*big.Int{big.NewInt(200), big.NewInt(100)}, caller.gotBalances)
	assert.Equal(t, big.NewInt(600), caller.gotTotal)

	require.Len(t, finalPrices, 2)
	assert.Equal(t, big.NewInt(11), finalPrices[assetLow])
	assert.Equal(t, big.NewInt(22), finalPrices[assetHigh])
	assert.NotContains(t, finalPrices, synthetic)
}

func TestDeriveFinalPricesAllValuationOnlySkipsCall(t *testing.T) {
	caller := &capturingCaller{err: errors.New("must not be called")}
	helper := NewContractHelper(caller, helperAddr, noopLogger{})

	aggregated := entity.AggregatedAssets{
		Assets:        map[common.Address]*big.Int{synthetic: big.NewInt(300)},
		ValuationOnly: map[common.Address]struct{}{synthetic: {}},
	}

	finalPrices, err := helper.DeriveFinalPrices(context.Background(), big.NewInt(300), aggregated, nil)

	require.NoError(t, err)
	assert.Empty(t, finalPrices)
	assert.Nil(t, caller.gotAssets)
}

func TestDeriveFinalPricesPropagatesCallError(t *testing.T) {
	caller := &capturingCaller{err: errors.New("execution reverted")}
	helper := NewContractHelper(caller, helperAddr, noopLogger{})

	aggregated := entity.AggregatedAssets{
		Assets: map[common.Address]*big.Int{assetLow: big.NewInt(1)},
	}

	_, err := helper.DeriveFinalPrices(context.Background(), big.NewInt(1), aggregated, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution reverted")
}
