package adapters

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/infrastructure/configloader"
	evmclient "nav_oracle/internal/infrastructure/network/client"
)

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func testRegistry(t *testing.T, priceValidators []string) *Registry {
	t.Helper()
	cfg := &configloader.Config{
		Assets: map[string]configloader.AssetConfig{
			"WETH": {Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
			"ETH":  {Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18, Native: true},
			"USDC": {Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
		},
		PriceValidators: priceValidators,
	}
	cfg.Vault.BaseAsset = "WETH"
	cfg.Tolerances.WarningPercent = 0.5
	cfg.Tolerances.FailurePercent = 1.0

	provider := evmclient.NewEVMClientProvider(cfg, noopLogger{})
	return NewRegistry(cfg, provider, zap.NewNop(), noopLogger{})
}

func TestValidatorsAlwaysIncludePositivePrices(t *testing.T) {
	registry := testRegistry(t, nil)

	validators, err := registry.Validators()

	require.NoError(t, err)
	require.Len(t, validators, 1)
	assert.Equal(t, "positive_prices", validators[0].Name())

	prices := entity.NewPriceData(common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"))
	prices.SetPrice(common.HexToAddress("0x1000000000000000000000000000000000000001"),
		decimal.NewFromInt(-5), 18)

	result, err := validators[0].Validate(context.Background(), prices)
	require.NoError(t, err)
	assert.False(t, result.Passed)
}

func TestCowTokensExcludeNativeAliases(t *testing.T) {
	registry := testRegistry(t, nil)

	tokens, err := registry.cowTokens(common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"))

	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), tokens[0].Asset)
}

func TestValidatorsDoNotDuplicatePositivePrices(t *testing.T) {
	registry := testRegistry(t, []string{"positive_prices"})

	validators, err := registry.Validators()

	require.NoError(t, err)
	require.Len(t, validators, 1)
	assert.Equal(t, "positive_prices", validators[0].Name())
}
