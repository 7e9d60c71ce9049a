package asset

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/client"
	"nav_oracle/internal/domain/entity"
	wire "nav_oracle/internal/entity"
	"nav_oracle/internal/pkg/retry"
)

// usdcDecimals is the precision the equity figure is reported in.
const usdcDecimals = 6

// HyperliquidAdapter values a subvault's Hyperliquid perp account. The
// account's total equity is reported as a single valuation-only position
// under a synthetic asset address: the equity counts toward the vault's total
// but cannot be transacted on-chain, so it never receives a submission price.
type HyperliquidAdapter struct {
	api         client.HyperliquidClient
	equityAsset common.Address
	retryPolicy retry.Policy
	logger      port.Logger
}

// NewHyperliquidAdapter creates a HyperliquidAdapter reporting equity under
// equityAsset.
func NewHyperliquidAdapter(api client.HyperliquidClient, equityAsset common.Address, logger port.Logger) *HyperliquidAdapter {
	return &HyperliquidAdapter{
		api:         api,
		equityAsset: equityAsset,
		retryPolicy: retry.DefaultPolicy(),
		logger:      logger,
	}
}

// Name implements port.AssetAdapter.
func (a *HyperliquidAdapter) Name() string {
	return "hyperliquid"
}

// FetchAssets reads the clearinghouse state of the subvault's address and
// converts the USDC-denominated account value to raw 6-decimal units.
func (a *HyperliquidAdapter) FetchAssets(ctx context.Context, subvault common.Address) ([]entity.AssetAmount, error) {
	var state *wire.HyperliquidClearinghouseState
	err := a.retryPolicy.Do(ctx, func() error {
		var fetchErr error
		state, fetchErr = a.api.GetClearinghouseState(ctx, subvault.Hex())
		return fetchErr
	})
	if err != nil {
		return nil, fmt.Errorf("hyperliquid clearinghouse state for %s: %w", subvault.Hex(), err)
	}

	accountValue, err := decimal.NewFromString(state.MarginSummary.AccountValue)
	if err != nil {
		return nil, fmt.Errorf("hyperliquid account value %q is not a decimal: %w", state.MarginSummary.AccountValue, err)
	}
	if accountValue.Sign() < 0 {
		return nil, fmt.Errorf("hyperliquid account value is negative: %s", accountValue.String())
	}

	rawEquity := accountValue.Shift(usdcDecimals).Truncate(0).BigInt()
	a.logger.Debug("Hyperliquid equity fetched",
		"subvault", subvault.Hex(), "account_value", accountValue.String(), "raw", rawEquity.String())

	if rawEquity.Sign() == 0 {
		return []entity.AssetAmount{}, nil
	}
	return []entity.AssetAmount{{
		Address:       a.equityAsset,
		Amount:        rawEquity,
		ValuationOnly: true,
	}}, nil
}
