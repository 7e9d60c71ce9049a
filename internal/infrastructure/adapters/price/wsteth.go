package price

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/infrastructure/network/client"
)

var oneWsteth = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// WstethPriceAdapter prices wstETH against a WETH base using the wstETH
// contract's stETH exchange rate, treating stETH as ETH parity.
type WstethPriceAdapter struct {
	evm    *client.EVMClient
	base   common.Address
	wsteth common.Address
	logger port.Logger
}

// NewWstethPriceAdapter creates a WstethPriceAdapter.
func NewWstethPriceAdapter(evm *client.EVMClient, base, wsteth common.Address, logger port.Logger) *WstethPriceAdapter {
	return &WstethPriceAdapter{evm: evm, base: base, wsteth: wsteth, logger: logger}
}

// Name implements port.PriceAdapter.
func (a *WstethPriceAdapter) Name() string {
	return "wsteth"
}

// FetchPrices reads the current wstETH->stETH rate and records it as the
// wstETH price when wstETH is among the aggregated assets.
func (a *WstethPriceAdapter) FetchPrices(ctx context.Context, assetAddresses []common.Address, acc *entity.PriceData) error {
	if acc.BaseAsset != a.base {
		return &entity.BaseAssetMismatchError{Adapter: a.Name(), Expected: a.base, Actual: acc.BaseAsset}
	}

	wanted := false
	for _, addr := range assetAddresses {
		if addr == a.wsteth {
			wanted = true
			break
		}
	}
	if !wanted {
		return nil
	}

	stethPerWsteth, err := a.evm.StETHByWstETH(ctx, a.wsteth, oneWsteth)
	if err != nil {
		return fmt.Errorf("wstETH rate fetch failed: %w", err)
	}

	rate := decimal.NewFromBigInt(stethPerWsteth, -18)
	a.logger.Debug("wstETH rate fetched", "steth_per_wsteth", rate.String())
	acc.SetPrice(a.wsteth, rate, 18)
	return nil
}
