package price

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
)

// EthPriceAdapter prices the base asset itself and any assets pegged 1:1 to
// it (stETH against a WETH base, for example). It must run first in the
// adapter sequence so the base asset's unity price is always present.
type EthPriceAdapter struct {
	base   common.Address
	pegged map[common.Address]int // pegged asset -> native decimals
	logger port.Logger
}

// NewEthPriceAdapter creates an EthPriceAdapter for the given base asset and
// pegged set.
func NewEthPriceAdapter(base common.Address, pegged map[common.Address]int, logger port.Logger) *EthPriceAdapter {
	return &EthPriceAdapter{base: base, pegged: pegged, logger: logger}
}

// Name implements port.PriceAdapter.
func (a *EthPriceAdapter) Name() string {
	return "eth"
}

// FetchPrices writes a unity price for the base asset and every recognized
// pegged asset. Unrecognized addresses are left for later adapters.
func (a *EthPriceAdapter) FetchPrices(ctx context.Context, assetAddresses []common.Address, acc *entity.PriceData) error {
	if acc.BaseAsset != a.base {
		return &entity.BaseAssetMismatchError{Adapter: a.Name(), Expected: a.base, Actual: acc.BaseAsset}
	}

	for _, addr := range assetAddresses {
		if addr == a.base {
			acc.SetPrice(addr, decimal.NewFromInt(1), 18)
			continue
		}
		if decimals, ok := a.pegged[addr]; ok {
			a.logger.Debug("Pricing pegged asset at parity", "asset", addr.Hex())
			acc.SetPrice(addr, decimal.NewFromInt(1), decimals)
		}
	}
	return nil
}
