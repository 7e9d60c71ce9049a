package entity

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AssetAmount is one adapter's claim about one asset's balance for one subvault.
// ValuationOnly marks amounts that count toward total valuation but must be
// excluded from the on-chain price submission set (e.g. derived positions).
type AssetAmount struct {
	Address       common.Address
	Amount        *big.Int
	ValuationOnly bool
}

// AggregatedAssets is the merged view of every adapter's balances for one
// report cycle. Keys are canonical (parsed) addresses, so case-variant
// representations of the same address always land on the same entry.
type AggregatedAssets struct {
	Assets        map[common.Address]*big.Int
	ValuationOnly map[common.Address]struct{}
}

// Addresses returns the aggregated asset addresses in no particular order.
func (a AggregatedAssets) Addresses() []common.Address {
	addrs := make([]common.Address, 0, len(a.Assets))
	for addr := range a.Assets {
		addrs = append(addrs, addr)
	}
	return addrs
}

// IsValuationOnly reports whether the address was flagged valuation-only by
// its contributing adapters.
func (a AggregatedAssets) IsValuationOnly(addr common.Address) bool {
	_, ok := a.ValuationOnly[addr]
	return ok
}
