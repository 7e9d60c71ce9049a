package entity

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PriceData is the shared price accumulator threaded through every price
// adapter in sequence. Prices are denominated in the base asset per one native
// unit of the priced asset; Decimals records each asset's native precision for
// the final fixed-point scaling step.
//
// Adapters own disjoint address subsets by convention: later adapters may add
// new addresses but never overwrite an address priced earlier. The structure
// is not safe for concurrent mutation; apply adapters sequentially.
type PriceData struct {
	BaseAsset common.Address
	Prices    map[common.Address]decimal.Decimal
	Decimals  map[common.Address]int
}

// NewPriceData creates an empty accumulator pinned to the given base asset.
func NewPriceData(baseAsset common.Address) *PriceData {
	return &PriceData{
		BaseAsset: baseAsset,
		Prices:    make(map[common.Address]decimal.Decimal),
		Decimals:  make(map[common.Address]int),
	}
}

// SetPrice records the price and native decimal count for one asset.
func (p *PriceData) SetPrice(addr common.Address, price decimal.Decimal, decimals int) {
	p.Prices[addr] = price
	p.Decimals[addr] = decimals
}

// Price returns the accumulated price for addr, if any adapter supplied one.
func (p *PriceData) Price(addr common.Address) (decimal.Decimal, bool) {
	price, ok := p.Prices[addr]
	return price, ok
}
