package service

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/domain/entity"
)

// AggregateAssets merges per-adapter balance lists into one mapping from
// canonical asset address to net amount. Each inner slice is the complete,
// already-fetched output of one adapter for one subvault; the aggregator never
// touches the network.
//
// Summation is commutative, so the result is independent of input order. An
// address flagged valuation-only by one adapter and not by another is a hard
// data-integrity conflict and fails the whole aggregation.
func AggregateAssets(perAdapterResults [][]entity.AssetAmount) (entity.AggregatedAssets, error) {
	aggregated := entity.AggregatedAssets{
		Assets:        make(map[common.Address]*big.Int),
		ValuationOnly: make(map[common.Address]struct{}),
	}
	notValuationOnly := make(map[common.Address]struct{})

	for _, adapterAssets := range perAdapterResults {
		for _, asset := range adapterAssets {
			addr := asset.Address
			current, ok := aggregated.Assets[addr]
			if !ok {
				current = big.NewInt(0)
				aggregated.Assets[addr] = current
			}
			if asset.Amount != nil {
				current.Add(current, asset.Amount)
			}
			if asset.ValuationOnly {
				aggregated.ValuationOnly[addr] = struct{}{}
			} else {
				notValuationOnly[addr] = struct{}{}
			}
		}
	}

	var conflicts []common.Address
	for addr := range aggregated.ValuationOnly {
		if _, ok := notValuationOnly[addr]; ok {
			conflicts = append(conflicts, addr)
		}
	}
	if len(conflicts) > 0 {
		entity.SortAddresses(conflicts)
		return entity.AggregatedAssets{}, &entity.ConflictError{Addresses: conflicts}
	}

	return aggregated, nil
}
