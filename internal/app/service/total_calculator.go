package service

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/domain/entity"
)

// CalculateTotalAssets combines aggregated balances with accumulated prices
// into a single base-asset-denominated total.
//
// Every aggregated address must have a price and every used price must be
// positive; violations are collected in full (all missing addresses, all
// offending pairs) before failing. The sum is computed in exact decimal
// arithmetic and truncated toward zero at the end so the total never
// over-reports value. An empty aggregation yields zero.
func CalculateTotalAssets(aggregated entity.AggregatedAssets, prices *entity.PriceData) (*big.Int, error) {
	var missing []common.Address
	for addr := range aggregated.Assets {
		if _, ok := prices.Prices[addr]; !ok {
			missing = append(missing, addr)
		}
	}
	if len(missing) > 0 {
		entity.SortAddresses(missing)
		return nil, &entity.MissingPricesError{Addresses: missing}
	}

	var invalid []entity.AssetPrice
	for addr := range aggregated.Assets {
		if price := prices.Prices[addr]; price.Sign() <= 0 {
			invalid = append(invalid, entity.AssetPrice{Address: addr, Price: price})
		}
	}
	if len(invalid) > 0 {
		sortAssetPrices(invalid)
		return nil, &entity.InvalidPricesError{Prices: invalid}
	}

	total := decimal.Zero
	for addr, amount := range aggregated.Assets {
		value := decimal.NewFromBigInt(amount, 0).Mul(prices.Prices[addr])
		total = total.Add(value)
	}

	// Truncate toward zero; amounts and prices are non-negative here so
	// truncation and floor coincide.
	return total.Truncate(0).BigInt(), nil
}

func sortAssetPrices(prices []entity.AssetPrice) {
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].Address.Hex() < prices[j].Address.Hex()
	})
}
