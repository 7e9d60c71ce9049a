package validator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/domain/entity"
)

// PositivePricesValidator enforces price > 0 for every accumulated entry. It
// is a pure invariant check with no external dependency and is always wired.
type PositivePricesValidator struct{}

// NewPositivePricesValidator creates a PositivePricesValidator.
func NewPositivePricesValidator() *PositivePricesValidator {
	return &PositivePricesValidator{}
}

// Name implements port.PriceValidator.
func (v *PositivePricesValidator) Name() string {
	return "positive_prices"
}

// Validate collects every non-positive price and fails naming all of them.
func (v *PositivePricesValidator) Validate(_ context.Context, prices *entity.PriceData) (entity.CheckResult, error) {
	var offenders []common.Address
	for addr, price := range prices.Prices {
		if price.Sign() <= 0 {
			offenders = append(offenders, addr)
		}
	}
	if len(offenders) == 0 {
		return entity.Pass(fmt.Sprintf("all %d prices are positive", len(prices.Prices))), nil
	}

	entity.SortAddresses(offenders)
	parts := make([]string, len(offenders))
	for i, addr := range offenders {
		parts[i] = fmt.Sprintf("%s=%s", addr.Hex(), prices.Prices[addr].String())
	}
	return entity.Fail(fmt.Sprintf("non-positive prices: %v", parts), false), nil
}
