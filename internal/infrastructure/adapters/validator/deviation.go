package validator

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// toleranceChecker applies the two-level deviation thresholds shared by every
// price validator. Percentages are absolute (0.5 means 0.5%).
type toleranceChecker struct {
	warnPct decimal.Decimal
	failPct decimal.Decimal
}

func newToleranceChecker(warnPct, failPct float64) toleranceChecker {
	return toleranceChecker{
		warnPct: decimal.NewFromFloat(warnPct),
		failPct: decimal.NewFromFloat(failPct),
	}
}

// check computes deviation = |reference - actual| / actual * 100 and grades
// it against the thresholds. Both thresholds are exclusive: a deviation equal
// to a tolerance does not breach it. An actual price of zero is a
// division-by-zero condition and surfaces as *entity.ZeroPriceError rather
// than a graded deviation.
func (t toleranceChecker) check(addr common.Address, reference, actual decimal.Decimal) (deviation decimal.Decimal, exceedsWarn, exceedsFail bool, err error) {
	if actual.IsZero() {
		return decimal.Zero, false, false, &entity.ZeroPriceError{Address: addr}
	}
	deviation = reference.Sub(actual).Abs().Div(actual.Abs()).Mul(hundred)
	return deviation, deviation.GreaterThan(t.warnPct), deviation.GreaterThan(t.failPct), nil
}
