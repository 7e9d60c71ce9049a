package validator

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/domain/entity"
)

var testAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestToleranceCheckerDeviationValue(t *testing.T) {
	checker := newToleranceChecker(0.5, 1.0)

	// |1100 - 1000| / 1000 * 100 = 10.0
	deviation, exceedsWarn, exceedsFail, err := checker.check(testAddr, dec("1100"), dec("1000"))

	require.NoError(t, err)
	assert.True(t, deviation.Equal(dec("10")))
	assert.True(t, exceedsWarn)
	assert.True(t, exceedsFail)
}

func TestToleranceCheckerIdenticalPrices(t *testing.T) {
	checker := newToleranceChecker(0.5, 1.0)

	deviation, exceedsWarn, exceedsFail, err := checker.check(testAddr, dec("1000"), dec("1000"))

	require.NoError(t, err)
	assert.True(t, deviation.IsZero())
	assert.False(t, exceedsWarn)
	assert.False(t, exceedsFail)
}

func TestToleranceCheckerZeroActualPrice(t *testing.T) {
	checker := newToleranceChecker(0.5, 1.0)

	_, _, _, err := checker.check(testAddr, dec("1000"), decimal.Zero)

	var zeroErr *entity.ZeroPriceError
	require.ErrorAs(t, err, &zeroErr)
	assert.Equal(t, testAddr, zeroErr.Address)
}

func TestToleranceCheckerThresholdsAreExclusive(t *testing.T) {
	checker := newToleranceChecker(0.5, 1.0)

	// deviation exactly 0.5% does not breach the warning threshold
	deviation, exceedsWarn, _, err := checker.check(testAddr, dec("100.5"), dec("100"))
	require.NoError(t, err)
	assert.True(t, deviation.Equal(dec("0.5")))
	assert.False(t, exceedsWarn)

	// deviation exactly 1.0% warns but does not fail
	deviation, exceedsWarn, exceedsFail, err := checker.check(testAddr, dec("101"), dec("100"))
	require.NoError(t, err)
	assert.True(t, deviation.Equal(dec("1")))
	assert.True(t, exceedsWarn)
	assert.False(t, exceedsFail)

	// anything past the failure threshold fails
	_, _, exceedsFail, err = checker.check(testAddr, dec("101.01"), dec("100"))
	require.NoError(t, err)
	assert.True(t, exceedsFail)
}

func TestToleranceCheckerSymmetricDeviation(t *testing.T) {
	checker := newToleranceChecker(0.5, 1.0)

	below, _, _, err := checker.check(testAddr, dec("900"), dec("1000"))
	require.NoError(t, err)
	assert.True(t, below.Equal(dec("10")))
}
