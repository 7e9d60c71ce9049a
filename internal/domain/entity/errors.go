package entity

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// ConflictError reports an irreconcilable valuation-only flag disagreement
// between adapters for the same normalized asset address. It aborts the cycle;
// the conflict is a data-integrity violation and is never silently resolved.
type ConflictError struct {
	Addresses []common.Address
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("valuation-only flag conflict between adapters for assets: %s",
		joinAddresses(e.Addresses))
}

// MissingPricesError reports aggregated assets that have a balance but no
// accumulated price. All missing addresses are collected before failing.
type MissingPricesError struct {
	Addresses []common.Address
}

func (e *MissingPricesError) Error() string {
	return fmt.Sprintf("prices missing for assets: %s", joinAddresses(e.Addresses))
}

// AssetPrice pairs an asset address with its offending price.
type AssetPrice struct {
	Address common.Address
	Price   decimal.Decimal
}

// InvalidPricesError reports non-positive prices that would have been used in
// the total-value calculation.
type InvalidPricesError struct {
	Prices []AssetPrice
}

func (e *InvalidPricesError) Error() string {
	parts := make([]string, len(e.Prices))
	for i, p := range e.Prices {
		parts[i] = fmt.Sprintf("%s: %s", p.Address.Hex(), p.Price.String())
	}
	return fmt.Sprintf("invalid prices for assets: %s", strings.Join(parts, ", "))
}

// ZeroPriceError reports a deviation check against an actual price of zero,
// which is a division-by-zero condition distinct from a normal deviation
// failure.
type ZeroPriceError struct {
	Address common.Address
}

func (e *ZeroPriceError) Error() string {
	return fmt.Sprintf("cannot compute price deviation for %s: actual price is zero", e.Address.Hex())
}

// CheckFailedError aggregates every failing result from one round of
// concurrent checks or validators. RetryRecommended is the logical OR across
// the individual failures; the retry controller decides whether to attempt
// again.
type CheckFailedError struct {
	Failures         []string
	RetryRecommended bool
}

func (e *CheckFailedError) Error() string {
	return fmt.Sprintf("checks failed: %s", strings.Join(e.Failures, "; "))
}

// BaseAssetMismatchError reports a price adapter wired against an accumulator
// with a base asset it cannot price against. This is a configuration error and
// fails the cycle immediately.
type BaseAssetMismatchError struct {
	Adapter  string
	Expected common.Address
	Actual   common.Address
}

func (e *BaseAssetMismatchError) Error() string {
	return fmt.Sprintf("price adapter %q only supports base asset %s, accumulator has %s",
		e.Adapter, e.Expected.Hex(), e.Actual.Hex())
}

// AdapterFailuresError reports valuation-critical asset adapters whose fetch
// failed. Optional adapters are logged and skipped instead.
type AdapterFailuresError struct {
	Names []string
}

func (e *AdapterFailuresError) Error() string {
	return fmt.Sprintf("could not collect assets from %d adapter(s): %s",
		len(e.Names), strings.Join(e.Names, ", "))
}

// SortAddresses sorts addresses by their byte value so that error messages
// and derived calldata are deterministic regardless of checksum casing.
func SortAddresses(addrs []common.Address) {
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
}

func joinAddresses(addrs []common.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.Hex()
	}
	return strings.Join(parts, ", ")
}
