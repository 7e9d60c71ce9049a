package port

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/domain/entity"
)

// AssetAdapter fetches one protocol's balances for a subvault. Implementations
// are free to fail with network or contract errors; the asset service decides
// whether a failure is fatal for the cycle.
type AssetAdapter interface {
	// Name returns the registry name of this adapter.
	Name() string

	// FetchAssets returns the complete balance list for the given subvault.
	FetchAssets(ctx context.Context, subvault common.Address) ([]entity.AssetAmount, error)
}

// PriceAdapter enriches the shared price accumulator with prices for the
// addresses it recognizes. Adapters must fail fast when the accumulator's base
// asset is not one they can price against, and must leave unrecognized
// addresses untouched.
type PriceAdapter interface {
	Name() string

	// FetchPrices inspects assetAddresses and writes a price plus native
	// decimal count into the accumulator for each recognized asset.
	FetchPrices(ctx context.Context, assetAddresses []common.Address, acc *entity.PriceData) error
}

// PriceValidator re-derives prices for a subset of assets from an independent
// source and compares them against the accumulated prices. Validators never
// mutate the accumulator.
type PriceValidator interface {
	Name() string

	Validate(ctx context.Context, prices *entity.PriceData) (entity.CheckResult, error)
}

// CheckAdapter is a single pre-flight safety gate. An error return is treated
// by the orchestrator as a failed check whose message is the error text.
type CheckAdapter interface {
	Name() string

	RunCheck(ctx context.Context) (entity.CheckResult, error)
}
