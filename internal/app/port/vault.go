package port

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/domain/entity"
)

// VaultReader reads subvault membership from the vault contract.
type VaultReader interface {
	// SubvaultAddresses discovers every subvault registered on the vault.
	SubvaultAddresses(ctx context.Context, vault common.Address) ([]common.Address, error)
}

// OracleHelper converts the total valuation plus per-asset balances into
// submission-ready 18-decimal fixed-point prices via the on-chain helper
// contract. Valuation-only assets contribute to totalAssets but are excluded
// from the returned price set.
type OracleHelper interface {
	DeriveFinalPrices(ctx context.Context, totalAssets *big.Int, aggregated entity.AggregatedAssets, prices *entity.PriceData) (map[common.Address]*big.Int, error)
}
