package asset

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/infrastructure/network/client"
)

// LidoStakingAdapter values a subvault's wstETH position in stETH terms via
// the wstETH contract's exchange rate. The position is reported under the
// stETH address; the raw wstETH balance itself stays with the idle balances
// adapter, so the two never collide on an address.
type LidoStakingAdapter struct {
	evm    *client.EVMClient
	wsteth common.Address
	steth  common.Address
	logger port.Logger
}

// NewLidoStakingAdapter creates a LidoStakingAdapter.
func NewLidoStakingAdapter(evm *client.EVMClient, wsteth, steth common.Address, logger port.Logger) *LidoStakingAdapter {
	return &LidoStakingAdapter{evm: evm, wsteth: wsteth, steth: steth, logger: logger}
}

// Name implements port.AssetAdapter.
func (a *LidoStakingAdapter) Name() string {
	return "lido_staking"
}

// FetchAssets reads the subvault's wstETH balance and converts it to its
// stETH equivalent.
func (a *LidoStakingAdapter) FetchAssets(ctx context.Context, subvault common.Address) ([]entity.AssetAmount, error) {
	results, err := a.evm.GetBalances(ctx, []client.BalanceQuery{{Holder: subvault, Token: a.wsteth}})
	if err != nil {
		return nil, fmt.Errorf("wstETH balance for %s failed: %w", subvault.Hex(), err)
	}
	if results[0].Err != nil {
		return nil, fmt.Errorf("wstETH balance for %s failed: %w", subvault.Hex(), results[0].Err)
	}

	balance := results[0].Balance
	if balance == nil || balance.Sign() == 0 {
		return []entity.AssetAmount{}, nil
	}

	stethAmount, err := a.evm.StETHByWstETH(ctx, a.wsteth, balance)
	if err != nil {
		return nil, fmt.Errorf("wstETH conversion for %s failed: %w", subvault.Hex(), err)
	}
	a.logger.Debug("Staked position valued",
		"subvault", subvault.Hex(), "wsteth", balance.String(), "steth", stethAmount.String())

	return []entity.AssetAmount{{
		Address: a.steth,
		Amount:  new(big.Int).Set(stethAmount),
	}}, nil
}
