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

// Token describes one asset the idle balances adapter reads directly from
// chain state. When Native is set the holder's coin balance is read instead of
// an ERC-20 balance, and reported under Address (the wrapped token).
type Token struct {
	Symbol  string
	Address common.Address
	Native  bool
}

type balanceReader interface {
	GetBalances(ctx context.Context, queries []client.BalanceQuery) ([]client.BalanceResult, error)
}

// IdleBalancesAdapter reads the plain on-chain holdings of a subvault: native
// coin plus ERC-20 balances for every configured token. It is the default,
// valuation-critical source run against every subvault.
type IdleBalancesAdapter struct {
	evm    balanceReader
	tokens []Token
	logger port.Logger
}

// NewIdleBalancesAdapter creates an IdleBalancesAdapter over the given token
// list.
func NewIdleBalancesAdapter(evm balanceReader, tokens []Token, logger port.Logger) *IdleBalancesAdapter {
	return &IdleBalancesAdapter{evm: evm, tokens: tokens, logger: logger}
}

// Name implements port.AssetAdapter.
func (a *IdleBalancesAdapter) Name() string {
	return "idle_balances"
}

// FetchAssets reads all configured balances for the subvault in one RPC batch.
// Any per-token failure fails the whole fetch; partial balance sets would
// silently under-report the vault.
func (a *IdleBalancesAdapter) FetchAssets(ctx context.Context, subvault common.Address) ([]entity.AssetAmount, error) {
	queries := make([]client.BalanceQuery, len(a.tokens))
	for i, token := range a.tokens {
		queries[i] = client.BalanceQuery{Holder: subvault, Token: token.Address, Native: token.Native}
	}

	results, err := a.evm.GetBalances(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("idle balance batch for %s failed: %w", subvault.Hex(), err)
	}

	assets := make([]entity.AssetAmount, 0, len(results))
	for i, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("idle balance of %s for %s failed: %w", a.tokens[i].Symbol, subvault.Hex(), result.Err)
		}
		balance := result.Balance
		if balance == nil {
			balance = big.NewInt(0)
		}
		a.logger.Debug("Idle balance fetched",
			"subvault", subvault.Hex(), "token", a.tokens[i].Symbol, "balance", balance.String())
		assets = append(assets, entity.AssetAmount{
			Address: a.tokens[i].Address,
			Amount:  new(big.Int).Set(balance),
		})
	}
	return assets, nil
}
