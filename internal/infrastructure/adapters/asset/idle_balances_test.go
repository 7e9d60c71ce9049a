package asset

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/infrastructure/network/client"
)

type stubBalanceReader struct {
	gotQueries []client.BalanceQuery
	balances   []*big.Int
	itemErr    error
	err        error
}

func (s *stubBalanceReader) GetBalances(_ context.Context, queries []client.BalanceQuery) ([]client.BalanceResult, error) {
	s.gotQueries = queries
	if s.err != nil {
		return nil, s.err
	}
	results := make([]client.BalanceResult, len(queries))
	for i, query := range queries {
		results[i] = client.BalanceResult{Query: query, Balance: s.balances[i], Err: s.itemErr}
	}
	return results, nil
}

var (
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
)

func idleTokens() []Token {
	return []Token{
		{Symbol: "WETH", Address: wethAddr},
		{Symbol: "ETH", Address: wethAddr, Native: true},
		{Symbol: "USDC", Address: usdcAddr},
	}
}

func TestIdleBalancesNativeQueryFlag(t *testing.T) {
	reader := &stubBalanceReader{balances: []*big.Int{
		big.NewInt(100), big.NewInt(40), big.NewInt(7),
	}}
	a := NewIdleBalancesAdapter(reader, idleTokens(), noopLogger{})

	assets, err := a.FetchAssets(context.Background(), testSubvault)

	require.NoError(t, err)
	require.Len(t, reader.gotQueries, 3)
	assert.False(t, reader.gotQueries[0].Native)
	assert.True(t, reader.gotQueries[1].Native)
	assert.Equal(t, testSubvault, reader.gotQueries[1].Holder)

	// The native balance is reported under the wrapped token's address so
	// aggregation sums it with the ERC-20 holding.
	require.Len(t, assets, 3)
	assert.Equal(t, wethAddr, assets[0].Address)
	assert.Equal(t, wethAddr, assets[1].Address)
	assert.Equal(t, "100", assets[0].Amount.String())
	assert.Equal(t, "40", assets[1].Amount.String())
	assert.Equal(t, usdcAddr, assets[2].Address)
}

func TestIdleBalancesBatchErrorFailsFetch(t *testing.T) {
	reader := &stubBalanceReader{err: errors.New("rpc batch failed")}
	a := NewIdleBalancesAdapter(reader, idleTokens(), noopLogger{})

	_, err := a.FetchAssets(context.Background(), testSubvault)

	require.Error(t, err)
	assert.Contains(t, err.Error(), testSubvault.Hex())
}

func TestIdleBalancesPerTokenErrorFailsFetch(t *testing.T) {
	reader := &stubBalanceReader{
		balances: []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)},
		itemErr:  errors.New("execution reverted"),
	}
	a := NewIdleBalancesAdapter(reader, idleTokens(), noopLogger{})

	_, err := a.FetchAssets(context.Background(), testSubvault)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "WETH")
}
