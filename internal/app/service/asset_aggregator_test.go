package service

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/domain/entity"
)

var (
	addrUSDC  = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	addrWETH  = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	addrOther = common.HexToAddress("0x0000000000000000000000000000000000000042")
)

func amount(addr common.Address, value int64) entity.AssetAmount {
	return entity.AssetAmount{Address: addr, Amount: big.NewInt(value)}
}

func TestAggregateAssetsSumsSameAsset(t *testing.T) {
	aggregated, err := AggregateAssets([][]entity.AssetAmount{
		{amount(addrUSDC, 1_000_000)},
		{amount(addrUSDC, 500_000)},
	})

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_500_000), aggregated.Assets[addrUSDC])
	assert.Len(t, aggregated.Assets, 1)
}

func TestAggregateAssetsIsCommutative(t *testing.T) {
	inputs := [][]entity.AssetAmount{
		{amount(addrUSDC, 100), amount(addrWETH, 7)},
		{amount(addrOther, 3)},
		{amount(addrUSDC, 23)},
	}
	reversed := [][]entity.AssetAmount{inputs[2], inputs[1], inputs[0]}

	forward, err := AggregateAssets(inputs)
	require.NoError(t, err)
	backward, err := AggregateAssets(reversed)
	require.NoError(t, err)

	assert.Equal(t, forward.Assets, backward.Assets)
}

func TestAggregateAssetsNormalizesAddressCase(t *testing.T) {
	lower := common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	upper := common.HexToAddress("0xA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48")

	aggregated, err := AggregateAssets([][]entity.AssetAmount{
		{amount(lower, 1)},
		{amount(upper, 2)},
	})

	require.NoError(t, err)
	assert.Len(t, aggregated.Assets, 1)
	assert.Equal(t, big.NewInt(3), aggregated.Assets[addrUSDC])
}

func TestAggregateAssetsValuationOnlyagreementIsKept(t *testing.T) {
	aggregated, err := AggregateAssets([][]entity.AssetAmount{
		{{Address: addrOther, Amount: big.NewInt(10), ValuationOnly: true}},
		{{Address: addrOther, Amount: big.NewInt(5), ValuationOnly: true}},
	})

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(15), aggregated.Assets[addrOther])
	assert.True(t, aggregated.IsValuationOnly(addrOther))
}

func TestAggregateAssetsValuationOnlyConflictFails(t *testing.T) {
	_, err := AggregateAssets([][]entity.AssetAmount{
		{{Address: addrOther, Amount: big.NewInt(10), ValuationOnly: true}},
		{amount(addrOther, 5)},
	})

	var conflictErr *entity.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, []common.Address{addrOther}, conflictErr.Addresses)
}

func TestAggregateAssetsConflictListsAllOffendersSorted(t *testing.T) {
	_, err := AggregateAssets([][]entity.AssetAmount{
		{
			{Address: addrWETH, Amount: big.NewInt(1), ValuationOnly: true},
			{Address: addrUSDC, Amount: big.NewInt(1), ValuationOnly: true},
		},
		{amount(addrWETH, 1), amount(addrUSDC, 1)},
	})

	var conflictErr *entity.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	// sorted by address value: 0xA0... before 0xC0...
	assert.Equal(t, []common.Address{addrUSDC, addrWETH}, conflictErr.Addresses)
}

func TestAggregateAssetsEmptyInput(t *testing.T) {
	aggregated, err := AggregateAssets(nil)

	require.NoError(t, err)
	assert.Empty(t, aggregated.Assets)
}
