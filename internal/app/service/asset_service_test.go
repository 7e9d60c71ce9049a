package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
)

var (
	testVault     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	subvaultOne   = common.HexToAddress("0x2000000000000000000000000000000000000001")
	subvaultTwo   = common.HexToAddress("0x2000000000000000000000000000000000000002")
	outsideVault  = common.HexToAddress("0x3000000000000000000000000000000000000001")
	unknownConfig = common.HexToAddress("0x4000000000000000000000000000000000000001")
)

type stubVaultReader struct {
	subvaults []common.Address
	err       error
}

func (r *stubVaultReader) SubvaultAddresses(context.Context, common.Address) ([]common.Address, error) {
	return r.subvaults, r.err
}

// stubAssetAdapter returns fixed amounts per subvault, or a per-subvault error.
type stubAssetAdapter struct {
	name    string
	assets  map[common.Address][]entity.AssetAmount
	failFor map[common.Address]error
}

func (a *stubAssetAdapter) Name() string { return a.name }

func (a *stubAssetAdapter) FetchAssets(_ context.Context, subvault common.Address) ([]entity.AssetAmount, error) {
	if err, ok := a.failFor[subvault]; ok {
		return nil, err
	}
	return a.assets[subvault], nil
}

func TestCollectAssetsMergesAcrossSubvaults(t *testing.T) {
	reader := &stubVaultReader{subvaults: []common.Address{subvaultOne, subvaultTwo}}
	idle := &stubAssetAdapter{name: "idle_balances", assets: map[common.Address][]entity.AssetAmount{
		subvaultOne: {amount(addrUSDC, 100)},
		subvaultTwo: {amount(addrUSDC, 50), amount(addrWETH, 7)},
	}}
	svc := NewAssetService(reader, idle, nil, noopLogger{}, 4)

	aggregated, err := svc.CollectAssets(context.Background(), testVault)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150), aggregated.Assets[addrUSDC])
	assert.Equal(t, big.NewInt(7), aggregated.Assets[addrWETH])
}

func TestCollectAssetsCriticalFailureIsFatal(t *testing.T) {
	reader := &stubVaultReader{subvaults: []common.Address{subvaultOne, subvaultTwo}}
	idle := &stubAssetAdapter{
		name:    "idle_balances",
		assets:  map[common.Address][]entity.AssetAmount{subvaultOne: {amount(addrUSDC, 100)}},
		failFor: map[common.Address]error{subvaultTwo: errors.New("rpc timeout")},
	}
	svc := NewAssetService(reader, idle, nil, noopLogger{}, 4)

	_, err := svc.CollectAssets(context.Background(), testVault)

	var failures *entity.AdapterFailuresError
	require.ErrorAs(t, err, &failures)
	require.Len(t, failures.Names, 1)
	assert.Contains(t, failures.Names[0], "idle_balances")
	assert.Contains(t, failures.Names[0], subvaultTwo.Hex())
}

func TestCollectAssetsOptionalFailureIsSkipped(t *testing.T) {
	reader := &stubVaultReader{subvaults: []common.Address{subvaultOne}}
	idle := &stubAssetAdapter{name: "idle_balances", assets: map[common.Address][]entity.AssetAmount{
		subvaultOne: {amount(addrUSDC, 100)},
	}}
	flaky := &stubAssetAdapter{
		name:    "hyperliquid",
		failFor: map[common.Address]error{subvaultOne: errors.New("api down")},
	}
	cfg := []SubvaultAdapters{{Subvault: subvaultOne, Adapters: []port.AssetAdapter{flaky}}}
	svc := NewAssetService(reader, idle, cfg, noopLogger{}, 4)

	aggregated, err := svc.CollectAssets(context.Background(), testVault)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), aggregated.Assets[addrUSDC])
}

func TestCollectAssetsRejectsUnknownConfiguredSubvault(t *testing.T) {
	reader := &stubVaultReader{subvaults: []common.Address{subvaultOne}}
	idle := &stubAssetAdapter{name: "idle_balances"}
	cfg := []SubvaultAdapters{{Subvault: unknownConfig}}
	svc := NewAssetService(reader, idle, cfg, noopLogger{}, 4)

	_, err := svc.CollectAssets(context.Background(), testVault)

	require.Error(t, err)
	assert.Contains(t, err.Error(), unknownConfig.Hex())
}

func TestCollectAssetsExistenceCheckExemptionAddsFanOut(t *testing.T) {
	reader := &stubVaultReader{subvaults: []common.Address{subvaultOne}}
	idle := &stubAssetAdapter{name: "idle_balances", assets: map[common.Address][]entity.AssetAmount{
		subvaultOne: {amount(addrUSDC, 100)},
	}}
	extra := &stubAssetAdapter{name: "hyperliquid", assets: map[common.Address][]entity.AssetAmount{
		outsideVault: {amount(addrWETH, 9)},
	}}
	cfg := []SubvaultAdapters{{
		Subvault:           outsideVault,
		Adapters:           []port.AssetAdapter{extra},
		SkipIdleBalances:   true,
		SkipExistenceCheck: true,
	}}
	svc := NewAssetService(reader, idle, cfg, noopLogger{}, 4)

	aggregated, err := svc.CollectAssets(context.Background(), testVault)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), aggregated.Assets[addrUSDC])
	assert.Equal(t, big.NewInt(9), aggregated.Assets[addrWETH])
}

func TestCollectAssetsSkipIdleBalances(t *testing.T) {
	reader := &stubVaultReader{subvaults: []common.Address{subvaultOne}}
	idle := &stubAssetAdapter{
		name:    "idle_balances",
		failFor: map[common.Address]error{subvaultOne: errors.New("should not be called")},
	}
	extra := &stubAssetAdapter{name: "hyperliquid", assets: map[common.Address][]entity.AssetAmount{
		subvaultOne: {amount(addrWETH, 3)},
	}}
	cfg := []SubvaultAdapters{{Subvault: subvaultOne, Adapters: []port.AssetAdapter{extra}, SkipIdleBalances: true}}
	svc := NewAssetService(reader, idle, cfg, noopLogger{}, 4)

	aggregated, err := svc.CollectAssets(context.Background(), testVault)

	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), aggregated.Assets[addrWETH])
}

func TestCollectAssetsDiscoveryFailure(t *testing.T) {
	reader := &stubVaultReader{err: errors.New("eth_call reverted")}
	svc := NewAssetService(reader, &stubAssetAdapter{name: "idle_balances"}, nil, noopLogger{}, 4)

	_, err := svc.CollectAssets(context.Background(), testVault)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "eth_call reverted")
}
