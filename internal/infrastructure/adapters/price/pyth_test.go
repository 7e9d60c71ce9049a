package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nav_oracle/internal/domain/entity"
	wire "nav_oracle/internal/entity"
	"nav_oracle/internal/pkg/retry"
)

type stubHermes struct {
	parsed []wire.HermesParsedPrice
	err    error
	gotIDs []string
}

func (h *stubHermes) GetLatestPrices(_ context.Context, feedIDs []string) ([]wire.HermesParsedPrice, error) {
	h.gotIDs = feedIDs
	return h.parsed, h.err
}

const (
	ethFeedID  = "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace"
	usdcFeedID = "0xeaa020c61cc479712813461ce153894a96a6c00b21ed0cfc2798d1f9a9e9c94a"
)

func hermesEntry(id, price string, expo int32) wire.HermesParsedPrice {
	return wire.HermesParsedPrice{
		ID:    id[2:], // Hermes returns IDs without the 0x prefix
		Price: wire.HermesPrice{Price: price, Expo: expo},
	}
}

func pythAdapter(api *stubHermes) *PythPriceAdapter {
	a := NewPythPriceAdapter(api, baseWETH, ethFeedID, 18, []PythFeed{{
		Asset:    unrelated,
		Decimals: 6,
		FeedID:   usdcFeedID,
	}}, noopLogger{})
	a.retryPolicy = retry.Policy{MaxAttempts: 1, BaseDelay: time.Microsecond}
	return a
}

func TestPythAdapterCrossRatePricing(t *testing.T) {
	// ETH at $2000 and USDC at $1, both with Pyth's usual -8 exponent.
	api := &stubHermes{parsed: []wire.HermesParsedPrice{
		hermesEntry(ethFeedID, "200000000000", -8),
		hermesEntry(usdcFeedID, "100000000", -8),
	}}
	adapter := pythAdapter(api)
	acc := entity.NewPriceData(baseWETH)

	err := adapter.FetchPrices(context.Background(), []common.Address{unrelated}, acc)

	require.NoError(t, err)
	assert.Equal(t, []string{ethFeedID, usdcFeedID}, api.gotIDs)
	// 1/2000 base per asset unit, shifted by 10^(18-6) raw decimals.
	price, ok := acc.Price(unrelated)
	require.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("500000000")), price.String())
	assert.Equal(t, 6, acc.Decimals[unrelated])
}

func TestPythAdapterSkipsAlreadyPricedAssets(t *testing.T) {
	api := &stubHermes{}
	adapter := pythAdapter(api)
	acc := entity.NewPriceData(baseWETH)
	existing := decimal.RequireFromString("123456")
	acc.SetPrice(unrelated, existing, 6)

	err := adapter.FetchPrices(context.Background(), []common.Address{unrelated}, acc)

	require.NoError(t, err)
	assert.Nil(t, api.gotIDs)
	price, _ := acc.Price(unrelated)
	assert.True(t, price.Equal(existing))
}

func TestPythAdapterNoBoundAssetsSkipsFetch(t *testing.T) {
	api := &stubHermes{}
	adapter := pythAdapter(api)
	acc := entity.NewPriceData(baseWETH)

	err := adapter.FetchPrices(context.Background(), []common.Address{peggedSt}, acc)

	require.NoError(t, err)
	assert.Nil(t, api.gotIDs)
}

func TestPythAdapterBaseAssetMismatch(t *testing.T) {
	adapter := pythAdapter(&stubHermes{})
	acc := entity.NewPriceData(unrelated)

	err := adapter.FetchPrices(context.Background(), []common.Address{unrelated}, acc)

	var mismatch *entity.BaseAssetMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestPythAdapterMissingBaseFeed(t *testing.T) {
	api := &stubHermes{parsed: []wire.HermesParsedPrice{
		hermesEntry(usdcFeedID, "100000000", -8),
	}}
	adapter := pythAdapter(api)
	acc := entity.NewPriceData(baseWETH)

	err := adapter.FetchPrices(context.Background(), []common.Address{unrelated}, acc)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "base feed")
}

func TestPythAdapterFetchErrorPropagates(t *testing.T) {
	apiErr := errors.New("hermes unreachable")
	api := &stubHermes{err: apiErr}
	adapter := pythAdapter(api)
	acc := entity.NewPriceData(baseWETH)

	err := adapter.FetchPrices(context.Background(), []common.Address{unrelated}, acc)

	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
}
