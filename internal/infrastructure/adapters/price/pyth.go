package price

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/client"
	"nav_oracle/internal/domain/entity"
	wire "nav_oracle/internal/entity"
	"nav_oracle/internal/pkg/retry"
)

// PythFeed binds one aggregated asset to its Pyth USD price feed.
type PythFeed struct {
	Asset    common.Address
	Decimals int
	FeedID   string
}

// PythPriceAdapter derives prices from Pyth's Hermes API. Pyth quotes in USD,
// so the base asset's own USD feed forms the cross rate that converts each
// asset's USD price into raw base units per raw asset unit.
type PythPriceAdapter struct {
	api          client.HermesClient
	base         common.Address
	baseFeedID   string
	baseDecimals int
	feeds        []PythFeed
	retryPolicy  retry.Policy
	logger       port.Logger
}

// NewPythPriceAdapter creates a PythPriceAdapter over the given feed bindings.
func NewPythPriceAdapter(api client.HermesClient, base common.Address, baseFeedID string, baseDecimals int, feeds []PythFeed, logger port.Logger) *PythPriceAdapter {
	return &PythPriceAdapter{
		api:          api,
		base:         base,
		baseFeedID:   baseFeedID,
		baseDecimals: baseDecimals,
		feeds:        feeds,
		retryPolicy:  retry.DefaultPolicy(),
		logger:       logger,
	}
}

// Name implements port.PriceAdapter.
func (a *PythPriceAdapter) Name() string {
	return "pyth"
}

// FetchPrices fetches USD prices for every bound, not-yet-priced asset in a
// single Hermes request and writes the cross rates against the base asset.
// Assets priced by earlier adapters are never overwritten.
func (a *PythPriceAdapter) FetchPrices(ctx context.Context, assetAddresses []common.Address, acc *entity.PriceData) error {
	if acc.BaseAsset != a.base {
		return &entity.BaseAssetMismatchError{Adapter: a.Name(), Expected: a.base, Actual: acc.BaseAsset}
	}

	wanted := make(map[common.Address]struct{}, len(assetAddresses))
	for _, addr := range assetAddresses {
		wanted[addr] = struct{}{}
	}

	feedIDs := []string{a.baseFeedID}
	pending := make([]PythFeed, 0, len(a.feeds))
	for _, feed := range a.feeds {
		if _, ok := wanted[feed.Asset]; !ok {
			continue
		}
		if _, priced := acc.Price(feed.Asset); priced {
			continue
		}
		feedIDs = append(feedIDs, feed.FeedID)
		pending = append(pending, feed)
	}
	if len(pending) == 0 {
		return nil
	}

	var parsed []wire.HermesParsedPrice
	err := a.retryPolicy.Do(ctx, func() error {
		var fetchErr error
		parsed, fetchErr = a.api.GetLatestPrices(ctx, feedIDs)
		return fetchErr
	})
	if err != nil {
		return fmt.Errorf("hermes price fetch failed: %w", err)
	}

	usdByFeed := make(map[string]decimal.Decimal, len(parsed))
	for _, entry := range parsed {
		usdByFeed[feedKey(entry.ID)] = hermesPriceDecimal(entry.Price)
	}

	baseUSD, ok := usdByFeed[feedKey(a.baseFeedID)]
	if !ok || baseUSD.IsZero() {
		return fmt.Errorf("hermes returned no usable price for base feed %s", a.baseFeedID)
	}

	for _, feed := range pending {
		assetUSD, ok := usdByFeed[feedKey(feed.FeedID)]
		if !ok {
			return fmt.Errorf("hermes returned no price for feed %s (asset %s)", feed.FeedID, feed.Asset.Hex())
		}

		// Cross rate in raw base units per raw asset unit.
		unitPrice := assetUSD.Div(baseUSD).Shift(int32(a.baseDecimals - feed.Decimals))
		a.logger.Debug("Pyth cross rate priced asset",
			"asset", feed.Asset.Hex(), "usd", assetUSD.String(), "price", unitPrice.String())
		acc.SetPrice(feed.Asset, unitPrice, feed.Decimals)
	}
	return nil
}

// hermesPriceDecimal converts a Hermes fixed-point price (integer string
// scaled by 10^expo) to a decimal.
func hermesPriceDecimal(p wire.HermesPrice) decimal.Decimal {
	value, err := decimal.NewFromString(p.Price)
	if err != nil {
		return decimal.Zero
	}
	return value.Shift(p.Expo)
}

// feedKey strips the optional 0x prefix and lowercases so config and API
// representations compare equal.
func feedKey(id string) string {
	return strings.ToLower(strings.TrimPrefix(id, "0x"))
}
