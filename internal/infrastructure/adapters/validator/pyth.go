package validator

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
)

// PythFeed binds one aggregated asset to its Pyth price feed.
type PythFeed struct {
	Asset    common.Address
	Decimals int
	FeedID   string
}

// PythValidator re-derives asset prices from Pyth's Hermes API and compares
// them to the accumulated prices. Pyth quotes in USD, so the base asset's own
// USD feed is used to form the cross rate.
type PythValidator struct {
	api          client.HermesClient
	baseFeedID   string
	baseDecimals int
	feeds        []PythFeed
	tolerances   toleranceChecker
	logger       port.Logger
}

// NewPythValidator creates a PythValidator over the given feed bindings.
func NewPythValidator(api client.HermesClient, baseFeedID string, baseDecimals int, feeds []PythFeed, warnPct, failPct float64, logger port.Logger) *PythValidator {
	return &PythValidator{
		api:          api,
		baseFeedID:   baseFeedID,
		baseDecimals: baseDecimals,
		feeds:        feeds,
		tolerances:   newToleranceChecker(warnPct, failPct),
		logger:       logger,
	}
}

// Name implements port.PriceValidator.
func (v *PythValidator) Name() string {
	return "pyth"
}

// Validate fetches USD prices for every bound feed plus the base asset and
// fails on the first asset whose cross-rate deviation breaches the failure
// tolerance.
func (v *PythValidator) Validate(ctx context.Context, prices *entity.PriceData) (entity.CheckResult, error) {
	feedIDs := make([]string, 0, len(v.feeds)+1)
	feedIDs = append(feedIDs, v.baseFeedID)
	checked := 0
	for _, feed := range v.feeds {
		if _, ok := prices.Price(feed.Asset); ok {
			feedIDs = append(feedIDs, feed.FeedID)
		}
	}
	if len(feedIDs) == 1 {
		return entity.Pass("no pyth-covered assets in this cycle"), nil
	}

	parsed, err := v.api.GetLatestPrices(ctx, feedIDs)
	if err != nil {
		return entity.CheckResult{}, fmt.Errorf("hermes price fetch failed: %w", err)
	}
	usdByFeed := make(map[string]decimal.Decimal, len(parsed))
	for _, entry := range parsed {
		usdByFeed[normalizeFeedID(entry.ID)] = pythToDecimal(entry.Price)
	}

	baseUSD, ok := usdByFeed[normalizeFeedID(v.baseFeedID)]
	if !ok || baseUSD.IsZero() {
		return entity.CheckResult{}, fmt.Errorf("hermes returned no usable price for base feed %s", v.baseFeedID)
	}

	for _, feed := range v.feeds {
		actual, priced := prices.Price(feed.Asset)
		if !priced {
			continue
		}
		assetUSD, ok := usdByFeed[normalizeFeedID(feed.FeedID)]
		if !ok {
			return entity.CheckResult{}, fmt.Errorf("hermes returned no price for feed %s (asset %s)", feed.FeedID, feed.Asset.Hex())
		}

		// Cross rate in raw base units per raw asset unit.
		reference := assetUSD.Div(baseUSD).Shift(int32(v.baseDecimals - feed.Decimals))
		deviation, warn, fail, err := v.tolerances.check(feed.Asset, reference, actual)
		if err != nil {
			return entity.CheckResult{}, err
		}
		if fail {
			return entity.Fail(fmt.Sprintf(
				"pyth price for %s deviates %s%% from accumulated price (failure tolerance %s%%)",
				feed.Asset.Hex(), deviation.StringFixed(4), v.tolerances.failPct.String()), false), nil
		}
		if warn {
			v.logger.Warn("Pyth price deviation above warning tolerance",
				"asset", feed.Asset.Hex(), "deviation_pct", deviation.StringFixed(4))
		}
		checked++
	}

	return entity.Pass(fmt.Sprintf("%d asset(s) within tolerance of pyth", checked)), nil
}

// pythToDecimal converts a Hermes fixed-point price (integer string scaled by
// 10^expo) to a decimal.
func pythToDecimal(p wire.HermesPrice) decimal.Decimal {
	value, err := decimal.NewFromString(p.Price)
	if err != nil {
		return decimal.Zero
	}
	return value.Shift(p.Expo)
}

// normalizeFeedID strips the optional 0x prefix and lowercases so config and
// API representations compare equal.
func normalizeFeedID(id string) string {
	return strings.ToLower(strings.TrimPrefix(id, "0x"))
}
