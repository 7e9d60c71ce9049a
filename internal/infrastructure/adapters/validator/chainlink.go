package validator

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
)

// roundDataReader is the slice of the EVM client this validator needs.
type roundDataReader interface {
	LatestRoundData(ctx context.Context, feed common.Address) (answer, updatedAt *big.Int, decimals uint8, err error)
}

// ChainlinkFeed binds one aggregated asset to an on-chain Chainlink
// aggregator quoting it against the base asset.
type ChainlinkFeed struct {
	Asset         common.Address
	AssetDecimals int
	Feed          common.Address
	// Inverted marks feeds quoted the other way around (base per asset
	// becomes asset per base); the answer is reciprocated before comparison.
	Inverted   bool
	StaleAfter time.Duration
}

// ChainlinkValidator re-derives prices from Chainlink aggregators and
// compares them to the accumulated prices. A stale feed fails the validation
// rather than silently validating against old data.
type ChainlinkValidator struct {
	evm          roundDataReader
	baseDecimals int
	feeds        []ChainlinkFeed
	tolerances   toleranceChecker
	logger       port.Logger
	now          func() time.Time
}

// NewChainlinkValidator creates a ChainlinkValidator over the given feeds.
func NewChainlinkValidator(evm roundDataReader, baseDecimals int, feeds []ChainlinkFeed, warnPct, failPct float64, logger port.Logger) *ChainlinkValidator {
	return &ChainlinkValidator{
		evm:          evm,
		baseDecimals: baseDecimals,
		feeds:        feeds,
		tolerances:   newToleranceChecker(warnPct, failPct),
		logger:       logger,
		now:          time.Now,
	}
}

// Name implements port.PriceValidator.
func (v *ChainlinkValidator) Name() string {
	return "chainlink"
}

// Validate reads every bound aggregator and fails on the first asset whose
// deviation breaches the failure tolerance or whose feed is stale.
func (v *ChainlinkValidator) Validate(ctx context.Context, prices *entity.PriceData) (entity.CheckResult, error) {
	checked := 0
	for _, feed := range v.feeds {
		actual, priced := prices.Price(feed.Asset)
		if !priced {
			continue
		}

		answer, updatedAt, feedDecimals, err := v.evm.LatestRoundData(ctx, feed.Feed)
		if err != nil {
			return entity.CheckResult{}, fmt.Errorf("chainlink feed %s read failed: %w", feed.Feed.Hex(), err)
		}
		if feed.StaleAfter > 0 {
			updated := time.Unix(updatedAt.Int64(), 0)
			if age := v.now().Sub(updated); age > feed.StaleAfter {
				return entity.Fail(fmt.Sprintf(
					"chainlink feed %s for %s is stale: last update %s ago",
					feed.Feed.Hex(), feed.Asset.Hex(), age.Truncate(time.Second)), true), nil
			}
		}

		// Aggregator answers are fixed-point with the feed's own decimals and
		// quote one whole asset unit in base terms.
		rate := decimal.NewFromBigInt(answer, -int32(feedDecimals))
		if feed.Inverted {
			if rate.IsZero() {
				return entity.CheckResult{}, fmt.Errorf(
					"chainlink feed %s answered zero, cannot invert", feed.Feed.Hex())
			}
			rate = decimal.NewFromInt(1).Div(rate)
		}
		reference := rate.Shift(int32(v.baseDecimals - feed.AssetDecimals))
		deviation, warn, fail, err := v.tolerances.check(feed.Asset, reference, actual)
		if err != nil {
			return entity.CheckResult{}, err
		}
		if fail {
			return entity.Fail(fmt.Sprintf(
				"chainlink price for %s deviates %s%% from accumulated price (failure tolerance %s%%)",
				feed.Asset.Hex(), deviation.StringFixed(4), v.tolerances.failPct.String()), false), nil
		}
		if warn {
			v.logger.Warn("Chainlink price deviation above warning tolerance",
				"asset", feed.Asset.Hex(), "deviation_pct", deviation.StringFixed(4))
		}
		checked++
	}

	return entity.Pass(fmt.Sprintf("%d asset(s) within tolerance of chainlink", checked)), nil
}
