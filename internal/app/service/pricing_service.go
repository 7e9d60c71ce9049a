package service

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/pkg/metrics"
)

// PricingService turns aggregated asset addresses into a validated price set
// and the resulting total valuation.
//
// Price adapters run strictly in registry order because each one mutates the
// shared accumulator; validators are read-only and run concurrently.
type PricingService struct {
	adapters   []port.PriceAdapter
	validators []port.PriceValidator
	logger     port.Logger
}

// NewPricingService creates a PricingService. Adapter order is preserved and
// meaningful: later adapters may depend on prices written by earlier ones.
func NewPricingService(adapters []port.PriceAdapter, validators []port.PriceValidator, logger port.Logger) *PricingService {
	return &PricingService{adapters: adapters, validators: validators, logger: logger}
}

// BuildPrices applies every price adapter in order to a fresh accumulator for
// the given asset addresses. The first adapter error aborts the sequence.
func (s *PricingService) BuildPrices(ctx context.Context, baseAsset common.Address, assetAddresses []common.Address) (*entity.PriceData, error) {
	prices := entity.NewPriceData(baseAsset)

	for _, adapter := range s.adapters {
		s.logger.Info("Fetching prices", "adapter", adapter.Name())
		if err := adapter.FetchPrices(ctx, assetAddresses, prices); err != nil {
			return nil, err
		}
		s.logger.Debug("Price accumulator updated", "adapter", adapter.Name(), "priced_assets", len(prices.Prices))
	}

	return prices, nil
}

// ValidatePrices cross-checks the accumulated prices against every configured
// validator. All validators run to completion; failures and errors are
// aggregated into one *entity.CheckFailedError, mirroring the pre-flight
// orchestrator's semantics.
func (s *PricingService) ValidatePrices(ctx context.Context, prices *entity.PriceData) error {
	if len(s.validators) == 0 {
		return nil
	}

	results := make([]entity.CheckResult, len(s.validators))
	var mu sync.Mutex

	eg, validateCtx := errgroup.WithContext(ctx)
	for i, validator := range s.validators {
		eg.Go(func() error {
			result, err := validator.Validate(validateCtx, prices)
			if err != nil {
				result = entity.Fail(validator.Name()+": "+err.Error(), false)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	var failures []string
	retryRecommended := false
	for i, result := range results {
		if result.Passed {
			s.logger.Info("Price validation passed", "validator", s.validators[i].Name(), "message", result.Message)
			continue
		}
		metrics.PriceValidatorFailures.WithLabelValues(s.validators[i].Name()).Inc()
		s.logger.Warn("Price validation failed", "validator", s.validators[i].Name(), "message", result.Message)
		failures = append(failures, result.Message)
		retryRecommended = retryRecommended || result.RetryRecommended
	}

	if len(failures) > 0 {
		return &entity.CheckFailedError{Failures: failures, RetryRecommended: retryRecommended}
	}
	return nil
}

// PriceAndTotal is the full pricing stage for one cycle: build the accumulator,
// validate it, and compute the total valuation over the aggregated assets.
func (s *PricingService) PriceAndTotal(ctx context.Context, baseAsset common.Address, aggregated entity.AggregatedAssets) (*entity.PriceData, *big.Int, error) {
	prices, err := s.BuildPrices(ctx, baseAsset, aggregated.Addresses())
	if err != nil {
		return nil, nil, err
	}

	if err := s.ValidatePrices(ctx, prices); err != nil {
		return nil, nil, err
	}

	total, err := CalculateTotalAssets(aggregated, prices)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Info("Total assets calculated", "total", total.String())
	return prices, total, nil
}
