package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"nav_oracle/internal/app/port"
	"nav_oracle/internal/domain/entity"
	"nav_oracle/internal/pkg/metrics"
)

// PreflightService gates the pipeline behind a set of independent safety
// checks and wraps one round of checks in a bounded constant-interval retry
// loop.
type PreflightService struct {
	checks []port.CheckAdapter
	logger port.Logger
}

// NewPreflightService creates a PreflightService over the given check adapters.
func NewPreflightService(checks []port.CheckAdapter, logger port.Logger) *PreflightService {
	return &PreflightService{checks: checks, logger: logger}
}

// RunChecks launches every check concurrently, waits for all of them, and
// aggregates every non-passing result into one *entity.CheckFailedError. A
// check returning an error counts as a failed check whose message is the error
// text; it does not abort sibling checks. RetryRecommended on the combined
// error is the OR across the failing results' flags.
func (s *PreflightService) RunChecks(ctx context.Context) error {
	results := make([]entity.CheckResult, len(s.checks))
	var mu sync.Mutex

	eg, checkCtx := errgroup.WithContext(ctx)
	for i, check := range s.checks {
		eg.Go(func() error {
			result, err := check.RunCheck(checkCtx)
			if err != nil {
				result = entity.Fail(check.Name()+": "+err.Error(), false)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil // failures are aggregated below, never fail-fast
		})
	}
	_ = eg.Wait()

	var failures []string
	retryRecommended := false
	for i, result := range results {
		if result.Passed {
			s.logger.Info("Pre-flight check passed", "check", s.checks[i].Name(), "message", result.Message)
			continue
		}
		s.logger.Warn("Pre-flight check failed", "check", s.checks[i].Name(), "message", result.Message,
			"retry_recommended", result.RetryRecommended)
		failures = append(failures, result.Message)
		retryRecommended = retryRecommended || result.RetryRecommended
	}

	if len(failures) > 0 {
		metrics.PreCheckAttempts.WithLabelValues("failed").Inc()
		return &entity.CheckFailedError{Failures: failures, RetryRecommended: retryRecommended}
	}
	metrics.PreCheckAttempts.WithLabelValues("passed").Inc()
	return nil
}

// RunWithRetry runs RunChecks up to maxRetries+1 times with a constant sleep
// interval between attempts. Retrying stops immediately when the combined
// failure marks RetryRecommended=false; otherwise the last error is returned
// once attempts are exhausted.
//
// The interval is deliberately constant rather than exponential: conditions
// like an in-flight bridge transfer resolve on block-time cadence.
func (s *PreflightService) RunWithRetry(ctx context.Context, maxRetries int, interval time.Duration) error {
	totalAttempts := maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= totalAttempts; attempt++ {
		err := s.RunChecks(ctx)
		if err == nil {
			s.logger.Info("Pre-flight checks passed", "attempt", attempt)
			return nil
		}
		lastErr = err

		var checkErr *entity.CheckFailedError
		if errors.As(err, &checkErr) && !checkErr.RetryRecommended {
			s.logger.Error("Pre-flight checks failed, retry not recommended", "attempt", attempt, "error", err.Error())
			return err
		}
		if attempt == totalAttempts {
			break
		}

		s.logger.Warn("Pre-flight checks failed, retrying",
			"attempt", attempt, "total_attempts", totalAttempts,
			"interval", interval.String(), "error", err.Error())

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.logger.Error("Pre-flight checks failed after all attempts",
		"attempts", totalAttempts, "error", lastErr.Error())
	return lastErr
}
