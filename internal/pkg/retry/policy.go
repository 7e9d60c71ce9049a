package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy is an explicit retry policy for individual external calls (RPC, REST).
// It uses exponential backoff with jitter and is intentionally separate from
// the pre-flight retry controller, which uses a constant interval because
// bridge and voting conditions resolve on block-time cadence, not contention.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration
}

// DefaultPolicy matches the RPC retry tuning used across the adapters.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   150 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      100 * time.Millisecond,
	}
}

// Do runs op until it succeeds, attempts are exhausted, or ctx is done.
// The last error is returned once attempts run out.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := op(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == attempts {
			break
		}

		sleep := delay
		if p.Jitter > 0 {
			sleep += time.Duration(rand.Int63n(int64(p.Jitter)))
		}
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}
