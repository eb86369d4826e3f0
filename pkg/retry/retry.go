// Package retry runs an operation with exponential backoff. The API
// uses it on its two flaky edges: cache round trips and sqlite writes
// contending for the single writer lock.
package retry

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	// Attempts is the total number of tries, first call included.
	Attempts int
	// BaseDelay seeds the backoff; each retry doubles it up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Retryable filters errors; nil means every error is worth a retry.
	Retryable func(error) bool
	Logger    *zap.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// Do runs op until it succeeds, exhausts the attempts, hits a
// non-retryable error, or the context ends. The last error is returned.
func Do(ctx context.Context, cfg Config, op func() error) error {
	cfg = cfg.withDefaults()

	delay := cfg.BaseDelay
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			if attempt > 1 {
				cfg.Logger.Debug("Operation recovered", zap.Int("attempt", attempt))
			}
			return nil
		}
		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}
		if attempt == cfg.Attempts {
			return err
		}

		cfg.Logger.Debug("Operation failed, backing off",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(delay)):
		}

		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// jitter spreads a sleep by up to a quarter either way so callers that
// failed together do not retry in lockstep.
func jitter(d time.Duration) time.Duration {
	spread := time.Duration(rand.Int63n(int64(d)/2 + 1))
	return d - d/4 + spread
}
