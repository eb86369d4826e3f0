// Package redis caches assembled assessment reports. Keys embed a
// fingerprint of the response set, so a changed answer naturally misses
// and stale entries age out on TTL instead of needing invalidation.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/afs-framework/backend/pkg/circuitbreaker"
	"github.com/afs-framework/backend/pkg/logger"
	"github.com/afs-framework/backend/pkg/retry"
)

type Client struct {
	client      *redis.Client
	prefix      string
	ttl         time.Duration
	cb          *circuitbreaker.Breaker
	retryConfig retry.Config
}

func NewClient(host string, port int, password string, db int, prefix string, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cb := circuitbreaker.New("results-cache", circuitbreaker.Config{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		Attempts:  3,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  2 * time.Second,
		// Cancellation is the caller's decision, not a flaky cache.
		Retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		Logger: logger.GetLogger(),
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{
		client:      client,
		prefix:      prefix,
		ttl:         ttl,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) resultsKey(assessmentID, fingerprint string) string {
	return fmt.Sprintf("%s:results:%s:%s", c.prefix, assessmentID, fingerprint)
}

// SetResults caches an assembled report under the assessment's current
// response fingerprint.
func (c *Client) SetResults(ctx context.Context, assessmentID, fingerprint string, report any) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	key := c.resultsKey(assessmentID, fingerprint)
	err = c.cb.Do(func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			return c.client.Set(ctx, key, data, c.ttl).Err()
		})
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		logger.Debug("Results cache write skipped, circuit open",
			zap.String("assessment_id", assessmentID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to set results cache: %w", err)
	}

	logger.Debug("Results cached",
		zap.String("assessment_id", assessmentID),
		zap.String("fingerprint", fingerprint),
		zap.Duration("ttl", c.ttl),
	)
	return nil
}

// GetResults loads a cached report into out. The bool reports whether
// the lookup was a hit.
func (c *Client) GetResults(ctx context.Context, assessmentID, fingerprint string, out any) (bool, error) {
	key := c.resultsKey(assessmentID, fingerprint)

	var data []byte
	found := false
	err := c.cb.Do(func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			b, err := c.client.Get(ctx, key).Bytes()
			// A missing key is an answer, not a failure.
			if errors.Is(err, redis.Nil) {
				return nil
			}
			if err != nil {
				return err
			}
			data = b
			found = true
			return nil
		})
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get results cache: %w", err)
	}
	if !found {
		return false, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached report: %w", err)
	}

	logger.Debug("Results cache hit", zap.String("assessment_id", assessmentID))
	return true, nil
}

// InvalidateAssessment drops every cached report for one assessment,
// used when the assessment itself is deleted.
func (c *Client) InvalidateAssessment(ctx context.Context, assessmentID string) error {
	pattern := fmt.Sprintf("%s:results:%s:*", c.prefix, assessmentID)

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Debug("Results cache invalidated", zap.String("assessment_id", assessmentID))
	return nil
}
