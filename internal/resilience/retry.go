// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig controls RetryWithBackoff.
type RetryConfig struct {
	MaxRetries      int           // attempts after the first call
	InitialInterval time.Duration // delay before the first retry
	MaxInterval     time.Duration // backoff ceiling, 0 means uncapped
	Multiplier      float64       // backoff growth per attempt
	MaxElapsedTime  time.Duration // overall budget across attempts, 0 means none
	Jitter          bool          // add up to 25% noise to spread concurrent retries

	// OnRetry is invoked before each retry attempt with the previous
	// error. Optional.
	OnRetry func(attempt int, err error)
}

// InferenceRetryConfig returns retry settings tuned for local model
// inference, where failures resolve quickly or not at all.
func InferenceRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  30 * time.Second,
		Jitter:          true,
	}
}

// RetryWithBackoff runs op until it succeeds, fails with a non-retryable
// error, or the attempt and time budgets run out. The delay before
// retry n is InitialInterval * Multiplier^(n-1), capped at MaxInterval.
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if cfg.MaxElapsedTime > 0 && time.Since(start) >= cfg.MaxElapsedTime {
				return lastErr
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.delay(attempt)):
			}
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, lastErr)
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}
	}

	return lastErr
}

// delay computes the backoff before the given retry attempt.
func (c RetryConfig) delay(attempt int) time.Duration {
	d := float64(c.InitialInterval)
	for i := 1; i < attempt; i++ {
		d *= c.Multiplier
	}
	if c.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	if c.MaxInterval > 0 && time.Duration(d) > c.MaxInterval {
		return c.MaxInterval
	}
	return time.Duration(d)
}

// RetryWithResult is RetryWithBackoff for operations returning a value.
func RetryWithResult[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	var result T
	err := RetryWithBackoff(ctx, cfg, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}

// IsRetryable reports whether an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Retryable
}
