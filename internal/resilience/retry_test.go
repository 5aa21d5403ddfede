// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError("runtime busy", nil)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnModelDefect(t *testing.T) {
	calls := 0
	defect := NewModelError("model emits 7 labels, expected 9", nil)
	err := RetryWithBackoff(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return defect
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return NewTransientError("runtime busy", nil)
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls) // first call plus MaxRetries
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	cfg := fastConfig()
	cfg.MaxRetries = 10
	cfg.OnRetry = func(attempt int, err error) { cancel() }

	err := RetryWithBackoff(ctx, cfg, func(ctx context.Context) error {
		calls++
		return NewTransientError("runtime busy", nil)
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls, 3)
}

func TestRetryReportsAttemptsToCallback(t *testing.T) {
	attempts := []int{}
	cfg := fastConfig()
	cfg.MaxRetries = 2
	cfg.OnRetry = func(attempt int, err error) { attempts = append(attempts, attempt) }

	_ = RetryWithBackoff(context.Background(), cfg, func(ctx context.Context) error {
		return NewTransientError("runtime busy", nil)
	})
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	cfg := RetryConfig{InitialInterval: 10 * time.Millisecond, MaxInterval: 25 * time.Millisecond, Multiplier: 2.0}
	assert.Equal(t, 10*time.Millisecond, cfg.delay(1))
	assert.Equal(t, 20*time.Millisecond, cfg.delay(2))
	assert.Equal(t, 25*time.Millisecond, cfg.delay(3))
}

func TestRetryWithResultReturnsValue(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewTransientError("runtime busy", nil)
		}
		return "tagged", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "tagged", got)
	assert.Equal(t, 2, calls)
}

func TestInferenceRetryConfigGivesUpQuickly(t *testing.T) {
	cfg := InferenceRetryConfig()
	assert.Positive(t, cfg.MaxRetries)
	assert.LessOrEqual(t, cfg.MaxElapsedTime, time.Minute)
	assert.Greater(t, cfg.Multiplier, 1.0)
}

func TestClassifyErrorBuckets(t *testing.T) {
	cases := []struct {
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{context.DeadlineExceeded, ErrorTypeTimeout, true},
		{context.Canceled, ErrorTypeUnknown, false},
		{errors.New("onnx run failed: session error"), ErrorTypeTransient, true},
		{errors.New("failed to create input_ids tensor"), ErrorTypeTransient, true},
		{errors.New("unsupported output shape [2 3]"), ErrorTypeModel, false},
		{errors.New("model emits 5 labels, expected 9"), ErrorTypeModel, false},
		{errors.New("onnx tagger not ready"), ErrorTypeModel, false},
		{errors.New("ragged batch: got seq 12, want 16"), ErrorTypeInput, false},
		{errors.New("something else entirely"), ErrorTypeUnknown, false},
	}
	for _, tc := range cases {
		got := ClassifyError(tc.err)
		assert.Equal(t, tc.wantType, got.Type, "error %q", tc.err)
		assert.Equal(t, tc.retryable, got.Retryable, "error %q", tc.err)
	}
}

func TestClassifyErrorUnwrapsClassified(t *testing.T) {
	inner := NewTransientError("runtime busy", nil)
	wrapped := fmt.Errorf("inference failed: %w", inner)
	got := ClassifyError(wrapped)
	assert.Same(t, inner, got)
	assert.True(t, IsRetryable(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(NewTransientError("runtime busy", nil)))
	assert.False(t, IsRetryable(NewModelError("bad vocab", nil)))
}
