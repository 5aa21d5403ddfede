// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package observability times pipeline passes and emits the result as
// structured log events. Only counts, durations and pass names are
// recorded.
package observability

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"docscrub/internal/logging"
)

// Level controls how much detail the observer emits.
type Level int

const (
	LevelOff     Level = 0
	LevelMetrics Level = 1
	LevelDebug   Level = 2
)

// PassTiming is the record kept for one completed pass.
type PassTiming struct {
	Pass      string        `json:"pass"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	EntityIn  int           `json:"entities_in"`
	EntityOut int           `json:"entities_out"`
}

// Observer collects per-pass timings for one pipeline run.
type Observer struct {
	level  Level
	logger *logging.Logger

	mu      sync.Mutex
	timings []PassTiming
}

// NewObserver creates an observer emitting through the given logger.
func NewObserver(level Level, logger *logging.Logger) *Observer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Observer{level: level, logger: logger.WithComponent("pipeline")}
}

// StartPass returns a completion function to be called when the pass
// finishes.
func (o *Observer) StartPass(pass string, entitiesIn int) func(success bool, entitiesOut int) {
	if o == nil || o.level == LevelOff {
		return func(bool, int) {}
	}
	start := time.Now()

	return func(success bool, entitiesOut int) {
		timing := PassTiming{
			Pass:      pass,
			Duration:  time.Since(start),
			Success:   success,
			EntityIn:  entitiesIn,
			EntityOut: entitiesOut,
		}

		o.mu.Lock()
		o.timings = append(o.timings, timing)
		o.mu.Unlock()

		if o.level >= LevelDebug {
			o.logger.Debug("pass complete",
				zap.String("pass", pass),
				zap.Bool("success", success),
				zap.Int64("duration_ms", timing.Duration.Milliseconds()),
				zap.Int("entities_in", entitiesIn),
				zap.Int("entities_out", entitiesOut))
		}
	}
}

// Timings returns a copy of the collected pass timings in completion
// order.
func (o *Observer) Timings() []PassTiming {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]PassTiming(nil), o.timings...)
}
