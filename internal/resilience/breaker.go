// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BreakerState is one of the three circuit breaker states.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successful probes needed to close again
	CoolDown         time.Duration // time spent open before probing
	ProbeRequests    int           // calls admitted while half-open

	// IsFailure decides which errors count against the breaker. Nil
	// counts every non-nil error.
	IsFailure func(error) bool

	// OnStateChange is invoked on every transition.
	OnStateChange func(name string, from, to BreakerState)
}

// DefaultBreakerConfig returns the settings the inference client uses.
// Only retryable failures count: a model defect never recovers by
// waiting, so it must not hide the backend behind an open breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 3,
		CoolDown:         30 * time.Second,
		ProbeRequests:    3,
		IsFailure: func(err error) bool {
			return err != nil && ClassifyError(err).Retryable
		},
	}
}

// Breaker guards the inference backend. Repeated failures open it and
// calls fail fast with an OpenError; after the cool down a limited
// number of probe calls decide whether it closes again.
type Breaker struct {
	cfg BreakerConfig
	mu  sync.Mutex

	state       BreakerState
	failures    int
	successes   int
	probes      int
	lastFailure time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg}
}

// OpenError is returned instead of running the call while the breaker
// refuses traffic.
type OpenError struct {
	Name  string
	State BreakerState
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("breaker %s is %s, refusing call", e.Name, e.State)
}

// Execute runs fn under breaker protection and records its outcome.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	b.record(err)
	return err
}

// State returns the current state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if time.Since(b.lastFailure) < b.cfg.CoolDown {
			return &OpenError{Name: b.cfg.Name, State: BreakerOpen}
		}
		b.transition(BreakerHalfOpen)
		b.probes = 0
		b.successes = 0
		return nil

	case BreakerHalfOpen:
		if b.probes >= b.cfg.ProbeRequests {
			return &OpenError{Name: b.cfg.Name, State: BreakerHalfOpen}
		}
		b.probes++
		return nil

	default:
		return nil
	}
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	failed := err != nil
	if b.cfg.IsFailure != nil {
		failed = b.cfg.IsFailure(err)
	}
	if failed {
		b.onFailure()
	} else {
		b.onSuccess()
	}
}

func (b *Breaker) onFailure() {
	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case BreakerClosed:
		if b.failures >= b.cfg.FailureThreshold {
			b.transition(BreakerOpen)
		}
	case BreakerHalfOpen:
		// A failing probe reopens immediately.
		b.transition(BreakerOpen)
	}
}

func (b *Breaker) onSuccess() {
	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.transition(BreakerClosed)
			b.failures = 0
		}
	}
}

func (b *Breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.cfg.Name, from, to)
	}
}
