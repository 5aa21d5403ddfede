// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resilience wraps inference calls with error classification,
// bounded retries and a circuit breaker. The backend is a local model
// runtime, so failures are either momentary (resource pressure, a busy
// session) or terminal (a defective model file); there is no remote
// service to wait out.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType buckets inference failures for retry and breaker decisions.
type ErrorType int

const (
	ErrorTypeUnknown   ErrorType = iota
	ErrorTypeTransient // runtime momentarily failing, worth a retry
	ErrorTypeTimeout   // context deadline hit during the call
	ErrorTypeModel     // model or vocabulary defect, retrying cannot help
	ErrorTypeInput     // malformed inference input
)

func (et ErrorType) String() string {
	switch et {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeModel:
		return "model"
	case ErrorTypeInput:
		return "input"
	default:
		return "unknown"
	}
}

// ClassifiedError carries an inference error together with its bucket
// and retry decision.
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Retryable bool
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Original.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// ClassifyError buckets an inference error. The runtime reports most
// failures as plain message strings, so after the context sentinels the
// classification falls back to message matching. Unrecognized errors
// are not retried.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Original: err, Type: ErrorTypeTimeout, Retryable: true}
	}
	if errors.Is(err, context.Canceled) {
		// The caller gave up; a retry would run for nobody.
		return &ClassifiedError{Original: err, Type: ErrorTypeUnknown, Retryable: false}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return &ClassifiedError{Original: err, Type: ErrorTypeTimeout, Retryable: true}

	case strings.Contains(msg, "failed to create") || strings.Contains(msg, "failed to allocate") ||
		strings.Contains(msg, "out of memory") || strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "busy") || strings.Contains(msg, "run failed"):
		return &ClassifiedError{Original: err, Type: ErrorTypeTransient, Retryable: true}

	case strings.Contains(msg, "shape") || strings.Contains(msg, "label") ||
		strings.Contains(msg, "tensor") || strings.Contains(msg, "vocab") ||
		strings.Contains(msg, "not ready") || strings.Contains(msg, "no outputs"):
		return &ClassifiedError{Original: err, Type: ErrorTypeModel, Retryable: false}

	case strings.Contains(msg, "ragged") || strings.Contains(msg, "invalid") ||
		strings.Contains(msg, "malformed"):
		return &ClassifiedError{Original: err, Type: ErrorTypeInput, Retryable: false}
	}

	return &ClassifiedError{Original: err, Type: ErrorTypeUnknown, Retryable: false}
}

// NewTransientError marks an error as retryable.
func NewTransientError(message string, cause error) *ClassifiedError {
	if cause == nil {
		cause = fmt.Errorf("%s", message)
	}
	return &ClassifiedError{Original: cause, Type: ErrorTypeTransient, Message: message, Retryable: true}
}

// NewModelError marks an error as a terminal model defect.
func NewModelError(message string, cause error) *ClassifiedError {
	if cause == nil {
		cause = fmt.Errorf("%s", message)
	}
	return &ClassifiedError{Original: cause, Type: ErrorTypeModel, Message: message, Retryable: false}
}
