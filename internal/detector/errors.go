// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"fmt"
	"unicode/utf8"
)

// InputError is the typed rejection for bad input text. It is returned
// before any inference work happens and never wraps raw document content.
type InputError struct {
	Reason string // "empty", "too_large", "bad_encoding"
	Detail string
}

func (e *InputError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("input rejected: %s", e.Reason)
	}
	return fmt.Sprintf("input rejected: %s (%s)", e.Reason, e.Detail)
}

// MaxInputBytes is the hard ceiling on accepted document text. Larger
// documents must be chunked by the caller before detection.
const MaxInputBytes = 10 << 20 // 10 MiB

// CheckInput validates document text before it enters the pipeline.
func CheckInput(text string) error {
	if len(text) == 0 {
		return &InputError{Reason: "empty"}
	}
	if len(text) > MaxInputBytes {
		return &InputError{Reason: "too_large", Detail: fmt.Sprintf("%d bytes exceeds %d", len(text), MaxInputBytes)}
	}
	if !utf8.ValidString(text) {
		return &InputError{Reason: "bad_encoding", Detail: "text is not valid UTF-8"}
	}
	return nil
}
