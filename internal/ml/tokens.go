// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ml is the engine's boundary to the opaque token-classification
// model: the classifier interface, BIO output merging, and the resilient
// client wrapper used by the ML recognition pass.
package ml

import (
	"context"
	"strings"
)

// Token is one raw classifier output: a sub-word with a BIO tag, a score,
// and byte offsets into the classified text.
type Token struct {
	Word  string  `json:"word"`
	Tag   string  `json:"tag"` // B-X, I-X, or O
	Score float64 `json:"score"`
	Start int     `json:"start"`
	End   int     `json:"end"`
}

// IsOutside reports whether the token carries no entity.
func (t Token) IsOutside() bool {
	return t.Tag == "O" || t.Tag == ""
}

// Label returns the stripped entity label of a B-/I- tag.
func (t Token) Label() string {
	if i := strings.IndexByte(t.Tag, '-'); i >= 0 {
		return t.Tag[i+1:]
	}
	return t.Tag
}

// Continues reports whether the token extends an open entity of the given
// label: only an I-tag of the same stripped type does.
func (t Token) Continues(label string) bool {
	return strings.HasPrefix(t.Tag, "I-") && t.Label() == label
}

// Begins reports whether the token opens a new entity.
func (t Token) Begins() bool {
	return strings.HasPrefix(t.Tag, "B-")
}

// TokenClassifier is the opaque model runtime. Classify blocks; it is the
// pipeline's only suspension point and must honor ctx cancellation.
type TokenClassifier interface {
	Classify(ctx context.Context, text string) ([]Token, error)
	IsReady() bool
	Close() error
}
