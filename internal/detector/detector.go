// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package detector defines the core data model shared by every detection
// pass: entities, detection sources, and the standardized validation
// confidence scale.
package detector

import "fmt"

// Source identifies which detection path produced an entity.
type Source string

const (
	SourceRule   Source = "RULE"
	SourceML     Source = "ML"
	SourceBoth   Source = "BOTH"
	SourceManual Source = "MANUAL"
)

// Entity represents one detected PII span. Entities are value types:
// passes never mutate an entity in place, confidence adjustments go
// through WithConfidence so float drift stays bounded to documented adders.
type Entity struct {
	Text       string         `json:"text"`
	Type       string         `json:"type"`
	Start      int            `json:"start"`
	End        int            `json:"end"`
	Confidence float64        `json:"confidence"`
	Source     Source         `json:"source"`
	Recognizer string         `json:"recognizer,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// WithConfidence returns a copy of the entity with its confidence replaced
// and clamped to [0,1].
func (e Entity) WithConfidence(c float64) Entity {
	if c > 1.0 {
		c = 1.0
	} else if c < 0.0 {
		c = 0.0
	}
	e.Confidence = c
	return e
}

// WithSource returns a copy of the entity with its source replaced.
func (e Entity) WithSource(s Source) Entity {
	e.Source = s
	return e
}

// Len returns the span length in bytes.
func (e Entity) Len() int {
	return e.End - e.Start
}

// Overlaps reports whether two spans share at least one byte.
func (e Entity) Overlaps(other Entity) bool {
	return e.Start < other.End && other.Start < e.End
}

// Contains reports whether the span fully covers other.
func (e Entity) Contains(other Entity) bool {
	return e.Start <= other.Start && e.End >= other.End
}

// Valid performs basic span sanity checks against the source text.
func (e Entity) Valid(textLen int) error {
	if e.Start < 0 || e.End > textLen || e.Start >= e.End {
		return fmt.Errorf("entity %s: invalid span [%d,%d) for text of length %d", e.Type, e.Start, e.End, textLen)
	}
	return nil
}
