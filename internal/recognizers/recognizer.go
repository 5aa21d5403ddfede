// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package recognizers holds the pattern-based recognizer registry. Each
// recognizer couples regex patterns with metadata: entity type, language
// and country filters, priority, specificity, a deny list, context words,
// and an optional checksum/format validator.
package recognizers

import (
	"regexp"
	"strings"

	"docscrub/internal/contextual"
	"docscrub/internal/detector"
)

// Specificity ranks how narrowly a recognizer is scoped. It is the
// secondary tiebreak after priority when two recognizers claim the same
// span for the same type.
type Specificity int

const (
	SpecificityGlobal  Specificity = 0
	SpecificityRegion  Specificity = 1
	SpecificityCountry Specificity = 2
)

// Recognizer is one pattern-based detector.
type Recognizer struct {
	Name        string
	Type        string
	Languages   []string // empty means all languages
	Countries   []string // empty means all countries
	Patterns    []*regexp.Regexp
	Priority    int
	Specificity Specificity

	// ContextWords are recognizer-specific cues merged into context
	// enhancement for entities this recognizer produced.
	ContextWords []contextual.Word

	// DenyPatterns reject matches before validation, in addition to the
	// global deny list when UseGlobalDenyList is set.
	DenyPatterns []*regexp.Regexp

	// Validate, when present, is the checksum/format validator applied to
	// every raw pattern match.
	Validate detector.ValidateFunc

	// TrimMatch, when present, proposes a shorter prefix for a match the
	// validator rejected; the prefix gets one more validation before the
	// match is dropped. Separator-tolerant patterns need this when they
	// absorb a trailing token, like an IBAN swallowing the postal code
	// that follows it.
	TrimMatch func(match string) (string, bool)

	// BaseConfidence is assigned when no validator is present.
	BaseConfidence float64

	UseGlobalContext  bool
	UseGlobalDenyList bool
}

// supportsLanguage checks the recognizer's language filter.
func (r *Recognizer) supportsLanguage(language string) bool {
	if len(r.Languages) == 0 || language == "" {
		return true
	}
	for _, l := range r.Languages {
		if strings.EqualFold(l, language) {
			return true
		}
	}
	return false
}

// supportsCountry checks the recognizer's country filter.
func (r *Recognizer) supportsCountry(country string) bool {
	if len(r.Countries) == 0 || country == "" {
		return true
	}
	for _, c := range r.Countries {
		if strings.EqualFold(c, country) || strings.EqualFold(c, detector.CountryGlobal) {
			return true
		}
	}
	return false
}

// denies applies the recognizer-local deny patterns.
func (r *Recognizer) denies(text string) bool {
	for _, p := range r.DenyPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// outranks reports whether r wins over other on a conflicting type claim:
// priority first, specificity second.
func (r *Recognizer) outranks(other *Recognizer) bool {
	if r.Priority != other.Priority {
		return r.Priority > other.Priority
	}
	return r.Specificity > other.Specificity
}
