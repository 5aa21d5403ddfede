// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package phone validates phone number candidates for Swiss and
// neighboring-country conventions: digit count, prefix plausibility, and
// repetition checks against sample numbers.
package phone

import (
	"strings"

	"docscrub/internal/detector"
)

// knownPrefixes are international prefixes the engine treats as
// high-signal: Switzerland and its neighbors plus Liechtenstein.
var knownPrefixes = []string{"41", "43", "49", "33", "39", "423"}

// Validate checks a phone number candidate.
func Validate(text string) detector.ValidationResult {
	digits, hasPlus := stripPhone(text)

	if len(digits) < 7 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "too few digits")
	}
	if len(digits) > 15 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "too many digits")
	}
	if allSameDigit(digits) {
		return detector.InvalidResult(detector.ConfidenceFalsePositive, "repeated digit pattern")
	}

	if hasPlus || strings.HasPrefix(digits, "00") {
		body := strings.TrimPrefix(digits, "00")
		for _, prefix := range knownPrefixes {
			if strings.HasPrefix(body, prefix) {
				return detector.ValidResult(detector.ConfidenceFormatValid)
			}
		}
		// International shape with an unlisted country code.
		return detector.ValidResult(detector.ConfidenceStandard)
	}

	// National format: Swiss numbers are ten digits starting with 0.
	if len(digits) == 10 && digits[0] == '0' {
		return detector.ValidResult(detector.ConfidenceStandard)
	}

	// Bare digit runs are ambiguous with invoice and order numbers.
	return detector.ValidResult(detector.ConfidenceWeak)
}

// stripPhone removes separators and reports whether the number carried an
// explicit international prefix. Any unexpected character empties the
// candidate.
func stripPhone(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	hasPlus := strings.HasPrefix(trimmed, "+")
	if hasPlus {
		trimmed = trimmed[1:]
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == ' ' || c == '-' || c == '.' || c == '(' || c == ')' || c == '/':
			// separators
		default:
			return "", false
		}
	}
	return b.String(), hasPlus
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return len(digits) > 0
}
