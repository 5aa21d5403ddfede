// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package iban validates International Bank Account Numbers using the
// ISO 7064 MOD97-10 checksum with per-country length checks.
package iban

import (
	"strings"

	"docscrub/internal/detector"
)

// countryLengths holds the exact IBAN length for supported countries.
// Only countries the Swiss/EU recognizer set emits are listed; an IBAN
// from an unlisted country is checksum-verified but length-unverified.
var countryLengths = map[string]int{
	"CH": 21,
	"LI": 21,
	"DE": 22,
	"AT": 20,
	"FR": 27,
	"IT": 27,
	"BE": 16,
	"NL": 18,
	"LU": 20,
	"ES": 24,
	"PT": 25,
	"GB": 22,
}

// Validate checks an IBAN candidate. Separator spaces and dots are ignored.
func Validate(text string) detector.ValidationResult {
	cleaned := normalize(text)

	if len(cleaned) < 15 || len(cleaned) > 34 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "length out of IBAN bounds")
	}

	country := cleaned[:2]
	if !isAlpha(country) {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "missing country prefix")
	}
	if !isDigits(cleaned[2:4]) {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "missing check digits")
	}

	expected, known := countryLengths[country]
	if known && len(cleaned) != expected {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "wrong length for country")
	}

	if !mod97Valid(cleaned) {
		return detector.InvalidResult(detector.ConfidenceFailed, "checksum failed")
	}

	if known {
		return detector.ValidResult(detector.ConfidenceChecksumValid)
	}
	// Checksum holds but the country is outside the supported set.
	return detector.ValidResult(detector.ConfidenceFormatValid)
}

// TrimToCountryLength returns the shortest prefix of raw whose
// significant characters reach the exact IBAN length of raw's country.
// It reports false when the country is unknown or raw is not longer
// than that length, so callers only retry genuinely overlong matches.
func TrimToCountryLength(raw string) (string, bool) {
	cleaned := normalize(raw)
	if len(cleaned) < 2 {
		return "", false
	}
	expected, known := countryLengths[cleaned[:2]]
	if !known || len(cleaned) <= expected {
		return "", false
	}

	significant := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case ' ', '.', '-':
			continue
		}
		significant++
		if significant == expected {
			return raw[:i+1], true
		}
	}
	return "", false
}

// mod97Valid implements ISO 7064 MOD97-10: move the first four characters
// to the end, convert letters to two-digit numbers (A=10..Z=35), and the
// resulting number modulo 97 must equal 1. The modulus is computed
// incrementally so arbitrarily long IBANs never overflow.
func mod97Valid(iban string) bool {
	rearranged := iban[4:] + iban[:4]

	remainder := 0
	for i := 0; i < len(rearranged); i++ {
		c := rearranged[i]
		switch {
		case c >= '0' && c <= '9':
			remainder = (remainder*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			n := int(c-'A') + 10
			remainder = (remainder*100 + n) % 97
		default:
			return false
		}
	}
	return remainder == 1
}

func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToUpper(text) {
		if r == ' ' || r == '.' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return len(s) > 0
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
