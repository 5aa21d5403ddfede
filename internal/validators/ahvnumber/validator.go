// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package ahvnumber validates Swiss AHV/AVS social insurance numbers
// (format 756.XXXX.XXXX.XX) using the EAN-13 weighted-digit checksum.
package ahvnumber

import (
	"strings"

	"docscrub/internal/detector"
)

// Validate checks an AHV number candidate. Dots and spaces are ignored.
func Validate(text string) detector.ValidationResult {
	digits := stripSeparators(text)

	if len(digits) != 13 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "expected 13 digits")
	}
	if !strings.HasPrefix(digits, "756") {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "missing 756 country prefix")
	}
	if !ean13Valid(digits) {
		return detector.InvalidResult(detector.ConfidenceFailed, "checksum failed")
	}
	return detector.ValidResult(detector.ConfidenceChecksumValid)
}

// ean13Valid verifies the EAN-13 check digit: the first 12 digits are
// weighted alternately x1 and x3 from the left, and the check digit is
// (10 - sum mod 10) mod 10.
func ean13Valid(digits string) bool {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(digits[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	check := (10 - sum%10) % 10
	return check == int(digits[12]-'0')
}

func stripSeparators(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '.' || c == ' ' || c == '-' {
			continue
		}
		if c < '0' || c > '9' {
			return "" // any other character disqualifies the candidate
		}
		b.WriteByte(c)
	}
	return b.String()
}
