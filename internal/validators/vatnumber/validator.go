// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package vatnumber validates VAT registration numbers with
// country-specific modulus checks (CH, DE, FR, AT).
package vatnumber

import (
	"strconv"
	"strings"

	"docscrub/internal/detector"
)

// Validate dispatches on the country prefix of the VAT candidate.
func Validate(text string) detector.ValidationResult {
	cleaned := strings.ToUpper(strings.TrimSpace(text))
	cleaned = strings.TrimSuffix(cleaned, " MWST")
	cleaned = strings.TrimSuffix(cleaned, " TVA")
	cleaned = strings.TrimSuffix(cleaned, " IVA")
	cleaned = strings.TrimSuffix(cleaned, "MWST")

	switch {
	case strings.HasPrefix(cleaned, "CHE"):
		return validateSwiss(cleaned)
	case strings.HasPrefix(cleaned, "DE"):
		return validateGerman(cleaned)
	case strings.HasPrefix(cleaned, "FR"):
		return validateFrench(cleaned)
	case strings.HasPrefix(cleaned, "ATU"):
		return validateAustrian(cleaned)
	default:
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "unsupported country prefix")
	}
}

// validateSwiss checks CHE-XXX.XXX.XXX UID numbers: the first eight digits
// are weighted 5,4,3,2,7,6,5,4 and the check digit is 11 - (sum mod 11);
// a result of 10 means the number cannot exist.
func validateSwiss(text string) detector.ValidationResult {
	digits := digitsOnly(strings.TrimPrefix(text, "CHE"))
	if len(digits) != 9 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "expected 9 digits after CHE")
	}

	weights := []int{5, 4, 3, 2, 7, 6, 5, 4}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	check := 11 - sum%11
	if check == 11 {
		check = 0
	}
	if check == 10 || check != int(digits[8]-'0') {
		return detector.InvalidResult(detector.ConfidenceFailed, "checksum failed")
	}
	return detector.ValidResult(detector.ConfidenceChecksumValid)
}

// validateGerman checks DE VAT numbers (9 digits) using the iterative
// ISO 7064 MOD 11,10 scheme.
func validateGerman(text string) detector.ValidationResult {
	digits := digitsOnly(strings.TrimPrefix(text, "DE"))
	if len(digits) != 9 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "expected 9 digits after DE")
	}

	product := 10
	for i := 0; i < 8; i++ {
		sum := (int(digits[i]-'0') + product) % 10
		if sum == 0 {
			sum = 10
		}
		product = (sum * 2) % 11
	}
	check := 11 - product
	if check == 10 {
		check = 0
	}
	if check != int(digits[8]-'0') {
		return detector.InvalidResult(detector.ConfidenceFailed, "checksum failed")
	}
	return detector.ValidResult(detector.ConfidenceChecksumValid)
}

// validateFrench checks FR VAT numbers: a two-digit key followed by the
// nine-digit SIREN, where key = (12 + 3*(SIREN mod 97)) mod 97.
func validateFrench(text string) detector.ValidationResult {
	digits := digitsOnly(strings.TrimPrefix(text, "FR"))
	if len(digits) != 11 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "expected 11 digits after FR")
	}

	key, err1 := strconv.Atoi(digits[:2])
	siren, err2 := strconv.ParseInt(digits[2:], 10, 64)
	if err1 != nil || err2 != nil {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "non-numeric VAT body")
	}

	expected := (12 + 3*int(siren%97)) % 97
	if key != expected {
		return detector.InvalidResult(detector.ConfidenceFailed, "checksum failed")
	}
	return detector.ValidResult(detector.ConfidenceChecksumValid)
}

// validateAustrian checks ATU VAT numbers: weights 1,2,1,2,1,2,1 over the
// seven digits after the U, digits over 9 reduced by digit sum, and
// check = (96 - sum) mod 10.
func validateAustrian(text string) detector.ValidationResult {
	digits := digitsOnly(strings.TrimPrefix(text, "ATU"))
	if len(digits) != 8 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "expected 8 digits after ATU")
	}

	sum := 0
	for i := 0; i < 7; i++ {
		d := int(digits[i] - '0')
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d = d/10 + d%10
			}
		}
		sum += d
	}
	check := (96 - sum) % 10
	if check < 0 {
		check += 10
	}
	if check != int(digits[7]-'0') {
		return detector.InvalidResult(detector.ConfidenceFailed, "checksum failed")
	}
	return detector.ValidResult(detector.ConfidenceChecksumValid)
}

func digitsOnly(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '.' || c == '-' || c == ' ':
			// separators are allowed anywhere
		default:
			return ""
		}
	}
	return b.String()
}
