// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

// The standardized confidence scale. Validators and recognizers never emit
// arbitrary floats: every confidence is drawn from this ordered scale, and
// passes only move values between steps via documented adders.
const (
	// ConfidenceChecksumValid: the value passed a deterministic checksum
	// (mod-97, EAN-13, VAT modulus).
	ConfidenceChecksumValid = 0.95

	// ConfidenceFormatValid: strict format validation passed but the value
	// carries no checksum to verify.
	ConfidenceFormatValid = 0.85

	// ConfidenceStandard: pattern matched a standard, unambiguous format.
	ConfidenceStandard = 0.70

	// ConfidenceKnownValid: value found in an embedded reference table
	// (e.g. postal code to city).
	ConfidenceKnownValid = 0.60

	// ConfidenceModerate: plausible match, format is ambiguous.
	ConfidenceModerate = 0.50

	// ConfidenceWeak: loose pattern, needs positive context to survive.
	ConfidenceWeak = 0.30

	// ConfidenceInvalidFormat: matched a pattern but failed format checks.
	ConfidenceInvalidFormat = 0.15

	// ConfidenceFailed: checksum or structural validation failed.
	ConfidenceFailed = 0.05

	// ConfidenceFalsePositive: known false-positive signal.
	ConfidenceFalsePositive = 0.0
)

// ValidationResult is the outcome of a format/checksum validator.
type ValidationResult struct {
	Valid      bool    `json:"valid"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason,omitempty"`
}

// ValidResult builds a passing result at the given scale step.
func ValidResult(confidence float64) ValidationResult {
	return ValidationResult{Valid: true, Confidence: confidence}
}

// InvalidResult builds a failing result with a reason. The reason must
// describe the check, never the checked value.
func InvalidResult(confidence float64, reason string) ValidationResult {
	return ValidationResult{Valid: false, Confidence: confidence, Reason: reason}
}

// ValidateFunc is the signature every format/checksum validator implements.
// Validators are pure functions: no I/O, no shared state, safe for
// concurrent use.
type ValidateFunc func(text string) ValidationResult
