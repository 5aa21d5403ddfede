// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package email

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docscrub/internal/detector"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		input      string
		valid      bool
		confidence float64
	}{
		{"hans.mueller@bluewin.ch", true, detector.ConfidenceFormatValid},
		{"jean-pierre.dupont+tag@sub.orange.fr", true, detector.ConfidenceFormatValid},
		{"info@acme.ch", true, detector.ConfidenceWeak},
		{"user@example.com", false, detector.ConfidenceFalsePositive},
		{"not-an-email", false, detector.ConfidenceInvalidFormat},
		{"a..b@acme.ch", false, detector.ConfidenceInvalidFormat},
		{"x@acme..ch", false, detector.ConfidenceInvalidFormat},
	}
	for _, tt := range tests {
		result := Validate(tt.input)
		assert.Equal(t, tt.valid, result.Valid, "input %q", tt.input)
		assert.Equal(t, tt.confidence, result.Confidence, "input %q", tt.input)
	}
}
