// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package iban

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/internal/detector"
)

// Known-valid IBANs from supported countries (standard published examples).
var validIBANs = []string{
	"CH93 0076 2011 6238 5295 7",
	"DE89 3704 0044 0532 0130 00",
	"FR14 2004 1010 0505 0001 3M02 606",
	"AT61 1904 3002 3457 3201",
	"IT60 X054 2811 1010 0000 0123 456",
	"LI21 0881 0000 2324 013A A",
	"BE68 5390 0754 7034",
	"NL91 ABNA 0417 1643 00",
}

func TestValidateKnownIBANs(t *testing.T) {
	for _, candidate := range validIBANs {
		result := Validate(candidate)
		assert.True(t, result.Valid, "expected %q to be valid", candidate)
		assert.Equal(t, detector.ConfidenceChecksumValid, result.Confidence)
		assert.Empty(t, result.Reason)
	}
}

// Any single-digit mutation of a valid IBAN must fail the mod-97 check.
func TestValidateMutationSensitivity(t *testing.T) {
	for _, candidate := range validIBANs {
		cleaned := normalize(candidate)
		for i := 4; i < len(cleaned); i++ {
			c := cleaned[i]
			if c < '0' || c > '9' {
				continue
			}
			mutated := []byte(cleaned)
			mutated[i] = '0' + (c-'0'+1)%10

			result := Validate(string(mutated))
			require.False(t, result.Valid, "mutation at index %d of %q slipped through", i, candidate)
			assert.Equal(t, "checksum failed", result.Reason)
			assert.Equal(t, detector.ConfidenceFailed, result.Confidence)
		}
	}
}

func TestValidateRejectsFormatErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"too short", "CH93", "length out of IBAN bounds"},
		{"no country", "9393 0076 2011 6238 5295 7", "missing country prefix"},
		{"letters as check digits", "CHAA 0076 2011 6238 5295 7", "missing check digits"},
		{"wrong length for CH", "CH93 0076 2011 6238 5295 71", "wrong length for country"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)
			assert.False(t, result.Valid)
			assert.Equal(t, tt.reason, result.Reason)
		})
	}
}

func TestValidateIgnoresSeparators(t *testing.T) {
	compact := strings.ReplaceAll("CH93 0076 2011 6238 5295 7", " ", "")
	dotted := "CH93.0076.2011.6238.5295.7"

	assert.True(t, Validate(compact).Valid)
	assert.True(t, Validate(dotted).Valid)
	assert.True(t, Validate(strings.ToLower(compact)).Valid)
}

func TestTrimToCountryLength(t *testing.T) {
	// An overlong match that absorbed the following postal code trims
	// back to a valid IBAN.
	prefix, ok := TrimToCountryLength("CH93 0076 2011 6238 5295 7 8005")
	require.True(t, ok)
	assert.Equal(t, "CH93 0076 2011 6238 5295 7", prefix)
	assert.True(t, Validate(prefix).Valid)

	// Exact length, unknown country and garbage input all decline.
	_, ok = TrimToCountryLength("CH93 0076 2011 6238 5295 7")
	assert.False(t, ok)
	_, ok = TrimToCountryLength("GL89 6471 0001 0002 06 1234")
	assert.False(t, ok)
	_, ok = TrimToCountryLength("x")
	assert.False(t, ok)
}

func TestValidateUnsupportedCountryChecksumOnly(t *testing.T) {
	// Valid mod-97 but country outside the supported length table.
	result := Validate("GL89 6471 0001 0002 06")
	assert.True(t, result.Valid)
	assert.Equal(t, detector.ConfidenceFormatValid, result.Confidence)
}
