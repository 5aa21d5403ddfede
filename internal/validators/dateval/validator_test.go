// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package dateval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAcceptedFormats(t *testing.T) {
	valid := []string{
		"12.03.1984",
		"1.1.2020",
		"31/12/1999",
		"2023-04-05",
		"12 mars 1984",
		"3 Januar 2001",
		"15 October 1987",
		"1. Dezember 2010",
	}
	for _, candidate := range valid {
		result := Validate(candidate)
		assert.True(t, result.Valid, "expected %q valid, got %q", candidate, result.Reason)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		input  string
		reason string
	}{
		{"32.01.2000", "day out of range"},
		{"12.13.2000", "month out of range"},
		{"12.03.1884", "implausible year"},
		{"12.03.2184", "implausible year"},
		{"12 Brumaire 1984", "unknown month name"},
		{"not a date", "unrecognized date format"},
	}
	for _, tt := range tests {
		result := Validate(tt.input)
		assert.False(t, result.Valid, "input %q", tt.input)
		assert.Equal(t, tt.reason, result.Reason)
	}
}
