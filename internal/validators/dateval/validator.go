// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package dateval validates date candidates in the EN/FR/DE formats the
// recognizer set emits, with a plausibility window on the year.
package dateval

import (
	"regexp"
	"strconv"
	"strings"

	"docscrub/internal/detector"
)

var (
	numericDate = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})$`)
	isoDate     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	writtenDate = regexp.MustCompile(`^(\d{1,2})\.?\s+([\p{L}é]+)\.?\s+(\d{4})$`)
)

// monthNames covers English, French and German month words, full and
// trimmed forms, lowercased.
var monthNames = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5,
	"june": 6, "july": 7, "august": 8, "september": 9, "october": 10,
	"november": 11, "december": 12,
	"janvier": 1, "février": 2, "fevrier": 2, "mars": 3, "avril": 4,
	"mai": 5, "juin": 6, "juillet": 7, "août": 8, "aout": 8,
	"septembre": 9, "octobre": 10, "novembre": 11, "décembre": 12, "decembre": 12,
	"januar": 1, "februar": 2, "märz": 3, "maerz": 3, "juni": 6,
	"juli": 7, "oktober": 10, "dezember": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7,
	"aug": 8, "sep": 9, "sept": 9, "okt": 10, "oct": 10, "nov": 11,
	"dez": 12, "dec": 12, "déc": 12,
}

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Validate checks a date candidate: dd.mm.yyyy, dd/mm/yyyy, yyyy-mm-dd, or
// a written month form like "12 mars 1984".
func Validate(text string) detector.ValidationResult {
	candidate := strings.TrimSpace(text)

	if m := numericDate.FindStringSubmatch(candidate); m != nil {
		return checkParts(m[1], m[2], m[3])
	}
	if m := isoDate.FindStringSubmatch(candidate); m != nil {
		return checkParts(m[3], m[2], m[1])
	}
	if m := writtenDate.FindStringSubmatch(candidate); m != nil {
		month, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			return detector.InvalidResult(detector.ConfidenceInvalidFormat, "unknown month name")
		}
		return checkParts(m[1], strconv.Itoa(month), m[3])
	}
	return detector.InvalidResult(detector.ConfidenceInvalidFormat, "unrecognized date format")
}

func checkParts(dayStr, monthStr, yearStr string) detector.ValidationResult {
	day, _ := strconv.Atoi(dayStr)
	month, _ := strconv.Atoi(monthStr)
	year, _ := strconv.Atoi(yearStr)

	if month < 1 || month > 12 {
		return detector.InvalidResult(detector.ConfidenceFailed, "month out of range")
	}
	if day < 1 || day > daysInMonth[month] {
		return detector.InvalidResult(detector.ConfidenceFailed, "day out of range")
	}
	// Plausibility window for document dates.
	if year < 1900 || year > 2100 {
		return detector.InvalidResult(detector.ConfidenceFailed, "implausible year")
	}
	return detector.ValidResult(detector.ConfidenceFormatValid)
}
