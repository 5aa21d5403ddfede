// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package postalcode validates postal codes for CH, DE and FR. Swiss codes
// are checked against an embedded code-to-city table for plausibility, not
// just numeric range.
package postalcode

import (
	"strconv"
	"strings"

	"docscrub/internal/detector"
)

// swissCities maps Swiss postal codes to their principal locality. The
// table carries the federal four-digit code space head entries; codes not
// in the table fall back to the 1000-9699 range check.
var swissCities = map[int]string{
	1000: "Lausanne", 1003: "Lausanne", 1004: "Lausanne", 1005: "Lausanne",
	1006: "Lausanne", 1007: "Lausanne", 1010: "Lausanne", 1012: "Lausanne",
	1201: "Genève", 1202: "Genève", 1203: "Genève", 1204: "Genève",
	1205: "Genève", 1206: "Genève", 1207: "Genève", 1208: "Genève",
	1400: "Yverdon-les-Bains", 1700: "Fribourg", 1800: "Vevey",
	1820: "Montreux", 1920: "Martigny", 1950: "Sion",
	2000: "Neuchâtel", 2300: "La Chaux-de-Fonds", 2500: "Biel/Bienne",
	2800: "Delémont", 3000: "Bern", 3001: "Bern", 3003: "Bern",
	3005: "Bern", 3008: "Bern", 3011: "Bern", 3012: "Bern",
	3600: "Thun", 3900: "Brig", 4000: "Basel", 4051: "Basel",
	4052: "Basel", 4053: "Basel", 4500: "Solothurn", 4600: "Olten",
	5000: "Aarau", 5400: "Baden", 6000: "Luzern", 6003: "Luzern",
	6004: "Luzern", 6300: "Zug", 6500: "Bellinzona", 6600: "Locarno",
	6900: "Lugano", 7000: "Chur", 7500: "St. Moritz", 8000: "Zürich",
	8001: "Zürich", 8002: "Zürich", 8003: "Zürich", 8004: "Zürich",
	8005: "Zürich", 8006: "Zürich", 8008: "Zürich", 8032: "Zürich",
	8050: "Zürich", 8400: "Winterthur", 8200: "Schaffhausen",
	8500: "Frauenfeld", 8600: "Dübendorf", 8700: "Küsnacht",
	9000: "St. Gallen", 9001: "St. Gallen", 9008: "St. Gallen",
	9100: "Herisau", 9200: "Gossau", 9400: "Rorschach", 9500: "Wil",
	9600: "Wattwil",
}

// Swiss postal codes occupy 1000-9699; 97xx-99xx are Liechtenstein and
// special-purpose blocks.
const (
	swissMin = 1000
	swissMax = 9699
)

// CityFor returns the locality for a Swiss postal code when the embedded
// table knows it.
func CityFor(code string) (string, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return "", false
	}
	city, ok := swissCities[n]
	return city, ok
}

// InSwissRange reports whether a candidate is inside the Swiss code space.
func InSwissRange(code string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return false
	}
	return n >= swissMin && n <= swissMax
}

// Validate checks a postal code candidate against Swiss, German and French
// conventions: 4 digits in the Swiss code space, 5 digits for DE/FR.
func Validate(text string) detector.ValidationResult {
	code := strings.TrimSpace(text)
	if !allDigits(code) {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "non-numeric postal code")
	}

	switch len(code) {
	case 4:
		if _, ok := CityFor(code); ok {
			return detector.ValidResult(detector.ConfidenceKnownValid)
		}
		if InSwissRange(code) {
			return detector.ValidResult(detector.ConfidenceModerate)
		}
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "outside Swiss code space")
	case 5:
		// DE and FR both use five digits; no checksum exists, range only.
		if code[0] == '0' && code[1] == '0' {
			return detector.InvalidResult(detector.ConfidenceInvalidFormat, "implausible leading zeros")
		}
		return detector.ValidResult(detector.ConfidenceModerate)
	default:
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "unsupported postal code length")
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
