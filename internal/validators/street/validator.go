// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package street validates street-name candidates against French, German
// and Italian naming conventions used in Swiss and EU addresses.
package street

import (
	"regexp"
	"strings"

	"docscrub/internal/detector"
)

var (
	// French/Italian convention: the street word leads ("Rue de Lausanne").
	leadingWord = regexp.MustCompile(`(?i)^(rue|avenue|av\.|boulevard|bd\.|chemin|ch\.|place|quai|route|rte\.|impasse|allée|allee|passage|via|viale|piazza|corso|vicolo)\s+[\p{L}'’.\- ]+$`)

	// German convention: the street word trails, often fused
	// ("Bahnhofstrasse", "Marktgasse", "Lindenweg").
	trailingWord = regexp.MustCompile(`(?i)^[\p{L}'’.\- ]*?(strasse|straße|str\.|gasse|weg|platz|allee|ring|ufer|halde|rain)$`)
)

// Validate checks whether a candidate reads like a street name, without
// its house number.
func Validate(text string) detector.ValidationResult {
	candidate := strings.TrimSpace(text)
	if len(candidate) < 3 {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "too short for a street name")
	}
	if strings.ContainsAny(candidate, "0123456789") {
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "digits inside street name")
	}

	if leadingWord.MatchString(candidate) {
		return detector.ValidResult(detector.ConfidenceFormatValid)
	}
	if trailingWord.MatchString(candidate) {
		// Fused German names need a minimum stem before the suffix.
		if fusedStemLength(candidate) >= 3 {
			return detector.ValidResult(detector.ConfidenceFormatValid)
		}
		return detector.InvalidResult(detector.ConfidenceInvalidFormat, "street suffix without a stem")
	}

	return detector.InvalidResult(detector.ConfidenceInvalidFormat, "no street convention matched")
}

var germanSuffixes = []string{"strasse", "straße", "str.", "gasse", "weg", "platz", "allee", "ring", "ufer", "halde", "rain"}

func fusedStemLength(candidate string) int {
	lower := strings.ToLower(candidate)
	for _, suffix := range germanSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return len(strings.TrimSpace(strings.TrimSuffix(lower, suffix)))
		}
	}
	return 0
}
