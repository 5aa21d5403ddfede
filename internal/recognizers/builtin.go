// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"regexp"

	"docscrub/internal/detector"
	"docscrub/internal/validators/ahvnumber"
	"docscrub/internal/validators/dateval"
	"docscrub/internal/validators/email"
	"docscrub/internal/validators/iban"
	"docscrub/internal/validators/phone"
	"docscrub/internal/validators/postalcode"
	"docscrub/internal/validators/street"
	"docscrub/internal/validators/vatnumber"
)

// DefaultRegistry builds the shipped Swiss/EU recognizer set and freezes
// it. Priorities: checksum-backed identifiers rank above format-only
// patterns, country-specific recognizers above global fallbacks.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, r := range builtinRecognizers() {
		// Built-in definitions are compiled in; registration cannot fail.
		if err := reg.Register(r); err != nil {
			panic(err)
		}
	}
	reg.Freeze()
	return reg
}

// Builtin returns fresh copies of the shipped recognizer definitions for
// callers that merge external definitions before freezing.
func Builtin() []*Recognizer {
	return builtinRecognizers()
}

func builtinRecognizers() []*Recognizer {
	return []*Recognizer{
		{
			Name:        "iban_generic",
			Type:        detector.TypeIBAN,
			Priority:    90,
			Specificity: SpecificityRegion,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b[A-Z]{2}\d{2}(?:[ .]?[A-Za-z0-9]{1,4}){3,8}\b`),
			},
			Validate:          iban.Validate,
			TrimMatch:         iban.TrimToCountryLength,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "ahv_ch",
			Type:        detector.TypeAHVNumber,
			Countries:   []string{detector.CountryCH},
			Priority:    95,
			Specificity: SpecificityCountry,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b756[.\s]?\d{4}[.\s]?\d{4}[.\s]?\d{2}\b`),
			},
			Validate:          ahvnumber.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "vat_ch",
			Type:        detector.TypeVATNumber,
			Countries:   []string{detector.CountryCH},
			Priority:    90,
			Specificity: SpecificityCountry,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\bCHE[-. ]?\d{3}[.\s]?\d{3}[.\s]?\d{3}(?:\s?(?:MWST|TVA|IVA))?\b`),
			},
			Validate:          vatnumber.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "vat_eu",
			Type:        detector.TypeVATNumber,
			Countries:   []string{detector.CountryDE, detector.CountryFR, detector.CountryEU},
			Priority:    85,
			Specificity: SpecificityRegion,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(?:DE\d{9}|FR\d{11}|ATU\d{8})\b`),
			},
			Validate:          vatnumber.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "email_generic",
			Type:        detector.TypeEmail,
			Priority:    80,
			Specificity: SpecificityGlobal,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`),
			},
			Validate:          email.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "phone_international",
			Type:        detector.TypePhone,
			Priority:    75,
			Specificity: SpecificityRegion,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?:\+|00)\d{2,3}(?:[ .\-/]?\d{1,4}){2,5}`),
			},
			Validate:          phone.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "phone_ch_national",
			Type:        detector.TypePhone,
			Countries:   []string{detector.CountryCH},
			Priority:    70,
			Specificity: SpecificityCountry,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b0\d{2}[ .\-/]?\d{3}[ .\-/]?\d{2}[ .\-/]?\d{2}\b`),
			},
			Validate:          phone.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "date_multiformat",
			Type:        detector.TypeDate,
			Priority:    60,
			Specificity: SpecificityGlobal,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b\d{1,2}[./]\d{1,2}[./]\d{4}\b`),
				regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
				regexp.MustCompile(`\b\d{1,2}\.?\s+(?:[A-Za-zéû]+|März|Dezember|février|décembre|août)\.?\s+\d{4}\b`),
			},
			Validate:          dateval.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "street_fr_it",
			Type:        detector.TypeStreetName,
			Languages:   []string{detector.LangFR, detector.LangEN},
			Priority:    65,
			Specificity: SpecificityRegion,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)\b(?:rue|avenue|av\.|boulevard|bd\.|chemin|ch\.|place|quai|route|rte\.|impasse|allée|passage|via|viale|piazza|corso)\s+(?:de(?:s|\s+la|\s+l')?\s+)?[A-ZÀ-Þ][\p{L}'’\-]+(?:\s+[A-ZÀ-Þ][\p{L}'’\-]+)*`),
			},
			Validate:          street.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "street_de",
			Type:        detector.TypeStreetName,
			Languages:   []string{detector.LangDE, detector.LangEN},
			Priority:    65,
			Specificity: SpecificityRegion,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b[A-ZÀ-Þ][\p{L}\-]{2,}(?:strasse|straße|gasse|weg|platz|allee|ring|ufer)\b`),
			},
			Validate:          street.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "street_number",
			Type:        detector.TypeStreetNumber,
			Priority:    40,
			Specificity: SpecificityGlobal,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?i)(?:strasse|straße|gasse|weg|platz|allee|ring|ufer|[\p{L}'’\-]{3,})\s(\d{1,4}[a-zA-Z]?)\b`),
			},
			BaseConfidence:    detector.ConfidenceWeak,
			UseGlobalDenyList: true,
		},
		{
			Name:        "postal_code_ch",
			Type:        detector.TypePostalCode,
			Countries:   []string{detector.CountryCH},
			Priority:    55,
			Specificity: SpecificityCountry,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b[1-9]\d{3}\b`),
			},
			Validate:          postalcode.Validate,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
		{
			Name:        "postal_code_eu",
			Type:        detector.TypePostalCode,
			Countries:   []string{detector.CountryDE, detector.CountryFR, detector.CountryEU},
			Priority:    50,
			Specificity: SpecificityRegion,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b\d{5}\b`),
			},
			Validate:          postalcode.Validate,
			UseGlobalDenyList: true,
		},
		{
			Name:              "city_known",
			Type:              detector.TypeCity,
			Priority:          45,
			Specificity:       SpecificityRegion,
			Patterns:          []*regexp.Regexp{knownCityPattern},
			BaseConfidence:    detector.ConfidenceKnownValid,
			UseGlobalDenyList: true,
		},
		{
			Name:        "country_name",
			Type:        detector.TypeCountry,
			Priority:    45,
			Specificity: SpecificityGlobal,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(?:Schweiz|Suisse|Svizzera|Switzerland|Deutschland|Germany|Allemagne|France|Frankreich|Italia|Italie|Italien|Österreich|Autriche|Austria|Liechtenstein)\b`),
			},
			BaseConfidence:    detector.ConfidenceFormatValid,
			UseGlobalDenyList: true,
		},
		{
			Name:        "person_name_salutation",
			Type:        detector.TypePersonName,
			Priority:    50,
			Specificity: SpecificityGlobal,
			Patterns: []*regexp.Regexp{
				regexp.MustCompile(`(?:Monsieur|Madame|Herr|Frau|M\.|Mme|Dr\.|Prof\.|Mr\.|Mrs\.|Ms\.)[ \t]+([A-ZÀ-Þ][\p{L}'’\-]+(?:[ \t]+[A-ZÀ-Þ][\p{L}'’\-]+){0,2})`),
			},
			BaseConfidence:    detector.ConfidenceStandard,
			UseGlobalContext:  true,
			UseGlobalDenyList: true,
		},
	}
}

// knownCityPattern lists the larger Swiss and border cities the rule path
// can claim without ML support.
var knownCityPattern = regexp.MustCompile(`\b(?:Zürich|Zurich|Genève|Geneva|Genf|Basel|Bâle|Bern|Berne|Lausanne|Winterthur|Luzern|Lucerne|St\. Gallen|Lugano|Biel|Bienne|Thun|Fribourg|Freiburg|Schaffhausen|Chur|Sion|Neuchâtel|Zug|Yverdon-les-Bains|Montreux|Vevey|Delémont|Bellinzona|Locarno|Aarau|Baden|Olten|Solothurn)\b`)
