// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package denylist

import "docscrub/internal/detector"

// defaultConfig is the embedded deny list. Entries are the recurring false
// positives of the shipped recognizer set: invoice table headers in FR/DE/EN,
// form field labels, and common document acronyms.
func defaultConfig() Config {
	literals := func(words ...string) []Pattern {
		patterns := make([]Pattern, len(words))
		for i, w := range words {
			patterns[i] = Pattern{Literal: w}
		}
		return patterns
	}

	return Config{
		Version: "1.0",
		Global: literals(
			"N/A", "TBD", "TODO",
		),
		ByType: map[string][]Pattern{
			detector.TypePersonName: append(literals(
				// Invoice and form headers misread as names.
				"Montant", "Total", "Sous-total", "Betrag", "Summe",
				"Rechnung", "Facture", "Invoice", "Datum", "Date",
				"Monsieur", "Madame", "Herr", "Frau", "Dear Sir",
				"Mehrwertsteuer", "Taxe", "Quantité", "Menge",
			), Pattern{Regex: `^[A-Z]{2,5}$`}), // bare acronyms
			detector.TypeOrganization: literals(
				"AG", "GmbH", "SA", "Sàrl", "SARL", "Inc", "Ltd",
			),
			detector.TypeCity: literals(
				"Total", "Page",
			),
			detector.TypeStreetName: literals(
				"Route de paiement",
			),
		},
		ByLang: map[string][]Pattern{
			detector.LangFR: literals("Montant dû", "Échéance", "Référence"),
			detector.LangDE: literals("Fälligkeit", "Referenz", "Zahlbar bis"),
			detector.LangEN: literals("Amount due", "Reference", "Due date"),
		},
	}
}
