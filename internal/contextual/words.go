// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package contextual adjusts entity confidence from nearby lexical cues:
// salutations, field labels, and caller-supplied hints.
package contextual

import "docscrub/internal/detector"

// Polarity determines the additive sign of a context word.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// Word is one weighted context cue. Weight is bounded to [0,1].
type Word struct {
	Word     string   `yaml:"word"`
	Weight   float64  `yaml:"weight"`
	Polarity Polarity `yaml:"polarity"`
}

// defaultTypeWords are the shipped per-entity-type cues, language-neutral
// plus EN/FR/DE vocabulary merged into one set per type.
var defaultTypeWords = map[string][]Word{
	detector.TypePersonName: {
		{Word: "monsieur", Weight: 0.9, Polarity: Positive},
		{Word: "madame", Weight: 0.9, Polarity: Positive},
		{Word: "herr", Weight: 0.9, Polarity: Positive},
		{Word: "frau", Weight: 0.9, Polarity: Positive},
		{Word: "mr.", Weight: 0.8, Polarity: Positive},
		{Word: "mrs.", Weight: 0.8, Polarity: Positive},
		{Word: "dear", Weight: 0.7, Polarity: Positive},
		{Word: "sehr geehrte", Weight: 0.9, Polarity: Positive},
		{Word: "contact", Weight: 0.5, Polarity: Positive},
		{Word: "signature", Weight: 0.6, Polarity: Positive},
		{Word: "article", Weight: 0.7, Polarity: Negative},
		{Word: "artikel", Weight: 0.7, Polarity: Negative},
		{Word: "produit", Weight: 0.7, Polarity: Negative},
	},
	detector.TypeIBAN: {
		{Word: "iban", Weight: 1.0, Polarity: Positive},
		{Word: "compte", Weight: 0.7, Polarity: Positive},
		{Word: "konto", Weight: 0.7, Polarity: Positive},
		{Word: "account", Weight: 0.7, Polarity: Positive},
		{Word: "banque", Weight: 0.6, Polarity: Positive},
		{Word: "bank", Weight: 0.6, Polarity: Positive},
		{Word: "versement", Weight: 0.6, Polarity: Positive},
	},
	detector.TypePhone: {
		{Word: "tél", Weight: 0.9, Polarity: Positive},
		{Word: "tel", Weight: 0.9, Polarity: Positive},
		{Word: "phone", Weight: 0.9, Polarity: Positive},
		{Word: "telefon", Weight: 0.9, Polarity: Positive},
		{Word: "natel", Weight: 0.8, Polarity: Positive},
		{Word: "mobile", Weight: 0.7, Polarity: Positive},
		{Word: "fax", Weight: 0.6, Polarity: Positive},
		{Word: "ref", Weight: 0.6, Polarity: Negative},
		{Word: "n° commande", Weight: 0.8, Polarity: Negative},
		{Word: "bestellnummer", Weight: 0.8, Polarity: Negative},
	},
	detector.TypeEmail: {
		{Word: "email", Weight: 0.8, Polarity: Positive},
		{Word: "e-mail", Weight: 0.8, Polarity: Positive},
		{Word: "courriel", Weight: 0.8, Polarity: Positive},
	},
	detector.TypeAHVNumber: {
		{Word: "ahv", Weight: 1.0, Polarity: Positive},
		{Word: "avs", Weight: 1.0, Polarity: Positive},
		{Word: "assurance sociale", Weight: 0.8, Polarity: Positive},
		{Word: "sozialversicherung", Weight: 0.8, Polarity: Positive},
	},
	detector.TypeVATNumber: {
		{Word: "tva", Weight: 0.9, Polarity: Positive},
		{Word: "mwst", Weight: 0.9, Polarity: Positive},
		{Word: "vat", Weight: 0.9, Polarity: Positive},
		{Word: "uid", Weight: 0.8, Polarity: Positive},
	},
	detector.TypeDate: {
		{Word: "né le", Weight: 0.9, Polarity: Positive},
		{Word: "geboren", Weight: 0.9, Polarity: Positive},
		{Word: "date de naissance", Weight: 0.9, Polarity: Positive},
		{Word: "geburtsdatum", Weight: 0.9, Polarity: Positive},
		{Word: "version", Weight: 0.6, Polarity: Negative},
	},
	detector.TypePostalCode: {
		{Word: "adresse", Weight: 0.6, Polarity: Positive},
		{Word: "address", Weight: 0.6, Polarity: Positive},
	},
	detector.TypeStreetNumber: {
		{Word: "rue", Weight: 0.8, Polarity: Positive},
		{Word: "avenue", Weight: 0.7, Polarity: Positive},
		{Word: "chemin", Weight: 0.7, Polarity: Positive},
		{Word: "boulevard", Weight: 0.7, Polarity: Positive},
		{Word: "via", Weight: 0.7, Polarity: Positive},
		{Word: "piazza", Weight: 0.7, Polarity: Positive},
		{Word: "platz", Weight: 0.7, Polarity: Positive},
		{Word: "weg", Weight: 0.6, Polarity: Positive},
		{Word: "nr", Weight: 0.6, Polarity: Positive},
	},
}

// defaultLanguageWords apply to every entity type within one language,
// typically letter salutations.
var defaultLanguageWords = map[string][]Word{
	detector.LangFR: {
		{Word: "concerne", Weight: 0.3, Polarity: Positive},
	},
	detector.LangDE: {
		{Word: "betrifft", Weight: 0.3, Polarity: Positive},
	},
	detector.LangEN: {
		{Word: "regarding", Weight: 0.3, Polarity: Positive},
	},
}
