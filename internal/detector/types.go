// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

// Canonical entity types produced by the engine.
const (
	TypePersonName   = "PERSON_NAME"
	TypeOrganization = "ORGANIZATION"
	TypeEmail        = "EMAIL"
	TypePhone        = "PHONE"
	TypeIBAN         = "IBAN"
	TypeAHVNumber    = "AHV_NUMBER"
	TypeVATNumber    = "VAT_NUMBER"
	TypeDate         = "DATE"
	TypeStreetName   = "STREET_NAME"
	TypeStreetNumber = "STREET_NUMBER"
	TypePostalCode   = "POSTAL_CODE"
	TypeCity         = "CITY"
	TypeCountry      = "COUNTRY"
	TypeAddress      = "ADDRESS"
)

// AddressComponentTypes are the types the address grouper may absorb into a
// single grouped address.
var AddressComponentTypes = map[string]bool{
	TypeStreetName:   true,
	TypeStreetNumber: true,
	TypePostalCode:   true,
	TypeCity:         true,
	TypeCountry:      true,
}

// placeholderLabels maps entity types to the short token used in
// placeholders, e.g. PERSON_NAME -> PER so placeholders read PER_1.
var placeholderLabels = map[string]string{
	TypePersonName:   "PER",
	TypeOrganization: "ORG",
	TypeEmail:        "EMAIL",
	TypePhone:        "PHONE",
	TypeIBAN:         "IBAN",
	TypeAHVNumber:    "AHV",
	TypeVATNumber:    "VAT",
	TypeDate:         "DATE",
	TypeStreetName:   "STREET",
	TypeStreetNumber: "STREETNO",
	TypePostalCode:   "POSTAL",
	TypeCity:         "CITY",
	TypeCountry:      "COUNTRY",
	TypeAddress:      "ADDRESS",
}

// PlaceholderLabel returns the short label used when building placeholders
// for the given entity type. Unknown types fall back to the type itself so
// config-imported recognizers still get stable placeholders.
func PlaceholderLabel(entityType string) string {
	if label, ok := placeholderLabels[entityType]; ok {
		return label
	}
	return entityType
}

// mlLabelTypes maps stripped BIO labels from the token classifier to
// canonical entity types.
var mlLabelTypes = map[string]string{
	"PER":   TypePersonName,
	"ORG":   TypeOrganization,
	"LOC":   TypeCity,
	"EMAIL": TypeEmail,
	"PHONE": TypePhone,
	"DATE":  TypeDate,
	"IBAN":  TypeIBAN,
}

// CanonicalType resolves a model label to the canonical entity type,
// returning the label unchanged when no mapping exists.
func CanonicalType(label string) string {
	if t, ok := mlLabelTypes[label]; ok {
		return t
	}
	return label
}

// Supported languages and jurisdictions.
const (
	LangEN = "en"
	LangFR = "fr"
	LangDE = "de"

	CountryCH     = "CH"
	CountryDE     = "DE"
	CountryFR     = "FR"
	CountryEU     = "EU"
	CountryGlobal = "GLOBAL"
)

// DocTypeUnknown is the document type hint used when the caller has none.
const DocTypeUnknown = "UNKNOWN"
