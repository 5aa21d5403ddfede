// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package address links adjacent street, number, postal code, city and
// country entities into grouped addresses and scores them for review or
// unattended redaction.
package address

import (
	"sort"
	"strings"

	"docscrub/internal/detector"
)

// MaxComponentGap is the widest run of separator bytes allowed between
// two components of the same address.
const MaxComponentGap = 12

// Components holds the labeled parts of a grouped address.
type Components struct {
	Street  string `json:"street,omitempty" yaml:"street,omitempty"`
	Number  string `json:"number,omitempty" yaml:"number,omitempty"`
	Postal  string `json:"postal,omitempty" yaml:"postal,omitempty"`
	City    string `json:"city,omitempty" yaml:"city,omitempty"`
	Country string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Factor is one weighted contribution to a grouped address score.
type Factor struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Grouped is a logical address assembled from component entities. Its
// span is the union of the component spans and is anonymized as one
// unit. Scoring fields are filled in by Scorer.
type Grouped struct {
	Text       string            `json:"text" yaml:"text"`
	Start      int               `json:"start" yaml:"start"`
	End        int               `json:"end" yaml:"end"`
	Components Components        `json:"components" yaml:"components"`
	Entities   []detector.Entity `json:"entities,omitempty" yaml:"entities,omitempty"`

	PatternMatched   string   `json:"pattern_matched,omitempty" yaml:"pattern_matched,omitempty"`
	Confidence       float64  `json:"confidence" yaml:"confidence"`
	Factors          []Factor `json:"scoring_factors,omitempty" yaml:"scoring_factors,omitempty"`
	FlaggedForReview bool     `json:"flagged_for_review" yaml:"flagged_for_review"`
	AutoAnonymize    bool     `json:"auto_anonymize" yaml:"auto_anonymize"`
}

// countryPattern is a known component ordering for a jurisdiction's
// postal conventions.
type countryPattern struct {
	name  string
	order []string
}

// Swiss, German and Italian addresses put the house number after the
// street; French addresses put it first.
var countryPatterns = []countryPattern{
	{name: "street_number_postal_city", order: []string{
		detector.TypeStreetName, detector.TypeStreetNumber,
		detector.TypePostalCode, detector.TypeCity, detector.TypeCountry,
	}},
	{name: "number_street_postal_city", order: []string{
		detector.TypeStreetNumber, detector.TypeStreetName,
		detector.TypePostalCode, detector.TypeCity, detector.TypeCountry,
	}},
}

// Group assembles grouped addresses from the component entities found
// in text. Non-component entities are ignored. A run of components is
// grouped when each neighbor pair sits within MaxComponentGap bytes of
// separator characters and the component order matches one of the
// known country patterns. Runs with fewer than two components, or
// without a street or postal anchor, are left ungrouped.
func Group(text string, entities []detector.Entity) []Grouped {
	components := make([]detector.Entity, 0, len(entities))
	for _, e := range entities {
		if detector.AddressComponentTypes[e.Type] {
			components = append(components, e)
		}
	}
	if len(components) < 2 {
		return nil
	}
	sort.Slice(components, func(i, j int) bool {
		if components[i].Start != components[j].Start {
			return components[i].Start < components[j].Start
		}
		return components[i].End > components[j].End
	})

	var groups []Grouped
	var run []detector.Entity
	flush := func() {
		if g, ok := buildGroup(text, run); ok {
			groups = append(groups, g)
		}
		run = nil
	}

	for _, e := range components {
		if len(run) == 0 {
			run = []detector.Entity{e}
			continue
		}
		last := run[len(run)-1]
		// Components nested in an already-absorbed span (a known city
		// inside a street name) are duplicates, not neighbors.
		if e.Start < last.End {
			continue
		}
		gap := text[last.End:e.Start]
		if len(gap) > MaxComponentGap || !separatorsOnly(gap) || !extendsPattern(run, e) {
			flush()
			run = []detector.Entity{e}
			continue
		}
		run = append(run, e)
	}
	flush()

	return groups
}

// extendsPattern reports whether appending e to the run keeps the
// component order consistent with at least one country pattern.
func extendsPattern(run []detector.Entity, e detector.Entity) bool {
	seq := make([]string, 0, len(run)+1)
	for _, r := range run {
		seq = append(seq, r.Type)
	}
	seq = append(seq, e.Type)
	_, ok := matchPattern(seq)
	return ok
}

// matchPattern returns the name of the first country pattern that the
// type sequence is an ordered subsequence of.
func matchPattern(seq []string) (string, bool) {
	for _, p := range countryPatterns {
		if subsequenceOf(seq, p.order) {
			return p.name, true
		}
	}
	return "", false
}

func subsequenceOf(seq, order []string) bool {
	i := 0
	for _, want := range order {
		if i < len(seq) && seq[i] == want {
			i++
		}
	}
	return i == len(seq)
}

func buildGroup(text string, run []detector.Entity) (Grouped, bool) {
	if len(run) < 2 {
		return Grouped{}, false
	}
	seq := make([]string, len(run))
	hasAnchor := false
	for i, e := range run {
		seq[i] = e.Type
		if e.Type == detector.TypeStreetName || e.Type == detector.TypePostalCode {
			hasAnchor = true
		}
	}
	if !hasAnchor {
		return Grouped{}, false
	}
	pattern, ok := matchPattern(seq)
	if !ok {
		return Grouped{}, false
	}

	g := Grouped{
		Start:          run[0].Start,
		End:            run[len(run)-1].End,
		Entities:       append([]detector.Entity(nil), run...),
		PatternMatched: pattern,
	}
	g.Text = text[g.Start:g.End]
	for _, e := range run {
		switch e.Type {
		case detector.TypeStreetName:
			g.Components.Street = e.Text
		case detector.TypeStreetNumber:
			g.Components.Number = e.Text
		case detector.TypePostalCode:
			g.Components.Postal = e.Text
		case detector.TypeCity:
			g.Components.City = e.Text
		case detector.TypeCountry:
			g.Components.Country = e.Text
		}
	}
	return g, true
}

// separatorsOnly reports whether the gap between two components holds
// nothing but punctuation and whitespace.
func separatorsOnly(gap string) bool {
	for _, r := range gap {
		if !strings.ContainsRune(" \t\r\n,.;:/-", r) {
			return false
		}
	}
	return true
}
