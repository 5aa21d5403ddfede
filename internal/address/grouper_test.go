// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/internal/detector"
)

func component(text, typ string, start int) detector.Entity {
	return detector.Entity{
		Text:       text,
		Type:       typ,
		Start:      start,
		End:        start + len(text),
		Confidence: detector.ConfidenceModerate,
		Source:     detector.SourceRule,
	}
}

func TestGroupSwissAddress(t *testing.T) {
	text := "Rue de Lausanne 12, 1000 Lausanne"
	entities := []detector.Entity{
		component("Rue de Lausanne", detector.TypeStreetName, 0),
		component("12", detector.TypeStreetNumber, 16),
		component("1000", detector.TypePostalCode, 20),
		component("Lausanne", detector.TypeCity, 25),
	}

	groups := Group(text, entities)
	require.Len(t, groups, 1)

	g := groups[0]
	assert.Equal(t, text, g.Text)
	assert.Equal(t, 0, g.Start)
	assert.Equal(t, len(text), g.End)
	assert.Equal(t, "street_number_postal_city", g.PatternMatched)
	assert.Equal(t, Components{
		Street: "Rue de Lausanne",
		Number: "12",
		Postal: "1000",
		City:   "Lausanne",
	}, g.Components)
}

func TestGroupFrenchNumberFirstOrder(t *testing.T) {
	text := "12 Rue de la Paix, 75002 Paris"
	entities := []detector.Entity{
		component("12", detector.TypeStreetNumber, 0),
		component("Rue de la Paix", detector.TypeStreetName, 3),
		component("75002", detector.TypePostalCode, 19),
		component("Paris", detector.TypeCity, 25),
	}

	groups := Group(text, entities)
	require.Len(t, groups, 1)
	assert.Equal(t, "number_street_postal_city", groups[0].PatternMatched)
	assert.Equal(t, "Rue de la Paix", groups[0].Components.Street)
}

func TestGroupSkipsNestedDuplicateComponents(t *testing.T) {
	// The known-city recognizer also fires on "Lausanne" inside the
	// street name; the grouper must not absorb it twice.
	text := "Rue de Lausanne 12, 1000 Lausanne"
	entities := []detector.Entity{
		component("Rue de Lausanne", detector.TypeStreetName, 0),
		component("Lausanne", detector.TypeCity, 7),
		component("12", detector.TypeStreetNumber, 16),
		component("1000", detector.TypePostalCode, 20),
		component("Lausanne", detector.TypeCity, 25),
	}

	groups := Group(text, entities)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Entities, 4)
	assert.Equal(t, "Lausanne", groups[0].Components.City)
}

func TestGroupBreaksOnWideGap(t *testing.T) {
	text := "Bahnhofstrasse 1 und etwas ganz anderes dann 8001 Zürich"
	entities := []detector.Entity{
		component("Bahnhofstrasse", detector.TypeStreetName, 0),
		component("1", detector.TypeStreetNumber, 15),
		component("8001", detector.TypePostalCode, 45),
		component("Zürich", detector.TypeCity, 50),
	}

	groups := Group(text, entities)
	// The prose gap splits the run; both halves still group on their own.
	require.Len(t, groups, 2)
	assert.Equal(t, "", groups[0].Components.Postal)
	assert.Equal(t, "8001", groups[1].Components.Postal)
}

func TestGroupRejectsOrderViolation(t *testing.T) {
	// City before postal code matches no country convention.
	text := "Lausanne 1000"
	entities := []detector.Entity{
		component("Lausanne", detector.TypeCity, 0),
		component("1000", detector.TypePostalCode, 9),
	}

	assert.Empty(t, Group(text, entities))
}

func TestGroupRequiresAnchor(t *testing.T) {
	// City plus country alone is not an address.
	text := "Lausanne, Suisse"
	entities := []detector.Entity{
		component("Lausanne", detector.TypeCity, 0),
		component("Suisse", detector.TypeCountry, 10),
	}

	assert.Empty(t, Group(text, entities))
}

func TestGroupIgnoresNonComponents(t *testing.T) {
	text := "CH93 0076 2011 6238 5295 7"
	entities := []detector.Entity{
		{Text: text, Type: detector.TypeIBAN, Start: 0, End: len(text)},
	}
	assert.Empty(t, Group(text, entities))
}

func TestScoreFullSwissAddressAutoAnonymizes(t *testing.T) {
	text := "Rue de Lausanne 12, 1000 Lausanne"
	entities := []detector.Entity{
		component("Rue de Lausanne", detector.TypeStreetName, 0),
		component("12", detector.TypeStreetNumber, 16),
		component("1000", detector.TypePostalCode, 20),
		component("Lausanne", detector.TypeCity, 25),
	}
	groups := Group(text, entities)
	require.Len(t, groups, 1)

	scorer := NewScorer()
	scorer.Score(&groups[0], len(text))

	g := groups[0]
	assert.GreaterOrEqual(t, g.Confidence, AutoAnonymizeThreshold)
	assert.True(t, g.AutoAnonymize)
	assert.False(t, g.FlaggedForReview)

	names := make(map[string]bool)
	for _, f := range g.Factors {
		names[f.Name] = true
	}
	assert.True(t, names["component_ratio"])
	assert.True(t, names["postal_known"])
	assert.True(t, names["pattern_full"])
}

func TestScorePartialAddressFlaggedButEmitted(t *testing.T) {
	// Postal and city in the middle of a long document: low composite
	// score, flagged for review, never dropped.
	doc := make([]byte, 4000)
	for i := range doc {
		doc[i] = 'x'
	}
	fragment := "1000 Lausanne"
	copy(doc[2000:], fragment)
	text := string(doc)

	entities := []detector.Entity{
		component("1000", detector.TypePostalCode, 2000),
		component("Lausanne", detector.TypeCity, 2005),
	}
	groups := Group(text, entities)
	require.Len(t, groups, 1)

	scorer := NewScorer()
	scorer.Score(&groups[0], len(text))

	g := groups[0]
	assert.Less(t, g.Confidence, ReviewThreshold)
	assert.True(t, g.FlaggedForReview)
	assert.False(t, g.AutoAnonymize)
	assert.Equal(t, fragment, g.Text)
}

func TestScoreUnknownPostalGetsRangeCreditOnly(t *testing.T) {
	g := &Grouped{Components: Components{Postal: "4622", City: "Egerkingen"}}
	scorer := NewScorer()
	scorer.Score(g, 0)

	var postal float64
	for _, f := range g.Factors {
		if f.Name == "postal_known" {
			postal = f.Value
		}
	}
	assert.InDelta(t, weightPostalKnown*0.4, postal, 1e-9)
}

func TestScoreConfidenceStaysInUnitInterval(t *testing.T) {
	text := "Rue de Lausanne 12, 1000 Lausanne"
	entities := []detector.Entity{
		component("Rue de Lausanne", detector.TypeStreetName, 0),
		component("12", detector.TypeStreetNumber, 16),
		component("1000", detector.TypePostalCode, 20),
		component("Lausanne", detector.TypeCity, 25),
		component("Suisse", detector.TypeCountry, 34),
	}
	_ = entities[4] // country beyond text end is not part of this grouping
	groups := Group(text, entities[:4])
	require.Len(t, groups, 1)

	scorer := NewScorer()
	scorer.Score(&groups[0], len(text))
	assert.LessOrEqual(t, groups[0].Confidence, 1.0)
	assert.GreaterOrEqual(t, groups[0].Confidence, 0.0)
}
