// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/internal/address"
	"docscrub/internal/detector"
)

func entityAt(text, span, typ string, conf float64) detector.Entity {
	start := strings.Index(text, span)
	return detector.Entity{
		Text:       span,
		Type:       typ,
		Start:      start,
		End:        start + len(span),
		Confidence: conf,
		Source:     detector.SourceRule,
	}
}

func TestApplyGroupedAddressSinglePlaceholder(t *testing.T) {
	text := "Adresse: Rue de Lausanne 12, 1000 Lausanne."
	addrText := "Rue de Lausanne 12, 1000 Lausanne"
	start := strings.Index(text, addrText)
	grouped := address.Grouped{
		Text:  addrText,
		Start: start,
		End:   start + len(addrText),
		Components: address.Components{
			Street: "Rue de Lausanne",
			Number: "12",
			Postal: "1000",
			City:   "Lausanne",
		},
		Confidence:    0.95,
		AutoAnonymize: true,
	}

	sess := New(nil)
	out, err := sess.Apply(nil, []address.Grouped{grouped}, Input{
		Text:         text,
		DocumentType: detector.DocTypeUnknown,
	})
	require.NoError(t, err)

	assert.Equal(t, "Adresse: [ADDRESS_1].", out.Text)
	require.Len(t, out.Record.Addresses, 1)
	rec := out.Record.Addresses[0]
	assert.Equal(t, "ADDRESS_1", rec.Placeholder)
	assert.Equal(t, "Rue de Lausanne", rec.Components.Street)
	assert.Equal(t, "12", rec.Components.Number)
	assert.Equal(t, "1000", rec.Components.Postal)
	assert.Equal(t, "Lausanne", rec.Components.City)
	assert.True(t, rec.AutoAnonymize)
}

func TestApplyRepeatedTextSharesPlaceholder(t *testing.T) {
	text := "John Doe met John Doe"
	entities := []detector.Entity{
		entityAt(text, "John Doe", detector.TypePersonName, 0.8),
		{
			Text: "John Doe", Type: detector.TypePersonName,
			Start: 13, End: 21, Confidence: 0.8, Source: detector.SourceRule,
		},
	}

	sess := New(nil)
	out, err := sess.Apply(entities, nil, Input{Text: text})
	require.NoError(t, err)

	assert.Equal(t, "[PER_1] met [PER_1]", out.Text)
	// The record lists the placeholder once.
	require.Len(t, out.Record.Entities, 1)
	assert.Equal(t, "PER_1", out.Record.Entities[0].Placeholder)
	assert.Equal(t, "John Doe", out.Record.Entities[0].OriginalText)
}

func TestApplySweepsUndetectedDuplicateText(t *testing.T) {
	// The second occurrence carried no entity span, its detection was
	// filtered, yet the text must not survive next to its placeholder.
	text := "Jean Dupont signe. Kopie an Jean Dupont."
	entities := []detector.Entity{entityAt(text, "Jean Dupont", detector.TypePersonName, 0.8)}

	out, err := New(nil).Apply(entities, nil, Input{Text: text})
	require.NoError(t, err)

	assert.Equal(t, "[PER_1] signe. Kopie an [PER_1].", out.Text)
	require.Len(t, out.Record.Entities, 1)
}

func TestApplySweepPrefersLongerOriginals(t *testing.T) {
	// "Dupont" alone and as part of "Jean Dupont" are distinct
	// pseudonyms; the sweep must not let the shorter one split an
	// undetected occurrence of the longer one.
	text := "Jean Dupont und Dupont: Jean Dupont"
	dupontStart := strings.Index(text, "und Dupont") + len("und ")
	entities := []detector.Entity{
		entityAt(text, "Jean Dupont", detector.TypePersonName, 0.8),
		{
			Text: "Dupont", Type: detector.TypePersonName,
			Start: dupontStart, End: dupontStart + len("Dupont"),
			Confidence: 0.8, Source: detector.SourceRule,
		},
	}

	out, err := New(nil).Apply(entities, nil, Input{Text: text})
	require.NoError(t, err)
	assert.Equal(t, "[PER_1] und [PER_2]: [PER_1]", out.Text)
}

func TestSessionsNeverSharePlaceholderNumbering(t *testing.T) {
	text := "John Doe"
	entities := []detector.Entity{entityAt(text, "John Doe", detector.TypePersonName, 0.8)}

	first, err := New(nil).Apply(entities, nil, Input{Text: text})
	require.NoError(t, err)
	second, err := New(nil).Apply(entities, nil, Input{Text: text})
	require.NoError(t, err)

	assert.Equal(t, "[PER_1]", first.Text)
	assert.Equal(t, "[PER_1]", second.Text)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}

func TestApplyCountersArePerType(t *testing.T) {
	text := "Jean Dupont, jean@example.ch, Marie Curie"
	entities := []detector.Entity{
		entityAt(text, "Jean Dupont", detector.TypePersonName, 0.8),
		entityAt(text, "jean@example.ch", detector.TypeEmail, 0.85),
		entityAt(text, "Marie Curie", detector.TypePersonName, 0.8),
	}

	sess := New(nil)
	out, err := sess.Apply(entities, nil, Input{Text: text})
	require.NoError(t, err)
	assert.Equal(t, "[PER_1], [EMAIL_1], [PER_2]", out.Text)
}

func TestApplySkipsEntitiesInsideAnonymizedRange(t *testing.T) {
	text := "Rue de Lausanne 12, 1000 Lausanne"
	grouped := address.Grouped{Text: text, Start: 0, End: len(text)}
	leftover := entityAt(text, "Lausanne", detector.TypeCity, 0.6)

	sess := New(nil)
	out, err := sess.Apply([]detector.Entity{leftover}, []address.Grouped{grouped}, Input{Text: text})
	require.NoError(t, err)

	assert.Equal(t, "[ADDRESS_1]", out.Text)
	assert.Empty(t, out.Record.Entities)
}

func TestApplyMultipleAddressesNumberedInDocumentOrder(t *testing.T) {
	text := "Von: Bahnhofstrasse 1, 8001 Zürich\nAn: Rue du Marché 4, 1204 Genève"
	first := "Bahnhofstrasse 1, 8001 Zürich"
	second := "Rue du Marché 4, 1204 Genève"
	groups := []address.Grouped{
		{Text: second, Start: strings.Index(text, second), End: strings.Index(text, second) + len(second)},
		{Text: first, Start: strings.Index(text, first), End: strings.Index(text, first) + len(first)},
	}

	sess := New(nil)
	out, err := sess.Apply(nil, groups, Input{Text: text})
	require.NoError(t, err)

	assert.Equal(t, "Von: [ADDRESS_1]\nAn: [ADDRESS_2]", out.Text)
}

func TestApplyOnlyOnce(t *testing.T) {
	sess := New(nil)
	_, err := sess.Apply(nil, nil, Input{Text: "x"})
	require.NoError(t, err)
	_, err = sess.Apply(nil, nil, Input{Text: "x"})
	assert.Error(t, err)
}

func TestApplyRecordCarriesVersionAndMethods(t *testing.T) {
	sess := New(nil)
	out, err := sess.Apply(nil, nil, Input{
		Text:             "nothing here",
		DocumentType:     "INVOICE",
		DetectionMethods: []string{"normalize", "recognize", "consolidate"},
	})
	require.NoError(t, err)
	assert.Equal(t, RecordVersion, out.Record.Version)
	assert.Equal(t, "INVOICE", out.Record.DocumentType)
	assert.Equal(t, []string{"normalize", "recognize", "consolidate"}, out.Record.DetectionMethods)
}

func TestApplyManualEntityTreatedLikeDetected(t *testing.T) {
	text := "Kundennummer K-55, Herr Weber"
	manual := detector.Entity{
		Text: "Weber", Type: detector.TypePersonName,
		Start: strings.Index(text, "Weber"), End: strings.Index(text, "Weber") + len("Weber"),
		Confidence: 1.0, Source: detector.SourceManual,
	}

	out, err := New(nil).Apply([]detector.Entity{manual}, nil, Input{Text: text})
	require.NoError(t, err)
	assert.Equal(t, "Kundennummer K-55, Herr [PER_1]", out.Text)
	require.Len(t, out.Record.Entities, 1)
	assert.Equal(t, detector.SourceManual, out.Record.Entities[0].Source)
}
