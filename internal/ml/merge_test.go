// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/internal/detector"
)

func TestMergeSubwordTokensAveragesAndJoins(t *testing.T) {
	text := "Hans Müller"
	tokens := []Token{
		{Word: "Hans", Tag: "B-PER", Score: 0.95, Start: 0, End: 4},
		{Word: "Müller", Tag: "I-PER", Score: 0.92, Start: 5, End: 12},
	}

	entities := MergeSubwordTokens(text, tokens)
	require.Len(t, entities, 1)
	assert.Equal(t, "Hans Müller", entities[0].Text)
	assert.Equal(t, detector.TypePersonName, entities[0].Type)
	assert.InDelta(t, 0.935, entities[0].Confidence, 1e-9)
	assert.Equal(t, detector.SourceML, entities[0].Source)
}

func TestMergeSubwordTokensReslicesFromOriginalText(t *testing.T) {
	// The tokenizer lowercased and restitched the words; offsets win.
	text := "HANS  MÜLLER was here"
	tokens := []Token{
		{Word: "hans", Tag: "B-PER", Score: 0.9, Start: 0, End: 4},
		{Word: "müller", Tag: "I-PER", Score: 0.9, Start: 6, End: 13},
	}

	entities := MergeSubwordTokens(text, tokens)
	require.Len(t, entities, 1)
	assert.Equal(t, text[0:13], entities[0].Text)
	assert.Equal(t, "HANS  MÜLLER", entities[0].Text)
}

func TestMergeSubwordTokensClosesOnTagChange(t *testing.T) {
	text := "Hans Basel AG"
	tokens := []Token{
		{Word: "Hans", Tag: "B-PER", Score: 0.9, Start: 0, End: 4},
		{Word: "Basel", Tag: "B-LOC", Score: 0.8, Start: 5, End: 10},
		{Word: "AG", Tag: "B-ORG", Score: 0.7, Start: 11, End: 13},
	}

	entities := MergeSubwordTokens(text, tokens)
	require.Len(t, entities, 3)
	assert.Equal(t, detector.TypePersonName, entities[0].Type)
	assert.Equal(t, detector.TypeCity, entities[1].Type)
	assert.Equal(t, detector.TypeOrganization, entities[2].Type)
}

func TestMergeSubwordTokensIgnoresOutsideAndShortSpans(t *testing.T) {
	text := "x Hans y"
	tokens := []Token{
		{Word: "x", Tag: "B-PER", Score: 0.9, Start: 0, End: 1}, // below noise floor
		{Word: "Hans", Tag: "B-PER", Score: 0.9, Start: 2, End: 6},
		{Word: "y", Tag: "O", Score: 0.9, Start: 7, End: 8},
	}

	entities := MergeSubwordTokens(text, tokens)
	require.Len(t, entities, 1)
	assert.Equal(t, "Hans", entities[0].Text)
}

func TestMergeSubwordTokensIdempotent(t *testing.T) {
	text := "Hans Müller met Anna Rossi"
	tokens := []Token{
		{Word: "Hans", Tag: "B-PER", Score: 0.95, Start: 0, End: 4},
		{Word: "Müller", Tag: "I-PER", Score: 0.92, Start: 5, End: 12},
		{Word: "met", Tag: "O", Score: 0.99, Start: 13, End: 16},
		{Word: "Anna", Tag: "B-PER", Score: 0.90, Start: 17, End: 21},
		{Word: "Rossi", Tag: "I-PER", Score: 0.88, Start: 22, End: 27},
	}

	first := MergeSubwordTokens(text, tokens)
	require.Len(t, first, 2)

	// Feed the merged entities back as single B- tokens: merging again
	// must reproduce them exactly.
	var again []Token
	for _, e := range first {
		again = append(again, Token{Word: e.Text, Tag: "B-PER", Score: e.Confidence, Start: e.Start, End: e.End})
	}
	second := MergeSubwordTokens(text, again)
	require.Len(t, second, 2)
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].Start, second[i].Start)
		assert.Equal(t, first[i].End, second[i].End)
		assert.InDelta(t, first[i].Confidence, second[i].Confidence, 1e-9)
	}
}

func TestMergeSubwordTokensDanglingContinuation(t *testing.T) {
	// An I- token with no open entity opens one (chunk boundary case).
	text := "Müller"
	tokens := []Token{{Word: "Müller", Tag: "I-PER", Score: 0.8, Start: 0, End: 7}}

	entities := MergeSubwordTokens(text, tokens)
	require.Len(t, entities, 1)
	assert.Equal(t, "Müller", entities[0].Text)
}
