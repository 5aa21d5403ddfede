// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ml

import (
	"docscrub/internal/detector"
)

// MinEntityLength is the noise floor: merged spans shorter than this are
// dropped.
const MinEntityLength = 2

// MergeSubwordTokens walks classifier tokens in order and merges them into
// complete entity spans:
//
//   - an I-X token extends the open entity of the same stripped type X
//     (end moves to token.End, confidence becomes the running average);
//   - any other token (different type, B-X, or O) closes the open entity,
//     and a B-X token opens a new one.
//
// Entity text is re-sliced from the original document using the final
// offsets, never from the tokenizer's own surface forms, which may not
// reproduce original spacing or casing. The function is idempotent on
// already-merged input.
func MergeSubwordTokens(text string, tokens []Token) []detector.Entity {
	var entities []detector.Entity

	var (
		open      bool
		label     string
		start     int
		end       int
		scoreSum  float64
		scoreN    int
	)

	flush := func() {
		if !open {
			return
		}
		open = false
		if end > len(text) {
			end = len(text)
		}
		if end-start < MinEntityLength || start < 0 || start >= end {
			return
		}
		entities = append(entities, detector.Entity{
			Text:       text[start:end],
			Type:       detector.CanonicalType(label),
			Start:      start,
			End:        end,
			Confidence: scoreSum / float64(scoreN),
			Source:     detector.SourceML,
			Metadata:   map[string]any{"ml_label": label},
		})
	}

	for _, token := range tokens {
		if open && token.Continues(label) {
			end = token.End
			scoreSum += token.Score
			scoreN++
			continue
		}

		flush()

		if token.IsOutside() {
			continue
		}
		// A B-X opens a new entity. A bare I-X with no open entity of
		// that type is treated the same way: models emit these at chunk
		// boundaries.
		open = true
		label = token.Label()
		start = token.Start
		end = token.End
		scoreSum = token.Score
		scoreN = 1
	}
	flush()

	return entities
}
