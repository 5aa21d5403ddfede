// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package contextual

import "docscrub/internal/detector"

// RegionHint declares that a byte range of the document is expected to
// hold a given entity type: a declared table column, a letterhead block,
// a form field. Boost is clamped to [0, 0.5].
type RegionHint struct {
	Start int     `json:"start"`
	End   int     `json:"end"`
	Type  string  `json:"type"`
	Boost float64 `json:"boost"`
}

const maxHintBoost = 0.5

// ApplyHints adds the bounded hint boost to every entity whose span falls
// inside a declared region of a matching type. Returns the adjusted
// entities and the number boosted.
func ApplyHints(entities []detector.Entity, hints []RegionHint) ([]detector.Entity, int) {
	if len(hints) == 0 {
		return entities, 0
	}

	out := make([]detector.Entity, len(entities))
	boosted := 0
	for i, entity := range entities {
		adjusted := entity
		for _, hint := range hints {
			if hint.Type != entity.Type {
				continue
			}
			if entity.Start < hint.Start || entity.End > hint.End {
				continue
			}
			boost := hint.Boost
			if boost < 0 {
				boost = 0
			} else if boost > maxHintBoost {
				boost = maxHintBoost
			}
			adjusted = adjusted.WithConfidence(adjusted.Confidence + boost)
			boosted++
			break
		}
		out[i] = adjusted
	}
	return out, boosted
}
