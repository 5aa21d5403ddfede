// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package consolidate resolves overlapping entity spans from the rule,
// ML and grouped-address sources into one final non-overlapping set.
package consolidate

import (
	"sort"

	"docscrub/internal/address"
	"docscrub/internal/detector"
)

// Consolidate returns the final entity set, ordered by start offset.
//
// Grouped addresses always win over spans they overlap: their
// components are anonymized as one unit, so fragments must not surface
// again. Among the remaining entities, an overlapping pair is resolved
// by higher confidence, then BOTH source over a single source, then
// the longer span; the loser is dropped, never merged.
func Consolidate(entities []detector.Entity, addresses []address.Grouped) []detector.Entity {
	candidates := make([]detector.Entity, 0, len(entities))
	for _, e := range entities {
		if coveredByAddress(e, addresses) {
			continue
		}
		candidates = append(candidates, e)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return outranks(candidates[i], candidates[j])
	})

	var kept []detector.Entity
	for _, c := range candidates {
		if overlapsAny(c, kept) {
			continue
		}
		kept = append(kept, c)
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}

func coveredByAddress(e detector.Entity, addresses []address.Grouped) bool {
	for _, a := range addresses {
		if e.Start < a.End && a.Start < e.End {
			return true
		}
	}
	return false
}

func overlapsAny(e detector.Entity, kept []detector.Entity) bool {
	for _, k := range kept {
		if e.Overlaps(k) {
			return true
		}
	}
	return false
}

// outranks orders candidates so the greedy sweep keeps the winner of
// every overlapping pair. Start offset is the final tiebreak to keep
// the order deterministic.
func outranks(a, b detector.Entity) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	aBoth := a.Source == detector.SourceBoth
	bBoth := b.Source == detector.SourceBoth
	if aBoth != bBoth {
		return aBoth
	}
	if a.Len() != b.Len() {
		return a.Len() > b.Len()
	}
	return a.Start < b.Start
}
