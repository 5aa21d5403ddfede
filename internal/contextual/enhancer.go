// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package contextual

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"docscrub/internal/detector"
)

// Enhancer scans a character window around each entity for configured
// context words and adjusts confidence additively. It holds only immutable
// configuration and is safe for concurrent use.
type Enhancer struct {
	// WindowChars is the number of characters inspected on each side of
	// the entity span.
	WindowChars int

	// BoostFactor scales word weights into confidence deltas.
	BoostFactor float64

	// MinBoosted is the confidence floor applied whenever at least one
	// positive cue was found.
	MinBoosted float64

	// RuntimeWeight discounts caller-supplied words relative to the
	// configured sets.
	RuntimeWeight float64

	typeWords map[string][]Word
	langWords map[string][]Word
}

// NewEnhancer builds an enhancer with the embedded default word sets.
func NewEnhancer() *Enhancer {
	return &Enhancer{
		WindowChars:   50,
		BoostFactor:   0.3,
		MinBoosted:    0.4,
		RuntimeWeight: 0.5,
		typeWords:     defaultTypeWords,
		langWords:     defaultLanguageWords,
	}
}

// WithWords replaces the configured word sets (used by config import).
func (e *Enhancer) WithWords(typeWords map[string][]Word, langWords map[string][]Word) *Enhancer {
	if typeWords != nil {
		e.typeWords = typeWords
	}
	if langWords != nil {
		e.langWords = langWords
	}
	return e
}

// MergedTypeWords returns a copy of the configured per-type word sets
// with extra entries appended per type.
func (e *Enhancer) MergedTypeWords(extra map[string][]Word) map[string][]Word {
	return mergeWordSets(e.typeWords, extra)
}

// MergedLanguageWords returns a copy of the configured per-language word
// sets with extra entries appended per language.
func (e *Enhancer) MergedLanguageWords(extra map[string][]Word) map[string][]Word {
	return mergeWordSets(e.langWords, extra)
}

func mergeWordSets(base, extra map[string][]Word) map[string][]Word {
	merged := make(map[string][]Word, len(base)+len(extra))
	for key, words := range base {
		merged[key] = append([]Word(nil), words...)
	}
	for key, words := range extra {
		merged[key] = append(merged[key], words...)
	}
	return merged
}

// Result describes one enhancement outcome.
type Result struct {
	Entity  detector.Entity
	Boosted bool
	Demoted bool
	Matched []string // matched context words, never the entity text
}

// Cues are the per-entity word sources for one enhancement.
type Cues struct {
	// Runtime words come from the caller and are applied at RuntimeWeight.
	Runtime []Word

	// Recognizer words were declared by the recognizer that produced
	// the entity and carry full weight, like the configured sets.
	Recognizer []Word

	// SkipShared leaves out the configured type and language sets, so
	// only the recognizer's own cues and runtime words apply. Set for
	// entities whose recognizer opted out of global context.
	SkipShared bool
}

// Enhance adjusts one entity's confidence from context found in text.
// extraWords are caller-supplied runtime cues applied at RuntimeWeight.
// An entity with no matching context word is returned unchanged.
func (e *Enhancer) Enhance(text string, entity detector.Entity, language string, extraWords []Word) Result {
	return e.EnhanceWithCues(text, entity, language, Cues{Runtime: extraWords})
}

// EnhanceWithCues is Enhance with per-entity recognizer cues.
func (e *Enhancer) EnhanceWithCues(text string, entity detector.Entity, language string, cues Cues) Result {
	window := strings.ToLower(e.window(text, entity))

	var (
		delta        float64
		matched      []string
		positiveSeen bool
	)

	scan := func(words []Word, scale float64) {
		for _, w := range words {
			if w.Word == "" || w.Weight < 0 || w.Weight > 1 {
				continue
			}
			if !containsCue(window, strings.ToLower(w.Word)) {
				continue
			}
			matched = append(matched, w.Word)
			step := w.Weight * e.BoostFactor * scale
			if w.Polarity == Negative {
				delta -= step
			} else {
				delta += step
				positiveSeen = true
			}
		}
	}

	if !cues.SkipShared {
		scan(e.typeWords[entity.Type], 1.0)
		scan(e.langWords[strings.ToLower(language)], 1.0)
	}
	scan(cues.Recognizer, 1.0)
	scan(cues.Runtime, e.RuntimeWeight)

	if len(matched) == 0 {
		// No context found: confidence must stay untouched.
		return Result{Entity: entity}
	}

	adjusted := entity.Confidence + delta
	if positiveSeen && adjusted < e.MinBoosted && delta > 0 {
		adjusted = e.MinBoosted
	}

	return Result{
		Entity:  entity.WithConfidence(adjusted),
		Boosted: delta > 0,
		Demoted: delta < 0,
		Matched: matched,
	}
}

// containsCue reports whether the cue appears in the window on word
// boundaries. Plain substring search would fire on fragments ("tel"
// inside "Artikel"), which matters for the short FR/DE field labels.
func containsCue(window, cue string) bool {
	for from := 0; from <= len(window)-len(cue); {
		idx := strings.Index(window[from:], cue)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(cue)

		before, _ := utf8.DecodeLastRuneInString(window[:start])
		after, _ := utf8.DecodeRuneInString(window[end:])
		if !isWordRune(before) && !isWordRune(after) {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// window extracts up to WindowChars characters on both sides of the span.
func (e *Enhancer) window(text string, entity detector.Entity) string {
	start := entity.Start - e.WindowChars
	if start < 0 {
		start = 0
	}
	end := entity.End + e.WindowChars
	if end > len(text) {
		end = len(text)
	}
	if start > len(text) || entity.Start > len(text) || entity.End > len(text) || entity.Start < 0 {
		return ""
	}
	// The entity's own text is excluded so a match never boosts itself.
	return text[start:entity.Start] + " " + text[entity.End:end]
}
