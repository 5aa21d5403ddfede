// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"docscrub/internal/contextual"
)

type contextWordsFile struct {
	Version    string                       `yaml:"version"`
	ByType     map[string][]contextual.Word `yaml:"by_type"`
	ByLanguage map[string][]contextual.Word `yaml:"by_language"`
}

// ImportContextWords reads a context-word definition file. Entries with
// out-of-range weights or unknown polarity are rejected individually; the
// valid remainder merges over the embedded defaults inside the enhancer.
func ImportContextWords(path string) (byType, byLang map[string][]contextual.Word, errs []error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, nil, []error{fmt.Errorf("read context words: %w", err)}
	}

	var file contextWordsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, []error{fmt.Errorf("parse context words %s: %w", path, err)}
	}

	validate := func(scope string, words []contextual.Word) []contextual.Word {
		kept := words[:0]
		for _, w := range words {
			if w.Word == "" {
				errs = append(errs, fmt.Errorf("context word in %s: empty word", scope))
				continue
			}
			if w.Weight < 0 || w.Weight > 1 {
				errs = append(errs, fmt.Errorf("context word %q in %s: weight %v out of [0,1]", w.Word, scope, w.Weight))
				continue
			}
			if w.Polarity == "" {
				w.Polarity = contextual.Positive
			}
			if w.Polarity != contextual.Positive && w.Polarity != contextual.Negative {
				errs = append(errs, fmt.Errorf("context word %q in %s: polarity must be positive or negative", w.Word, scope))
				continue
			}
			kept = append(kept, w)
		}
		return kept
	}

	byType = make(map[string][]contextual.Word, len(file.ByType))
	for t, words := range file.ByType {
		byType[t] = validate(t, words)
	}
	byLang = make(map[string][]contextual.Word, len(file.ByLanguage))
	for lang, words := range file.ByLanguage {
		byLang[lang] = validate(lang, words)
	}
	return byType, byLang, errs
}

// BuildEnhancer returns the context enhancer, merging an optional word
// file over the embedded defaults. Returned errors are per-entry and the
// enhancer is always usable.
func BuildEnhancer(path string) (*contextual.Enhancer, []error) {
	enhancer := contextual.NewEnhancer()
	if path == "" {
		return enhancer, nil
	}

	byType, byLang, errs := ImportContextWords(path)
	merged := enhancer.MergedTypeWords(byType)
	mergedLang := enhancer.MergedLanguageWords(byLang)
	return enhancer.WithWords(merged, mergedLang), errs
}
