// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package denylist rejects matches that are known false positives for a
// given entity type or language: table headers, field labels, acronyms.
package denylist

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern is one deny entry: either a literal string (compared
// case-insensitively after trimming) or a regular expression tested
// against the untrimmed original text.
type Pattern struct {
	Literal string `yaml:"literal,omitempty"`
	Regex   string `yaml:"regex,omitempty"`

	compiled *regexp.Regexp
}

func (p *Pattern) compile() error {
	if p.Regex == "" {
		return nil
	}
	re, err := regexp.Compile(p.Regex)
	if err != nil {
		return fmt.Errorf("deny pattern %q: %w", p.Regex, err)
	}
	p.compiled = re
	return nil
}

// matches applies the literal or regex rule.
func (p *Pattern) matches(text string) bool {
	if p.compiled != nil {
		return p.compiled.MatchString(text)
	}
	return strings.EqualFold(strings.TrimSpace(text), p.Literal)
}

// Config is the YAML shape of a deny-list file.
type Config struct {
	Version string               `yaml:"version"`
	Global  []Pattern            `yaml:"global"`
	ByType  map[string][]Pattern `yaml:"by_type"`
	ByLang  map[string][]Pattern `yaml:"by_language"`
}

// List is a compiled, immutable deny list. Safe for concurrent use.
type List struct {
	global []Pattern
	byType map[string][]Pattern
	byLang map[string][]Pattern
}

// Default returns the embedded deny list covering the invoice/letter/form
// vocabulary that rule recognizers most often misfire on.
func Default() *List {
	list, err := build(defaultConfig())
	if err != nil {
		// The embedded config is compiled in; a failure here is a bug.
		panic(err)
	}
	return list
}

// Load reads a deny-list YAML file and merges it over the embedded
// defaults. Invalid patterns are skipped individually and reported, the
// remainder of the file still loads.
func Load(path string) (*List, []error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Default(), []error{fmt.Errorf("read deny list: %w", err)}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), []error{fmt.Errorf("parse deny list: %w", err)}
	}

	merged := defaultConfig()
	merged.Global = append(merged.Global, cfg.Global...)
	for t, patterns := range cfg.ByType {
		merged.ByType[t] = append(merged.ByType[t], patterns...)
	}
	for lang, patterns := range cfg.ByLang {
		merged.ByLang[lang] = append(merged.ByLang[lang], patterns...)
	}

	return buildLenient(merged)
}

func build(cfg Config) (*List, error) {
	list, errs := buildLenient(cfg)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return list, nil
}

// buildLenient compiles a config, dropping invalid entries with a reason
// instead of failing the whole load.
func buildLenient(cfg Config) (*List, []error) {
	var errs []error

	compileAll := func(patterns []Pattern) []Pattern {
		kept := patterns[:0]
		for i := range patterns {
			p := patterns[i]
			if err := p.compile(); err != nil {
				errs = append(errs, err)
				continue
			}
			kept = append(kept, p)
		}
		return kept
	}

	list := &List{
		global: compileAll(append([]Pattern(nil), cfg.Global...)),
		byType: make(map[string][]Pattern, len(cfg.ByType)),
		byLang: make(map[string][]Pattern, len(cfg.ByLang)),
	}
	for t, patterns := range cfg.ByType {
		list.byType[t] = compileAll(append([]Pattern(nil), patterns...))
	}
	for lang, patterns := range cfg.ByLang {
		list.byLang[lang] = compileAll(append([]Pattern(nil), patterns...))
	}
	return list, errs
}

// IsDenied checks, in order, the global list, the type-scoped list, and
// the language-scoped list.
func (l *List) IsDenied(text, entityType, language string) bool {
	for i := range l.global {
		if l.global[i].matches(text) {
			return true
		}
	}
	for i := range l.byType[entityType] {
		if l.byType[entityType][i].matches(text) {
			return true
		}
	}
	for i := range l.byLang[strings.ToLower(language)] {
		if l.byLang[strings.ToLower(language)][i].matches(text) {
			return true
		}
	}
	return false
}
