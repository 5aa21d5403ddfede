// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"docscrub/internal/contextual"
	"docscrub/internal/detector"
	"docscrub/internal/recognizers"
	"docscrub/internal/validators/ahvnumber"
	"docscrub/internal/validators/dateval"
	"docscrub/internal/validators/email"
	"docscrub/internal/validators/iban"
	"docscrub/internal/validators/phone"
	"docscrub/internal/validators/postalcode"
	"docscrub/internal/validators/street"
	"docscrub/internal/validators/vatnumber"
)

// RecognizerSpec is the YAML shape of one imported recognizer.
type RecognizerSpec struct {
	Name           string            `yaml:"name"`
	Type           string            `yaml:"type"`
	Languages      []string          `yaml:"languages"`
	Countries      []string          `yaml:"countries"`
	Patterns       []string          `yaml:"patterns"`
	Priority       int               `yaml:"priority"`
	Specificity    string            `yaml:"specificity"` // global, region or country
	Validator      string            `yaml:"validator"`
	BaseConfidence float64           `yaml:"base_confidence"`
	ContextWords   []contextual.Word `yaml:"context_words"`
	DenyPatterns   []string          `yaml:"deny_patterns"`
	GlobalContext  bool              `yaml:"use_global_context"`
	GlobalDenyList bool              `yaml:"use_global_deny_list"`
}

type recognizerFile struct {
	Version     string           `yaml:"version"`
	Recognizers []RecognizerSpec `yaml:"recognizers"`
}

// namedValidators maps validator names usable in a recognizer file to the
// built-in checksum/format validators.
var namedValidators = map[string]detector.ValidateFunc{
	"iban":        iban.Validate,
	"email":       email.Validate,
	"phone":       phone.Validate,
	"date":        dateval.Validate,
	"postal_code": postalcode.Validate,
	"ahv":         ahvnumber.Validate,
	"vat":         vatnumber.Validate,
	"street":      street.Validate,
}

var specificities = map[string]recognizers.Specificity{
	"":        recognizers.SpecificityGlobal,
	"global":  recognizers.SpecificityGlobal,
	"region":  recognizers.SpecificityRegion,
	"country": recognizers.SpecificityCountry,
}

// ImportRecognizers reads a recognizer definition file. Each invalid
// entry is rejected individually with its reason; the valid remainder is
// returned. A file that cannot be read or parsed yields no recognizers.
func ImportRecognizers(path string) ([]*recognizers.Recognizer, []error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, []error{fmt.Errorf("read recognizers: %w", err)}
	}

	var file recognizerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, []error{fmt.Errorf("parse recognizers %s: %w", path, err)}
	}

	var (
		imported []*recognizers.Recognizer
		errs     []error
	)
	for i, spec := range file.Recognizers {
		r, err := spec.compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("recognizer %d (%s): %w", i, spec.Name, err))
			continue
		}
		imported = append(imported, r)
	}
	return imported, errs
}

// compile validates one spec and builds the recognizer.
func (s RecognizerSpec) compile() (*recognizers.Recognizer, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if s.Type == "" {
		return nil, fmt.Errorf("missing type")
	}
	if len(s.Patterns) == 0 {
		return nil, fmt.Errorf("no patterns")
	}
	if s.BaseConfidence < 0 || s.BaseConfidence > 1 {
		return nil, fmt.Errorf("base_confidence %v: must be within [0,1]", s.BaseConfidence)
	}

	specificity, ok := specificities[strings.ToLower(s.Specificity)]
	if !ok {
		return nil, fmt.Errorf("specificity %q: must be global, region or country", s.Specificity)
	}

	var validate detector.ValidateFunc
	if s.Validator != "" {
		validate, ok = namedValidators[strings.ToLower(s.Validator)]
		if !ok {
			return nil, fmt.Errorf("unknown validator %q", s.Validator)
		}
	}
	if validate == nil && s.BaseConfidence == 0 {
		return nil, fmt.Errorf("needs a validator or a base_confidence")
	}

	patterns := make([]*regexp.Regexp, 0, len(s.Patterns))
	for _, raw := range s.Patterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", raw, err)
		}
		patterns = append(patterns, re)
	}

	deny := make([]*regexp.Regexp, 0, len(s.DenyPatterns))
	for _, raw := range s.DenyPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("deny pattern %q: %w", raw, err)
		}
		deny = append(deny, re)
	}

	for _, w := range s.ContextWords {
		if w.Weight < 0 || w.Weight > 1 {
			return nil, fmt.Errorf("context word %q: weight %v out of [0,1]", w.Word, w.Weight)
		}
		if w.Polarity != contextual.Positive && w.Polarity != contextual.Negative {
			return nil, fmt.Errorf("context word %q: polarity must be positive or negative", w.Word)
		}
	}

	return &recognizers.Recognizer{
		Name:              s.Name,
		Type:              s.Type,
		Languages:         s.Languages,
		Countries:         s.Countries,
		Patterns:          patterns,
		Priority:          s.Priority,
		Specificity:       specificity,
		ContextWords:      s.ContextWords,
		DenyPatterns:      deny,
		Validate:          validate,
		BaseConfidence:    s.BaseConfidence,
		UseGlobalContext:  s.GlobalContext,
		UseGlobalDenyList: s.GlobalDenyList,
	}, nil
}

// BuildRegistry assembles the frozen registry for a run: the built-in
// recognizers plus, when path is set, the imported ones. Import errors
// are returned alongside the still usable registry.
func BuildRegistry(path string) (*recognizers.Registry, []error) {
	if path == "" {
		return recognizers.DefaultRegistry(), nil
	}

	// DefaultRegistry freezes; build unfrozen so imports can land.
	registry := recognizers.NewRegistry()
	var errs []error
	for _, r := range recognizers.Builtin() {
		if err := registry.Register(r); err != nil {
			errs = append(errs, err)
		}
	}
	imported, importErrs := ImportRecognizers(path)
	errs = append(errs, importErrs...)
	for _, r := range imported {
		if err := registry.Register(r); err != nil {
			errs = append(errs, err)
		}
	}
	registry.Freeze()
	return registry, errs
}
