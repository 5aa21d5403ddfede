// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package session turns a final entity set into anonymized text plus a
// versioned mapping record. A Session is scoped to exactly one
// document and never shared across documents or goroutines: pseudonym
// counters and the text-to-placeholder map live only here.
package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docscrub/internal/address"
	"docscrub/internal/detector"
	"docscrub/internal/logging"
)

// RecordVersion is the mapping record schema version. Changes are
// additive: new optional fields only.
const RecordVersion = 1

// Input carries the detection run facts the mapping record needs.
type Input struct {
	Text             string
	DocumentType     string
	DetectionMethods []string
}

// MappingEntity is one simple placeholder assignment.
type MappingEntity struct {
	Placeholder  string          `json:"placeholder" yaml:"placeholder"`
	Type         string          `json:"type" yaml:"type"`
	OriginalText string          `json:"original_text" yaml:"original_text"`
	Confidence   float64         `json:"confidence" yaml:"confidence"`
	Source       detector.Source `json:"source" yaml:"source"`
}

// MappingAddress is one grouped address assignment with its audit
// trail.
type MappingAddress struct {
	Placeholder      string             `json:"placeholder" yaml:"placeholder"`
	OriginalText     string             `json:"original_text" yaml:"original_text"`
	Components       address.Components `json:"components" yaml:"components"`
	Confidence       float64            `json:"confidence" yaml:"confidence"`
	PatternMatched   string             `json:"pattern_matched,omitempty" yaml:"pattern_matched,omitempty"`
	ScoringFactors   []address.Factor   `json:"scoring_factors,omitempty" yaml:"scoring_factors,omitempty"`
	FlaggedForReview bool               `json:"flagged_for_review" yaml:"flagged_for_review"`
	AutoAnonymize    bool               `json:"auto_anonymize" yaml:"auto_anonymize"`
}

// MappingRecord is the versioned audit output of one anonymization.
type MappingRecord struct {
	Version          int              `json:"version" yaml:"version"`
	DocumentType     string           `json:"document_type" yaml:"document_type"`
	DetectionMethods []string         `json:"detection_methods" yaml:"detection_methods"`
	Entities         []MappingEntity  `json:"entities" yaml:"entities"`
	Addresses        []MappingAddress `json:"addresses" yaml:"addresses"`
}

// Outcome is the anonymized text plus its mapping record.
type Outcome struct {
	SessionID string
	Text      string
	Record    MappingRecord
}

// anonymizedRange marks a span of the source text already covered by a
// placeholder. The ledger is append-only within one Apply run.
type anonymizedRange struct {
	start int
	end   int
}

// Session holds the per-document pseudonym state.
type Session struct {
	id       string
	counters map[string]int
	mapping  map[string]string
	ranges   []anonymizedRange
	logger   *logging.Logger
	used     bool
}

// New creates a session for one document.
func New(logger *logging.Logger) *Session {
	if logger == nil {
		logger = logging.Nop()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		counters: make(map[string]int),
		mapping:  make(map[string]string),
		logger:   logger.WithDocument(id),
	}
}

// ID returns the session's document id.
func (s *Session) ID() string { return s.id }

// placeholder returns the stable placeholder for (type, original),
// allocating the next per-type number on first sight.
func (s *Session) placeholder(entityType, original string) string {
	key := entityType + "\x00" + original
	if p, ok := s.mapping[key]; ok {
		return p
	}
	s.counters[entityType]++
	p := fmt.Sprintf("%s_%d", detector.PlaceholderLabel(entityType), s.counters[entityType])
	s.mapping[key] = p
	return p
}

func (s *Session) intersectsAnonymized(start, end int) bool {
	for _, r := range s.ranges {
		if start < r.end && r.start < end {
			return true
		}
	}
	return false
}

// replacement is one pending positional substitution.
type replacement struct {
	start       int
	end         int
	placeholder string
}

// Apply anonymizes the document. Grouped addresses go first with
// positional end-to-start replacement so earlier offsets stay valid;
// remaining entities follow the same positional scheme but share
// placeholders through the deduplicating pseudonym map. A final sweep
// replaces exact occurrences of pseudonymized text that carried no
// span of their own. A session can be applied once.
func (s *Session) Apply(entities []detector.Entity, addresses []address.Grouped, input Input) (*Outcome, error) {
	if s.used {
		return nil, fmt.Errorf("session %s already applied", s.id)
	}
	s.used = true

	record := MappingRecord{
		Version:          RecordVersion,
		DocumentType:     input.DocumentType,
		DetectionMethods: input.DetectionMethods,
	}

	var pending []replacement

	// Addresses in document order, so ADDRESS_1 is the first address a
	// reader encounters.
	sorted := append([]address.Grouped(nil), addresses...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for _, a := range sorted {
		if a.Start < 0 || a.End > len(input.Text) || s.intersectsAnonymized(a.Start, a.End) {
			continue
		}
		p := s.placeholder(detector.TypeAddress, a.Text)
		s.ranges = append(s.ranges, anonymizedRange{start: a.Start, end: a.End})
		pending = append(pending, replacement{start: a.Start, end: a.End, placeholder: p})
		record.Addresses = append(record.Addresses, MappingAddress{
			Placeholder:      p,
			OriginalText:     a.Text,
			Components:       a.Components,
			Confidence:       a.Confidence,
			PatternMatched:   a.PatternMatched,
			ScoringFactors:   a.Factors,
			FlaggedForReview: a.FlaggedForReview,
			AutoAnonymize:    a.AutoAnonymize,
		})
	}

	ordered := append([]detector.Entity(nil), entities...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start < ordered[j].Start })
	recorded := make(map[string]bool)
	for _, e := range ordered {
		if e.Valid(len(input.Text)) != nil || s.intersectsAnonymized(e.Start, e.End) {
			continue
		}
		p := s.placeholder(e.Type, e.Text)
		s.ranges = append(s.ranges, anonymizedRange{start: e.Start, end: e.End})
		pending = append(pending, replacement{start: e.Start, end: e.End, placeholder: p})
		if recorded[p] {
			continue
		}
		recorded[p] = true
		record.Entities = append(record.Entities, MappingEntity{
			Placeholder:  p,
			Type:         e.Type,
			OriginalText: e.Text,
			Confidence:   e.Confidence,
			Source:       e.Source,
		})
	}

	pending = append(pending, s.sweepExactText(input.Text)...)

	// End-to-start keeps every earlier offset valid while splicing.
	sort.Slice(pending, func(i, j int) bool { return pending[i].start > pending[j].start })
	text := input.Text
	for _, r := range pending {
		text = text[:r.start] + "[" + r.placeholder + "]" + text[r.end:]
	}

	s.logger.Info("document anonymized",
		zap.Int("entities", len(record.Entities)),
		zap.Int("addresses", len(record.Addresses)))

	return &Outcome{SessionID: s.id, Text: text, Record: record}, nil
}

// sweepExactText finds occurrences of already pseudonymized text that
// carried no entity span of their own, for example a duplicate whose
// detection was filtered below the confidence floor. Leaving them in
// clear next to their placeholder twin would defeat the substitution,
// so every exact occurrence outside anonymized ranges is replaced too.
// Longer originals go first so a short original never splits a longer
// one that contains it.
func (s *Session) sweepExactText(text string) []replacement {
	type mapped struct {
		original    string
		placeholder string
	}
	originals := make([]mapped, 0, len(s.mapping))
	for key, p := range s.mapping {
		original := key[strings.IndexByte(key, '\x00')+1:]
		originals = append(originals, mapped{original: original, placeholder: p})
	}
	sort.Slice(originals, func(i, j int) bool {
		if len(originals[i].original) != len(originals[j].original) {
			return len(originals[i].original) > len(originals[j].original)
		}
		return originals[i].original < originals[j].original
	})

	var extra []replacement
	for _, m := range originals {
		if m.original == "" {
			continue
		}
		for from := 0; ; {
			idx := strings.Index(text[from:], m.original)
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(m.original)
			from = end
			if s.intersectsAnonymized(start, end) {
				continue
			}
			s.ranges = append(s.ranges, anonymizedRange{start: start, end: end})
			extra = append(extra, replacement{start: start, end: end, placeholder: m.placeholder})
		}
	}
	return extra
}
