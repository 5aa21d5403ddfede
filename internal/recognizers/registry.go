// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package recognizers

import (
	"fmt"
	"sort"
	"sync"

	"docscrub/internal/detector"
)

// Registry holds recognizers grouped by entity type. Once frozen it is
// immutable and safe to share across concurrent pipeline runs.
type Registry struct {
	mu     sync.RWMutex
	byType map[string][]*Recognizer
	frozen bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string][]*Recognizer)}
}

// ErrFrozen is returned when mutating a frozen registry.
var ErrFrozen = fmt.Errorf("recognizer registry is frozen")

// Register inserts a recognizer. Insertion is idempotent per name within a
// type: re-registering an existing name replaces the entry only when the
// newcomer outranks it (higher priority, then higher specificity).
func (reg *Registry) Register(r *Recognizer) error {
	if r == nil || r.Name == "" || r.Type == "" {
		return fmt.Errorf("recognizer needs a name and a type")
	}
	if len(r.Patterns) == 0 {
		return fmt.Errorf("recognizer %s: no patterns", r.Name)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.frozen {
		return ErrFrozen
	}

	bucket := reg.byType[r.Type]
	for i, existing := range bucket {
		if existing.Name != r.Name {
			continue
		}
		if r.outranks(existing) {
			bucket[i] = r
		}
		return nil // idempotent: the higher-ranked entry stays
	}

	reg.byType[r.Type] = append(bucket, r)
	return nil
}

// Freeze forbids further mutation. Analyze may be called concurrently
// afterwards without locking overhead on the hot path.
func (reg *Registry) Freeze() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.frozen = true

	// Deterministic execution order: priority desc, specificity desc,
	// name asc.
	for _, bucket := range reg.byType {
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].Priority != bucket[j].Priority {
				return bucket[i].Priority > bucket[j].Priority
			}
			if bucket[i].Specificity != bucket[j].Specificity {
				return bucket[i].Specificity > bucket[j].Specificity
			}
			return bucket[i].Name < bucket[j].Name
		})
	}
}

// Reset drops every recognizer and unfreezes the registry. Test isolation
// only; production code builds a fresh registry instead.
func (reg *Registry) Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byType = make(map[string][]*Recognizer)
	reg.frozen = false
}

// Lookup returns the recognizer registered under name for entityType,
// or nil. The context pass uses it to recover the declared cues of the
// recognizer that produced an entity.
func (reg *Registry) Lookup(entityType, name string) *Recognizer {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	for _, r := range reg.byType[entityType] {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Len returns the number of registered recognizers.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	n := 0
	for _, bucket := range reg.byType {
		n += len(bucket)
	}
	return n
}

// RecognizerError records one isolated per-recognizer failure.
type RecognizerError struct {
	Recognizer string
	Type       string
	Err        error
}

func (e RecognizerError) Error() string {
	return fmt.Sprintf("recognizer %s (%s): %v", e.Recognizer, e.Type, e.Err)
}

// AnalyzeResult is the outcome of one registry run.
type AnalyzeResult struct {
	Entities []detector.Entity
	// Rejected counts matches dropped by validators, keyed by reason.
	Rejected map[string]int
	// Errors holds isolated per-recognizer failures; they never abort
	// the batch.
	Errors []RecognizerError
}

// Analyze executes every recognizer whose language/country filters match,
// applying deny patterns and validators. A panic inside one recognizer's
// patterns is caught and recorded; remaining recognizers still run.
// isDenied consults the shared deny list and may be nil.
func (reg *Registry) Analyze(text, language, country string, isDenied func(text, entityType string) bool) AnalyzeResult {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	result := AnalyzeResult{Rejected: make(map[string]int)}

	types := make([]string, 0, len(reg.byType))
	for t := range reg.byType {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		for _, r := range reg.byType[t] {
			if !r.supportsLanguage(language) || !r.supportsCountry(country) {
				continue
			}
			entities, err := runRecognizer(r, text, isDenied, result.Rejected)
			if err != nil {
				result.Errors = append(result.Errors, RecognizerError{Recognizer: r.Name, Type: r.Type, Err: err})
				continue
			}
			result.Entities = append(result.Entities, entities...)
		}
	}

	result.Entities = resolveTypeClaims(reg.byType, result.Entities)
	return result
}

// runRecognizer executes one recognizer with panic isolation.
func runRecognizer(r *Recognizer, text string, isDenied func(string, string) bool, rejected map[string]int) (entities []detector.Entity, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			entities = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	for _, pattern := range r.Patterns {
		// When a pattern declares a capture group, the group is the
		// entity and the rest is anchoring context (salutation words,
		// the street name in front of a house number).
		group := 0
		if pattern.NumSubexp() > 0 {
			group = 1
		}
		for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*group], loc[2*group+1]
			if start < 0 || end <= start {
				continue
			}
			match := text[start:end]

			if r.denies(match) {
				rejected["deny_pattern"]++
				continue
			}
			if r.UseGlobalDenyList && isDenied != nil && isDenied(match, r.Type) {
				rejected["deny_list"]++
				continue
			}

			confidence := r.BaseConfidence
			metadata := map[string]any{}
			if r.Validate != nil {
				vr := r.Validate(match)
				if !vr.Valid && r.TrimMatch != nil {
					if prefix, ok := r.TrimMatch(match); ok {
						if pvr := r.Validate(prefix); pvr.Valid {
							match, end, vr = prefix, start+len(prefix), pvr
						}
					}
				}
				if !vr.Valid {
					rejected[rejectKey(vr.Reason)]++
					continue
				}
				confidence = vr.Confidence
			}

			entities = append(entities, detector.Entity{
				Text:       match,
				Type:       r.Type,
				Start:      start,
				End:        end,
				Confidence: confidence,
				Source:     detector.SourceRule,
				Recognizer: r.Name,
				Metadata:   metadata,
			})
		}
	}
	return entities, nil
}

func rejectKey(reason string) string {
	if reason == "" {
		return "validation_failed"
	}
	return reason
}

// resolveTypeClaims drops, per type, the lower-ranked entity when two
// recognizers of the same type claim overlapping spans.
func resolveTypeClaims(byType map[string][]*Recognizer, entities []detector.Entity) []detector.Entity {
	rank := make(map[string]*Recognizer)
	for _, bucket := range byType {
		for _, r := range bucket {
			rank[r.Name] = r
		}
	}

	kept := make([]detector.Entity, 0, len(entities))
	for _, candidate := range entities {
		winner := true
		for _, other := range entities {
			if candidate.Type != other.Type || candidate.Recognizer == other.Recognizer {
				continue
			}
			if !candidate.Overlaps(other) {
				continue
			}
			rc, ro := rank[candidate.Recognizer], rank[other.Recognizer]
			if rc != nil && ro != nil && ro.outranks(rc) {
				winner = false
				break
			}
		}
		if winner {
			kept = append(kept, candidate)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	return kept
}
