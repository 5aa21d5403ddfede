// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"docscrub/internal/address"
	"docscrub/internal/consolidate"
	"docscrub/internal/contextual"
	"docscrub/internal/denylist"
	"docscrub/internal/detector"
	"docscrub/internal/logging"
	"docscrub/internal/ml"
	"docscrub/internal/recognizers"
	"docscrub/internal/validators/dateval"
	"docscrub/internal/validators/email"
	"docscrub/internal/validators/iban"
	"docscrub/internal/validators/phone"
	"docscrub/internal/validators/postalcode"
)

// Canonical pass names, in execution order.
const (
	PassNormalize   = "normalize"
	PassRecognize   = "recognize"
	PassDenyList    = "denylist"
	PassValidate    = "validate"
	PassContext     = "context"
	PassDocType     = "doctype"
	PassAddress     = "address"
	PassConsolidate = "consolidate"
)

// normalizePass checks input and unifies line endings. It is the only
// pass whose failure aborts the run: every later pass does span
// arithmetic on its output.
type normalizePass struct{}

func (normalizePass) Name() string { return PassNormalize }

func (normalizePass) Run(_ context.Context, pctx *Context) (PassMetadata, error) {
	if err := detector.CheckInput(pctx.Text); err != nil {
		return PassMetadata{Pass: PassNormalize}, err
	}
	pctx.Text = strings.ReplaceAll(pctx.Text, "\r\n", "\n")
	pctx.Text = strings.ReplaceAll(pctx.Text, "\r", "\n")
	return PassMetadata{Pass: PassNormalize}, nil
}

// recognizePass runs the rule registry and, when a classifier is
// available, ML token classification. Entities found by both sources
// on the same span and type fuse into one BOTH-source entity.
type recognizePass struct {
	registry   *recognizers.Registry
	classifier ml.TokenClassifier
	isDenied   func(text, entityType string) bool
	logger     *logging.Logger
}

func (recognizePass) Name() string { return PassRecognize }

func (p recognizePass) Run(ctx context.Context, pctx *Context) (PassMetadata, error) {
	meta := PassMetadata{Pass: PassRecognize}

	result := p.registry.Analyze(pctx.Text, pctx.Language, pctx.Country, p.isDenied)
	for _, recErr := range result.Errors {
		p.logger.Warn("recognizer failed",
			zap.String("recognizer", recErr.Recognizer),
			zap.String("type", recErr.Type),
			zap.Error(recErr.Err))
	}
	entities := result.Entities

	if p.classifier != nil && p.classifier.IsReady() {
		tokens, err := p.classifier.Classify(ctx, pctx.Text)
		if err != nil {
			pctx.Degraded = true
			p.logger.Warn("ml classification failed, continuing rule-only", zap.Error(err))
		} else {
			entities = fuseSources(entities, ml.MergeSubwordTokens(pctx.Text, tokens))
		}
	}

	pctx.Entities = entities
	meta.Added = len(entities)
	return meta, nil
}

// fuseSources combines rule and ML entities. An identical span+type
// pair becomes one entity with source BOTH and the higher confidence.
func fuseSources(rule, mlEntities []detector.Entity) []detector.Entity {
	out := append([]detector.Entity(nil), rule...)
	for _, m := range mlEntities {
		fused := false
		for i, r := range out {
			if r.Start == m.Start && r.End == m.End && r.Type == m.Type {
				conf := r.Confidence
				if m.Confidence > conf {
					conf = m.Confidence
				}
				out[i] = r.WithConfidence(conf).WithSource(detector.SourceBoth)
				fused = true
				break
			}
		}
		if !fused {
			out = append(out, m)
		}
	}
	return out
}

// denyPass drops entities matching the deny list for their type and
// the run's language.
type denyPass struct {
	list *denylist.List
}

func (denyPass) Name() string { return PassDenyList }

func (p denyPass) Run(_ context.Context, pctx *Context) (PassMetadata, error) {
	meta := PassMetadata{Pass: PassDenyList}
	kept := pctx.Entities[:0]
	for _, e := range pctx.Entities {
		if p.list.IsDenied(e.Text, e.Type, pctx.Language) {
			meta.Filtered++
			continue
		}
		kept = append(kept, e)
	}
	pctx.Entities = kept
	return meta, nil
}

// typeValidators re-checks entities that did not pass through a
// recognizer's own validator, which is the ML and manual path.
var typeValidators = map[string]detector.ValidateFunc{
	detector.TypeIBAN:       iban.Validate,
	detector.TypeEmail:      email.Validate,
	detector.TypePhone:      phone.Validate,
	detector.TypeDate:       dateval.Validate,
	detector.TypePostalCode: postalcode.Validate,
}

// validatePass applies format/checksum validators to ML-sourced
// entities. Rule entities were already validated inside the registry;
// manual entities are trusted at confidence 1.0.
type validatePass struct{}

func (validatePass) Name() string { return PassValidate }

func (validatePass) Run(_ context.Context, pctx *Context) (PassMetadata, error) {
	meta := PassMetadata{Pass: PassValidate}
	kept := pctx.Entities[:0]
	for _, e := range pctx.Entities {
		if e.Source != detector.SourceML {
			kept = append(kept, e)
			continue
		}
		validate, ok := typeValidators[e.Type]
		if !ok {
			kept = append(kept, e)
			continue
		}
		result := validate(e.Text)
		if !result.Valid {
			meta.Filtered++
			continue
		}
		kept = append(kept, e.WithConfidence(result.Confidence))
	}
	pctx.Entities = kept
	return meta, nil
}

// contextPass adjusts confidence from lexical cues around each entity
// and applies caller-supplied region hints. Cues declared by the
// recognizer that produced an entity join the scan, and a recognizer
// that opted out of global context keeps only its own cues.
type contextPass struct {
	enhancer *contextual.Enhancer
	registry *recognizers.Registry
}

func (contextPass) Name() string { return PassContext }

func (p contextPass) Run(_ context.Context, pctx *Context) (PassMetadata, error) {
	meta := PassMetadata{Pass: PassContext}
	for i, e := range pctx.Entities {
		cues := contextual.Cues{Runtime: pctx.ExtraWords}
		if e.Recognizer != "" && p.registry != nil {
			if r := p.registry.Lookup(e.Type, e.Recognizer); r != nil {
				cues.Recognizer = r.ContextWords
				cues.SkipShared = !r.UseGlobalContext
			}
		}
		result := p.enhancer.EnhanceWithCues(pctx.Text, e, pctx.Language, cues)
		pctx.Entities[i] = result.Entity
		if result.Boosted {
			meta.Boosted++
		}
	}

	adjusted, boosted := contextual.ApplyHints(pctx.Entities, pctx.Hints)
	pctx.Entities = adjusted
	meta.Boosted += boosted
	return meta, nil
}

// docTypeAdjustments shift per-type confidence for known document
// kinds: invoices are dense with financial identifiers and table
// headers that masquerade as names, letters lead with people and
// addresses.
var docTypeAdjustments = map[string]map[string]float64{
	"INVOICE": {
		detector.TypeIBAN:       +0.05,
		detector.TypeVATNumber:  +0.05,
		detector.TypePersonName: -0.05,
	},
	"LETTER": {
		detector.TypePersonName: +0.05,
		detector.TypeStreetName: +0.05,
	},
	"CONTRACT": {
		detector.TypePersonName:   +0.05,
		detector.TypeOrganization: +0.05,
	},
}

// docTypePass applies document-type confidence adjustments, then drops
// entities under the document type's minimum confidence.
type docTypePass struct {
	minConfidence func(docType string) float64
}

func (docTypePass) Name() string { return PassDocType }

func (p docTypePass) Run(_ context.Context, pctx *Context) (PassMetadata, error) {
	meta := PassMetadata{Pass: PassDocType}
	adjustments := docTypeAdjustments[pctx.DocumentType]
	threshold := p.minConfidence(pctx.DocumentType)

	kept := pctx.Entities[:0]
	for _, e := range pctx.Entities {
		if delta, ok := adjustments[e.Type]; ok {
			e = e.WithConfidence(e.Confidence + delta)
			if delta > 0 {
				meta.Boosted++
			}
		}
		if e.Source != detector.SourceManual && e.Confidence < threshold {
			meta.Filtered++
			continue
		}
		kept = append(kept, e)
	}
	pctx.Entities = kept
	return meta, nil
}

// addressPass groups address components and scores the groups.
type addressPass struct {
	scorer *address.Scorer
}

func (addressPass) Name() string { return PassAddress }

func (p addressPass) Run(_ context.Context, pctx *Context) (PassMetadata, error) {
	meta := PassMetadata{Pass: PassAddress}
	groups := address.Group(pctx.Text, pctx.Entities)
	for i := range groups {
		p.scorer.Score(&groups[i], len(pctx.Text))
	}
	pctx.Addresses = groups
	meta.Added = len(groups)
	return meta, nil
}

// consolidatePass resolves overlaps into the final entity set.
type consolidatePass struct{}

func (consolidatePass) Name() string { return PassConsolidate }

func (consolidatePass) Run(_ context.Context, pctx *Context) (PassMetadata, error) {
	before := len(pctx.Entities)
	pctx.Entities = consolidate.Consolidate(pctx.Entities, pctx.Addresses)
	return PassMetadata{Pass: PassConsolidate, Filtered: before - len(pctx.Entities)}, nil
}
