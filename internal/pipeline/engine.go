// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"docscrub/internal/address"
	"docscrub/internal/contextual"
	"docscrub/internal/denylist"
	"docscrub/internal/detector"
	"docscrub/internal/logging"
	"docscrub/internal/ml"
	"docscrub/internal/observability"
	"docscrub/internal/recognizers"
	"docscrub/internal/session"
)

// MinConfidenceUnknown is the confidence floor for documents without a
// type hint. The source history carried both 0.4 and a deployed 0.25;
// 0.4 is the documented choice here.
const MinConfidenceUnknown = 0.40

// Options are per-call detection settings.
type Options struct {
	Language     string
	Country      string
	DocumentType string

	// Hints and ExtraContextWords are runtime context from the caller,
	// e.g. column-type declarations for tabular data.
	Hints             []contextual.RegionHint
	ExtraContextWords []contextual.Word

	// EnableDenyList and EnableContext gate the respective passes for
	// A/B comparison. Pass order never changes.
	EnableDenyList bool
	EnableContext  bool

	// Manual entities come from a reviewer and are treated like
	// detected ones, at source MANUAL and confidence 1.0.
	Manual []detector.Entity

	// SourceMap is opaque converter-supplied position data for mapping
	// normalized offsets back to original file coordinates. The engine
	// echoes it on the result untouched.
	SourceMap any
}

// DefaultOptions returns the options used when callers pass the zero
// value for a field.
func DefaultOptions() Options {
	return Options{
		Language:       detector.LangEN,
		Country:        detector.CountryCH,
		DocumentType:   detector.DocTypeUnknown,
		EnableDenyList: true,
		EnableContext:  true,
	}
}

// Result is the outcome of one detection run. Text is the normalized
// document all entity offsets refer to.
type Result struct {
	Text      string
	Entities  []detector.Entity
	Addresses []address.Grouped
	Metadata  []PassMetadata
	Timings   []observability.PassTiming
	Degraded  bool
	SourceMap any
}

// Config assembles an engine. Zero-value fields fall back to the
// embedded defaults.
type Config struct {
	Registry      *recognizers.Registry
	DenyList      *denylist.List
	Enhancer      *contextual.Enhancer
	Classifier    ml.TokenClassifier
	Scorer        *address.Scorer
	Logger        *logging.Logger
	ObserverLevel observability.Level

	// MinConfidence maps a document type to its confidence floor.
	MinConfidence map[string]float64
}

// Engine runs the detection pipeline. It is immutable after New and
// safe for concurrent document runs: all per-document state lives in
// the pipeline Context and Session.
type Engine struct {
	registry      *recognizers.Registry
	deny          *denylist.List
	enhancer      *contextual.Enhancer
	classifier    ml.TokenClassifier
	scorer        *address.Scorer
	logger        *logging.Logger
	observerLevel observability.Level
	minConfidence map[string]float64
}

// New builds an engine from cfg.
func New(cfg Config) *Engine {
	if cfg.Registry == nil {
		cfg.Registry = recognizers.DefaultRegistry()
	}
	if cfg.DenyList == nil {
		cfg.DenyList = denylist.Default()
	}
	if cfg.Enhancer == nil {
		cfg.Enhancer = contextual.NewEnhancer()
	}
	if cfg.Scorer == nil {
		cfg.Scorer = address.NewScorer()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.ObserverLevel == 0 {
		cfg.ObserverLevel = observability.LevelMetrics
	}
	return &Engine{
		registry:      cfg.Registry,
		deny:          cfg.DenyList,
		enhancer:      cfg.Enhancer,
		classifier:    cfg.Classifier,
		scorer:        cfg.Scorer,
		logger:        cfg.Logger.WithComponent("engine"),
		observerLevel: cfg.ObserverLevel,
		minConfidence: cfg.MinConfidence,
	}
}

func (e *Engine) threshold(docType string) float64 {
	if t, ok := e.minConfidence[docType]; ok {
		return t
	}
	return MinConfidenceUnknown
}

// passes assembles the fixed pass sequence for one run.
func (e *Engine) passes(opts Options) []Pass {
	var isDenied func(text, entityType string) bool
	if opts.EnableDenyList {
		deny := e.deny
		lang := opts.Language
		isDenied = func(text, entityType string) bool {
			return deny.IsDenied(text, entityType, lang)
		}
	}

	list := []Pass{
		normalizePass{},
		recognizePass{
			registry:   e.registry,
			classifier: e.classifier,
			isDenied:   isDenied,
			logger:     e.logger,
		},
	}
	if opts.EnableDenyList {
		list = append(list, denyPass{list: e.deny})
	}
	list = append(list, validatePass{})
	if opts.EnableContext {
		list = append(list, contextPass{enhancer: e.enhancer, registry: e.registry})
	}
	list = append(list,
		docTypePass{minConfidence: e.threshold},
		addressPass{scorer: e.scorer},
		consolidatePass{},
	)
	return list
}

// Detect runs the full pipeline over text and returns the final entity
// set with per-pass metadata. A failing pass other than normalize is
// isolated: its contribution is discarded and the run continues.
func (e *Engine) Detect(ctx context.Context, text string, opts Options) (*Result, error) {
	pctx := &Context{
		Text:         text,
		Language:     opts.Language,
		Country:      opts.Country,
		DocumentType: opts.DocumentType,
		Hints:        opts.Hints,
		ExtraWords:   opts.ExtraContextWords,
	}
	if pctx.Language == "" {
		pctx.Language = detector.LangEN
	}
	if pctx.DocumentType == "" {
		pctx.DocumentType = detector.DocTypeUnknown
	}

	observer := observability.NewObserver(e.observerLevel, e.logger)

	for _, pass := range e.passes(opts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		done := observer.StartPass(pass.Name(), len(pctx.Entities))
		meta, err := e.runIsolated(ctx, pass, pctx)
		done(err == nil, len(pctx.Entities))

		if err != nil {
			if pass.Name() == PassNormalize {
				return nil, err
			}
			meta.Failed = true
			meta.Reason = err.Error()
			e.logger.Warn("pass failed, continuing",
				zap.String("pass", pass.Name()),
				zap.Error(err))
		}
		pctx.Metadata = append(pctx.Metadata, meta)
	}

	// Manual corrections join after detection so no pass can filter
	// them; consolidation rules still apply against overlaps.
	if len(opts.Manual) > 0 {
		pctx.Entities = mergeManual(pctx.Entities, opts.Manual)
	}

	return &Result{
		Text:      pctx.Text,
		Entities:  pctx.Entities,
		Addresses: pctx.Addresses,
		Metadata:  pctx.Metadata,
		Timings:   observer.Timings(),
		Degraded:  pctx.Degraded,
		SourceMap: opts.SourceMap,
	}, nil
}

// runIsolated executes one pass, converting a panic into an error and
// restoring the entity list the pass saw on entry.
func (e *Engine) runIsolated(ctx context.Context, pass Pass, pctx *Context) (meta PassMetadata, err error) {
	snapshot := append([]detector.Entity(nil), pctx.Entities...)
	defer func() {
		if r := recover(); r != nil {
			pctx.Entities = snapshot
			meta = PassMetadata{Pass: pass.Name()}
			err = fmt.Errorf("pass panicked: %v", r)
		}
	}()
	meta, err = pass.Run(ctx, pctx)
	if err != nil {
		pctx.Entities = snapshot
	}
	return meta, err
}

// mergeManual inserts reviewer-supplied entities at confidence 1.0,
// dropping detected entities they overlap.
func mergeManual(entities, manual []detector.Entity) []detector.Entity {
	out := entities[:0]
	for _, e := range entities {
		overlapped := false
		for _, m := range manual {
			if e.Overlaps(m) {
				overlapped = true
				break
			}
		}
		if !overlapped {
			out = append(out, e)
		}
	}
	for _, m := range manual {
		m.Source = detector.SourceManual
		m.Confidence = 1.0
		out = append(out, m)
	}
	return sortByStart(out)
}

func sortByStart(entities []detector.Entity) []detector.Entity {
	for i := 1; i < len(entities); i++ {
		for j := i; j > 0 && entities[j].Start < entities[j-1].Start; j-- {
			entities[j], entities[j-1] = entities[j-1], entities[j]
		}
	}
	return entities
}

// Anonymize runs Detect and replaces the final entities with stable
// placeholders inside a fresh per-document session.
func (e *Engine) Anonymize(ctx context.Context, text string, opts Options) (*session.Outcome, error) {
	result, err := e.Detect(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	return e.ApplySession(result, opts)
}

// ApplySession anonymizes an existing detection result. Callers that
// need both the detection details and the anonymized text use this to
// avoid running the pipeline twice.
func (e *Engine) ApplySession(result *Result, opts Options) (*session.Outcome, error) {
	sess := session.New(e.logger)
	return sess.Apply(result.Entities, result.Addresses, sessionInput(result, opts))
}

// sessionInput carries the detection run facts the mapping record
// needs. Offsets in the final entities refer to result.Text.
func sessionInput(result *Result, opts Options) session.Input {
	methods := make([]string, 0, len(result.Metadata))
	for _, m := range result.Metadata {
		if !m.Failed {
			methods = append(methods, m.Pass)
		}
	}
	docType := opts.DocumentType
	if docType == "" {
		docType = detector.DocTypeUnknown
	}
	return session.Input{
		Text:             result.Text,
		DocumentType:     docType,
		DetectionMethods: methods,
	}
}
