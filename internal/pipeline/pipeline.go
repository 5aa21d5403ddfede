// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline orchestrates the detection passes: normalize,
// recognize (rule and ML), deny-list filter, validate, context score,
// document-type rules, address grouping and consolidation, in that
// fixed order over a shared per-document context.
package pipeline

import (
	"context"

	"docscrub/internal/address"
	"docscrub/internal/contextual"
	"docscrub/internal/detector"
)

// Context is the mutable state threaded through one document's pipeline
// run. It is owned by a single run and never shared.
type Context struct {
	Text         string
	Language     string
	Country      string
	DocumentType string

	Entities  []detector.Entity
	Addresses []address.Grouped

	// Hints and ExtraWords are caller-supplied runtime context.
	Hints      []contextual.RegionHint
	ExtraWords []contextual.Word

	// Degraded is set when ML inference failed and detection fell back
	// to rules only.
	Degraded bool

	Metadata []PassMetadata
}

// PassMetadata is the per-pass outcome surfaced to callers.
type PassMetadata struct {
	Pass     string `json:"pass"`
	Filtered int    `json:"filtered,omitempty"`
	Boosted  int    `json:"boosted,omitempty"`
	Added    int    `json:"added,omitempty"`
	Failed   bool   `json:"failed,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Pass is one pipeline stage. Run mutates pctx and reports counts. An
// error is isolated by the orchestrator: the pass's contribution is
// discarded and the pipeline continues, except for the normalize pass.
type Pass interface {
	Name() string
	Run(ctx context.Context, pctx *Context) (PassMetadata, error)
}
