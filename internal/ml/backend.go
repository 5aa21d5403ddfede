// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ml

import "context"

// TagScore is a per-word BIO prediction.
type TagScore struct {
	Tag   string
	Score float64
}

// TaggerBackend runs token classification over encoded batches. One
// TagScore slice is returned per input, aligned with its Words.
type TaggerBackend interface {
	TagBatch(ctx context.Context, batch []*TokenizedInput) ([][]TagScore, error)
	IsReady() bool
	Close() error
}

// defaultLabels is the output label order of the bundled multilingual
// NER model.
var defaultLabels = []string{
	"O",
	"B-PER", "I-PER",
	"B-ORG", "I-ORG",
	"B-LOC", "I-LOC",
	"B-DATE", "I-DATE",
}
