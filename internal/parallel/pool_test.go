// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/internal/detector"
	"docscrub/internal/pipeline"
)

func testEngine() *pipeline.Engine {
	return pipeline.New(pipeline.Config{})
}

func detectOptions() pipeline.Options {
	opts := pipeline.DefaultOptions()
	opts.Language = detector.LangFR
	return opts
}

func TestProcessBatchReturnsEveryDocument(t *testing.T) {
	pool := NewPool(testEngine(), 4, nil)

	jobs := make([]*Job, 0, 12)
	for i := 0; i < 12; i++ {
		jobs = append(jobs, &Job{
			ID:      fmt.Sprintf("doc-%d", i),
			Text:    fmt.Sprintf("Facture %d, IBAN CH93 0076 2011 6238 5295 7.", i),
			Options: detectOptions(),
		})
	}

	results := pool.Process(jobs)
	require.Len(t, results, 12)

	for _, job := range jobs {
		result, ok := results[job.ID]
		require.True(t, ok, "missing result for %s", job.ID)
		require.NoError(t, result.Error)
		require.NotNil(t, result.Detection)

		found := false
		for _, e := range result.Detection.Entities {
			if e.Type == detector.TypeIBAN {
				found = true
			}
		}
		assert.True(t, found, "IBAN missing in %s", job.ID)
	}
}

func TestProcessAnonymizesPerDocumentSessions(t *testing.T) {
	pool := NewPool(testEngine(), 2, nil)

	jobs := []*Job{
		{ID: "a", Text: "Madame Claire Fontaine, merci.", Options: detectOptions(), Anonymize: true},
		{ID: "b", Text: "Monsieur Jean Dupont, merci.", Options: detectOptions(), Anonymize: true},
	}

	results := pool.Process(jobs)
	require.Len(t, results, 2)

	ids := map[string]bool{}
	for id, result := range results {
		require.NoError(t, result.Error, id)
		require.NotNil(t, result.Outcome, id)
		// Sessions are per document: both restart numbering at _1.
		assert.Contains(t, result.Outcome.Text, "[PER_1]", id)
		ids[result.Outcome.SessionID] = true
	}
	assert.Len(t, ids, 2, "session ids must differ per document")
}

func TestProcessGeneratesJobIDs(t *testing.T) {
	pool := NewPool(testEngine(), 1, nil)

	results := pool.Process([]*Job{{Text: "Merci.", Options: detectOptions()}})
	require.Len(t, results, 1)
	for id := range results {
		assert.NotEmpty(t, id)
	}
}

func TestProcessIsolatesDocumentErrors(t *testing.T) {
	pool := NewPool(testEngine(), 2, nil)

	oversize := strings.Repeat("a", detector.MaxInputBytes+1)
	jobs := []*Job{
		{ID: "bad", Text: oversize, Options: detectOptions()},
		{ID: "good", Text: "Monsieur Jean Dupont, merci.", Options: detectOptions()},
	}

	results := pool.Process(jobs)
	require.Len(t, results, 2)

	require.Error(t, results["bad"].Error)
	var inputErr *detector.InputError
	assert.ErrorAs(t, results["bad"].Error, &inputErr)

	require.NoError(t, results["good"].Error)
	assert.NotNil(t, results["good"].Detection)
}

func TestPoolClampsWorkerCount(t *testing.T) {
	pool := NewPool(testEngine(), 0, nil)
	results := pool.Process([]*Job{{ID: "x", Text: "Merci.", Options: detectOptions()}})
	require.Len(t, results, 1)
	assert.NoError(t, results["x"].Error)
}
