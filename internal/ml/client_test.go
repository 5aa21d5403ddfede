// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docscrub/internal/resilience"
)

type fakeBackend struct {
	tagFor   map[string]string
	failures int
	calls    int
	closed   bool
}

func (f *fakeBackend) TagBatch(ctx context.Context, batch []*TokenizedInput) ([][]TagScore, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, resilience.NewTransientError("runtime busy", nil)
	}
	out := make([][]TagScore, len(batch))
	for i, in := range batch {
		tags := make([]TagScore, len(in.Words))
		for j, w := range in.Words {
			tag := "O"
			if t, ok := f.tagFor[w.Text]; ok {
				tag = t
			}
			tags[j] = TagScore{Tag: tag, Score: 0.9}
		}
		out[i] = tags
	}
	return out, nil
}

func (f *fakeBackend) IsReady() bool { return true }
func (f *fakeBackend) Close() error  { f.closed = true; return nil }

func testVocab() *Vocab {
	return &Vocab{
		ids: map[string]int{tokenPad: 0, tokenUnk: 1, tokenCls: 2, tokenSep: 3},
		pad: 0, unk: 1, cls: 2, sep: 3,
	}
}

func fastRetry() resilience.RetryConfig {
	cfg := resilience.InferenceRetryConfig()
	cfg.InitialInterval = 0
	cfg.MaxInterval = 0
	return cfg
}

func TestClientClassifyMapsWordsToTokens(t *testing.T) {
	backend := &fakeBackend{tagFor: map[string]string{"Hans": "B-PER", "Müller": "I-PER"}}
	client := NewClient(backend, testVocab(), ClientConfig{Retry: fastRetry()}, zap.NewNop())

	tokens, err := client.Classify(context.Background(), "Hallo Hans Müller")
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	assert.Equal(t, "O", tokens[0].Tag)
	assert.Equal(t, "B-PER", tokens[1].Tag)
	assert.Equal(t, "I-PER", tokens[2].Tag)
	assert.Equal(t, 6, tokens[1].Start)
	assert.Equal(t, "Müller", tokens[2].Word)
}

func TestClientClassifyChunksLongInput(t *testing.T) {
	backend := &fakeBackend{}
	// MaxSeqLen 6 leaves room for 4 words per chunk.
	client := NewClient(backend, testVocab(), ClientConfig{MaxSeqLen: 6, Retry: fastRetry()}, zap.NewNop())

	text := "eins zwei drei vier fünf sechs sieben acht neun"
	tokens, err := client.Classify(context.Background(), text)
	require.NoError(t, err)
	assert.Len(t, tokens, 9)
	assert.Equal(t, 3, backend.calls)

	// Offsets stay relative to the full text across chunks.
	last := tokens[len(tokens)-1]
	assert.Equal(t, "neun", last.Word)
	assert.Equal(t, text[last.Start:last.End], "neun")
}

func TestClientClassifyRetriesTransientFailures(t *testing.T) {
	backend := &fakeBackend{failures: 2, tagFor: map[string]string{"Hans": "B-PER"}}
	client := NewClient(backend, testVocab(), ClientConfig{Retry: fastRetry()}, zap.NewNop())

	tokens, err := client.Classify(context.Background(), "Hans")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "B-PER", tokens[0].Tag)
	assert.Equal(t, 3, backend.calls)
}

func TestClientUnavailableWithoutBackend(t *testing.T) {
	client := NewClient(nil, testVocab(), DefaultClientConfig(), zap.NewNop())
	assert.False(t, client.IsReady())

	_, err := client.Classify(context.Background(), "Hans")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientClassifyEmptyText(t *testing.T) {
	backend := &fakeBackend{}
	client := NewClient(backend, testVocab(), ClientConfig{Retry: fastRetry()}, zap.NewNop())

	tokens, err := client.Classify(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, tokens)
	assert.Zero(t, backend.calls)
}

func TestClientCloseReleasesBackend(t *testing.T) {
	backend := &fakeBackend{}
	client := NewClient(backend, testVocab(), ClientConfig{Retry: fastRetry()}, zap.NewNop())
	require.NoError(t, client.Close())
	assert.True(t, backend.closed)
}

func TestSplitWordsOffsetsAndPunctuation(t *testing.T) {
	words := splitWords("Rue de Lausanne 12, 1000 Lausanne")
	var texts []string
	for _, w := range words {
		texts = append(texts, w.Text)
	}
	assert.Equal(t, []string{"Rue", "de", "Lausanne", "12", ",", "1000", "Lausanne"}, texts)
	for _, w := range words {
		assert.Equal(t, w.Text, "Rue de Lausanne 12, 1000 Lausanne"[w.Start:w.End])
	}
}

func TestVocabEncodeTruncatesAndPads(t *testing.T) {
	v := testVocab()
	words := splitWords("a b c d e")
	in := v.Encode(words, 4)
	assert.Len(t, in.InputIDs, 4)
	assert.Len(t, in.Words, 2)
	assert.Equal(t, v.cls, in.InputIDs[0])
	assert.Equal(t, v.sep, in.InputIDs[3])
	assert.Equal(t, []int{1, 1, 1, 1}, in.AttentionMask)
}
