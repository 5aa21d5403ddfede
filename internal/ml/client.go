// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package ml

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"docscrub/internal/resilience"
)

// ErrUnavailable is returned when no inference backend is loaded. The
// caller falls back to rule-only detection.
var ErrUnavailable = errors.New("ml: tagger backend unavailable")

const (
	// DefaultMaxSeqLen is the model input ceiling in positions,
	// including the [CLS] and [SEP] markers.
	DefaultMaxSeqLen = 256

	// DefaultRatePerSec bounds inference calls per second so a batch
	// run cannot starve interactive requests of the shared runtime.
	DefaultRatePerSec = 20
)

// ClientConfig tunes the inference client.
type ClientConfig struct {
	MaxSeqLen  int
	RatePerSec float64
	Retry      resilience.RetryConfig
}

// DefaultClientConfig returns the settings used by the engine when no
// overrides are supplied.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		MaxSeqLen:  DefaultMaxSeqLen,
		RatePerSec: DefaultRatePerSec,
		Retry:      resilience.InferenceRetryConfig(),
	}
}

// Client turns raw text into BIO tokens. It chunks long inputs at
// word boundaries, rate limits inference, and retries transient
// backend failures.
type Client struct {
	backend TaggerBackend
	vocab   *Vocab
	limiter *rate.Limiter
	breaker *resilience.Breaker
	cfg     ClientConfig
	logger  *zap.Logger
}

// NewClient wraps a backend. A nil backend yields a client that
// reports not ready, which the pipeline treats as rule-only mode.
func NewClient(backend TaggerBackend, vocab *Vocab, cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = DefaultMaxSeqLen
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = DefaultRatePerSec
	}
	return &Client{
		backend: backend,
		vocab:   vocab,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig("ml-tagger")),
		cfg:     cfg,
		logger:  logger,
	}
}

// IsReady reports whether inference can run.
func (c *Client) IsReady() bool {
	return c.backend != nil && c.vocab != nil && c.backend.IsReady()
}

// Close releases the backend.
func (c *Client) Close() error {
	if c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

// Classify tags every word of text with a BIO label. Offsets in the
// returned tokens are byte positions into text, across chunk
// boundaries.
func (c *Client) Classify(ctx context.Context, text string) ([]Token, error) {
	if !c.IsReady() {
		return nil, ErrUnavailable
	}

	words := splitWords(text)
	if len(words) == 0 {
		return nil, nil
	}

	wordsPerChunk := c.cfg.MaxSeqLen - 2
	var tokens []Token
	for start := 0; start < len(words); start += wordsPerChunk {
		end := start + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		chunk := words[start:end]

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		input := c.vocab.Encode(chunk, c.cfg.MaxSeqLen)
		tags, err := resilience.RetryWithResult(ctx, c.cfg.Retry, func(ctx context.Context) ([][]TagScore, error) {
			var out [][]TagScore
			execErr := c.breaker.Execute(ctx, func(ctx context.Context) error {
				var e error
				out, e = c.backend.TagBatch(ctx, []*TokenizedInput{input})
				return e
			})
			return out, execErr
		})
		if err != nil {
			if c.breaker.State() == resilience.BreakerOpen {
				c.logger.Warn("inference breaker open, rule-only until cool down")
			}
			return nil, fmt.Errorf("ml: inference failed: %w", err)
		}
		if len(tags) != 1 || len(tags[0]) != len(chunk) {
			return nil, fmt.Errorf("ml: backend returned %d predictions for %d words", predictionCount(tags), len(chunk))
		}

		for i, w := range chunk {
			tokens = append(tokens, Token{
				Word:  w.Text,
				Tag:   tags[0][i].Tag,
				Score: tags[0][i].Score,
				Start: w.Start,
				End:   w.End,
			})
		}
	}

	c.logger.Debug("ml classification complete",
		zap.Int("words", len(words)),
		zap.Int("chunks", (len(words)+wordsPerChunk-1)/wordsPerChunk))
	return tokens, nil
}

func predictionCount(tags [][]TagScore) int {
	n := 0
	for _, t := range tags {
		n += len(t)
	}
	return n
}
