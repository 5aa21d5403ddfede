// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel runs batches of documents through the detection
// engine on a fixed worker pool. Every document gets its own pipeline
// run and, when anonymizing, its own session, so placeholder numbering
// never leaks across documents.
package parallel

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docscrub/internal/logging"
	"docscrub/internal/pipeline"
	"docscrub/internal/session"
)

// DefaultDocumentTimeout bounds a single document run.
const DefaultDocumentTimeout = 2 * time.Minute

// Job is one document to process.
type Job struct {
	// ID identifies the document in results. Empty gets a generated id.
	ID      string
	Text    string
	Options pipeline.Options

	// Anonymize additionally applies placeholders in a fresh session.
	Anonymize bool
}

// Result is the outcome for one document. Exactly one of Detection and
// Outcome is set on success, depending on Job.Anonymize.
type Result struct {
	JobID     string
	Detection *pipeline.Result
	Outcome   *session.Outcome
	Error     error
	Duration  time.Duration
}

// Pool is a fixed-size worker pool over one shared engine. The engine is
// immutable and safe to share; all per-document state lives in the job.
type Pool struct {
	workers int
	timeout time.Duration
	engine  *pipeline.Engine
	logger  *logging.Logger

	jobs    chan *Job
	results chan *Result
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// Option tweaks pool construction.
type Option func(*Pool)

// WithDocumentTimeout overrides the per-document deadline.
func WithDocumentTimeout(d time.Duration) Option {
	return func(p *Pool) { p.timeout = d }
}

// NewPool creates a pool of workers over engine.
func NewPool(engine *pipeline.Engine, workers int, logger *logging.Logger, opts ...Option) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		workers: workers,
		timeout: DefaultDocumentTimeout,
		engine:  engine,
		logger:  logger.WithComponent("parallel"),
		jobs:    make(chan *Job, workers*2),
		results: make(chan *Result, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a job. It blocks when the queue is full and returns
// early if the pool was stopped.
func (p *Pool) Submit(job *Job) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	select {
	case p.jobs <- job:
	case <-p.ctx.Done():
	}
}

// Results returns the result channel. It is closed by Stop after the
// last in-flight job finished.
func (p *Pool) Results() <-chan *Result {
	return p.results
}

// Stop closes intake, waits for in-flight jobs, then closes the result
// channel. Call after the last Submit.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
	close(p.results)
	p.cancel()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		result := p.process(job, id)
		select {
		case p.results <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// process runs one document with its own deadline.
func (p *Pool) process(job *Job, workerID int) *Result {
	start := time.Now()

	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	result := &Result{JobID: job.ID}
	var err error
	if job.Anonymize {
		result.Outcome, err = p.engine.Anonymize(ctx, job.Text, job.Options)
	} else {
		result.Detection, err = p.engine.Detect(ctx, job.Text, job.Options)
	}
	result.Error = err
	result.Duration = time.Since(start)

	if err != nil {
		p.logger.Warn("document failed",
			zap.String("job_id", job.ID),
			zap.Int("worker_id", workerID),
			zap.Duration("duration", result.Duration),
			zap.Error(err))
	}
	return result
}

// Process is the convenience batch entry point: it starts the pool,
// submits every job, and collects all results keyed by job id.
func (p *Pool) Process(jobs []*Job) map[string]*Result {
	p.Start()
	go func() {
		for _, job := range jobs {
			p.Submit(job)
		}
		p.Stop()
	}()

	out := make(map[string]*Result, len(jobs))
	for result := range p.results {
		out[result.JobID] = result
	}
	return out
}
