// Package pipeline dispatches completed assessments to downstream consumers.
// Sessions publish into a bounded Queue without blocking; a single Pipeline
// loop drains the queue in batches and hands each batch to a loader.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize events, blocking until at least one
// is available or ctx is done.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.AssessmentEvent, error)
}

// BatchLoader writes multiple events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.AssessmentEvent) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Pipeline orchestrates the extract-load loop.
type Pipeline struct {
	extractor BatchExtractor
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	running   atomic.Bool
	batchSize int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor: e,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		batchSize: batchSize,
	}
}

// CheckReadiness returns nil while the dispatch loop is running.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.running.Load() {
		return errors.New("dispatch pipeline is not running")
	}
	return nil
}

// Run executes the dispatch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("dispatch pipeline started", "batch_size", p.batchSize)
	p.running.Store(true)
	p.metrics.DispatchRunning.Set(1)
	defer func() {
		p.running.Store(false)
		p.metrics.DispatchRunning.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("dispatch pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx) {
			p.logger.Info("dispatch pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// processBatch runs one extract-load cycle. Returns false if the pipeline
// should stop.
func (p *Pipeline) processBatch(ctx context.Context) bool {
	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return sharedretry.SleepWithContext(ctx, initialBackoff)
	}
	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	start := time.Now()
	p.metrics.BatchSize.Observe(float64(len(batch)))

	if !p.loadWithRetry(ctx, batch) {
		p.logger.Warn("dispatch stopped with unsent events", "count", len(batch))
		return false
	}

	p.metrics.EventsProduced.Add(float64(len(batch)))
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// loadWithRetry retries the same batch with exponential backoff until it is
// written or ctx is done. Returns false if ctx ended first.
func (p *Pipeline) loadWithRetry(ctx context.Context, batch []domain.AssessmentEvent) bool {
	backoff := initialBackoff
	for {
		err := p.loader.LoadBatch(ctx, batch)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "retry_in", backoff)

		if !sharedretry.SleepWithContext(ctx, backoff) {
			return false
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
}
