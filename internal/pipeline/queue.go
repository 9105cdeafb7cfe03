package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Queue is a bounded in-memory buffer between sessions and the pipeline.
// It implements BatchExtractor and the wizard's publisher.
type Queue struct {
	events        chan domain.AssessmentEvent
	flushInterval time.Duration
	clock         clockwork.Clock
	metrics       *observability.Metrics
}

// NewQueue creates a queue holding up to capacity events. A batch is
// flushed when it is full or flushInterval after its first event. A nil
// clock uses the real clock.
func NewQueue(capacity int, flushInterval time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *Queue {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Queue{
		events:        make(chan domain.AssessmentEvent, capacity),
		flushInterval: flushInterval,
		clock:         clock,
		metrics:       metrics,
	}
}

// Publish enqueues ev. It never blocks: when the queue is full the event is
// dropped and counted.
func (q *Queue) Publish(_ context.Context, ev domain.AssessmentEvent) {
	select {
	case q.events <- ev:
	default:
		q.metrics.EventsDropped.Inc()
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.events) }

func (q *Queue) ExtractBatch(ctx context.Context, batchSize int) ([]domain.AssessmentEvent, error) {
	var batch []domain.AssessmentEvent
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case ev := <-q.events:
		batch = append(batch, ev)
	}

	timer := q.clock.NewTimer(q.flushInterval)
	defer timer.Stop()

	for len(batch) < batchSize {
		select {
		case ev := <-q.events:
			batch = append(batch, ev)
		case <-timer.Chan():
			return batch, nil
		case <-ctx.Done():
			return batch, nil
		}
	}
	return batch, nil
}
