package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultDelay is the simulated processing time.
const DefaultDelay = 2 * time.Second

// Runner wraps the engine with the simulated processing delay and the
// location label. The delay cannot be cancelled: a caller that starts an
// analysis is blocked for the full duration.
type Runner struct {
	engine  *Engine
	namer   LocationNamer
	clock   clockwork.Clock
	delay   time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRunner creates a Runner. A nil clock uses the real clock.
func NewRunner(engine *Engine, namer LocationNamer, clock clockwork.Clock, delay time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{
		engine:  engine,
		namer:   namer,
		clock:   clock,
		delay:   delay,
		logger:  logger,
		metrics: metrics,
	}
}

// Analyze runs the mock analysis for rec and returns the rooftop area and
// the complete result. It always succeeds.
func (r *Runner) Analyze(ctx context.Context, rec domain.UserRecord) (int, domain.AnalysisResult) {
	start := r.clock.Now()

	if r.delay > 0 {
		r.clock.Sleep(r.delay)
	}

	a := r.engine.Analyze(rec.Coordinates)
	a.Result.Location = r.namer.Name(ctx, rec.Coordinates)

	r.metrics.AnalysisDuration.Observe(r.clock.Since(start).Seconds())
	r.logger.Debug("analysis complete",
		"rooftop_area", a.RooftopArea,
		"average_rainfall", a.Result.AverageRainfall,
		"location", a.Result.Location,
	)
	return a.RooftopArea, a.Result
}
