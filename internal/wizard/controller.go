package wizard

import (
	"context"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// Analyzer runs the final analysis over a complete record.
type Analyzer interface {
	Analyze(ctx context.Context, rec domain.UserRecord) (area int, result domain.AnalysisResult)
}

// Controller is the wizard state machine: current step, phase, and the
// accumulated record.
type Controller struct {
	step     Step
	phase    Phase
	record   domain.UserRecord
	analyzer Analyzer
}

func NewController(analyzer Analyzer) *Controller {
	return &Controller{analyzer: analyzer}
}

func (c *Controller) Step() Step   { return c.step }
func (c *Controller) Phase() Phase { return c.phase }

// Record returns a copy of the accumulated record.
func (c *Controller) Record() domain.UserRecord {
	return c.record.Clone()
}

// Progress is the completion percentage shown for the current step.
func (c *Controller) Progress() int {
	return (int(c.step) + 1) * 100 / stepCount
}

// Advance merges u into the record. On the last step it runs the analysis,
// attaches the result and enters PhaseResults; otherwise it moves to the
// next step. Advance after the wizard has finished is ignored.
func (c *Controller) Advance(ctx context.Context, u Update) {
	if c.phase == PhaseResults {
		return
	}

	u.apply(&c.record)

	if c.step < stepCount-1 {
		c.step++
		return
	}

	area, result := c.analyzer.Analyze(ctx, c.record.Clone())
	c.record = c.record.WithAnalysis(area, result)
	c.phase = PhaseResults
}

// Retreat moves back one step and reports whether it did. On the first
// step it does nothing and returns false; the caller exits the wizard.
func (c *Controller) Retreat() bool {
	if c.phase == PhaseResults || c.step == 0 {
		return false
	}
	c.step--
	return true
}

// Reset discards the record and returns to the first step.
func (c *Controller) Reset() {
	c.step = StepPersonalInfo
	c.phase = PhaseCollecting
	c.record = domain.UserRecord{}
}
