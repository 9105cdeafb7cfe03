package wizard

import (
	"context"
	"testing"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func advanceAll(t *testing.T, c *Controller) {
	t.Helper()
	rec := validRecord(t)
	ctx := context.Background()
	c.Advance(ctx, PersonalInfo{Name: rec.Name, Mobile: rec.Mobile, Email: rec.Email})
	c.Advance(ctx, Location{Coordinates: *rec.Coordinates})
	c.Advance(ctx, Rooftop{Image: *rec.RooftopImage})
}

func TestController_AdvanceThroughAllSteps(t *testing.T) {
	analyzer := newStubAnalyzer()
	c := NewController(analyzer)

	assert.Equal(t, StepPersonalInfo, c.Step())
	assert.Equal(t, 33, c.Progress())

	ctx := context.Background()
	c.Advance(ctx, PersonalInfo{Name: "Asha Rao", Mobile: "9876543210", Email: "asha@example.com"})
	assert.Equal(t, StepLocation, c.Step())
	assert.Equal(t, 66, c.Progress())
	assert.Equal(t, "Asha Rao", c.Record().Name)

	c.Advance(ctx, Location{Coordinates: domain.Coordinates{Latitude: 19.076, Longitude: 72.8777}})
	assert.Equal(t, StepRooftop, c.Step())
	assert.Equal(t, 100, c.Progress())
	assert.Empty(t, analyzer.calls, "analysis must not run before the last step")

	c.Advance(ctx, Rooftop{Image: domain.Image{ContentType: "image/png", Data: testPNG(t)}})
	assert.Equal(t, PhaseResults, c.Phase())
	require.Len(t, analyzer.calls, 1)

	// The analyzer saw the complete record.
	seen := analyzer.calls[0]
	assert.Equal(t, "asha@example.com", seen.Email)
	require.NotNil(t, seen.Coordinates)
	require.NotNil(t, seen.RooftopImage)

	rec := c.Record()
	require.NotNil(t, rec.Analysis)
	require.NotNil(t, rec.RooftopArea)
	assert.Equal(t, 350, *rec.RooftopArea)
	assert.Equal(t, analyzer.result, *rec.Analysis)
	assert.True(t, rec.Analyzed())
}

func TestController_AdvanceAfterResultsIgnored(t *testing.T) {
	analyzer := newStubAnalyzer()
	c := NewController(analyzer)
	advanceAll(t, c)

	c.Advance(context.Background(), PersonalInfo{Name: "Someone Else"})
	assert.Equal(t, "Asha Rao", c.Record().Name)
	assert.Len(t, analyzer.calls, 1)
}

func TestController_RetreatKeepsRecord(t *testing.T) {
	c := NewController(newStubAnalyzer())
	assert.False(t, c.Retreat(), "first step cannot retreat")

	ctx := context.Background()
	c.Advance(ctx, PersonalInfo{Name: "Asha Rao", Mobile: "9876543210", Email: "asha@example.com"})
	c.Advance(ctx, Location{Coordinates: domain.Coordinates{Latitude: 1, Longitude: 2}})

	require.True(t, c.Retreat())
	assert.Equal(t, StepLocation, c.Step())
	require.True(t, c.Retreat())
	assert.Equal(t, StepPersonalInfo, c.Step())

	rec := c.Record()
	assert.Equal(t, "Asha Rao", rec.Name)
	require.NotNil(t, rec.Coordinates)
	assert.InDelta(t, 2.0, rec.Coordinates.Longitude, 1e-9)
}

func TestController_RetreatFromResults(t *testing.T) {
	c := NewController(newStubAnalyzer())
	advanceAll(t, c)
	assert.False(t, c.Retreat())
	assert.Equal(t, PhaseResults, c.Phase())
}

func TestController_Reset(t *testing.T) {
	c := NewController(newStubAnalyzer())
	advanceAll(t, c)

	c.Reset()
	assert.Equal(t, StepPersonalInfo, c.Step())
	assert.Equal(t, PhaseCollecting, c.Phase())
	assert.Equal(t, domain.UserRecord{}, c.Record())
}

func TestController_RecordIsCopy(t *testing.T) {
	c := NewController(newStubAnalyzer())
	c.Advance(context.Background(), PersonalInfo{Name: "Asha Rao"})
	c.Advance(context.Background(), Location{Coordinates: domain.Coordinates{Latitude: 1, Longitude: 2}})

	rec := c.Record()
	rec.Name = "changed"
	rec.Coordinates.Latitude = 50

	again := c.Record()
	assert.Equal(t, "Asha Rao", again.Name)
	assert.InDelta(t, 1.0, again.Coordinates.Latitude, 1e-9)
}

func TestStep_Labels(t *testing.T) {
	assert.Equal(t, "personal_info", StepPersonalInfo.String())
	assert.Equal(t, "Location Detection", StepLocation.Title())
	assert.Equal(t, "Rooftop Analysis", StepRooftop.Title())
	assert.Equal(t, "unknown", Step(9).String())
	assert.Equal(t, "results", PhaseResults.String())
	assert.Equal(t, "collecting", PhaseCollecting.String())
}
