package wizard

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/rainwater-assessment/internal/device"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/stretchr/testify/require"
)

// stubAnalyzer returns a fixed result and records every record it saw.
type stubAnalyzer struct {
	area   int
	result domain.AnalysisResult
	calls  []domain.UserRecord
}

func (a *stubAnalyzer) Analyze(_ context.Context, rec domain.UserRecord) (int, domain.AnalysisResult) {
	a.calls = append(a.calls, rec)
	return a.area, a.result
}

func newStubAnalyzer() *stubAnalyzer {
	return &stubAnalyzer{
		area: 350,
		result: domain.AnalysisResult{
			AverageRainfall:     1150,
			RecommendedTankSize: 322,
			MonthlyStorage:      26833,
			ConstructionCost:    70000,
			Location:            "Mumbai, Maharashtra",
		},
	}
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domain.AssessmentEvent
}

func (p *capturePublisher) Publish(_ context.Context, ev domain.AssessmentEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

// countingGeolocator counts calls and answers like the wrapped geolocator.
type countingGeolocator struct {
	device.StaticGeolocator
	calls int
}

func (g *countingGeolocator) CurrentPosition(ctx context.Context, opts device.PositionOptions) (domain.Coordinates, error) {
	g.calls++
	return g.StaticGeolocator.CurrentPosition(ctx, opts)
}

func testDeps(analyzer Analyzer, pub Publisher) Deps {
	return Deps{
		Analyzer:      analyzer,
		Publisher:     pub,
		Logger:        slog.Default(),
		Metrics:       observability.NewMetricsForTesting(),
		MaxImageBytes: domain.MaxImageBytes,
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := range 4 {
		for y := range 4 {
			img.Set(x, y, color.RGBA{R: 120, G: 90, B: 60, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func validRecord(t *testing.T) domain.UserRecord {
	t.Helper()
	return domain.UserRecord{
		Name:         "Asha Rao",
		Mobile:       "9876543210",
		Email:        "asha@example.com",
		Coordinates:  &domain.Coordinates{Latitude: 19.076, Longitude: 72.8777},
		RooftopImage: &domain.Image{ContentType: "image/png", Data: testPNG(t)},
	}
}
