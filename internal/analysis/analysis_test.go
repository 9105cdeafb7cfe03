package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- scripted randomness ---

type scriptedSource struct {
	floats []float64
	ints   []int
	bounds []int // n passed to each IntN call
}

func (s *scriptedSource) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedSource) IntN(n int) int {
	s.bounds = append(s.bounds, n)
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v
}

type stubGeocoder struct {
	result domain.GeocodingResult
	err    error
	calls  int
}

func (g *stubGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	g.calls++
	return g.result, g.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var mumbai = &domain.Coordinates{Latitude: 19.0760, Longitude: 72.8777}

// --- engine ---

func TestEngine_Analyze_ExactWithScriptedSource(t *testing.T) {
	src := &scriptedSource{ints: []int{250, 50}, floats: []float64{0.5}}

	a := NewEngine(src).Analyze(mumbai)

	assert.Equal(t, 350, a.RooftopArea)
	assert.Equal(t, 1150, a.Result.AverageRainfall)
	assert.Equal(t, 322, a.Result.RecommendedTankSize)
	assert.Equal(t, 26833, a.Result.MonthlyStorage)
	assert.Equal(t, 70000, a.Result.ConstructionCost)
	assert.Empty(t, a.Result.Location, "labels are attached by the runner")
	assert.Equal(t, []int{areaSpread, costRateSpread}, src.bounds)
}

func TestEngine_Analyze_Extremes(t *testing.T) {
	low := NewEngine(&scriptedSource{ints: []int{0, 0}, floats: []float64{0}}).Analyze(mumbai)
	assert.Equal(t, 100, low.RooftopArea)
	assert.Equal(t, 1000, low.Result.AverageRainfall)
	assert.Equal(t, 100*150, low.Result.ConstructionCost)

	high := NewEngine(&scriptedSource{ints: []int{499, 149}, floats: []float64{0.999999}}).Analyze(mumbai)
	assert.Equal(t, 599, high.RooftopArea)
	assert.Equal(t, 1299, high.Result.AverageRainfall)
	assert.Equal(t, 599*299, high.Result.ConstructionCost)
}

func TestEngine_Analyze_NoCoordinates(t *testing.T) {
	src := &scriptedSource{ints: []int{100, 10}}

	a := NewEngine(src).Analyze(nil)

	assert.Equal(t, 200, a.RooftopArea)
	assert.Equal(t, defaultRainfall, a.Result.AverageRainfall)
	assert.Equal(t, 200*160, a.Result.ConstructionCost)
}

func TestRainfallFloor(t *testing.T) {
	assert.InDelta(t, 1000.0, RainfallFloor(19.076), 0)
	assert.InDelta(t, 1000.0, RainfallFloor(-29.999), 0)
	assert.InDelta(t, 800.0, RainfallFloor(30), 0)
	assert.InDelta(t, 800.0, RainfallFloor(-45), 0)
	assert.InDelta(t, 800.0, RainfallFloor(90), 0)
}

func TestEngine_TropicalRainfallRange(t *testing.T) {
	e := NewEngine(NewSource(42))
	for i := 0; i < 1000; i++ {
		a := e.Analyze(mumbai)
		require.GreaterOrEqual(t, a.Result.AverageRainfall, 1000)
		require.Less(t, a.Result.AverageRainfall, 1300)
		require.GreaterOrEqual(t, a.RooftopArea, 100)
		require.Less(t, a.RooftopArea, 600)
		require.GreaterOrEqual(t, a.Result.ConstructionCost, a.RooftopArea*150)
		require.Less(t, a.Result.ConstructionCost, a.RooftopArea*300)
		require.Equal(t, TankSize(a.RooftopArea, a.Result.AverageRainfall), a.Result.RecommendedTankSize)
		require.Equal(t, MonthlyStorage(a.RooftopArea, a.Result.AverageRainfall), a.Result.MonthlyStorage)
	}
}

func TestEngine_TemperateRainfallRange(t *testing.T) {
	e := NewEngine(NewSource(7))
	for i := 0; i < 500; i++ {
		a := e.Analyze(&domain.Coordinates{Latitude: 51.5, Longitude: -0.12})
		require.GreaterOrEqual(t, a.Result.AverageRainfall, 800)
		require.Less(t, a.Result.AverageRainfall, 1100)
	}
}

func TestNewSource_SeedIsReproducible(t *testing.T) {
	a := NewEngine(NewSource(99)).Analyze(mumbai)
	b := NewEngine(NewSource(99)).Analyze(mumbai)
	assert.Equal(t, a, b)
}

// --- namers ---

func TestMockNamer(t *testing.T) {
	src := &scriptedSource{ints: []int{3}}
	n := NewMockNamer(src)

	assert.Equal(t, "Delhi, Delhi", n.Name(context.Background(), mumbai))
	assert.Equal(t, []int{len(MockLocations)}, src.bounds)
	assert.Equal(t, UnknownLocation, n.Name(context.Background(), nil))
	assert.Len(t, MockLocations, 7)
}

func TestGeocodingNamer(t *testing.T) {
	ctx := context.Background()

	t.Run("uses formatted address", func(t *testing.T) {
		geo := &stubGeocoder{result: domain.GeocodingResult{FormattedAddress: "Mumbai, Maharashtra, India"}}
		n := NewGeocodingNamer(geo, NewMockNamer(&scriptedSource{}), discardLogger())
		assert.Equal(t, "Mumbai, Maharashtra, India", n.Name(ctx, mumbai))
		assert.Equal(t, 1, geo.calls)
	})

	t.Run("falls back on error", func(t *testing.T) {
		geo := &stubGeocoder{err: errors.New("rate limited")}
		n := NewGeocodingNamer(geo, NewMockNamer(&scriptedSource{ints: []int{5}}), discardLogger())
		assert.Equal(t, "Pune, Maharashtra", n.Name(ctx, mumbai))
	})

	t.Run("falls back on empty result", func(t *testing.T) {
		geo := &stubGeocoder{}
		n := NewGeocodingNamer(geo, NewMockNamer(&scriptedSource{ints: []int{0}}), discardLogger())
		assert.Equal(t, "Mumbai, Maharashtra", n.Name(ctx, mumbai))
	})

	t.Run("no coordinates skips the geocoder", func(t *testing.T) {
		geo := &stubGeocoder{}
		n := NewGeocodingNamer(geo, NewMockNamer(&scriptedSource{}), discardLogger())
		assert.Equal(t, UnknownLocation, n.Name(ctx, nil))
		assert.Zero(t, geo.calls)
	})
}

// --- runner ---

func TestRunner_BlocksForFullDelay(t *testing.T) {
	fc := clockwork.NewFakeClock()
	src := &scriptedSource{ints: []int{250, 50, 0}, floats: []float64{0.5}}
	r := NewRunner(NewEngine(src), NewMockNamer(src), fc, 2*time.Second, discardLogger(), observability.NewMetricsForTesting())

	type out struct {
		area   int
		result domain.AnalysisResult
	}
	done := make(chan out, 1)
	go func() {
		area, res := r.Analyze(context.Background(), domain.UserRecord{Coordinates: mumbai})
		done <- out{area, res}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(1999 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("analysis finished before the delay elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	fc.Advance(time.Millisecond)
	select {
	case got := <-done:
		assert.Equal(t, 350, got.area)
		assert.Equal(t, 1150, got.result.AverageRainfall)
		assert.Equal(t, "Mumbai, Maharashtra", got.result.Location)
	case <-ctx.Done():
		t.Fatal("analysis did not finish after the delay")
	}
}

func TestRunner_ZeroDelay(t *testing.T) {
	src := &scriptedSource{ints: []int{0, 0}}
	r := NewRunner(NewEngine(src), NewMockNamer(src), nil, 0, discardLogger(), observability.NewMetricsForTesting())

	area, res := r.Analyze(context.Background(), domain.UserRecord{})
	assert.Equal(t, 100, area)
	assert.Equal(t, UnknownLocation, res.Location)
	assert.Equal(t, 800, res.AverageRainfall)
}
