// Package analysis produces the mocked rainwater harvesting figures. None of
// the numbers come from real rainfall data or image analysis: the rooftop
// area, the coastal rainfall addend, the construction rate and the location
// label are random draws, kept behind RandomSource so tests can script them.
package analysis

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

const (
	baseRainfall     = 600 // mm
	tropicalBonus    = 400 // |lat| < 30
	temperateBonus   = 200
	tropicalLatitude = 30
	coastalSpread    = 300 // uniform addend in [0, 300)
	defaultRainfall  = 800 // no coordinates

	minArea    = 100 // m², inclusive
	areaSpread = 500 // area in [100, 600)

	minCostRate    = 150 // rupees per m², inclusive
	costRateSpread = 150 // rate in [150, 300)

	collectionEfficiency = 0.8
	mmToCubicMeters      = 0.001
	monthsPerYear        = 12
)

// RandomSource is the randomness the engine draws from. *rand.Rand
// satisfies it.
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

// NewSource returns a PCG-backed source. A zero seed draws one from the
// runtime's random state.
func NewSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed))}
}

// lockedSource serializes access so one source can serve every session.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Assessment is the engine output before a location label is attached.
type Assessment struct {
	RooftopArea int
	Result      domain.AnalysisResult
}

// Engine computes mock assessments.
type Engine struct {
	src RandomSource
}

func NewEngine(src RandomSource) *Engine {
	return &Engine{src: src}
}

// Analyze derives the figures for coords. Draw order is fixed: area, then
// the rainfall addend (only with coordinates), then the construction rate.
func (e *Engine) Analyze(coords *domain.Coordinates) Assessment {
	area := minArea + e.src.IntN(areaSpread)
	rainfall := e.rainfall(coords)

	return Assessment{
		RooftopArea: area,
		Result: domain.AnalysisResult{
			AverageRainfall:     rainfall,
			RecommendedTankSize: TankSize(area, rainfall),
			MonthlyStorage:      MonthlyStorage(area, rainfall),
			ConstructionCost:    area * (minCostRate + e.src.IntN(costRateSpread)),
		},
	}
}

func (e *Engine) rainfall(coords *domain.Coordinates) int {
	if coords == nil {
		return defaultRainfall
	}
	return int(math.Floor(RainfallFloor(coords.Latitude) + e.src.Float64()*coastalSpread))
}

// RainfallFloor is the deterministic part of the rainfall estimate.
func RainfallFloor(lat float64) float64 {
	if math.Abs(lat) < tropicalLatitude {
		return baseRainfall + tropicalBonus
	}
	return baseRainfall + temperateBonus
}

// TankSize is the recommended tank volume in liters.
func TankSize(area, rainfall int) int {
	return int(math.Floor(float64(area) * collectionEfficiency * float64(rainfall) * mmToCubicMeters))
}

// MonthlyStorage is the average monthly harvest in liters.
func MonthlyStorage(area, rainfall int) int {
	return int(math.Floor(float64(area) * float64(rainfall) * collectionEfficiency / monthsPerYear))
}
