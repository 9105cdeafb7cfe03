package device

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// PositionOptions mirrors the one-shot position request knobs.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	MaximumAge   time.Duration
}

// DefaultPositionOptions requests a high-accuracy fix within 10s, accepting
// a cached position up to a minute old.
var DefaultPositionOptions = PositionOptions{
	HighAccuracy: true,
	Timeout:      10 * time.Second,
	MaximumAge:   60 * time.Second,
}

// Geolocator returns the device position once per call.
type Geolocator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (domain.Coordinates, error)
}

// StaticGeolocator always answers with the same position or error.
type StaticGeolocator struct {
	Position domain.Coordinates
	Err      error
}

func (g StaticGeolocator) CurrentPosition(_ context.Context, _ PositionOptions) (domain.Coordinates, error) {
	if g.Err != nil {
		return domain.Coordinates{}, &Error{Capability: Geolocation, Err: g.Err}
	}
	return g.Position, nil
}

// ReportedGeolocator answers with the last result a remote client reported
// from its own geolocation API. Each report is consumed by one call; with no
// report outstanding the call returns ErrPending.
type ReportedGeolocator struct {
	mu      sync.Mutex
	pos     *domain.Coordinates
	err     error
	pending bool
}

// ReportPosition stores a successful fix.
func (g *ReportedGeolocator) ReportPosition(c domain.Coordinates) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pos, g.err, g.pending = &c, nil, true
}

// ReportError stores a failed fix.
func (g *ReportedGeolocator) ReportError(cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pos, g.err, g.pending = nil, cause, true
}

func (g *ReportedGeolocator) CurrentPosition(ctx context.Context, _ PositionOptions) (domain.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinates{}, &Error{Capability: Geolocation, Err: ErrTimeout}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.pending {
		return domain.Coordinates{}, &Error{Capability: Geolocation, Err: ErrPending}
	}
	g.pending = false
	if g.err != nil {
		return domain.Coordinates{}, &Error{Capability: Geolocation, Err: g.err}
	}
	if !g.pos.Valid() {
		return domain.Coordinates{}, &Error{Capability: Geolocation, Err: ErrPositionUnavailable}
	}
	return *g.pos, nil
}
