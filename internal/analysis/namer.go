package analysis

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// UnknownLocation labels assessments without coordinates.
const UnknownLocation = "Unknown Location"

// MockLocations are the labels MockNamer draws from. The draw ignores the
// coordinates.
var MockLocations = []string{
	"Mumbai, Maharashtra",
	"Bangalore, Karnataka",
	"Chennai, Tamil Nadu",
	"Delhi, Delhi",
	"Hyderabad, Telangana",
	"Pune, Maharashtra",
	"Kolkata, West Bengal",
}

// LocationNamer labels a coordinate pair for display.
type LocationNamer interface {
	Name(ctx context.Context, coords *domain.Coordinates) string
}

// MockNamer picks a label uniformly from MockLocations.
type MockNamer struct {
	src RandomSource
}

func NewMockNamer(src RandomSource) *MockNamer {
	return &MockNamer{src: src}
}

func (n *MockNamer) Name(_ context.Context, coords *domain.Coordinates) string {
	if coords == nil {
		return UnknownLocation
	}
	return MockLocations[n.src.IntN(len(MockLocations))]
}

// GeocodingNamer reverse geocodes coordinates, falling back to another namer
// when the geocoder fails or finds nothing (graceful degradation).
type GeocodingNamer struct {
	geocoder domain.Geocoder
	fallback LocationNamer
	logger   *slog.Logger
}

func NewGeocodingNamer(geocoder domain.Geocoder, fallback LocationNamer, logger *slog.Logger) *GeocodingNamer {
	return &GeocodingNamer{geocoder: geocoder, fallback: fallback, logger: logger}
}

func (n *GeocodingNamer) Name(ctx context.Context, coords *domain.Coordinates) string {
	if coords == nil {
		return UnknownLocation
	}

	result, err := n.geocoder.ReverseGeocode(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		n.logger.Warn("reverse geocoding failed, using mock location",
			"lat", coords.Latitude,
			"lon", coords.Longitude,
			"error", err,
		)
		return n.fallback.Name(ctx, coords)
	}
	if result.FormattedAddress == "" {
		return n.fallback.Name(ctx, coords)
	}
	return result.FormattedAddress
}
