package wizard

import (
	"context"
	"errors"
	"strconv"

	"github.com/couchcryptid/rainwater-assessment/internal/device"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// Detection statuses.
const (
	DetectIdle     = "idle"
	DetectPending  = "pending"
	DetectDetected = "detected"
	DetectError    = "error"
)

// LocationSlide collects coordinates, typed or detected.
type LocationSlide struct {
	latitude  string
	longitude string
	status    string
	message   string
	lastErr   error
	prefilled bool
	geo       device.Geolocator
	errs      *domain.ValidationError
}

// NewLocationSlide seeds the drafts from rec. geo may be nil when the
// client has no geolocation capability.
func NewLocationSlide(rec domain.UserRecord, geo device.Geolocator) *LocationSlide {
	s := &LocationSlide{status: DetectIdle, geo: geo}
	if rec.Coordinates != nil {
		s.latitude = strconv.FormatFloat(rec.Coordinates.Latitude, 'f', -1, 64)
		s.longitude = strconv.FormatFloat(rec.Coordinates.Longitude, 'f', -1, 64)
		s.prefilled = true
		s.status = DetectDetected
	}
	return s
}

func (s *LocationSlide) Step() Step { return StepLocation }

// Mount attempts automatic detection once, unless coordinates were
// pre-filled.
func (s *LocationSlide) Mount(ctx context.Context) {
	if s.prefilled {
		return
	}
	s.Detect(ctx)
}

// Detect asks the geolocation capability for a one-shot position. Failure
// leaves the drafts editable for manual entry; there is no retry.
func (s *LocationSlide) Detect(ctx context.Context) {
	s.lastErr = nil
	if s.geo == nil {
		s.fail(&device.Error{Capability: device.Geolocation, Err: device.ErrUnsupported})
		return
	}

	opts := device.DefaultPositionOptions
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	pos, err := s.geo.CurrentPosition(ctx, opts)
	if err != nil {
		if errors.Is(err, device.ErrPending) {
			s.status = DetectPending
			s.message = "Waiting for the device to report its location."
			return
		}
		s.fail(err)
		return
	}

	s.latitude = strconv.FormatFloat(pos.Latitude, 'f', 6, 64)
	s.longitude = strconv.FormatFloat(pos.Longitude, 'f', 6, 64)
	s.status = DetectDetected
	s.message = "Location detected successfully!"
	s.errs = nil
}

func (s *LocationSlide) fail(err error) {
	s.lastErr = err
	s.status = DetectError
	s.message = detectMessage(err)
}

// LastError returns the capability error from the most recent detection.
func (s *LocationSlide) LastError() error { return s.lastErr }

func detectMessage(err error) string {
	switch {
	case errors.Is(err, device.ErrPermissionDenied):
		return "Location access denied. Please enable location access and try again."
	case errors.Is(err, device.ErrPositionUnavailable):
		return "Location information is unavailable. Please enter coordinates manually."
	case errors.Is(err, device.ErrTimeout):
		return "Location request timed out. Please try again or enter coordinates manually."
	case errors.Is(err, device.ErrUnsupported):
		return "Geolocation is not supported on this device. Please enter coordinates manually."
	default:
		return "Failed to detect location"
	}
}

// SetCoordinates replaces the drafts with typed values.
func (s *LocationSlide) SetCoordinates(latitude, longitude string) {
	s.latitude, s.longitude = latitude, longitude
}

func (s *LocationSlide) View() SlideView {
	return SlideView{
		Fields: map[string]string{
			domain.FieldLatitude:  s.latitude,
			domain.FieldLongitude: s.longitude,
		},
		Errors:  copyErrors(s.errs),
		Status:  s.status,
		Message: s.message,
	}
}

func (s *LocationSlide) Submit(_ context.Context) (Update, error) {
	verr := &domain.ValidationError{}

	lat, err := domain.ParseLatitude(s.latitude)
	switch {
	case errors.Is(err, domain.ErrRequired):
		verr.Add(domain.FieldLatitude, "Latitude is required")
	case err != nil:
		verr.Add(domain.FieldLatitude, "Please enter a valid latitude (-90 to 90)")
	}

	lng, err := domain.ParseLongitude(s.longitude)
	switch {
	case errors.Is(err, domain.ErrRequired):
		verr.Add(domain.FieldLongitude, "Longitude is required")
	case err != nil:
		verr.Add(domain.FieldLongitude, "Please enter a valid longitude (-180 to 180)")
	}

	if err := verr.Err(); err != nil {
		s.errs = verr
		return nil, err
	}
	s.errs = nil

	return Location{Coordinates: domain.Coordinates{Latitude: lat, Longitude: lng}}, nil
}

func (s *LocationSlide) Unmount() {}
