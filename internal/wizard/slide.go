package wizard

import (
	"context"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// Slide is one wizard step. Implementations hold draft input seeded from
// the record; Submit validates it and returns the Update to apply, or a
// *domain.ValidationError and no update.
type Slide interface {
	Step() Step
	View() SlideView
	Submit(ctx context.Context) (Update, error)
	// Unmount releases anything the slide holds (camera streams).
	Unmount()
}

// SlideView is the render model of a slide.
type SlideView struct {
	Fields  map[string]string `json:"fields,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Status  string            `json:"status,omitempty"`
	Message string            `json:"message,omitempty"`
	Mode    string            `json:"mode,omitempty"`
	Image   string            `json:"image,omitempty"` // data URL
}

// mountSlide builds the slide for step, seeded from rec.
func mountSlide(ctx context.Context, step Step, rec domain.UserRecord, caps Capabilities, maxImageBytes int) Slide {
	switch step {
	case StepLocation:
		s := NewLocationSlide(rec, caps.Geolocator)
		s.Mount(ctx)
		return s
	case StepRooftop:
		return NewRooftopSlide(rec, caps.Camera, maxImageBytes)
	default:
		return NewPersonalInfoSlide(rec)
	}
}

func copyErrors(verr *domain.ValidationError) map[string]string {
	if verr == nil || len(verr.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(verr.Fields))
	for k, v := range verr.Fields {
		out[k] = v
	}
	return out
}
