package wizard

import "github.com/couchcryptid/rainwater-assessment/internal/domain"

// Update is a partial record emitted by a slide. The concrete types below
// are the only implementations.
type Update interface {
	apply(rec *domain.UserRecord)
}

// PersonalInfo is emitted by the personal information slide.
type PersonalInfo struct {
	Name   string
	Mobile string
	Email  string
}

func (u PersonalInfo) apply(rec *domain.UserRecord) {
	rec.Name = u.Name
	rec.Mobile = u.Mobile
	rec.Email = u.Email
}

// Location is emitted by the location slide.
type Location struct {
	Coordinates domain.Coordinates
}

func (u Location) apply(rec *domain.UserRecord) {
	c := u.Coordinates
	rec.Coordinates = &c
}

// Rooftop is emitted by the rooftop image slide.
type Rooftop struct {
	Image domain.Image
}

func (u Rooftop) apply(rec *domain.UserRecord) {
	img := u.Image
	rec.RooftopImage = &img
}
