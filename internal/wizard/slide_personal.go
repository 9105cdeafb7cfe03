package wizard

import (
	"context"
	"strings"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// PersonalInfoSlide collects name, mobile and email.
type PersonalInfoSlide struct {
	name   string
	mobile string
	email  string
	errs   *domain.ValidationError
}

func NewPersonalInfoSlide(rec domain.UserRecord) *PersonalInfoSlide {
	return &PersonalInfoSlide{name: rec.Name, mobile: rec.Mobile, email: rec.Email}
}

func (s *PersonalInfoSlide) Step() Step { return StepPersonalInfo }

// SetFields replaces the drafts.
func (s *PersonalInfoSlide) SetFields(name, mobile, email string) {
	s.name, s.mobile, s.email = name, mobile, email
}

func (s *PersonalInfoSlide) View() SlideView {
	return SlideView{
		Fields: map[string]string{
			domain.FieldName:   s.name,
			domain.FieldMobile: s.mobile,
			domain.FieldEmail:  s.email,
		},
		Errors: copyErrors(s.errs),
	}
}

func (s *PersonalInfoSlide) Submit(_ context.Context) (Update, error) {
	verr := &domain.ValidationError{}

	if !domain.ValidName(s.name) {
		verr.Add(domain.FieldName, "Name is required")
	}

	switch {
	case strings.TrimSpace(s.mobile) == "":
		verr.Add(domain.FieldMobile, "Mobile number is required")
	case !domain.ValidMobile(s.mobile):
		verr.Add(domain.FieldMobile, "Please enter a valid 10-digit mobile number")
	}

	switch {
	case strings.TrimSpace(s.email) == "":
		verr.Add(domain.FieldEmail, "Email is required")
	case !domain.ValidEmail(s.email):
		verr.Add(domain.FieldEmail, "Please enter a valid email address")
	}

	if err := verr.Err(); err != nil {
		s.errs = verr
		return nil, err
	}
	s.errs = nil

	return PersonalInfo{
		Name:   strings.TrimSpace(s.name),
		Mobile: strings.TrimSpace(s.mobile),
		Email:  strings.TrimSpace(s.email),
	}, nil
}

func (s *PersonalInfoSlide) Unmount() {}
