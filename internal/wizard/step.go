// Package wizard implements the three-step assessment wizard as an explicit
// state machine. A Controller owns the record and the current step; slides
// own draft input, validate it, and hand the controller exactly one Update
// per successful submit. Slides never touch the record directly.
package wizard

import "errors"

// Step identifies a wizard slide.
type Step int

const (
	StepPersonalInfo Step = iota
	StepLocation
	StepRooftop

	stepCount = 3
)

func (s Step) String() string {
	switch s {
	case StepPersonalInfo:
		return "personal_info"
	case StepLocation:
		return "location"
	case StepRooftop:
		return "rooftop"
	default:
		return "unknown"
	}
}

// Title is the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepPersonalInfo:
		return "Personal Information"
	case StepLocation:
		return "Location Detection"
	case StepRooftop:
		return "Rooftop Analysis"
	default:
		return ""
	}
}

// Phase is the controller's coarse state.
type Phase int

const (
	PhaseCollecting Phase = iota
	PhaseResults          // terminal
)

func (p Phase) String() string {
	if p == PhaseResults {
		return "results"
	}
	return "collecting"
}

var (
	ErrWrongStep       = errors.New("operation does not apply to the current step")
	ErrNotComplete     = errors.New("assessment has not completed")
	ErrSessionNotFound = errors.New("session not found")
)
