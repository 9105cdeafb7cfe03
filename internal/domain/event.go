package domain

import "time"

// AssessmentEvent summarizes a completed assessment for downstream
// consumers. The rooftop image is never included.
type AssessmentEvent struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Name        string         `json:"name"`
	Mobile      string         `json:"mobile"`
	Email       string         `json:"email"`
	Coordinates *Coordinates   `json:"coordinates,omitempty"`
	RooftopArea int            `json:"rooftop_area"`
	Analysis    AnalysisResult `json:"analysis"`
	HasImage    bool           `json:"has_image"`
	CompletedAt time.Time      `json:"completed_at"`
}

// NewAssessmentEvent builds the event for an analyzed record. The second
// return value is false when the record has not been analyzed yet.
func NewAssessmentEvent(id, sessionID string, rec UserRecord) (AssessmentEvent, bool) {
	if !rec.Analyzed() {
		return AssessmentEvent{}, false
	}
	ev := AssessmentEvent{
		ID:          id,
		SessionID:   sessionID,
		Name:        rec.Name,
		Mobile:      rec.Mobile,
		Email:       rec.Email,
		RooftopArea: *rec.RooftopArea,
		Analysis:    *rec.Analysis,
		HasImage:    rec.RooftopImage != nil,
		CompletedAt: clock.Now().UTC(),
	}
	if rec.Coordinates != nil {
		c := *rec.Coordinates
		ev.Coordinates = &c
	}
	return ev, true
}
