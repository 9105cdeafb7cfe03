package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/couchcryptid/rainwater-assessment/internal/device"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/google/uuid"
)

// Capabilities are the device providers available to one session.
type Capabilities struct {
	Geolocator device.Geolocator
	Camera     device.Camera
}

// Publisher receives completed assessments. Publish must not block.
type Publisher interface {
	Publish(ctx context.Context, ev domain.AssessmentEvent)
}

// Deps are shared by every session.
type Deps struct {
	Analyzer      Analyzer
	Publisher     Publisher // optional
	Logger        *slog.Logger
	Metrics       *observability.Metrics
	MaxImageBytes int
}

// Session is one wizard run: a controller, the mounted slide and the
// session's capabilities. All methods are serialized; a session is strictly
// sequential.
type Session struct {
	mu    sync.Mutex
	id    string
	ctrl  *Controller
	slide Slide
	caps  Capabilities
	deps  Deps
}

// NewSession starts a session on the first step.
func NewSession(ctx context.Context, id string, caps Capabilities, deps Deps) *Session {
	if deps.MaxImageBytes <= 0 {
		deps.MaxImageBytes = domain.MaxImageBytes
	}
	s := &Session{
		id:   id,
		ctrl: NewController(deps.Analyzer),
		caps: caps,
		deps: deps,
	}
	s.mount(ctx)
	return s
}

func (s *Session) ID() string                 { return s.id }
func (s *Session) Capabilities() Capabilities { return s.caps }

// View is the render model of a whole session.
type View struct {
	SessionID string             `json:"session_id"`
	Phase     string             `json:"phase"`
	Step      string             `json:"step,omitempty"`
	StepIndex int                `json:"step_index"`
	StepCount int                `json:"step_count"`
	Title     string             `json:"title,omitempty"`
	Progress  int                `json:"progress"`
	Slide     *SlideView         `json:"slide,omitempty"`
	Record    *domain.UserRecord `json:"record,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

func (s *Session) view() View {
	v := View{
		SessionID: s.id,
		Phase:     s.ctrl.Phase().String(),
		StepCount: stepCount,
	}
	if s.ctrl.Phase() == PhaseResults {
		rec := s.ctrl.Record()
		v.Record = &rec
		v.Progress = 100
		v.StepIndex = stepCount - 1
		return v
	}
	step := s.ctrl.Step()
	sv := s.slide.View()
	v.Step = step.String()
	v.StepIndex = int(step)
	v.Title = step.Title()
	v.Progress = s.ctrl.Progress()
	v.Slide = &sv
	return v
}

// SubmitPersonalInfo validates and submits the personal information step.
func (s *Session) SubmitPersonalInfo(ctx context.Context, name, mobile, email string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide, err := current[*PersonalInfoSlide](s)
	if err != nil {
		return s.view(), err
	}
	slide.SetFields(name, mobile, email)
	err = s.submit(ctx)
	return s.view(), err
}

// SubmitLocation validates and submits typed coordinates.
func (s *Session) SubmitLocation(ctx context.Context, latitude, longitude string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide, err := current[*LocationSlide](s)
	if err != nil {
		return s.view(), err
	}
	slide.SetCoordinates(latitude, longitude)
	err = s.submit(ctx)
	return s.view(), err
}

// DetectLocation re-triggers automatic detection. Capability failures are
// reflected in the slide status, not returned.
func (s *Session) DetectLocation(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide, err := current[*LocationSlide](s)
	if err != nil {
		return s.view(), err
	}
	slide.Detect(ctx)
	s.recordCapabilityError(slide.LastError())
	return s.view(), nil
}

// StartCamera opens the camera on the rooftop step.
func (s *Session) StartCamera(ctx context.Context) (View, error) {
	return s.rooftop(func(slide *RooftopSlide) error {
		err := slide.StartCamera(ctx)
		s.recordCapabilityError(err)
		return err
	})
}

// CaptureFrame turns the current camera frame into the rooftop image.
func (s *Session) CaptureFrame() (View, error) {
	return s.rooftop(func(slide *RooftopSlide) error { return slide.Capture() })
}

// CancelCamera releases the camera without capturing.
func (s *Session) CancelCamera() (View, error) {
	return s.rooftop(func(slide *RooftopSlide) error {
		slide.CancelCamera()
		return nil
	})
}

// UploadImage selects an uploaded rooftop image.
func (s *Session) UploadImage(contentType string, data []byte) (View, error) {
	return s.rooftop(func(slide *RooftopSlide) error { return slide.Upload(contentType, data) })
}

// RemoveImage clears the rooftop image.
func (s *Session) RemoveImage() (View, error) {
	return s.rooftop(func(slide *RooftopSlide) error {
		slide.Remove()
		return nil
	})
}

// SubmitRooftop submits the final step. On success it blocks for the full
// analysis and the session enters the results phase.
func (s *Session) SubmitRooftop(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := current[*RooftopSlide](s); err != nil {
		return s.view(), err
	}
	err := s.submit(ctx)
	return s.view(), err
}

func (s *Session) rooftop(fn func(*RooftopSlide) error) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slide, err := current[*RooftopSlide](s)
	if err != nil {
		return s.view(), err
	}
	err = fn(slide)
	return s.view(), err
}

// Back goes to the previous step. On the first step, and from the results
// page, it exits the wizard instead: the record is discarded and exited is
// true.
func (s *Session) Back(ctx context.Context) (v View, exited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl.Retreat() {
		s.unmount()
		s.mount(ctx)
		return s.view(), false
	}
	s.reset(ctx)
	return s.view(), true
}

// Reset discards the record and starts over on the first step.
func (s *Session) Reset(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(ctx)
	return s.view()
}

// Results returns the analyzed record.
func (s *Session) Results() (domain.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctrl.Phase() != PhaseResults {
		return domain.UserRecord{}, ErrNotComplete
	}
	return s.ctrl.Record(), nil
}

// Close releases held capabilities.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unmount()
}

func (s *Session) reset(ctx context.Context) {
	s.unmount()
	s.ctrl.Reset()
	s.mount(ctx)
}

func (s *Session) submit(ctx context.Context) error {
	step := s.ctrl.Step()
	u, err := s.slide.Submit(ctx)
	if err != nil {
		s.deps.Metrics.StepSubmissions.WithLabelValues(step.String(), "rejected").Inc()
		return err
	}
	s.deps.Metrics.StepSubmissions.WithLabelValues(step.String(), "accepted").Inc()

	s.ctrl.Advance(ctx, u)
	s.unmount()

	if s.ctrl.Phase() == PhaseResults {
		s.complete(ctx)
		return nil
	}
	s.mount(ctx)
	return nil
}

func (s *Session) complete(ctx context.Context) {
	s.deps.Metrics.AssessmentsCompleted.Inc()
	s.deps.Logger.Info("assessment completed", "session_id", s.id)

	if s.deps.Publisher == nil {
		return
	}
	if ev, ok := domain.NewAssessmentEvent(uuid.NewString(), s.id, s.ctrl.Record()); ok {
		s.deps.Publisher.Publish(ctx, ev)
	}
}

func (s *Session) mount(ctx context.Context) {
	s.slide = mountSlide(ctx, s.ctrl.Step(), s.ctrl.Record(), s.caps, s.deps.MaxImageBytes)
	if loc, ok := s.slide.(*LocationSlide); ok {
		s.recordCapabilityError(loc.LastError())
	}
}

func (s *Session) unmount() {
	if s.slide != nil {
		s.slide.Unmount()
		s.slide = nil
	}
}

func (s *Session) recordCapabilityError(err error) {
	var devErr *device.Error
	if errors.As(err, &devErr) {
		s.deps.Metrics.CapabilityErrors.WithLabelValues(devErr.Capability, devErr.Code()).Inc()
	}
}

// current returns the mounted slide as T, or ErrWrongStep.
func current[T Slide](s *Session) (T, error) {
	slide, ok := s.slide.(T)
	if !ok {
		var zero T
		return zero, ErrWrongStep
	}
	return slide, nil
}
