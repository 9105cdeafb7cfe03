package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/rainwater-assessment/internal/device"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// Rooftop slide modes.
const (
	ModeChoice   = "choice"   // pick camera or upload
	ModeCamera   = "camera"   // live stream held
	ModePreview  = "preview"  // image selected
	ModeComplete = "complete" // image accepted
)

// RooftopSlide collects the rooftop photo from an upload or a camera frame.
type RooftopSlide struct {
	image            *domain.Image
	analysisComplete bool
	camera           device.Camera
	stream           device.Stream
	maxImageBytes    int
	message          string
	errs             *domain.ValidationError
}

// NewRooftopSlide seeds the slide from rec. camera may be nil when the
// client has no camera.
func NewRooftopSlide(rec domain.UserRecord, camera device.Camera, maxImageBytes int) *RooftopSlide {
	s := &RooftopSlide{camera: camera, maxImageBytes: maxImageBytes}
	if rec.RooftopImage != nil {
		img := *rec.RooftopImage
		s.image = &img
	}
	return s
}

func (s *RooftopSlide) Step() Step { return StepRooftop }

// Mode derives the current mode from the slide state.
func (s *RooftopSlide) Mode() string {
	switch {
	case s.stream != nil:
		return ModeCamera
	case s.analysisComplete:
		return ModeComplete
	case s.image != nil:
		return ModePreview
	default:
		return ModeChoice
	}
}

// Image returns the selected image, if any.
func (s *RooftopSlide) Image() *domain.Image { return s.image }

// AnalysisComplete reports whether the selected image has been accepted.
func (s *RooftopSlide) AnalysisComplete() bool { return s.analysisComplete }

// StartCamera opens a rear-facing stream for a live preview.
func (s *RooftopSlide) StartCamera(ctx context.Context) error {
	if s.camera == nil {
		s.message = "Unable to access camera. Please check permissions or use file upload."
		return &device.Error{Capability: device.CameraCap, Err: device.ErrUnsupported}
	}
	s.stopCamera()

	stream, err := s.camera.Open(ctx, device.DefaultConstraints)
	if err != nil {
		s.message = "Unable to access camera. Please check permissions or use file upload."
		var devErr *device.Error
		if !errors.As(err, &devErr) {
			err = &device.Error{Capability: device.CameraCap, Err: err}
		}
		return err
	}
	s.stream = stream
	s.message = "Camera activated successfully!"
	return nil
}

// Capture encodes one frame from the live stream as the selected image,
// displacing any upload, and releases the stream.
func (s *RooftopSlide) Capture() error {
	if s.stream == nil {
		return fmt.Errorf("capture: %w", device.ErrStreamClosed)
	}
	frame, err := s.stream.Frame()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	img, err := device.EncodeFrame(frame)
	if err != nil {
		return err
	}

	s.image = &img
	s.analysisComplete = false
	s.errs = nil
	s.stopCamera()
	s.message = "Photo captured successfully!"
	return nil
}

// CancelCamera releases the stream without capturing.
func (s *RooftopSlide) CancelCamera() {
	s.stopCamera()
	s.message = ""
}

// Upload validates and selects an uploaded image.
func (s *RooftopSlide) Upload(contentType string, data []byte) error {
	sniffed, err := domain.CheckImage(contentType, data, s.maxImageBytes)
	if err != nil {
		verr := &domain.ValidationError{}
		if errors.Is(err, domain.ErrImageTooLarge) {
			verr.Add(domain.FieldImage, "File size should be less than 10MB")
		} else {
			verr.Add(domain.FieldImage, "Please select a valid image file")
		}
		s.errs = verr
		return verr
	}

	s.stopCamera()
	s.image = &domain.Image{ContentType: sniffed, Data: bytes.Clone(data)}
	s.analysisComplete = false
	s.errs = nil
	s.message = "Image uploaded successfully!"
	return nil
}

// Remove clears the image and the analysis flag and releases the camera,
// returning the slide to the upload choice.
func (s *RooftopSlide) Remove() {
	s.image = nil
	s.analysisComplete = false
	s.errs = nil
	s.message = ""
	s.stopCamera()
}

func (s *RooftopSlide) View() SlideView {
	v := SlideView{
		Errors:  copyErrors(s.errs),
		Mode:    s.Mode(),
		Message: s.message,
	}
	if s.image != nil {
		v.Image = s.image.DataURL()
	}
	return v
}

func (s *RooftopSlide) Submit(_ context.Context) (Update, error) {
	if s.image == nil {
		verr := &domain.ValidationError{}
		verr.Add(domain.FieldImage, "Please select an image first")
		s.errs = verr
		return nil, verr
	}
	s.stopCamera()
	s.analysisComplete = true
	s.errs = nil
	s.message = "Image analysis completed successfully!"
	return Rooftop{Image: *s.image}, nil
}

func (s *RooftopSlide) Unmount() {
	s.stopCamera()
}

func (s *RooftopSlide) stopCamera() {
	if s.stream == nil {
		return
	}
	_ = s.stream.Close()
	s.stream = nil
}
