package device

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"

	// Decoders for frames pushed by remote clients.
	_ "image/gif"
	_ "image/png"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
)

// JPEGQuality is the encoder quality for captured frames (0.8 on a 0-1 scale).
const JPEGQuality = 80

// Constraints describe the requested video stream.
type Constraints struct {
	FacingMode string // "environment" is the rear camera
	Width      int
	Height     int
}

// DefaultConstraints asks for the rear camera at 1280x720.
var DefaultConstraints = Constraints{FacingMode: "environment", Width: 1280, Height: 720}

// Camera opens video streams.
type Camera interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a held video source. It must be closed to release the device.
type Stream interface {
	Frame() (image.Image, error)
	Close() error
}

// EncodeFrame encodes a captured frame as a JPEG image payload.
func EncodeFrame(frame image.Image) (domain.Image, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return domain.Image{}, fmt.Errorf("encode frame: %w", err)
	}
	return domain.Image{ContentType: "image/jpeg", Data: buf.Bytes()}, nil
}

// PushCamera is a Camera whose frames are pushed by a remote client that
// owns the physical device. Only one stream is open at a time; opening a new
// one closes the previous.
type PushCamera struct {
	mu      sync.Mutex
	frame   image.Image
	openErr error
	stream  *pushStream
}

// Deny makes the next Open fail with cause, as reported by the client.
func (c *PushCamera) Deny(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = cause
}

// MaxFrameWidth and MaxFrameHeight bound pushed frames to twice the
// requested stream size.
var (
	MaxFrameWidth  = 2 * DefaultConstraints.Width
	MaxFrameHeight = 2 * DefaultConstraints.Height
)

// Push decodes and stores the latest frame. Frame dimensions are checked
// from the header before any pixel buffer is allocated.
func (c *PushCamera) Push(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxFrameWidth || cfg.Height > MaxFrameHeight {
		return fmt.Errorf("decode frame: %dx%d: %w", cfg.Width, cfg.Height, ErrFrameTooLarge)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frame = img
	return nil
}

// Active reports whether a stream is currently held.
func (c *PushCamera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream != nil
}

func (c *PushCamera) Open(_ context.Context, _ Constraints) (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openErr != nil {
		err := c.openErr
		c.openErr = nil
		return nil, &Error{Capability: CameraCap, Err: err}
	}
	if c.stream != nil {
		c.stream.closed = true
	}
	c.frame = nil
	c.stream = &pushStream{cam: c}
	return c.stream, nil
}

type pushStream struct {
	cam    *PushCamera
	closed bool
}

func (s *pushStream) Frame() (image.Image, error) {
	s.cam.mu.Lock()
	defer s.cam.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.cam.frame == nil {
		return nil, ErrNoFrame
	}
	return s.cam.frame, nil
}

func (s *pushStream) Close() error {
	s.cam.mu.Lock()
	defer s.cam.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cam.stream == s {
		s.cam.stream = nil
	}
	s.cam.frame = nil
	return nil
}
