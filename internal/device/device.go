// Package device defines the capability providers a wizard session
// consumes: one-shot geolocation and a camera stream. Implementations are
// opaque to the wizard; failures are reported as *Error values wrapping one
// of the sentinel causes below.
package device

import (
	"errors"
	"fmt"
)

// Capability names.
const (
	Geolocation = "geolocation"
	CameraCap   = "camera"
)

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("timeout")
	ErrUnsupported         = errors.New("unsupported")

	// ErrPending means the provider has no answer yet and the client is
	// expected to report one later.
	ErrPending = errors.New("pending")

	ErrNoFrame      = errors.New("no frame available")
	ErrStreamClosed = errors.New("stream closed")

	// ErrFrameTooLarge rejects pushed frames outside the accepted size.
	ErrFrameTooLarge = errors.New("frame dimensions out of range")
)

// Error is a capability failure. It is always recoverable: the user can
// retry or fall back to manual entry or file upload.
type Error struct {
	Capability string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Capability, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code is a stable identifier for the cause, used on the wire.
func (e *Error) Code() string {
	return CodeOf(e.Err)
}

// CodeOf maps a cause to its wire code.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrPositionUnavailable):
		return "position_unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	case errors.Is(err, ErrPending):
		return "pending"
	default:
		return "unknown"
	}
}

// ParseCode is the inverse of CodeOf. Unknown codes map to a generic
// unavailable cause.
func ParseCode(code string) error {
	switch code {
	case "permission_denied":
		return ErrPermissionDenied
	case "position_unavailable":
		return ErrPositionUnavailable
	case "timeout":
		return ErrTimeout
	case "unsupported":
		return ErrUnsupported
	default:
		return ErrPositionUnavailable
	}
}
