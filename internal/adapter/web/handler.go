// Package web exposes wizard sessions over a JSON HTTP API. Device
// capabilities live on the client: geolocation results and camera frames
// are reported to the session by the client instead of read locally.
package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/couchcryptid/rainwater-assessment/internal/device"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/report"
	"github.com/couchcryptid/rainwater-assessment/internal/wizard"
	"github.com/gofiber/fiber/v3"
	"github.com/jonboulle/clockwork"
)

// Session identification.
const (
	SessionCookie = "wizard_session"
	SessionHeader = "X-Wizard-Session"
	NoticeHeader  = "X-Report-Notice"
)

// Handler serves the wizard API.
type Handler struct {
	store    *wizard.Store
	exporter *report.Exporter
	clock    clockwork.Clock
	logger   *slog.Logger
}

// NewHandler creates a Handler. A nil clock uses the real clock.
func NewHandler(store *wizard.Store, exporter *report.Exporter, clock clockwork.Clock, logger *slog.Logger) *Handler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Handler{
		store:    store,
		exporter: exporter,
		clock:    clock,
		logger:   logger,
	}
}

type personalRequest struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
}

type locationRequest struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// detectRequest is a client geolocation result: a position, or an error
// code such as "permission_denied".
type detectRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"`
}

type cameraRequest struct {
	Error string `json:"error"`
}

// Start creates a session and sets its cookie.
func (h *Handler) Start(c fiber.Ctx) error {
	sess := h.store.Create(c.Context())
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	c.Set(SessionHeader, sess.ID())
	return c.Status(http.StatusCreated).JSON(sess.View())
}

// Get returns the current view.
func (h *Handler) Get(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	return c.JSON(sess.View())
}

// Exit resets and discards the session.
func (h *Handler) Exit(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	sess.Reset(c.Context())
	if err := h.store.Delete(sess.ID()); err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	c.ClearCookie(SessionCookie)
	return c.SendStatus(http.StatusNoContent)
}

func (h *Handler) SubmitPersonal(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	var req personalRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	return h.respond(c)(sess.SubmitPersonalInfo(c.Context(), req.Name, req.Mobile, req.Email))
}

func (h *Handler) SubmitLocation(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	var req locationRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	return h.respond(c)(sess.SubmitLocation(c.Context(), req.Latitude, req.Longitude))
}

// DetectLocation records the client's geolocation result and re-runs
// detection against it.
func (h *Handler) DetectLocation(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	var req detectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	// Reports are accepted only while the location step is mounted.
	if view := sess.View(); view.Step != wizard.StepLocation.String() {
		return h.fail(c, view, wizard.ErrWrongStep)
	}
	if geo, ok := sess.Capabilities().Geolocator.(*device.ReportedGeolocator); ok {
		switch {
		case req.Error != "":
			geo.ReportError(device.ParseCode(req.Error))
		case req.Latitude != nil && req.Longitude != nil:
			geo.ReportPosition(domain.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude})
		default:
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "latitude and longitude or error is required"})
		}
	}
	return h.respond(c)(sess.DetectLocation(c.Context()))
}

func (h *Handler) SubmitRooftop(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	return h.respond(c)(sess.SubmitRooftop(c.Context()))
}

// Upload selects the multipart "image" file as the rooftop image.
func (h *Handler) Upload(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "image file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "cannot open image file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "cannot read image file"})
	}
	return h.respond(c)(sess.UploadImage(fileHeader.Header.Get("Content-Type"), data))
}

// StartCamera opens the session camera. A client that could not open its
// own camera reports the cause as an error code.
func (h *Handler) StartCamera(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	if len(c.Body()) > 0 {
		var req cameraRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if cam, ok := sess.Capabilities().Camera.(*device.PushCamera); ok && req.Error != "" {
			cam.Deny(device.ParseCode(req.Error))
		}
	}
	return h.respond(c)(sess.StartCamera(c.Context()))
}

// CaptureFrame takes the request body as the latest camera frame and
// captures it.
func (h *Handler) CaptureFrame(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	cam, ok := sess.Capabilities().Camera.(*device.PushCamera)
	if !ok {
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "camera does not accept frames"})
	}
	if cam.Active() {
		if err := cam.Push(c.Body()); err != nil {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid frame image"})
		}
	}
	return h.respond(c)(sess.CaptureFrame())
}

func (h *Handler) CancelCamera(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	return h.respond(c)(sess.CancelCamera())
}

func (h *Handler) RemoveImage(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	return h.respond(c)(sess.RemoveImage())
}

// Back retreats one step. Leaving the first step or the results page exits
// the wizard and discards the session.
func (h *Handler) Back(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	view, exited := sess.Back(c.Context())
	if !exited {
		return c.JSON(view)
	}
	if err := h.store.Delete(sess.ID()); err != nil && !errors.Is(err, wizard.ErrSessionNotFound) {
		return h.fail(c, view, err)
	}
	c.ClearCookie(SessionCookie)
	return c.JSON(fiber.Map{"exited": true})
}

// Report renders the results as a PDF attachment.
func (h *Handler) Report(c fiber.Ctx) error {
	sess, err := h.session(c)
	if err != nil {
		return h.fail(c, wizard.View{}, err)
	}
	rec, err := sess.Results()
	if err != nil {
		return h.fail(c, sess.View(), err)
	}

	artifact, err := h.exporter.Export(rec, h.clock.Now())
	if err != nil {
		h.logger.Error("report export failed", "session_id", sess.ID(), "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "report could not be generated"})
	}

	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Attachment(artifact.Filename)
	if len(artifact.Notices) > 0 {
		c.Set(NoticeHeader, strings.Join(artifact.Notices, "; "))
	}
	return c.Send(artifact.Data)
}

// session resolves the request's session from the header, then the cookie.
func (h *Handler) session(c fiber.Ctx) (*wizard.Session, error) {
	id := c.Get(SessionHeader)
	if id == "" {
		id = c.Cookies(SessionCookie)
	}
	if id == "" {
		return nil, wizard.ErrSessionNotFound
	}
	return h.store.Get(id)
}

// respond adapts a session operation's (View, error) result into a response.
func (h *Handler) respond(c fiber.Ctx) func(wizard.View, error) error {
	return func(view wizard.View, err error) error {
		if err != nil {
			return h.fail(c, view, err)
		}
		return c.JSON(view)
	}
}

// fail maps err onto a status. Capability errors are recoverable and are
// already reflected in the view, so they are reported as a normal view.
func (h *Handler) fail(c fiber.Ctx, view wizard.View, err error) error {
	var verr *domain.ValidationError
	var devErr *device.Error
	switch {
	case errors.As(err, &verr):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": verr.Fields,
			"view":   view,
		})
	case errors.As(err, &devErr):
		return c.JSON(view)
	case errors.Is(err, wizard.ErrSessionNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, wizard.ErrWrongStep), errors.Is(err, wizard.ErrNotComplete),
		errors.Is(err, device.ErrNoFrame), errors.Is(err, device.ErrStreamClosed):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error(), "view": view})
	default:
		h.logger.Error("wizard operation failed", "session_id", view.SessionID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
