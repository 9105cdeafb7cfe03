package web

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// AppConfig tunes the Fiber application.
type AppConfig struct {
	MaxImageBytes int
	// RequestLog enables the per-request access log.
	RequestLog bool
}

// bodyOverhead leaves room for multipart framing around a maximum-size image.
const bodyOverhead = 64 << 10

// NewApp builds the Fiber application serving h under /api/v1.
func NewApp(h *Handler, cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		// Rooftop submission blocks for the whole analysis.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    cfg.MaxImageBytes + bodyOverhead,
		AppName:      "Rainwater Assessment",
	})

	app.Use(recover.New())
	if cfg.RequestLog {
		app.Use(requestLogger())
	}
	app.Use(corsPolicy())

	api := app.Group("/api/v1")
	wiz := api.Group("/wizard")

	wiz.Post("/", h.Start)
	wiz.Get("/", h.Get)
	wiz.Delete("/", h.Exit)
	wiz.Post("/back", h.Back)
	wiz.Get("/report", h.Report)

	wiz.Post("/personal", h.SubmitPersonal)

	wiz.Post("/location", h.SubmitLocation)
	wiz.Post("/location/detect", h.DetectLocation)

	wiz.Post("/rooftop", h.SubmitRooftop)
	wiz.Post("/rooftop/upload", h.Upload)
	wiz.Post("/rooftop/camera", h.StartCamera)
	wiz.Delete("/rooftop/camera", h.CancelCamera)
	wiz.Post("/rooftop/camera/frame", h.CaptureFrame)
	wiz.Delete("/rooftop/image", h.RemoveImage)

	return app
}

func requestLogger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	})
}

func corsPolicy() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowHeaders:  []string{"Content-Type", SessionHeader},
		AllowMethods:  []string{"GET", "POST", "DELETE"},
		ExposeHeaders: []string{SessionHeader, NoticeHeader, "Content-Disposition"},
	})
}
