package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/rainwater-assessment/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/rainwater-assessment/internal/adapter/kafka"
	"github.com/couchcryptid/rainwater-assessment/internal/adapter/mapbox"
	"github.com/couchcryptid/rainwater-assessment/internal/adapter/web"
	"github.com/couchcryptid/rainwater-assessment/internal/analysis"
	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/couchcryptid/rainwater-assessment/internal/pipeline"
	"github.com/couchcryptid/rainwater-assessment/internal/report"
	"github.com/couchcryptid/rainwater-assessment/internal/wizard"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/gofiber/fiber/v3"
	"golang.org/x/sync/errgroup"
)

// queueCapacity bounds completion events waiting for dispatch.
const queueCapacity = 1024

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	src := analysis.NewSource(cfg.AnalysisSeed)
	var namer analysis.LocationNamer = analysis.NewMockNamer(src)

	// Reverse geocoding of the results location (feature-flagged via
	// MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoding cache", "error", err)
			os.Exit(1)
		}
		namer = analysis.NewGeocodingNamer(cached, namer, logger)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	runner := analysis.NewRunner(analysis.NewEngine(src), namer, nil, cfg.AnalysisDelay, logger, metrics)

	deps := wizard.Deps{
		Analyzer:      runner,
		Logger:        logger,
		Metrics:       metrics,
		MaxImageBytes: cfg.MaxImageBytes,
	}
	checkers := []sharedobs.ReadinessChecker{}

	var (
		dispatch *pipeline.Pipeline
		writer   *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		queue := pipeline.NewQueue(queueCapacity, cfg.BatchFlushInterval, nil, metrics)
		writer = kafkaadapter.NewWriter(cfg, logger)
		dispatch = pipeline.New(queue, writer, logger, metrics, cfg.BatchSize)
		deps.Publisher = queue
		checkers = append(checkers, dispatch)
		logger.Info("assessment events enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("assessment events disabled")
	}

	store := wizard.NewStore(deps, wizard.ClientCapabilities, nil, cfg.SessionTTL)
	checkers = append(checkers, store)

	handler := web.NewHandler(store, report.NewExporter(logger, metrics), nil, logger)
	app := web.NewApp(handler, web.AppConfig{MaxImageBytes: cfg.MaxImageBytes, RequestLog: true})

	ops := httpadapter.NewServer(cfg.OpsAddr, httpadapter.AllReady(checkers...), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("web api listening", "addr", cfg.HTTPAddr)
		return app.Listen(cfg.HTTPAddr, fiber.ListenConfig{DisableStartupMessage: true})
	})
	g.Go(func() error {
		if err := ops.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return store.Run(gctx) })
	if dispatch != nil {
		g.Go(func() error { return dispatch.Run(gctx) })
	}

	// Shut the listeners down once a signal arrives or any component fails.
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("web api shutdown error", "error", err)
		}
		if err := ops.Shutdown(shutdownCtx); err != nil {
			logger.Error("ops server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	logger.Info("shutdown complete")
}
