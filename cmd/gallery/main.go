// Copyright (c) 2026 Lumina. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command gallery is a headless browse shell for the Lumina image gallery.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (.env honored).
//  3. Construct the backend client, registry, event bus, and controller.
//  4. Start the controller's event loop.
//  5. Walk the gallery page by page up to the configured limit.
//  6. Shut down gracefully on SIGTERM/SIGINT.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/taibuivan/lumina/internal/gallery"
	"github.com/taibuivan/lumina/internal/platform/bus"
	"github.com/taibuivan/lumina/internal/platform/config"
	"github.com/taibuivan/lumina/internal/remote"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "lumina"))
	slog.SetDefault(log)

	log.Info("[Lumina] gallery_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	// A local .env is a development convenience; absence is not an error.
	if err := godotenv.Load(); err == nil {
		log.Info("env_file_loaded")
	}

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "lumina"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.Int("page_size", cfg.PageSize),
	)

	// ── 3. Wiring ─────────────────────────────────────────────────────────
	client := remote.NewClient(cfg.APIBaseURL, cfg.WarmupRatePerSecond, log)
	registry := gallery.NewRegistry(client, cfg.PageSize, cfg.WarmupPages, log)
	eventBus := bus.New[gallery.Event](log)
	defer eventBus.Close()

	controller := gallery.NewController(registry, client, eventBus, cfg.PageSize, log)

	// Root context cancelled by OS signal.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// ── 4. Event Loop ─────────────────────────────────────────────────────
	loopDone := make(chan struct{})
	go func() {
		controller.Run(ctx)
		close(loopDone)
	}()

	// Completed exports are persisted to the configured directory. The loop
	// ends when the bus closes.
	exportEvents := eventBus.Subscribe("export-writer", 4)
	exportDone := make(chan struct{})
	go func() {
		defer close(exportDone)
		for event := range exportEvents {
			if event.Kind != gallery.EventExportReady {
				continue
			}
			path, err := gallery.SaveBundle(cfg.ExportDir, event.Bundle)
			if err != nil {
				log.Error("export_write_failed", slog.Any("error", err))
				continue
			}
			log.Info("export_written",
				slog.String("path", path),
				slog.Int("archive_bytes", len(event.Bundle.Data)),
			)
		}
	}()

	// ── 5. Browse Session ─────────────────────────────────────────────────
	must(log, controller.Start(ctx), "load first page")

	for page := 2; page <= cfg.MaxPages && controller.HasMore(); page++ {
		if ctx.Err() != nil {
			break
		}
		loaded, err := controller.LoadMore(ctx)
		if err != nil || !loaded {
			break
		}
	}

	rows := controller.Rows()
	imageCount := 0
	for _, row := range rows {
		imageCount += len(row.Images)
	}

	log.Info("browse_session_complete",
		slog.Int("pages_loaded", controller.CurrentPage()),
		slog.Int("row_count", len(rows)),
		slog.Int("image_count", imageCount),
		slog.Bool("more_pages", controller.HasMore()),
	)

	if tags := registry.AvailableTags(ctx); len(tags) > 0 {
		log.Info("available_tags", slog.Any("tags", tags))
	}

	// ── 6. Shutdown ───────────────────────────────────────────────────────
	cancel()
	<-loopDone
	eventBus.Close()
	<-exportDone
	log.Info("gallery_stopped")
}

// must aborts startup on a non-nil error. Used only during wiring; runtime
// failures are handled by the controller and surfaced on the event bus.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failed",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
