// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package main is the entry point for the Vigil server.
//
// Vigil ingests network log files, scores each record against an external
// ML threat-scoring service, persists the resulting predictions, raises
// alerts for high-confidence threats, and streams alert activity to
// connected WebSocket clients.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, config file, environment (Koanf v2)
//  2. Store: BadgerDB key-value store for records, predictions and alerts
//  3. Broadcaster: in-process pub/sub for alert events (Watermill)
//  4. Alert manager and analysis engine
//  5. Supervisor tree: WebSocket hub, alert bridge, stale sweeper, HTTP server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables with the VIGIL_ prefix
//   - Config file (config.yaml, or VIGIL_CONFIG_PATH)
//   - Built-in defaults
//
// The external scoring service is reached at VIGIL_SCORING_URL; requests
// POST to its /predict endpoint.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes WebSocket clients and the store
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atelier-sec/vigil/internal/alerting"
	"github.com/atelier-sec/vigil/internal/api"
	"github.com/atelier-sec/vigil/internal/config"
	"github.com/atelier-sec/vigil/internal/engine"
	"github.com/atelier-sec/vigil/internal/ingest"
	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/models"
	"github.com/atelier-sec/vigil/internal/notify"
	"github.com/atelier-sec/vigil/internal/scoring"
	"github.com/atelier-sec/vigil/internal/store"
	"github.com/atelier-sec/vigil/internal/supervisor"
	"github.com/atelier-sec/vigil/internal/supervisor/services"
	ws "github.com/atelier-sec/vigil/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors surface through the default logger.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("db_path", cfg.Database.Path).
		Str("scoring_url", cfg.Scoring.BaseURL).
		Msg("Starting Vigil")

	st, err := store.Open(store.Config{
		Path:       cfg.Database.Path,
		InMemory:   cfg.Database.InMemory,
		SyncWrites: cfg.Database.SyncWrites,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	broadcaster := notify.NewBroadcaster()
	defer func() {
		if err := broadcaster.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing broadcaster")
		}
	}()

	manager := alerting.NewManager(st, broadcaster)

	scorer := scoring.NewHTTPScorer(scoring.HTTPConfig{
		BaseURL:            cfg.Scoring.BaseURL,
		Timeout:            cfg.Scoring.Timeout,
		BreakerMaxFailures: cfg.Scoring.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Scoring.BreakerOpenTimeout,
	})

	eng := engine.New(scorer, st, manager, engine.Config{
		Policy: engine.AlertPolicy{
			MinConfidence: cfg.Alerting.MinConfidence,
			MinSeverity:   models.ThreatSeverity(cfg.Alerting.MinSeverity),
		},
		Concurrency:     cfg.Scoring.Concurrency,
		ScoreRatePerSec: cfg.Scoring.RatePerSec,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sutureslog needs slog; the adapter bridges it to zerolog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	hub := ws.NewHub()
	bridge := ws.NewSubscriber(hub, broadcaster)
	sweeper := alerting.NewSweeper(manager, cfg.Alerting.SweepInterval, cfg.Alerting.StaleThreshold)

	timestampPolicy := ingest.FallbackNow
	if cfg.Ingest.TimestampFallback == "discard" {
		timestampPolicy = ingest.FallbackDiscard
	}

	handler := api.NewHandler(st, eng, manager, hub, api.HandlerConfig{
		CORSOrigins:        cfg.Server.CORSOrigins,
		MaxUploadBytes:     cfg.Server.MaxUploadBytes,
		ScoringConcurrency: cfg.Scoring.Concurrency,
		TimestampPolicy:    timestampPolicy,
	})
	middleware := api.NewMiddleware(api.MiddlewareConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, middleware),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Upload parsing and scoring dispatch must fit the write window.
		WriteTimeout: 2 * cfg.Server.Timeout,
	}

	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(bridge)
	tree.AddPipelineService(sweeper)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Vigil stopped gracefully")
}
