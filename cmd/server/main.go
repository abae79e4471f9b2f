// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

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

	"github.com/tomtom215/keywordscout/internal/api"
	"github.com/tomtom215/keywordscout/internal/config"
	"github.com/tomtom215/keywordscout/internal/coverage"
	"github.com/tomtom215/keywordscout/internal/cycle"
	"github.com/tomtom215/keywordscout/internal/database"
	"github.com/tomtom215/keywordscout/internal/logging"
	"github.com/tomtom215/keywordscout/internal/selection"
	"github.com/tomtom215/keywordscout/internal/signals"
	"github.com/tomtom215/keywordscout/internal/supervisor"
	"github.com/tomtom215/keywordscout/internal/supervisor/services"
	"github.com/tomtom215/keywordscout/internal/unmet"
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("lease_path", cfg.Lease.Path).
		Bool("nats_embedded", cfg.Dispatch.Embedded).
		Int("cycle_budget", cfg.Selection.CycleBudget).
		Msg("Starting Keyword Scout")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	leaser, closeLeaser, err := openLeaser(&cfg.Lease)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open lease store")
	}
	defer closeLeaser()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg, err := initMessaging(ctx, &cfg.Dispatch)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize messaging")
	}
	defer msg.close(cfg.Server.ShutdownTimeout)

	// === ENGINE ===

	normalizer, err := selection.NewNormalizer(cfg.Selection.Normalization)
	if err != nil {
		logging.Fatal().Err(err).Msg("Invalid keyword normalization")
	}

	resolver := coverage.NewResolver(db, cfg.Coverage, logging.WithComponent("coverage"))
	aggregator := signals.NewAggregator(db, db, cfg.Signals, logging.WithComponent("signals"))
	tracker := unmet.NewTracker(db, db, &cfg.Selection, normalizer,
		cfg.Coverage.DefaultSafeIntervalDays, logging.WithComponent("unmet"))

	orchestrator, err := cycle.NewOrchestrator(cycle.Deps{
		Resolver:   resolver,
		Leaser:     leaser,
		Catalog:    db,
		Signals:    aggregator,
		Unmet:      tracker,
		Dispatcher: msg.publisher,
		Store:      db,
	}, cfg.Cycle, &cfg.Selection, logging.WithComponent("cycle"))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create cycle orchestrator")
	}

	launcher := services.NewLauncher(orchestrator, cfg.Scheduler.MaxConcurrentCycles,
		cfg.Scheduler.CycleTimeout, logging.Logger())

	// === SUPERVISOR TREE ===

	// Bridges zerolog to slog for sutureslog.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddMaintenanceService(services.NewContributionPrunerService(tracker,
		cfg.Scheduler.PruneInterval, cfg.Scheduler.ContributionRetention, logging.Logger()))

	tree.AddMessagingService(services.NewOutcomeConsumerService(
		msg.outcomeConsumerFactory(orchestrator, tracker), logging.Logger()))

	tree.AddSchedulingService(services.NewCycleSchedulerService(db, launcher,
		cfg.Scheduler.Interval, logging.Logger()))
	if cfg.Scheduler.HotSpikeEnabled {
		tree.AddSchedulingService(services.NewHotSpikeService(tracker, launcher,
			cfg.Scheduler.HotSpikeInterval, cfg.Scheduler.HotSpikeMinGap, logging.Logger()))
		logging.Info().Dur("min_gap", cfg.Scheduler.HotSpikeMinGap).Msg("Hot-spike trigger enabled")
	}

	if cfg.Server.Enabled {
		checks := []api.ReadinessCheck{{Name: "duckdb", Check: db.Ping}}
		checks = append(checks, msg.readinessChecks()...)

		handler := api.NewHandler(db, checks...)
		server := &http.Server{
			Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: api.NewRouter(handler, api.RouterConfig{
				DebugRateLimit:  cfg.Server.DebugRateLimit,
				DebugRateWindow: cfg.Server.DebugRateWindow,
				CORSOrigins:     cfg.Server.CORSOrigins,
			}),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  60 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("Ops HTTP server service added")
	}

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
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
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
