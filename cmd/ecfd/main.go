package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auditpg "3tcapital/ms_ecf_core/internal/adapters/audit/postgres"
	ecfhttp "3tcapital/ms_ecf_core/internal/adapters/http/ecf"
	healthhttp "3tcapital/ms_ecf_core/internal/adapters/http/health"
	seedhttp "3tcapital/ms_ecf_core/internal/adapters/http/seed"
	appecf "3tcapital/ms_ecf_core/internal/application/ecf"
	apphealth "3tcapital/ms_ecf_core/internal/application/health"
	appseed "3tcapital/ms_ecf_core/internal/application/seed"
	"3tcapital/ms_ecf_core/internal/core/audit"
	"3tcapital/ms_ecf_core/internal/infrastructure/bootstrap"
	"3tcapital/ms_ecf_core/internal/infrastructure/config"
	"3tcapital/ms_ecf_core/internal/infrastructure/database"
	"3tcapital/ms_ecf_core/internal/infrastructure/http/server"
	"3tcapital/ms_ecf_core/internal/infrastructure/logger"
	"3tcapital/ms_ecf_core/internal/infrastructure/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checkers []apphealth.Checker

	// Audit trail
	var auditRepo audit.Repository
	if cfg.Database.Enabled() {
		pool, err := database.NewPool(ctx, database.FromSettings(cfg.Database))
		if err != nil {
			log.Warn("Failed to connect to database, audit trail will be disabled",
				"error", err,
				"host", cfg.Database.Host,
				"database", cfg.Database.Database,
				"user", cfg.Database.User,
				"password_set", cfg.Database.Password != "")
		} else {
			defer pool.Close()
			if err := database.RunMigrations(ctx, pool, log); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			checkers = append(checkers, database.NewChecker(pool))
			if cfg.Audit.Enabled {
				auditRepo = auditpg.NewRepositoryWithLogger(pool, log)
			}
			log.Info("Database connection established", "database", cfg.Database.Database)
		}
	} else {
		log.Info("Database not configured, audit trail will be disabled")
	}

	if cfg.Audit.Enabled && auditRepo != nil {
		log.Info("Audit trail configuration: ENABLED", "max_payload_size", cfg.Audit.MaxPayloadSize)
	} else {
		log.Warn("Audit trail configuration: DISABLED",
			"audit_enabled_config", cfg.Audit.Enabled,
			"audit_repo_available", auditRepo != nil,
		)
	}

	// Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	// Generation
	generator, err := bootstrap.NewGenerator(cfg.ECF)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}

	opts := []appecf.Option{
		appecf.WithMetrics(m),
		appecf.WithWorkers(cfg.ECF.BatchWorkers),
	}
	if auditRepo != nil {
		opts = append(opts, appecf.WithAudit(auditRepo, cfg.Audit.MaxPayloadSize))
	}

	validator, validatorName, err := bootstrap.NewValidator(cfg.Validation, log)
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}
	if validator != nil {
		opts = append(opts, appecf.WithValidator(validatorName, validator))
		if checker, ok := validator.(apphealth.Checker); ok {
			checkers = append(checkers, checker)
		}
	}
	log.Info("e-CF generation configured",
		"unknown_type_policy", cfg.ECF.UnknownTypePolicy,
		"time_zone", cfg.ECF.TimeZone,
		"validation_mode", validatorName,
		"batch_workers", cfg.ECF.BatchWorkers,
	)

	ecfService := appecf.NewService(generator, log, opts...)
	ecfHandler := ecfhttp.NewHandler(ecfService, auditRepo, ecfhttp.Limits{
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
		MaxBatchSize: cfg.ECF.MaxBatchSize,
	}, log)

	seedHandler := seedhttp.NewHandler(appseed.NewService(nil, m, log), log)

	healthService := apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, checkers...)
	healthHandler := healthhttp.NewHandler(healthService)

	serverOpts := server.Options{
		Config:             cfg,
		Logger:             log,
		HealthHandler:      http.HandlerFunc(healthHandler.Status),
		GenerateHandler:    http.HandlerFunc(ecfHandler.Generate),
		BatchHandler:       http.HandlerFunc(ecfHandler.GenerateBatch),
		GenerationsHandler: http.HandlerFunc(ecfHandler.Generations),
		SeedHandler:        http.HandlerFunc(seedHandler.Issue),
	}
	if cfg.Metrics.Enabled {
		serverOpts.MetricsHandler = promhttp.Handler()
	}

	srv, err := server.New(serverOpts)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer srv.Close()

	log.Info("Starting HTTP server", "port", cfg.HTTP.Port)
	return srv.Run(ctx)
}
