package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/api"
	"github.com/neurocare-patient-server/internal/audit"
	"github.com/neurocare-patient-server/internal/cache"
	"github.com/neurocare-patient-server/internal/config"
	"github.com/neurocare-patient-server/internal/database"
	"github.com/neurocare-patient-server/internal/domain"
	"github.com/neurocare-patient-server/internal/repository"
	"github.com/neurocare-patient-server/internal/service"
	"github.com/neurocare-patient-server/pkg/inference"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(cfg.Logging)
	logger.WithField("environment", cfg.Environment).Info("Starting patient registry server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database and migrations
	db, err := database.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	migrator, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), "migrations", logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create migration runner")
	}
	if err := migrator.Up(); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	migrator.Close()

	store := repository.NewStore(db, logger)

	// Report cache
	var reportCache cache.ReportCache
	if cfg.Cache.Enabled {
		reportCache, err = cache.NewRedisReportCache(cfg.Cache)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
	} else {
		reportCache = cache.NewNopReportCache()
	}
	defer reportCache.Close()

	// Audit trail
	auditStore, err := newAuditStore(cfg, configManager.GetDatabaseURL())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open audit store")
	}
	defer auditStore.Close()

	// MRI classifier
	var classifier domain.Classifier
	if cfg.Inference.Mode == "remote" {
		classifier = inference.NewRemoteClassifier(cfg.Inference, logger)
	} else {
		classifier = inference.NewStubClassifier(cfg.Inference.ModelVersion)
	}

	// Services
	lookup, err := service.NewPatientLookup(store, service.DefaultLookupCacheSize, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create patient lookup")
	}

	hub := api.NewEventHub(logger)
	patients := service.NewPatientService(store, store, lookup, reportCache, auditStore, hub, logger)
	assessments := service.NewAssessmentService(store, lookup, reportCache, auditStore, hub, logger)
	screenings := service.NewScreeningService(store, lookup, reportCache, auditStore, hub, logger)
	scans := service.NewScanService(store, lookup, classifier, reportCache, auditStore, hub, logger)
	reports := service.NewReportService(store, reportCache, auditStore, logger)

	server := api.NewServer(cfg, api.Dependencies{
		Patients:    patients,
		Assessments: assessments,
		Screenings:  screenings,
		Scans:       scans,
		Reports:     reports,
		PDF:         service.NewPDFRenderer(""),
		Hub:         hub,
		DB:          db,
		Cache:       reportCache,
		Audit:       auditStore,
	}, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, stopping server")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Patient registry server stopped")
}

// newLogger builds the logrus logger from config.
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output == "stderr" {
		logger.SetOutput(os.Stderr)
	}

	return logger
}

// newAuditStore selects the audit backend from config.
func newAuditStore(cfg *domain.Config, databaseURL string) (audit.Store, error) {
	switch cfg.Audit.Driver {
	case "sqlite":
		return audit.NewSQLiteStore(cfg.Audit.SQLitePath)
	case "postgres":
		return audit.NewPostgresStoreFromURL(databaseURL)
	default: // "none", auditing disabled
		return audit.NewNopStore(), nil
	}
}
