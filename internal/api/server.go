// Package api exposes the patient registry over HTTP: gin routing,
// request handlers, and the WebSocket event stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/neurocare-patient-server/internal/audit"
	"github.com/neurocare-patient-server/internal/cache"
	"github.com/neurocare-patient-server/internal/database"
	"github.com/neurocare-patient-server/internal/domain"
	"github.com/neurocare-patient-server/internal/middleware"
	"github.com/neurocare-patient-server/internal/service"
)

// Dependencies bundles the collaborators the server needs.
type Dependencies struct {
	Patients    *service.PatientService
	Assessments *service.AssessmentService
	Screenings  *service.ScreeningService
	Scans       *service.ScanService
	Reports     *service.ReportService
	PDF         *service.PDFRenderer
	Hub         *EventHub
	DB          *database.DB
	Cache       cache.ReportCache
	Audit       audit.Store
}

// Server is the HTTP front of the registry.
type Server struct {
	config *domain.Config
	logger *logrus.Logger
	router *gin.Engine
	server *http.Server

	patients    *service.PatientService
	assessments *service.AssessmentService
	screenings  *service.ScreeningService
	scans       *service.ScanService
	reports     *service.ReportService
	pdf         *service.PDFRenderer
	hub         *EventHub
	db          *database.DB
	cache       cache.ReportCache
	audit       audit.Store
}

// NewServer creates the HTTP server and wires routes and middleware.
func NewServer(config *domain.Config, deps Dependencies, logger *logrus.Logger) *Server {
	if config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))

	s := &Server{
		config:      config,
		logger:      logger,
		router:      router,
		patients:    deps.Patients,
		assessments: deps.Assessments,
		screenings:  deps.Screenings,
		scans:       deps.Scans,
		reports:     deps.Reports,
		pdf:         deps.PDF,
		hub:         deps.Hub,
		db:          deps.DB,
		cache:       deps.Cache,
		audit:       deps.Audit,
	}
	if s.audit == nil {
		s.audit = audit.NewNopStore()
	}

	s.setupRoutes()

	return s
}

// Router exposes the gin engine, mainly for handler tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("starting server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.Use(middleware.Auth(s.config.Auth))
	if s.config.RateLimit.Enabled {
		api.Use(middleware.NewRateLimiter(s.config.RateLimit).Handler())
	}
	{
		api.POST("/patients", s.handleRegisterPatient)
		api.GET("/patients", s.handleListPatients)
		api.GET("/patients/:patientId", s.handleGetPatient)
		api.PUT("/patients/:patientId", s.handleUpdatePatient)
		api.DELETE("/patients/:patientId", s.handleDeletePatient)

		api.GET("/validate-patient/:patientId", s.handleValidatePatient)

		api.POST("/mmse-assessments", s.handleCreateAssessment)
		api.GET("/mmse-assessments/:patientId", s.handleListAssessments)

		api.POST("/screenings", s.handleCreateScreening)
		api.GET("/screenings/:patientId", s.handleListScreenings)

		api.POST("/mri-scans", s.handleCreateScan)
		api.GET("/mri-scans/:patientId", s.handleListScans)

		api.GET("/patient-report/:patientId", s.handleGetReport)
		api.GET("/patient-report/:patientId/download", s.handleDownloadReport)
		api.GET("/patient-report/:patientId/pdf", s.handleDownloadReportPDF)

		api.GET("/audit", s.handleListAudit)
		api.GET("/audit/export", s.handleExportAudit)

		api.GET("/events", s.handleEvents)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
}

// handleHealth reports liveness plus database and cache reachability.
// An unreachable cache degrades the report but not the status code, the
// service stays functional without it.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "healthy"
	dbStatus := "ok"
	if s.db != nil {
		if err := s.db.Health(ctx); err != nil {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			dbStatus = "unreachable"
		}
	}

	cacheStatus := "disabled"
	if s.cache != nil {
		cacheStatus = "ok"
		if err := s.cache.Ping(ctx); err != nil {
			cacheStatus = "unreachable"
		}
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"database":  dbStatus,
		"cache":     cacheStatus,
		"timestamp": time.Now().UTC(),
	})
}
