// Package server provides the HTTP server and routing for riskboard.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/riskboard/internal/archive"
	"github.com/aristath/riskboard/internal/dashboard"
	"github.com/aristath/riskboard/internal/scheduler"
)

// Archiver publishes dashboard snapshots
type Archiver interface {
	Enabled() bool
	Publish(ctx context.Context, sessionID string, dashboard interface{}) (*archive.Receipt, error)
}

// JobLister reports background job status
type JobLister interface {
	Jobs() []scheduler.JobStatus
}

// CacheCounter reports persistent cache size; nil when the cache is off
type CacheCounter interface {
	Count(table string) (int64, error)
}

// HealthChecker probes the cache database; nil when the cache is off
type HealthChecker interface {
	QuickCheck(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	Sessions       *dashboard.SessionManager
	Dashboard      *dashboard.Service
	Archive        Archiver
	Jobs           JobLister
	Cache          CacheCounter
	CacheDB        HealthChecker
	Port           int
	DevMode        bool
	RequestTimeout time.Duration
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	port      int
	startedAt time.Time

	sessions  *dashboard.SessionManager
	dashboard *dashboard.Service
	archive   Archiver
	jobs      JobLister
	cache     CacheCounter
	cacheDB   HealthChecker
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		port:      cfg.Port,
		startedAt: time.Now(),
		sessions:  cfg.Sessions,
		dashboard: cfg.Dashboard,
		archive:   cfg.Archive,
		jobs:      cfg.Jobs,
		cache:     cfg.Cache,
		cacheDB:   cfg.CacheDB,
	}

	s.setupMiddleware(cfg.DevMode, cfg.RequestTimeout)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool, timeout time.Duration) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(timeout))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/system/status", s.handleSystemStatus)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/selection", s.handleUpdateSelection)
				r.Get("/dashboard", s.handleDashboard)
				r.Get("/risk/metrics", s.handleRiskMetrics)
				r.Get("/risk/series/{name}", s.handleRiskSeries)
				r.Get("/prices/{symbol}", s.handlePriceSeries)
				r.Get("/signals", s.handleSignals)
				r.Post("/archive", s.handleArchive)
				r.Post("/cache/invalidate", s.handleInvalidateCache)
			})
		})
	})
}

// ServeHTTP lets the server be mounted or exercised directly
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
