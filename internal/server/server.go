// Package server exposes analyses, the scan log and metrics over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"BistRadar/internal/metrics"
	"BistRadar/internal/model"
	"BistRadar/internal/recorder"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Analyzer runs analyses. *engine.Engine satisfies it.
type Analyzer interface {
	AnalyzeOne(ctx context.Context, symbol string, mode model.Mode) (*model.SymbolReport, error)
	AnalyzeUniverse(ctx context.Context, mode model.Mode) (*model.UniverseReport, error)
}

// Config holds server configuration
type Config struct {
	Addr           string
	Log            zerolog.Logger
	Analyzer       Analyzer
	Recorder       recorder.Recorder
	Metrics        *metrics.Registry
	MarketSuffix   string
	RequestTimeout time.Duration // upper bound per request; universe scans need minutes
}

// Server represents the HTTP server
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	analyzer Analyzer
	recorder recorder.Recorder
	metrics  *metrics.Registry
	suffix   string
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 3 * time.Minute
	}
	if cfg.Recorder == nil {
		cfg.Recorder = recorder.NewNoopRecorder()
	}
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		analyzer: cfg.Analyzer,
		recorder: cfg.Recorder,
		metrics:  cfg.Metrics,
		suffix:   cfg.MarketSuffix,
	}

	s.setupMiddleware(cfg.RequestTimeout)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(timeout time.Duration) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(timeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/symbols/{symbol}", s.handleSymbol)
		r.Get("/universe", s.handleUniverse)
		r.Get("/scans", s.handleScans)
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting http server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down http server")
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
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
