// Package server composes the HTTP router from its collaborators and
// owns the listener plus the background timers those collaborators run.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/renderlens/renderlens/internal/config"
	"github.com/renderlens/renderlens/internal/metrics"
	"github.com/renderlens/renderlens/internal/ratelimit"
	"github.com/renderlens/renderlens/internal/realtime"
	"github.com/renderlens/renderlens/internal/render"
	"github.com/renderlens/renderlens/internal/server/handlers"
	servermw "github.com/renderlens/renderlens/internal/server/middleware"
)

// Deps carries the collaborators the factory wires together. Config and
// Renderer are required; every other field defaults to a working
// in-process implementation so tests can build a server from a config
// and a stub service alone.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Renderer render.Service
	Registry *metrics.Registry
	Limiter  *ratelimit.Limiter
	Sessions *realtime.SessionRegistry
	Batcher  *realtime.Batcher
}

// Server owns the router, the HTTP listener, and the release handles
// for the background timers created during construction (rate-limit
// janitor, batch flush loop).
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	router *chi.Mux
	server *http.Server

	renderer render.Service
	registry *metrics.Registry
	limiter  *ratelimit.Limiter
	sessions *realtime.SessionRegistry
	batcher  *realtime.Batcher

	stopJanitor func()
	closeOnce   sync.Once
}

// New builds the router and starts the collaborators' background
// timers. Callers must Close the returned server to release them.
func New(deps Deps) *Server {
	cfg := deps.Config

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := deps.Registry
	if registry == nil {
		registry = metrics.NewRegistry()
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.Options{
			MaxPerWindow: cfg.RateLimit.MaxPerWindow,
			Window:       cfg.RateLimit.Window,
		})
	}

	sessions := deps.Sessions
	if sessions == nil {
		sessions = realtime.NewSessionRegistry()
	}

	batcher := deps.Batcher
	if batcher == nil {
		batcher = realtime.NewBatcher(realtime.BatcherOptions{
			Interval: cfg.Batch.FlushInterval,
			Logger:   logger,
		})
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		renderer: deps.Renderer,
		registry: registry,
		limiter:  limiter,
		sessions: sessions,
		batcher:  batcher,
	}
	s.stopJanitor = limiter.StartJanitor(cfg.RateLimit.JanitorPeriod, cfg.RateLimit.JanitorGrace)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(servermw.RequestID)
	r.Use(servermw.Instrument(logger, registry))
	r.Use(servermw.Recovery(logger, registry))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	// chi propagates the parent's NotFound/MethodNotAllowed into the
	// mounted mux, so the JSON bodies hold under a sub-path too.
	if basePath := cfg.Server.BasePath; basePath == "/" {
		s.routes(r)
	} else {
		api := chi.NewRouter()
		s.routes(api)
		r.Mount(basePath, api)
	}
	s.router = r

	logger.Info("HTTP routes registered",
		zap.String("mount", handlers.MountDescription(cfg.Server.BasePath)))

	return s
}

// Start blocks on ListenAndServe until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.Info("Starting HTTP server",
		zap.String("addr", addr),
		zap.String("environment", s.cfg.Environment),
		zap.String("mount", handlers.MountDescription(s.cfg.Server.BasePath)))

	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Close releases the background timers created by New. Independent of
// Start; safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if s.stopJanitor != nil {
			s.stopJanitor()
		}
		if s.batcher != nil {
			s.batcher.Close()
		}
	})
}

// Handler exposes the composed router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
