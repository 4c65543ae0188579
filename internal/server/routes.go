package server

import (
	"github.com/go-chi/chi/v5"

	"github.com/renderlens/renderlens/internal/server/handlers"
)

// routes registers every endpoint on the given router. The router may
// be the root mux or a mux mounted under the configured base path.
func (s *Server) routes(r chi.Router) {
	renderHandler := handlers.NewRenderHandler(s.renderer, s.limiter, s.registry, s.logger)
	readiness := handlers.NewReadinessHandler(s.cfg.DataDir, s.logger)
	stats := handlers.NewStatsHandler(s.sessions, s.batcher)
	debug := handlers.NewDebugConfigHandler(s.cfg.Server.BasePath, s.cfg.Environment, s.cfg.IsProduction())

	r.Post("/manim/render", renderHandler.Render)
	r.Get("/manim/status", renderHandler.Status)

	r.Get("/health", handlers.Health)
	r.Get("/ready", readiness.Ready)
	r.Get("/metrics", handlers.Metrics(s.registry))
	r.Get("/version", handlers.VersionHandler)
	r.Get("/debug/config", debug.Config)
	r.Get("/api/stats/memory", stats.MemoryStats)
}
