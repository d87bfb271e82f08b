package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/haas/internal/api/handler"
	mw "github.com/edvin/haas/internal/api/middleware"
	"github.com/edvin/haas/internal/core"
)

// Pool is the part of *pgxpool.Pool the server uses outside of the services.
type Pool interface {
	mw.KeyStore
	mw.Execer
	Ping(ctx context.Context) error
}

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	services    *core.Services
	corePool    Pool
	auditLogger *mw.AuditLogger
}

func NewServer(logger zerolog.Logger, corePool Pool, services *core.Services) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		services:    services,
		corePool:    corePool,
		auditLogger: mw.NewAuditLogger(corePool, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.corePool))
		r.Use(s.auditLogger.Middleware)

		environment := handler.NewEnvironment(s.services.Environment)
		r.Get("/environments", environment.List)
		r.Post("/environments", environment.Create)
		r.Get("/environments/{id}", environment.Get)
		r.Put("/environments/{id}", environment.Update)
		r.Delete("/environments/{id}", environment.Delete)

		herd := handler.NewHerd(s.services.Herd)
		r.Get("/herds", herd.List)
		r.Post("/herds", herd.Create)
		r.Get("/herds/{id}", herd.Get)
		r.Put("/herds/{id}", herd.Update)
		r.Delete("/herds/{id}", herd.Delete)

		server := handler.NewServer(s.services.Server)
		r.Get("/servers", server.List)
		r.Post("/servers", server.Create)
		r.Get("/servers/{id}", server.Get)
		r.Put("/servers/{id}", server.Update)
		r.Delete("/servers/{id}", server.Delete)

		// Action routes are registered before /instances/{id} patterns so
		// "actions" is never taken for an id.
		action := handler.NewAction(s.services.Orchestrator, s.services.Guard)
		r.Post("/instances/actions/{action}", action.Run)

		instance := handler.NewInstance(s.services.Instance, s.services.Resolver)
		r.Get("/instances", instance.List)
		r.Post("/instances", instance.Create)
		r.Get("/instances/{id}", instance.Get)
		r.Put("/instances/{id}", instance.Update)
		r.Delete("/instances/{id}", instance.Delete)
		r.Put("/instances/{id}/status", instance.ReportStatus)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close flushes pending audit entries.
func (s *Server) Close() {
	s.auditLogger.Close()
}
