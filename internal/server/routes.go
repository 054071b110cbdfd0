package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/config"
	"github.com/esgai/esgsearch/internal/handler"
	"github.com/esgai/esgsearch/internal/middleware"
)

func (s *Server) setupRoutes() http.Handler {
	cfg := s.cfg
	c := s.components

	if cfg.EnableAuth && len(cfg.APIKeys) == 0 {
		log.Warn().Msg("auth enabled but no API keys configured - API routes are open")
	}

	// ─── Handlers ────────────────────────────────────────────────────────────────
	healthH := handler.NewHealthHandler(c.Client, c.Recorder, c.Persistence, c.Agent != nil)
	toolsH := handler.NewToolsHandler(c.Factory)
	invocationsH := handler.NewInvocationsHandler(c.Recorder)
	agentH := handler.NewAgentHandler(c.Agent, cfg.AgentTimeout)

	s.limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// ─── Router ──────────────────────────────────────────────────────────────────
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins, config.DefaultCORSMaxAge)))
	r.Use(chiMiddleware.RealIP)

	// Public routes
	r.Get("/health", healthH.Health)
	r.Get("/", healthH.Health)

	// Auth + rate limiting for API routes
	apiMiddleware := []func(http.Handler) http.Handler{
		s.limiter.Middleware,
	}
	if cfg.EnableAuth && len(cfg.APIKeys) > 0 {
		apiMiddleware = append(apiMiddleware, middleware.Auth(cfg.APIKeys, cfg.APIKeyHeader))
	}

	r.Group(func(r chi.Router) {
		for _, m := range apiMiddleware {
			r.Use(m)
		}

		r.Route(cfg.APIPrefix, func(r chi.Router) {
			r.Get("/tools", toolsH.ListTools)
			r.Post("/tools/{tool_name}/invoke", toolsH.Invoke)
			r.Get("/invocations", invocationsH.Recent)
			r.Post("/query-agent", agentH.QueryAgent)
		})
	})

	return r
}
