package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/config"
	"github.com/esgai/esgsearch/internal/middleware"
	"github.com/esgai/esgsearch/internal/models"
)

type Server struct {
	cfg        *config.Config
	components *Components
	http       *http.Server
	limiter    *middleware.RateLimiter
}

func New(cfg *config.Config, components *Components) *Server {
	s := &Server{cfg: cfg, components: components}

	s.http = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.setupRoutes(),
		ReadTimeout: 15 * time.Second,
		// Agent requests may run up to the maximum agent timeout
		WriteTimeout: (models.MaxAgentTimeout + 30) * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("graceful shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		s.components.Close()
		log.Info().Msg("components closed")
		return err
	case err := <-errCh:
		s.components.Close()
		return err
	}
}
