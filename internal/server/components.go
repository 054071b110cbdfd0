package server

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/agent"
	"github.com/esgai/esgsearch/internal/config"
	"github.com/esgai/esgsearch/internal/security"
	"github.com/esgai/esgsearch/internal/service"
	"github.com/esgai/esgsearch/internal/store"
	"github.com/esgai/esgsearch/internal/tools"
)

// Components are the long-lived services shared by the HTTP API and the MCP
// server
type Components struct {
	Client      *service.SearchClient
	Recorder    store.Recorder
	Persistence bool
	Audit       *security.AuditLogger
	Factory     *tools.Factory
	Agent       *agent.SearchHandler // nil when no LLM key is configured
}

// BuildComponents wires services from cfg. A database that cannot be reached
// degrades to a no-op recorder instead of failing startup.
func BuildComponents(ctx context.Context, cfg *config.Config) *Components {
	c := &Components{
		Client: service.NewSearchClient(cfg.BaseURL, cfg.SupabaseAnonKey, cfg.XRegion, cfg.SearchTimeoutDuration()),
		Audit:  security.NewAuditLogger(cfg.EnableAuditLogging),
	}

	c.Recorder = store.NopRecorder{}
	if cfg.DatabaseURL != "" {
		rec, err := store.Connect(ctx, cfg.DatabaseURL, store.WithTableName(cfg.InvocationTable))
		if err != nil {
			log.Warn().Err(err).Msg("Postgres unavailable - invocation log disabled")
		} else {
			c.Recorder = rec
			c.Persistence = true
		}
	} else {
		log.Warn().Msg("DATABASE_URL not set - invocation log disabled")
	}

	c.Factory = tools.NewFactory(c.Client, c.Audit, c.Recorder)

	if cfg.AnthropicAPIKey != "" {
		var piiKeywords []string
		if cfg.EnablePIIDetection {
			piiKeywords = cfg.PIIKeywords
		}
		c.Agent = agent.NewSearchHandler(
			agent.NewSearchAgent(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.AnthropicBaseURL),
			c.Factory,
			service.NewIntentRouter(),
			security.NewPIIDetector(piiKeywords),
			security.NewPromptValidator(),
			c.Audit,
		)
	} else {
		log.Warn().Msg("ANTHROPIC_API_KEY not set - AI agent disabled")
	}

	log.Info().
		Bool("search_backend", c.Client.Configured()).
		Bool("persistence", c.Persistence).
		Bool("agent_enabled", c.Agent != nil).
		Bool("auth_enabled", cfg.EnableAuth && len(cfg.APIKeys) > 0).
		Bool("audit_logging", cfg.EnableAuditLogging).
		Bool("pii_detection", cfg.EnablePIIDetection).
		Msg("service configuration")

	return c
}

// Close releases the database pool
func (c *Components) Close() {
	if c.Recorder != nil {
		c.Recorder.Close()
	}
}
