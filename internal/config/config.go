package config

import (
	"encoding/json"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting (inbound API only)
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Search backend
	BaseURL         string `json:"base_url"`
	SupabaseAnonKey string `json:"supabase_anon_key"`
	XRegion         string `json:"x_region"`
	SearchTimeout   int    `json:"search_timeout"` // seconds, 0 = no deadline

	// Security
	EnablePIIDetection bool     `json:"enable_pii_detection"`
	PIIKeywords        []string `json:"pii_keywords"`
	EnableAuditLogging bool     `json:"enable_audit_logging"`

	// Postgres invocation log
	DatabaseURL     string `json:"database_url"`
	InvocationTable string `json:"invocation_table"`

	// AI / LLM
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"`
	AnthropicModel   string `json:"anthropic_model"`
	AgentTimeout     int    `json:"agent_timeout"`

	// Credentials bound to the tools served over MCP stdio
	MCPEmail    string `json:"mcp_email"`
	MCPPassword string `json:"mcp_password"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		APIPrefix:          DefaultAPIPrefix,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        DefaultCORSOrigins,
		APIKeyHeader:       "X-API-Key",
		EnableAuth:         true,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		EnablePIIDetection: true,
		PIIKeywords:        DefaultPIIKeywords,
		EnableAuditLogging: true,
		InvocationTable:    DefaultInvocationTable,
		AnthropicModel:     DefaultAnthropicModel,
		AgentTimeout:       DefaultAgentTimeout,
	}

	if path := getEnv("ESGSEARCH_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Validate reports settings the service cannot start without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("BASE_URL is required")
	}
	if c.SearchTimeout < 0 {
		return errors.New("SEARCH_TIMEOUT_SECONDS must not be negative")
	}
	return nil
}

// SearchTimeoutDuration is zero when no deadline is configured
func (c *Config) SearchTimeoutDuration() time.Duration {
	return time.Duration(c.SearchTimeout) * time.Second
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == DefaultEnvironment
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("ESGSEARCH_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("ESGSEARCH_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("ESGSEARCH_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("ESGSEARCH_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("ESGSEARCH_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}

	// SUPABASE_ANON_KEY and X_REGION may be set to empty on purpose
	if v := getEnv("BASE_URL", ""); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := os.LookupEnv("SUPABASE_ANON_KEY"); ok {
		cfg.SupabaseAnonKey = v
	}
	if v, ok := os.LookupEnv("X_REGION"); ok {
		cfg.XRegion = v
	}
	if v := getEnv("SEARCH_TIMEOUT_SECONDS", ""); v != "" {
		if t, err := strconv.Atoi(v); err == nil {
			cfg.SearchTimeout = t
		}
	}

	if v := getEnv("ENABLE_PII_DETECTION", ""); v != "" {
		cfg.EnablePIIDetection = v == "true" || v == "1"
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = v == "true" || v == "1"
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.DatabaseURL = v
	}

	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("ANTHROPIC_MODEL", ""); v != "" {
		cfg.AnthropicModel = v
	}

	if v := getEnv("ESG_EMAIL", ""); v != "" {
		cfg.MCPEmail = v
	}
	if v := getEnv("ESG_PASSWORD", ""); v != "" {
		cfg.MCPPassword = v
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
