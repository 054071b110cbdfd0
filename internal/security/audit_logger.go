package security

import (
	"crypto/sha256"
	"fmt"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogToolCall records a single search tool invocation
func (a *AuditLogger) LogToolCall(
	tool, email string,
	statusCode int,
	executionTimeMs int64,
	success bool,
	errMsg string,
) {
	if a == nil || !a.enabled {
		return
	}

	evt := log.Info().
		Str("event", "tool_audit").
		Str("tool", tool).
		Str("email_hash", HashIdentifier(email)).
		Int64("execution_time_ms", executionTimeMs).
		Bool("success", success)

	if statusCode != 0 {
		evt = evt.Int("upstream_status", statusCode)
	}
	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogAgentRequest records an agent request event
func (a *AuditLogger) LogAgentRequest(
	prompt, caller string,
	toolsUsed []string,
	validationPassed bool,
	executionTimeMs int64,
) {
	if a == nil || !a.enabled {
		return
	}

	log.Info().
		Str("event", "agent_audit").
		Str("prompt_hash", HashIdentifier(prompt)).
		Str("caller_hash", HashIdentifier(caller)).
		Strs("tools_used", toolsUsed).
		Bool("validation_passed", validationPassed).
		Int64("execution_time_ms", executionTimeMs).
		Msg("agent audit")
}

// HashIdentifier returns the first 16 hex chars of the SHA-256 of s.
// Empty input hashes to an empty string.
func HashIdentifier(s string) string {
	if s == "" {
		return ""
	}
	return hashStr(s)[:16]
}

func hashStr(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h)
}
