package models

import "encoding/json"

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ToolInfo describes one registered tool for GET /api/v1/tools
type ToolInfo struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

// InvokeResponse is returned by POST /api/v1/tools/{tool_name}/invoke.
// Result is the backend JSON passed through untouched.
type InvokeResponse struct {
	Status          string          `json:"status"`
	Tool            string          `json:"tool"`
	Result          json.RawMessage `json:"result"`
	ExecutionTimeMs int64           `json:"execution_time_ms"`
}

// AgentResponse is returned by POST /api/v1/query-agent
type AgentResponse struct {
	Status        string                 `json:"status"`
	Prompt        string                 `json:"prompt"`
	Answer        *string                `json:"answer,omitempty"`
	AgentMetadata map[string]interface{} `json:"agent_metadata"`
}
