package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/esgai/esgsearch/internal/agent"
	"github.com/esgai/esgsearch/internal/models"
)

// AgentHandler handles POST /api/v1/query-agent
type AgentHandler struct {
	search         *agent.SearchHandler
	defaultTimeout int
}

// NewAgentHandler accepts a nil SearchHandler when no LLM is configured.
// defaultTimeout (seconds) applies to requests that set none.
func NewAgentHandler(search *agent.SearchHandler, defaultTimeout int) *AgentHandler {
	return &AgentHandler{search: search, defaultTimeout: defaultTimeout}
}

// QueryAgent handles POST /api/v1/query-agent
func (h *AgentHandler) QueryAgent(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		models.WriteError(w, http.StatusServiceUnavailable, "agent is not configured")
		return
	}

	var req models.AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Timeout == 0 {
		req.Timeout = h.defaultTimeout
	}
	req.SetDefaults()

	if req.Prompt == "" {
		models.WriteError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	creds, err := credentialsFromRequest(r)
	if err != nil {
		models.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	resp, err := h.search.Handle(r.Context(), &req, creds)
	if err != nil {
		if resp != nil {
			models.WriteJSON(w, http.StatusBadRequest, resp)
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			models.WriteError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		models.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, resp)
}
