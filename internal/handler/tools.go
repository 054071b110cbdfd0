package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/security"
	"github.com/esgai/esgsearch/internal/service"
	"github.com/esgai/esgsearch/internal/tools"
)

// ToolsHandler exposes the search tools directly over HTTP
type ToolsHandler struct {
	factory *tools.Factory
}

func NewToolsHandler(factory *tools.Factory) *ToolsHandler {
	return &ToolsHandler{factory: factory}
}

// ListTools handles GET /api/v1/tools
func (h *ToolsHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	defs := h.factory.Definitions()
	infos := make([]models.ToolInfo, len(defs))
	for i, t := range defs {
		infos[i] = models.ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"tools":  infos,
		"count":  len(infos),
	})
}

// Invoke handles POST /api/v1/tools/{tool_name}/invoke. The body is the
// tool's argument object.
func (h *ToolsHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "tool_name")

	creds, err := credentialsFromRequest(r)
	if err != nil {
		models.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	tool, ok := tools.Find(h.factory.ForCredentials(creds), name)
	if !ok {
		models.WriteError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}

	input, err := decodeArguments(r.Body)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	out, err := tool.Execute(r.Context(), input)
	execMs := time.Since(start).Milliseconds()
	if err != nil {
		code := statusForToolError(err)
		log.Warn().
			Err(err).
			Str("tool", name).
			Str("email", security.MaskEmail(creds.Email)).
			Int("status", code).
			Msg("tool invocation failed")
		models.WriteError(w, code, err.Error())
		return
	}

	models.WriteJSON(w, http.StatusOK, models.InvokeResponse{
		Status:          "success",
		Tool:            name,
		Result:          json.RawMessage(out),
		ExecutionTimeMs: execMs,
	})
}

// decodeArguments reads a JSON object, keeping numbers exact. An empty body
// yields an empty argument set so schema validation reports what is missing.
func decodeArguments(body io.Reader) (map[string]interface{}, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	input := map[string]interface{}{}
	if err := dec.Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return input, nil
}

// statusForToolError maps the tool error taxonomy onto HTTP statuses
func statusForToolError(err error) int {
	var (
		validationErr *tools.ValidationError
		statusErr     *service.HTTPStatusError
		networkErr    *service.NetworkError
		parseErr      *service.ParseError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &statusErr), errors.As(err, &networkErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
