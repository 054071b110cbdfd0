package handler

import (
	"net/http"
	"strconv"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/store"
)

// InvocationsHandler lists recorded tool invocations
type InvocationsHandler struct {
	recorder store.Recorder
}

func NewInvocationsHandler(recorder store.Recorder) *InvocationsHandler {
	return &InvocationsHandler{recorder: recorder}
}

// Recent handles GET /api/v1/invocations?limit=N
func (h *InvocationsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			models.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	invs, err := h.recorder.Recent(r.Context(), limit)
	if err != nil {
		models.WriteError(w, http.StatusInternalServerError, "failed to list invocations: "+err.Error())
		return
	}
	if invs == nil {
		invs = []store.Invocation{}
	}
	models.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "success",
		"invocations": invs,
		"count":       len(invs),
	})
}
