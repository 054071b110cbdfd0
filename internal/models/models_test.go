package models_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/esgai/esgsearch/internal/models"
)

func TestNewESGSearchBody(t *testing.T) {
	ids := []string{"doc1", "doc2"}
	body := models.NewESGSearchBody("carbon emissions", ids, 3)
	ids[0] = "mutated"

	b, _ := json.Marshal(body)
	want := `{"query":"carbon emissions","topK":3,"filter":{"rec_id":{"$in":["doc1","doc2"]}}}`
	if string(b) != want {
		t.Errorf("body = %s\nwant %s", b, want)
	}
}

func TestAgentRequestDefaults(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, models.DefaultAgentTimeout},
		{3, models.MinAgentTimeout},
		{45, 45},
		{9999, models.MaxAgentTimeout},
	}
	for _, tt := range tests {
		req := models.AgentRequest{Prompt: "p", Timeout: tt.in}
		req.SetDefaults()
		if req.Timeout != tt.want {
			t.Errorf("SetDefaults(%d) = %d, want %d", tt.in, req.Timeout, tt.want)
		}
	}
}

func TestWriteErrorEchoesRequestID(t *testing.T) {
	rr := httptest.NewRecorder()
	rr.Header().Set("X-Request-ID", "req-1")
	models.WriteError(rr, http.StatusBadGateway, "HTTP error: 500 Internal Server Error")

	var e models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatal(err)
	}
	if e.Status != "error" || e.Code != http.StatusBadGateway || e.RequestID != "req-1" {
		t.Errorf("error response = %+v", e)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestCredentialsNeverSerialized(t *testing.T) {
	b, _ := json.Marshal(models.Credentials{Email: "a@b.c", Password: "secret"})
	if string(b) != "{}" {
		t.Errorf("credentials leaked: %s", b)
	}
}
