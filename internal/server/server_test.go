package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/esgai/esgsearch/internal/config"
	"github.com/esgai/esgsearch/internal/server"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               0,
		Environment:        "test",
		APIPrefix:          "/api/v1",
		CORSOrigins:        []string{"http://localhost:3000"},
		APIKeyHeader:       "X-API-Key",
		APIKeys:            []string{"k1"},
		EnableAuth:         true,
		RateLimitPerMinute: 100,
		BaseURL:            baseURL,
		SupabaseAnonKey:    "anon",
		AgentTimeout:       config.DefaultAgentTimeout,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	comps := server.BuildComponents(context.Background(), cfg)
	t.Cleanup(comps.Close)
	return server.New(cfg, comps).Handler()
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var authed = map[string]string{
	"X-API-Key": "k1",
	"email":     "analyst@example.com",
	"password":  "pw",
}

func TestHealthIsPublic(t *testing.T) {
	h := newTestServer(t, testConfig("http://backend"))
	rr := do(h, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestAPIRequiresKey(t *testing.T) {
	h := newTestServer(t, testConfig("http://backend"))
	if rr := do(h, http.MethodGet, "/api/v1/tools", "", nil); rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d", rr.Code)
	}
	if rr := do(h, http.MethodGet, "/api/v1/tools", "", authed); rr.Code != http.StatusOK {
		t.Errorf("with key: status = %d", rr.Code)
	}
}

func TestInvokeThroughRouter(t *testing.T) {
	var gotPath, gotBody string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotPath, gotBody = r.URL.Path, string(raw)
		io.WriteString(w, `{"answer":"ok"}`)
	}))
	defer backend.Close()

	h := newTestServer(t, testConfig(backend.URL))
	rr := do(h, http.MethodPost, "/api/v1/tools/Search_Internet_Tool/invoke", `{"query":"latest ESG regulations"}`, authed)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rr.Code, rr.Body.String())
	}
	if gotPath != "/internet_search" || gotBody != `{"query":"latest ESG regulations","maxResults":5}` {
		t.Errorf("backend saw %s %s", gotPath, gotBody)
	}
	var resp map[string]json.RawMessage
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if string(resp["result"]) != `{"answer":"ok"}` {
		t.Errorf("result = %s", resp["result"])
	}
}

func TestAgentDisabledWithoutKey(t *testing.T) {
	h := newTestServer(t, testConfig("http://backend"))
	rr := do(h, http.MethodPost, "/api/v1/query-agent", `{"prompt":"scope 3"}`, authed)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestInvocationsWithoutDatabase(t *testing.T) {
	h := newTestServer(t, testConfig("http://backend"))
	rr := do(h, http.MethodGet, "/api/v1/invocations", "", authed)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"count":0`) {
		t.Errorf("status = %d body = %s", rr.Code, rr.Body.String())
	}
}

func TestAuthDisabled(t *testing.T) {
	cfg := testConfig("http://backend")
	cfg.EnableAuth = false
	h := newTestServer(t, cfg)
	if rr := do(h, http.MethodGet, "/api/v1/tools", "", nil); rr.Code != http.StatusOK {
		t.Errorf("status = %d", rr.Code)
	}
}
