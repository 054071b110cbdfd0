package tools_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/security"
	"github.com/esgai/esgsearch/internal/service"
	"github.com/esgai/esgsearch/internal/store"
	"github.com/esgai/esgsearch/internal/tools"
)

type backend struct {
	srv    *httptest.Server
	calls  atomic.Int32
	mu     sync.Mutex
	bodies []string
	emails []string
	paths  []string
}

func newBackend(t *testing.T, status int, resp string) *backend {
	t.Helper()
	b := &backend{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		raw, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, string(raw))
		b.emails = append(b.emails, r.Header.Get("email"))
		b.paths = append(b.paths, r.URL.Path)
		b.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, resp)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) client() *service.SearchClient {
	return service.NewSearchClient(b.srv.URL, "anon", "eu", 0)
}

func (b *backend) lastBody(t *testing.T) string {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.bodies) == 0 {
		t.Fatal("no request reached the backend")
	}
	return b.bodies[len(b.bodies)-1]
}

var creds = models.Credentials{Email: "analyst@example.com", Password: "pw"}

// ─── Search_ESG_Tool ──────────────────────────────────────────────────────────

func TestESGSearchBody(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		want  string
	}{
		{
			name:  "doc filter",
			input: map[string]interface{}{"query": "carbon emissions", "docIds": []interface{}{"doc1", "doc2"}, "topK": 3.0},
			want:  `{"query":"carbon emissions","topK":3,"filter":{"rec_id":{"$in":["doc1","doc2"]}}}`,
		},
		{
			name:  "default topK",
			input: map[string]interface{}{"query": "water"},
			want:  `{"query":"water","topK":5}`,
		},
		{
			name:  "empty docIds omit filter",
			input: map[string]interface{}{"query": "water", "docIds": []interface{}{}, "topK": 2},
			want:  `{"query":"water","topK":2}`,
		},
		{
			name:  "extK never forwarded",
			input: map[string]interface{}{"query": "board", "topK": 4, "extK": 2},
			want:  `{"query":"board","topK":4}`,
		},
		{
			name:  "topK at upper bound",
			input: map[string]interface{}{"query": "q", "topK": float64(tools.MaxResultCount)},
			want:  `{"query":"q","topK":1000}`,
		},
		{
			name:  "docId order preserved",
			input: map[string]interface{}{"query": "q", "docIds": []string{"z", "a", "m"}},
			want:  `{"query":"q","topK":5,"filter":{"rec_id":{"$in":["z","a","m"]}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t, http.StatusOK, `{"results":[]}`)
			tool := tools.ESGSearchTool(b.client(), creds)

			out, err := tool.Execute(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if out != `{"results":[]}` {
				t.Errorf("out = %s", out)
			}
			if got := b.lastBody(t); got != tt.want {
				t.Errorf("body = %s\nwant %s", got, tt.want)
			}
			if strings.Contains(b.lastBody(t), "extK") {
				t.Error("extK leaked into request body")
			}
			if b.paths[0] != "/esg_search" {
				t.Errorf("path = %s", b.paths[0])
			}
		})
	}
}

func TestESGSearchValidation(t *testing.T) {
	bad := map[string]map[string]interface{}{
		"empty query":      {"query": ""},
		"missing query":    {"topK": 3},
		"nil input":        nil,
		"query not string": {"query": 42},
		"topK string":      {"query": "q", "topK": "3"},
		"topK fractional":  {"query": "q", "topK": 2.5},
		"extK fractional":  {"query": "q", "extK": 0.5},
		"docIds not array": {"query": "q", "docIds": "doc1"},
		"docIds numbers":   {"query": "q", "docIds": []interface{}{1, 2}},
		"topK overflow":    {"query": "q", "topK": 1e20},
		"topK above max":   {"query": "q", "topK": tools.MaxResultCount + 1},
		"topK zero":        {"query": "q", "topK": 0},
		"topK negative":    {"query": "q", "topK": -3},
		"extK overflow":    {"query": "q", "extK": 1e20},
		"extK negative":    {"query": "q", "extK": -1},
	}
	for name, input := range bad {
		t.Run(name, func(t *testing.T) {
			b := newBackend(t, http.StatusOK, `{}`)
			tool := tools.ESGSearchTool(b.client(), creds)

			_, err := tool.Execute(context.Background(), input)
			var vErr *tools.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if vErr.Tool != tools.ESGSearchToolName {
				t.Errorf("Tool = %q", vErr.Tool)
			}
			if n := b.calls.Load(); n != 0 {
				t.Errorf("validation failure made %d network calls", n)
			}
		})
	}
}

func TestESGSearchSchema(t *testing.T) {
	tool := tools.ESGSearchTool(service.NewSearchClient("http://x", "", "", 0), creds)
	if tool.Name != "Search_ESG_Tool" {
		t.Errorf("Name = %q", tool.Name)
	}
	props, ok := tool.InputSchema["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("schema has no properties")
	}
	for _, key := range []string{"query", "docIds", "topK", "extK"} {
		if _, ok := props[key]; !ok {
			t.Errorf("schema missing %s", key)
		}
	}
	req, _ := tool.InputSchema["required"].([]string)
	if len(req) != 1 || req[0] != "query" {
		t.Errorf("required = %v", req)
	}
}

// ─── Search_Internet_Tool ─────────────────────────────────────────────────────

func TestInternetSearchBody(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]interface{}
		want  string
	}{
		{"default maxResults", map[string]interface{}{"query": "latest ESG regulations"}, `{"query":"latest ESG regulations","maxResults":5}`},
		{"explicit maxResults", map[string]interface{}{"query": "CSRD", "maxResults": 10}, `{"query":"CSRD","maxResults":10}`},
		{"unknown keys ignored", map[string]interface{}{"query": "CSRD", "docIds": []string{"x"}}, `{"query":"CSRD","maxResults":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBackend(t, http.StatusOK, `{"items": [1]}`)
			tool := tools.InternetSearchTool(b.client(), creds)

			out, err := tool.Execute(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if out != `{"items":[1]}` {
				t.Errorf("out = %s", out)
			}
			if got := b.lastBody(t); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
			if b.paths[0] != "/internet_search" {
				t.Errorf("path = %s", b.paths[0])
			}
		})
	}
}

func TestValidationErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	b := newBackend(t, http.StatusOK, `{}`)
	tool := tools.ESGSearchTool(b.client(), creds)
	if _, err := tool.Execute(context.Background(), map[string]interface{}{"query": "q", "topK": 1e20}); err == nil {
		t.Fatal("expected ValidationError")
	}

	out := buf.String()
	if !strings.Contains(out, "tool input rejected") || !strings.Contains(out, tools.ESGSearchToolName) {
		t.Errorf("log output = %q", out)
	}
}

func TestInternetSearchValidation(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{}`)
	tool := tools.InternetSearchTool(b.client(), creds)

	for _, input := range []map[string]interface{}{
		{"query": ""},
		{"maxResults": 3},
		{"query": "q", "maxResults": "five"},
		{"query": "q", "maxResults": 1e20},
		{"query": "q", "maxResults": tools.MaxResultCount + 1},
		{"query": "q", "maxResults": 0},
	} {
		_, err := tool.Execute(context.Background(), input)
		var vErr *tools.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("input %v: expected ValidationError, got %v", input, err)
		}
	}
	if n := b.calls.Load(); n != 0 {
		t.Errorf("validation failures made %d network calls", n)
	}
}

// ─── Errors and credentials ───────────────────────────────────────────────────

func TestUpstreamErrorPropagates(t *testing.T) {
	b := newBackend(t, http.StatusServiceUnavailable, `oops`)
	tool := tools.InternetSearchTool(b.client(), creds)

	_, err := tool.Execute(context.Background(), map[string]interface{}{"query": "q"})
	var statusErr *service.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %T: %v", err, err)
	}
	if err.Error() != "HTTP error: 503 Service Unavailable" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParseErrorPropagates(t *testing.T) {
	b := newBackend(t, http.StatusOK, `not json`)
	tool := tools.ESGSearchTool(b.client(), creds)

	_, err := tool.Execute(context.Background(), map[string]interface{}{"query": "q"})
	var parseErr *service.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T: %v", err, err)
	}
}

func TestCredentialsBoundAtConstruction(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{}`)
	c := models.Credentials{Email: "first@example.com", Password: "pw"}
	tool := tools.ESGSearchTool(b.client(), c)

	c.Email = "second@example.com"
	if _, err := tool.Execute(context.Background(), map[string]interface{}{"query": "q"}); err != nil {
		t.Fatal(err)
	}
	if b.emails[0] != "first@example.com" {
		t.Errorf("email header = %q, want credentials from construction", b.emails[0])
	}
}

func TestConcurrentInvocations(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{}`)
	tool := tools.ESGSearchTool(b.client(), creds)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := tool.Execute(context.Background(), map[string]interface{}{"query": "q"}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := b.calls.Load(); n != 20 {
		t.Errorf("calls = %d, want 20", n)
	}
}

// ─── Factory and instrumentation ──────────────────────────────────────────────

type fakeRecorder struct {
	store.NopRecorder
	mu   sync.Mutex
	invs []store.Invocation
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, inv store.Invocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invs = append(f.invs, inv)
	return f.err
}

func TestFactory(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{}`)
	f := tools.NewFactory(b.client(), security.NewAuditLogger(false), nil)

	set := f.ForCredentials(creds)
	names := tools.Names(set)
	if len(names) != 2 || names[0] != tools.ESGSearchToolName || names[1] != tools.InternetSearchToolName {
		t.Errorf("names = %v", names)
	}

	if _, ok := tools.Find(set, "Search_Internet_Tool"); !ok {
		t.Error("Find should locate internet tool")
	}
	if _, ok := tools.Find(set, "execute_sql"); ok {
		t.Error("Find should miss unknown tool")
	}
	if len(f.Definitions()) != 2 {
		t.Error("Definitions should list both tools")
	}
}

func TestInstrumentRecordsSuccessAndFailure(t *testing.T) {
	ok := newBackend(t, http.StatusOK, `{}`)
	fail := newBackend(t, http.StatusBadGateway, ``)
	rec := &fakeRecorder{}
	audit := security.NewAuditLogger(true)

	good := tools.Instrument(tools.ESGSearchTool(ok.client(), creds), creds, audit, rec)
	bad := tools.Instrument(tools.ESGSearchTool(fail.client(), creds), creds, audit, rec)

	if _, err := good.Execute(context.Background(), map[string]interface{}{"query": "q"}); err != nil {
		t.Fatal(err)
	}
	if _, err := bad.Execute(context.Background(), map[string]interface{}{"query": "q"}); err == nil {
		t.Fatal("expected upstream error")
	}

	if len(rec.invs) != 2 {
		t.Fatalf("recorded %d invocations, want 2", len(rec.invs))
	}
	if !rec.invs[0].Success || rec.invs[0].Error != "" {
		t.Errorf("first invocation = %+v", rec.invs[0])
	}
	second := rec.invs[1]
	if second.Success || second.StatusCode != http.StatusBadGateway {
		t.Errorf("second invocation = %+v", second)
	}
	if second.EmailHash != security.HashIdentifier(creds.Email) {
		t.Error("email should be stored hashed")
	}
	if strings.Contains(second.EmailHash, "@") {
		t.Error("raw email leaked into record")
	}
}

func TestInstrumentIgnoresRecorderErrors(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{"ok":true}`)
	rec := &fakeRecorder{err: errors.New("db down")}
	tool := tools.Instrument(tools.InternetSearchTool(b.client(), creds), creds, nil, rec)

	out, err := tool.Execute(context.Background(), map[string]interface{}{"query": "q"})
	if err != nil {
		t.Fatalf("recorder error must not surface: %v", err)
	}
	if out != `{"ok":true}` {
		t.Errorf("out = %s", out)
	}
}

func TestInstrumentRecordsValidationFailure(t *testing.T) {
	b := newBackend(t, http.StatusOK, `{}`)
	rec := &fakeRecorder{}
	tool := tools.Instrument(tools.ESGSearchTool(b.client(), creds), creds, nil, rec)

	_, err := tool.Execute(context.Background(), map[string]interface{}{"query": ""})
	var vErr *tools.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError through wrapper, got %v", err)
	}
	if len(rec.invs) != 1 || rec.invs[0].Success || rec.invs[0].StatusCode != 0 {
		t.Errorf("invocations = %+v", rec.invs)
	}
}
