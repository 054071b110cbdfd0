package tools

import (
	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/security"
	"github.com/esgai/esgsearch/internal/service"
	"github.com/esgai/esgsearch/internal/store"
)

// Factory builds credential-bound tool sets that share one search client,
// audit logger and invocation recorder
type Factory struct {
	client   *service.SearchClient
	audit    *security.AuditLogger
	recorder store.Recorder
}

func NewFactory(client *service.SearchClient, audit *security.AuditLogger, recorder store.Recorder) *Factory {
	if recorder == nil {
		recorder = store.NopRecorder{}
	}
	return &Factory{client: client, audit: audit, recorder: recorder}
}

// ForCredentials returns both search tools bound to creds and instrumented
func (f *Factory) ForCredentials(creds models.Credentials) []Tool {
	return []Tool{
		Instrument(ESGSearchTool(f.client, creds), creds, f.audit, f.recorder),
		Instrument(InternetSearchTool(f.client, creds), creds, f.audit, f.recorder),
	}
}

// Definitions returns the tool set without credentials, for listing
func (f *Factory) Definitions() []Tool {
	return []Tool{
		ESGSearchTool(f.client, models.Credentials{}),
		InternetSearchTool(f.client, models.Credentials{}),
	}
}

// Find looks a tool up by name
func Find(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Names lists tool names in order
func Names(tools []Tool) []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
}
