package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/security"
	"github.com/esgai/esgsearch/internal/service"
	"github.com/esgai/esgsearch/internal/tools"
)

const baseSystemPrompt = `You are an ESG research assistant with two search tools.

TOOLS:
- Search_ESG_Tool: semantic search over the ESG document database (sustainability reports, disclosures, policies).
- Search_Internet_Tool: internet search for recent or general information.

RULES:
1. Prefer Search_ESG_Tool for questions about documents, disclosures, metrics and frameworks
2. Use Search_Internet_Tool for news, recent events or facts the ESG database will not hold
3. Never invent figures: cite what the tools return
4. If a tool returns an error, say so and answer with what you have
5. Answer in the language of the question`

// SearchHandler orchestrates the prompt checks → routing → agent pipeline
type SearchHandler struct {
	agent       Runner
	factory     *tools.Factory
	router      *service.IntentRouter
	piiDetector *security.PIIDetector
	promptVal   *security.PromptValidator
	auditLogger *security.AuditLogger
}

// NewSearchHandler creates a handler with all security components wired in
func NewSearchHandler(
	agent Runner,
	factory *tools.Factory,
	router *service.IntentRouter,
	piiDetector *security.PIIDetector,
	promptVal *security.PromptValidator,
	auditLogger *security.AuditLogger,
) *SearchHandler {
	return &SearchHandler{
		agent:       agent,
		factory:     factory,
		router:      router,
		piiDetector: piiDetector,
		promptVal:   promptVal,
		auditLogger: auditLogger,
	}
}

// Handle runs one agent request with tools bound to creds. A rejected prompt
// returns both a response (with the failed check in metadata) and an error.
func (h *SearchHandler) Handle(ctx context.Context, req *models.AgentRequest, creds models.Credentials) (*models.AgentResponse, error) {
	start := time.Now()
	metadata := map[string]interface{}{
		"model":  h.agent.Model(),
		"method": "agent",
	}

	// 1. PII detection
	if found, kw := h.piiDetector.Detect(req.Prompt); found {
		metadata["pii_check"] = "blocked: " + kw
		h.auditLogger.LogAgentRequest(req.Prompt, creds.Email, nil, false, time.Since(start).Milliseconds())
		return rejected(req, metadata), fmt.Errorf("PII detected in prompt: %s", kw)
	}
	metadata["pii_check"] = "passed"

	// 2. Prompt validation
	if vr := h.promptVal.Validate(req.Prompt); !vr.Valid {
		metadata["prompt_validation"] = "blocked: " + vr.Message
		metadata["prompt_rule"] = vr.Rule
		h.auditLogger.LogAgentRequest(req.Prompt, creds.Email, nil, false, time.Since(start).Milliseconds())
		return rejected(req, metadata), fmt.Errorf("prompt validation failed: %s", vr.Message)
	}
	metadata["prompt_validation"] = "passed"

	// 3. Routing hint
	routing := h.router.Route(req.Prompt)
	metadata["routing_preference"] = string(routing.Preference)
	metadata["routing_confidence"] = routing.Confidence
	metadata["routing_reasoning"] = routing.Reasoning

	// 4. Tools bound to the caller, optionally scoped to documents
	agentTools := h.factory.ForCredentials(creds)
	if len(req.DocIDs) > 0 {
		agentTools = scopeToDocuments(agentTools, req.DocIDs)
		metadata["doc_scope"] = len(req.DocIDs)
	}

	systemPrompt := buildSystemPrompt(routing, req.DocIDs)

	// 5. Run agent loop
	agentCtx, cancel := context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
	defer cancel()

	result, err := h.agent.Run(agentCtx, systemPrompt, req.Prompt, agentTools)
	if err != nil {
		return nil, fmt.Errorf("agent run: %w", err)
	}

	metadata["tools_used"] = result.ToolsUsed
	metadata["tool_errors"] = result.ToolErrors
	metadata["iterations"] = result.Iterations

	execTimeMs := time.Since(start).Milliseconds()
	metadata["execution_time_ms"] = execTimeMs
	h.auditLogger.LogAgentRequest(req.Prompt, creds.Email, result.ToolsUsed, true, execTimeMs)

	log.Info().
		Str("routing", string(routing.Preference)).
		Strs("tools_used", result.ToolsUsed).
		Int("iterations", result.Iterations).
		Int64("execution_time_ms", execTimeMs).
		Msg("agent request completed")

	answer := result.Answer
	return &models.AgentResponse{
		Status:        "success",
		Prompt:        req.Prompt,
		Answer:        &answer,
		AgentMetadata: metadata,
	}, nil
}

func rejected(req *models.AgentRequest, metadata map[string]interface{}) *models.AgentResponse {
	return &models.AgentResponse{
		Status:        "error",
		Prompt:        req.Prompt,
		AgentMetadata: metadata,
	}
}

func buildSystemPrompt(routing service.RoutingResult, docIDs []string) string {
	var sb strings.Builder
	sb.WriteString(baseSystemPrompt)

	switch routing.Preference {
	case service.ToolPreferenceInternet:
		sb.WriteString(fmt.Sprintf("\n\nThis question looks time-sensitive (confidence %.2f): start with Search_Internet_Tool.", routing.Confidence))
	default:
		sb.WriteString(fmt.Sprintf("\n\nThis question looks answerable from ESG documents (confidence %.2f): start with Search_ESG_Tool.", routing.Confidence))
	}

	if len(docIDs) > 0 {
		sb.WriteString("\n\nThe user selected these documents; Search_ESG_Tool is restricted to them: ")
		sb.WriteString(strings.Join(docIDs, ", "))
	}
	return sb.String()
}

// scopeToDocuments forces the ESG tool's docIds argument to the request's
// document selection, whatever the model passes
func scopeToDocuments(agentTools []tools.Tool, docIDs []string) []tools.Tool {
	ids := make([]interface{}, len(docIDs))
	for i, id := range docIDs {
		ids[i] = id
	}

	scoped := make([]tools.Tool, len(agentTools))
	copy(scoped, agentTools)
	for i, t := range scoped {
		if t.Name != tools.ESGSearchToolName {
			continue
		}
		inner := t.Execute
		scoped[i].Execute = func(ctx context.Context, input map[string]interface{}) (string, error) {
			args := make(map[string]interface{}, len(input)+1)
			for k, v := range input {
				args[k] = v
			}
			args["docIds"] = ids
			return inner(ctx, args)
		}
	}
	return scoped
}
