package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/esgai/esgsearch/internal/tools"
)

const (
	DefaultModel      = "claude-sonnet-4-6"
	defaultMaxTokens  = 4096
	maxIterations     = 10
	forceAnswerAfter  = 7
	maxParallelTools  = 4
	forceAnswerPrompt = "You have enough information. Please provide your final answer now without calling any more tools."
)

// ToolCall represents a tool invocation request from the LLM
type ToolCall struct {
	ID    string
	Name  string
	Input map[string]interface{}
}

// RunResult is the outcome of one agent loop
type RunResult struct {
	Answer     string
	ToolsUsed  []string
	ToolErrors int
	Iterations int
}

// Runner is the agent loop as seen by SearchHandler
type Runner interface {
	Run(ctx context.Context, systemPrompt, userPrompt string, agentTools []tools.Tool) (*RunResult, error)
	Model() string
}

// SearchAgent wraps the Anthropic SDK for a multi-turn tool-calling loop over
// the search tools
type SearchAgent struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewSearchAgent creates an agent backed by Anthropic Claude or a compatible provider
func NewSearchAgent(apiKey, model, baseURL string) *SearchAgent {
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &SearchAgent{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: defaultMaxTokens,
	}
}

func (a *SearchAgent) Model() string { return a.model }

// Run executes the agent loop until the model stops requesting tools. Tool
// calls within one turn run concurrently; their failures are reported back to
// the model as error results rather than aborting the loop.
func (a *SearchAgent) Run(ctx context.Context, systemPrompt, userPrompt string, agentTools []tools.Tool) (*RunResult, error) {
	toolParams := toolDefinitions(agentTools)

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
	}
	result := &RunResult{}

	for iter := 0; iter < maxIterations; iter++ {
		result.Iterations = iter + 1

		resp, err := a.client.Messages.New(ctx, a.params(systemPrompt, messages, toolParams))
		if err != nil {
			return result, fmt.Errorf("LLM call failed: %w", err)
		}

		text, pending := splitContent(resp)

		log.Debug().
			Int("iter", iter).
			Str("stop_reason", string(resp.StopReason)).
			Int("tool_calls", len(pending)).
			Msg("agent iteration")

		if resp.StopReason != "tool_use" || len(pending) == 0 {
			result.Answer = text
			return result, nil
		}

		messages = append(messages, resp.ToParam())

		if iter >= forceAnswerAfter {
			// Answer the outstanding tool_use blocks before asking for a final reply
			messages = append(messages, anthropic.NewUserMessage(skippedResults(pending)...))
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(forceAnswerPrompt)))

			finalResp, err := a.client.Messages.New(ctx, a.params(systemPrompt, messages, toolParams))
			if err != nil {
				return result, fmt.Errorf("final answer call failed: %w", err)
			}
			finalText, _ := splitContent(finalResp)
			result.Answer = text + finalText
			return result, nil
		}

		blocks, failed := a.executeAll(ctx, pending, agentTools)
		for _, tc := range pending {
			result.ToolsUsed = append(result.ToolsUsed, tc.Name)
		}
		result.ToolErrors += failed
		messages = append(messages, anthropic.NewUserMessage(blocks...))
	}

	return result, fmt.Errorf("agent loop exceeded max iterations (%d)", maxIterations)
}

func (a *SearchAgent) params(systemPrompt string, messages []anthropic.MessageParam, toolParams []anthropic.ToolUnionUnionParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(int64(a.maxTokens)),
		Messages:  anthropic.F(messages),
	}
	if len(toolParams) > 0 {
		params.Tools = anthropic.F(toolParams)
	}
	if systemPrompt != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(systemPrompt),
		})
	}
	return params
}

// executeAll runs one turn's tool calls concurrently and returns the result
// blocks in call order
func (a *SearchAgent) executeAll(ctx context.Context, pending []ToolCall, agentTools []tools.Tool) ([]anthropic.ContentBlockParamUnion, int) {
	blocks := make([]anthropic.ContentBlockParamUnion, len(pending))
	errs := make([]bool, len(pending))

	var g errgroup.Group
	g.SetLimit(maxParallelTools)
	for i, tc := range pending {
		g.Go(func() error {
			out, err := executeTool(ctx, tc, agentTools)
			if err != nil {
				log.Warn().Err(err).Str("tool", tc.Name).Msg("tool execution error")
				out = fmt.Sprintf("error: %v", err)
				errs[i] = true
			}
			blocks[i] = anthropic.NewToolResultBlock(tc.ID, out, err != nil)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, e := range errs {
		if e {
			failed++
		}
	}
	return blocks, failed
}

func toolDefinitions(agentTools []tools.Tool) []anthropic.ToolUnionUnionParam {
	params := make([]anthropic.ToolUnionUnionParam, len(agentTools))
	for i, t := range agentTools {
		schema := map[string]interface{}{
			"type":       "object",
			"properties": t.InputSchema["properties"],
		}
		if required, ok := t.InputSchema["required"]; ok {
			schema["required"] = required
		}
		params[i] = anthropic.ToolParam{
			Name:        anthropic.String(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.F[interface{}](schema),
		}
	}
	return params
}

// splitContent collects text and tool calls from a response
func splitContent(resp *anthropic.Message) (string, []ToolCall) {
	var text string
	var pending []ToolCall
	for _, block := range resp.Content {
		switch b := block.AsUnion().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			var input map[string]interface{}
			if err := json.Unmarshal(b.Input, &input); err != nil {
				log.Warn().Err(err).Str("tool", b.Name).Msg("failed to parse tool input")
				input = map[string]interface{}{}
			}
			pending = append(pending, ToolCall{ID: b.ID, Name: b.Name, Input: input})
		}
	}
	return text, pending
}

func skippedResults(pending []ToolCall) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, len(pending))
	for i, tc := range pending {
		blocks[i] = anthropic.NewToolResultBlock(tc.ID, "skipped: tool budget exhausted", true)
	}
	return blocks
}

func executeTool(ctx context.Context, tc ToolCall, agentTools []tools.Tool) (string, error) {
	t, ok := tools.Find(agentTools, tc.Name)
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", tc.Name)
	}
	return t.Execute(ctx, tc.Input)
}
