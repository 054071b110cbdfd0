// Package tools defines the Tool type shared by the agent, the HTTP API and
// the MCP server, plus the two search tools built on it.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Tool represents a callable function the LLM can invoke
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
	Execute     func(ctx context.Context, input map[string]interface{}) (string, error)
}

// ValidationError reports tool arguments that do not match the input schema.
// It is returned before any network call is made.
type ValidationError struct {
	Tool string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input for %s: %v", e.Tool, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// inputValidator checks raw tool arguments against a compiled JSON schema
// and decodes them into a typed struct
type inputValidator struct {
	tool   string
	schema *jsonschema.Schema
}

func newInputValidator(tool string, schema map[string]interface{}) (*inputValidator, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	// UnmarshalJSON keeps numbers as json.Number
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema JSON: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &inputValidator{tool: tool, schema: compiled}, nil
}

func mustInputValidator(tool string, schema map[string]interface{}) *inputValidator {
	v, err := newInputValidator(tool, schema)
	if err != nil {
		panic(fmt.Sprintf("tools: %s schema: %v", tool, err))
	}
	return v
}

// decode validates input and unmarshals it into out
func (v *inputValidator) decode(input map[string]interface{}, out any) error {
	err := v.check(input, out)
	if err != nil {
		log.Debug().Err(err).Str("tool", v.tool).Msg("tool input rejected")
	}
	return err
}

func (v *inputValidator) check(input map[string]interface{}, out any) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return &ValidationError{Tool: v.tool, Err: err}
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ValidationError{Tool: v.tool, Err: err}
	}
	if err := v.schema.Validate(doc); err != nil {
		return &ValidationError{Tool: v.tool, Err: err}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ValidationError{Tool: v.tool, Err: err}
	}
	return nil
}

// MaxResultCount bounds topK, extK and maxResults. The schemas enforce it, so
// intOr never sees a value that overflows int.
const MaxResultCount = 1000

// intOr converts an optional integer argument, falling back to def when absent
func intOr(v *float64, def int) int {
	if v == nil {
		return def
	}
	return int(*v)
}
