package tools

import (
	"context"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/service"
)

const (
	InternetSearchToolName = "Search_Internet_Tool"
	DefaultMaxResults      = 5
)

type internetSearchInput struct {
	Query      string   `json:"query"`
	MaxResults *float64 `json:"maxResults"`
}

func internetSearchSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"minLength":   1,
				"description": "Requirements or questions from the user.",
			},
			"maxResults": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"maximum":     MaxResultCount,
				"default":     DefaultMaxResults,
				"description": "Number of results to return.",
			},
		},
		"required": []string{"query"},
	}
}

// InternetSearchTool searches the internet for up-to-date information
func InternetSearchTool(client *service.SearchClient, creds models.Credentials) Tool {
	schema := internetSearchSchema()
	validator := mustInputValidator(InternetSearchToolName, schema)

	return Tool{
		Name:        InternetSearchToolName,
		Description: "Call this tool to search internet for up-to-date information.",
		InputSchema: schema,
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			var in internetSearchInput
			if err := validator.decode(input, &in); err != nil {
				return "", err
			}

			body := models.InternetSearchBody{
				Query:      in.Query,
				MaxResults: intOr(in.MaxResults, DefaultMaxResults),
			}
			return client.InternetSearch(ctx, creds, body)
		},
	}
}
