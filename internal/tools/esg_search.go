package tools

import (
	"context"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/service"
)

const (
	ESGSearchToolName = "Search_ESG_Tool"
	DefaultTopK       = 5
)

type esgSearchInput struct {
	Query  string   `json:"query"`
	DocIDs []string `json:"docIds"`
	TopK   *float64 `json:"topK"`
	// ExtK is accepted but the backend request has no field for it yet.
	ExtK *float64 `json:"extK"`
}

func esgSearchSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"minLength":   1,
				"description": "Requirements or questions from the user.",
			},
			"docIds": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Document ids to filter the search.",
			},
			"topK": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"maximum":     MaxResultCount,
				"default":     DefaultTopK,
				"description": "Number of top chunk results to return.",
			},
			"extK": map[string]interface{}{
				"type":        "integer",
				"minimum":     0,
				"maximum":     MaxResultCount,
				"description": "Number of additional chunks to include before and after each topK result.",
			},
		},
		"required": []string{"query"},
	}
}

// ESGSearchTool runs semantic search over the ESG document database on behalf
// of the given credentials
func ESGSearchTool(client *service.SearchClient, creds models.Credentials) Tool {
	schema := esgSearchSchema()
	validator := mustInputValidator(ESGSearchToolName, schema)

	return Tool{
		Name:        ESGSearchToolName,
		Description: "Use this tool to perform semantic search on the ESG database for precise and specialized information.",
		InputSchema: schema,
		Execute: func(ctx context.Context, input map[string]interface{}) (string, error) {
			var in esgSearchInput
			if err := validator.decode(input, &in); err != nil {
				return "", err
			}

			body := models.NewESGSearchBody(in.Query, in.DocIDs, intOr(in.TopK, DefaultTopK))
			return client.ESGSearch(ctx, creds, body)
		},
	}
}
