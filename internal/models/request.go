package models

// Credentials are the per-user email/password pair the search backend expects
// as custom request headers. Tools copy them by value at construction.
type Credentials struct {
	Email    string `json:"-"`
	Password string `json:"-"`
}

// RecIDFilter restricts an ESG search to a set of document ids
type RecIDFilter struct {
	RecID InClause `json:"rec_id"`
}

// InClause is a Mongo-style `$in` membership clause
type InClause struct {
	In []string `json:"$in"`
}

// ESGSearchBody is the body sent to POST {BASE_URL}/esg_search.
// Field order matters: the backend receives query, topK, filter.
type ESGSearchBody struct {
	Query  string       `json:"query"`
	TopK   int          `json:"topK"`
	Filter *RecIDFilter `json:"filter,omitempty"`
}

// NewESGSearchBody builds the outgoing body. The filter is attached only when
// docIDs is non-empty; an empty filter is never sent.
func NewESGSearchBody(query string, docIDs []string, topK int) ESGSearchBody {
	body := ESGSearchBody{Query: query, TopK: topK}
	if len(docIDs) > 0 {
		ids := make([]string, len(docIDs))
		copy(ids, docIDs)
		body.Filter = &RecIDFilter{RecID: InClause{In: ids}}
	}
	return body
}

// InternetSearchBody is the body sent to POST {BASE_URL}/internet_search
type InternetSearchBody struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

// AgentRequest for POST /api/v1/query-agent
type AgentRequest struct {
	Prompt  string   `json:"prompt"`
	DocIDs  []string `json:"doc_ids,omitempty"`
	Timeout int      `json:"timeout"`
}

// Agent timeout bounds, in seconds
const (
	DefaultAgentTimeout = 120
	MinAgentTimeout     = 10
	MaxAgentTimeout     = 600
)

func (r *AgentRequest) SetDefaults() {
	if r.Timeout == 0 {
		r.Timeout = DefaultAgentTimeout
	}
	if r.Timeout < MinAgentTimeout {
		r.Timeout = MinAgentTimeout
	}
	if r.Timeout > MaxAgentTimeout {
		r.Timeout = MaxAgentTimeout
	}
}
