package service

import "strings"

// ToolPreference names the search tool a prompt most likely needs
type ToolPreference string

const (
	ToolPreferenceESG      ToolPreference = "esg"
	ToolPreferenceInternet ToolPreference = "internet"
)

var esgKeywords = []string{
	// disclosure and reporting vocabulary
	"esg", "sustainability", "sustainable", "emission", "carbon", "ghg",
	"scope 1", "scope 2", "scope 3", "climate", "net zero", "net-zero",
	"governance", "disclosure", "report", "annual report", "csr",
	"gri", "tcfd", "sasb", "issb", "csrd", "taxonomy",
	"biodiversity", "water", "waste", "diversity", "human rights",
	"supply chain", "materiality", "board", "document",
}

var internetKeywords = []string{
	// recency and open-web vocabulary
	"latest", "news", "today", "yesterday", "this week", "recent",
	"recently", "current", "currently", "now", "update", "announced",
	"website", "online", "internet", "web", "price", "stock",
	"who is", "what happened", "2025", "2026",
}

// RoutingResult contains tool routing info
type RoutingResult struct {
	Preference    ToolPreference
	Confidence    float64
	ESGScore      int
	InternetScore int
	Reasoning     string
}

// IntentRouter scores a prompt against keyword lists to suggest which search
// tool the agent should try first
type IntentRouter struct{}

func NewIntentRouter() *IntentRouter {
	return &IntentRouter{}
}

// Route analyses the prompt and returns the best matching tool preference
func (r *IntentRouter) Route(prompt string) RoutingResult {
	lower := strings.ToLower(prompt)

	esgScore := 0
	webScore := 0

	for _, kw := range esgKeywords {
		if strings.Contains(lower, kw) {
			esgScore++
		}
	}
	for _, kw := range internetKeywords {
		if strings.Contains(lower, kw) {
			webScore++
		}
	}

	total := esgScore + webScore
	if total == 0 {
		return RoutingResult{
			Preference: ToolPreferenceESG,
			Confidence: 0.5,
			Reasoning:  "no strong keywords, defaulting to ESG database",
		}
	}

	if webScore > esgScore {
		return RoutingResult{
			Preference:    ToolPreferenceInternet,
			Confidence:    float64(webScore) / float64(total),
			ESGScore:      esgScore,
			InternetScore: webScore,
			Reasoning:     "prompt asks for recent or open-web information",
		}
	}

	return RoutingResult{
		Preference:    ToolPreferenceESG,
		Confidence:    float64(esgScore) / float64(total),
		ESGScore:      esgScore,
		InternetScore: webScore,
		Reasoning:     "prompt contains ESG disclosure keywords",
	}
}
