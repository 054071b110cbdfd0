package security

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const MaxPromptLength = 4000

// Rule names reported in ValidationResult.Rule
const (
	RuleEmpty          = "empty"
	RuleLength         = "length"
	RuleInjection      = "prompt_injection"
	RuleExfiltration   = "credential_exfiltration"
	RuleShellOrCode    = "shell_or_code"
	RulePathAccess     = "path_access"
	RuleScriptFragment = "script_fragment"
)

type ruleSet struct {
	name     string
	patterns []*regexp.Regexp
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Order matters: the first matching set names the rejection.
var promptRules = []ruleSet{
	{RuleInjection, compileAll(
		`(?i)(ignore|disregard|forget|override)\s+(all\s+)?(the\s+)?(previous|prior|above)\s+instructions`,
		`(?i)new\s+(context|instructions)\s*:`,
		`(?i)instead\s+of\s+the\s+above`,
		`(?i)you\s+are\s+no\s+longer\s+a`,
	)},
	// The search tools carry the caller's account; the model must never echo it.
	{RuleExfiltration, compileAll(
		`(?i)reveal\s+(your\s+)?(system\s+prompt|credentials|password)`,
		`(?i)(print|show|repeat|output)\s+(the\s+)?(email|password|api\s*key|anon\s*key)\s+(header|you\s+(use|send))`,
		`(?i)authorization\s*:\s*bearer`,
	)},
	{RuleShellOrCode, compileAll(
		`(?i)\brm\s+[-/]`,
		`(?i)\b(curl|wget|sudo)\s+`,
		`(?i)\bnc\s+-`,
		`(?i)\b(bash\s+-|sh\s+-c)`,
		`(?i)\b(eval|exec|system|__import__)\s*\(`,
		`(?i)os\.system`,
	)},
	{RulePathAccess, compileAll(
		`\.\./`,
		`/etc/(passwd|shadow)`,
		`/proc/`,
		`id_rsa|\.ssh/`,
	)},
}

var scriptFragments = []string{"import os", "import sys", "subprocess"}

// PromptValidator screens agent prompts before any search tool is offered to the model
type PromptValidator struct {
	maxLength int
}

func NewPromptValidator() *PromptValidator {
	return &PromptValidator{maxLength: MaxPromptLength}
}

type ValidationResult struct {
	Valid   bool
	Rule    string
	Message string
}

func reject(rule, format string, args ...interface{}) ValidationResult {
	return ValidationResult{Valid: false, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Validate length is counted in characters, not bytes
func (v *PromptValidator) Validate(prompt string) ValidationResult {
	if strings.TrimSpace(prompt) == "" {
		return reject(RuleEmpty, "prompt cannot be empty")
	}
	if n := utf8.RuneCountInString(prompt); n > v.maxLength {
		return reject(RuleLength, "prompt too long: %d chars (max %d)", n, v.maxLength)
	}

	for _, set := range promptRules {
		for _, p := range set.patterns {
			if p.MatchString(prompt) {
				return reject(set.name, "%s pattern detected", strings.ReplaceAll(set.name, "_", " "))
			}
		}
	}

	lower := strings.ToLower(prompt)
	for _, frag := range scriptFragments {
		if strings.Contains(lower, frag) {
			return reject(RuleScriptFragment, "suspicious script fragment: %q", frag)
		}
	}

	return ValidationResult{Valid: true, Message: "ok"}
}
