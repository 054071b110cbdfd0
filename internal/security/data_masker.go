package security

import (
	"fmt"
	"strings"
)

// MaskEmail: "john.doe@example.com" → "jo***@***.com"
func MaskEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***"
	}
	local := parts[0]
	domain := parts[1]

	// Show first 2 chars of local
	visible := 2
	if len(local) < visible {
		visible = len(local)
	}
	maskedLocal := local[:visible] + "***"

	domainParts := strings.Split(domain, ".")
	if len(domainParts) < 2 {
		return maskedLocal + "@***"
	}
	ext := domainParts[len(domainParts)-1]
	return fmt.Sprintf("%s@***.%s", maskedLocal, ext)
}

// MaskSecret hides a secret entirely, keeping only whether it was set
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
