// Package redact scrubs sensitive information from strings before they are
// logged. Store and driver errors routinely embed connection strings, SQL,
// bearer tokens and user emails; nothing matched here may reach a log line
// or an error response.
package redact

import (
	"regexp"
)

// Placeholders substituted for redacted content.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedHostPlaceholder       = "[REDACTED_HOST]"
)

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// rules are applied in order; earlier rules see the original text.
var rules = []rule{
	// Connection strings with userinfo: postgres, mongodb, mongodb+srv, redis, rediss.
	{
		regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mongodb(?:\+srv)?|rediss?|mysql)://[^\s/@]+@[^\s/]+`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9_\-.~+/=]+`),
		"Bearer " + RedactionPlaceholder,
	},
	{
		regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`),
		RedactedJWTPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]?['"]?)[^'"&\s]{3,}`),
		RedactedCredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)(api[_-]?key|token|secret)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`),
		RedactedKeyPlaceholder,
	},
	{
		regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		RedactedEmailPlaceholder,
	},
	{
		regexp.MustCompile(
			`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b[\s\w,*()$."=<>']+?\b(FROM|INTO|SET|WHERE)\b[\s\w,*()$."=<>']*`,
		),
		RedactedSQLPlaceholder,
	},
	{
		regexp.MustCompile(`\b(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}:\d{1,5}\b`),
		RedactedHostPlaceholder,
	},
}

// String redacts sensitive information from the input string.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.placeholder)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
