package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Built-in pattern names.
const (
	PatternEmail       = "email"
	PatternCreditCard  = "credit_card"
	PatternSSN         = "ssn"
	PatternBearerToken = "bearer_token"
	PatternAPIKey      = "api_key"
)

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Applied in order; card numbers run before SSNs so a 16-digit number is not
// half-matched as an SSN.
var defaultPatterns = []redactPattern{
	{PatternBearerToken, regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
	{PatternAPIKey, regexp.MustCompile(`\b(sk|pk|ghp|glpat)[-_][a-zA-Z0-9_\-]{8,}`), "$1-***"},
	{PatternEmail, regexp.MustCompile(`[a-zA-Z0-9._%+-]+@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`), "***@$1"},
	{PatternCreditCard, regexp.MustCompile(`\b(?:\d[ -]?){12,15}\d\b`), "****-****-****-****"},
	{PatternSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "***-**-****"},
}

// Keys whose values are always masked.
var sensitiveKeys = []string{
	"password", "passwd", "passphrase",
	"secret", "token", "api_key", "apikey",
	"authorization", "private_key",
}

// Keys that carry payload data.
var payloadKeys = map[string]bool{
	"value":   true,
	"payload": true,
	"message": true,
}

// Redactor masks secrets and payload data in log attributes.
type Redactor struct {
	payloads bool
	patterns []redactPattern
}

// NewRedactor creates a redactor. redactPayloads enables masking of
// payload-derived attributes in addition to secrets.
func NewRedactor(redactPayloads bool) *Redactor {
	return &Redactor{payloads: redactPayloads, patterns: defaultPatterns}
}

// RedactString replaces every built-in pattern match in s.
func (r *Redactor) RedactString(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr has the slog.HandlerOptions.ReplaceAttr signature.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}

	key := strings.ToLower(a.Key)
	if isSensitiveKey(key) {
		return slog.String(a.Key, maskValue(a.Value))
	}
	if r.payloads && payloadKeys[key] {
		if a.Value.Kind() == slog.KindString {
			return slog.String(a.Key, r.RedactString(a.Value.String()))
		}
		return slog.String(a.Key, "***")
	}
	return a
}

func isSensitiveKey(key string) bool {
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// maskValue keeps a four character prefix of long strings for correlation.
func maskValue(v slog.Value) string {
	if v.Kind() != slog.KindString {
		return "***"
	}
	s := v.String()
	switch {
	case s == "":
		return ""
	case len(s) <= 8:
		return "***"
	default:
		return s[:4] + "***"
	}
}
