// Package security keeps session secrets out of mercury's logs.
package security

import (
	"regexp"
	"strings"
	"sync"
)

// ServiceName is the AppContext key of the shared *Redactor.
const ServiceName = "security.redactor"

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// sensitiveKeyPattern matches attribute keys whose values are always secret.
var sensitiveKeyPattern = regexp.MustCompile(`(?i)^(cookie|set-cookie|authorization|token|bearer_token|password|secret|fb_dtsg)$`)

// Redactor replaces secret values in strings with a redaction placeholder.
// It combines patterns for known session cookie and token formats with
// literal values registered at runtime, such as configured session headers.
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: DefaultPatterns()}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Values shorter than four bytes are ignored: they would mangle unrelated
// output.
func (r *Redactor) AddLiteral(secret string) {
	if len(secret) < 4 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// AddHeaders registers every header value as a literal secret.
func (r *Redactor) AddHeaders(headers map[string]string) {
	for _, v := range headers {
		r.AddLiteral(v)
	}
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" || r == nil {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	// Literals first: a registered cookie header would otherwise be only
	// partially masked by the cookie patterns.
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	for _, p := range patterns {
		s = p.ReplaceAllString(s, "${1}"+RedactPlaceholder)
	}
	return s
}

// IsSensitiveKey reports whether values logged under key are always secret.
func IsSensitiveKey(key string) bool {
	return sensitiveKeyPattern.MatchString(key)
}

// DefaultPatterns returns patterns for Messenger session cookies, form
// tokens and bearer credentials. Group 1 of each pattern is kept.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Session cookies: c_user, xs, datr, sb, fr.
		regexp.MustCompile(`\b((?:c_user|xs|datr|sb|fr)=)[^;\s&"]+`),
		// CSRF form token.
		regexp.MustCompile(`\b(fb_dtsg=)[^;\s&"]+`),
		// HTTP bearer credentials.
		regexp.MustCompile(`(?i)\b(bearer\s+)[A-Za-z0-9\-._~+/]+=*`),
	}
}
