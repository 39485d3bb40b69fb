// Package validation is the single choke point every external-facing field
// passes through before it reaches a uniqueness check or persistence.
//
// Sanitize* functions are total and idempotent: they never fail and applying
// them twice gives the same result as applying them once. Validate* functions
// reject malformed values with a CodeValidation error naming the field and
// the rule it broke.
package validation

import (
	"regexp"
	"strings"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	htmlTag     = regexp.MustCompile(`(?s)<[^>]*>`)
	whitespace  = regexp.MustCompile(`\s+`)
	phoneNoise  = strings.NewReplacer(" ", "", "(", "", ")", "", "-", "", ".", "")
	angles      = strings.NewReplacer("<", "", ">", "")
)

// SanitizeText strips script blocks, HTML tags and stray angle brackets,
// collapses whitespace runs to one space and trims.
func SanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = scriptBlock.ReplaceAllString(s, "")
	s = htmlTag.ReplaceAllString(s, "")
	s = angles.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SanitizeEmail strips angle brackets, trims and lowercases.
func SanitizeEmail(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = angles.Replace(s)
	return strings.ToLower(strings.TrimSpace(s))
}

// SanitizePhone drops spaces, parentheses, hyphens and dots.
func SanitizePhone(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.TrimSpace(phoneNoise.Replace(s))
}

// SanitizeURL trims and defaults a missing scheme to https.
// An empty input stays empty so optional URLs can be cleared.
func SanitizeURL(s string) string {
	s = strings.TrimSpace(strings.ToValidUTF8(s, ""))
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "https://" + s
	}
	return s
}

// SanitizeReference trims an opaque blob reference. Format checks live in
// ValidateReference.
func SanitizeReference(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, ""))
}
