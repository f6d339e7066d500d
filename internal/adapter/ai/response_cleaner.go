// Package ai provides adapters for LLM and embedding providers, plus
// utilities for handling their malformed responses.
package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ResponseCleaner sanitizes LLM chat output down to a parseable JSON object.
// Models frequently wrap JSON in markdown fences or prepend prose even when
// instructed not to.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

var (
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)(\w+)(\s*):`)
)

// CleanAndValidateJSON extracts a JSON object from raw model output and
// verifies it parses. Repairs are only attempted when the extracted object is
// not already valid, so well-formed content passes through untouched.
func (rc *ResponseCleaner) CleanAndValidateJSON(raw string) (string, error) {
	cleaned := rc.stripMarkdownFences(raw)
	cleaned = rc.extractObject(cleaned)

	if rc.IsValidJSON(cleaned) {
		return cleaned, nil
	}

	repaired := rc.repairJSON(cleaned)
	if rc.IsValidJSON(repaired) {
		return repaired, nil
	}

	return "", &JSONValidationError{
		Original: raw,
		Cleaned:  repaired,
		Message:  "cleaned response is still not valid JSON",
	}
}

// stripMarkdownFences removes ```json fences around the payload.
func (rc *ResponseCleaner) stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractObject returns the first balanced top-level JSON object in s,
// discarding any surrounding prose. Braces inside string literals are
// skipped so justification text containing "{" does not truncate the object.
func (rc *ResponseCleaner) extractObject(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return s
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

// repairJSON fixes the issues smaller models produce most often: trailing
// commas, unquoted keys, and single-quoted strings.
func (rc *ResponseCleaner) repairJSON(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = bareKeyRe.ReplaceAllString(s, `$1"$2"$3:`)
	s = strings.ReplaceAll(s, "'", `"`)
	return s
}

// IsValidJSON reports whether s parses as JSON.
func (rc *ResponseCleaner) IsValidJSON(s string) bool {
	var v any
	return json.Unmarshal([]byte(s), &v) == nil
}

// JSONValidationError is returned when a response cannot be repaired into
// valid JSON.
type JSONValidationError struct {
	Original string
	Cleaned  string
	Message  string
}

func (e *JSONValidationError) Error() string {
	return e.Message
}
