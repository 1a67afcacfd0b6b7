package common

import "strings"

// DefaultIfBlank returns def when s is empty or only whitespace, otherwise s trimmed.
func DefaultIfBlank(s, def string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}
	return def
}

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
