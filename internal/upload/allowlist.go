package upload

import "strings"

// AllowedContentType reports whether contentType matches any of the
// allowlist patterns. Matching is case-insensitive; "*/*" matches
// everything and a pattern ending in "/*" matches by prefix, so "video/*"
// matches "video/mp4". Anything else is an exact match. Blank inputs and
// blank patterns never match.
func AllowedContentType(contentType string, patterns []string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return false
	}
	for _, p := range patterns {
		pattern := strings.ToLower(strings.TrimSpace(p))
		if pattern == "" {
			continue
		}
		if pattern == "*/*" {
			return true
		}
		if strings.HasSuffix(pattern, "/*") {
			if strings.HasPrefix(ct, pattern[:len(pattern)-1]) {
				return true
			}
		} else if ct == pattern {
			return true
		}
	}
	return false
}
