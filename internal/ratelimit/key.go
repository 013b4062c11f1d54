package ratelimit

import (
	"net/http"
	"strings"
)

const maxKeyPartLength = 120

// BuildKey joins normalized identity parts under prefix. Parts are trimmed,
// lowercased and truncated; empty parts are dropped. With no usable parts all
// callers share the prefix's anonymous bucket.
func BuildKey(prefix string, parts ...string) string {
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ToLower(part)
		if runes := []rune(part); len(runes) > maxKeyPartLength {
			part = string(runes[:maxKeyPartLength])
		}
		normalized = append(normalized, part)
	}

	if len(normalized) == 0 {
		return prefix + ":anon"
	}
	return prefix + ":" + strings.Join(normalized, ":")
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then
// "unknown". A malformed X-Forwarded-For with an empty first hop returns "".
func ClientIP(r *http.Request) string {
	if r == nil {
		return "unknown"
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		// An empty first hop yields "" so BuildKey falls back to the anon bucket.
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return "unknown"
}
