package analytics

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/folio/folio/internal/core"
)

const (
	maxPagePath      = 500
	maxReferrer      = 2048
	maxSessionID     = 120
	maxMetadataKeys  = 12
	maxMetadataKey   = 60
	maxMetadataValue = 180
)

var (
	piiKeyPattern  = regexp.MustCompile(`(?i)(email|phone|name|address|ip|contact)`)
	emailPattern   = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	sessionPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{4,120}$`)
	countryPattern = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Sanitize strips identifying detail from in. userAgent decides the device
// type when the payload does not name a valid one.
func Sanitize(in Input, userAgent string) core.AnalyticsEvent {
	return core.AnalyticsEvent{
		EventType:   in.EventType,
		PagePath:    PagePath(deref(in.PagePath)),
		Referrer:    Referrer(deref(in.Referrer)),
		CountryCode: CountryCode(deref(in.CountryCode)),
		DeviceType:  DeviceType(deref(in.DeviceType), userAgent),
		SessionID:   SessionID(deref(in.SessionID)),
		Metadata:    SanitizeMetadata(in.Metadata),
	}
}

// PagePath keeps only the path of a relative or absolute URL.
func PagePath(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		path, _, _ := strings.Cut(trimmed, "?")
		path, _, _ = strings.Cut(path, "#")
		return orRoot(truncate(path, maxPagePath))
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Opaque != "" {
		return "/"
	}
	path := parsed.EscapedPath()
	if path == "" && parsed.Host != "" {
		path = "/"
	}
	return orRoot(truncate(path, maxPagePath))
}

// Referrer reduces a URL to origin plus path.
func Referrer(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	value := truncate(strings.ToLower(parsed.Scheme)+"://"+strings.ToLower(parsed.Host)+path, maxReferrer)
	return &value
}

// CountryCode accepts two ASCII letters in any case.
func CountryCode(raw string) *string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !countryPattern.MatchString(code) {
		return nil
	}
	return &code
}

// SessionID accepts opaque client session tokens.
func SessionID(raw string) *string {
	session := truncate(strings.TrimSpace(raw), maxSessionID)
	if !sessionPattern.MatchString(session) {
		return nil
	}
	return &session
}

// DeviceType returns explicit when valid, otherwise a guess from userAgent.
func DeviceType(explicit, userAgent string) core.DeviceType {
	if device := core.DeviceType(explicit); validDevice(device) {
		return device
	}
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"):
		return core.DeviceMobile
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		return core.DeviceTablet
	default:
		return core.DeviceDesktop
	}
}

// SanitizeMetadata keeps up to 12 scalar entries, dropping keys that look
// like personal data and string values that contain email addresses.
func SanitizeMetadata(entries Metadata) map[string]core.MetadataValue {
	out := map[string]core.MetadataValue{}
	for _, entry := range entries {
		if len(out) >= maxMetadataKeys {
			break
		}
		key := truncate(strings.TrimSpace(entry.Key), maxMetadataKey)
		if key == "" || piiKeyPattern.MatchString(key) {
			continue
		}

		value, ok := scalar(entry.Value)
		if !ok {
			continue
		}
		if s, isString := value.(string); isString {
			s = truncate(strings.TrimSpace(s), maxMetadataValue)
			if s == "" || emailPattern.MatchString(s) {
				continue
			}
			value = s
		}
		out[key] = value
	}
	return out
}

// scalar decodes raw when it is null, a number, a boolean, or a string.
func scalar(raw json.RawMessage) (core.MetadataValue, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false
	}
	switch trimmed[0] {
	case '{', '[':
		return nil, false
	}
	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, false
	}
	switch value.(type) {
	case nil, float64, bool, string:
		return value, true
	default:
		return nil, false
	}
}

func validDevice(device core.DeviceType) bool {
	switch device {
	case core.DeviceDesktop, core.DeviceMobile, core.DeviceTablet:
		return true
	default:
		return false
	}
}

func truncate(value string, maxRunes int) string {
	if len(value) <= maxRunes {
		return value
	}
	runes := []rune(value)
	if len(runes) <= maxRunes {
		return value
	}
	return string(runes[:maxRunes])
}

func orRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
