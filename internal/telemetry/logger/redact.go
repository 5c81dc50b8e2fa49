package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys whose values are secrets.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"encryption_key",
	"credential",
	"authorization",
}

// Attribute keys whose values are document bodies. Their size is logged
// instead of their text.
var contentKeys = map[string]bool{
	"content": true,
	"body":    true,
	"css":     true,
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive masks secrets and document bodies in a's value.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}
		if IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
		if contentKeys[strings.ToLower(a.Key)] {
			return slog.String(a.Key, fmt.Sprintf("[%d bytes]", len(strVal)))
		}
		return a
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// IsSensitiveKey checks if a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// RedactString returns the placeholder for non-empty secrets.
func RedactString(value string) string {
	if value == "" {
		return ""
	}
	return redactedValue
}
