package logging

import (
	"log/slog"
	"strings"
)

// Redacted replaces sensitive values.
const Redacted = "***REDACTED***"

var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"bearer",
	"authorization",
	"passphrase",
	"code",
}

// SensitiveKey reports whether an attribute key names a credential.
func SensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, p := range sensitiveKeyPatterns {
		if strings.Contains(k, p) {
			return true
		}
	}
	return false
}

// looksLikeJWT matches the compact serialization of a JSON object header.
func looksLikeJWT(v string) bool {
	return strings.HasPrefix(v, "eyJ") && strings.Count(v, ".") == 2
}

// Redact returns a copy of a with sensitive content replaced.
func Redact(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if SensitiveKey(a.Key) || looksLikeJWT(v) {
			return slog.String(a.Key, Redacted)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = Redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindAny:
		if SensitiveKey(a.Key) && a.Value.Any() != nil {
			return slog.String(a.Key, Redacted)
		}
	}
	return a
}
