package security

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Sensitive header names that should be redacted.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// Key fragments that mark a payload field as a credential.
var credentialFields = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"api_key",
	"apikey",
	"private_key",
	"credential",
}

// Key fragments of e-CF contact fields that hold personal data, such as
// CorreoComprador or TablaTelefonoEmisor.
var contactFields = []string{
	"correo",
	"telefono",
	"contacto",
}

const redactedValue = "[REDACTED]"

// SanitizeHeaders removes sensitive headers from an HTTP header map.
// Returns a new map with sensitive values redacted.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))

	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
		} else {
			sanitized[key] = strings.Join(values, ", ")
		}
	}

	return sanitized
}

// SanitizePayload redacts credentials and contact data from a decoded request
// and encodes it as JSON for storage. Payloads larger than maxSize are replaced
// by a truncated preview. maxSize <= 0 disables the cap.
func SanitizePayload(payload any, maxSize int) json.RawMessage {
	if payload == nil {
		return nil
	}

	encoded, err := json.Marshal(sanitizeValue(payload))
	if err != nil {
		encoded, _ = json.Marshal(map[string]any{
			"_error":  err.Error(),
			"_format": fmt.Sprintf("%T", payload),
		})
		return encoded
	}

	if maxSize > 0 && len(encoded) > maxSize {
		truncated, _ := json.Marshal(map[string]any{
			"_truncated": true,
			"_size":      len(encoded),
			"_preview":   string(encoded[:maxSize]),
		})
		return truncated
	}

	return encoded
}

// sanitizeValue recursively sanitizes a decoded value. YAML mappings are
// converted to string-keyed objects so they can be encoded as JSON.
func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return sanitizeMap(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = item
		}
		return sanitizeMap(m)
	case []any:
		return sanitizeSlice(val)
	default:
		return val
	}
}

// sanitizeMap redacts sensitive fields of an object.
func sanitizeMap(m map[string]any) map[string]any {
	sanitized := make(map[string]any, len(m))

	for key, value := range m {
		if isSensitiveField(key) {
			sanitized[key] = redactedValue
		} else {
			sanitized[key] = sanitizeValue(value)
		}
	}

	return sanitized
}

func sanitizeSlice(s []any) []any {
	sanitized := make([]any, len(s))
	for i, value := range s {
		sanitized[i] = sanitizeValue(value)
	}
	return sanitized
}

// IsCredentialKey reports whether key names a credential.
func IsCredentialKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, f := range credentialFields {
		if strings.Contains(lowerKey, f) {
			return true
		}
	}
	return false
}

// RedactedValue replaces sensitive values in payloads and logs.
func RedactedValue() string { return redactedValue }

func isSensitiveField(key string) bool {
	if IsCredentialKey(key) {
		return true
	}
	lowerKey := strings.ToLower(key)
	for _, f := range contactFields {
		if strings.Contains(lowerKey, f) {
			return true
		}
	}
	return false
}

// SanitizeURL redacts credential query parameters from a URL.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	query := u.Query()
	changed := false
	for key := range query {
		lowerKey := strings.ToLower(key)
		for _, f := range credentialFields {
			if strings.Contains(lowerKey, f) {
				query.Set(key, redactedValue)
				changed = true
				break
			}
		}
	}
	if !changed {
		return raw
	}

	u.RawQuery = query.Encode()
	return u.String()
}
