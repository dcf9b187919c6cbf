package log

import "strings"

// sensitiveKeySubstrings marks parameter keys whose values must never
// reach log output.
var sensitiveKeySubstrings = []string{
	"token", "secret", "password", "api_key", "apikey", "key",
	"authorization", "credential", "cookie",
}

// RedactParams returns a copy of params safe for logging: values under
// sensitive-looking keys are replaced with "[REDACTED]", and nested
// maps and slices are redacted recursively. The input map is never
// modified.
func RedactParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if isSensitiveKey(k) {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return RedactParams(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = redactValue(item)
		}
		return out
	}
	return v
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
