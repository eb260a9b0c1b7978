package sanitize

import (
	"encoding/json"
	"strings"
)

const (
	redactedMarker = "[REDACTED]"
	elisionMarker  = "[...]"
)

// Data returns a deep copy of v with credential-carrying string fields
// redacted. A field is credential-carrying when its key matches "token" or
// "authorization" case-insensitively. Values longer than 10 characters keep
// their first and last 5 characters around an elision marker; shorter values
// are replaced wholesale. The input is never mutated.
func Data(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	// JSON round trip both deep-copies and normalises the value into
	// maps/slices the walk below understands.
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{"sanitize_error": err.Error()}
	}
	var copied interface{}
	if err := json.Unmarshal(raw, &copied); err != nil {
		return map[string]interface{}{"sanitize_error": err.Error()}
	}
	return walk(copied)
}

// Redact shortens a single secret the same way Data does for matched fields.
func Redact(secret string) string {
	if len(secret) > 10 {
		return secret[:5] + elisionMarker + secret[len(secret)-5:]
	}
	return redactedMarker
}

func walk(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			if s, ok := child.(string); ok && sensitiveKey(k) {
				val[k] = Redact(s)
				continue
			}
			val[k] = walk(child)
		}
		return val
	case []interface{}:
		for i := range val {
			val[i] = walk(val[i])
		}
		return val
	default:
		return v
	}
}

func sensitiveKey(k string) bool {
	switch strings.ToLower(k) {
	case "token", "authorization":
		return true
	}
	return false
}
