package invoker

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrorPayload renders msg as the single-line {"error": msg} object fed back
// to the model.
func ErrorPayload(msg string) string {
	s, err := sjson.Set(`{}`, "error", msg)
	if err != nil {
		return `{"error":"unencodable error message"}`
	}
	return s
}

// IsErrorPayload reports whether payload is an error object produced by
// ErrorPayload.
func IsErrorPayload(payload string) bool {
	p := strings.TrimSpace(payload)
	if !strings.HasPrefix(p, "{") || !gjson.Valid(p) {
		return false
	}
	return gjson.Get(p, "error").Type == gjson.String
}
