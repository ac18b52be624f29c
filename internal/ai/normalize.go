package ai

import (
	"encoding/json"
	"log/slog"
	"strings"
)

// Kind tags a normalized result.
type Kind string

const (
	// KindPlainText is clean text, returned verbatim or extracted from the
	// reply's optimized_cv field.
	KindPlainText Kind = "plain_text"
	// KindStructured is a decoded JSON object.
	KindStructured Kind = "structured"
)

// Result is the canonical value produced from a raw AI reply.
type Result struct {
	Kind   Kind
	Text   string
	Fields map[string]any
}

// Value returns the payload to serialize into an API response.
func (r Result) Value() any {
	if r.Kind == KindStructured {
		return r.Fields
	}
	return r.Text
}

// Document returns the result as a single string suitable for a session
// slot: the text itself, or the structured object re-serialized.
func (r Result) Document() string {
	if r.Kind == KindPlainText {
		return r.Text
	}
	blob, err := json.Marshal(r.Fields)
	if err != nil {
		return r.Text
	}
	return string(blob)
}

const fenceTag = "```json"

// Normalize turns an arbitrary AI reply into a canonical result. It is
// total: every input produces a result and decode failures degrade to the
// raw text unchanged.
//
// Replies without a brace pair are treated as already-clean text. Otherwise
// a fenced ```json block is unwrapped if present, or the substring from the
// first '{' to the last '}' is taken, and decoded. A decoded object's
// optimized_cv field wins over the whole object when it is a plain string.
func Normalize(raw string) Result {
	if !strings.Contains(raw, "{") || !strings.Contains(raw, "}") {
		return Result{Kind: KindPlainText, Text: raw}
	}

	candidate := raw
	if idx := strings.Index(raw, fenceTag); idx >= 0 {
		body := raw[idx+len(fenceTag):]
		if end := strings.Index(body, "```"); end >= 0 {
			candidate = strings.TrimSpace(body[:end])
		}
	} else {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start < end {
			candidate = raw[start : end+1]
		}
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
		slog.Warn("failed to parse AI reply as JSON, returning raw text", "error", err)
		return Result{Kind: KindPlainText, Text: raw}
	}

	if v, ok := fields["optimized_cv"]; ok {
		if text, ok := v.(string); ok {
			return Result{Kind: KindPlainText, Text: text}
		}
	}
	return Result{Kind: KindStructured, Fields: fields}
}
