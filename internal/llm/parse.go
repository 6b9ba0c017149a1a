package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode extracts a structured payload from a model response. Strict JSON
// is tried first, then a fenced code block, then the first balanced JSON
// object embedded in surrounding prose. Total failure is returned as a
// transient call error so the caller may retry the invocation.
func Decode(text string, v any) error {
	trimmed := strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	if block, ok := fencedBlock(trimmed); ok {
		if err := json.Unmarshal([]byte(block), v); err == nil {
			return nil
		}
	}

	if obj, ok := embeddedObject(trimmed); ok {
		if err := json.Unmarshal([]byte(obj), v); err == nil {
			return nil
		}
	}

	return Transient("decode output", fmt.Errorf("no parseable JSON object in response (%d bytes)", len(text)))
}

// fencedBlock returns the contents of the first ``` fenced block,
// stripping an optional language tag on the opening fence.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	rest := s[start+3:]

	// Drop the language tag (e.g. "json") up to the first newline.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// embeddedObject returns the first balanced {...} group, tracking string
// literals so braces inside values do not miscount.
func embeddedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// brace characters inside strings are data
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
