package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Parser errors.
var (
	ErrJSONNotFound  = errors.New("no JSON object found in response")
	ErrNotJSONObject = errors.New("response JSON is not an object")
)

// ExtractJSONObject pulls a single JSON object out of raw model output.
// Models wrap their answer in markdown fences or surround it with prose
// often enough that a plain unmarshal is not good enough: the text is
// first stripped of an optional code fence, then parsed whole, and only
// if that fails is the first balanced brace-delimited substring parsed
// instead.
func ExtractJSONObject(raw string) (map[string]interface{}, error) {
	text := stripCodeFence(strings.TrimSpace(raw))

	var value interface{}
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return asObject(value)
	}

	candidate, ok := firstBalancedObject(text)
	if !ok {
		return nil, ErrJSONNotFound
	}

	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrJSONNotFound, err.Error())
	}
	return asObject(value)
}

func asObject(value interface{}) (map[string]interface{}, error) {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return nil, ErrNotJSONObject
	}
	return obj, nil
}

// stripCodeFence removes a surrounding ``` fence, with or without a
// language tag, matched case-insensitively.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := text[3:]

	// Drop the language tag up to the first newline, if it looks like one.
	if i := strings.IndexByte(body, '\n'); i >= 0 && isFenceTag(body[:i]) {
		body = body[i+1:]
	}

	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

func isFenceTag(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// firstBalancedObject scans for the first '{' and returns the substring
// up to its matching '}', tracking JSON string literals and escapes so
// braces inside strings do not unbalance the scan.
func firstBalancedObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
