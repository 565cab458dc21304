// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"strings"
)

// ParseObject extracts the outermost JSON object from a raw model response
// and unmarshals it into a loosely-typed map. Models sometimes wrap their
// output in markdown fences or surround it with commentary despite the
// JSON-only instruction; fences are stripped and only the span from the
// first '{' to the last '}' is parsed. Returns ParseError when no
// well-formed object can be found.
func ParseObject(raw string) (map[string]any, error) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, &ParseError{Reason: "no JSON object found in response", Raw: raw}
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &data); err != nil {
		return nil, &ParseError{Reason: err.Error(), Raw: raw}
	}
	return data, nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = s[3:]
		if len(s) >= 4 && strings.EqualFold(s[:4], "json") {
			s = s[4:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
