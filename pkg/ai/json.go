package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripFences removes a surrounding ```json ... ``` block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// decodeJSON decodes the first JSON object or array found in raw model output.
func decodeJSON(raw string, dst any) error {
	s := stripFences(raw)
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return fmt.Errorf("no JSON in model output")
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return fmt.Errorf("unterminated JSON in model output")
	}
	return json.Unmarshal([]byte(s[start:end+1]), dst)
}
