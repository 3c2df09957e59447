package oracle

import (
	"encoding/json"

	"github.com/ledgermind/ledgermind/internal/model"
)

// ExtractDecision recovers a Decision from raw oracle output. Models wrap
// JSON in prose or markdown fences, so the scan walks the text for balanced
// top-level objects and takes the first one that unmarshals. When no object
// parses, the raw text becomes the reflection summary of a no-mutation
// decision and a DecisionParseError is returned alongside it.
func ExtractDecision(raw string) (Decision, error) {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' {
			continue
		}
		end, ok := matchBrace(raw, i)
		if !ok {
			continue
		}
		var d Decision
		if err := json.Unmarshal([]byte(raw[i:end+1]), &d); err == nil {
			return d, nil
		}
	}
	return Decision{ReflectionSummary: raw, NeedTool: false}, model.DecisionParseError{Raw: raw}
}

// matchBrace returns the index of the brace closing the object opened at
// start, tracking string literals and escapes so braces inside JSON strings
// do not count.
func matchBrace(s string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
				return i, true
			}
		}
	}
	return 0, false
}
