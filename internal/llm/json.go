package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a response contains no JSON object
var ErrNoJSON = errors.New("no JSON found in response")

const jsonInstruction = "Respond with a single JSON object and nothing else."

var fencePattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// DecodeJSON parses a model response into v. Markdown code fences are
// stripped, and if the text still does not parse, the outermost {...}
// span is tried.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)

	if strings.Contains(text, "```") {
		if m := fencePattern.FindStringSubmatch(text); len(m) > 1 {
			text = m[1]
		}
	}

	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ErrNoJSON
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
