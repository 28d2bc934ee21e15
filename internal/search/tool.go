package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/ppiankov/claimtrace/internal/model"
)

// ToolName is the function name models use to call the searcher
const ToolName = "web_search"

// Tool exposes a Searcher as a model-callable function
func Tool(s Searcher) llm.Tool {
	return llm.Tool{
		Name:        ToolName,
		Description: "Search the web and return up to a handful of results (title, link, snippet).",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{"type": "string", "description": "search query"},
			},
			"required": []string{"query"},
		},
		Call: func(ctx context.Context, args string) (string, error) {
			var params struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(args), &params); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			results, err := s.Search(ctx, params.Query)
			if err != nil {
				return "", err
			}
			b, err := json.Marshal(results)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}

// FormatResults renders search results as a numbered list for prompts
func FormatResults(results []model.SearchResult) string {
	if len(results) == 0 {
		return "(no results)\n"
	}
	var b strings.Builder
	for i, r := range results {
		if r.Type == model.SourceTypeNoResult {
			fmt.Fprintf(&b, "%d. (no results) %s\n", i+1, r.Snippet)
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return b.String()
}
