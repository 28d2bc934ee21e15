package trust

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimtrace/internal/llm"
)

const maxQueries = 3

const queryPrompt = `Write between 1 and 3 short web search queries that would find evidence for or against the claim below.
Prefer queries that surface primary sources (official records, papers, statutes).

Claim: %s

Return JSON: {"queries": ["..."]}`

// LLMQueryGenerator asks the model for search queries
type LLMQueryGenerator struct {
	provider llm.Provider
}

// NewLLMQueryGenerator creates a query generator
func NewLLMQueryGenerator(provider llm.Provider) *LLMQueryGenerator {
	return &LLMQueryGenerator{provider: provider}
}

// Generate returns up to three non-empty, distinct queries
func (g *LLMQueryGenerator) Generate(ctx context.Context, claim string) ([]string, error) {
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		System:    "You write precise web search queries for fact-checking.",
		Prompt:    fmt.Sprintf(queryPrompt, claim),
		JSON:      true,
		MaxTokens: 200,
	})
	if err != nil {
		return nil, fmt.Errorf("generate queries: %w", err)
	}

	var out struct {
		Queries []string `json:"queries"`
	}
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("decode queries: %w", err)
	}

	seen := make(map[string]bool)
	var queries []string
	for _, q := range out.Queries {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		queries = append(queries, q)
		if len(queries) == maxQueries {
			break
		}
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("generate queries: model returned none")
	}
	return queries, nil
}
