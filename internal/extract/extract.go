// Package extract turns free text into atomic claim strings.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimtrace/internal/llm"
)

const system = `You extract factual claims from text for fact-checking.`

const prompt = `Extract every atomic, independently verifiable factual claim from the text below.
Each claim must make sense on its own: resolve pronouns and add the context it needs.
Skip opinions, questions and instructions. Keep the order in which claims appear.

Text:
"""
%s
"""

Return JSON: {"claims": ["...", "..."]}. Return {"claims": []} if there are none.`

// LLMExtractor extracts claims with a language model
type LLMExtractor struct {
	provider llm.Provider
}

// NewLLMExtractor creates an extractor
func NewLLMExtractor(provider llm.Provider) *LLMExtractor {
	return &LLMExtractor{provider: provider}
}

// Extract returns claims in source order. An empty slice is a valid
// result.
func (e *LLMExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Prompt:    fmt.Sprintf(prompt, text),
		JSON:      true,
		MaxTokens: 1500,
	})
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	var out struct {
		Claims []string `json:"claims"`
	}
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return dedupe(out.Claims), nil
}

// dedupe drops blank and repeated claims, keeping first occurrences
func dedupe(claims []string) []string {
	seen := make(map[string]bool)
	unique := []string{}

	for _, claim := range claims {
		claim = strings.TrimSpace(claim)
		key := strings.ToLower(claim)
		if claim == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, claim)
	}

	return unique
}
