package trust

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/ppiankov/claimtrace/internal/search"
)

const synthSystem = `You assess the provenance of evidence for factual claims.
Think about how many steps each source is removed from an original or primary source.
Only cite URLs that appear in the search results you were given or retrieved yourself.`

const synthPrompt = `Claim: %s
Search query used: %s

Search results:
%s
%s
Return JSON:
{
  "trust_score": 0.0-1.0,
  "reasoning": "how reliable the evidence chain is and why",
  "sources": [{"url": "...", "title": "...", "summary": "one sentence", "trust_score": 0.0-1.0}]
}
List only sources relevant to the claim.`

const searchToolHint = "You may call the web_search tool for follow-up queries if the results above are insufficient.\n"

type synthSource struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	TrustScore *float64 `json:"trust_score"`
}

type synthResponse struct {
	TrustScore *float64      `json:"trust_score" validate:"required,gte=0,lte=1"`
	Reasoning  string        `json:"reasoning" validate:"required"`
	Sources    []synthSource `json:"sources"`
}

// LLMSynthesizer asks the model for a trust assessment. Providers with
// function calling also get a web_search tool bound to the input searcher.
type LLMSynthesizer struct {
	provider llm.Provider
	validate *validator.Validate
}

// NewLLMSynthesizer creates a synthesizer
func NewLLMSynthesizer(provider llm.Provider) *LLMSynthesizer {
	return &LLMSynthesizer{provider: provider, validate: validator.New()}
}

// Synthesize returns the model's trust analysis. Sources with malformed
// URLs are dropped.
func (s *LLMSynthesizer) Synthesize(ctx context.Context, in SynthesisInput) (*model.TrustAnalysis, error) {
	req := llm.CompletionRequest{
		System: synthSystem,
		JSON:   true,
	}

	hint := ""
	if in.Searcher != nil && llm.SupportsTools(s.provider) {
		hint = searchToolHint
		req.Tools = []llm.Tool{search.Tool(in.Searcher)}
	}
	req.Prompt = fmt.Sprintf(synthPrompt, in.Claim, in.Query, search.FormatResults(in.Results), hint)

	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("trust synthesis: %w", err)
	}

	var out synthResponse
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("decode trust synthesis: %w", err)
	}
	if err := s.validate.Struct(out); err != nil {
		return nil, fmt.Errorf("invalid trust synthesis: %w", err)
	}

	analysis := &model.TrustAnalysis{
		Score:     *out.TrustScore,
		Reasoning: out.Reasoning,
		Query:     in.Query,
	}
	for _, src := range out.Sources {
		if s.validate.Var(src.URL, "required,url") != nil {
			continue
		}
		analysis.Sources = append(analysis.Sources, model.Source{
			URL:        src.URL,
			Title:      src.Title,
			Summary:    src.Summary,
			TrustScore: src.TrustScore,
		})
	}
	return analysis, nil
}
