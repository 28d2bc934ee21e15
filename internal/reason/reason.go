// Package reason produces verdicts for single claims.
package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/ppiankov/claimtrace/internal/search"
)

const system = `You are a careful fact checker. Judge a single factual claim using what you know and, when available, the web_search tool.
Say "neutral" when the evidence is insufficient or mixed. Never invent sources.`

const prompt = `Claim: %s

You have at most %d exploration pass(es). %s
If you are not confident, list up to 3 narrower sub-claims whose independent verification would settle the question.

Return JSON:
{"verdict": "supported|contradicted|neutral", "confidence": 0.0-1.0, "reasoning": "...", "nuance": "optional caveats", "sub_claims": ["..."]}`

const maxSubClaims = 3

// LLMReasoner asks a language model for a verdict
type LLMReasoner struct {
	provider llm.Provider
	searcher search.Searcher // optional
}

// NewLLMReasoner creates a reasoner. The searcher is bound as a tool when
// the provider resolves tool calls natively.
func NewLLMReasoner(provider llm.Provider, searcher search.Searcher) *LLMReasoner {
	return &LLMReasoner{provider: provider, searcher: searcher}
}

type reasonResponse struct {
	Verdict    string   `json:"verdict"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
	Nuance     string   `json:"nuance"`
	SubClaims  []string `json:"sub_claims"`
}

// Reason judges a claim. maxIterations bounds the model's exploration:
// it caps tool rounds and is stated in the prompt. There is no retry here.
func (r *LLMReasoner) Reason(ctx context.Context, claim string, maxIterations int) (*model.ReasoningOutcome, error) {
	if maxIterations < 1 {
		maxIterations = 1
	}

	req := llm.CompletionRequest{
		System:    system,
		JSON:      true,
		MaxTokens: 800,
	}

	toolHint := "Answer from your own knowledge."
	if r.searcher != nil && llm.SupportsTools(r.provider) {
		req.Tools = []llm.Tool{search.Tool(r.searcher)}
		req.MaxToolRounds = maxIterations
		toolHint = "Each pass may issue web_search calls."
	}
	req.Prompt = fmt.Sprintf(prompt, claim, maxIterations, toolHint)

	resp, err := r.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reason claim: %w", err)
	}

	var out reasonResponse
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("decode reasoning: %w", err)
	}

	verdict, err := model.ParseVerdict(out.Verdict)
	if err != nil {
		return nil, fmt.Errorf("decode reasoning: %w", err)
	}

	outcome := &model.ReasoningOutcome{
		Verdict:   verdict,
		Reasoning: strings.TrimSpace(out.Reasoning),
		Nuance:    strings.TrimSpace(out.Nuance),
		SubClaims: cleanSubClaims(claim, out.SubClaims),
	}
	if out.Confidence != nil {
		c := clamp(*out.Confidence)
		outcome.Confidence = &c
	}
	return outcome, nil
}

func cleanSubClaims(claim string, raw []string) []string {
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(claim)): true}
	var out []string
	for _, s := range raw {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
		if len(out) == maxSubClaims {
			break
		}
	}
	return out
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
