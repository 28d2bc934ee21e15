// Package explain writes the final human-readable explanation for a claim.
package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/ppiankov/claimtrace/internal/model"
)

const system = `You write short, plain-language fact-check explanations.
Use only the evidence provided. Cite URLs only if they appear in the evidence.`

const prompt = `Claim: %s
Preliminary verdict: %s

Evidence gathered so far:
%s

Explain in 2-4 sentences whether the claim holds and why.
If the claim is false or misleading, give the correct information; otherwise leave "corrected_information" empty.

Return JSON:
{"explanation": "...", "corrected_information": "..."}`

// LLMExplainer synthesizes explanations with a language model
type LLMExplainer struct {
	provider llm.Provider
	strict   bool
}

// NewLLMExplainer creates an explainer. In strict mode any URL in the
// output must also appear in the evidence text.
func NewLLMExplainer(provider llm.Provider, strict bool) *LLMExplainer {
	return &LLMExplainer{provider: provider, strict: strict}
}

type explainResponse struct {
	Explanation          string `json:"explanation"`
	CorrectedInformation string `json:"corrected_information"`
}

// Explain returns the synthesizer's explanation and, when it judges one is
// needed, corrected information. Callers decide whether to keep the
// correction.
func (e *LLMExplainer) Explain(ctx context.Context, claim, evidence string, verdict model.Verdict) (*model.Explanation, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Prompt:    fmt.Sprintf(prompt, claim, verdict, evidence),
		JSON:      true,
		MaxTokens: 600,
	})
	if err != nil {
		return nil, fmt.Errorf("explain claim: %w", err)
	}

	var out explainResponse
	if err := llm.DecodeJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("decode explanation: %w", err)
	}

	exp := &model.Explanation{
		Explanation:          strings.TrimSpace(out.Explanation),
		CorrectedInformation: strings.TrimSpace(out.CorrectedInformation),
	}
	if exp.Explanation == "" {
		return nil, fmt.Errorf("decode explanation: %w", llm.ErrEmptyResponse)
	}

	if e.strict {
		allowed := llm.CitedURLs(evidence)
		if err := llm.CheckCitations(exp.Explanation+"\n"+exp.CorrectedInformation, allowed); err != nil {
			return nil, err
		}
	}
	return exp, nil
}
