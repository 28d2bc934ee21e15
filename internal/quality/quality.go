// Package quality rates the linguistic quality of extracted claims.
package quality

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/ppiankov/claimtrace/internal/model"
)

const system = `You rate factual claims for fact-checking readiness. You never judge whether a claim is true.`

const prompt = `Rate the claim on six dimensions.

- atomicity: high | medium | low (one checkable fact vs. several bundled together)
- fluency: good | fair | poor
- decontextualization: high | medium | low (understandable without the source text)
- faithfulness: high | medium | low | na (matches the original text; "na" when no original text is given)
- focus: specific | neutral | broad
- checkworthiness: high | medium | low

Claim: %s
%s
Return JSON:
{"atomicity": "...", "fluency": "...", "decontextualization": "...", "faithfulness": "...", "focus": "...", "checkworthiness": "...", "overall_assessment": "one or two sentences"}`

// LLMEvaluator scores claims with a language model
type LLMEvaluator struct {
	provider llm.Provider
	validate *validator.Validate
}

// NewLLMEvaluator creates an evaluator
func NewLLMEvaluator(provider llm.Provider) *LLMEvaluator {
	return &LLMEvaluator{provider: provider, validate: validator.New()}
}

// Evaluate rates a claim. originalText may be empty, in which case
// faithfulness is always "na".
func (e *LLMEvaluator) Evaluate(ctx context.Context, claim, originalText string) (*model.QualityAssessment, error) {
	original := ""
	if strings.TrimSpace(originalText) != "" {
		original = fmt.Sprintf("\nOriginal text:\n%s\n", originalText)
	}

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		System:    system,
		Prompt:    fmt.Sprintf(prompt, claim, original),
		JSON:      true,
		MaxTokens: 400,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate quality: %w", err)
	}

	var qa model.QualityAssessment
	if err := llm.DecodeJSON(resp.Text, &qa); err != nil {
		return nil, fmt.Errorf("decode quality: %w", err)
	}
	normalize(&qa)
	if original == "" {
		qa.Faithfulness = model.FaithfulnessNA
	}

	if err := e.validate.Struct(qa); err != nil {
		return nil, fmt.Errorf("invalid quality assessment: %w", err)
	}
	return &qa, nil
}

func normalize(qa *model.QualityAssessment) {
	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	qa.Atomicity = model.Atomicity(lower(string(qa.Atomicity)))
	qa.Fluency = model.Fluency(lower(string(qa.Fluency)))
	qa.Decontextualization = model.Decontextualization(lower(string(qa.Decontextualization)))
	qa.Faithfulness = model.Faithfulness(lower(string(qa.Faithfulness)))
	if qa.Faithfulness == "n/a" {
		qa.Faithfulness = model.FaithfulnessNA
	}
	qa.Focus = model.Focus(lower(string(qa.Focus)))
	qa.Checkworthiness = model.Checkworthiness(lower(string(qa.Checkworthiness)))
	qa.Overall = strings.TrimSpace(qa.Overall)
}
