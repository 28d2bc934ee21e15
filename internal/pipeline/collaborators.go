package pipeline

import (
	"context"

	"github.com/ppiankov/claimtrace/internal/model"
)

// Extractor turns input text into claim strings in source order
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

// QualityEvaluator rates a claim. originalText may be empty.
type QualityEvaluator interface {
	Evaluate(ctx context.Context, claim, originalText string) (*model.QualityAssessment, error)
}

// Reasoner produces a verdict. maxIterations bounds the collaborator's
// own exploration; the pipeline calls it exactly once per claim.
type Reasoner interface {
	Reason(ctx context.Context, claim string, maxIterations int) (*model.ReasoningOutcome, error)
}

// TrustAnalyzer assesses the provenance of evidence for a claim
type TrustAnalyzer interface {
	AnalyzeTrust(ctx context.Context, claim string) (*model.TrustAnalysis, error)
}

// Explainer writes the final explanation from the rendered evidence
type Explainer interface {
	Explain(ctx context.Context, claim, evidence string, verdict model.Verdict) (*model.Explanation, error)
}

// CacheGate looks up previously verified claims
type CacheGate interface {
	Check(ctx context.Context, claim string) (*model.ClaimVerificationResult, bool)
}

// Collaborators bundles the stage implementations a Verifier drives
type Collaborators struct {
	Extractor Extractor
	Quality   QualityEvaluator
	Reasoner  Reasoner
	Trust     TrustAnalyzer
	Explainer Explainer
	Cache     CacheGate // nil means no cache
}
