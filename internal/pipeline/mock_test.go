package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ppiankov/claimtrace/internal/model"
)

type fakeExtractor struct {
	claims []string
	err    error
	calls  atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

type fakeQuality struct {
	err   error
	panic bool
	calls atomic.Int32
}

func (f *fakeQuality) Evaluate(ctx context.Context, claim, originalText string) (*model.QualityAssessment, error) {
	f.calls.Add(1)
	if f.panic {
		panic("quality exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.QualityAssessment{
		Atomicity:           model.AtomicityHigh,
		Fluency:             model.FluencyGood,
		Decontextualization: model.DecontextualizationHigh,
		Faithfulness:        model.FaithfulnessHigh,
		Focus:               model.FocusSpecific,
		Checkworthiness:     model.CheckworthinessHigh,
		Overall:             "clear claim",
	}, nil
}

// fakeReasoner answers from a per-claim table. Unknown claims are
// supported with confidence 0.9 and no sub-claims.
type fakeReasoner struct {
	mu       sync.Mutex
	outcomes map[string]*model.ReasoningOutcome
	errs     map[string]error
	panics   map[string]bool
	calls    []reasonCall
	hook     func(ctx context.Context, claim string) error
}

type reasonCall struct {
	claim         string
	maxIterations int
}

func (f *fakeReasoner) Reason(ctx context.Context, claim string, maxIterations int) (*model.ReasoningOutcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, reasonCall{claim: claim, maxIterations: maxIterations})
	out, hasOut := f.outcomes[claim]
	err := f.errs[claim]
	shouldPanic := f.panics[claim]
	hook := f.hook
	f.mu.Unlock()

	if shouldPanic {
		panic("reasoner exploded")
	}
	if hook != nil {
		if herr := hook(ctx, claim); herr != nil {
			return nil, herr
		}
	}
	if err != nil {
		return nil, err
	}
	if hasOut {
		cp := *out
		return &cp, nil
	}
	return &model.ReasoningOutcome{
		Verdict:    model.VerdictSupported,
		Reasoning:  "Reasoning for " + claim,
		Confidence: model.Float(0.9),
	}, nil
}

func (f *fakeReasoner) callsFor(claim string) []reasonCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []reasonCall
	for _, c := range f.calls {
		if c.claim == claim {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeReasoner) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTrust struct {
	mu     sync.Mutex
	errs   map[string]error
	panics map[string]bool
	calls  []string
}

func (f *fakeTrust) AnalyzeTrust(ctx context.Context, claim string) (*model.TrustAnalysis, error) {
	f.mu.Lock()
	f.calls = append(f.calls, claim)
	err := f.errs[claim]
	shouldPanic := f.panics[claim]
	f.mu.Unlock()

	if shouldPanic {
		panic("trust exploded")
	}
	if err != nil {
		return nil, err
	}
	return &model.TrustAnalysis{
		Score:     0.8,
		Reasoning: "Trusted sources agree on " + claim,
		Query:     claim,
		Sources: []model.Source{{
			ID:         "1",
			URL:        "https://example.org/" + strings.ReplaceAll(strings.ToLower(claim), " ", "-"),
			Title:      "Example source",
			TrustScore: model.Float(0.8),
			Type:       model.SourceTypeResult,
			Authority:  model.TierSecondary,
		}},
	}, nil
}

func (f *fakeTrust) count(claim string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == claim {
			n++
		}
	}
	return n
}

type fakeExplainer struct {
	err        error
	panic      bool
	correction string
	mu         sync.Mutex
	evidence   []string
}

func (f *fakeExplainer) Explain(ctx context.Context, claim, evidence string, verdict model.Verdict) (*model.Explanation, error) {
	f.mu.Lock()
	f.evidence = append(f.evidence, evidence)
	f.mu.Unlock()

	if f.panic {
		panic("explainer exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &model.Explanation{
		Explanation:          "Explained: " + claim,
		CorrectedInformation: f.correction,
	}, nil
}

func (f *fakeExplainer) lastEvidence() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.evidence) == 0 {
		return ""
	}
	return f.evidence[len(f.evidence)-1]
}

type fakeCache struct {
	hits map[string]*model.ClaimVerificationResult
}

func (f *fakeCache) Check(ctx context.Context, claim string) (*model.ClaimVerificationResult, bool) {
	r, ok := f.hits[claim]
	return r, ok
}

var errBoom = errors.New("boom")

type fixture struct {
	extractor *fakeExtractor
	quality   *fakeQuality
	reasoner  *fakeReasoner
	trust     *fakeTrust
	explainer *fakeExplainer
}

func newFixture(claims ...string) *fixture {
	return &fixture{
		extractor: &fakeExtractor{claims: claims},
		quality:   &fakeQuality{},
		reasoner: &fakeReasoner{
			outcomes: map[string]*model.ReasoningOutcome{},
			errs:     map[string]error{},
			panics:   map[string]bool{},
		},
		trust:     &fakeTrust{errs: map[string]error{}, panics: map[string]bool{}},
		explainer: &fakeExplainer{},
	}
}

func (f *fixture) collaborators() Collaborators {
	return Collaborators{
		Extractor: f.extractor,
		Quality:   f.quality,
		Reasoner:  f.reasoner,
		Trust:     f.trust,
		Explainer: f.explainer,
	}
}

func (f *fixture) verifier(mutate ...func(*Options)) *Verifier {
	opts := DefaultOptions()
	opts.NewBatchID = func() string { return "batch" }
	for _, m := range mutate {
		m(&opts)
	}
	return NewVerifier(f.collaborators(), opts, nil, nil)
}
