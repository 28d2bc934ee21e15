// Package pipeline drives claim verification: extraction, quality,
// reasoning, sub-claim expansion, trust analysis and explanation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/ppiankov/claimtrace/internal/observability"
	"github.com/ppiankov/claimtrace/internal/trust"
	"github.com/ppiankov/claimtrace/internal/worker"
)

// Verifier runs the verification pipeline. It holds no per-batch state
// and is safe for concurrent use.
type Verifier struct {
	c       Collaborators
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics // nil records nothing
}

// NewVerifier creates a verifier. metrics may be nil.
func NewVerifier(c Collaborators, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Verifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Verifier{
		c:       c,
		opts:    opts.withDefaults(),
		logger:  logger,
		metrics: metrics,
	}
}

// VerifyClaimsInText verifies every claim in text and returns one result
// per claim in extraction order, or a single sentinel result.
func (v *Verifier) VerifyClaimsInText(ctx context.Context, text string) []model.ClaimVerificationResult {
	return v.Verify(ctx, text).Flatten()
}

// Verify runs one batch. It never returns nil and never panics on
// collaborator failures.
func (v *Verifier) Verify(ctx context.Context, text string) *BatchOutcome {
	ctx, span := observability.Tracer().Start(ctx, "pipeline.batch")
	defer span.End()

	if strings.TrimSpace(text) == "" {
		v.metrics.RecordBatch(string(OutcomeEmptyInput))
		return &BatchOutcome{Kind: OutcomeEmptyInput, Results: []model.ClaimVerificationResult{}}
	}

	if v.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.BatchTimeout)
		defer cancel()
	}

	batchID := v.opts.NewBatchID()
	span.SetAttributes(attribute.String("batch.id", batchID))
	logger := v.logger.With("batch_id", batchID)
	start := time.Now()

	texts, err := runStage(ctx, v, observability.StageExtract, func(ctx context.Context) ([]string, error) {
		return v.c.Extractor.Extract(ctx, text)
	})
	if err != nil {
		logger.Error("claim extraction failed", "error", err, "kind", llm.ClassifyError(err))
		span.SetStatus(codes.Error, err.Error())
		v.metrics.RecordBatch(string(OutcomeExtractionFailed))
		return &BatchOutcome{
			Kind:    OutcomeExtractionFailed,
			BatchID: batchID,
			Results: []model.ClaimVerificationResult{extractionFailedResult(text, err)},
			Reason:  err.Error(),
		}
	}

	if len(texts) == 0 {
		logger.Info("no claims found")
		v.metrics.RecordBatch(string(OutcomeNoClaims))
		return &BatchOutcome{
			Kind:    OutcomeNoClaims,
			BatchID: batchID,
			Results: []model.ClaimVerificationResult{noClaimsResult(text)},
		}
	}

	claims := make([]model.Claim, len(texts))
	for i, t := range texts {
		claims[i] = model.Claim{Index: i, Text: t}
	}
	span.SetAttributes(attribute.Int("batch.claims", len(claims)))

	done := worker.Map(ctx, v.opts.ClaimConcurrency, claims, func(ctx context.Context, _ int, claim model.Claim) *model.ClaimVerificationResult {
		res := v.verifyClaim(ctx, logger, batchID, claim, text)
		return &res
	})

	results := make([]model.ClaimVerificationResult, len(claims))
	for i, res := range done {
		if res == nil {
			// never scheduled: the batch deadline passed first
			r := claimErrorResult(resultID(batchID, i), claims[i], text, model.ErrorKindDeadlineExceeded, batchDeadlineMessage(ctx))
			res = &r
		}
		results[i] = res.Clone()
		v.metrics.RecordClaim(string(results[i].Status))
	}

	logger.Info("batch verified", "claims", len(results), "duration", time.Since(start).Round(time.Millisecond))
	v.metrics.RecordBatch(string(OutcomeClaims))
	return &BatchOutcome{Kind: OutcomeClaims, BatchID: batchID, Results: results}
}

func resultID(batchID string, index int) string {
	return fmt.Sprintf("%s-%d", batchID, index)
}

func batchDeadlineMessage(ctx context.Context) string {
	if err := ctx.Err(); err != nil {
		return fmt.Sprintf("batch deadline: %v", err)
	}
	return "batch deadline exceeded"
}

// verifyClaim runs the per-claim state machine. Panics are recovered into
// a claim-fatal result.
func (v *Verifier) verifyClaim(ctx context.Context, logger *slog.Logger, batchID string, claim model.Claim, text string) (result model.ClaimVerificationResult) {
	id := resultID(batchID, claim.Index)
	logger = logger.With("claim", claim.Index)

	ctx, span := observability.Tracer().Start(ctx, "pipeline.claim")
	span.SetAttributes(attribute.Int("claim.index", claim.Index))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("claim pipeline panicked", "panic", r, "stack", string(debug.Stack()))
			span.SetStatus(codes.Error, "panic")
			result = claimErrorResult(id, claim, text, model.ErrorKindPanic, fmt.Sprintf("panic: %v", r))
		}
	}()

	if hit, ok := v.checkCache(ctx, claim.Text); ok {
		logger.Debug("cache hit")
		hit.ID = id
		hit.OriginalText = text
		return hit
	}

	var bundle EvidenceBundle

	qa := v.evaluateQuality(ctx, logger, claim.Text, text)
	bundle.AddQuality(qa)

	outcome, err := runStage(ctx, v, observability.StageReason, func(ctx context.Context) (*model.ReasoningOutcome, error) {
		return v.c.Reasoner.Reason(ctx, claim.Text, PrimaryIterations)
	})
	if err == nil {
		err = checkOutcome(outcome)
	}
	if err != nil {
		kind := model.ErrorKindReasoningFailed
		var sp *stagePanic
		switch {
		case errors.As(err, &sp):
			kind = model.ErrorKindPanic
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			kind = model.ErrorKindDeadlineExceeded
		}
		logger.Error("reasoning failed", "error", err, "kind", kind)
		span.SetStatus(codes.Error, err.Error())
		return claimErrorResult(id, claim, text, kind, err.Error())
	}
	bundle.AddReasoning(*outcome)

	if shouldExpand(outcome, v.opts.SubClaimThreshold) {
		v.metrics.RecordExpansion()
		logger.Debug("expanding sub-claims", "count", len(outcome.SubClaims))
		bundle.AddSubClaims(v.expandSubClaims(ctx, logger, outcome.SubClaims))
	}

	analysis := v.analyzeTrust(ctx, logger, observability.StageTrust, claim.Text)
	bundle.AddTrust(analysis)

	explanation := v.explain(ctx, logger, claim.Text, &bundle, outcome.Verdict)

	return model.ClaimVerificationResult{
		ID:                   id,
		Claim:                claim.Text,
		Status:               model.StatusFromVerdict(outcome.Verdict),
		Explanation:          explanation.Explanation,
		CorrectedInformation: explanation.CorrectedInformation,
		TrustAnalysis:        &analysis,
		Sources:              analysis.Sources,
		ProcessingComplete:   true,
		QualityAssessment:    &qa,
		Confidence:           outcome.Confidence,
		Nuance:               outcome.Nuance,
		OriginalText:         text,
	}
}

func (v *Verifier) checkCache(ctx context.Context, claim string) (model.ClaimVerificationResult, bool) {
	if v.c.Cache == nil {
		return model.ClaimVerificationResult{}, false
	}
	cached, _ := runStage(ctx, v, observability.StageCache, func(ctx context.Context) (*model.ClaimVerificationResult, error) {
		if res, ok := v.c.Cache.Check(ctx, claim); ok {
			return res, nil
		}
		return nil, nil
	})
	if cached == nil {
		return model.ClaimVerificationResult{}, false
	}
	return cached.Clone(), true
}

// checkOutcome rejects reasoner output the rest of the pipeline cannot use
func checkOutcome(outcome *model.ReasoningOutcome) error {
	if outcome == nil {
		return errors.New("reasoner returned no outcome")
	}
	if !outcome.Verdict.Valid() {
		return fmt.Errorf("reasoner returned unknown verdict %q", outcome.Verdict)
	}
	return nil
}

// shouldExpand gates sub-claim expansion: candidates must exist and the
// confidence must be missing or strictly below threshold.
func shouldExpand(outcome *model.ReasoningOutcome, threshold float64) bool {
	if len(outcome.SubClaims) == 0 {
		return false
	}
	return !outcome.HasConfidence() || *outcome.Confidence < threshold
}

func (v *Verifier) evaluateQuality(ctx context.Context, logger *slog.Logger, claim, text string) model.QualityAssessment {
	qa, err := runStage(ctx, v, observability.StageQuality, func(ctx context.Context) (*model.QualityAssessment, error) {
		return v.c.Quality.Evaluate(ctx, claim, text)
	})
	if err != nil || qa == nil {
		logger.Warn("quality evaluation failed, using fallback", "error", err, "kind", llm.ClassifyError(err))
		return model.FallbackQualityAssessment()
	}
	return *qa
}

func (v *Verifier) analyzeTrust(ctx context.Context, logger *slog.Logger, stage, claim string) model.TrustAnalysis {
	analysis, err := v.tryTrust(ctx, stage, claim)
	if err != nil {
		logger.Warn("trust analysis failed, using placeholder", "stage", stage, "error", err, "kind", llm.ClassifyError(err))
		return trust.ErrorPlaceholder(err)
	}
	return analysis
}

func (v *Verifier) tryTrust(ctx context.Context, stage, claim string) (model.TrustAnalysis, error) {
	analysis, err := runStage(ctx, v, stage, func(ctx context.Context) (*model.TrustAnalysis, error) {
		return v.c.Trust.AnalyzeTrust(ctx, claim)
	})
	if err == nil && analysis == nil {
		err = errors.New("trust analyzer returned no analysis")
	}
	if err != nil {
		return model.TrustAnalysis{}, err
	}
	return *analysis, nil
}

// expandSubClaims verifies candidates and returns their evidence in
// candidate order regardless of completion order
func (v *Verifier) expandSubClaims(ctx context.Context, logger *slog.Logger, candidates []string) []SubClaimEvidence {
	if v.opts.SubClaimParallelism <= 1 {
		var out []SubClaimEvidence
		for i, candidate := range candidates {
			out = append(out, v.verifySubClaim(ctx, logger, i, candidate))
		}
		return out
	}

	out := make([]SubClaimEvidence, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.opts.SubClaimParallelism)
	for i, candidate := range candidates {
		g.Go(func() error {
			out[i] = v.verifySubClaim(gctx, logger, i, candidate)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// verifySubClaim reasons about one sub-claim and analyses its trust.
// Failures become notes on the record.
func (v *Verifier) verifySubClaim(ctx context.Context, logger *slog.Logger, index int, claim string) (ev SubClaimEvidence) {
	ev = SubClaimEvidence{Index: index, Claim: claim}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("sub-claim panicked", "sub_claim", index, "panic", r)
			ev.ReasonErr = fmt.Sprintf("panic: %v", r)
		}
	}()

	outcome, err := runStage(ctx, v, observability.StageSubClaim, func(ctx context.Context) (*model.ReasoningOutcome, error) {
		return v.c.Reasoner.Reason(ctx, claim, SubClaimIterations)
	})
	if err == nil {
		err = checkOutcome(outcome)
	}
	if err != nil {
		logger.Warn("sub-claim reasoning failed", "sub_claim", index, "error", err)
		ev.ReasonErr = err.Error()
		return ev
	}
	ev.Reasoning = outcome

	analysis, err := v.tryTrust(ctx, observability.StageSubClaim, claim)
	if err != nil {
		logger.Warn("sub-claim trust analysis failed", "sub_claim", index, "error", err)
		ev.TrustErr = err.Error()
		return ev
	}
	ev.Trust = &analysis
	return ev
}

func (v *Verifier) explain(ctx context.Context, logger *slog.Logger, claim string, bundle *EvidenceBundle, verdict model.Verdict) model.Explanation {
	exp, err := runStage(ctx, v, observability.StageExplain, func(ctx context.Context) (*model.Explanation, error) {
		return v.c.Explainer.Explain(ctx, claim, bundle.Render(), verdict)
	})
	if err != nil || exp == nil || strings.TrimSpace(exp.Explanation) == "" {
		logger.Warn("explanation failed, using gathered reasoning", "error", err, "kind", llm.ClassifyError(err))
		return model.Explanation{Explanation: bundle.FallbackExplanation()}
	}
	return applyCorrectionPolicy(v.opts.CorrectionPolicy, verdict, *exp)
}

// applyCorrectionPolicy decides whether corrected information survives.
// Under the verdict policy it is kept only for contradicted claims.
func applyCorrectionPolicy(policy string, verdict model.Verdict, exp model.Explanation) model.Explanation {
	if policy == model.CorrectionPolicyVerdict && verdict != model.VerdictContradicted {
		exp.CorrectedInformation = ""
	}
	return exp
}

// runStage wraps one collaborator call with a span, the stage timeout and
// metrics
func runStage[T any](ctx context.Context, v *Verifier, stage string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := observability.Tracer().Start(ctx, "pipeline."+stage)
	defer span.End()

	if v.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.opts.StageTimeout)
		defer cancel()
	}

	start := time.Now()
	out, err := callStage(ctx, stage, fn)

	kind := ""
	if err != nil {
		kind = string(llm.ClassifyError(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	v.metrics.RecordStage(stage, time.Since(start), kind)
	return out, err
}

// stagePanic is a collaborator panic turned into an error so each stage
// applies its own failure policy
type stagePanic struct {
	stage string
	value any
	stack []byte
}

func (p *stagePanic) Error() string {
	return fmt.Sprintf("panic in %s stage: %v", p.stage, p.value)
}

func callStage[T any](ctx context.Context, stage string, fn func(ctx context.Context) (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &stagePanic{stage: stage, value: r, stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}
