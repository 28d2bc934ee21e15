package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ppiankov/claimtrace/internal/cache"
	"github.com/ppiankov/claimtrace/internal/explain"
	"github.com/ppiankov/claimtrace/internal/extract"
	"github.com/ppiankov/claimtrace/internal/input"
	"github.com/ppiankov/claimtrace/internal/llm"
	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/ppiankov/claimtrace/internal/observability"
	"github.com/ppiankov/claimtrace/internal/quality"
	"github.com/ppiankov/claimtrace/internal/reason"
	"github.com/ppiankov/claimtrace/internal/search"
	"github.com/ppiankov/claimtrace/internal/trust"
	"github.com/ppiankov/claimtrace/internal/util"
	"github.com/ppiankov/claimtrace/internal/validate"
)

// ErrNoProvider is returned by Build when no LLM provider is configured
var ErrNoProvider = errors.New("no LLM provider configured (set llm.provider or CLAIMTRACE_LLM_PROVIDER)")

const maxRedirects = 5

// Runtime is a fully wired verifier plus the input loader that feeds it
type Runtime struct {
	Verifier *Verifier
	Loader   *input.Loader
	Provider llm.Provider
}

// Build wires every collaborator from configuration. stdin backs the "-"
// input reference and may be nil.
func Build(cfg *model.Config, logger *slog.Logger, metrics *observability.Metrics, stdin io.Reader) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	if provider == nil {
		return nil, ErrNoProvider
	}

	client := util.NewHTTPClient(cfg.HTTP, maxRedirects)

	var searcher search.Searcher = search.NewDuckDuckGo(cfg.Search, client, cfg.HTTP.UserAgent)
	if cfg.Search.CacheTTL > 0 {
		searcher = search.NewCached(searcher, cache.NewMemoryCache(cfg.Search.CacheTTL, 2*cfg.Search.CacheTTL), cfg.Search.CacheTTL)
	}

	var links trust.LinkChecker
	if cfg.Trust.CheckLinks {
		links = validate.NewLinkChecker(client, cfg.HTTP.UserAgent, cfg.Trust.LinkWorkers)
	}

	analyzer := trust.NewAnalyzer(
		trust.NewLLMQueryGenerator(provider),
		searcher,
		trust.NewLLMSynthesizer(provider),
		validate.NewAuthorityClassifier(&cfg.Authority),
		links,
		trust.Config{
			ProvenanceWeight: cfg.Trust.ProvenanceWeight,
			MaxSources:       cfg.Trust.MaxSources,
			StrictEvidence:   cfg.LLM.StrictEvidence,
		},
		logger.With("component", "trust"),
	)

	var extractor Extractor = extract.NewLLMExtractor(provider)
	if cfg.Pipeline.Extractor == model.ExtractorHeuristic {
		extractor = extract.NewHeuristicExtractor()
	}

	collab := Collaborators{
		Extractor: extractor,
		Quality:   quality.NewLLMEvaluator(provider),
		Reasoner:  reason.NewLLMReasoner(provider, searcher),
		Trust:     analyzer,
		Explainer: explain.NewLLMExplainer(provider, cfg.LLM.StrictEvidence),
		Cache:     cache.NoopGate{},
	}

	logger.Debug("pipeline wired",
		"provider", provider.Name(),
		"extractor", cfg.Pipeline.Extractor,
		"search_cache", cfg.Search.CacheTTL > 0,
		"check_links", cfg.Trust.CheckLinks,
	)

	return &Runtime{
		Verifier: NewVerifier(collab, OptionsFromConfig(cfg.Pipeline), logger, metrics),
		Loader:   input.NewLoader(input.NewFetcher(client, cfg.HTTP), cfg.Input.MaxChars, stdin),
		Provider: provider,
	}, nil
}

// VerifyInput loads one input reference and verifies its text
func (r *Runtime) VerifyInput(ctx context.Context, ref string) ([]model.ClaimVerificationResult, error) {
	start := time.Now()
	doc, err := r.Loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ref, err)
	}
	results := r.Verifier.VerifyClaimsInText(ctx, doc.Text)
	r.Verifier.logger.Debug("input verified", "ref", ref, "kind", doc.Kind, "truncated", doc.Truncated, "duration", time.Since(start).Round(time.Millisecond))
	return results, nil
}
