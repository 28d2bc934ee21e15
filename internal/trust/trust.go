package trust

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/ppiankov/claimtrace/internal/search"
	"github.com/ppiankov/claimtrace/internal/validate"
)

// QueryGenerator proposes 1-3 search queries for a claim
type QueryGenerator interface {
	Generate(ctx context.Context, claim string) ([]string, error)
}

// Synthesizer turns search evidence into a trust assessment
type Synthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) (*model.TrustAnalysis, error)
}

// SynthesisInput is handed to the Synthesizer
type SynthesisInput struct {
	Claim   string
	Query   string
	Results []model.SearchResult

	// Searcher lets the synthesizer run follow-up searches. Everything it
	// returns joins the evidence allowlist.
	Searcher search.Searcher
}

// LinkChecker marks source accessibility
type LinkChecker interface {
	Check(ctx context.Context, urls []string) []validate.LinkStatus
}

// Config controls the analyzer
type Config struct {
	ProvenanceWeight float64
	MaxSources       int
	StrictEvidence   bool
}

// Analyzer runs query generation, search, and synthesis for one claim
type Analyzer struct {
	queries   QueryGenerator
	searcher  search.Searcher
	synth     Synthesizer
	authority *validate.AuthorityClassifier
	links     LinkChecker // nil disables link checks
	config    Config
	logger    *slog.Logger
}

// NewAnalyzer creates a new analyzer. links may be nil.
func NewAnalyzer(queries QueryGenerator, searcher search.Searcher, synth Synthesizer, authority *validate.AuthorityClassifier, links LinkChecker, config Config, logger *slog.Logger) *Analyzer {
	if authority == nil {
		authority = validate.NewAuthorityClassifier(nil)
	}
	if config.MaxSources <= 0 {
		config.MaxSources = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		queries:   queries,
		searcher:  searcher,
		synth:     synth,
		authority: authority,
		links:     links,
		config:    config,
		logger:    logger,
	}
}

// AnalyzeTrust produces the provenance assessment for a claim. Query
// generation failures fall back to the claim text; search and synthesis
// failures are returned to the caller.
func (a *Analyzer) AnalyzeTrust(ctx context.Context, claim string) (*model.TrustAnalysis, error) {
	query := a.pickQuery(ctx, claim)

	rec := &recordingSearcher{next: a.searcher}
	results, err := rec.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	analysis, err := a.synth.Synthesize(ctx, SynthesisInput{
		Claim:    claim,
		Query:    query,
		Results:  results,
		Searcher: rec,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize trust: %w", err)
	}
	if analysis == nil {
		return nil, fmt.Errorf("synthesize trust: empty analysis")
	}

	out := &model.TrustAnalysis{
		Score:     analysis.Score,
		Reasoning: strings.TrimSpace(analysis.Reasoning),
		Query:     query,
		Sources:   a.finishSources(analysis.Sources, rec.seen()),
	}

	if len(out.Sources) == 0 {
		for _, r := range results {
			if r.Type == model.SourceTypeNoResult {
				out.Sources = append(out.Sources, model.Source{
					ID:      "src-none",
					Title:   r.Title,
					Summary: r.Snippet,
					Type:    model.SourceTypeNoResult,
				})
				break
			}
		}
	}

	a.checkLinks(ctx, out.Sources)

	prov := BlendScore(analysis.Score, out.Sources, a.config.ProvenanceWeight)
	out.Score = prov.Score
	a.logger.Debug("trust analysis complete",
		"query", query,
		"sources", len(out.Sources),
		"synthesized_score", prov.SynthesizedScore,
		"prior_mean", prov.PriorMean,
		"prior_weight", prov.Weight,
		"evidence_count", prov.EvidenceCount,
		"score", prov.Score)

	return out, nil
}

func (a *Analyzer) pickQuery(ctx context.Context, claim string) string {
	if a.queries == nil {
		return claim
	}
	queries, err := a.queries.Generate(ctx, claim)
	if err != nil {
		a.logger.Warn("query generation failed, searching with claim text", "error", err)
		return claim
	}
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			return q
		}
	}
	return claim
}

// finishSources applies strict evidence filtering, dedupes by URL,
// classifies authority, fills missing trust scores with the tier prior,
// caps the list and assigns stable ids.
func (a *Analyzer) finishSources(sources []model.Source, seen []model.SearchResult) []model.Source {
	allowed := make(map[string]model.SearchResult, len(seen))
	for _, r := range seen {
		if r.Link != "" {
			allowed[normalizeLink(r.Link)] = r
		}
	}

	out := make([]model.Source, 0, len(sources))
	dupes := make(map[string]bool)
	for _, s := range sources {
		key := normalizeLink(s.URL)
		if key == "" || dupes[key] {
			continue
		}
		hit, known := allowed[key]
		if a.config.StrictEvidence && !known {
			a.logger.Warn("dropping source not returned by search", "url", s.URL)
			continue
		}
		dupes[key] = true

		if known {
			if s.Title == "" {
				s.Title = hit.Title
			}
			if s.Summary == "" {
				s.Summary = hit.Snippet
			}
			if s.Type == "" {
				s.Type = hit.Type
			}
		}
		if s.Type == "" {
			s.Type = model.SourceTypeResult
		}
		s.Authority = a.authority.Classify(s.URL)
		if s.TrustScore == nil {
			s.TrustScore = model.Float(TierPrior(s.Authority))
		} else {
			s.TrustScore = model.Float(clamp01(*s.TrustScore))
		}

		out = append(out, s)
		if len(out) >= a.config.MaxSources {
			break
		}
	}

	for i := range out {
		out[i].ID = fmt.Sprintf("src-%d", i+1)
	}
	return out
}

func (a *Analyzer) checkLinks(ctx context.Context, sources []model.Source) {
	if a.links == nil || len(sources) == 0 {
		return
	}
	var urls []string
	var idx []int
	for i, s := range sources {
		if s.IsEvidence() && s.URL != "" {
			urls = append(urls, s.URL)
			idx = append(idx, i)
		}
	}
	for j, status := range a.links.Check(ctx, urls) {
		accessible := status.Accessible
		sources[idx[j]].Accessible = &accessible
	}
}

func normalizeLink(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}

// ErrorPlaceholder is the analysis substituted when trust analysis fails
func ErrorPlaceholder(err error) model.TrustAnalysis {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return model.TrustAnalysis{
		Score:     0,
		Reasoning: "Trust analysis could not be completed for this claim.",
		Sources: []model.Source{{
			ID:      "error",
			Title:   "Trust analysis error",
			Summary: msg,
			Type:    model.SourceTypeError,
		}},
	}
}

// recordingSearcher remembers every result it hands out so the evidence
// allowlist covers follow-up searches made through tools.
type recordingSearcher struct {
	next search.Searcher

	mu      sync.Mutex
	results []model.SearchResult
}

func (r *recordingSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	results, err := r.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.results = append(r.results, results...)
	r.mu.Unlock()
	return results, nil
}

func (r *recordingSearcher) seen() []model.SearchResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.SearchResult, len(r.results))
	copy(out, r.results)
	return out
}
