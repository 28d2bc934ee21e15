package trust

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/claimtrace/internal/model"
	"github.com/ppiankov/claimtrace/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQueries struct {
	queries []string
	err     error
}

func (s stubQueries) Generate(ctx context.Context, claim string) ([]string, error) {
	return s.queries, s.err
}

type stubSearcher struct {
	calls   atomic.Int32
	lastQ   atomic.Value
	results map[string][]model.SearchResult
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	s.calls.Add(1)
	s.lastQ.Store(query)
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[query]; ok {
		return r, nil
	}
	return []model.SearchResult{{Title: "No results", Type: model.SourceTypeNoResult}}, nil
}

type stubSynth struct {
	fn func(in SynthesisInput) (*model.TrustAnalysis, error)
}

func (s stubSynth) Synthesize(ctx context.Context, in SynthesisInput) (*model.TrustAnalysis, error) {
	return s.fn(in)
}

type stubLinks struct{}

func (stubLinks) Check(ctx context.Context, urls []string) []validate.LinkStatus {
	out := make([]validate.LinkStatus, len(urls))
	for i, u := range urls {
		out[i] = validate.LinkStatus{URL: u, Accessible: u != "https://dead.example/x"}
	}
	return out
}

var parisResults = []model.SearchResult{
	{Title: "Paris", Link: "https://en.wikipedia.org/wiki/Paris", Snippet: "Capital of France", Type: model.SourceTypeAbstract},
	{Title: "Gov", Link: "https://www.gouvernement.gouv.fr/", Snippet: "Official", Type: model.SourceTypeResult},
}

func TestAnalyzer_AnalyzeTrust_HappyPath(t *testing.T) {
	searcher := &stubSearcher{results: map[string][]model.SearchResult{"paris capital france": parisResults}}
	synth := stubSynth{fn: func(in SynthesisInput) (*model.TrustAnalysis, error) {
		assert.Equal(t, "Paris is in France.", in.Claim)
		assert.Equal(t, "paris capital france", in.Query)
		assert.Len(t, in.Results, 2)
		return &model.TrustAnalysis{
			Score:     0.8,
			Reasoning: " solid ",
			Sources: []model.Source{
				{URL: "https://en.wikipedia.org/wiki/Paris/"},
				{URL: "https://hallucinated.example/page", Title: "made up"},
				{URL: "https://en.wikipedia.org/wiki/Paris", Title: "dupe"},
			},
		}, nil
	}}

	a := NewAnalyzer(stubQueries{queries: []string{"  ", "paris capital france", "other"}}, searcher, synth, nil, nil,
		Config{ProvenanceWeight: 0, StrictEvidence: true}, nil)

	got, err := a.AnalyzeTrust(context.Background(), "Paris is in France.")
	require.NoError(t, err)

	assert.Equal(t, "paris capital france", got.Query)
	assert.Equal(t, "solid", got.Reasoning)
	assert.InDelta(t, 0.8, got.Score, 1e-9)
	require.Len(t, got.Sources, 1, "hallucinated and duplicate sources dropped")

	src := got.Sources[0]
	assert.Equal(t, "src-1", src.ID)
	assert.Equal(t, "Paris", src.Title, "title backfilled from search result")
	assert.Equal(t, "Capital of France", src.Summary)
	assert.Equal(t, model.SourceTypeAbstract, src.Type)
	assert.Equal(t, model.TierSecondary, src.Authority)
	require.NotNil(t, src.TrustScore)
	assert.InDelta(t, 0.7, *src.TrustScore, 1e-9)
	assert.Nil(t, src.Accessible, "links unchecked when disabled")
}

func TestAnalyzer_QueryFailureFallsBackToClaim(t *testing.T) {
	searcher := &stubSearcher{}
	synth := stubSynth{fn: func(in SynthesisInput) (*model.TrustAnalysis, error) {
		return &model.TrustAnalysis{Score: 0.2, Reasoning: "nothing found"}, nil
	}}
	a := NewAnalyzer(stubQueries{err: errors.New("llm down")}, searcher, synth, nil, nil, Config{}, nil)

	got, err := a.AnalyzeTrust(context.Background(), "Obscure claim")
	require.NoError(t, err)
	assert.Equal(t, "Obscure claim", searcher.lastQ.Load())
	assert.Equal(t, "Obscure claim", got.Query)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, model.SourceTypeNoResult, got.Sources[0].Type, "no-result marker kept for traceability")
	assert.InDelta(t, 0.2, got.Score, 1e-9)
}

func TestAnalyzer_SearchFailureIsReturned(t *testing.T) {
	a := NewAnalyzer(nil, &stubSearcher{err: errors.New("search down")}, stubSynth{}, nil, nil, Config{}, nil)

	_, err := a.AnalyzeTrust(context.Background(), "claim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search down")
}

func TestAnalyzer_SynthesisFailureIsReturned(t *testing.T) {
	synth := stubSynth{fn: func(in SynthesisInput) (*model.TrustAnalysis, error) {
		return nil, errors.New("bad json")
	}}
	a := NewAnalyzer(nil, &stubSearcher{}, synth, nil, nil, Config{}, nil)

	_, err := a.AnalyzeTrust(context.Background(), "claim")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesize trust")
}

func TestAnalyzer_FollowUpSearchJoinsAllowlist(t *testing.T) {
	followUp := []model.SearchResult{{Title: "Statute", Link: "https://legislation.gov.uk/act/1", Type: model.SourceTypeResult}}
	searcher := &stubSearcher{results: map[string][]model.SearchResult{
		"claim":     parisResults,
		"follow up": followUp,
	}}
	synth := stubSynth{fn: func(in SynthesisInput) (*model.TrustAnalysis, error) {
		_, err := in.Searcher.Search(context.Background(), "follow up")
		require.NoError(t, err)
		return &model.TrustAnalysis{
			Score:   0.5,
			Sources: []model.Source{{URL: "https://legislation.gov.uk/act/1", TrustScore: model.Float(1.7)}},
		}, nil
	}}
	a := NewAnalyzer(nil, searcher, synth, nil, stubLinks{}, Config{StrictEvidence: true, ProvenanceWeight: 0.5}, nil)

	got, err := a.AnalyzeTrust(context.Background(), "claim")
	require.NoError(t, err)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, model.TierPrimary, got.Sources[0].Authority)
	assert.InDelta(t, 1.0, *got.Sources[0].TrustScore, 1e-9, "model scores are clamped")
	require.NotNil(t, got.Sources[0].Accessible)
	assert.True(t, *got.Sources[0].Accessible)
	assert.InDelta(t, 0.5*0.5+0.5*0.9, got.Score, 1e-9)
}

func TestAnalyzer_MaxSources(t *testing.T) {
	var results []model.SearchResult
	var sources []model.Source
	for _, u := range []string{"https://a.example", "https://b.example", "https://c.example"} {
		results = append(results, model.SearchResult{Link: u})
		sources = append(sources, model.Source{URL: u})
	}
	searcher := &stubSearcher{results: map[string][]model.SearchResult{"c": results}}
	synth := stubSynth{fn: func(in SynthesisInput) (*model.TrustAnalysis, error) {
		return &model.TrustAnalysis{Score: 0.5, Sources: sources}, nil
	}}
	a := NewAnalyzer(nil, searcher, synth, nil, nil, Config{MaxSources: 2}, nil)

	got, err := a.AnalyzeTrust(context.Background(), "c")
	require.NoError(t, err)
	assert.Len(t, got.Sources, 2)
	assert.Equal(t, "src-2", got.Sources[1].ID)
}

func TestErrorPlaceholder(t *testing.T) {
	p := ErrorPlaceholder(errors.New("timeout"))
	assert.Equal(t, 0.0, p.Score)
	require.Len(t, p.Sources, 1)
	assert.Equal(t, model.SourceTypeError, p.Sources[0].Type)
	assert.Equal(t, "timeout", p.Sources[0].Summary)
	assert.False(t, p.Sources[0].IsEvidence())
}

func TestBlendScore(t *testing.T) {
	sources := []model.Source{
		{Authority: model.TierPrimary, Type: model.SourceTypeResult},
		{Authority: model.TierTertiary, Type: model.SourceTypeResult},
		{Type: model.SourceTypeError},
	}

	p := BlendScore(0.6, sources, 0.2)
	assert.Equal(t, 2, p.EvidenceCount)
	assert.InDelta(t, 0.65, p.PriorMean, 1e-9)
	assert.InDelta(t, 0.8*0.6+0.2*0.65, p.Score, 1e-9)

	assert.InDelta(t, 0.6, BlendScore(0.6, sources, 0).Score, 1e-9)
	assert.InDelta(t, 0.6, BlendScore(0.6, nil, 0.5).Score, 1e-9)
	assert.Equal(t, 1.0, BlendScore(3, nil, 0).Score)
}
