package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/claimtrace/internal/model"
)

func TestEvidenceBundle_Render(t *testing.T) {
	var b EvidenceBundle
	b.AddQuality(model.FallbackQualityAssessment())
	b.AddReasoning(model.ReasoningOutcome{
		Verdict:   model.VerdictNeutral,
		Reasoning: "Mixed records.",
		Nuance:    "Depends on the year.",
	})
	b.AddSubClaims([]SubClaimEvidence{
		{
			Index:     0,
			Claim:     "Tower built in 1889",
			Reasoning: &model.ReasoningOutcome{Verdict: model.VerdictSupported, Reasoning: "Well documented.", Confidence: model.Float(0.97)},
			Trust: &model.TrustAnalysis{
				Score: 0.9,
				Query: "eiffel tower built",
				Sources: []model.Source{
					{Title: "A", URL: "https://a.example"},
					{Title: "none", Type: model.SourceTypeNoResult},
					{Title: "B", URL: "https://b.example"},
					{Title: "C", URL: "https://c.example"},
					{Title: "D", URL: "https://d.example"},
				},
			},
		},
		{Index: 1, Claim: "Tower is 330 m", ReasonErr: "timeout"},
	})
	b.AddTrust(model.TrustAnalysis{
		Score:     0.6,
		Reasoning: "Sources disagree.",
		Query:     "eiffel tower height",
		Sources: []model.Source{
			{Title: "Wiki", URL: "https://en.wikipedia.org/wiki/Eiffel_Tower", Summary: "330 m", Authority: model.TierSecondary},
			{Title: "err", Type: model.SourceTypeError},
		},
	})

	out := b.Render()

	assert.Contains(t, out, "Initial verdict: neutral (confidence unknown)")
	assert.Contains(t, out, "Nuance: Depends on the year.")
	assert.Contains(t, out, "Sub-claim 1: Tower built in 1889")
	assert.Contains(t, out, "  Verdict: supported (confidence 0.97)")
	assert.Contains(t, out, `  Trust score: 0.90 (query: "eiffel tower built")`)
	assert.Contains(t, out, "  Source: C (https://c.example)")
	assert.NotContains(t, out, "https://d.example", "only the top sources are listed per sub-claim")
	assert.NotContains(t, out, "Source: none")
	assert.Contains(t, out, "Sub-claim 2: Tower is 330 m\n  Error: sub-claim verification failed: timeout")
	assert.Contains(t, out, `Trust analysis: score 0.60 (query: "eiffel tower height")`)
	assert.Contains(t, out, "(https://en.wikipedia.org/wiki/Eiffel_Tower): 330 m")
	assert.NotContains(t, out, ": err (")

	kinds := []EntryKind{}
	for _, e := range b.Entries() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EntryKind{EntryQuality, EntryReasoning, EntrySubClaim, EntrySubClaim, EntryTrust}, kinds)
}

func TestEvidenceBundle_FallbackExplanation(t *testing.T) {
	var empty EvidenceBundle
	assert.Equal(t, "An explanation could not be generated for this claim.", empty.FallbackExplanation())

	var b EvidenceBundle
	b.AddQuality(model.FallbackQualityAssessment())
	b.AddReasoning(model.ReasoningOutcome{Verdict: model.VerdictSupported, Reasoning: "Confirmed.", Nuance: "Roughly."})
	b.AddTrust(model.TrustAnalysis{Reasoning: "Two agencies agree."})

	assert.Equal(t, "Confirmed.\n\nRoughly.\n\nTwo agencies agree.", b.FallbackExplanation())
}

func TestBatchOutcome_Flatten(t *testing.T) {
	var nilOutcome *BatchOutcome
	assert.NotNil(t, nilOutcome.Flatten())
	assert.Empty(t, (&BatchOutcome{Kind: OutcomeEmptyInput}).Flatten())
}
