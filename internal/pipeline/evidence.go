package pipeline

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimtrace/internal/model"
)

// EntryKind tags an evidence entry
type EntryKind string

const (
	EntryQuality   EntryKind = "quality"
	EntryReasoning EntryKind = "reasoning"
	EntrySubClaim  EntryKind = "subclaim"
	EntryTrust     EntryKind = "trust"
)

// maxTopSources caps the sources listed per sub-claim block
const maxTopSources = 3

// SubClaimEvidence is the record of one verified sub-claim. Failed steps
// carry an error note instead of their output.
type SubClaimEvidence struct {
	Index     int // position in the reasoner's candidate list
	Claim     string
	Reasoning *model.ReasoningOutcome
	ReasonErr string
	Trust     *model.TrustAnalysis
	TrustErr  string
}

// EvidenceEntry is one tagged entry. Exactly one payload field is set,
// matching Kind.
type EvidenceEntry struct {
	Kind      EntryKind
	Quality   *model.QualityAssessment
	Reasoning *model.ReasoningOutcome
	SubClaim  *SubClaimEvidence
	Trust     *model.TrustAnalysis
}

// EvidenceBundle accumulates findings for one claim in the order stages
// ran. It is owned by a single claim pipeline and rendered to text only
// for the explanation call.
type EvidenceBundle struct {
	entries []EvidenceEntry
}

// AddQuality appends the quality assessment
func (b *EvidenceBundle) AddQuality(qa model.QualityAssessment) {
	b.entries = append(b.entries, EvidenceEntry{Kind: EntryQuality, Quality: &qa})
}

// AddReasoning appends the primary reasoning outcome
func (b *EvidenceBundle) AddReasoning(r model.ReasoningOutcome) {
	b.entries = append(b.entries, EvidenceEntry{Kind: EntryReasoning, Reasoning: &r})
}

// AddSubClaims appends sub-claim blocks in slice order
func (b *EvidenceBundle) AddSubClaims(subs []SubClaimEvidence) {
	for i := range subs {
		sub := subs[i]
		b.entries = append(b.entries, EvidenceEntry{Kind: EntrySubClaim, SubClaim: &sub})
	}
}

// AddTrust appends the main claim's trust analysis
func (b *EvidenceBundle) AddTrust(ta model.TrustAnalysis) {
	b.entries = append(b.entries, EvidenceEntry{Kind: EntryTrust, Trust: &ta})
}

// Entries returns the entries in append order
func (b *EvidenceBundle) Entries() []EvidenceEntry {
	out := make([]EvidenceEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Render serialises the bundle as the narrative handed to the explainer
func (b *EvidenceBundle) Render() string {
	var sb strings.Builder
	for _, e := range b.entries {
		switch e.Kind {
		case EntryQuality:
			renderQuality(&sb, e.Quality)
		case EntryReasoning:
			renderReasoning(&sb, e.Reasoning)
		case EntrySubClaim:
			renderSubClaim(&sb, e.SubClaim)
		case EntryTrust:
			renderTrust(&sb, e.Trust)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

// FallbackExplanation joins the reasoning and trust text gathered so far.
// It replaces the explanation when the explainer fails.
func (b *EvidenceBundle) FallbackExplanation() string {
	var parts []string
	for _, e := range b.entries {
		switch e.Kind {
		case EntryReasoning:
			if text := strings.TrimSpace(e.Reasoning.Reasoning); text != "" {
				parts = append(parts, text)
			}
			if nuance := strings.TrimSpace(e.Reasoning.Nuance); nuance != "" {
				parts = append(parts, nuance)
			}
		case EntryTrust:
			if text := strings.TrimSpace(e.Trust.Reasoning); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "An explanation could not be generated for this claim."
	}
	return strings.Join(parts, "\n\n")
}

func renderQuality(sb *strings.Builder, qa *model.QualityAssessment) {
	fmt.Fprintf(sb, "Claim quality: atomicity=%s, fluency=%s, decontextualization=%s, faithfulness=%s, focus=%s, checkworthiness=%s\n",
		qa.Atomicity, qa.Fluency, qa.Decontextualization, qa.Faithfulness, qa.Focus, qa.Checkworthiness)
	if qa.Overall != "" {
		fmt.Fprintf(sb, "Quality notes: %s\n", qa.Overall)
	}
}

func renderReasoning(sb *strings.Builder, r *model.ReasoningOutcome) {
	fmt.Fprintf(sb, "Initial verdict: %s (confidence %s)\n", r.Verdict, formatConfidence(r.Confidence))
	fmt.Fprintf(sb, "Reasoning: %s\n", r.Reasoning)
	if r.Nuance != "" {
		fmt.Fprintf(sb, "Nuance: %s\n", r.Nuance)
	}
}

func renderSubClaim(sb *strings.Builder, s *SubClaimEvidence) {
	fmt.Fprintf(sb, "Sub-claim %d: %s\n", s.Index+1, s.Claim)
	if s.ReasonErr != "" {
		fmt.Fprintf(sb, "  Error: sub-claim verification failed: %s\n", s.ReasonErr)
		return
	}
	fmt.Fprintf(sb, "  Verdict: %s (confidence %s)\n", s.Reasoning.Verdict, formatConfidence(s.Reasoning.Confidence))
	fmt.Fprintf(sb, "  Reasoning: %s\n", s.Reasoning.Reasoning)
	if s.TrustErr != "" {
		fmt.Fprintf(sb, "  Error: trust analysis failed: %s\n", s.TrustErr)
		return
	}
	if s.Trust == nil {
		return
	}
	fmt.Fprintf(sb, "  Trust score: %.2f", s.Trust.Score)
	if s.Trust.Query != "" {
		fmt.Fprintf(sb, " (query: %q)", s.Trust.Query)
	}
	sb.WriteString("\n")
	for i, src := range model.EvidenceSources(s.Trust.Sources) {
		if i == maxTopSources {
			break
		}
		fmt.Fprintf(sb, "  Source: %s (%s)\n", src.Title, src.URL)
	}
}

func renderTrust(sb *strings.Builder, ta *model.TrustAnalysis) {
	fmt.Fprintf(sb, "Trust analysis: score %.2f", ta.Score)
	if ta.Query != "" {
		fmt.Fprintf(sb, " (query: %q)", ta.Query)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Trust reasoning: %s\n", ta.Reasoning)
	for _, src := range model.EvidenceSources(ta.Sources) {
		fmt.Fprintf(sb, "Source [%s]: %s (%s)", src.Authority, src.Title, src.URL)
		if src.Summary != "" {
			fmt.Fprintf(sb, ": %s", src.Summary)
		}
		sb.WriteString("\n")
	}
}

func formatConfidence(c *float64) string {
	if c == nil {
		return "unknown"
	}
	return fmt.Sprintf("%.2f", *c)
}
