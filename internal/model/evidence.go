package model

// SourceType tags where a source came from
type SourceType string

const (
	SourceTypeAbstract     SourceType = "Abstract"     // Instant-answer abstract
	SourceTypeRelatedTopic SourceType = "RelatedTopic" // Related topic entry
	SourceTypeResult       SourceType = "Result"       // Plain search hit
	SourceTypeNoResult     SourceType = "NoResult"     // Search returned nothing
	SourceTypeError        SourceType = "Error"        // Synthetic marker for a failed stage
)

// Source is one piece of cited evidence
type Source struct {
	ID         string        `json:"id"`
	URL        string        `json:"url"`
	Title      string        `json:"title"`
	TrustScore *float64      `json:"trust_score,omitempty"`
	Summary    string        `json:"summary,omitempty"`
	Type       SourceType    `json:"type,omitempty"`
	Authority  AuthorityTier `json:"authority,omitempty"`
	Accessible *bool         `json:"accessible,omitempty"` // Set only when link checking is enabled
}

// IsEvidence reports whether the source is real evidence rather than an
// error or no-result marker. Markers stay in the record for traceability.
func (s Source) IsEvidence() bool {
	return s.Type != SourceTypeNoResult && s.Type != SourceTypeError
}

// EvidenceSources filters out marker sources, preserving order
func EvidenceSources(sources []Source) []Source {
	var out []Source
	for _, s := range sources {
		if s.IsEvidence() {
			out = append(out, s)
		}
	}
	return out
}

// TrustAnalysis is the provenance assessment for one claim
type TrustAnalysis struct {
	Score     float64  `json:"score"` // 0..1
	Reasoning string   `json:"reasoning"`
	Query     string   `json:"query,omitempty"` // Search query that produced the evidence
	Sources   []Source `json:"sources"`
}

// SearchResult is one record returned by the web search collaborator
type SearchResult struct {
	Title   string     `json:"title"`
	Link    string     `json:"link"`
	Snippet string     `json:"snippet"`
	Type    SourceType `json:"type,omitempty"`
}

// AuthorityTier represents the classification of source authority
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Laws, statutes, academic papers, official documents
	TierSecondary AuthorityTier = 2 // Encyclopedias, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, aggregators
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
