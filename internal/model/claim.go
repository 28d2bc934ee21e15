package model

import (
	"fmt"
	"strings"
)

// Claim represents a single factual assertion extracted from the input text
type Claim struct {
	Index int    `json:"index"` // Position within the extracted batch (0-based)
	Text  string `json:"text"`  // The claim text itself
}

// Verdict is the tri-state outcome of verifying a claim
type Verdict string

const (
	VerdictSupported    Verdict = "supported"
	VerdictContradicted Verdict = "contradicted"
	VerdictNeutral      Verdict = "neutral"
)

// Valid reports whether v is one of the three known verdicts
func (v Verdict) Valid() bool {
	switch v {
	case VerdictSupported, VerdictContradicted, VerdictNeutral:
		return true
	}
	return false
}

// ParseVerdict converts free-form collaborator output into a Verdict.
// Common synonyms are accepted; anything else is an error.
func ParseVerdict(s string) (Verdict, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "supported", "support", "true", "verified":
		return VerdictSupported, nil
	case "contradicted", "contradict", "refuted", "false":
		return VerdictContradicted, nil
	case "neutral", "unverified", "insufficient", "mixed":
		return VerdictNeutral, nil
	}
	return "", fmt.Errorf("unknown verdict %q", s)
}

// ReasoningOutcome is what the reasoner returns for one claim
type ReasoningOutcome struct {
	Verdict    Verdict  `json:"verdict"`
	Reasoning  string   `json:"reasoning"`
	Confidence *float64 `json:"confidence,omitempty"` // nil when the reasoner gave none
	Nuance     string   `json:"nuance,omitempty"`
	SubClaims  []string `json:"sub_claims,omitempty"` // Candidates for independent re-verification
}

// HasConfidence reports whether a confidence value was supplied
func (r *ReasoningOutcome) HasConfidence() bool {
	return r != nil && r.Confidence != nil
}

// Float returns a pointer to v. Handy for optional scores in literals.
func Float(v float64) *float64 {
	return &v
}
