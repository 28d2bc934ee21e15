package model

// ClaimStatus is the per-result status. It mirrors the verdict, or is
// "error" when the claim pipeline could not produce one.
type ClaimStatus string

const (
	StatusSupported    ClaimStatus = ClaimStatus(VerdictSupported)
	StatusContradicted ClaimStatus = ClaimStatus(VerdictContradicted)
	StatusNeutral      ClaimStatus = ClaimStatus(VerdictNeutral)
	StatusError        ClaimStatus = "error"
)

// StatusFromVerdict maps a verdict onto the result status
func StatusFromVerdict(v Verdict) ClaimStatus {
	return ClaimStatus(v)
}

// Reserved result ids used for batch-level signals
const (
	IDNoClaimsFound = "no_claims_found"
	IDErrorGeneral  = "error-general"
)

// Error kinds attached to results that did not complete normally
const (
	ErrorKindReasoningFailed  = "reasoning_failed"
	ErrorKindDeadlineExceeded = "deadline_exceeded"
	ErrorKindPanic            = "panic"
	ErrorKindExtractionFailed = "extraction_failed"
)

// ClaimVerificationResult is the terminal output for one claim
type ClaimVerificationResult struct {
	ID                   string             `json:"id"`
	Claim                string             `json:"claim"`
	Status               ClaimStatus        `json:"status"`
	Explanation          string             `json:"explanation"`
	CorrectedInformation string             `json:"corrected_information,omitempty"`
	TrustAnalysis        *TrustAnalysis     `json:"trust_analysis,omitempty"`
	Sources              []Source           `json:"sources"`
	ProcessingComplete   bool               `json:"processing_complete"`
	ErrorMessage         string             `json:"error_message,omitempty"`
	ErrorKind            string             `json:"error_kind,omitempty"`
	QualityAssessment    *QualityAssessment `json:"quality_assessment,omitempty"`
	Confidence           *float64           `json:"confidence,omitempty"`
	Nuance               string             `json:"nuance,omitempty"`
	OriginalText         string             `json:"original_text,omitempty"`
}

// Clone returns a deep copy so results never share sub-objects
func (r ClaimVerificationResult) Clone() ClaimVerificationResult {
	out := r
	if r.TrustAnalysis != nil {
		ta := *r.TrustAnalysis
		ta.Sources = cloneSources(r.TrustAnalysis.Sources)
		out.TrustAnalysis = &ta
	}
	out.Sources = cloneSources(r.Sources)
	if r.QualityAssessment != nil {
		qa := *r.QualityAssessment
		out.QualityAssessment = &qa
	}
	if r.Confidence != nil {
		c := *r.Confidence
		out.Confidence = &c
	}
	return out
}

func cloneSources(in []Source) []Source {
	if in == nil {
		return []Source{}
	}
	out := make([]Source, len(in))
	for i, s := range in {
		out[i] = s
		if s.TrustScore != nil {
			v := *s.TrustScore
			out[i].TrustScore = &v
		}
		if s.Accessible != nil {
			v := *s.Accessible
			out[i].Accessible = &v
		}
	}
	return out
}

// Explanation is the synthesizer's output
type Explanation struct {
	Explanation          string `json:"explanation"`
	CorrectedInformation string `json:"corrected_information,omitempty"`
}
