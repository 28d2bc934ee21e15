package pipeline

import "github.com/ppiankov/claimtrace/internal/model"

// OutcomeKind distinguishes batch-level outcomes from per-claim verdicts
type OutcomeKind string

const (
	OutcomeClaims           OutcomeKind = "claims"
	OutcomeEmptyInput       OutcomeKind = "empty_input"
	OutcomeNoClaims         OutcomeKind = "no_claims"
	OutcomeExtractionFailed OutcomeKind = "extraction_failed"
)

// BatchOutcome is the result of one batch call. Results is in extraction
// order for OutcomeClaims; the other kinds carry the sentinel list callers
// of VerifyClaimsInText receive.
type BatchOutcome struct {
	Kind    OutcomeKind
	BatchID string
	Results []model.ClaimVerificationResult
	Reason  string // extraction error message for OutcomeExtractionFailed
}

// Flatten returns the list form of the outcome
func (o *BatchOutcome) Flatten() []model.ClaimVerificationResult {
	if o == nil || o.Results == nil {
		return []model.ClaimVerificationResult{}
	}
	return o.Results
}

const (
	noClaimsExplanation   = "No verifiable factual claims were found in the input text."
	extractionExplanation = "Claim extraction failed, so no claims could be verified."
	reasoningExplanation  = "This claim could not be verified because the reasoning step failed."
	deadlineExplanation   = "This claim could not be verified before the deadline."
	panicExplanation      = "This claim could not be verified because of an internal error."
)

func noClaimsResult(text string) model.ClaimVerificationResult {
	return model.ClaimVerificationResult{
		ID:                 model.IDNoClaimsFound,
		Status:             model.StatusNeutral,
		Explanation:        noClaimsExplanation,
		Sources:            []model.Source{},
		ProcessingComplete: true,
		OriginalText:       text,
	}
}

func extractionFailedResult(text string, err error) model.ClaimVerificationResult {
	return model.ClaimVerificationResult{
		ID:                 model.IDErrorGeneral,
		Status:             model.StatusError,
		Explanation:        extractionExplanation,
		Sources:            []model.Source{},
		ProcessingComplete: true,
		ErrorMessage:       err.Error(),
		ErrorKind:          model.ErrorKindExtractionFailed,
		OriginalText:       text,
	}
}

// claimErrorResult is the claim-fatal result. No downstream stage output
// is attached.
func claimErrorResult(id string, claim model.Claim, text, kind, message string) model.ClaimVerificationResult {
	explanation := reasoningExplanation
	switch kind {
	case model.ErrorKindDeadlineExceeded:
		explanation = deadlineExplanation
	case model.ErrorKindPanic:
		explanation = panicExplanation
	}
	return model.ClaimVerificationResult{
		ID:                 id,
		Claim:              claim.Text,
		Status:             model.StatusError,
		Explanation:        explanation,
		Sources:            []model.Source{},
		ProcessingComplete: true,
		ErrorMessage:       message,
		ErrorKind:          kind,
		OriginalText:       text,
	}
}
