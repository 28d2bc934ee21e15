package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrorType is a coarse classification of collaborator failures used for
// log fields and metric labels.
type ErrorType string

const (
	ErrorQuota     ErrorType = "quota"
	ErrorRate      ErrorType = "rate"
	ErrorTransient ErrorType = "transient"
	ErrorPermanent ErrorType = "permanent"
	ErrorContext   ErrorType = "context"
	ErrorDeadline  ErrorType = "deadline"
	ErrorParse     ErrorType = "parse"
)

// ClassifyError maps an error onto an ErrorType
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorDeadline
	case errors.Is(err, ErrNoJSON), errors.Is(err, ErrEmptyResponse):
		return ErrorParse
	}

	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context length"), strings.Contains(e, "context_length"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"),
		strings.Contains(e, "connection reset"), strings.Contains(e, "connection refused"):
		return ErrorTransient
	case strings.Contains(e, "invalid json"), strings.Contains(e, "unmarshal"):
		return ErrorParse
	default:
		return ErrorPermanent
	}
}
