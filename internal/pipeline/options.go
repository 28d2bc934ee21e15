package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/claimtrace/internal/model"
)

// Reasoner iteration budgets
const (
	PrimaryIterations  = 2
	SubClaimIterations = 1
)

// Options tunes the orchestrator
type Options struct {
	// SubClaimThreshold: sub-claims are expanded when confidence is
	// missing or strictly below this value
	SubClaimThreshold float64

	// SubClaimParallelism > 1 verifies sub-claims concurrently
	SubClaimParallelism int

	ClaimConcurrency int
	StageTimeout     time.Duration // 0 disables
	BatchTimeout     time.Duration // 0 disables

	// CorrectionPolicy is model.CorrectionPolicyVerdict or
	// model.CorrectionPolicySynthesizer
	CorrectionPolicy string

	// NewBatchID generates the prefix of result ids
	NewBatchID func() string
}

// DefaultOptions returns the defaults from model.DefaultConfig
func DefaultOptions() Options {
	return OptionsFromConfig(model.DefaultConfig().Pipeline)
}

// OptionsFromConfig maps pipeline configuration onto Options
func OptionsFromConfig(cfg model.PipelineConfig) Options {
	return Options{
		SubClaimThreshold:   cfg.SubClaimThreshold,
		SubClaimParallelism: cfg.SubClaimParallelism,
		ClaimConcurrency:    cfg.ClaimConcurrency,
		StageTimeout:        cfg.StageTimeout,
		BatchTimeout:        cfg.BatchTimeout,
		CorrectionPolicy:    cfg.CorrectionPolicy,
	}
}

func (o Options) withDefaults() Options {
	if o.SubClaimParallelism < 1 {
		o.SubClaimParallelism = 1
	}
	if o.ClaimConcurrency < 1 {
		o.ClaimConcurrency = 1
	}
	if o.CorrectionPolicy == "" {
		o.CorrectionPolicy = model.CorrectionPolicyVerdict
	}
	if o.NewBatchID == nil {
		o.NewBatchID = uuid.NewString
	}
	return o
}
