package cache

import (
	"context"

	"github.com/ppiankov/claimtrace/internal/model"
)

// NoopGate is the claim-result cache gate used until semantic matching
// exists. It never reports a hit.
type NoopGate struct{}

// Check always misses
func (NoopGate) Check(ctx context.Context, claim string) (*model.ClaimVerificationResult, bool) {
	return nil, false
}
