package trust

import (
	"math"

	"github.com/ppiankov/claimtrace/internal/model"
	"gonum.org/v1/gonum/stat"
)

// TierPrior is the prior trust assigned to a source from its authority tier
func TierPrior(tier model.AuthorityTier) float64 {
	switch tier {
	case model.TierPrimary:
		return 0.9
	case model.TierSecondary:
		return 0.7
	case model.TierTertiary:
		return 0.4
	default:
		return 0.3
	}
}

// Provenance is the breakdown behind a blended trust score
type Provenance struct {
	SynthesizedScore float64
	PriorMean        float64
	Weight           float64
	Score            float64
	EvidenceCount    int
}

// BlendScore combines the synthesized score with the mean authority prior
// of the evidence sources: score = (1-w)*synth + w*mean(priors).
// Without evidence, or with w == 0, the synthesized score stands.
func BlendScore(synthesized float64, sources []model.Source, weight float64) Provenance {
	p := Provenance{
		SynthesizedScore: clamp01(synthesized),
		Weight:           clamp01(weight),
	}

	var priors []float64
	for _, s := range sources {
		if !s.IsEvidence() {
			continue
		}
		priors = append(priors, TierPrior(s.Authority))
	}
	p.EvidenceCount = len(priors)

	if len(priors) == 0 || p.Weight == 0 {
		p.Score = p.SynthesizedScore
		return p
	}

	p.PriorMean = stat.Mean(priors, nil)
	p.Score = clamp01((1-p.Weight)*p.SynthesizedScore + p.Weight*p.PriorMean)
	return p
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
