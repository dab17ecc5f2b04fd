package criticality

import (
	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

// Input holds the normalised values fed into the criticality formula.
// Probability and anomaly score are in [0,1]; Equipment is the unit's
// static criticality tier.
type Input struct {
	// FailureProbability is the predictor's P(failure) for the equipment.
	FailureProbability float64

	// AnomalyScore is the aggregate anomaly intensity over the recent
	// window, 0 = clean, 1 = every point flagged.
	AnomalyScore float64

	// Equipment is the static importance tier assigned at provisioning.
	Equipment model.Tier
}

// Output is the result of the criticality evaluation.
type Output struct {
	// Score is the fused severity in [0,1].
	Score float64

	// Tier is the severity tier derived from Score. It is the single
	// source of truth for incident priority when no human reporter
	// supplies one.
	Tier model.Tier

	// The three weighted factor values (each 0–1) behind Score, useful
	// for rendering per-dimension breakdowns.
	FailureFactor     float64
	AnomalyFactor     float64
	CriticalityFactor float64
}

// Evaluator fuses failure probability, anomaly intensity and equipment
// importance into a single severity tier.
type Evaluator struct {
	cfg config.CriticalityConfig
}

// New returns an Evaluator with the given weights and tier cut points.
func New(cfg config.CriticalityConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate computes the criticality score from the given inputs.
//
// Formula:
//
//	score = failure_probability * 0.4 +
//	        anomaly_score       * 0.3 +
//	        criticality_weight  * 0.3
//
// where criticality_weight maps critical→1.0, high→0.75, medium→0.5,
// low→0.25. The score is monotonically non-decreasing in each input.
func (e *Evaluator) Evaluate(in Input) Output {
	failure := clamp01(in.FailureProbability)
	anomaly := clamp01(in.AnomalyScore)
	weight := in.Equipment.Weight()

	score := failure*e.cfg.WeightFailure +
		anomaly*e.cfg.WeightAnomaly +
		weight*e.cfg.WeightCriticality

	return Output{
		Score:             score,
		Tier:              e.tierFromScore(score),
		FailureFactor:     failure,
		AnomalyFactor:     anomaly,
		CriticalityFactor: weight,
	}
}

// tierFromScore maps a numeric score to a severity tier.
func (e *Evaluator) tierFromScore(score float64) model.Tier {
	switch {
	case score >= e.cfg.ThresholdCritical:
		return model.TierCritical
	case score >= e.cfg.ThresholdHigh:
		return model.TierHigh
	case score >= e.cfg.ThresholdMedium:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
