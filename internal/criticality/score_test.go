package criticality

import (
	"math"
	"testing"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

func newEvaluator() *Evaluator {
	return New(config.Defaults().Engine.Criticality)
}

// almostEqual returns true if a and b are within epsilon of each other.
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestEvaluate_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		in        Input
		wantTier  model.Tier
		wantScore float64 // approximate; use -1 to skip
	}{
		{
			name:      "worst case — everything maxed",
			in:        Input{FailureProbability: 1, AnomalyScore: 1, Equipment: model.TierCritical},
			wantTier:  model.TierCritical,
			wantScore: 1.0,
		},
		{
			// 0.4*0.72 + 0.3*0.55 + 0.3*0.75 = 0.288+0.165+0.225 = 0.678
			name:      "worked example — high tier",
			in:        Input{FailureProbability: 0.72, AnomalyScore: 0.55, Equipment: model.TierHigh},
			wantTier:  model.TierHigh,
			wantScore: 0.678,
		},
		{
			name:      "quiet low-importance unit",
			in:        Input{FailureProbability: 0.1, AnomalyScore: 0, Equipment: model.TierLow},
			wantTier:  model.TierLow,
			wantScore: 0.115,
		},
		{
			// 0.4*0.5 + 0.3*0.3 + 0.3*0.5 = 0.2+0.09+0.15 = 0.44
			name:      "medium band",
			in:        Input{FailureProbability: 0.5, AnomalyScore: 0.3, Equipment: model.TierMedium},
			wantTier:  model.TierMedium,
			wantScore: 0.44,
		},
		{
			// 0.4*1 + 0.3*1 + 0.3*0.25 = 0.775 — just under critical
			name:      "boundary — below 0.8 stays high",
			in:        Input{FailureProbability: 1, AnomalyScore: 1, Equipment: model.TierLow},
			wantTier:  model.TierHigh,
			wantScore: 0.775,
		},
		{
			// 0.4*0.95 + 0.3*0.9 + 0.3*0.5 = 0.38+0.27+0.15 = 0.8 — boundary critical
			name:      "boundary — exactly 0.8 is critical",
			in:        Input{FailureProbability: 0.95, AnomalyScore: 0.9, Equipment: model.TierMedium},
			wantTier:  model.TierCritical,
			wantScore: 0.8,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := newEvaluator().Evaluate(tc.in)
			if out.Tier != tc.wantTier {
				t.Errorf("Tier = %q, want %q (score=%.3f)", out.Tier, tc.wantTier, out.Score)
			}
			if tc.wantScore >= 0 && !almostEqual(out.Score, tc.wantScore, 1e-9) {
				t.Errorf("Score = %.6f, want %.6f", out.Score, tc.wantScore)
			}
		})
	}
}

func TestEvaluate_Monotonic(t *testing.T) {
	// Score must be monotonically non-decreasing in each input holding
	// the other two fixed.
	e := newEvaluator()
	base := Input{FailureProbability: 0.4, AnomalyScore: 0.4, Equipment: model.TierMedium}
	baseScore := e.Evaluate(base).Score

	t.Run("failure probability", func(t *testing.T) {
		prev := baseScore
		for p := 0.45; p <= 1.0; p += 0.05 {
			in := base
			in.FailureProbability = p
			s := e.Evaluate(in).Score
			if s < prev {
				t.Fatalf("score decreased from %.4f to %.4f at p=%.2f", prev, s, p)
			}
			prev = s
		}
	})

	t.Run("anomaly score", func(t *testing.T) {
		prev := baseScore
		for a := 0.45; a <= 1.0; a += 0.05 {
			in := base
			in.AnomalyScore = a
			s := e.Evaluate(in).Score
			if s < prev {
				t.Fatalf("score decreased from %.4f to %.4f at a=%.2f", prev, s, a)
			}
			prev = s
		}
	})

	t.Run("equipment tier", func(t *testing.T) {
		tiers := []model.Tier{model.TierLow, model.TierMedium, model.TierHigh, model.TierCritical}
		prev := -1.0
		for _, tier := range tiers {
			in := base
			in.Equipment = tier
			s := e.Evaluate(in).Score
			if s < prev {
				t.Fatalf("score decreased from %.4f to %.4f at tier=%s", prev, s, tier)
			}
			prev = s
		}
	})
}

func TestEvaluate_InputClamping(t *testing.T) {
	out := newEvaluator().Evaluate(Input{
		FailureProbability: 1.7,
		AnomalyScore:       -0.4,
		Equipment:          model.TierLow,
	})
	if out.FailureFactor != 1.0 {
		t.Errorf("FailureFactor = %.2f, want clamped 1.0", out.FailureFactor)
	}
	if out.AnomalyFactor != 0.0 {
		t.Errorf("AnomalyFactor = %.2f, want clamped 0.0", out.AnomalyFactor)
	}
	if out.Score < 0 || out.Score > 1 {
		t.Errorf("Score %.4f out of [0,1]", out.Score)
	}
}

func TestEvaluate_FactorsReconstructScore(t *testing.T) {
	cfg := config.Defaults().Engine.Criticality
	out := New(cfg).Evaluate(Input{
		FailureProbability: 0.63,
		AnomalyScore:       0.21,
		Equipment:          model.TierHigh,
	})
	reconstructed := out.FailureFactor*cfg.WeightFailure +
		out.AnomalyFactor*cfg.WeightAnomaly +
		out.CriticalityFactor*cfg.WeightCriticality
	if !almostEqual(out.Score, reconstructed, 1e-12) {
		t.Errorf("Score %.8f != reconstructed %.8f", out.Score, reconstructed)
	}
}
