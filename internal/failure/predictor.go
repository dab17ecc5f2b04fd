package failure

import (
	"fmt"
	"time"

	"github.com/plantpulse/plantpulse/internal/model"
)

// Static domain thresholds for the failure-type rule table. The first
// channel whose latest reading crosses its threshold names the failure
// mode; none crossing means general wear.
var failureTypeRules = []struct {
	channel   model.Channel
	threshold float64
	failure   model.FailureType
}{
	{model.ChannelTemperature, 90, model.FailureOverheating},
	{model.ChannelVibration, 5.0, model.FailureImbalance},
	{model.ChannelPressure, 10.0, model.FailureOverpressure},
}

// Prediction is the predictor's assessment of one equipment unit.
type Prediction struct {
	EquipmentID  string            `json:"equipment_id"`
	Probability  float64           `json:"failure_probability"`
	AnomalyScore float64           `json:"anomaly_score"`
	FailureType  model.FailureType `json:"failure_type"`

	// TimeToFailure is a heuristic step function of Probability, not a
	// fitted regression — the breakpoints are policy, not inference.
	TimeToFailure time.Duration `json:"time_to_failure"`

	// Confidence is "high" when Probability exceeds 0.8, else "medium".
	Confidence string `json:"confidence"`

	ModelVersion string `json:"model_version"`
}

// Predictor combines the pluggable statistical model with the static
// rule tables for failure type and time to failure.
type Predictor struct {
	model Model
}

// NewPredictor wires a Predictor to the given model capability.
func NewPredictor(m Model) *Predictor {
	return &Predictor{model: m}
}

// Model exposes the underlying capability, e.g. for the retrain sweep.
func (p *Predictor) Model() Model { return p.model }

// Predict assesses one equipment from its static attributes and recent
// telemetry window. When the underlying model is not ready it returns
// ErrModelUnavailable (wrapped with the equipment ID) rather than a
// fabricated probability.
func (p *Predictor) Predict(eq model.Equipment, readings []model.TelemetryReading) (*Prediction, error) {
	if len(readings) == 0 {
		return nil, fmt.Errorf("equipment %s: %w", eq.ID, ErrInsufficientData)
	}
	features := BuildFeatures(eq, readings)

	prob, err := p.model.Predict(features)
	if err != nil {
		return nil, fmt.Errorf("equipment %s: %w", eq.ID, err)
	}
	anomaly, err := p.model.ScoreAnomaly(features)
	if err != nil {
		return nil, fmt.Errorf("equipment %s: %w", eq.ID, err)
	}

	confidence := "medium"
	if prob > 0.8 {
		confidence = "high"
	}

	return &Prediction{
		EquipmentID:   eq.ID,
		Probability:   prob,
		AnomalyScore:  anomaly,
		FailureType:   GuessFailureType(readings),
		TimeToFailure: TimeToFailure(prob),
		Confidence:    confidence,
		ModelVersion:  p.model.Version(),
	}, nil
}

// GuessFailureType applies the channel-threshold rule table to the most
// recent readings. Documented heuristic with a stable rule order and an
// explicit default branch.
func GuessFailureType(readings []model.TelemetryReading) model.FailureType {
	for _, rule := range failureTypeRules {
		if v, ok := latestValue(readings, rule.channel); ok && v > rule.threshold {
			return rule.failure
		}
	}
	return model.FailureGeneralWear
}

// TimeToFailure maps a failure probability to an estimated horizon.
// Monotonically decreasing step function; an explicit heuristic, not a
// regression.
func TimeToFailure(probability float64) time.Duration {
	switch {
	case probability > 0.9:
		return 24 * time.Hour
	case probability > 0.8:
		return 3 * 24 * time.Hour
	case probability > 0.7:
		return 7 * 24 * time.Hour
	case probability > 0.6:
		return 14 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}
