package failure

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantpulse/plantpulse/internal/model"
)

// stubModel returns canned values so predictor behaviour can be checked
// independently of any fitting.
type stubModel struct {
	prob    float64
	anomaly float64
	err     error
}

func (s stubModel) Predict([]float64) (float64, error)      { return s.prob, s.err }
func (s stubModel) ScoreAnomaly([]float64) (float64, error) { return s.anomaly, s.err }
func (s stubModel) Train([]TrainingRow) (Metrics, error)    { return Metrics{}, nil }
func (s stubModel) Version() string                         { return "stub-1" }

func reading(ts time.Time, channels map[model.Channel]float64) model.TelemetryReading {
	return model.TelemetryReading{EquipmentID: "eq-1", Timestamp: ts, Channels: channels}
}

func TestGuessFailureType(t *testing.T) {
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		readings []model.TelemetryReading
		want     model.FailureType
	}{
		{
			name: "hot equipment overheats",
			readings: []model.TelemetryReading{
				reading(base, map[model.Channel]float64{model.ChannelTemperature: 95}),
			},
			want: model.FailureOverheating,
		},
		{
			name: "high vibration means imbalance",
			readings: []model.TelemetryReading{
				reading(base, map[model.Channel]float64{
					model.ChannelTemperature: 60,
					model.ChannelVibration:   6.2,
				}),
			},
			want: model.FailureImbalance,
		},
		{
			name: "high pressure means overpressure",
			readings: []model.TelemetryReading{
				reading(base, map[model.Channel]float64{
					model.ChannelPressure: 12.4,
				}),
			},
			want: model.FailureOverpressure,
		},
		{
			name: "temperature rule wins when several thresholds cross",
			readings: []model.TelemetryReading{
				reading(base, map[model.Channel]float64{
					model.ChannelTemperature: 101,
					model.ChannelVibration:   7,
					model.ChannelPressure:    15,
				}),
			},
			want: model.FailureOverheating,
		},
		{
			name: "nominal readings fall through to general wear",
			readings: []model.TelemetryReading{
				reading(base, map[model.Channel]float64{
					model.ChannelTemperature: 65,
					model.ChannelVibration:   1.1,
					model.ChannelPressure:    4,
				}),
			},
			want: model.FailureGeneralWear,
		},
		{
			name: "only the latest reading counts",
			readings: []model.TelemetryReading{
				reading(base, map[model.Channel]float64{model.ChannelTemperature: 97}),
				reading(base.Add(time.Minute), map[model.Channel]float64{model.ChannelTemperature: 62}),
			},
			want: model.FailureGeneralWear,
		},
		{
			name:     "empty window",
			readings: nil,
			want:     model.FailureGeneralWear,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GuessFailureType(tt.readings))
		})
	}
}

func TestTimeToFailure(t *testing.T) {
	tests := []struct {
		probability float64
		want        time.Duration
	}{
		{0.95, 24 * time.Hour},
		{0.91, 24 * time.Hour},
		{0.9, 3 * 24 * time.Hour},
		{0.85, 3 * 24 * time.Hour},
		{0.75, 7 * 24 * time.Hour},
		{0.65, 14 * 24 * time.Hour},
		{0.6, 30 * 24 * time.Hour},
		{0.1, 30 * 24 * time.Hour},
		{0, 30 * 24 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeToFailure(tt.probability), "probability %v", tt.probability)
	}
}

func TestPredictor_UntrainedModel(t *testing.T) {
	p := NewPredictor(NewLogisticModel())
	window := []model.TelemetryReading{
		reading(time.Now(), map[model.Channel]float64{model.ChannelTemperature: 60}),
	}

	_, err := p.Predict(model.Equipment{ID: "eq-9"}, window)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
	assert.Contains(t, err.Error(), "eq-9")
}

func TestPredictor_EmptyWindow(t *testing.T) {
	p := NewPredictor(stubModel{prob: 0.9})

	_, err := p.Predict(model.Equipment{ID: "eq-9"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestPredictor_Predict(t *testing.T) {
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	eq := model.Equipment{ID: "press-3", AgeMonths: 24}
	window := []model.TelemetryReading{
		reading(base, map[model.Channel]float64{model.ChannelVibration: 6.8}),
	}

	p := NewPredictor(stubModel{prob: 0.86, anomaly: 0.4})
	pred, err := p.Predict(eq, window)
	require.NoError(t, err)

	assert.Equal(t, "press-3", pred.EquipmentID)
	assert.Equal(t, 0.86, pred.Probability)
	assert.Equal(t, 0.4, pred.AnomalyScore)
	assert.Equal(t, model.FailureImbalance, pred.FailureType)
	assert.Equal(t, 3*24*time.Hour, pred.TimeToFailure)
	assert.Equal(t, "high", pred.Confidence)
	assert.Equal(t, "stub-1", pred.ModelVersion)
}

func TestPredictor_ConfidenceBand(t *testing.T) {
	p := NewPredictor(stubModel{prob: 0.5})
	window := []model.TelemetryReading{
		reading(time.Now(), map[model.Channel]float64{model.ChannelTemperature: 60}),
	}
	pred, err := p.Predict(model.Equipment{ID: "eq-2"}, window)
	require.NoError(t, err)
	assert.Equal(t, "medium", pred.Confidence)
}
