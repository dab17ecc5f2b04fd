package failure

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantpulse/plantpulse/internal/model"
)

func TestLogisticModel_UntrainedReturnsModelUnavailable(t *testing.T) {
	m := NewLogisticModel()

	_, err := m.Predict(make([]float64, FeatureCount))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))

	_, err = m.ScoreAnomaly(make([]float64, FeatureCount))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModelUnavailable))

	assert.Equal(t, "logistic-untrained", m.Version())
}

func TestLogisticModel_TrainRejectsBadInput(t *testing.T) {
	m := NewLogisticModel()

	_, err := m.Train(nil)
	require.Error(t, err)

	_, err = m.Train([]TrainingRow{{Features: []float64{1, 2}}})
	require.Error(t, err)

	_, err = m.Train([]TrainingRow{
		{Features: []float64{1, 2}},
		{Features: []float64{1, 2, 3}, Failed: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inconsistent feature length")
}

// separableRows builds two well separated clusters: healthy rows near
// (1,1) and failing rows near (9,9).
func separableRows(n int) []TrainingRow {
	rng := rand.New(rand.NewSource(7))
	rows := make([]TrainingRow, 0, 2*n)
	for i := 0; i < n; i++ {
		rows = append(rows, TrainingRow{
			Features: []float64{1 + rng.Float64()*0.5, 1 + rng.Float64()*0.5},
		})
		rows = append(rows, TrainingRow{
			Features: []float64{9 + rng.Float64()*0.5, 9 + rng.Float64()*0.5},
			Failed:   true,
		})
	}
	return rows
}

func TestLogisticModel_TrainSeparableData(t *testing.T) {
	m := NewLogisticModel()
	rows := separableRows(10)

	metrics, err := m.Train(rows)
	require.NoError(t, err)

	assert.Equal(t, 20, metrics.TrainingSamples)
	assert.Equal(t, 10, metrics.PositiveSamples)
	assert.Equal(t, 1.0, metrics.Accuracy, "separable clusters should classify perfectly")
	assert.Equal(t, "logistic-n20", metrics.Version)
	assert.Equal(t, "logistic-n20", m.Version())

	failing, err := m.Predict([]float64{9.2, 9.1})
	require.NoError(t, err)
	assert.Greater(t, failing, 0.7)

	healthy, err := m.Predict([]float64{1.1, 1.3})
	require.NoError(t, err)
	assert.Less(t, healthy, 0.3)
}

func TestLogisticModel_PredictRejectsWrongLength(t *testing.T) {
	m := NewLogisticModel()
	_, err := m.Train(separableRows(5))
	require.NoError(t, err)

	_, err = m.Predict([]float64{1, 2, 3})
	require.Error(t, err)

	_, err = m.ScoreAnomaly([]float64{1})
	require.Error(t, err)
}

func TestLogisticModel_ScoreAnomaly(t *testing.T) {
	m := NewLogisticModel()
	_, err := m.Train(separableRows(10))
	require.NoError(t, err)

	// The midpoint of the two clusters sits at the training mean.
	center, err := m.ScoreAnomaly([]float64{5.25, 5.25})
	require.NoError(t, err)
	assert.Less(t, center, 0.1)

	far, err := m.ScoreAnomaly([]float64{60, 60})
	require.NoError(t, err)
	assert.Equal(t, 1.0, far, "distant outliers saturate the score")
}

func TestBuildFeatures_Layout(t *testing.T) {
	eq := model.Equipment{
		ID:                  "pump-1",
		AgeMonths:           36,
		OperatingHours:      12000,
		MaintenanceInterval: 90 * 24 * time.Hour,
	}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	readings := []model.TelemetryReading{
		{EquipmentID: "pump-1", Timestamp: base, Channels: map[model.Channel]float64{
			model.ChannelTemperature: 70,
			model.ChannelVibration:   2,
		}},
		{EquipmentID: "pump-1", Timestamp: base.Add(time.Minute), Channels: map[model.Channel]float64{
			model.ChannelTemperature: 74,
			model.ChannelVibration:   2,
		}},
	}

	f := BuildFeatures(eq, readings)
	require.Len(t, f, FeatureCount)

	assert.Equal(t, 36.0, f[0])
	assert.Equal(t, 12000.0, f[1])
	assert.Equal(t, 90.0, f[2])

	// Temperature block: mean, std, min, max.
	assert.InDelta(t, 72.0, f[3], 1e-9)
	assert.Greater(t, f[4], 0.0)
	assert.Equal(t, 70.0, f[5])
	assert.Equal(t, 74.0, f[6])

	// Vibration is constant, so std is zero.
	assert.Equal(t, 2.0, f[7])
	assert.Equal(t, 0.0, f[8])

	// Pressure and current never reported: their blocks are zero.
	for i := 11; i < FeatureCount; i++ {
		assert.Equal(t, 0.0, f[i], "feature %d", i)
	}
}

func TestBuildFeatures_EmptyWindow(t *testing.T) {
	f := BuildFeatures(model.Equipment{AgeMonths: 5}, nil)
	require.Len(t, f, FeatureCount)
	assert.Equal(t, 5.0, f[0])
	for i := 3; i < FeatureCount; i++ {
		assert.Equal(t, 0.0, f[i])
	}
}
