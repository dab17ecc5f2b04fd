package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

func newAnalyzer() *Analyzer {
	return New(config.Defaults().Engine.Analyzer)
}

// window builds an ordered reading window from per-channel value slices.
// A nil slice omits the channel; NaN omits the channel for that reading.
func window(t *testing.T, series map[model.Channel][]float64) []model.TelemetryReading {
	t.Helper()
	n := 0
	for _, vs := range series {
		if len(vs) > n {
			n = len(vs)
		}
	}
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	readings := make([]model.TelemetryReading, n)
	for i := range readings {
		chans := make(map[model.Channel]float64)
		for ch, vs := range series {
			if i < len(vs) && !math.IsNaN(vs[i]) {
				chans[ch] = vs[i]
			}
		}
		readings[i] = model.TelemetryReading{
			EquipmentID: "eq-1",
			Timestamp:   start.Add(time.Duration(i) * time.Minute),
			Channels:    chans,
		}
	}
	return readings
}

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestAnalyze_TrendDirections(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   TrendDirection
	}{
		{"strictly increasing", ramp(24, 20, 0.5), TrendIncreasing},
		{"strictly decreasing", ramp(24, 80, -0.5), TrendDecreasing},
		{"flat", constant(24, 42), TrendStable},
		{"slope under threshold", ramp(24, 10, 0.0001), TrendStable},
		{"single point", []float64{7}, TrendInsufficientData},
		{"empty", nil, TrendNoData},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := newAnalyzer().Analyze("eq-1",
				window(t, map[model.Channel][]float64{model.ChannelTemperature: tc.values}))
			tr := res.Trends[model.ChannelTemperature]
			assert.Equal(t, tc.want, tr.Direction)
		})
	}
}

func TestAnalyze_TrendFit(t *testing.T) {
	res := newAnalyzer().Analyze("eq-1",
		window(t, map[model.Channel][]float64{model.ChannelVibration: ramp(24, 1, 0.25)}))

	tr := res.Trends[model.ChannelVibration]
	require.Equal(t, TrendIncreasing, tr.Direction)
	assert.InDelta(t, 0.25, tr.Slope, 1e-9)
	assert.InDelta(t, 1.0, tr.RSquared, 1e-9, "perfect linear series")
	assert.InDelta(t, 1+23*0.25, tr.Current, 1e-9)
	assert.Equal(t, 24, tr.Points)
	assert.False(t, math.IsNaN(tr.RSquared))
}

func TestAnalyze_FlatSeriesNoNaN(t *testing.T) {
	// Zero-variance series: no anomalies, no NaN anywhere.
	res := newAnalyzer().Analyze("eq-1",
		window(t, map[model.Channel][]float64{model.ChannelPressure: constant(30, 5.5)}))

	assert.Empty(t, res.Anomalies)
	assert.Equal(t, 0.0, res.AnomalyScore)
	tr := res.Trends[model.ChannelPressure]
	assert.False(t, math.IsNaN(tr.Slope))
	assert.False(t, math.IsNaN(tr.RSquared))
}

func TestAnalyze_AnomalySeverities(t *testing.T) {
	// 29 steady points plus one large spike: exactly one high anomaly.
	spike := constant(30, 10)
	for i := 0; i < 29; i++ {
		if i%2 == 0 {
			spike[i] = 13
		} else {
			spike[i] = 7
		}
	}
	spike[29] = 100

	res := newAnalyzer().Analyze("eq-1",
		window(t, map[model.Channel][]float64{model.ChannelTemperature: spike}))

	require.Len(t, res.Anomalies, 1)
	a := res.Anomalies[0]
	assert.Equal(t, model.ChannelTemperature, a.Channel)
	assert.Equal(t, "high", a.Severity)
	assert.Equal(t, 100.0, a.Value)
	assert.Greater(t, a.ZScore, 3.0)
	assert.Greater(t, res.AnomalyScore, 0.0)
	assert.LessOrEqual(t, res.AnomalyScore, 1.0)
}

func TestAnalyze_MediumSeverity(t *testing.T) {
	// Alternating ±1 noise plus a moderate excursion lands between the
	// medium and high thresholds.
	vals := make([]float64, 21)
	for i := 0; i < 20; i++ {
		if i%2 == 0 {
			vals[i] = 1
		} else {
			vals[i] = -1
		}
	}
	vals[20] = 3.5

	res := newAnalyzer().Analyze("eq-1",
		window(t, map[model.Channel][]float64{model.ChannelVoltage: vals}))

	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, "medium", res.Anomalies[0].Severity)
}

func TestAnalyze_AnomalyNeedsMinimumPoints(t *testing.T) {
	// 9 points with a wild outlier: below the minimum, nothing flagged.
	vals := []float64{1, 1, 1, 1, 1000, 1, 1, 1, 1}
	res := newAnalyzer().Analyze("eq-1",
		window(t, map[model.Channel][]float64{model.ChannelCurrent: vals}))
	assert.Empty(t, res.Anomalies)
}

func TestAnalyze_Correlations(t *testing.T) {
	temp := ramp(24, 20, 1)
	vib := make([]float64, 24)
	for i := range vib {
		vib[i] = 2*temp[i] + 1 // perfectly correlated
	}
	hum := make([]float64, 24)
	for i := range hum {
		if i%2 == 0 {
			hum[i] = 1
		} else {
			hum[i] = -1
		}
	}

	res := newAnalyzer().Analyze("eq-1", window(t, map[model.Channel][]float64{
		model.ChannelTemperature: temp,
		model.ChannelVibration:   vib,
		model.ChannelHumidity:    hum,
	}))

	r, ok := res.Correlations["temperature_vs_vibration"]
	require.True(t, ok, "strong pair must be surfaced: %v", res.Correlations)
	assert.InDelta(t, 1.0, r, 1e-9)

	_, ok = res.Correlations["temperature_vs_humidity"]
	assert.False(t, ok, "weak pair must not be surfaced")
}

func TestAnalyze_SparseChannels(t *testing.T) {
	// Vibration present only on some readings; gaps must be tolerated.
	vib := ramp(24, 1, 0.5)
	for i := 0; i < 24; i += 3 {
		vib[i] = math.NaN()
	}
	res := newAnalyzer().Analyze("eq-1", window(t, map[model.Channel][]float64{
		model.ChannelTemperature: ramp(24, 20, 0.5),
		model.ChannelVibration:   vib,
	}))

	tr := res.Trends[model.ChannelVibration]
	assert.Equal(t, TrendIncreasing, tr.Direction)
	assert.Equal(t, 16, tr.Points)
}

func TestAnalyze_EmptyWindow(t *testing.T) {
	res := newAnalyzer().Analyze("eq-1", nil)

	require.NotNil(t, res)
	assert.Equal(t, 0, res.Samples)
	for _, ch := range model.Channels() {
		assert.Equal(t, TrendNoData, res.Trends[ch].Direction, "channel %s", ch)
	}
	assert.Empty(t, res.Anomalies)
	assert.Empty(t, res.Correlations)
	assert.Equal(t, 0.0, res.AnomalyScore)
}

func TestAnalyze_Deterministic(t *testing.T) {
	w := window(t, map[model.Channel][]float64{
		model.ChannelTemperature: ramp(30, 20, 0.7),
		model.ChannelVibration:   ramp(30, 2, 0.1),
	})
	a := newAnalyzer()
	r1 := a.Analyze("eq-1", w)
	r2 := a.Analyze("eq-1", w)
	assert.Equal(t, r1, r2)
}

func TestTopAnomalies(t *testing.T) {
	vals := constant(30, 10)
	for i := 0; i < 29; i++ {
		if i%2 == 0 {
			vals[i] = 12
		} else {
			vals[i] = 8
		}
	}
	vals[29] = 90
	res := newAnalyzer().Analyze("eq-1",
		window(t, map[model.Channel][]float64{model.ChannelTemperature: vals}))

	top := res.TopAnomalies(1)
	require.Len(t, top, 1)
	assert.Equal(t, 90.0, top[0].Value)
}
