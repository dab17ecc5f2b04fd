package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

// minAnomalyPoints is the minimum valid samples a channel needs before
// z-score anomaly detection is attempted.
const minAnomalyPoints = 10

// TrendDirection classifies the fitted slope of one channel.
type TrendDirection string

// Trend classifications. The two degraded values are explicit results,
// never silent zeros: NoData means the channel was absent from the whole
// window, InsufficientData means fewer than 2 valid points.
const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
	TrendNoData           TrendDirection = "no_data"
)

// Trend is the linear-fit summary for one channel over the window.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	Slope     float64        `json:"slope"`
	RSquared  float64        `json:"r_squared"`
	Current   float64        `json:"current_value"`
	Mean      float64        `json:"mean"`
	Points    int            `json:"points"`
}

// Anomaly flags one reading whose z-score crossed the configured threshold.
type Anomaly struct {
	Channel   model.Channel `json:"channel"`
	Timestamp time.Time     `json:"timestamp"`
	Value     float64       `json:"value"`
	ZScore    float64       `json:"z_score"`
	Severity  string        `json:"severity"` // "medium" | "high"
}

// Result is the full analysis of one equipment's telemetry window.
// It is derived and ephemeral: recomputed on demand, never the source
// of truth.
type Result struct {
	EquipmentID  string                  `json:"equipment_id"`
	Samples      int                     `json:"samples"`
	Trends       map[model.Channel]Trend `json:"trends"`
	Anomalies    []Anomaly               `json:"anomalies"`
	Correlations map[string]float64      `json:"correlations"`

	// AnomalyScore is the severity-weighted fraction of flagged points,
	// in [0,1]. A deliberate heuristic: high-severity flags count full,
	// medium count 0.6.
	AnomalyScore float64 `json:"anomaly_score"`
}

// Analyzer converts raw, possibly sparse telemetry windows into trend,
// anomaly and correlation signals. It is pure: the same window always
// yields the same Result, and no I/O is performed.
type Analyzer struct {
	cfg config.AnalyzerConfig
}

// New returns an Analyzer with the given thresholds.
func New(cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze examines an ordered telemetry window for one equipment.
// Readings may be missing channels; each channel degrades independently
// rather than failing the whole analysis. An empty window returns a
// Result whose every channel reports TrendNoData.
func (a *Analyzer) Analyze(equipmentID string, readings []model.TelemetryReading) *Result {
	res := &Result{
		EquipmentID:  equipmentID,
		Samples:      len(readings),
		Trends:       make(map[model.Channel]Trend, len(model.Channels())),
		Correlations: make(map[string]float64),
	}

	var evaluated, weighted float64
	for _, ch := range model.Channels() {
		values, times := channelSeries(readings, ch)

		res.Trends[ch] = a.trend(values)

		flags := a.anomalies(ch, values, times)
		res.Anomalies = append(res.Anomalies, flags...)
		if len(values) >= minAnomalyPoints {
			evaluated += float64(len(values))
			for _, f := range flags {
				if f.Severity == "high" {
					weighted += 1.0
				} else {
					weighted += 0.6
				}
			}
		}
	}

	a.correlate(res, readings)

	if evaluated > 0 {
		res.AnomalyScore = clamp01(weighted / evaluated)
	}
	return res
}

// channelSeries extracts the valid points of one channel, preserving
// window order. NaN values are treated as missing.
func channelSeries(readings []model.TelemetryReading, ch model.Channel) ([]float64, []time.Time) {
	values := make([]float64, 0, len(readings))
	times := make([]time.Time, 0, len(readings))
	for _, r := range readings {
		v, ok := r.Value(ch)
		if !ok || math.IsNaN(v) {
			continue
		}
		values = append(values, v)
		times = append(times, r.Timestamp)
	}
	return values, times
}

// trend fits a first-degree polynomial over the reading index and
// classifies the slope against the stable threshold.
func (a *Analyzer) trend(values []float64) Trend {
	switch len(values) {
	case 0:
		return Trend{Direction: TrendNoData}
	case 1:
		return Trend{Direction: TrendInsufficientData, Current: values[0], Mean: values[0], Points: 1}
	}

	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}

	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	r2 := stat.RSquared(xs, values, nil, alpha, beta)
	if math.IsNaN(r2) {
		// Perfectly flat series: the fit explains nothing and everything.
		r2 = 0
	}

	dir := TrendStable
	switch {
	case math.Abs(beta) < a.cfg.StableSlope:
		dir = TrendStable
	case beta > 0:
		dir = TrendIncreasing
	default:
		dir = TrendDecreasing
	}

	return Trend{
		Direction: dir,
		Slope:     beta,
		RSquared:  r2,
		Current:   values[len(values)-1],
		Mean:      stat.Mean(values, nil),
		Points:    len(values),
	}
}

// anomalies z-scores every point of one channel against the window's
// sample mean and standard deviation. Channels with zero variance are
// skipped entirely — no anomaly is reportable, and no NaN or Inf is ever
// produced.
func (a *Analyzer) anomalies(ch model.Channel, values []float64, times []time.Time) []Anomaly {
	if len(values) < minAnomalyPoints {
		return nil
	}

	mean := stat.Mean(values, nil)
	std := stat.StdDev(values, nil)
	if std == 0 {
		return nil
	}

	var out []Anomaly
	for i, v := range values {
		z := math.Abs(v-mean) / std
		if z <= a.cfg.ZMedium {
			continue
		}
		sev := "medium"
		if z > a.cfg.ZHigh {
			sev = "high"
		}
		out = append(out, Anomaly{
			Channel:   ch,
			Timestamp: times[i],
			Value:     v,
			ZScore:    z,
			Severity:  sev,
		})
	}
	return out
}

// correlate computes pairwise Pearson correlation across all channel
// pairs, using only readings where both channels are present. Pairs with
// |r| above the configured minimum are surfaced keyed "<a>_vs_<b>".
func (a *Analyzer) correlate(res *Result, readings []model.TelemetryReading) {
	chans := model.Channels()
	for i := 0; i < len(chans); i++ {
		for j := i + 1; j < len(chans); j++ {
			xs, ys := pairedSeries(readings, chans[i], chans[j])
			if len(xs) < 2 {
				continue
			}
			r := stat.Correlation(xs, ys, nil)
			if math.IsNaN(r) {
				// One side has zero variance; correlation is undefined.
				continue
			}
			if math.Abs(r) > a.cfg.CorrelationMin {
				key := fmt.Sprintf("%s_vs_%s", chans[i], chans[j])
				res.Correlations[key] = r
			}
		}
	}
}

// pairedSeries extracts the aligned values of two channels from readings
// where both are present.
func pairedSeries(readings []model.TelemetryReading, a, b model.Channel) ([]float64, []float64) {
	var xs, ys []float64
	for _, r := range readings {
		va, oka := r.Value(a)
		vb, okb := r.Value(b)
		if !oka || !okb || math.IsNaN(va) || math.IsNaN(vb) {
			continue
		}
		xs = append(xs, va)
		ys = append(ys, vb)
	}
	return xs, ys
}

// TopAnomalies returns the n highest-z anomalies, newest-first on ties.
func (r *Result) TopAnomalies(n int) []Anomaly {
	out := make([]Anomaly, len(r.Anomalies))
	copy(out, r.Anomalies)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ZScore != out[j].ZScore {
			return out[i].ZScore > out[j].ZScore
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
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
