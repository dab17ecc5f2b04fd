package failure

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Training hyperparameters for the default model. Fixed rather than
// configurable: the model contract is pluggable, so a deployment wanting
// different behaviour swaps the Model, not the knobs.
const (
	learningRate = 0.1
	epochs       = 300

	// anomalyScaleZ is the mean per-feature z-distance treated as a full
	// anomaly (score 1.0). A deliberate heuristic.
	anomalyScaleZ = 3.0
)

// LogisticModel is the in-tree Model implementation: a logistic
// classifier fitted by gradient descent on standardised features, with a
// z-distance outlier scorer built from the same training statistics.
// It is safe for concurrent use.
type LogisticModel struct {
	mu      sync.RWMutex
	trained bool
	version string

	weights []float64
	bias    float64

	// Per-feature standardisation parameters captured at training time.
	means []float64
	stds  []float64
}

// NewLogisticModel returns an untrained model. Predict and ScoreAnomaly
// return ErrModelUnavailable until Train succeeds.
func NewLogisticModel() *LogisticModel {
	return &LogisticModel{version: "logistic-untrained"}
}

// Predict returns P(failure) for the feature vector.
func (m *LogisticModel) Predict(features []float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.trained {
		return 0, ErrModelUnavailable
	}
	if len(features) != len(m.weights) {
		return 0, fmt.Errorf("predict: feature vector length %d, model expects %d",
			len(features), len(m.weights))
	}
	z := m.standardize(features)
	return sigmoid(floats.Dot(m.weights, z) + m.bias), nil
}

// ScoreAnomaly returns an outlier score in [0,1]: the mean absolute
// z-distance of the feature vector from the training distribution,
// scaled so that anomalyScaleZ standard deviations saturate at 1.
func (m *LogisticModel) ScoreAnomaly(features []float64) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.trained {
		return 0, ErrModelUnavailable
	}
	if len(features) != len(m.means) {
		return 0, fmt.Errorf("score: feature vector length %d, model expects %d",
			len(features), len(m.means))
	}

	var total float64
	for i, v := range features {
		total += math.Abs(v-m.means[i]) / m.stds[i]
	}
	avg := total / float64(len(features))
	return clamp01(avg / anomalyScaleZ), nil
}

// Train fits the classifier and the outlier statistics on rows.
// At least two rows and one positive label are required to fit anything
// meaningful.
func (m *LogisticModel) Train(rows []TrainingRow) (Metrics, error) {
	if len(rows) < 2 {
		return Metrics{}, fmt.Errorf("train: need at least 2 rows, got %d", len(rows))
	}
	dim := len(rows[0].Features)
	positives := 0
	for _, r := range rows {
		if len(r.Features) != dim {
			return Metrics{}, fmt.Errorf("train: inconsistent feature length %d vs %d",
				len(r.Features), dim)
		}
		if r.Failed {
			positives++
		}
	}

	means, stds := columnStats(rows, dim)

	// Standardise once up front.
	std := make([][]float64, len(rows))
	labels := make([]float64, len(rows))
	for i, r := range rows {
		z := make([]float64, dim)
		for j, v := range r.Features {
			z[j] = (v - means[j]) / stds[j]
		}
		std[i] = z
		if r.Failed {
			labels[i] = 1
		}
	}

	weights := make([]float64, dim)
	bias := 0.0
	n := float64(len(rows))

	grad := make([]float64, dim)
	for epoch := 0; epoch < epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64
		for i, z := range std {
			p := sigmoid(floats.Dot(weights, z) + bias)
			err := p - labels[i]
			floats.AddScaled(grad, err, z)
			gradBias += err
		}
		floats.AddScaled(weights, -learningRate/n, grad)
		bias -= learningRate / n * gradBias
	}

	// Training-set accuracy; honest enough for a refresh-loop health signal.
	correct := 0
	for i, z := range std {
		p := sigmoid(floats.Dot(weights, z) + bias)
		if (p >= 0.5) == (labels[i] == 1) {
			correct++
		}
	}
	accuracy := float64(correct) / n

	m.mu.Lock()
	m.weights = weights
	m.bias = bias
	m.means = means
	m.stds = stds
	m.trained = true
	m.version = fmt.Sprintf("logistic-n%d", len(rows))
	m.mu.Unlock()

	return Metrics{
		Accuracy:        accuracy,
		TrainingSamples: len(rows),
		PositiveSamples: positives,
		Version:         m.Version(),
	}, nil
}

// Version identifies the currently loaded model revision.
func (m *LogisticModel) Version() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// standardize maps a raw feature vector through the stored training
// statistics. Caller holds at least a read lock.
func (m *LogisticModel) standardize(features []float64) []float64 {
	z := make([]float64, len(features))
	for i, v := range features {
		z[i] = (v - m.means[i]) / m.stds[i]
	}
	return z
}

// columnStats computes per-feature mean and standard deviation across
// rows. Zero-variance columns get std 1 so standardisation never divides
// by zero.
func columnStats(rows []TrainingRow, dim int) (means, stds []float64) {
	means = make([]float64, dim)
	stds = make([]float64, dim)
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, r := range rows {
			col[i] = r.Features[j]
		}
		means[j] = stat.Mean(col, nil)
		s := stat.StdDev(col, nil)
		if s == 0 || math.IsNaN(s) {
			s = 1
		}
		stds[j] = s
	}
	return means, stds
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
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
