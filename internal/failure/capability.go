package failure

import "errors"

// ErrModelUnavailable is returned when the underlying statistical model
// has not been trained or loaded. The predictor never guesses in that
// state; callers decide whether and how to fall back.
var ErrModelUnavailable = errors.New("failure model unavailable")

// ErrInsufficientData is returned when a prediction is requested with
// no telemetry to build features from.
var ErrInsufficientData = errors.New("insufficient telemetry data")

// TrainingRow is one historical observation used to fit the model.
type TrainingRow struct {
	// Features is a vector produced by BuildFeatures for the equipment
	// at observation time.
	Features []float64

	// Failed records whether the equipment failed within the labelling
	// horizon after the observation.
	Failed bool
}

// Metrics summarises a completed training run.
type Metrics struct {
	Accuracy        float64 `json:"accuracy"`
	TrainingSamples int     `json:"training_samples"`
	PositiveSamples int     `json:"positive_samples"`
	Version         string  `json:"version"`
}

// Model is the pluggable statistical capability behind the predictor.
// Any conforming implementation is acceptable: the contract is "given a
// feature vector, return P(failure) in [0,1]" and "given a feature
// vector, return an anomaly score in [0,1]".
//
// Implementations must be safe for concurrent use: Train may run in a
// background refresh loop while Predict serves sweep traffic.
type Model interface {
	// Predict returns the failure probability for the feature vector.
	// Returns ErrModelUnavailable until a successful Train or load.
	Predict(features []float64) (float64, error)

	// ScoreAnomaly returns an outlier score in [0,1] for the feature
	// vector. Returns ErrModelUnavailable until a successful Train.
	ScoreAnomaly(features []float64) (float64, error)

	// Train fits the model on historical rows and reports metrics.
	Train(rows []TrainingRow) (Metrics, error)

	// Version identifies the currently loaded model revision.
	Version() string
}
