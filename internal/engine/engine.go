package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plantpulse/plantpulse/internal/advisory"
	"github.com/plantpulse/plantpulse/internal/analyzer"
	"github.com/plantpulse/plantpulse/internal/assign"
	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/criticality"
	"github.com/plantpulse/plantpulse/internal/failure"
	"github.com/plantpulse/plantpulse/internal/incident"
	"github.com/plantpulse/plantpulse/internal/model"
	"github.com/plantpulse/plantpulse/internal/notify"
	"github.com/plantpulse/plantpulse/internal/store"
)

// Engine is the decision-support core: it turns telemetry into health
// assessments and drives the incident lifecycle with auto-assignment
// and escalation. One Engine is constructed per process and passed by
// reference; it holds no hidden globals and no mutable fleet state of
// its own — all records live behind the store boundary.
type Engine struct {
	cfg config.EngineConfig

	store       store.Store
	analyzer    *analyzer.Analyzer
	predictor   *failure.Predictor
	criticality *criticality.Evaluator
	assigner    *assign.Engine
	machine     *incident.Machine
	advisor     *advisory.Service
	dispatcher  notify.Dispatcher

	now func() time.Time
}

// Options bundles the collaborators an Engine needs.
type Options struct {
	Config     config.EngineConfig
	Store      store.Store
	Model      failure.Model
	Advisor    advisory.Advisor
	Dispatcher notify.Dispatcher
}

// New wires an Engine from its collaborators. A nil dispatcher falls
// back to the structured log.
func New(opts Options) *Engine {
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = notify.LogDispatcher{}
	}
	m := opts.Model
	if m == nil {
		m = failure.NewLogisticModel()
	}
	return &Engine{
		cfg:         opts.Config,
		store:       opts.Store,
		analyzer:    analyzer.New(opts.Config.Analyzer),
		predictor:   failure.NewPredictor(m),
		criticality: criticality.New(opts.Config.Criticality),
		assigner:    assign.New(opts.Config.Assignment),
		machine:     incident.NewMachine(opts.Config.SLAHours),
		advisor:     advisory.NewService(opts.Advisor, opts.Config.Advisory),
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// WithClock overrides the engine's time source, for tests. The incident
// machine and assigner share the same source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.machine.WithClock(now)
	e.assigner.WithClock(now)
	return e
}

// Predictor exposes the failure predictor, e.g. for the retrain sweep.
func (e *Engine) Predictor() *failure.Predictor { return e.predictor }

// Assessment is the full analytical picture for one equipment unit.
type Assessment struct {
	model.HealthAssessment

	Analysis   *analyzer.Result    `json:"analysis"`
	Prediction *failure.Prediction `json:"prediction,omitempty"`
}

// AssessEquipment analyses one equipment's recent telemetry window and
// fuses trend, anomaly, failure and criticality signals. A missing
// failure model degrades the assessment (ModelAvailable false, no
// probability) instead of failing it.
func (e *Engine) AssessEquipment(ctx context.Context, equipmentID string, lookback time.Duration) (*Assessment, error) {
	eq, err := e.store.Equipment(equipmentID)
	if err != nil {
		return nil, fmt.Errorf("assess: %w", err)
	}

	now := e.now()
	readings := e.store.Readings(equipmentID, now.Add(-lookback), now)
	analysis := e.analyzer.Analyze(equipmentID, readings)

	a := &Assessment{
		HealthAssessment: model.HealthAssessment{
			EquipmentID:  equipmentID,
			GeneratedAt:  now,
			Samples:      analysis.Samples,
			AnomalyScore: analysis.AnomalyScore,
			Latest:       latestChannelValues(readings),
		},
		Analysis: analysis,
	}

	pred, err := e.predictor.Predict(eq, readings)
	switch {
	case err == nil:
		a.Prediction = pred
		a.ModelAvailable = true
		a.FailureProbability = pred.Probability
		a.FailureType = pred.FailureType
		a.TimeToFailure = pred.TimeToFailure
	case errors.Is(err, failure.ErrModelUnavailable), errors.Is(err, failure.ErrInsufficientData):
		slog.Debug("engine: no failure prediction — assessment degrades to analytics",
			"equipment_id", equipmentID, "reason", err,
		)
		a.FailureType = model.FailureGeneralWear
	default:
		return nil, fmt.Errorf("assess %s: %w", equipmentID, err)
	}

	crit := e.criticality.Evaluate(criticality.Input{
		FailureProbability: a.FailureProbability,
		AnomalyScore:       a.AnomalyScore,
		Equipment:          eq.Criticality,
	})
	a.CriticalityScore = crit.Score
	a.Tier = crit.Tier

	return a, nil
}

// latestChannelValues picks the most recent value per channel from the
// window.
func latestChannelValues(readings []model.TelemetryReading) map[model.Channel]float64 {
	if len(readings) == 0 {
		return nil
	}
	out := make(map[model.Channel]float64)
	for _, r := range readings {
		for ch, v := range r.Channels {
			out[ch] = v
		}
	}
	return out
}
