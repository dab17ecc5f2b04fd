package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plantpulse/plantpulse/internal/alerts"
	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/engine"
	"github.com/plantpulse/plantpulse/internal/failure"
	"github.com/plantpulse/plantpulse/internal/ingest"
	"github.com/plantpulse/plantpulse/internal/model"
	"github.com/plantpulse/plantpulse/internal/store"
)

const (
	// anomalyLookback is the telemetry window for the fast anomaly sweep.
	anomalyLookback = 24 * time.Hour

	// predictionLookback is the longer window behind failure prediction.
	predictionLookback = 7 * 24 * time.Hour

	// minTrainingRows gates retraining: below this the model keeps its
	// previous fit.
	minTrainingRows = 10
)

// Refresher is the advisory knowledge refresh hook.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Deps bundles the collaborators behind the standard sweep set.
type Deps struct {
	Config     config.SweepConfig
	Engine     *engine.Engine
	Store      store.Store
	Collectors []*ingest.Collector
	Alerts     *alerts.Engine
	Refresher  Refresher
}

// Tasks builds the standard background activities: telemetry collection,
// anomaly sweep, failure-prediction sweep, model retrain, advisory
// refresh and SLA escalation. Collaborators left nil simply drop the
// tasks that need them.
func Tasks(d Deps) []Task {
	var tasks []Task

	if len(d.Collectors) > 0 {
		tasks = append(tasks, Task{
			Name:     "collect",
			Interval: d.Config.AnomalyInterval,
			Run:      func(ctx context.Context) error { return collectPass(ctx, d.Collectors, d.Store) },
		})
	}
	tasks = append(tasks,
		Task{
			Name:     "anomaly",
			Interval: d.Config.AnomalyInterval,
			Run:      func(ctx context.Context) error { return anomalyPass(ctx, d.Engine, d.Store, d.Alerts) },
		},
		Task{
			Name:     "prediction",
			Interval: d.Config.PredictionInterval,
			Run:      func(ctx context.Context) error { return predictionPass(ctx, d.Engine, d.Store) },
		},
		Task{
			Name:     "retrain",
			Interval: d.Config.RetrainInterval,
			Run:      func(ctx context.Context) error { return retrainPass(ctx, d.Engine, d.Store) },
		},
		Task{
			Name:     "escalation",
			Interval: d.Config.EscalationInterval,
			Run: func(ctx context.Context) error {
				_, err := d.Engine.EscalateOverdue(ctx)
				return err
			},
		},
	)
	if d.Refresher != nil {
		tasks = append(tasks, Task{
			Name:     "advisory",
			Interval: d.Config.AdvisoryInterval,
			Run:      d.Refresher.Refresh,
		})
	}
	return tasks
}

// collectPass polls every sensor source once. Individual source failures
// are collected, not fatal: the healthy sources still deliver.
func collectPass(ctx context.Context, collectors []*ingest.Collector, st store.Store) error {
	var errs []error
	for _, c := range collectors {
		reading, err := c.Collect(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		st.AppendReading(reading)
	}
	return errors.Join(errs...)
}

// anomalyPass reassesses the whole fleet over the short window and feeds
// the alert rule engine.
func anomalyPass(ctx context.Context, e *engine.Engine, st store.Store, al *alerts.Engine) error {
	var errs []error
	for _, eq := range st.ListEquipment() {
		if eq.Retired {
			continue
		}
		assessment, err := e.AssessEquipment(ctx, eq.ID, anomalyLookback)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if al != nil {
			al.Evaluate(assessment.HealthAssessment)
		}
	}
	return errors.Join(errs...)
}

// predictionPass runs the long-window failure assessment and opens an
// incident for any critical equipment that does not already have one.
func predictionPass(ctx context.Context, e *engine.Engine, st store.Store) error {
	var errs []error
	for _, eq := range st.ListEquipment() {
		if eq.Retired {
			continue
		}
		assessment, err := e.AssessEquipment(ctx, eq.ID, predictionLookback)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !assessment.ModelAvailable || assessment.Tier != model.TierCritical {
			continue
		}
		if hasOpenIncident(st, eq.ID) {
			continue
		}

		res, err := e.OpenIncident(ctx, engine.OpenParams{
			Title: fmt.Sprintf("Predicted %s on %s", assessment.FailureType, eq.Name),
			Description: fmt.Sprintf(
				"Failure probability %.2f, estimated time to failure %s.",
				assessment.FailureProbability, assessment.TimeToFailure),
			EquipmentID: eq.ID,
			Priority:    model.TierCritical,
			CreatedBy:   "system",
			AutoAssign:  true,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("auto-open for %s: %w", eq.ID, err))
			continue
		}
		slog.Info("sweep: predictive incident opened",
			"equipment_id", eq.ID,
			"incident_id", res.Incident.ID,
			"failure_probability", assessment.FailureProbability,
		)
	}
	return errors.Join(errs...)
}

func hasOpenIncident(st store.Store, equipmentID string) bool {
	for _, status := range []model.Status{model.StatusPending, model.StatusInProgress} {
		if len(st.Incidents(store.IncidentFilter{Status: status, EquipmentID: equipmentID})) > 0 {
			return true
		}
	}
	return false
}

// retrainPass refits the failure model on labelled history: equipment
// windows that ended in an incident are positives, quiet windows are
// negatives.
func retrainPass(ctx context.Context, e *engine.Engine, st store.Store) error {
	rows := trainingRows(st)
	if len(rows) < minTrainingRows {
		slog.Debug("sweep: too little history to retrain", "rows", len(rows))
		return nil
	}
	metrics, err := e.Predictor().Model().Train(rows)
	if err != nil {
		return fmt.Errorf("retrain: %w", err)
	}
	slog.Info("sweep: model retrained",
		"version", metrics.Version,
		"samples", metrics.TrainingSamples,
		"positives", metrics.PositiveSamples,
		"accuracy", metrics.Accuracy,
	)
	return nil
}

// trainingRows labels each equipment's recent window by whether an
// incident was opened against it in that window.
func trainingRows(st store.Store) []failure.TrainingRow {
	now := time.Now()
	var rows []failure.TrainingRow
	for _, eq := range st.ListEquipment() {
		readings := st.Readings(eq.ID, now.Add(-predictionLookback), now)
		if len(readings) == 0 {
			continue
		}
		failed := len(st.Incidents(store.IncidentFilter{EquipmentID: eq.ID})) > 0
		rows = append(rows, failure.TrainingRow{
			Features: failure.BuildFeatures(eq, readings),
			Failed:   failed,
		})
	}
	return rows
}
