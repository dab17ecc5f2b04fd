package model

import "time"

// HealthAssessment is the derived health picture for one equipment unit
// at a point in time. Assessments are ephemeral: they are recomputed
// from telemetry on every sweep, never stored as a source of truth.
type HealthAssessment struct {
	EquipmentID string    `json:"equipment_id"`
	GeneratedAt time.Time `json:"generated_at"`

	// Samples is the number of readings in the analysed window.
	Samples int `json:"samples"`

	AnomalyScore       float64 `json:"anomaly_score"`
	FailureProbability float64 `json:"failure_probability"`
	CriticalityScore   float64 `json:"criticality_score"`
	Tier               Tier    `json:"tier"`

	FailureType   FailureType   `json:"failure_type"`
	TimeToFailure time.Duration `json:"time_to_failure"`

	// ModelAvailable is false when the failure model was not ready;
	// FailureProbability and TimeToFailure are zero in that case.
	ModelAvailable bool `json:"model_available"`

	// Latest holds the most recent value per reported channel.
	Latest map[Channel]float64 `json:"latest,omitempty"`
}
