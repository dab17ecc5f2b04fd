// Package sweep schedules the engine's periodic background work:
// telemetry collection, fleet anomaly and failure-prediction passes,
// model retraining, advisory knowledge refresh and SLA escalation.
// Each activity runs on its own goroutine with error backoff and panic
// isolation, so a broken source or a misbehaving pass cannot take the
// rest of the schedule down.
package sweep
