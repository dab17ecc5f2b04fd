// Package engine is the decision-support core for fleet maintenance.
// It fuses the telemetry analyzer, failure predictor and criticality
// evaluator into equipment health assessments, and drives the incident
// lifecycle: creation with derived priority, technician auto-assignment,
// guarded transitions, SLA escalation and advisory enrichment.
//
// The engine holds no fleet state of its own. All records cross the
// store boundary, workload counters are only changed through delta
// instructions, and notification and advisory failures degrade rather
// than propagate.
package engine
