// Package store is the fleet data boundary: equipment, telemetry,
// technicians, incidents, assignments, audit trail and performance
// history. The in-memory implementation serializes all mutations and
// bounds telemetry with a retention window enforced by a background
// eviction loop.
package store
