// Package model defines the domain entities shared across the engine:
// equipment, telemetry readings, technicians, incidents, assignments and
// audit events, together with the closed enumerations (tiers, statuses,
// specialties, channels) used throughout.
package model
