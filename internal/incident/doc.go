// Package incident implements the maintenance incident lifecycle.
//
// The state machine is pending → in_progress → {completed | cancelled},
// with escalation as an orthogonal flag on any non-terminal incident.
// Transitions are guarded: starting work needs an assigned technician,
// completion needs an actual duration and resolution notes, cancelling
// is allowed from pending or in_progress only. A rejected transition
// returns ErrInvalidTransition and leaves the incident untouched.
//
// The machine is pure with respect to storage: each accepted transition
// returns the updated incident plus one audit event, and the caller
// persists both atomically.
package incident
