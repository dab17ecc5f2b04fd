package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plantpulse/plantpulse/internal/advisory"
	"github.com/plantpulse/plantpulse/internal/assign"
	"github.com/plantpulse/plantpulse/internal/incident"
	"github.com/plantpulse/plantpulse/internal/model"
	"github.com/plantpulse/plantpulse/internal/notify"
	"github.com/plantpulse/plantpulse/internal/store"
)

// assessmentLookback is the telemetry window consulted when an incident
// needs a derived priority or failure-type guess.
const assessmentLookback = 7 * 24 * time.Hour

// OpenParams carries the reporter's input for a new incident.
type OpenParams struct {
	Title       string
	Description string
	EquipmentID string

	// Priority is optional; left empty it is derived from the equipment's
	// current criticality assessment.
	Priority model.Tier

	CreatedBy         string
	EstimatedDuration time.Duration
	Tags              []string

	// AutoAssign picks the best available technician immediately. When
	// no technician is eligible the incident stays pending.
	AutoAssign bool
}

// OpenResult is everything produced by opening one incident.
type OpenResult struct {
	Incident model.Incident

	// Assignment is nil when auto-assign was off or found no candidate.
	Assignment *model.Assignment

	// Recommendations is the advisory output, or the fixed fallback list.
	Recommendations []string
}

// OpenIncident creates an incident, optionally auto-assigns it, and
// attaches advisory recommendations. Assignment and advisory are both
// best effort: their failures leave the incident actionable by a human.
func (e *Engine) OpenIncident(ctx context.Context, p OpenParams) (*OpenResult, error) {
	eq, err := e.store.Equipment(p.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("open incident: %w", err)
	}

	failureType := model.FailureGeneralWear
	priority := p.Priority
	if assessment, aerr := e.AssessEquipment(ctx, p.EquipmentID, assessmentLookback); aerr == nil {
		failureType = assessment.FailureType
		if priority == "" {
			priority = assessment.Tier
		}
	} else if priority == "" {
		// No telemetry picture: fall back to the equipment's static tier.
		slog.Warn("engine: assessment failed during incident creation",
			"equipment_id", p.EquipmentID,
			"err", aerr,
		)
		priority = eq.Criticality
	}

	in, ev, err := e.machine.Create(incident.CreateParams{
		Title:             p.Title,
		Description:       p.Description,
		EquipmentID:       p.EquipmentID,
		Location:          eq.Location,
		Priority:          priority,
		CreatedBy:         p.CreatedBy,
		EstimatedDuration: p.EstimatedDuration,
		Tags:              p.Tags,
	})
	if err != nil {
		return nil, fmt.Errorf("open incident: %w", err)
	}
	if err := e.store.CreateIncident(in); err != nil {
		return nil, fmt.Errorf("open incident: %w", err)
	}
	e.store.AppendAudit(ev)

	res := &OpenResult{Incident: in}

	if p.AutoAssign {
		assigned, aerr := e.autoAssign(in, eq.Type, failureType, p.CreatedBy)
		switch {
		case aerr == nil:
			res.Incident = assigned.incident
			res.Assignment = &assigned.assignment
		case errors.Is(aerr, assign.ErrNoEligibleCandidate):
			slog.Warn("engine: no eligible technician — incident stays pending",
				"incident_id", in.ID,
				"priority", in.Priority,
			)
		default:
			return nil, fmt.Errorf("open incident %s: %w", in.ID, aerr)
		}
	}

	res.Recommendations = e.advisor.Recommendations(ctx, advisory.Query{
		Text:        p.Title + ". " + p.Description,
		EquipmentID: p.EquipmentID,
	})

	e.notifyIncident(ctx, res.Incident, "incident opened")
	return res, nil
}

type assignOutcome struct {
	incident   model.Incident
	assignment model.Assignment
}

// autoAssign runs the scoring engine for in and persists the decision:
// assignment record, incident update, workload delta and audit event.
func (e *Engine) autoAssign(in model.Incident, equipmentType string, failureType model.FailureType, actor string) (*assignOutcome, error) {
	req := assign.Request{
		IncidentID:        in.ID,
		Priority:          in.Priority,
		Location:          in.Location,
		RequiredSpecialty: assign.RequiredSpecialty(failureType, equipmentType),
	}
	pool := e.store.Technicians(store.TechnicianFilter{Availability: model.Available})

	decision, err := e.assigner.Assign(req, pool)
	if err != nil {
		return nil, err
	}

	updated, ev, err := e.machine.Assign(in, decision.Assignment.TechnicianID, actor)
	if err != nil {
		return nil, err
	}
	if err := e.store.CreateAssignment(decision.Assignment); err != nil {
		return nil, fmt.Errorf("persist assignment: %w", err)
	}
	if err := e.store.UpdateIncident(updated); err != nil {
		return nil, fmt.Errorf("persist incident: %w", err)
	}
	e.store.AppendAudit(ev)
	if err := e.store.ApplyWorkloadDelta(decision.Workload); err != nil {
		slog.Error("engine: workload delta failed",
			"technician_id", decision.Workload.TechnicianID,
			"err", err,
		)
	}
	return &assignOutcome{incident: updated, assignment: decision.Assignment}, nil
}

// Reassign supersedes the current assignment with a fresh scoring run,
// releasing the previous technician's workload slot.
func (e *Engine) Reassign(ctx context.Context, incidentID, actor string) (*model.Assignment, error) {
	in, err := e.store.Incident(incidentID)
	if err != nil {
		return nil, fmt.Errorf("reassign: %w", err)
	}
	if in.Status.Terminal() {
		return nil, fmt.Errorf("reassign incident %s: status %s: %w",
			in.ID, in.Status, incident.ErrInvalidTransition)
	}

	eq, err := e.store.Equipment(in.EquipmentID)
	if err != nil {
		return nil, fmt.Errorf("reassign: %w", err)
	}

	failureType := model.FailureGeneralWear
	if assessment, aerr := e.AssessEquipment(ctx, in.EquipmentID, assessmentLookback); aerr == nil {
		failureType = assessment.FailureType
	}

	previous := in.AssignedTo
	outcome, err := e.autoAssign(in, eq.Type, failureType, actor)
	if err != nil {
		return nil, fmt.Errorf("reassign incident %s: %w", in.ID, err)
	}
	// autoAssign charged the winner a slot, so the previous holder is
	// always released — even when the scoring run re-picks the same
	// technician, whose counter would otherwise creep up per reassign.
	if previous != "" {
		if err := e.store.ApplyWorkloadDelta(model.WorkloadDelta{TechnicianID: previous, Delta: -1}); err != nil {
			slog.Error("engine: workload release failed", "technician_id", previous, "err", err)
		}
	}
	return &outcome.assignment, nil
}

// StartWork moves an incident to in_progress.
func (e *Engine) StartWork(ctx context.Context, incidentID, actor string) (model.Incident, error) {
	in, err := e.store.Incident(incidentID)
	if err != nil {
		return model.Incident{}, fmt.Errorf("start work: %w", err)
	}
	updated, ev, err := e.machine.Start(in, actor)
	if err != nil {
		return model.Incident{}, err
	}
	if err := e.store.UpdateIncident(updated); err != nil {
		return model.Incident{}, fmt.Errorf("start work: %w", err)
	}
	e.store.AppendAudit(ev)
	return updated, nil
}

// Reprioritize changes an open incident's priority. The SLA deadline is
// part of the creation contract and stays where it was.
func (e *Engine) Reprioritize(ctx context.Context, incidentID string, priority model.Tier, actor string) (model.Incident, error) {
	in, err := e.store.Incident(incidentID)
	if err != nil {
		return model.Incident{}, fmt.Errorf("reprioritize: %w", err)
	}
	updated, ev, err := e.machine.Reprioritize(in, priority, actor)
	if err != nil {
		return model.Incident{}, err
	}
	if err := e.store.UpdateIncident(updated); err != nil {
		return model.Incident{}, fmt.Errorf("reprioritize: %w", err)
	}
	e.store.AppendAudit(ev)
	return updated, nil
}

// CompleteIncident finishes an in-progress incident, records the
// technician's performance and releases their workload slot.
func (e *Engine) CompleteIncident(ctx context.Context, incidentID string, actual time.Duration, notes, actor string) (model.Incident, error) {
	in, err := e.store.Incident(incidentID)
	if err != nil {
		return model.Incident{}, fmt.Errorf("complete: %w", err)
	}
	updated, ev, record, err := e.machine.Complete(in, actual, notes, actor)
	if err != nil {
		return model.Incident{}, err
	}
	if err := e.store.UpdateIncident(updated); err != nil {
		return model.Incident{}, fmt.Errorf("complete: %w", err)
	}
	e.store.AppendAudit(ev)
	e.store.AppendPerformance(record)
	if updated.AssignedTo != "" {
		if err := e.store.ApplyWorkloadDelta(model.WorkloadDelta{TechnicianID: updated.AssignedTo, Delta: -1}); err != nil {
			slog.Error("engine: workload release failed", "technician_id", updated.AssignedTo, "err", err)
		}
	}
	return updated, nil
}

// CancelIncident terminates a pending or in-progress incident and
// releases the assigned technician, if any.
func (e *Engine) CancelIncident(ctx context.Context, incidentID, reason, actor string) (model.Incident, error) {
	in, err := e.store.Incident(incidentID)
	if err != nil {
		return model.Incident{}, fmt.Errorf("cancel: %w", err)
	}
	updated, ev, err := e.machine.Cancel(in, reason, actor)
	if err != nil {
		return model.Incident{}, err
	}
	if err := e.store.UpdateIncident(updated); err != nil {
		return model.Incident{}, fmt.Errorf("cancel: %w", err)
	}
	e.store.AppendAudit(ev)
	if updated.AssignedTo != "" {
		if err := e.store.ApplyWorkloadDelta(model.WorkloadDelta{TechnicianID: updated.AssignedTo, Delta: -1}); err != nil {
			slog.Error("engine: workload release failed", "technician_id", updated.AssignedTo, "err", err)
		}
	}
	return updated, nil
}

// Escalate raises one incident's escalation flag on a supervisor's say,
// ahead of any SLA breach. The deadline itself is untouched.
func (e *Engine) Escalate(ctx context.Context, incidentID, reason, actor string) (model.Incident, error) {
	in, err := e.store.Incident(incidentID)
	if err != nil {
		return model.Incident{}, fmt.Errorf("escalate: %w", err)
	}
	if reason == "" {
		reason = "escalated by " + actor
	}
	updated, ev, err := e.machine.Escalate(in, reason, actor)
	if err != nil {
		return model.Incident{}, err
	}
	if err := e.store.UpdateIncident(updated); err != nil {
		return model.Incident{}, fmt.Errorf("escalate: %w", err)
	}
	e.store.AppendAudit(ev)
	e.notifyIncident(ctx, updated, reason)
	return updated, nil
}

// EscalateOverdue scans open incidents and escalates every one whose
// SLA deadline has passed. Escalation raises visibility only: it never
// changes status and never moves the deadline. Returns the number of
// incidents escalated.
func (e *Engine) EscalateOverdue(ctx context.Context) (int, error) {
	escalated := 0
	for _, status := range []model.Status{model.StatusPending, model.StatusInProgress} {
		for _, in := range e.store.Incidents(store.IncidentFilter{Status: status}) {
			if !e.machine.Overdue(in) {
				continue
			}
			updated, ev, err := e.machine.Escalate(in, "sla deadline breached", "system")
			if err != nil {
				slog.Error("engine: escalation failed", "incident_id", in.ID, "err", err)
				continue
			}
			if err := e.store.UpdateIncident(updated); err != nil {
				slog.Error("engine: escalation persist failed", "incident_id", in.ID, "err", err)
				continue
			}
			e.store.AppendAudit(ev)
			escalated++

			e.notifyIncident(ctx, updated, "sla deadline breached")
		}
	}
	return escalated, nil
}

// notifyIncident pushes an incident event to the configured channels.
// Best effort: delivery status is logged by the dispatcher.
func (e *Engine) notifyIncident(ctx context.Context, in model.Incident, message string) {
	e.dispatcher.Dispatch(ctx, notify.Notification{
		Severity:   in.Priority,
		Title:      fmt.Sprintf("%s: %s", in.Number, in.Title),
		Message:    message,
		Recipients: e.cfg.Notify.Recipients.For(in.Priority),
		Context: map[string]string{
			"incident_id":  in.ID,
			"equipment_id": in.EquipmentID,
			"status":       string(in.Status),
			"sla_deadline": in.SLADeadline.Format(time.RFC3339),
		},
	})
}
