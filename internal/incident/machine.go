package incident

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

// ErrInvalidTransition is returned when a lifecycle guard rejects a
// requested transition. The incident is never partially mutated.
var ErrInvalidTransition = errors.New("invalid incident transition")

// Machine owns the incident lifecycle rules. Every accepted transition
// returns the updated incident together with exactly one audit event;
// callers persist both in one store call so a transition is atomic.
type Machine struct {
	sla config.SLAHours
	now func() time.Time
}

// NewMachine returns a lifecycle machine using the given SLA table.
func NewMachine(sla config.SLAHours) *Machine {
	return &Machine{sla: sla, now: time.Now}
}

// WithClock overrides the machine's time source, for tests.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// CreateParams carries the reporter-supplied fields for a new incident.
type CreateParams struct {
	Title       string
	Description string
	EquipmentID string
	Location    string

	// Priority as reported; when empty the caller derives one from the
	// criticality evaluator before calling Create.
	Priority model.Tier

	CreatedBy         string
	EstimatedDuration time.Duration
	Tags              []string
}

// Create builds a new pending incident. The SLA deadline is computed
// once from the priority at creation time and never moves afterwards.
func (m *Machine) Create(p CreateParams) (model.Incident, model.AuditEvent, error) {
	if p.Title == "" {
		return model.Incident{}, model.AuditEvent{}, fmt.Errorf("create incident: title required")
	}
	if p.EquipmentID == "" {
		return model.Incident{}, model.AuditEvent{}, fmt.Errorf("create incident: equipment id required")
	}
	priority := p.Priority
	if priority == "" {
		priority = model.TierMedium
	}

	now := m.now()
	id := uuid.NewString()
	in := model.Incident{
		ID:                id,
		Number:            incidentNumber(now, id),
		Title:             p.Title,
		Description:       p.Description,
		EquipmentID:       p.EquipmentID,
		Location:          p.Location,
		Priority:          priority,
		Status:            model.StatusPending,
		CreatedBy:         p.CreatedBy,
		SLADeadline:       m.sla.Deadline(priority, now),
		EstimatedDuration: p.EstimatedDuration,
		Tags:              p.Tags,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return in, m.audit(p.CreatedBy, "incident.created", in.ID,
		fmt.Sprintf("priority %s, sla %s", priority, in.SLADeadline.Format(time.RFC3339))), nil
}

// Assign records the chosen technician on a pending or in-progress
// incident. Assignment alone does not start work.
func (m *Machine) Assign(in model.Incident, technicianID, actor string) (model.Incident, model.AuditEvent, error) {
	if in.Status.Terminal() {
		return in, model.AuditEvent{}, m.reject(in, "assign on terminal status")
	}
	if technicianID == "" {
		return in, model.AuditEvent{}, m.reject(in, "assign without technician")
	}
	in.AssignedTo = technicianID
	in.UpdatedAt = m.now()
	return in, m.audit(actor, "incident.assigned", in.ID, "technician "+technicianID), nil
}

// Start moves a pending incident to in_progress. A non-empty assigned
// technician is required.
func (m *Machine) Start(in model.Incident, actor string) (model.Incident, model.AuditEvent, error) {
	if in.Status != model.StatusPending {
		return in, model.AuditEvent{}, m.reject(in, "start from "+string(in.Status))
	}
	if in.AssignedTo == "" {
		return in, model.AuditEvent{}, m.reject(in, "start without assigned technician")
	}
	in.Status = model.StatusInProgress
	in.UpdatedAt = m.now()
	return in, m.audit(actor, "incident.started", in.ID, "technician "+in.AssignedTo), nil
}

// Complete finishes an in-progress incident. Actual duration and
// resolution notes are mandatory; the returned PerformanceRecord
// compares estimated against actual effort.
func (m *Machine) Complete(in model.Incident, actual time.Duration, notes, actor string) (model.Incident, model.AuditEvent, model.PerformanceRecord, error) {
	if in.Status != model.StatusInProgress {
		return in, model.AuditEvent{}, model.PerformanceRecord{}, m.reject(in, "complete from "+string(in.Status))
	}
	if actual <= 0 {
		return in, model.AuditEvent{}, model.PerformanceRecord{}, m.reject(in, "complete without actual duration")
	}
	if strings.TrimSpace(notes) == "" {
		return in, model.AuditEvent{}, model.PerformanceRecord{}, m.reject(in, "complete without resolution notes")
	}

	now := m.now()
	in.Status = model.StatusCompleted
	in.ActualDuration = actual
	in.ResolutionNotes = notes
	in.UpdatedAt = now
	in.CompletedAt = &now

	record := model.PerformanceRecord{
		IncidentID:        in.ID,
		TechnicianID:      in.AssignedTo,
		EstimatedDuration: in.EstimatedDuration,
		ActualDuration:    actual,
		Efficiency:        Efficiency(in.EstimatedDuration, actual),
		CompletedAt:       now,
	}
	return in, m.audit(actor, "incident.completed", in.ID,
		fmt.Sprintf("actual %s, efficiency %.2f", actual, record.Efficiency)), record, nil
}

// Cancel terminates a pending or in-progress incident.
func (m *Machine) Cancel(in model.Incident, reason, actor string) (model.Incident, model.AuditEvent, error) {
	if in.Status != model.StatusPending && in.Status != model.StatusInProgress {
		return in, model.AuditEvent{}, m.reject(in, "cancel from "+string(in.Status))
	}
	in.Status = model.StatusCancelled
	in.UpdatedAt = m.now()
	return in, m.audit(actor, "incident.cancelled", in.ID, reason), nil
}

// Reprioritize changes the priority of a non-terminal incident. The SLA
// deadline was fixed at creation from the original priority and does
// not move.
func (m *Machine) Reprioritize(in model.Incident, priority model.Tier, actor string) (model.Incident, model.AuditEvent, error) {
	if in.Status.Terminal() {
		return in, model.AuditEvent{}, m.reject(in, "reprioritize on terminal status")
	}
	if _, err := model.ParseTier(string(priority)); err != nil {
		return in, model.AuditEvent{}, m.reject(in, err.Error())
	}
	old := in.Priority
	in.Priority = priority
	in.UpdatedAt = m.now()
	return in, m.audit(actor, "incident.reprioritized", in.ID,
		fmt.Sprintf("%s -> %s", old, priority)), nil
}

// Escalate raises the escalation flag on a non-terminal incident. The
// flag is orthogonal to status and recorded once per breach; escalating
// an already escalated incident is rejected. The SLA deadline is never
// touched.
func (m *Machine) Escalate(in model.Incident, reason, actor string) (model.Incident, model.AuditEvent, error) {
	if in.Status.Terminal() {
		return in, model.AuditEvent{}, m.reject(in, "escalate on terminal status")
	}
	if in.Escalated {
		return in, model.AuditEvent{}, m.reject(in, "already escalated")
	}
	now := m.now()
	in.Escalated = true
	in.EscalatedAt = &now
	in.UpdatedAt = now
	return in, m.audit(actor, "incident.escalated", in.ID, reason), nil
}

// Overdue reports whether the incident has breached its SLA deadline
// and still needs escalation.
func (m *Machine) Overdue(in model.Incident) bool {
	return !in.Status.Terminal() && !in.Escalated && m.now().After(in.SLADeadline)
}

// Efficiency is min(1, estimated/actual). Unknown estimates or actuals
// score zero rather than inventing a ratio.
func Efficiency(estimated, actual time.Duration) float64 {
	if estimated <= 0 || actual <= 0 {
		return 0
	}
	eff := float64(estimated) / float64(actual)
	if eff > 1 {
		return 1
	}
	return eff
}

func (m *Machine) reject(in model.Incident, detail string) error {
	return fmt.Errorf("incident %s: %s: %w", in.ID, detail, ErrInvalidTransition)
}

func (m *Machine) audit(actor, action, incidentID, detail string) model.AuditEvent {
	return model.AuditEvent{
		ID:         uuid.NewString(),
		Actor:      actor,
		Action:     action,
		EntityKind: "incident",
		EntityID:   incidentID,
		Detail:     detail,
		Timestamp:  m.now(),
	}
}

// incidentNumber builds the human-facing ticket number from the creation
// date and the first ID segment.
func incidentNumber(now time.Time, id string) string {
	return fmt.Sprintf("INC-%s-%s", now.Format("20060102"), strings.ToUpper(id[:8]))
}
