package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/plantpulse/plantpulse/internal/model"
)

// Memory is a thread-safe in-memory Store. Telemetry is bounded by a
// retention window; a background goroutine (Run) periodically evicts
// readings older than the window. Everything else is retained for the
// process lifetime.
type Memory struct {
	mu sync.RWMutex

	equipment   map[string]model.Equipment
	telemetry   map[string][]model.TelemetryReading // ordered by timestamp
	technicians map[string]model.Technician
	incidents   map[string]model.Incident
	assignments map[string][]model.Assignment // by incident, newest last
	audit       map[string][]model.AuditEvent // by entity
	performance map[string][]model.PerformanceRecord

	retention time.Duration
	now       func() time.Time // injectable for deterministic tests
}

// NewMemory creates a Memory store that keeps telemetry for retention.
func NewMemory(retention time.Duration) *Memory {
	return &Memory{
		equipment:   make(map[string]model.Equipment),
		telemetry:   make(map[string][]model.TelemetryReading),
		technicians: make(map[string]model.Technician),
		incidents:   make(map[string]model.Incident),
		assignments: make(map[string][]model.Assignment),
		audit:       make(map[string][]model.AuditEvent),
		performance: make(map[string][]model.PerformanceRecord),
		retention:   retention,
		now:         time.Now,
	}
}

// PutEquipment stores or replaces an equipment record.
func (m *Memory) PutEquipment(eq model.Equipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equipment[eq.ID] = eq
}

// Equipment returns the equipment with the given ID.
func (m *Memory) Equipment(id string) (model.Equipment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eq, ok := m.equipment[id]
	if !ok {
		return model.Equipment{}, fmt.Errorf("equipment %s: %w", id, ErrNotFound)
	}
	return eq, nil
}

// ListEquipment returns all equipment records, retired ones included,
// sorted by ID.
func (m *Memory) ListEquipment() []model.Equipment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Equipment, 0, len(m.equipment))
	for _, eq := range m.equipment {
		out = append(out, eq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AppendReading records one telemetry reading. Readings are kept in
// timestamp order per equipment; out-of-order arrivals are inserted at
// the right position.
func (m *Memory) AppendReading(r model.TelemetryReading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	series := m.telemetry[r.EquipmentID]
	if n := len(series); n > 0 && r.Timestamp.Before(series[n-1].Timestamp) {
		i := sort.Search(n, func(i int) bool { return series[i].Timestamp.After(r.Timestamp) })
		series = append(series, model.TelemetryReading{})
		copy(series[i+1:], series[i:])
		series[i] = r
	} else {
		series = append(series, r)
	}
	m.telemetry[r.EquipmentID] = series
}

// Readings returns the readings for one equipment within [from, to],
// ordered by timestamp.
func (m *Memory) Readings(equipmentID string, from, to time.Time) []model.TelemetryReading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.TelemetryReading
	for _, r := range m.telemetry[equipmentID] {
		if r.Timestamp.Before(from) || r.Timestamp.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// PutTechnician stores or replaces a technician record.
func (m *Memory) PutTechnician(t model.Technician) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.technicians[t.ID] = t
}

// Technician returns the technician with the given ID.
func (m *Memory) Technician(id string) (model.Technician, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.technicians[id]
	if !ok {
		return model.Technician{}, fmt.Errorf("technician %s: %w", id, ErrNotFound)
	}
	return t, nil
}

// Technicians returns the technicians matching the filter, sorted by ID.
func (m *Memory) Technicians(f TechnicianFilter) []model.Technician {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Technician, 0, len(m.technicians))
	for _, t := range m.technicians {
		if f.Availability != "" && t.Availability != f.Availability {
			continue
		}
		if f.Specialty != "" && t.Specialty != f.Specialty {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ApplyWorkloadDelta adjusts a technician's workload counter atomically.
// Counters never go below zero.
func (m *Memory) ApplyWorkloadDelta(d model.WorkloadDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.technicians[d.TechnicianID]
	if !ok {
		return fmt.Errorf("workload delta for technician %s: %w", d.TechnicianID, ErrNotFound)
	}
	t.CurrentWorkload += d.Delta
	if t.CurrentWorkload < 0 {
		t.CurrentWorkload = 0
	}
	m.technicians[d.TechnicianID] = t
	return nil
}

// CreateIncident stores a new incident. Duplicate IDs are rejected.
func (m *Memory) CreateIncident(in model.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.incidents[in.ID]; exists {
		return fmt.Errorf("incident %s already exists", in.ID)
	}
	m.incidents[in.ID] = in
	return nil
}

// UpdateIncident replaces an existing incident record.
func (m *Memory) UpdateIncident(in model.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.incidents[in.ID]; !exists {
		return fmt.Errorf("incident %s: %w", in.ID, ErrNotFound)
	}
	m.incidents[in.ID] = in
	return nil
}

// Incident returns the incident with the given ID.
func (m *Memory) Incident(id string) (model.Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.incidents[id]
	if !ok {
		return model.Incident{}, fmt.Errorf("incident %s: %w", id, ErrNotFound)
	}
	return in, nil
}

// Incidents returns the incidents matching the filter, sorted by
// creation time then ID for a stable order.
func (m *Memory) Incidents(f IncidentFilter) []model.Incident {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Incident
	for _, in := range m.incidents {
		if f.Status != "" && in.Status != f.Status {
			continue
		}
		if f.EquipmentID != "" && in.EquipmentID != f.EquipmentID {
			continue
		}
		if f.AssignedTo != "" && in.AssignedTo != f.AssignedTo {
			continue
		}
		if f.Escalated != nil && in.Escalated != *f.Escalated {
			continue
		}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CreateAssignment appends a new assignment for its incident and marks
// any previously active assignment superseded, so each incident has at
// most one active assignment.
func (m *Memory) CreateAssignment(a model.Assignment) error {
	if a.IncidentID == "" {
		return fmt.Errorf("assignment %s has no incident", a.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	history := m.assignments[a.IncidentID]
	for i := range history {
		history[i].Superseded = true
	}
	m.assignments[a.IncidentID] = append(history, a)
	return nil
}

// ActiveAssignment returns the current (non-superseded) assignment for
// an incident.
func (m *Memory) ActiveAssignment(incidentID string) (model.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.assignments[incidentID]
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Superseded {
			return history[i], nil
		}
	}
	return model.Assignment{}, fmt.Errorf("active assignment for incident %s: %w", incidentID, ErrNotFound)
}

// AssignmentHistory returns every assignment ever made for an incident,
// oldest first. Historical records are never mutated beyond the
// Superseded flag.
func (m *Memory) AssignmentHistory(incidentID string) []model.Assignment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Assignment(nil), m.assignments[incidentID]...)
}

// AppendAudit records one audit event. The trail is append-only.
func (m *Memory) AppendAudit(ev model.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit[ev.EntityID] = append(m.audit[ev.EntityID], ev)
}

// AuditTrail returns the audit events for an entity in append order.
func (m *Memory) AuditTrail(entityID string) []model.AuditEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.AuditEvent(nil), m.audit[entityID]...)
}

// AppendPerformance records one completed-incident performance record.
func (m *Memory) AppendPerformance(r model.PerformanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performance[r.TechnicianID] = append(m.performance[r.TechnicianID], r)
}

// PerformanceRecords returns a technician's performance history.
func (m *Memory) PerformanceRecords(technicianID string) []model.PerformanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.PerformanceRecord(nil), m.performance[technicianID]...)
}

// EvictTelemetry drops readings older than now minus the retention
// window. It returns the number of readings removed.
func (m *Memory) EvictTelemetry(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-m.retention)
	removed := 0
	for id, series := range m.telemetry {
		i := sort.Search(len(series), func(i int) bool { return series[i].Timestamp.After(cutoff) })
		if i == 0 {
			continue
		}
		removed += i
		if i == len(series) {
			delete(m.telemetry, id)
			continue
		}
		m.telemetry[id] = append([]model.TelemetryReading(nil), series[i:]...)
	}
	return removed
}

// Run starts the background telemetry eviction loop. It ticks at half
// the retention interval (minimum 1 second) and blocks until ctx is
// cancelled.
func (m *Memory) Run(ctx context.Context) {
	interval := m.retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := m.EvictTelemetry(now); n > 0 {
				slog.Debug("store: evicted expired telemetry", "count", n)
			}
		}
	}
}
