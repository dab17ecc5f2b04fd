package store

import (
	"errors"
	"time"

	"github.com/plantpulse/plantpulse/internal/model"
)

// ErrNotFound is returned when a lookup names an entity the store does
// not hold.
var ErrNotFound = errors.New("not found")

// TechnicianFilter narrows a technician pool query. Zero values match
// everything.
type TechnicianFilter struct {
	Availability model.Availability
	Specialty    model.Specialty
}

// IncidentFilter narrows an incident history query. Zero values match
// everything.
type IncidentFilter struct {
	Status      model.Status
	EquipmentID string
	AssignedTo  string
	Escalated   *bool
}

// Store is the fleet data boundary the engine reads from and writes to.
// Implementations serialize all mutations; in particular workload
// counters are only ever changed through ApplyWorkloadDelta.
type Store interface {
	PutEquipment(eq model.Equipment)
	Equipment(id string) (model.Equipment, error)
	ListEquipment() []model.Equipment

	AppendReading(r model.TelemetryReading)
	Readings(equipmentID string, from, to time.Time) []model.TelemetryReading

	PutTechnician(t model.Technician)
	Technician(id string) (model.Technician, error)
	Technicians(f TechnicianFilter) []model.Technician
	ApplyWorkloadDelta(d model.WorkloadDelta) error

	CreateIncident(in model.Incident) error
	UpdateIncident(in model.Incident) error
	Incident(id string) (model.Incident, error)
	Incidents(f IncidentFilter) []model.Incident

	CreateAssignment(a model.Assignment) error
	ActiveAssignment(incidentID string) (model.Assignment, error)
	AssignmentHistory(incidentID string) []model.Assignment

	AppendAudit(ev model.AuditEvent)
	AuditTrail(entityID string) []model.AuditEvent

	AppendPerformance(r model.PerformanceRecord)
	PerformanceRecords(technicianID string) []model.PerformanceRecord
}
