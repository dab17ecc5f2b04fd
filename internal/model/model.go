package model

import "time"

// Equipment is one monitored unit in the fleet. Records are created at
// provisioning and never deleted; retirement flips Retired.
type Equipment struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Type                string        `json:"type"`
	Location            string        `json:"location"`
	Criticality         Tier          `json:"criticality"`
	AgeMonths           float64       `json:"age_months"`
	OperatingHours      float64       `json:"operating_hours"`
	MaintenanceInterval time.Duration `json:"maintenance_interval"`
	Retired             bool          `json:"retired"`
}

// TelemetryReading is one timestamped set of sensor channel values for one
// equipment unit. Readings are immutable once recorded and ordered by
// timestamp per equipment. Channels not reported by the sensor are simply
// absent from the map.
type TelemetryReading struct {
	EquipmentID string              `json:"equipment_id"`
	Timestamp   time.Time           `json:"timestamp"`
	Channels    map[Channel]float64 `json:"channels"`
}

// Value returns the reading for ch and whether it was present.
func (r TelemetryReading) Value(ch Channel) (float64, bool) {
	v, ok := r.Channels[ch]
	return v, ok
}

// Performance holds a technician's rolling performance metrics over the
// evaluation window.
type Performance struct {
	// CompletionRate is the fraction of assigned incidents completed, in [0,1].
	CompletionRate float64 `json:"completion_rate"`

	// AvgResolutionHours is the mean time from assignment to completion.
	AvgResolutionHours float64 `json:"avg_resolution_hours"`

	// CriticalResolved counts critical-priority incidents completed.
	CriticalResolved int `json:"critical_resolved"`
}

// Technician is one member of the maintenance staff.
type Technician struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Specialty       Specialty    `json:"specialty"`
	ExperienceYears float64      `json:"experience_years"`
	Skill           SkillLevel   `json:"skill_level"`
	Availability    Availability `json:"availability"`
	CurrentWorkload int          `json:"current_workload"`
	MaxWorkload     int          `json:"max_workload"`
	Location        string       `json:"location"`
	Certifications  []string     `json:"certifications,omitempty"`
	Performance     Performance  `json:"performance"`
}

// Incident is one maintenance incident moving through the lifecycle
// state machine.
type Incident struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	Title       string `json:"title"`
	Description string `json:"description"`
	EquipmentID string `json:"equipment_id"`
	Location    string `json:"location"`

	Priority Tier   `json:"priority"`
	Status   Status `json:"status"`

	// Escalated is an orthogonal flag: it never changes Status and is
	// recorded once per SLA breach or supervisor action.
	Escalated   bool       `json:"escalated"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`

	CreatedBy  string `json:"created_by"`
	AssignedTo string `json:"assigned_to,omitempty"`

	// SLADeadline is fixed at creation and never moves; escalation only
	// raises visibility.
	SLADeadline time.Time `json:"sla_deadline"`

	EstimatedDuration time.Duration `json:"estimated_duration,omitempty"`
	ActualDuration    time.Duration `json:"actual_duration,omitempty"`
	ResolutionNotes   string        `json:"resolution_notes,omitempty"`

	Tags        []string `json:"tags,omitempty"`
	Attachments []string `json:"attachments,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// RankedCandidate is one technician considered during an assignment
// decision, with the score that ranked them.
type RankedCandidate struct {
	TechnicianID string   `json:"technician_id"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons,omitempty"`
}

// Assignment pairs an incident with the technician chosen by the scoring
// algorithm at a point in time. Assignments are never mutated: a
// reassignment supersedes the previous record, which is retained.
type Assignment struct {
	ID           string            `json:"id"`
	IncidentID   string            `json:"incident_id"`
	TechnicianID string            `json:"technician_id"`
	Score        float64           `json:"score"`
	Alternatives []RankedCandidate `json:"alternatives,omitempty"`
	Superseded   bool              `json:"superseded"`
	CreatedAt    time.Time         `json:"created_at"`
}

// AuditEvent is one append-only record of an actor acting on an entity.
// Audit events are never updated or deleted.
type AuditEvent struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// WorkloadDelta is a side-effect instruction emitted by the assignment
// engine and applied atomically by the data store. The engine never
// mutates workload counters directly.
type WorkloadDelta struct {
	TechnicianID string `json:"technician_id"`
	Delta        int    `json:"delta"` // +1 on assignment, -1 on release
}

// PerformanceRecord compares estimated against actual resolution effort
// for a completed incident.
type PerformanceRecord struct {
	IncidentID        string        `json:"incident_id"`
	TechnicianID      string        `json:"technician_id"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	ActualDuration    time.Duration `json:"actual_duration"`

	// Efficiency is min(1, estimated/actual): 1.0 means the work finished
	// at or under the estimate.
	Efficiency  float64   `json:"efficiency"`
	CompletedAt time.Time `json:"completed_at"`
}
