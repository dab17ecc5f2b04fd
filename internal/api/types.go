package api

import "github.com/plantpulse/plantpulse/internal/model"

// FleetHealthResponse is the payload for GET /api/v1/health.
type FleetHealthResponse struct {
	EquipmentCount  int                `json:"equipment_count"`
	RetiredCount    int                `json:"retired_count"`
	ByCriticality   map[model.Tier]int `json:"by_criticality"`
	OpenIncidents   int                `json:"open_incidents"`
	EscalatedOpen   int                `json:"escalated_open"`
	ActiveAlerts    int                `json:"active_alerts"`
	ModelVersion    string             `json:"model_version"`
	TechnicianCount int                `json:"technician_count"`
}

// RegisterEquipmentRequest is the body for POST /api/v1/equipment.
type RegisterEquipmentRequest struct {
	ID                      string  `json:"id"`
	Name                    string  `json:"name"`
	Type                    string  `json:"type"`
	Location                string  `json:"location"`
	Criticality             string  `json:"criticality"`
	AgeMonths               float64 `json:"age_months"`
	OperatingHours          float64 `json:"operating_hours"`
	MaintenanceIntervalDays int     `json:"maintenance_interval_days"`
}

// RegisterTechnicianRequest is the body for POST /api/v1/technicians.
type RegisterTechnicianRequest struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Specialty       string   `json:"specialty"`
	ExperienceYears float64  `json:"experience_years"`
	SkillLevel      string   `json:"skill_level"`
	Availability    string   `json:"availability"`
	MaxWorkload     int      `json:"max_workload"`
	Location        string   `json:"location"`
	Certifications  []string `json:"certifications"`
}

// OpenIncidentRequest is the body for POST /api/v1/incidents.
type OpenIncidentRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	EquipmentID      string   `json:"equipment_id"`
	Priority         string   `json:"priority,omitempty"`
	EstimatedMinutes int      `json:"estimated_minutes,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	AutoAssign       bool     `json:"auto_assign"`
}

// CompleteIncidentRequest is the body for POST /api/v1/incidents/{id}/complete.
type CompleteIncidentRequest struct {
	ActualMinutes   int    `json:"actual_minutes"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
}

// CancelIncidentRequest is the body for POST /api/v1/incidents/{id}/cancel.
type CancelIncidentRequest struct {
	Reason string `json:"reason"`
}

// ReprioritizeRequest is the body for POST /api/v1/incidents/{id}/reprioritize.
type ReprioritizeRequest struct {
	Priority string `json:"priority"`
}

// EscalateIncidentRequest is the body for POST /api/v1/incidents/{id}/escalate.
type EscalateIncidentRequest struct {
	Reason string `json:"reason,omitempty"`
}

// OpenIncidentResponse is the payload returned by POST /api/v1/incidents.
type OpenIncidentResponse struct {
	Incident        model.Incident    `json:"incident"`
	Assignment      *model.Assignment `json:"assignment,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
