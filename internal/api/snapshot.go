package api

import (
	"time"

	"github.com/plantpulse/plantpulse/internal/alerts"
	"github.com/plantpulse/plantpulse/internal/incident"
	"github.com/plantpulse/plantpulse/internal/model"
	"github.com/plantpulse/plantpulse/internal/store"
)

// EquipmentStatus is one fleet unit's row in a Snapshot.
type EquipmentStatus struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          string     `json:"type"`
	Location      string     `json:"location"`
	Criticality   model.Tier `json:"criticality"`
	OpenIncidents int        `json:"open_incidents"`
	LastReading   string     `json:"last_reading,omitempty"` // RFC3339
}

// Snapshot is the payload for GET /api/v1/snapshot and the WebSocket
// broadcast envelope.
type Snapshot struct {
	Fleet        []EquipmentStatus `json:"fleet"`
	Incidents    incident.Summary  `json:"incidents"`
	ActiveAlerts []*alerts.Alert   `json:"active_alerts"`
	GeneratedAt  string            `json:"generated_at"` // RFC3339
}

// BuildSnapshot assembles the current fleet view from the store. al may
// be nil.
func BuildSnapshot(st store.Store, al *alerts.Engine) Snapshot {
	now := time.Now()
	open := make(map[string]int)
	for _, status := range []model.Status{model.StatusPending, model.StatusInProgress} {
		for _, in := range st.Incidents(store.IncidentFilter{Status: status}) {
			open[in.EquipmentID]++
		}
	}

	equipment := st.ListEquipment()
	fleet := make([]EquipmentStatus, 0, len(equipment))
	for _, eq := range equipment {
		if eq.Retired {
			continue
		}
		row := EquipmentStatus{
			ID:            eq.ID,
			Name:          eq.Name,
			Type:          eq.Type,
			Location:      eq.Location,
			Criticality:   eq.Criticality,
			OpenIncidents: open[eq.ID],
		}
		if readings := st.Readings(eq.ID, now.Add(-24*time.Hour), now); len(readings) > 0 {
			row.LastReading = readings[len(readings)-1].Timestamp.UTC().Format(time.RFC3339)
		}
		fleet = append(fleet, row)
	}

	snap := Snapshot{
		Fleet:        fleet,
		Incidents:    incident.Summarize(st.Incidents(store.IncidentFilter{})),
		ActiveAlerts: []*alerts.Alert{},
		GeneratedAt:  now.UTC().Format(time.RFC3339),
	}
	if al != nil {
		snap.ActiveAlerts = al.Active()
	}
	return snap
}
