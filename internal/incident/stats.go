package incident

import (
	"github.com/plantpulse/plantpulse/internal/model"
)

// Summary aggregates incident history for fleet reporting.
type Summary struct {
	Total      int                  `json:"total"`
	ByStatus   map[model.Status]int `json:"by_status"`
	ByPriority map[model.Tier]int   `json:"by_priority"`

	// CompletionRate is completed incidents over all terminal and open
	// incidents in the set.
	CompletionRate float64 `json:"completion_rate"`

	// SLACompliance is the fraction of completed incidents that finished
	// on or before their deadline.
	SLACompliance float64 `json:"sla_compliance"`

	// SLAByPriority breaks SLACompliance down per priority tier; tiers
	// with no completed incidents are absent.
	SLAByPriority map[model.Tier]float64 `json:"sla_by_priority,omitempty"`

	AvgResolutionHours float64 `json:"avg_resolution_hours"`
	Escalated          int     `json:"escalated"`
}

// Summarize computes fleet-level incident statistics over the given set.
func Summarize(incidents []model.Incident) Summary {
	s := Summary{
		ByStatus:   make(map[model.Status]int),
		ByPriority: make(map[model.Tier]int),
	}

	completed := 0
	onTime := 0
	completedBy := make(map[model.Tier]int)
	onTimeBy := make(map[model.Tier]int)
	var resolutionHours float64
	for _, in := range incidents {
		s.Total++
		s.ByStatus[in.Status]++
		s.ByPriority[in.Priority]++
		if in.Escalated {
			s.Escalated++
		}
		if in.Status != model.StatusCompleted || in.CompletedAt == nil {
			continue
		}
		completed++
		completedBy[in.Priority]++
		if !in.CompletedAt.After(in.SLADeadline) {
			onTime++
			onTimeBy[in.Priority]++
		}
		resolutionHours += in.CompletedAt.Sub(in.CreatedAt).Hours()
	}

	if s.Total > 0 {
		s.CompletionRate = float64(completed) / float64(s.Total)
	}
	if completed > 0 {
		s.SLACompliance = float64(onTime) / float64(completed)
		s.AvgResolutionHours = resolutionHours / float64(completed)
		s.SLAByPriority = make(map[model.Tier]float64, len(completedBy))
		for tier, n := range completedBy {
			s.SLAByPriority[tier] = float64(onTimeBy[tier]) / float64(n)
		}
	}
	return s
}
