package assign

import "github.com/plantpulse/plantpulse/internal/model"

// Workload bands, by utilisation of the technician's max workload.
const (
	BandLow        = "low"
	BandMedium     = "medium"
	BandHigh       = "high"
	BandOverloaded = "overloaded"
)

// TechnicianWorkload is one technician's row in a WorkloadSummary.
type TechnicianWorkload struct {
	TechnicianID string  `json:"technician_id"`
	Name         string  `json:"name"`
	Current      int     `json:"current_workload"`
	Max          int     `json:"max_workload"`
	Utilisation  float64 `json:"utilisation"`
	Band         string  `json:"band"`
}

// WorkloadSummary aggregates the staff pool's load picture.
type WorkloadSummary struct {
	Technicians []TechnicianWorkload `json:"technicians"`
	ByBand      map[string]int       `json:"by_band"`

	// AvgUtilisation is the mean utilisation across the pool.
	AvgUtilisation float64 `json:"avg_utilisation"`
}

// WorkloadBand maps utilisation to a band: >=1 overloaded, >=0.75 high,
// >=0.4 medium, else low.
func WorkloadBand(utilisation float64) string {
	switch {
	case utilisation >= 1:
		return BandOverloaded
	case utilisation >= 0.75:
		return BandHigh
	case utilisation >= 0.4:
		return BandMedium
	default:
		return BandLow
	}
}

// SummarizeWorkload builds the load picture for a technician pool. A
// technician with no configured max counts as overloaded as soon as
// any work is assigned.
func SummarizeWorkload(pool []model.Technician) WorkloadSummary {
	s := WorkloadSummary{
		Technicians: make([]TechnicianWorkload, 0, len(pool)),
		ByBand:      make(map[string]int),
	}

	var total float64
	for _, t := range pool {
		var u float64
		switch {
		case t.MaxWorkload > 0:
			u = float64(t.CurrentWorkload) / float64(t.MaxWorkload)
		case t.CurrentWorkload > 0:
			u = 1
		}
		row := TechnicianWorkload{
			TechnicianID: t.ID,
			Name:         t.Name,
			Current:      t.CurrentWorkload,
			Max:          t.MaxWorkload,
			Utilisation:  u,
			Band:         WorkloadBand(u),
		}
		s.Technicians = append(s.Technicians, row)
		s.ByBand[row.Band]++
		total += u
	}
	if len(pool) > 0 {
		s.AvgUtilisation = total / float64(len(pool))
	}
	return s
}
