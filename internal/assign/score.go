package assign

import (
	"fmt"
	"strings"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

// Request carries the incident attributes the scorer needs. It is a
// value type so scoring stays pure and testable without a full Incident.
type Request struct {
	IncidentID string
	Priority   model.Tier
	Location   string

	// RequiredSpecialty comes from the failure-type and equipment-type
	// keyword mapping, SpecialtyOther when nothing matched.
	RequiredSpecialty model.Specialty
}

// Breakdown exposes the normalised factor values behind a total score.
type Breakdown struct {
	Specialty   float64
	Experience  float64
	Workload    float64
	Location    float64
	Performance float64
	Total       float64
}

// Scorer ranks technicians for an incident with a weighted multi-factor
// score. All factors are normalised to [0,1] before weighting, so the
// total is in [0,1] as long as the configured weights sum to 1.
type Scorer struct {
	cfg config.AssignmentConfig
}

// NewScorer returns a Scorer using the given weights.
func NewScorer(cfg config.AssignmentConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score computes the weighted total for one technician.
func (s *Scorer) Score(req Request, tech model.Technician) Breakdown {
	b := Breakdown{
		Specialty:   specialtyScore(tech.Specialty, req.RequiredSpecialty),
		Experience:  experienceScore(tech, req.Priority),
		Workload:    workloadScore(tech.CurrentWorkload),
		Location:    locationScore(tech.Location, req.Location),
		Performance: performanceScore(tech.Performance),
	}
	b.Total = b.Specialty*s.cfg.WeightSpecialty +
		b.Experience*s.cfg.WeightExperience +
		b.Workload*s.cfg.WeightWorkload +
		b.Location*s.cfg.WeightLocation +
		b.Performance*s.cfg.WeightPerformance
	return b
}

// Reasons renders the breakdown as short human-readable notes for the
// Assignment record.
func (b Breakdown) Reasons() []string {
	return []string{
		fmt.Sprintf("specialty %.2f", b.Specialty),
		fmt.Sprintf("experience %.2f", b.Experience),
		fmt.Sprintf("workload %.2f", b.Workload),
		fmt.Sprintf("location %.2f", b.Location),
		fmt.Sprintf("performance %.2f", b.Performance),
	}
}

// specialtyScore: exact match 1.0, a named trade that merely differs 0.5,
// an untagged technician 0.
func specialtyScore(have, want model.Specialty) float64 {
	switch {
	case have == want:
		return 1.0
	case have != model.SpecialtyOther:
		return 0.5
	default:
		return 0
	}
}

// experienceScore scales capped years of experience by the skill-level
// multiplier and the incident priority multiplier, capped at 1.
func experienceScore(tech model.Technician, priority model.Tier) float64 {
	years := tech.ExperienceYears
	if years > 10 {
		years = 10
	}
	score := (years / 10) * tech.Skill.Multiplier() * priority.PriorityMultiplier()
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// workloadScore is an inverse step function of active incident count.
func workloadScore(active int) float64 {
	switch {
	case active <= 0:
		return 1.0
	case active <= 2:
		return 0.8
	case active <= 4:
		return 0.6
	default:
		return 0.4
	}
}

// locationScore: exact match 1.0, shared token 0.8, anything else 0.6.
// Comparison is case-insensitive.
func locationScore(have, want string) float64 {
	h := strings.ToLower(strings.TrimSpace(have))
	w := strings.ToLower(strings.TrimSpace(want))
	if h == "" || w == "" {
		return 0.6
	}
	if h == w {
		return 1.0
	}
	if strings.Contains(h, w) || strings.Contains(w, h) {
		return 0.8
	}
	for _, tok := range strings.Fields(h) {
		for _, other := range strings.Fields(w) {
			if tok == other {
				return 0.8
			}
		}
	}
	return 0.6
}

// performanceScore blends completion rate (50%), inverse average
// resolution time against a 48h cap (30%), and critical incidents
// resolved against a cap of 5 (20%).
func performanceScore(p model.Performance) float64 {
	speed := 1 - p.AvgResolutionHours/48
	if speed < 0 {
		speed = 0
	}
	critical := float64(p.CriticalResolved) / 5
	if critical > 1 {
		critical = 1
	}
	return p.CompletionRate*0.5 + speed*0.3 + critical*0.2
}
