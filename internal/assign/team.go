package assign

import (
	"sort"

	"github.com/plantpulse/plantpulse/internal/model"
)

// maxTeams bounds how many candidate teams the team variant returns.
const maxTeams = 3

// Team is one candidate crew for an incident that needs several trades.
type Team struct {
	Members []model.RankedCandidate `json:"members"`

	// Score is the mean individual score scaled by DiversityRatio.
	Score float64 `json:"score"`

	// DiversityRatio is distinct specialties divided by team size.
	DiversityRatio float64 `json:"diversity_ratio"`
}

// Teams builds candidate crews of the configured size from the top
// individual rankings. Sliding windows over the top 2×size candidates
// are scored by average individual score times specialty diversity, and
// the best three teams are returned.
func (e *Engine) Teams(req Request, pool []model.Technician) []Team {
	size := e.cfg.TeamSize
	if size < 1 {
		size = 1
	}
	ranked := e.Rank(req, pool)
	if len(ranked) < size {
		return nil
	}

	limit := 2 * size
	if limit > len(ranked) {
		limit = len(ranked)
	}
	top := ranked[:limit]

	specialties := make(map[string]model.Specialty, len(pool))
	for _, tech := range pool {
		specialties[tech.ID] = tech.Specialty
	}

	var teams []Team
	for start := 0; start+size <= len(top); start++ {
		members := top[start : start+size]

		var sum float64
		distinct := make(map[model.Specialty]struct{}, size)
		for _, m := range members {
			sum += m.Score
			distinct[specialties[m.TechnicianID]] = struct{}{}
		}
		diversity := float64(len(distinct)) / float64(size)

		teams = append(teams, Team{
			Members:        append([]model.RankedCandidate(nil), members...),
			Score:          (sum / float64(size)) * diversity,
			DiversityRatio: diversity,
		})
	}

	sort.SliceStable(teams, func(i, j int) bool { return teams[i].Score > teams[j].Score })
	if len(teams) > maxTeams {
		teams = teams[:maxTeams]
	}
	return teams
}
