package assign

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

// ErrNoEligibleCandidate is returned when the filtered technician pool
// is empty. The incident stays pending with assignment deferred; it is
// never silently assigned to nobody.
var ErrNoEligibleCandidate = errors.New("no eligible technician")

// Decision is the outcome of one assignment event: the immutable record
// plus the workload side effect the data store must apply.
type Decision struct {
	Assignment model.Assignment
	Workload   model.WorkloadDelta
}

// Engine ranks available technicians and picks the best fit. It is
// stateless between calls; workload mutation is expressed as a delta
// instruction, never applied here.
type Engine struct {
	cfg    config.AssignmentConfig
	scorer *Scorer
	now    func() time.Time
}

// New returns an assignment Engine with the given weights.
func New(cfg config.AssignmentConfig) *Engine {
	return &Engine{cfg: cfg, scorer: NewScorer(cfg), now: time.Now}
}

// WithClock overrides the engine's time source, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Rank scores every available technician in pool for req and returns
// them ordered best first. Ordering is deterministic: ties break on
// lower current workload, then on technician ID.
func (e *Engine) Rank(req Request, pool []model.Technician) []model.RankedCandidate {
	ranked := make([]model.RankedCandidate, 0, len(pool))
	for _, tech := range pool {
		if tech.Availability != model.Available {
			continue
		}
		b := e.scorer.Score(req, tech)
		ranked = append(ranked, model.RankedCandidate{
			TechnicianID: tech.ID,
			Score:        b.Total,
			Reasons:      b.Reasons(),
		})
	}

	workload := make(map[string]int, len(pool))
	for _, tech := range pool {
		workload[tech.ID] = tech.CurrentWorkload
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if workload[ranked[i].TechnicianID] != workload[ranked[j].TechnicianID] {
			return workload[ranked[i].TechnicianID] < workload[ranked[j].TechnicianID]
		}
		return ranked[i].TechnicianID < ranked[j].TechnicianID
	})
	return ranked
}

// Assign picks the highest-ranked available technician for req. A pool
// with a single poorly matching candidate still yields an assignment;
// only an empty eligible pool returns ErrNoEligibleCandidate.
func (e *Engine) Assign(req Request, pool []model.Technician) (*Decision, error) {
	ranked := e.Rank(req, pool)
	if len(ranked) == 0 {
		return nil, fmt.Errorf("incident %s: %w", req.IncidentID, ErrNoEligibleCandidate)
	}

	winner := ranked[0]
	alternatives := ranked[1:]
	if max := e.cfg.MaxAlternatives; max > 0 && len(alternatives) > max {
		alternatives = alternatives[:max]
	}

	return &Decision{
		Assignment: model.Assignment{
			ID:           uuid.NewString(),
			IncidentID:   req.IncidentID,
			TechnicianID: winner.TechnicianID,
			Score:        winner.Score,
			Alternatives: alternatives,
			CreatedAt:    e.now(),
		},
		Workload: model.WorkloadDelta{TechnicianID: winner.TechnicianID, Delta: +1},
	}, nil
}
