package assign

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantpulse/plantpulse/internal/model"
)

func tech(id string, spec model.Specialty, years float64, workload int) model.Technician {
	return model.Technician{
		ID:              id,
		Specialty:       spec,
		ExperienceYears: years,
		Skill:           model.SkillSenior,
		Availability:    model.Available,
		CurrentWorkload: workload,
		Location:        "plant 1",
	}
}

func testRequest() Request {
	return Request{
		IncidentID:        "inc-7",
		Priority:          model.TierHigh,
		Location:          "plant 1",
		RequiredSpecialty: model.SpecialtyMechanical,
	}
}

func TestEngine_AssignPicksBestMatch(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	e := New(testAssignmentConfig()).WithClock(func() time.Time { return now })

	pool := []model.Technician{
		tech("t-electrical", model.SpecialtyElectrical, 10, 0),
		tech("t-mechanical", model.SpecialtyMechanical, 10, 0),
	}

	d, err := e.Assign(testRequest(), pool)
	require.NoError(t, err)

	assert.Equal(t, "t-mechanical", d.Assignment.TechnicianID)
	assert.Equal(t, "inc-7", d.Assignment.IncidentID)
	assert.NotEmpty(t, d.Assignment.ID)
	assert.Equal(t, now, d.Assignment.CreatedAt)
	require.Len(t, d.Assignment.Alternatives, 1)
	assert.Equal(t, "t-electrical", d.Assignment.Alternatives[0].TechnicianID)

	assert.Equal(t, model.WorkloadDelta{TechnicianID: "t-mechanical", Delta: 1}, d.Workload)
}

func TestEngine_AssignEmptyPool(t *testing.T) {
	e := New(testAssignmentConfig())

	_, err := e.Assign(testRequest(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoEligibleCandidate))
	assert.Contains(t, err.Error(), "inc-7")
}

func TestEngine_UnavailableTechniciansExcluded(t *testing.T) {
	e := New(testAssignmentConfig())

	busy := tech("t-1", model.SpecialtyMechanical, 10, 0)
	busy.Availability = model.Busy
	off := tech("t-2", model.SpecialtyMechanical, 10, 0)
	off.Availability = model.OffShift

	_, err := e.Assign(testRequest(), []model.Technician{busy, off})
	assert.True(t, errors.Is(err, ErrNoEligibleCandidate))
}

func TestEngine_SingleMismatchedCandidateStillSelected(t *testing.T) {
	e := New(testAssignmentConfig())

	// Specialty contributes zero, workload contributes full marks; the
	// lone candidate must still win over assigning nobody.
	lone := tech("t-other", model.SpecialtyOther, 2, 0)

	d, err := e.Assign(testRequest(), []model.Technician{lone})
	require.NoError(t, err)
	assert.Equal(t, "t-other", d.Assignment.TechnicianID)
	assert.Empty(t, d.Assignment.Alternatives)
}

func TestEngine_TieBreaks(t *testing.T) {
	e := New(testAssignmentConfig())

	t.Run("lower workload wins", func(t *testing.T) {
		// Workloads 1 and 2 share the same score band.
		pool := []model.Technician{
			tech("t-b", model.SpecialtyMechanical, 10, 2),
			tech("t-a", model.SpecialtyMechanical, 10, 1),
		}
		ranked := e.Rank(testRequest(), pool)
		require.Len(t, ranked, 2)
		assert.Equal(t, ranked[0].Score, ranked[1].Score)
		assert.Equal(t, "t-a", ranked[0].TechnicianID)
	})

	t.Run("then technician id", func(t *testing.T) {
		pool := []model.Technician{
			tech("t-b", model.SpecialtyMechanical, 10, 1),
			tech("t-a", model.SpecialtyMechanical, 10, 1),
		}
		ranked := e.Rank(testRequest(), pool)
		require.Len(t, ranked, 2)
		assert.Equal(t, "t-a", ranked[0].TechnicianID)
	})
}

func TestEngine_RankDeterministic(t *testing.T) {
	e := New(testAssignmentConfig())
	pool := []model.Technician{
		tech("t-1", model.SpecialtyMechanical, 8, 3),
		tech("t-2", model.SpecialtyElectrical, 4, 0),
		tech("t-3", model.SpecialtyOther, 10, 1),
		tech("t-4", model.SpecialtyMechanical, 2, 0),
	}

	first := e.Rank(testRequest(), pool)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Rank(testRequest(), pool))
	}
}

func TestEngine_AlternativesCapped(t *testing.T) {
	cfg := testAssignmentConfig()
	cfg.MaxAlternatives = 2
	e := New(cfg)

	pool := []model.Technician{
		tech("t-1", model.SpecialtyMechanical, 10, 0),
		tech("t-2", model.SpecialtyMechanical, 8, 0),
		tech("t-3", model.SpecialtyMechanical, 6, 0),
		tech("t-4", model.SpecialtyMechanical, 4, 0),
	}
	d, err := e.Assign(testRequest(), pool)
	require.NoError(t, err)
	assert.Len(t, d.Assignment.Alternatives, 2)
}

func TestEngine_Teams(t *testing.T) {
	cfg := testAssignmentConfig()
	cfg.TeamSize = 2
	e := New(cfg)

	pool := []model.Technician{
		tech("t-a", model.SpecialtyMechanical, 10, 0),
		tech("t-b", model.SpecialtyMechanical, 10, 0),
		tech("t-c", model.SpecialtyElectrical, 10, 0),
		tech("t-d", model.SpecialtyElectrical, 0, 0),
	}
	req := testRequest()

	teams := e.Teams(req, pool)
	require.Len(t, teams, 3)

	// Mixed-trade pairs beat the all-mechanical pair despite its higher
	// average score: diversity halves a single-specialty team.
	top := teams[0]
	assert.Equal(t, 1.0, top.DiversityRatio)
	require.Len(t, top.Members, 2)
	assert.Equal(t, "t-b", top.Members[0].TechnicianID)
	assert.Equal(t, "t-c", top.Members[1].TechnicianID)

	for i := 1; i < len(teams); i++ {
		assert.GreaterOrEqual(t, teams[i-1].Score, teams[i].Score)
	}
}

func TestEngine_TeamsTooFewCandidates(t *testing.T) {
	cfg := testAssignmentConfig()
	cfg.TeamSize = 3
	e := New(cfg)

	teams := e.Teams(testRequest(), []model.Technician{
		tech("t-1", model.SpecialtyMechanical, 5, 0),
	})
	assert.Nil(t, teams)
}
