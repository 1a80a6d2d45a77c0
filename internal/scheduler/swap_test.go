package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

func siteAssignment(id, staffID int64, date time.Time, period domain.Period, siteID int64) *domain.Assignment {
	return &domain.Assignment{
		ID: id, StaffID: staffID, Date: date, Period: period,
		Kind: domain.KindSite, SiteID: &siteID,
	}
}

func adminAssignment(id, staffID int64, date time.Time, period domain.Period) *domain.Assignment {
	return &domain.Assignment{
		ID: id, StaffID: staffID, Date: date, Period: period, Kind: domain.KindAdmin,
	}
}

func theaterAssignment(id, staffID int64, date time.Time, period domain.Period, procedureID int64, role string) *domain.Assignment {
	return &domain.Assignment{
		ID: id, StaffID: staffID, Date: date, Period: period,
		Kind: domain.KindTheater, ProcedureID: &procedureID, Role: role,
	}
}

func TestSwapEngineRedistributesAdminLoad(t *testing.T) {
	d1, d2 := day(t, "2026-09-07"), day(t, "2026-09-08")

	input := &Input{
		Dates: []time.Time{d1, d2},
		Staff: []*domain.Staff{
			{ID: 1, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
			{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 3}}},
		},
	}
	assignments := []*domain.Assignment{
		adminAssignment(1, 1, d1, domain.PeriodMorning),
		siteAssignment(2, 2, d1, domain.PeriodMorning, 20),
		adminAssignment(3, 1, d2, domain.PeriodMorning),
		siteAssignment(4, 2, d2, domain.PeriodMorning, 20),
	}

	e, err := NewSwapEngine(Options{}, input, assignments)
	require.NoError(t, err)

	res := e.Run()

	// Staff 1 starts with two admin half-days while holding the top
	// preference for site 20; two swaps move both site slots over.
	assert.Equal(t, int32(2), res.SwapCount)
	assert.Equal(t, int32(2), res.Iterations)
	assert.InDelta(t, 40, res.TotalGain, 1e-6)

	for _, a := range e.Assignments() {
		switch a.Kind {
		case domain.KindSite:
			assert.Equal(t, int64(1), a.StaffID)
		case domain.KindAdmin:
			assert.Equal(t, int64(2), a.StaffID)
		}
	}
}

func TestSwapEnginePermutesOnly(t *testing.T) {
	d1, d2 := day(t, "2026-09-07"), day(t, "2026-09-08")

	input := &Input{
		Dates: []time.Time{d1, d2},
		Staff: []*domain.Staff{
			{ID: 1, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
			{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 3}}},
		},
	}
	assignments := []*domain.Assignment{
		adminAssignment(1, 1, d1, domain.PeriodMorning),
		siteAssignment(2, 2, d1, domain.PeriodMorning, 20),
		adminAssignment(3, 1, d2, domain.PeriodMorning),
		siteAssignment(4, 2, d2, domain.PeriodMorning, 20),
	}

	type shape struct {
		ID     int64
		Date   string
		Period domain.Period
		Kind   domain.AssignmentKind
	}
	var before []shape
	for _, a := range assignments {
		before = append(before, shape{a.ID, domain.DateKey(a.Date), a.Period, a.Kind})
	}

	e, err := NewSwapEngine(Options{}, input, assignments)
	require.NoError(t, err)
	e.Run()

	// Only staff identities move; every slot, kind and record survives.
	var after []shape
	for _, a := range assignments {
		after = append(after, shape{a.ID, domain.DateKey(a.Date), a.Period, a.Kind})
	}
	assert.Equal(t, before, after)
}

func TestSwapEngineStopsWhenOptimal(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{ID: 1, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
			{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 3}}},
		},
	}
	assignments := []*domain.Assignment{
		siteAssignment(1, 1, d1, domain.PeriodMorning, 20),
		adminAssignment(2, 2, d1, domain.PeriodMorning),
	}

	e, err := NewSwapEngine(Options{}, input, assignments)
	require.NoError(t, err)

	res := e.Run()
	assert.Equal(t, int32(0), res.SwapCount)
	assert.Equal(t, int32(0), res.Iterations)
	assert.Zero(t, res.TotalGain)
}

func TestSwapEngineHonorsIterationCap(t *testing.T) {
	d1, d2 := day(t, "2026-09-07"), day(t, "2026-09-08")

	input := &Input{
		Dates: []time.Time{d1, d2},
		Staff: []*domain.Staff{
			{ID: 1, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
			{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 3}}},
		},
	}
	assignments := []*domain.Assignment{
		adminAssignment(1, 1, d1, domain.PeriodMorning),
		siteAssignment(2, 2, d1, domain.PeriodMorning, 20),
		adminAssignment(3, 1, d2, domain.PeriodMorning),
		siteAssignment(4, 2, d2, domain.PeriodMorning, 20),
	}

	e, err := NewSwapEngine(Options{SwapIterationCap: 1}, input, assignments)
	require.NoError(t, err)

	res := e.Run()
	assert.Equal(t, int32(1), res.Iterations)
	assert.Equal(t, int32(1), res.SwapCount)
	assert.InDelta(t, 35, res.TotalGain, 1e-6)
}

func TestSwapEngineRespectsExclusion(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{ID: 1, Competencies: []string{"instrumentiste"}},
			{
				ID:                2,
				Competencies:      []string{"instrumentiste"},
				DoctorPreferences: []domain.DoctorPreference{{DoctorID: 7, Rank: 1}},
			},
		},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
		},
		Exclusions: []domain.Exclusion{{StaffID: 2, DoctorID: 7}},
	}
	assignments := []*domain.Assignment{
		theaterAssignment(1, 1, d1, domain.PeriodMorning, 100, "instrumentiste"),
		adminAssignment(2, 2, d1, domain.PeriodMorning),
	}

	e, err := NewSwapEngine(Options{}, input, assignments)
	require.NoError(t, err)

	// Staff 2 would score higher on the procedure through their doctor
	// preference, but the hard exclusion removes the move entirely.
	res := e.Run()
	assert.Equal(t, int32(0), res.SwapCount)
	assert.Equal(t, int64(1), assignments[0].StaffID)
}

func TestSwapEnginePenalizesRestrictedExchange(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{
				ID:              1,
				Competencies:    []string{"instrumentiste"},
				SitePreferences: []domain.SitePreference{{SiteID: 30, Rank: 1}},
			},
			{
				ID:                2,
				Competencies:      []string{"instrumentiste"},
				SitePreferences:   []domain.SitePreference{{SiteID: 30, Rank: 3}},
				DoctorPreferences: []domain.DoctorPreference{{DoctorID: 7, Rank: 2}},
			},
		},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
		},
	}
	assignments := []*domain.Assignment{
		theaterAssignment(1, 1, d1, domain.PeriodMorning, 100, "instrumentiste"),
		siteAssignment(2, 2, d1, domain.PeriodMorning, 30),
	}

	e, err := NewSwapEngine(Options{RestrictedSiteIDs: []int64{30}}, input, assignments)
	require.NoError(t, err)

	// The raw exchange would gain 30 points, but trading a theater slot
	// against a restricted site directly carries a prohibitive penalty.
	res := e.Run()
	assert.Equal(t, int32(0), res.SwapCount)
}

func TestSwapEnginePenalizesRestrictedAdjacency(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{
				ID:           1,
				Competencies: []string{"instrumentiste"},
				SitePreferences: []domain.SitePreference{
					{SiteID: 30, Rank: 1},
					{SiteID: 20, Rank: 3},
				},
				DoctorPreferences: []domain.DoctorPreference{{DoctorID: 7, Rank: 1}},
			},
			{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
		},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodAfternoon, InterventionTypeID: 10, DoctorID: 7},
		},
	}
	assignments := []*domain.Assignment{
		siteAssignment(1, 1, d1, domain.PeriodMorning, 30),
		siteAssignment(2, 1, d1, domain.PeriodAfternoon, 20),
		theaterAssignment(3, 2, d1, domain.PeriodAfternoon, 100, "instrumentiste"),
	}

	e, err := NewSwapEngine(Options{RestrictedSiteIDs: []int64{30}}, input, assignments)
	require.NoError(t, err)

	// Taking the theater slot would gain 35 raw points for staff 1, but it
	// would land in the theater on the same day as their restricted-site
	// morning, and that adjacency carries a prohibitive penalty.
	res := e.Run()
	assert.Equal(t, int32(0), res.SwapCount)
	assert.Equal(t, int64(1), assignments[1].StaffID)
	assert.Equal(t, int64(2), assignments[2].StaffID)
}

func TestSwapEngineEnumeratesFullDayMoves(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{ID: 1, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
			{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 3}}},
		},
	}
	assignments := []*domain.Assignment{
		adminAssignment(1, 1, d1, domain.PeriodMorning),
		adminAssignment(2, 1, d1, domain.PeriodAfternoon),
		siteAssignment(3, 2, d1, domain.PeriodMorning, 20),
		siteAssignment(4, 2, d1, domain.PeriodAfternoon, 20),
	}

	e, err := NewSwapEngine(Options{}, input, assignments)
	require.NoError(t, err)

	// Staff 1 is problematic (two admin half-days) and staff 2 holds the
	// same period set that day, so a two-pair full-day move must appear.
	found := false
	for pairs := range e.candidates(e.metrics()) {
		if len(pairs) == 2 {
			found = true
			break
		}
	}
	assert.True(t, found)
}
