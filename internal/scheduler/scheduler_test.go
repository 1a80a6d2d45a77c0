package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func availableAllDay(staffID int64, dates ...time.Time) []domain.Availability {
	var out []domain.Availability
	for _, d := range dates {
		for _, p := range domain.Periods {
			out = append(out, domain.Availability{StaffID: staffID, Date: d, Period: p})
		}
	}
	return out
}

func byKind(assignments []*domain.Assignment, kind domain.AssignmentKind) []*domain.Assignment {
	var out []*domain.Assignment
	for _, a := range assignments {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestRunCoversTheaterRoles(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{ID: 1, FullName: "Camille Martin", Competencies: []string{"instrumentiste"}},
			{ID: 2, FullName: "Julie Leroy", Competencies: []string{"aide de salle"}},
		},
		Availabilities: []domain.Availability{
			{StaffID: 1, Date: d1, Period: domain.PeriodMorning},
			{StaffID: 2, Date: d1, Period: domain.PeriodMorning},
		},
		InterventionTypes: []*domain.InterventionType{{ID: 10, Name: "arthroscopie"}},
		RoleRequirements: []domain.RoleRequirement{
			{InterventionTypeID: 10, Role: "instrumentiste", Count: 1},
			{InterventionTypeID: 10, Role: "aide de salle", Count: 1},
		},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
		},
		Rooms: []*domain.Room{{ID: 1}},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible)

	require.Len(t, res.RoomAssignments, 1)
	assert.Equal(t, int64(1), res.RoomAssignments[0].RoomID)

	theater := byKind(res.Assignments, domain.KindTheater)
	require.Len(t, theater, 2)

	staffByRole := make(map[string]int64)
	for _, a := range theater {
		staffByRole[a.Role] = a.StaffID
	}
	assert.Equal(t, int64(1), staffByRole["instrumentiste"])
	assert.Equal(t, int64(2), staffByRole["aide de salle"])

	assert.InDelta(t, 200, res.Objective, 1e-6)
}

func TestRunSiteCapacityCeiling(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{ID: 1, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
			{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 2}}},
			{ID: 3, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 3}}},
		},
		Availabilities: []domain.Availability{
			{StaffID: 1, Date: d1, Period: domain.PeriodMorning},
			{StaffID: 2, Date: d1, Period: domain.PeriodMorning},
			{StaffID: 3, Date: d1, Period: domain.PeriodMorning},
		},
		// Weights sum to 1.5: the rounded-up ceiling admits two staff.
		NeededSlots: []domain.NeededSlot{
			{SiteID: 20, DoctorID: 7, Date: d1, Period: domain.PeriodMorning, Weight: 1.0},
			{SiteID: 20, DoctorID: 8, Date: d1, Period: domain.PeriodMorning, Weight: 0.5},
		},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible)

	site := byKind(res.Assignments, domain.KindSite)
	require.Len(t, site, 2)

	var siteStaff []int64
	for _, a := range site {
		siteStaff = append(siteStaff, a.StaffID)
	}
	assert.ElementsMatch(t, []int64{1, 2}, siteStaff)

	admin := byKind(res.Assignments, domain.KindAdmin)
	require.Len(t, admin, 1)
	assert.Equal(t, int64(3), admin[0].StaffID)

	// 110 + 100 for the two site assignments, 10 for the admin fallback.
	assert.InDelta(t, 220, res.Objective, 1e-6)
}

func TestRunFlexibleMinimumDays(t *testing.T) {
	dates := []time.Time{
		day(t, "2026-09-07"), day(t, "2026-09-08"), day(t, "2026-09-09"),
		day(t, "2026-09-10"), day(t, "2026-09-11"),
	}

	staff := &domain.Staff{ID: 1, FlexibleHours: true, MinWeeklyDays: 3}
	input := &Input{
		Dates:          dates,
		Staff:          []*domain.Staff{staff},
		Availabilities: availableAllDay(1, dates...),
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible)

	worked := make(map[string]bool)
	for _, a := range res.Assignments {
		worked[domain.DateKey(a.Date)] = true
	}
	assert.GreaterOrEqual(t, len(worked), 3)
}

func TestRunFlexibleQuotaCappedByEligibleDays(t *testing.T) {
	d1 := day(t, "2026-09-07")

	// Quota of 3 against a single eligible day must not make the model
	// infeasible: the requirement shrinks to the days that exist.
	input := &Input{
		Dates:          []time.Time{d1},
		Staff:          []*domain.Staff{{ID: 1, FlexibleHours: true, MinWeeklyDays: 3}},
		Availabilities: []domain.Availability{{StaffID: 1, Date: d1, Period: domain.PeriodMorning}},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	assert.True(t, res.Feasible)
}

func TestRunExclusionNeverAssigns(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{
				ID:                1,
				Competencies:      []string{"instrumentiste"},
				SitePreferences:   []domain.SitePreference{{SiteID: 20, Rank: 1}},
				DoctorPreferences: []domain.DoctorPreference{{DoctorID: 7, Rank: 1}},
			},
			{ID: 2, Competencies: []string{"instrumentiste"}},
		},
		Availabilities: []domain.Availability{
			{StaffID: 1, Date: d1, Period: domain.PeriodMorning},
			{StaffID: 1, Date: d1, Period: domain.PeriodAfternoon},
			{StaffID: 2, Date: d1, Period: domain.PeriodMorning},
		},
		InterventionTypes: []*domain.InterventionType{{ID: 10}},
		RoleRequirements: []domain.RoleRequirement{
			{InterventionTypeID: 10, Role: "instrumentiste", Count: 1},
		},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
		},
		Rooms: []*domain.Room{{ID: 1}},
		NeededSlots: []domain.NeededSlot{
			{SiteID: 20, DoctorID: 7, Date: d1, Period: domain.PeriodAfternoon, Weight: 1.0},
		},
		Exclusions: []domain.Exclusion{{StaffID: 1, DoctorID: 7}},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible)

	// Staff 1 prefers doctor 7 and site 20, but the exclusion wins: the
	// theater slot goes to staff 2 and the site slot stays empty.
	theater := byKind(res.Assignments, domain.KindTheater)
	require.Len(t, theater, 1)
	assert.Equal(t, int64(2), theater[0].StaffID)

	assert.Empty(t, byKind(res.Assignments, domain.KindSite))
}

func TestRunIsDeterministic(t *testing.T) {
	build := func() *Input {
		d1 := day(t, "2026-09-07")
		return &Input{
			Dates: []time.Time{d1},
			Staff: []*domain.Staff{
				{ID: 1, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}}},
				{ID: 2, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 2}}},
				{ID: 3, SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 3}}},
			},
			Availabilities: []domain.Availability{
				{StaffID: 1, Date: d1, Period: domain.PeriodMorning},
				{StaffID: 2, Date: d1, Period: domain.PeriodMorning},
				{StaffID: 3, Date: d1, Period: domain.PeriodMorning},
			},
			NeededSlots: []domain.NeededSlot{
				{SiteID: 20, DoctorID: 7, Date: d1, Period: domain.PeriodMorning, Weight: 1.5},
			},
		}
	}

	run := func() *RunResult {
		s, err := New(Options{}, build())
		require.NoError(t, err)
		res, err := s.Run()
		require.NoError(t, err)
		return res
	}

	first, second := run(), run()
	assert.Equal(t, first.Objective, second.Objective)
	require.Len(t, second.Assignments, len(first.Assignments))
	for i := range first.Assignments {
		assert.Equal(t, first.Assignments[i].StaffID, second.Assignments[i].StaffID)
		assert.Equal(t, first.Assignments[i].Kind, second.Assignments[i].Kind)
	}
}

func TestRunReportsUnmetTheaterDemand(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{{ID: 1, Competencies: []string{"aide de salle"}}},
		Availabilities: []domain.Availability{
			{StaffID: 1, Date: d1, Period: domain.PeriodMorning},
		},
		InterventionTypes: []*domain.InterventionType{{ID: 10}},
		RoleRequirements: []domain.RoleRequirement{
			{InterventionTypeID: 10, Role: "instrumentiste", Count: 1},
		},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
		},
		Rooms: []*domain.Room{{ID: 1}},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)

	// The uncoverable role is reported, not fatal; the rest of the model
	// still solves.
	require.True(t, res.Feasible)
	require.Len(t, res.UnmetDemand, 1)
	assert.Equal(t, DemandTheater, res.UnmetDemand[0].Kind)
	assert.Equal(t, "instrumentiste", res.UnmetDemand[0].Role)

	admin := byKind(res.Assignments, domain.KindAdmin)
	require.Len(t, admin, 1)
	assert.Equal(t, int64(1), admin[0].StaffID)
}

func TestRunAppliesSiteChurnPenalty(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		Staff: []*domain.Staff{
			{ID: 1, SitePreferences: []domain.SitePreference{
				{SiteID: 20, Rank: 1}, {SiteID: 21, Rank: 2},
			}},
		},
		Availabilities: availableAllDay(1, d1),
		NeededSlots: []domain.NeededSlot{
			{SiteID: 20, DoctorID: 7, Date: d1, Period: domain.PeriodMorning, Weight: 1.0},
			{SiteID: 21, DoctorID: 8, Date: d1, Period: domain.PeriodAfternoon, Weight: 1.0},
		},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible)

	// 110 for the morning site, 100 for the afternoon site, minus the 40
	// intra-day churn penalty for changing sites.
	require.Len(t, byKind(res.Assignments, domain.KindSite), 2)
	assert.InDelta(t, 170, res.Objective, 1e-6)
}

func TestBuildDemandUnitsRoundsCeilingUp(t *testing.T) {
	d1 := day(t, "2026-09-07")

	input := &Input{
		Dates: []time.Time{d1},
		NeededSlots: []domain.NeededSlot{
			{SiteID: 20, DoctorID: 7, Date: d1, Period: domain.PeriodMorning, Weight: 0.5},
			{SiteID: 20, DoctorID: 8, Date: d1, Period: domain.PeriodMorning, Weight: 0.5},
			{SiteID: 20, DoctorID: 9, Date: d1, Period: domain.PeriodMorning, Weight: 0.5},
		},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	units := s.buildDemandUnits(map[int64]int64{})

	var siteUnits []DemandUnit
	adminUnits := 0
	for _, u := range units {
		switch u.Kind {
		case DemandSite:
			siteUnits = append(siteUnits, u)
		case DemandAdmin:
			adminUnits++
		}
	}

	require.Len(t, siteUnits, 1)
	assert.Equal(t, int32(2), siteUnits[0].Ceiling)
	assert.Equal(t, 2, adminUnits)
}

func TestRunIgnoresDemandOutsideTargetDates(t *testing.T) {
	d1, d2, d3 := day(t, "2026-09-07"), day(t, "2026-09-08"), day(t, "2026-09-09")

	// The loader hands over the whole min-to-max range, so a run for Monday
	// and Wednesday still sees Tuesday's procedure and site need.
	input := &Input{
		Dates: []time.Time{d1, d3},
		Staff: []*domain.Staff{
			{
				ID:              1,
				Competencies:    []string{"instrumentiste"},
				SitePreferences: []domain.SitePreference{{SiteID: 20, Rank: 1}},
			},
		},
		Availabilities:    availableAllDay(1, d1, d2, d3),
		InterventionTypes: []*domain.InterventionType{{ID: 10}},
		RoleRequirements: []domain.RoleRequirement{
			{InterventionTypeID: 10, Role: "instrumentiste", Count: 1},
		},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d2, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
		},
		NeededSlots: []domain.NeededSlot{
			{SiteID: 20, DoctorID: 7, Date: d2, Period: domain.PeriodMorning, Weight: 1},
		},
		Rooms: []*domain.Room{{ID: 1}},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	res, err := s.Run()
	require.NoError(t, err)
	require.True(t, res.Feasible)

	// Tuesday gets neither a room nor any staff assignment.
	assert.Empty(t, res.RoomAssignments)
	for _, a := range res.Assignments {
		assert.NotEqual(t, domain.DateKey(d2), domain.DateKey(a.Date))
	}
	assert.Empty(t, byKind(res.Assignments, domain.KindTheater))
	assert.Empty(t, byKind(res.Assignments, domain.KindSite))
}
