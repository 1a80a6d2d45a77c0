package scheduler

import (
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/solver"
)

// candidateVar maps one solver variable back to the (staff, demand unit)
// pair it decides. Auxiliary variables (churn penalties, worked-day markers)
// are not tracked here: they never materialize into assignments.
type candidateVar struct {
	v       int
	staffID int64
	unit    int
}

type builtModel struct {
	model *solver.Model
	units []DemandUnit
	vars  []candidateVar
	unmet []DemandUnit
}

// buildDemandUnits expands procedures, standing site needs and the admin
// fallback into atomic demand units. Only procedures that received a room
// are staffed; the rest were already logged as unassignable.
func (s *Scheduler) buildDemandUnits(roomed map[int64]int64) []DemandUnit {
	var units []DemandUnit

	for _, proc := range s.input.Procedures {
		if _, ok := roomed[proc.ID]; !ok {
			continue
		}
		for _, rr := range s.idx.roleReqs[proc.InterventionTypeID] {
			for ord := int32(1); ord <= rr.Count; ord++ {
				units = append(units, DemandUnit{
					Kind:        DemandTheater,
					Date:        proc.Date,
					Period:      proc.Period,
					ProcedureID: proc.ID,
					DoctorID:    proc.DoctorID,
					Role:        rr.Role,
					Ordinal:     ord,
				})
			}
		}
	}

	// Site demand aggregates each doctor's required-staff weight per
	// (site, date, period); the rounded-up sum is a ceiling, not a target.
	type siteSlot struct {
		SiteID int64
		Date   string
		Period domain.Period
	}
	weights := make(map[siteSlot]float64)
	dates := make(map[string]time.Time)
	for _, ns := range s.input.NeededSlots {
		key := siteSlot{ns.SiteID, domain.DateKey(ns.Date), ns.Period}
		weights[key] += ns.Weight
		dates[key.Date] = ns.Date
	}
	siteSlots := make([]siteSlot, 0, len(weights))
	for key := range weights {
		siteSlots = append(siteSlots, key)
	}
	slices.SortFunc(siteSlots, func(a, b siteSlot) int {
		if a.SiteID != b.SiteID {
			return int(a.SiteID - b.SiteID)
		}
		if a.Date != b.Date {
			if a.Date < b.Date {
				return -1
			}
			return 1
		}
		return periodOrder(a.Period) - periodOrder(b.Period)
	})
	for _, key := range siteSlots {
		units = append(units, DemandUnit{
			Kind:    DemandSite,
			Date:    dates[key.Date],
			Period:  key.Period,
			SiteID:  key.SiteID,
			Ceiling: int32(math.Ceil(weights[key])),
		})
	}

	// Admin fallback is always open, every half-day of the run.
	for _, date := range s.input.Dates {
		for _, period := range domain.Periods {
			units = append(units, DemandUnit{Kind: DemandAdmin, Date: date, Period: period})
		}
	}

	return units
}

// buildModel turns demand units into a binary program: one variable per
// eligible (staff, unit) pair, exact-cover rows for theater units, capacity
// ceilings for site units, per-slot uniqueness, intra-day site-churn penalty
// variables and minimum-working-day rows for flexible staff. Hard-excluded
// (staff, doctor) pairs are enforced by never creating the variable.
func (s *Scheduler) buildModel(units []DemandUnit) *builtModel {
	bm := &builtModel{model: solver.NewModel(), units: units}

	type siteVar struct {
		v      int
		siteID int64
	}
	perStaffSlot := make(map[staffSlotKey][]int)
	perStaffDay := make(map[staffDateKey][]int)
	siteVars := make(map[staffDateKey]map[domain.Period][]siteVar)

	addVar := func(st *domain.Staff, ui int, score float64) int {
		unit := &units[ui]
		v := bm.model.AddBinary(score)
		bm.vars = append(bm.vars, candidateVar{v: v, staffID: st.ID, unit: ui})
		dk := domain.DateKey(unit.Date)
		perStaffSlot[staffSlotKey{st.ID, dk, unit.Period}] = append(perStaffSlot[staffSlotKey{st.ID, dk, unit.Period}], v)
		perStaffDay[staffDateKey{st.ID, dk}] = append(perStaffDay[staffDateKey{st.ID, dk}], v)
		return v
	}

	for ui := range units {
		unit := &units[ui]

		switch unit.Kind {
		case DemandTheater:
			var cover []int
			for _, st := range s.input.Staff {
				if !s.idx.isAvailable(st.ID, unit.Date, unit.Period) {
					continue
				}
				if !st.HasCompetency(unit.Role) {
					continue
				}
				if s.idx.isExcluded(st.ID, unit.DoctorID) {
					continue
				}
				cover = append(cover, addVar(st, ui, s.theaterScore(st, unit)))
			}
			if len(cover) == 0 {
				slog.Warn("no eligible staff for theater role",
					"procedure", unit.ProcedureID, "role", unit.Role,
					"date", domain.DateKey(unit.Date), "period", unit.Period)
				bm.unmet = append(bm.unmet, *unit)
				continue
			}
			bm.model.AddConstraint(solver.Sum(cover), solver.Equal, 1)

		case DemandSite:
			var capped []int
			for _, st := range s.input.Staff {
				if !s.idx.isAvailable(st.ID, unit.Date, unit.Period) {
					continue
				}
				if st.SitePrefRank(unit.SiteID) == 0 {
					continue
				}
				if s.idx.excludedDoctorAt(st.ID, unit.SiteID, unit.Date, unit.Period) {
					continue
				}
				v := addVar(st, ui, s.siteScore(st, unit))
				capped = append(capped, v)

				dk := staffDateKey{st.ID, domain.DateKey(unit.Date)}
				if siteVars[dk] == nil {
					siteVars[dk] = make(map[domain.Period][]siteVar)
				}
				siteVars[dk][unit.Period] = append(siteVars[dk][unit.Period], siteVar{v: v, siteID: unit.SiteID})
			}
			if len(capped) > 0 {
				bm.model.AddConstraint(solver.Sum(capped), solver.LessEq, float64(unit.Ceiling))
			}

		case DemandAdmin:
			for _, st := range s.input.Staff {
				if !s.idx.isAvailable(st.ID, unit.Date, unit.Period) {
					continue
				}
				addVar(st, ui, s.adminScore(st))
			}
		}
	}

	// A staff member holds at most one assignment per half-day.
	for _, st := range s.input.Staff {
		for _, date := range s.input.Dates {
			for _, period := range domain.Periods {
				vars := perStaffSlot[staffSlotKey{st.ID, domain.DateKey(date), period}]
				if len(vars) > 1 {
					bm.model.AddConstraint(solver.Sum(vars), solver.LessEq, 1)
				}
			}
		}
	}

	// Different sites in the morning and afternoon of the same day cost a
	// churn penalty: p >= morning + afternoon - 1, p scored negative.
	for _, st := range s.input.Staff {
		for _, date := range s.input.Dates {
			byPeriod := siteVars[staffDateKey{st.ID, domain.DateKey(date)}]
			if byPeriod == nil {
				continue
			}
			for _, m := range byPeriod[domain.PeriodMorning] {
				for _, a := range byPeriod[domain.PeriodAfternoon] {
					if m.siteID == a.siteID {
						continue
					}
					p := bm.model.AddBinary(-siteChurnPenalty)
					bm.model.AddConstraint([]solver.Term{
						{Var: m.v, Coef: 1},
						{Var: a.v, Coef: 1},
						{Var: p, Coef: -1},
					}, solver.LessEq, 1)
				}
			}
		}
	}

	// Flexible-hours staff must work a minimum number of days. A worked-day
	// marker can only switch on when at least one assignment exists that day.
	for _, st := range s.input.Staff {
		if !st.FlexibleHours || st.MinWeeklyDays <= 0 {
			continue
		}
		var dayVars []int
		for _, date := range s.input.Dates {
			if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
				continue
			}
			dk := domain.DateKey(date)
			if s.idx.fullDayAbsent[staffDateKey{st.ID, dk}] {
				continue
			}
			if !s.idx.isAvailable(st.ID, date, domain.PeriodMorning) &&
				!s.idx.isAvailable(st.ID, date, domain.PeriodAfternoon) {
				continue
			}

			w := bm.model.AddBinary(0)
			terms := []solver.Term{{Var: w, Coef: 1}}
			for _, v := range perStaffDay[staffDateKey{st.ID, dk}] {
				terms = append(terms, solver.Term{Var: v, Coef: -1})
			}
			bm.model.AddConstraint(terms, solver.LessEq, 0)
			dayVars = append(dayVars, w)
		}
		if len(dayVars) == 0 {
			continue
		}
		required := min(int(st.MinWeeklyDays), len(dayVars))
		bm.model.AddConstraint(solver.Sum(dayVars), solver.GreaterEq, float64(required))
	}

	return bm
}

func periodOrder(p domain.Period) int {
	if p == domain.PeriodMorning {
		return 0
	}
	return 1
}
