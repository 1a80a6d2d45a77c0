package scheduler

import "github.com/planbloc-dev/secretariat-planner/backend/internal/domain"

// materialize walks solved variables back into assignment records, rounding
// at the 0.5 threshold, and updates the progressive-penalty counters as each
// assignment is committed.
func (s *Scheduler) materialize(bm *builtModel, values []float64) []*domain.Assignment {
	var out []*domain.Assignment

	for _, cv := range bm.vars {
		if values[cv.v] < 0.5 {
			continue
		}
		unit := &bm.units[cv.unit]

		a := &domain.Assignment{
			StaffID: cv.staffID,
			Date:    unit.Date,
			Period:  unit.Period,
		}
		switch unit.Kind {
		case DemandTheater:
			a.Kind = domain.KindTheater
			pid := unit.ProcedureID
			a.ProcedureID = &pid
			a.Role = unit.Role
			a.Ordinal = unit.Ordinal
		case DemandSite:
			a.Kind = domain.KindSite
			sid := unit.SiteID
			a.SiteID = &sid
			s.penalties.recordSite(cv.staffID, unit.SiteID)
		case DemandAdmin:
			a.Kind = domain.KindAdmin
			s.penalties.recordAdmin(cv.staffID)
		}

		out = append(out, a)
	}

	return out
}
