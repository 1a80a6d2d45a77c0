package scheduler

import "github.com/planbloc-dev/secretariat-planner/backend/internal/domain"

// Hand-tuned scoring weights. Base scores order the three demand kinds
// (theater > site > admin); the progressive steps grow with every repeated
// occurrence of the penalized condition for the same staff member.
const (
	theaterBaseScore = 100.0
	siteBaseScore    = 80.0
	adminBaseScore   = 10.0

	adminPreferredBonus = 25.0
	adminPenaltyStep    = 15.0

	undesirablePenaltyStep = 12.0
	siteChurnPenalty       = 40.0

	restrictedAdjacencyPenalty = 500.0
	restrictedSwapPenalty      = 500.0
)

func sitePrefBonus(rank int32) float64 {
	switch rank {
	case 1:
		return 30
	case 2:
		return 20
	case 3:
		return 10
	default:
		return 0
	}
}

func doctorPrefBonus(rank int32) float64 {
	switch rank {
	case 1:
		return 15
	case 2:
		return 10
	case 3:
		return 5
	default:
		return 0
	}
}

func (s *Scheduler) theaterScore(st *domain.Staff, unit *DemandUnit) float64 {
	return theaterBaseScore + doctorPrefBonus(st.DoctorPrefRank(unit.DoctorID))
}

func (s *Scheduler) siteScore(st *domain.Staff, unit *DemandUnit) float64 {
	score := siteBaseScore + sitePrefBonus(st.SitePrefRank(unit.SiteID))

	for _, doc := range s.idx.doctorsAt(unit.SiteID, unit.Date, unit.Period) {
		score += doctorPrefBonus(st.DoctorPrefRank(doc))
	}

	// Sending someone to the undesirable site gets more expensive each time,
	// unless it is their own top choice.
	if unit.SiteID == s.opts.UndesirableSiteID && st.SitePrefRank(unit.SiteID) != 1 {
		score -= undesirablePenaltyStep * float64(s.penalties.siteCount(st.ID, unit.SiteID))
	}

	return score
}

func (s *Scheduler) adminScore(st *domain.Staff) float64 {
	if st.PrefersAdmin {
		return adminBaseScore + adminPreferredBonus
	}
	return adminBaseScore - adminPenaltyStep*float64(s.penalties.adminCounts[st.ID])
}
