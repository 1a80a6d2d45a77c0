package scheduler

import (
	"fmt"
	"slices"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

type slotKey struct {
	Date   string
	Period domain.Period
}

type staffSlotKey struct {
	StaffID int64
	Date    string
	Period  domain.Period
}

type staffDateKey struct {
	StaffID int64
	Date    string
}

type exclusionKey struct {
	StaffID  int64
	DoctorID int64
}

// refIndex is the lookup view over an Input, shared by the model builder and
// the swap engine.
type refIndex struct {
	staffByID     map[int64]*domain.Staff
	available     map[staffSlotKey]bool
	excluded      map[exclusionKey]bool
	roleReqs      map[int64][]domain.RoleRequirement
	interventions map[int64]*domain.InterventionType
	procByID      map[int64]*domain.Procedure
	doctorsAtSite map[int64]map[slotKey][]int64
	fullDayAbsent map[staffDateKey]bool
}

func buildIndex(input *Input) (*refIndex, error) {
	idx := &refIndex{
		staffByID:     make(map[int64]*domain.Staff),
		available:     make(map[staffSlotKey]bool),
		excluded:      make(map[exclusionKey]bool),
		roleReqs:      make(map[int64][]domain.RoleRequirement),
		interventions: make(map[int64]*domain.InterventionType),
		procByID:      make(map[int64]*domain.Procedure),
		doctorsAtSite: make(map[int64]map[slotKey][]int64),
		fullDayAbsent: make(map[staffDateKey]bool),
	}

	for _, st := range input.Staff {
		idx.staffByID[st.ID] = st
	}

	for _, av := range input.Availabilities {
		if _, ok := idx.staffByID[av.StaffID]; !ok {
			return nil, fmt.Errorf("availability references unknown staff %d", av.StaffID)
		}
		idx.available[staffSlotKey{av.StaffID, domain.DateKey(av.Date), av.Period}] = true
	}

	for _, ex := range input.Exclusions {
		idx.excluded[exclusionKey{ex.StaffID, ex.DoctorID}] = true
	}

	for _, rr := range input.RoleRequirements {
		idx.roleReqs[rr.InterventionTypeID] = append(idx.roleReqs[rr.InterventionTypeID], rr)
	}
	for _, reqs := range idx.roleReqs {
		slices.SortFunc(reqs, func(a, b domain.RoleRequirement) int {
			if a.Role < b.Role {
				return -1
			}
			if a.Role > b.Role {
				return 1
			}
			return 0
		})
	}

	for _, it := range input.InterventionTypes {
		idx.interventions[it.ID] = it
	}
	for _, p := range input.Procedures {
		idx.procByID[p.ID] = p
	}

	for _, ns := range input.NeededSlots {
		key := slotKey{domain.DateKey(ns.Date), ns.Period}
		if idx.doctorsAtSite[ns.SiteID] == nil {
			idx.doctorsAtSite[ns.SiteID] = make(map[slotKey][]int64)
		}
		docs := idx.doctorsAtSite[ns.SiteID][key]
		if !slices.Contains(docs, ns.DoctorID) {
			idx.doctorsAtSite[ns.SiteID][key] = append(docs, ns.DoctorID)
		}
	}
	for _, bySlot := range idx.doctorsAtSite {
		for _, docs := range bySlot {
			slices.Sort(docs)
		}
	}

	for _, ab := range input.Absences {
		if ab.FullDay {
			idx.fullDayAbsent[staffDateKey{ab.StaffID, domain.DateKey(ab.Date)}] = true
		}
	}

	return idx, nil
}

func (idx *refIndex) isAvailable(staffID int64, date time.Time, period domain.Period) bool {
	return idx.available[staffSlotKey{staffID, domain.DateKey(date), period}]
}

func (idx *refIndex) isExcluded(staffID, doctorID int64) bool {
	return idx.excluded[exclusionKey{staffID, doctorID}]
}

func (idx *refIndex) doctorsAt(siteID int64, date time.Time, period domain.Period) []int64 {
	return idx.doctorsAtSite[siteID][slotKey{domain.DateKey(date), period}]
}

// excludedDoctorAt reports whether any doctor present at the site that
// half-day is hard-excluded for this staff member.
func (idx *refIndex) excludedDoctorAt(staffID, siteID int64, date time.Time, period domain.Period) bool {
	for _, doc := range idx.doctorsAt(siteID, date, period) {
		if idx.isExcluded(staffID, doc) {
			return true
		}
	}
	return false
}
