package utils

import (
	"fmt"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

// ValidateNoDoubleBooking checks that no staff member holds more than one
// assignment in the same half-day.
func ValidateNoDoubleBooking(assignments []*domain.Assignment) error {
	type slot struct {
		StaffID int64
		Date    string
		Period  domain.Period
	}
	seen := make(map[slot]bool)

	for _, a := range assignments {
		key := slot{a.StaffID, domain.DateKey(a.Date), a.Period}
		if seen[key] {
			return fmt.Errorf("staff %d is double-booked on %s %s", a.StaffID, key.Date, a.Period)
		}
		seen[key] = true
	}
	return nil
}

// ValidateRoomExclusivity checks that no room hosts two procedures in the
// same half-day.
func ValidateRoomExclusivity(rooms []*domain.RoomAssignment) error {
	type slot struct {
		RoomID int64
		Date   string
		Period domain.Period
	}
	seen := make(map[slot]int64)

	for _, ra := range rooms {
		key := slot{ra.RoomID, domain.DateKey(ra.Date), ra.Period}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("room %d hosts procedures %d and %d on %s %s",
				ra.RoomID, other, ra.ProcedureID, key.Date, ra.Period)
		}
		seen[key] = ra.ProcedureID
	}
	return nil
}

// ValidateCompetencies checks that every theater assignment is held by a
// staff member who has the required role competency.
func ValidateCompetencies(assignments []*domain.Assignment, staff []*domain.Staff) error {
	byID := make(map[int64]*domain.Staff, len(staff))
	for _, st := range staff {
		byID[st.ID] = st
	}

	for _, a := range assignments {
		if a.Kind != domain.KindTheater {
			continue
		}
		st, ok := byID[a.StaffID]
		if !ok {
			return fmt.Errorf("assignment references unknown staff %d", a.StaffID)
		}
		if !st.HasCompetency(a.Role) {
			return fmt.Errorf("staff %d lacks competency %q required on %s %s",
				a.StaffID, a.Role, domain.DateKey(a.Date), a.Period)
		}
	}
	return nil
}

// ValidateExclusions checks that no assignment places a staff member with a
// doctor they are hard-excluded from: directly for theater assignments, and
// through the doctors present at the site for site assignments.
func ValidateExclusions(
	assignments []*domain.Assignment,
	exclusions []domain.Exclusion,
	procedures []*domain.Procedure,
	neededSlots []domain.NeededSlot,
) error {
	type pair struct {
		StaffID  int64
		DoctorID int64
	}
	excluded := make(map[pair]bool, len(exclusions))
	for _, ex := range exclusions {
		excluded[pair{ex.StaffID, ex.DoctorID}] = true
	}
	if len(excluded) == 0 {
		return nil
	}

	procByID := make(map[int64]*domain.Procedure, len(procedures))
	for _, proc := range procedures {
		procByID[proc.ID] = proc
	}

	type siteSlot struct {
		SiteID int64
		Date   string
		Period domain.Period
	}
	doctorsAt := make(map[siteSlot][]int64)
	for _, ns := range neededSlots {
		key := siteSlot{ns.SiteID, domain.DateKey(ns.Date), ns.Period}
		doctorsAt[key] = append(doctorsAt[key], ns.DoctorID)
	}

	for _, a := range assignments {
		switch a.Kind {
		case domain.KindTheater:
			proc, ok := procByID[*a.ProcedureID]
			if !ok {
				return fmt.Errorf("assignment references unknown procedure %d", *a.ProcedureID)
			}
			if excluded[pair{a.StaffID, proc.DoctorID}] {
				return fmt.Errorf("staff %d is excluded from doctor %d but assigned to procedure %d",
					a.StaffID, proc.DoctorID, proc.ID)
			}
		case domain.KindSite:
			key := siteSlot{*a.SiteID, domain.DateKey(a.Date), a.Period}
			for _, doctorID := range doctorsAt[key] {
				if excluded[pair{a.StaffID, doctorID}] {
					return fmt.Errorf("staff %d is excluded from doctor %d but assigned to site %d on %s %s",
						a.StaffID, doctorID, *a.SiteID, key.Date, a.Period)
				}
			}
		}
	}
	return nil
}
