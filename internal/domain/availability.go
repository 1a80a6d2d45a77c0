package domain

import "time"

// Availability means the staff member can be assigned that half-day slot.
// Full-day records are expanded to two half-day records when loaded.
type Availability struct {
	StaffID int64     `json:"staffID"`
	Date    time.Time `json:"date"`
	Period  Period    `json:"period"`
}

type Absence struct {
	StaffID int64     `json:"staffID"`
	Date    time.Time `json:"date"`
	FullDay bool      `json:"fullDay"`
	Period  Period    `json:"period"`
}

// NeededSlot is a doctor's standing demand for secretarial support at a
// clinical site on a given half-day. Weights are summed per (site, date,
// period) and rounded up to form a capacity ceiling.
type NeededSlot struct {
	SiteID   int64     `json:"siteID"`
	DoctorID int64     `json:"doctorID"`
	Date     time.Time `json:"date"`
	Period   Period    `json:"period"`
	Weight   float64   `json:"weight"`
}

// Exclusion is a hard (staff, doctor) incompatibility: the pair never
// co-occurs in an assignment.
type Exclusion struct {
	StaffID  int64 `json:"staffID"`
	DoctorID int64 `json:"doctorID"`
}
