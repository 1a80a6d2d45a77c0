package domain

import "time"

type AssignmentKind string

const (
	KindTheater AssignmentKind = "theater"
	KindSite    AssignmentKind = "site"
	KindAdmin   AssignmentKind = "admin"
)

// Assignment binds one staff member to one demand unit for one half-day.
// ProcedureID/Role/Ordinal are set for theater assignments, SiteID for site
// assignments; admin assignments carry neither.
type Assignment struct {
	ID          int64          `json:"id"`
	StaffID     int64          `json:"staffID"`
	Date        time.Time      `json:"date"`
	Period      Period         `json:"period"`
	Kind        AssignmentKind `json:"kind"`
	ProcedureID *int64         `json:"procedureID"`
	Role        string         `json:"role"`
	Ordinal     int32          `json:"ordinal"`
	SiteID      *int64         `json:"siteID"`
	CreatedAt   time.Time      `json:"createdAt"`
	Version     int32          `json:"-"`
}

// RoomAssignment fixes the physical room of a procedure for its half-day.
type RoomAssignment struct {
	ID          int64     `json:"id"`
	ProcedureID int64     `json:"procedureID"`
	Date        time.Time `json:"date"`
	Period      Period    `json:"period"`
	RoomID      int64     `json:"roomID"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RunKind string

const (
	RunOptimize RunKind = "optimize"
	RunRefine   RunKind = "refine"
)

// SchedulingRun is the persisted summary of one optimizer invocation, either
// a full solve (optimize) or a swap-refinement pass (refine).
type SchedulingRun struct {
	ID           string      `json:"id"`
	Kind         RunKind     `json:"kind"`
	Dates        []time.Time `json:"dates"`
	Feasible     bool        `json:"feasible"`
	Objective    float64     `json:"objective"`
	TheaterCount int32       `json:"theaterCount"`
	SiteCount    int32       `json:"siteCount"`
	AdminCount   int32       `json:"adminCount"`
	RoomCount    int32       `json:"roomCount"`
	SwapCount    int32       `json:"swapCount"`
	TotalGain    float64     `json:"totalGain"`
	CreatedAt    time.Time   `json:"createdAt"`
}
