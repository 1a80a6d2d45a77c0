package scheduler

import (
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

type DemandKind int

const (
	DemandTheater DemandKind = iota
	DemandSite
	DemandAdmin
)

// DemandUnit is a tagged variant: Kind decides which fields are meaningful.
// Theater units carry ProcedureID/DoctorID/Role/Ordinal, site units carry
// SiteID/Ceiling, admin units only the slot.
type DemandUnit struct {
	Kind   DemandKind
	Date   time.Time
	Period domain.Period

	ProcedureID int64
	DoctorID    int64
	Role        string
	Ordinal     int32

	SiteID  int64
	Ceiling int32
}

// Input bundles everything the optimizer reads for the target dates. All of
// it is reference data: the scheduler never writes through it.
type Input struct {
	Dates             []time.Time
	Staff             []*domain.Staff
	Availabilities    []domain.Availability
	Procedures        []*domain.Procedure
	InterventionTypes []*domain.InterventionType
	RoleRequirements  []domain.RoleRequirement
	MultiFlowConfigs  []*domain.MultiFlowConfig
	Rooms             []*domain.Room
	NeededSlots       []domain.NeededSlot
	Absences          []domain.Absence
	Exclusions        []domain.Exclusion
}

type Options struct {
	UndesirableSiteID int64
	RestrictedSiteIDs []int64
	SolverMaxNodes    int
	SwapIterationCap  int
}

// penaltyState holds the per-run progressive-penalty counters. It is owned by
// one Scheduler instance, never shared across runs.
type penaltyState struct {
	adminCounts map[int64]int32
	siteCounts  map[int64]map[int64]int32 // staffID -> siteID -> count
}

func newPenaltyState() *penaltyState {
	return &penaltyState{
		adminCounts: make(map[int64]int32),
		siteCounts:  make(map[int64]map[int64]int32),
	}
}

func (p *penaltyState) siteCount(staffID, siteID int64) int32 {
	return p.siteCounts[staffID][siteID]
}

func (p *penaltyState) recordSite(staffID, siteID int64) {
	if p.siteCounts[staffID] == nil {
		p.siteCounts[staffID] = make(map[int64]int32)
	}
	p.siteCounts[staffID][siteID]++
}

func (p *penaltyState) recordAdmin(staffID int64) {
	p.adminCounts[staffID]++
}
