package scheduler

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/solver"
	"github.com/planbloc-dev/secretariat-planner/backend/internal/utils"
)

// Scheduler runs the one-shot optimization pipeline for a set of target
// dates: room allocation, model build, solve, materialization. One instance
// per run; the progressive-penalty state it owns never leaks across runs.
type Scheduler struct {
	opts      Options
	input     *Input
	idx       *refIndex
	penalties *penaltyState
}

type RunResult struct {
	Feasible             bool
	Objective            float64
	RoomAssignments      []*domain.RoomAssignment
	Assignments          []*domain.Assignment
	UnassignedProcedures []int64
	UnmetDemand          []DemandUnit
}

func New(opts Options, input *Input) (*Scheduler, error) {
	if len(input.Dates) == 0 {
		return nil, fmt.Errorf("scheduler: no target dates")
	}

	// Explicit orderings everywhere iteration order could otherwise leak
	// into the output; the whole pipeline is deterministic given its input.
	slices.SortFunc(input.Dates, func(a, b time.Time) int { return a.Compare(b) })
	input.Dates = slices.CompactFunc(input.Dates, func(a, b time.Time) bool { return a.Equal(b) })

	// Target dates may be non-contiguous while loaders hand over min-to-max
	// ranges. Demand outside the requested dates is out of scope for the run:
	// it must get neither a room, nor variables, nor replaced rows.
	target := make(map[string]bool, len(input.Dates))
	for _, date := range input.Dates {
		target[domain.DateKey(date)] = true
	}
	input.Procedures = slices.DeleteFunc(input.Procedures, func(p *domain.Procedure) bool {
		return !target[domain.DateKey(p.Date)]
	})
	input.NeededSlots = slices.DeleteFunc(input.NeededSlots, func(ns domain.NeededSlot) bool {
		return !target[domain.DateKey(ns.Date)]
	})
	slices.SortFunc(input.Staff, func(a, b *domain.Staff) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(input.Rooms, func(a, b *domain.Room) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(input.MultiFlowConfigs, func(a, b *domain.MultiFlowConfig) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(input.Procedures, func(a, b *domain.Procedure) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := cmp.Compare(periodOrder(a.Period), periodOrder(b.Period)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	idx, err := buildIndex(input)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		opts:      opts,
		input:     input,
		idx:       idx,
		penalties: newPenaltyState(),
	}, nil
}

// Run executes the pipeline. An infeasible model is not an error: room
// assignments are kept and the result carries a false feasibility flag with
// zero staff assignments.
func (s *Scheduler) Run() (*RunResult, error) {
	rooms, roomed, unassignedProcs := s.allocateRooms()

	units := s.buildDemandUnits(roomed)
	bm := s.buildModel(units)

	res, err := solver.Solve(bm.model, solver.Options{MaxNodes: s.opts.SolverMaxNodes})
	if err != nil {
		slog.Warn("solver gave up before finding a solution", "error", err)
		return &RunResult{
			RoomAssignments:      rooms,
			UnassignedProcedures: unassignedProcs,
			UnmetDemand:          bm.unmet,
		}, nil
	}
	if !res.Feasible {
		slog.Warn("assignment model is infeasible",
			"variables", bm.model.NumVariables(), "constraints", bm.model.NumConstraints())
		return &RunResult{
			RoomAssignments:      rooms,
			UnassignedProcedures: unassignedProcs,
			UnmetDemand:          bm.unmet,
		}, nil
	}

	assignments := s.materialize(bm, res.Values)

	if err := s.checkInvariants(assignments, rooms); err != nil {
		return nil, err
	}

	return &RunResult{
		Feasible:             true,
		Objective:            res.Objective,
		RoomAssignments:      rooms,
		Assignments:          assignments,
		UnassignedProcedures: unassignedProcs,
		UnmetDemand:          bm.unmet,
	}, nil
}

func (s *Scheduler) checkInvariants(assignments []*domain.Assignment, rooms []*domain.RoomAssignment) error {
	if err := utils.ValidateNoDoubleBooking(assignments); err != nil {
		return err
	}
	if err := utils.ValidateRoomExclusivity(rooms); err != nil {
		return err
	}
	if err := utils.ValidateCompetencies(assignments, s.input.Staff); err != nil {
		return err
	}
	return utils.ValidateExclusions(assignments, s.input.Exclusions, s.input.Procedures, s.input.NeededSlots)
}
