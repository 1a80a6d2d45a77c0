package scheduler

import (
	"log/slog"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

// allocateRooms assigns a physical room to every scheduled procedure in a
// single greedy pass: preferred room first, then a multi-flow room for the
// intervention type, then any free room. Bookkeeping is local to each
// (date, period) — rooms reset every half-day. Procedures that cannot be
// placed are skipped, not fatal.
func (s *Scheduler) allocateRooms() ([]*domain.RoomAssignment, map[int64]int64, []int64) {
	var (
		result     []*domain.RoomAssignment
		roomed     = make(map[int64]int64)
		unassigned []int64
	)

	// Procedures are sorted by (date, period, id) in New, which makes the
	// discovery order stable across runs.
	used := make(map[int64]bool)
	currentSlot := slotKey{}

	for _, proc := range s.input.Procedures {
		slot := slotKey{domain.DateKey(proc.Date), proc.Period}
		if slot != currentSlot {
			used = make(map[int64]bool)
			currentSlot = slot
		}

		roomID, ok := s.pickRoom(proc, used)
		if !ok {
			slog.Warn("no free room for procedure",
				"procedure", proc.ID, "date", slot.Date, "period", proc.Period)
			unassigned = append(unassigned, proc.ID)
			continue
		}

		used[roomID] = true
		roomed[proc.ID] = roomID
		result = append(result, &domain.RoomAssignment{
			ProcedureID: proc.ID,
			Date:        proc.Date,
			Period:      proc.Period,
			RoomID:      roomID,
		})
	}

	return result, roomed, unassigned
}

func (s *Scheduler) pickRoom(proc *domain.Procedure, used map[int64]bool) (int64, bool) {
	// 1. The intervention type's preferred room.
	if it, ok := s.idx.interventions[proc.InterventionTypeID]; ok && it.PreferredRoomID != nil {
		if !used[*it.PreferredRoomID] {
			return *it.PreferredRoomID, true
		}
	}

	// 2. The room of a multi-flow configuration containing this type.
	for _, cfg := range s.input.MultiFlowConfigs {
		if cfg.ContainsInterventionType(proc.InterventionTypeID) && !used[cfg.RoomID] {
			return cfg.RoomID, true
		}
	}

	// 3. Any remaining free room, lowest id first.
	for _, room := range s.input.Rooms {
		if !used[room.ID] {
			return room.ID, true
		}
	}

	return 0, false
}
