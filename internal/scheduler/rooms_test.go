package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planbloc-dev/secretariat-planner/backend/internal/domain"
)

func TestAllocateRoomsFallbackChain(t *testing.T) {
	d1 := day(t, "2026-09-07")
	preferred := int64(2)

	input := &Input{
		Dates: []time.Time{d1},
		InterventionTypes: []*domain.InterventionType{
			{ID: 10, PreferredRoomID: &preferred},
		},
		MultiFlowConfigs: []*domain.MultiFlowConfig{
			{ID: 1, RoomID: 3, InterventionTypeIDs: []int64{10}},
		},
		Rooms: []*domain.Room{{ID: 1}, {ID: 2}, {ID: 3}},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
			{ID: 101, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
			{ID: 102, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
			{ID: 103, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
		},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	rooms, roomed, unassigned := s.allocateRooms()
	require.Len(t, rooms, 3)

	// Preferred room first, then the multi-flow room, then the lowest free id.
	assert.Equal(t, int64(2), roomed[100])
	assert.Equal(t, int64(3), roomed[101])
	assert.Equal(t, int64(1), roomed[102])
	assert.Equal(t, []int64{103}, unassigned)
}

func TestAllocateRoomsResetsPerHalfDay(t *testing.T) {
	d1 := day(t, "2026-09-07")
	preferred := int64(1)

	input := &Input{
		Dates: []time.Time{d1},
		InterventionTypes: []*domain.InterventionType{
			{ID: 10, PreferredRoomID: &preferred},
		},
		Rooms: []*domain.Room{{ID: 1}},
		Procedures: []*domain.Procedure{
			{ID: 100, Date: d1, Period: domain.PeriodMorning, InterventionTypeID: 10, DoctorID: 7},
			{ID: 101, Date: d1, Period: domain.PeriodAfternoon, InterventionTypeID: 10, DoctorID: 7},
		},
	}

	s, err := New(Options{}, input)
	require.NoError(t, err)

	_, roomed, unassigned := s.allocateRooms()

	// The same room serves both half-days: occupancy does not carry over.
	assert.Equal(t, int64(1), roomed[100])
	assert.Equal(t, int64(1), roomed[101])
	assert.Empty(t, unassigned)
}
