package domain

import "time"

type InterventionType struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	PreferredRoomID *int64 `json:"preferredRoomID"`
}

// RoleRequirement states how many staff of a given theater role an
// intervention type needs per procedure.
type RoleRequirement struct {
	InterventionTypeID int64  `json:"interventionTypeID"`
	Role               string `json:"role"`
	Count              int32  `json:"count"`
}

// MultiFlowConfig groups intervention types that may share an associated room
// when their preferred room is taken.
type MultiFlowConfig struct {
	ID                  int64   `json:"id"`
	RoomID              int64   `json:"roomID"`
	InterventionTypeIDs []int64 `json:"interventionTypeIDs"`
}

func (c *MultiFlowConfig) ContainsInterventionType(id int64) bool {
	for _, t := range c.InterventionTypeIDs {
		if t == id {
			return true
		}
	}
	return false
}

// Procedure is a scheduled surgical procedure, one half-day period long.
type Procedure struct {
	ID                 int64     `json:"id"`
	Date               time.Time `json:"date"`
	Period             Period    `json:"period"`
	InterventionTypeID int64     `json:"interventionTypeID"`
	DoctorID           int64     `json:"doctorID"`
}
