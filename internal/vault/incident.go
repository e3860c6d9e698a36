package vault

import "time"

// IncidentType is a room hazard.
type IncidentType string

const (
	Fire       IncidentType = "fire"
	Radroaches IncidentType = "radroaches"
	Raiders    IncidentType = "raiders"
)

// IncidentTypes lists the hazards in canonical order.
var IncidentTypes = [3]IncidentType{Fire, Radroaches, Raiders}

// Stat is the SPECIAL stat dwellers use to fight this hazard.
func (t IncidentType) Stat() Stat {
	switch t {
	case Fire:
		return Endurance
	case Radroaches:
		return Strength
	default:
		return Perception
	}
}

// BurnoutLoss is the resource an unchecked incident eats on resolution.
func (t IncidentType) BurnoutLoss() (Resource, float64) {
	switch t {
	case Fire:
		return Power, 50
	case Radroaches:
		return Food, 50
	default:
		return Caps, 100
	}
}

type Outcome string

const (
	Contained Outcome = "contained"
	Burnout   Outcome = "burnout"
)

// Incident is an active or resolved hazard in one room.
type Incident struct {
	ID             string       `json:"id"`
	VaultID        string       `json:"vault_id"`
	RoomID         string       `json:"room_id"`
	Type           IncidentType `json:"type"`
	Severity       int          `json:"severity"`
	Strength       float64      `json:"strength"`
	StartTime      time.Time    `json:"start_time"`
	EndTime        *time.Time   `json:"end_time,omitempty"`
	LastSpreadTime time.Time    `json:"last_spread_time"`
	Outcome        Outcome      `json:"outcome,omitempty"`
}

// Active reports whether the incident is unresolved.
func (i *Incident) Active() bool {
	return i.EndTime == nil
}
