package vault

import (
	"fmt"
	"time"
)

// Category groups rooms by what they do for the vault.
type Category string

const (
	Production Category = "production"
	Training   Category = "training"
	Capacity   Category = "capacity"
	Misc       Category = "misc"
)

// Kind identifies a concrete room type.
type Kind string

const (
	PowerGenerator Kind = "power_generator"
	Diner          Kind = "diner"
	WaterTreatment Kind = "water_treatment"
	LivingQuarters Kind = "living_quarters"
	StorageRoom    Kind = "storage_room"
	WeightRoom     Kind = "weight_room"
	Armory         Kind = "armory"
	FitnessRoom    Kind = "fitness_room"
	Lounge         Kind = "lounge"
	Classroom      Kind = "classroom"
	AthleticsRoom  Kind = "athletics_room"
	GameRoom       Kind = "game_room"
	OverseerOffice Kind = "overseer_office"
)

// HousingPerSize is how many dwellers one unit of living quarters houses.
const HousingPerSize = 8

// StoragePerSize is how many items one unit of storage room holds.
const StoragePerSize = 10

// Blueprint is the static description of a room kind.
type Blueprint struct {
	Category   Category
	Ability    Stat
	Output     Resource
	BaseOutput float64
}

// Blueprints lists every buildable room kind.
var Blueprints = map[Kind]Blueprint{
	PowerGenerator: {Category: Production, Ability: Strength, Output: Power, BaseOutput: 1.0},
	Diner:          {Category: Production, Ability: Agility, Output: Food, BaseOutput: 1.0},
	WaterTreatment: {Category: Production, Ability: Perception, Output: Water, BaseOutput: 1.0},
	LivingQuarters: {Category: Capacity, Ability: Charisma},
	StorageRoom:    {Category: Capacity, Ability: Endurance},
	WeightRoom:     {Category: Training, Ability: Strength},
	Armory:         {Category: Training, Ability: Perception},
	FitnessRoom:    {Category: Training, Ability: Endurance},
	Lounge:         {Category: Training, Ability: Charisma},
	Classroom:      {Category: Training, Ability: Intelligence},
	AthleticsRoom:  {Category: Training, Ability: Agility},
	GameRoom:       {Category: Training, Ability: Luck},
	OverseerOffice: {Category: Misc},
}

// Room is a built room in the vault grid. A room occupies columns
// [Column, Column+Size) on its floor.
type Room struct {
	ID         string     `json:"id"`
	VaultID    string     `json:"vault_id"`
	Kind       Kind       `json:"kind"`
	Category   Category   `json:"category"`
	Ability    Stat       `json:"ability,omitempty"`
	Output     Resource   `json:"output,omitempty"`
	BaseOutput float64    `json:"base_output"`
	Size       int        `json:"size"` // merged width 1..3
	Tier       int        `json:"tier"` // 1..3
	Floor      int        `json:"floor"`
	Column     int        `json:"column"`
	RushedAt   *time.Time `json:"rushed_at,omitempty"`
}

// NewRoom builds a room of the given kind at a grid position.
func NewRoom(vaultID string, kind Kind, floor, column, size, tier int) (*Room, error) {
	bp, ok := Blueprints[kind]
	if !ok {
		return nil, fmt.Errorf("unknown room kind %q", kind)
	}
	if size < 1 || size > 3 {
		return nil, fmt.Errorf("room size %d out of range [1, 3]", size)
	}
	if tier < 1 || tier > 3 {
		return nil, fmt.Errorf("room tier %d out of range [1, 3]", tier)
	}
	return &Room{
		ID:         NewID(),
		VaultID:    vaultID,
		Kind:       kind,
		Category:   bp.Category,
		Ability:    bp.Ability,
		Output:     bp.Output,
		BaseOutput: bp.BaseOutput,
		Size:       size,
		Tier:       tier,
		Floor:      floor,
		Column:     column,
	}, nil
}

// Capacity is the number of dwellers that can be assigned.
func (r *Room) Capacity() int {
	return 2 * r.Size
}

// Housing is the population this room supports.
func (r *Room) Housing() int {
	if r.Kind != LivingQuarters {
		return 0
	}
	return HousingPerSize * r.Size
}

// StorageSpace is the item capacity this room adds.
func (r *Room) StorageSpace() int {
	if r.Kind != StorageRoom {
		return 0
	}
	return StoragePerSize * r.Size
}

// Powered reports whether the room runs during a tick. During an outage only
// rooms driven by Strength keep working.
func (r *Room) Powered(outage bool) bool {
	return !outage || r.Ability == Strength
}

// Adjacent reports whether two rooms touch side by side on the same floor.
func (r *Room) Adjacent(o *Room) bool {
	if r.ID == o.ID || r.Floor != o.Floor {
		return false
	}
	return r.Column+r.Size == o.Column || o.Column+o.Size == r.Column
}

// StatusFor is the status a dweller takes when assigned here.
func (r *Room) StatusFor() Status {
	switch r.Category {
	case Production:
		return StatusWorking
	case Training:
		return StatusTraining
	default:
		return StatusIdle
	}
}
