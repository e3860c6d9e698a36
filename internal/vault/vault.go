// Package vault holds the domain model the engine advances: vaults and their
// resources, dwellers, rooms, explorations, pregnancies, incidents and storage.
// All timestamps are UTC.
package vault

import (
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

// Resource names one vault counter.
type Resource string

const (
	Power     Resource = "power"
	Food      Resource = "food"
	Water     Resource = "water"
	Caps      Resource = "caps"
	Happiness Resource = "happiness"
)

// ResourceKinds lists the counters in canonical order.
var ResourceKinds = [5]Resource{Power, Food, Water, Caps, Happiness}

// Counter is a bounded resource value. Current stays within [0, Max].
type Counter struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

// Clamp pulls Current back into [0, Max].
func (c *Counter) Clamp() {
	if c.Max < 0 {
		c.Max = 0
	}
	if c.Current < 0 {
		c.Current = 0
	}
	if c.Current > c.Max {
		c.Current = c.Max
	}
}

// Resources holds a vault's counters.
type Resources struct {
	Power     Counter `json:"power"`
	Food      Counter `json:"food"`
	Water     Counter `json:"water"`
	Caps      Counter `json:"caps"`
	Happiness Counter `json:"happiness"`
}

// Counter returns a pointer to the named counter, nil if unknown.
func (r *Resources) Counter(kind Resource) *Counter {
	switch kind {
	case Power:
		return &r.Power
	case Food:
		return &r.Food
	case Water:
		return &r.Water
	case Caps:
		return &r.Caps
	case Happiness:
		return &r.Happiness
	}
	return nil
}

// GameState tracks simulated time for a vault.
type GameState struct {
	LastTickTime  time.Time     `json:"last_tick_time"`
	IsPaused      bool          `json:"is_paused"`
	PausedAt      *time.Time    `json:"paused_at,omitempty"`
	ResumedAt     *time.Time    `json:"resumed_at,omitempty"`
	TotalGameTime time.Duration `json:"total_game_time"`
}

// Vault is one player's shelter.
type Vault struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Number    int       `json:"number"`
	Seed      int64     `json:"seed"`
	Resources Resources `json:"resources"`
	GameState GameState `json:"game_state"`
	CreatedAt time.Time `json:"created_at"`
}

// NewVault creates a vault with starter resources, ticking from now.
func NewVault(name string, number int, seed int64, now time.Time) *Vault {
	now = now.UTC()
	return &Vault{
		ID:     NewID(),
		Name:   name,
		Number: number,
		Seed:   seed,
		Resources: Resources{
			Power:     Counter{Current: 500, Max: 1000},
			Food:      Counter{Current: 500, Max: 1000},
			Water:     Counter{Current: 500, Max: 1000},
			Caps:      Counter{Current: 500, Max: 999999},
			Happiness: Counter{Current: 50, Max: 100},
		},
		GameState: GameState{LastTickTime: now},
		CreatedAt: now,
	}
}

// Event is a notable occurrence recorded for display and history.
type Event struct {
	ID          string         `json:"id"`
	VaultID     string         `json:"vault_id"`
	At          time.Time      `json:"at"`
	Category    string         `json:"category"` // "exploration", "birth", "death", "incident", ...
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
}
