package vault

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/talgya/vaultsim/internal/errs"
)

// ExplorationStatus is the lifecycle of a wasteland trip.
type ExplorationStatus string

const (
	ExplorationActive    ExplorationStatus = "active"
	ExplorationCompleted ExplorationStatus = "completed"
	ExplorationRecalled  ExplorationStatus = "recalled"
)

// EventKind tags an entry in an exploration log.
type EventKind string

const (
	EventCombat EventKind = "combat"
	EventLoot   EventKind = "loot"
	EventDanger EventKind = "danger"
	EventRest   EventKind = "rest"
)

// Payload is the typed body of a log entry. Only the four event structs below
// implement it.
type Payload interface {
	Kind() EventKind
	Describe() string
}

type CombatEvent struct {
	Enemy       string  `json:"enemy"`
	Difficulty  int     `json:"difficulty"`
	DamageTaken float64 `json:"damage_taken"`
	Caps        int     `json:"caps"`
}

type LootEvent struct {
	Item *Item `json:"item,omitempty"`
	Caps int   `json:"caps"`
}

type DangerEvent struct {
	Hazard      string  `json:"hazard"`
	DamageTaken float64 `json:"damage_taken"`
}

type RestEvent struct {
	Healed float64 `json:"healed"`
}

func (CombatEvent) Kind() EventKind { return EventCombat }
func (LootEvent) Kind() EventKind   { return EventLoot }
func (DangerEvent) Kind() EventKind { return EventDanger }
func (RestEvent) Kind() EventKind   { return EventRest }

func (e CombatEvent) Describe() string {
	return fmt.Sprintf("defeated a %s, took %.0f damage and found %d caps", e.Enemy, e.DamageTaken, e.Caps)
}

func (e LootEvent) Describe() string {
	if e.Item == nil {
		return fmt.Sprintf("found %d caps", e.Caps)
	}
	return fmt.Sprintf("found %s %s (%s)", e.Item.Rarity, e.Item.Name, e.Item.Kind)
}

func (e DangerEvent) Describe() string {
	return fmt.Sprintf("ran into %s and took %.0f damage", e.Hazard, e.DamageTaken)
}

func (e RestEvent) Describe() string {
	return fmt.Sprintf("rested and recovered %.0f health", e.Healed)
}

// LogEntry is one timestamped record in an exploration log.
type LogEntry struct {
	At      time.Time
	Payload Payload
}

type logRecord struct {
	Type      EventKind       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

func (e LogEntry) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("log entry at %s has no payload", e.At)
	}
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(logRecord{Type: e.Payload.Kind(), Timestamp: e.At.UTC(), Payload: body})
}

func (e *LogEntry) UnmarshalJSON(data []byte) error {
	var rec logRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	var p Payload
	var err error
	switch rec.Type {
	case EventCombat:
		var v CombatEvent
		err = json.Unmarshal(rec.Payload, &v)
		p = v
	case EventLoot:
		var v LootEvent
		err = json.Unmarshal(rec.Payload, &v)
		p = v
	case EventDanger:
		var v DangerEvent
		err = json.Unmarshal(rec.Payload, &v)
		p = v
	case EventRest:
		var v RestEvent
		err = json.Unmarshal(rec.Payload, &v)
		p = v
	default:
		return fmt.Errorf("unknown exploration event type %q", rec.Type)
	}
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", rec.Type, err)
	}
	e.At = rec.Timestamp.UTC()
	e.Payload = p
	return nil
}

// EventLog is an immutable ordered sequence of log entries. Append returns a
// new log and leaves the receiver untouched.
type EventLog struct {
	entries []LogEntry
}

// NewEventLog builds a log from existing entries.
func NewEventLog(entries ...LogEntry) EventLog {
	return EventLog{entries: append([]LogEntry(nil), entries...)}
}

func (l EventLog) Append(e LogEntry) EventLog {
	next := make([]LogEntry, len(l.entries), len(l.entries)+1)
	copy(next, l.entries)
	return EventLog{entries: append(next, e)}
}

func (l EventLog) Len() int { return len(l.entries) }

// Entries returns a copy of the log.
func (l EventLog) Entries() []LogEntry {
	return append([]LogEntry(nil), l.entries...)
}

func (l EventLog) MarshalJSON() ([]byte, error) {
	if l.entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.entries)
}

func (l *EventLog) UnmarshalJSON(data []byte) error {
	var entries []LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	l.entries = entries
	return nil
}

// LootLog is an immutable ordered sequence of found items, in discovery order.
type LootLog struct {
	items []Item
}

// NewLootLog builds a loot log from existing items.
func NewLootLog(items ...Item) LootLog {
	return LootLog{items: append([]Item(nil), items...)}
}

func (l LootLog) Append(it Item) LootLog {
	next := make([]Item, len(l.items), len(l.items)+1)
	copy(next, l.items)
	return LootLog{items: append(next, it)}
}

func (l LootLog) Len() int { return len(l.items) }

// Items returns a copy of the loot.
func (l LootLog) Items() []Item {
	return append([]Item(nil), l.items...)
}

func (l LootLog) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l *LootLog) UnmarshalJSON(data []byte) error {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	l.items = items
	return nil
}

// RewardsSummary is what a returning explorer brings home.
type RewardsSummary struct {
	ExplorationID      string `json:"exploration_id"`
	DwellerID          string `json:"dweller_id"`
	Distance           int    `json:"distance"`
	EnemiesDefeated    int    `json:"enemies_defeated"`
	Experience         int    `json:"experience"`
	Caps               int    `json:"caps"`
	Items              []Item `json:"items"`
	TransferredItems   []Item `json:"transferred_items"`
	OverflowItems      []Item `json:"overflow_items"`
	ProgressPercentage int    `json:"progress_percentage"`
	RecalledEarly      bool   `json:"recalled_early"`
	LevelsGained       int    `json:"levels_gained"`
}

// Exploration is one dweller's trip into the wasteland.
type Exploration struct {
	ID              string            `json:"id"`
	VaultID         string            `json:"vault_id"`
	DwellerID       string            `json:"dweller_id"`
	Status          ExplorationStatus `json:"status"`
	StartTime       time.Time         `json:"start_time"`
	Duration        time.Duration     `json:"duration"`
	EndTime         *time.Time        `json:"end_time,omitempty"`
	Stats           Special           `json:"stats"`
	Events          EventLog          `json:"events"`
	Loot            LootLog           `json:"loot"`
	Caps            int               `json:"caps"`
	EnemiesDefeated int               `json:"enemies_defeated"`
	HealthLost      float64           `json:"health_lost"`
	NextEventAt     time.Time         `json:"next_event_at"`
	Rewards         *RewardsSummary   `json:"rewards,omitempty"`
}

// Active reports whether the trip is still running.
func (x *Exploration) Active() bool {
	return x.Status == ExplorationActive
}

// DueAt is when the full duration has elapsed.
func (x *Exploration) DueAt() time.Time {
	return x.StartTime.Add(x.Duration)
}

// Elapsed is the time spent out, capped at the duration.
func (x *Exploration) Elapsed(now time.Time) time.Duration {
	d := now.Sub(x.StartTime)
	if d < 0 {
		return 0
	}
	if d > x.Duration {
		return x.Duration
	}
	return d
}

// ProgressPercentage is floor(elapsed/duration*100), in [0, 100].
func (x *Exploration) ProgressPercentage(now time.Time) int {
	if x.Duration <= 0 {
		return 100
	}
	return int(int64(x.Elapsed(now)) * 100 / int64(x.Duration))
}

// Record appends an event to the log. Frozen logs reject appends.
func (x *Exploration) Record(at time.Time, p Payload) error {
	if !x.Active() {
		return errs.Invalidf("exploration %s is %s, event log is frozen", x.ID, x.Status)
	}
	x.Events = x.Events.Append(LogEntry{At: at.UTC(), Payload: p})
	return nil
}

// Collect appends an item to the loot log. Frozen logs reject appends.
func (x *Exploration) Collect(it Item) error {
	if !x.Active() {
		return errs.Invalidf("exploration %s is %s, loot is frozen", x.ID, x.Status)
	}
	x.Loot = x.Loot.Append(it)
	return nil
}
