package persistence

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/talgya/vaultsim/internal/vault"
)

// Rows mirror the tables one to one. Times are unix nanoseconds in UTC.

type vaultRow struct {
	ID            string        `db:"id"`
	Name          string        `db:"name"`
	Number        int           `db:"number"`
	Seed          int64         `db:"seed"`
	Power         float64       `db:"power"`
	PowerMax      float64       `db:"power_max"`
	Food          float64       `db:"food"`
	FoodMax       float64       `db:"food_max"`
	Water         float64       `db:"water"`
	WaterMax      float64       `db:"water_max"`
	Caps          float64       `db:"caps"`
	CapsMax       float64       `db:"caps_max"`
	Happiness     float64       `db:"happiness"`
	HappinessMax  float64       `db:"happiness_max"`
	LastTickTime  int64         `db:"last_tick_time"`
	IsPaused      bool          `db:"is_paused"`
	PausedAt      sql.NullInt64 `db:"paused_at"`
	ResumedAt     sql.NullInt64 `db:"resumed_at"`
	TotalGameTime int64         `db:"total_game_time"`
	StorageMax    int           `db:"storage_max"`
	CreatedAt     int64         `db:"created_at"`
}

type dwellerRow struct {
	ID                string         `db:"id"`
	VaultID           string         `db:"vault_id"`
	FirstName         string         `db:"first_name"`
	LastName          string         `db:"last_name"`
	Gender            string         `db:"gender"`
	AgeGroup          string         `db:"age_group"`
	BornAt            int64          `db:"born_at"`
	MotherID          sql.NullString `db:"mother_id"`
	FatherID          sql.NullString `db:"father_id"`
	Status            string         `db:"status"`
	SpecialJSON       string         `db:"special_json"`
	RoomID            sql.NullString `db:"room_id"`
	ReturnRoomID      sql.NullString `db:"return_room_id"`
	Level             int            `db:"level"`
	Experience        int            `db:"experience"`
	Health            float64        `db:"health"`
	MaxHealth         float64        `db:"max_health"`
	Happiness         float64        `db:"happiness"`
	TrainingProgress  int64          `db:"training_progress"`
	IsDead            bool           `db:"is_dead"`
	IsPermanentlyDead bool           `db:"is_permanently_dead"`
	DeathTimestamp    sql.NullInt64  `db:"death_timestamp"`
	DeathCause        string         `db:"death_cause"`
}

type roomRow struct {
	ID         string        `db:"id"`
	VaultID    string        `db:"vault_id"`
	Kind       string        `db:"kind"`
	Category   string        `db:"category"`
	Ability    string        `db:"ability"`
	Output     string        `db:"output"`
	BaseOutput float64       `db:"base_output"`
	Size       int           `db:"size"`
	Tier       int           `db:"tier"`
	Floor      int           `db:"floor"`
	Col        int           `db:"col"`
	RushedAt   sql.NullInt64 `db:"rushed_at"`
}

type explorationRow struct {
	ID              string         `db:"id"`
	VaultID         string         `db:"vault_id"`
	DwellerID       string         `db:"dweller_id"`
	Status          string         `db:"status"`
	StartTime       int64          `db:"start_time"`
	Duration        int64          `db:"duration"`
	EndTime         sql.NullInt64  `db:"end_time"`
	StatsJSON       string         `db:"stats_json"`
	EventsJSON      string         `db:"events_json"`
	LootJSON        string         `db:"loot_json"`
	Caps            int            `db:"caps"`
	EnemiesDefeated int            `db:"enemies_defeated"`
	HealthLost      float64        `db:"health_lost"`
	NextEventAt     int64          `db:"next_event_at"`
	RewardsJSON     sql.NullString `db:"rewards_json"`
}

type pregnancyRow struct {
	ID          string         `db:"id"`
	VaultID     string         `db:"vault_id"`
	MotherID    string         `db:"mother_id"`
	FatherID    string         `db:"father_id"`
	ConceivedAt int64          `db:"conceived_at"`
	DueAt       int64          `db:"due_at"`
	Status      string         `db:"status"`
	ChildID     sql.NullString `db:"child_id"`
}

type incidentRow struct {
	ID             string        `db:"id"`
	VaultID        string        `db:"vault_id"`
	RoomID         string        `db:"room_id"`
	Type           string        `db:"type"`
	Severity       int           `db:"severity"`
	Strength       float64       `db:"strength"`
	StartTime      int64         `db:"start_time"`
	EndTime        sql.NullInt64 `db:"end_time"`
	LastSpreadTime int64         `db:"last_spread_time"`
	Outcome        string        `db:"outcome"`
}

type itemRow struct {
	ID      string `db:"id"`
	VaultID string `db:"vault_id"`
	Name    string `db:"name"`
	Kind    string `db:"kind"`
	Rarity  string `db:"rarity"`
	Value   int    `db:"value"`
	FoundAt int64  `db:"found_at"`
}

type relationshipRow struct {
	VaultID  string `db:"vault_id"`
	A        string `db:"a"`
	B        string `db:"b"`
	Affinity int    `db:"affinity"`
}

type eventRow struct {
	ID          string `db:"id"`
	VaultID     string `db:"vault_id"`
	At          int64  `db:"at"`
	Category    string `db:"category"`
	Description string `db:"description"`
	MetaJSON    string `db:"meta_json"`
}

func nanos(t time.Time) int64 { return t.UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func newVaultRow(v vault.Vault, storageMax int) vaultRow {
	r := v.Resources
	gs := v.GameState
	return vaultRow{
		ID: v.ID, Name: v.Name, Number: v.Number, Seed: v.Seed,
		Power: r.Power.Current, PowerMax: r.Power.Max,
		Food: r.Food.Current, FoodMax: r.Food.Max,
		Water: r.Water.Current, WaterMax: r.Water.Max,
		Caps: r.Caps.Current, CapsMax: r.Caps.Max,
		Happiness: r.Happiness.Current, HappinessMax: r.Happiness.Max,
		LastTickTime:  nanos(gs.LastTickTime),
		IsPaused:      gs.IsPaused,
		PausedAt:      nullNanos(gs.PausedAt),
		ResumedAt:     nullNanos(gs.ResumedAt),
		TotalGameTime: int64(gs.TotalGameTime),
		StorageMax:    storageMax,
		CreatedAt:     nanos(v.CreatedAt),
	}
}

func (r vaultRow) toVault() vault.Vault {
	return vault.Vault{
		ID: r.ID, Name: r.Name, Number: r.Number, Seed: r.Seed,
		Resources: vault.Resources{
			Power:     vault.Counter{Current: r.Power, Max: r.PowerMax},
			Food:      vault.Counter{Current: r.Food, Max: r.FoodMax},
			Water:     vault.Counter{Current: r.Water, Max: r.WaterMax},
			Caps:      vault.Counter{Current: r.Caps, Max: r.CapsMax},
			Happiness: vault.Counter{Current: r.Happiness, Max: r.HappinessMax},
		},
		GameState: vault.GameState{
			LastTickTime:  fromNanos(r.LastTickTime),
			IsPaused:      r.IsPaused,
			PausedAt:      fromNullNanos(r.PausedAt),
			ResumedAt:     fromNullNanos(r.ResumedAt),
			TotalGameTime: time.Duration(r.TotalGameTime),
		},
		CreatedAt: fromNanos(r.CreatedAt),
	}
}

func newDwellerRow(d *vault.Dweller) (dwellerRow, error) {
	special, err := toJSON(d.Special)
	if err != nil {
		return dwellerRow{}, fmt.Errorf("dweller %s special: %w", d.ID, err)
	}
	return dwellerRow{
		ID: d.ID, VaultID: d.VaultID,
		FirstName: d.FirstName, LastName: d.LastName,
		Gender: string(d.Gender), AgeGroup: string(d.AgeGroup),
		BornAt:   nanos(d.BornAt),
		MotherID: nullString(d.MotherID), FatherID: nullString(d.FatherID),
		Status:      string(d.Status),
		SpecialJSON: special,
		RoomID:      nullString(d.RoomID), ReturnRoomID: nullString(d.ReturnRoomID),
		Level: d.Level, Experience: d.Experience,
		Health: d.Health, MaxHealth: d.MaxHealth, Happiness: d.Happiness,
		TrainingProgress:  int64(d.TrainingProgress),
		IsDead:            d.IsDead,
		IsPermanentlyDead: d.IsPermanentlyDead,
		DeathTimestamp:    nullNanos(d.DeathTimestamp),
		DeathCause:        d.DeathCause,
	}, nil
}

func (r dwellerRow) toDweller() (*vault.Dweller, error) {
	var sp vault.Special
	if err := json.Unmarshal([]byte(r.SpecialJSON), &sp); err != nil {
		return nil, fmt.Errorf("dweller %s special: %w", r.ID, err)
	}
	return &vault.Dweller{
		ID: r.ID, VaultID: r.VaultID,
		FirstName: r.FirstName, LastName: r.LastName,
		Gender: vault.Gender(r.Gender), AgeGroup: vault.AgeGroup(r.AgeGroup),
		BornAt:   fromNanos(r.BornAt),
		MotherID: fromNullString(r.MotherID), FatherID: fromNullString(r.FatherID),
		Status:  vault.Status(r.Status),
		Special: sp,
		RoomID:  fromNullString(r.RoomID), ReturnRoomID: fromNullString(r.ReturnRoomID),
		Level: r.Level, Experience: r.Experience,
		Health: r.Health, MaxHealth: r.MaxHealth, Happiness: r.Happiness,
		TrainingProgress:  time.Duration(r.TrainingProgress),
		IsDead:            r.IsDead,
		IsPermanentlyDead: r.IsPermanentlyDead,
		DeathTimestamp:    fromNullNanos(r.DeathTimestamp),
		DeathCause:        r.DeathCause,
	}, nil
}

func newRoomRow(r *vault.Room) roomRow {
	return roomRow{
		ID: r.ID, VaultID: r.VaultID, Kind: string(r.Kind),
		Category: string(r.Category), Ability: string(r.Ability), Output: string(r.Output),
		BaseOutput: r.BaseOutput,
		Size:       r.Size, Tier: r.Tier, Floor: r.Floor, Col: r.Column,
		RushedAt: nullNanos(r.RushedAt),
	}
}

func (r roomRow) toRoom() *vault.Room {
	return &vault.Room{
		ID: r.ID, VaultID: r.VaultID, Kind: vault.Kind(r.Kind),
		Category: vault.Category(r.Category), Ability: vault.Stat(r.Ability), Output: vault.Resource(r.Output),
		BaseOutput: r.BaseOutput,
		Size:       r.Size, Tier: r.Tier, Floor: r.Floor, Column: r.Col,
		RushedAt: fromNullNanos(r.RushedAt),
	}
}

func newExplorationRow(x *vault.Exploration) (explorationRow, error) {
	stats, err := toJSON(x.Stats)
	if err != nil {
		return explorationRow{}, err
	}
	events, err := toJSON(x.Events)
	if err != nil {
		return explorationRow{}, fmt.Errorf("exploration %s events: %w", x.ID, err)
	}
	loot, err := toJSON(x.Loot)
	if err != nil {
		return explorationRow{}, fmt.Errorf("exploration %s loot: %w", x.ID, err)
	}
	var rewards sql.NullString
	if x.Rewards != nil {
		s, err := toJSON(x.Rewards)
		if err != nil {
			return explorationRow{}, err
		}
		rewards = sql.NullString{String: s, Valid: true}
	}
	return explorationRow{
		ID: x.ID, VaultID: x.VaultID, DwellerID: x.DwellerID,
		Status:    string(x.Status),
		StartTime: nanos(x.StartTime), Duration: int64(x.Duration),
		EndTime:   nullNanos(x.EndTime),
		StatsJSON: stats, EventsJSON: events, LootJSON: loot,
		Caps: x.Caps, EnemiesDefeated: x.EnemiesDefeated, HealthLost: x.HealthLost,
		NextEventAt: nanos(x.NextEventAt),
		RewardsJSON: rewards,
	}, nil
}

func (r explorationRow) toExploration() (*vault.Exploration, error) {
	x := &vault.Exploration{
		ID: r.ID, VaultID: r.VaultID, DwellerID: r.DwellerID,
		Status:    vault.ExplorationStatus(r.Status),
		StartTime: fromNanos(r.StartTime), Duration: time.Duration(r.Duration),
		EndTime: fromNullNanos(r.EndTime),
		Caps:    r.Caps, EnemiesDefeated: r.EnemiesDefeated, HealthLost: r.HealthLost,
		NextEventAt: fromNanos(r.NextEventAt),
	}
	if err := json.Unmarshal([]byte(r.StatsJSON), &x.Stats); err != nil {
		return nil, fmt.Errorf("exploration %s stats: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.EventsJSON), &x.Events); err != nil {
		return nil, fmt.Errorf("exploration %s events: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.LootJSON), &x.Loot); err != nil {
		return nil, fmt.Errorf("exploration %s loot: %w", r.ID, err)
	}
	if r.RewardsJSON.Valid {
		x.Rewards = &vault.RewardsSummary{}
		if err := json.Unmarshal([]byte(r.RewardsJSON.String), x.Rewards); err != nil {
			return nil, fmt.Errorf("exploration %s rewards: %w", r.ID, err)
		}
	}
	return x, nil
}

func newPregnancyRow(p *vault.Pregnancy) pregnancyRow {
	return pregnancyRow{
		ID: p.ID, VaultID: p.VaultID, MotherID: p.MotherID, FatherID: p.FatherID,
		ConceivedAt: nanos(p.ConceivedAt), DueAt: nanos(p.DueAt),
		Status: string(p.Status), ChildID: nullString(p.ChildID),
	}
}

func (r pregnancyRow) toPregnancy() *vault.Pregnancy {
	return &vault.Pregnancy{
		ID: r.ID, VaultID: r.VaultID, MotherID: r.MotherID, FatherID: r.FatherID,
		ConceivedAt: fromNanos(r.ConceivedAt), DueAt: fromNanos(r.DueAt),
		Status: vault.PregnancyStatus(r.Status), ChildID: fromNullString(r.ChildID),
	}
}

func newIncidentRow(i *vault.Incident) incidentRow {
	return incidentRow{
		ID: i.ID, VaultID: i.VaultID, RoomID: i.RoomID, Type: string(i.Type),
		Severity: i.Severity, Strength: i.Strength,
		StartTime: nanos(i.StartTime), EndTime: nullNanos(i.EndTime),
		LastSpreadTime: nanos(i.LastSpreadTime), Outcome: string(i.Outcome),
	}
}

func (r incidentRow) toIncident() *vault.Incident {
	return &vault.Incident{
		ID: r.ID, VaultID: r.VaultID, RoomID: r.RoomID, Type: vault.IncidentType(r.Type),
		Severity: r.Severity, Strength: r.Strength,
		StartTime: fromNanos(r.StartTime), EndTime: fromNullNanos(r.EndTime),
		LastSpreadTime: fromNanos(r.LastSpreadTime), Outcome: vault.Outcome(r.Outcome),
	}
}

func newItemRow(vaultID string, it vault.Item) itemRow {
	return itemRow{
		ID: it.ID, VaultID: vaultID, Name: it.Name,
		Kind: string(it.Kind), Rarity: string(it.Rarity), Value: it.Value,
		FoundAt: nanos(it.FoundAt),
	}
}

func (r itemRow) toItem() vault.Item {
	return vault.Item{
		ID: r.ID, Name: r.Name,
		Kind: vault.ItemKind(r.Kind), Rarity: vault.Rarity(r.Rarity), Value: r.Value,
		FoundAt: fromNanos(r.FoundAt),
	}
}

func newEventRow(e vault.Event) (eventRow, error) {
	meta := "{}"
	if len(e.Meta) > 0 {
		s, err := toJSON(e.Meta)
		if err != nil {
			return eventRow{}, fmt.Errorf("event %s meta: %w", e.ID, err)
		}
		meta = s
	}
	return eventRow{
		ID: e.ID, VaultID: e.VaultID, At: nanos(e.At),
		Category: e.Category, Description: e.Description, MetaJSON: meta,
	}, nil
}

func (r eventRow) toEvent() (vault.Event, error) {
	e := vault.Event{
		ID: r.ID, VaultID: r.VaultID, At: fromNanos(r.At),
		Category: r.Category, Description: r.Description,
	}
	if r.MetaJSON != "" && r.MetaJSON != "{}" {
		if err := json.Unmarshal([]byte(r.MetaJSON), &e.Meta); err != nil {
			return vault.Event{}, fmt.Errorf("event %s meta: %w", r.ID, err)
		}
	}
	return e, nil
}
