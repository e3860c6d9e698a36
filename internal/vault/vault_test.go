package vault

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/errs"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCounterClamp(t *testing.T) {
	c := Counter{Current: 120, Max: 100}
	c.Clamp()
	assert.Equal(t, 100.0, c.Current)

	c = Counter{Current: -4, Max: 100}
	c.Clamp()
	assert.Equal(t, 0.0, c.Current)
}

func TestSpecialWithClampsAndBest(t *testing.T) {
	s := Special{Strength: 3, Perception: 3, Endurance: 3, Charisma: 3, Intelligence: 3, Agility: 3, Luck: 3}
	s = s.With(Agility, 14)
	assert.Equal(t, 10, s.Agility)
	assert.Equal(t, Agility, s.Best())

	s = s.With(Luck, -2)
	assert.Equal(t, 1, s.Luck)
	assert.NoError(t, s.Validate())
	assert.Error(t, Special{}.Validate())
	assert.Equal(t, "S3 P3 E3 C3 I3 A10 L1", s.String())
}

func TestAddExperienceLevelsUp(t *testing.T) {
	d := &Dweller{Level: 1, MaxHealth: 110, Special: Special{Endurance: 5}}
	gained := d.AddExperience(250)
	assert.Equal(t, 1, gained)
	assert.Equal(t, 2, d.Level)
	assert.Equal(t, 115.0, d.MaxHealth)
	assert.Equal(t, 0, d.AddExperience(0))
}

func TestDamageRespectsFloor(t *testing.T) {
	d := &Dweller{Health: 10, MaxHealth: 100}
	lost := d.Damage(50, 1)
	assert.Equal(t, 1.0, d.Health)
	assert.Equal(t, 9.0, lost)

	d.Heal(500)
	assert.Equal(t, 100.0, d.Health)
}

func TestRelated(t *testing.T) {
	mom := &Dweller{ID: "m"}
	kid := &Dweller{ID: "k", MotherID: StrPtr("m")}
	sib := &Dweller{ID: "s", MotherID: StrPtr("m")}
	stranger := &Dweller{ID: "x"}

	assert.True(t, Related(mom, kid))
	assert.True(t, Related(kid, sib))
	assert.False(t, Related(mom, stranger))
}

func TestRoomCapacityAndAdjacency(t *testing.T) {
	a, err := NewRoom("v", Diner, 1, 0, 2, 1)
	require.NoError(t, err)
	b, err := NewRoom("v", PowerGenerator, 1, 2, 1, 1)
	require.NoError(t, err)
	c, err := NewRoom("v", WaterTreatment, 2, 2, 1, 1)
	require.NoError(t, err)

	assert.Equal(t, 4, a.Capacity())
	assert.Equal(t, StatusWorking, a.StatusFor())
	assert.True(t, a.Adjacent(b))
	assert.True(t, b.Adjacent(a))
	assert.False(t, b.Adjacent(c))

	assert.False(t, a.Powered(true))
	assert.True(t, b.Powered(true))

	_, err = NewRoom("v", Diner, 0, 0, 4, 1)
	assert.Error(t, err)
}

func TestStorageUsedSpace(t *testing.T) {
	s := Storage{MaxSpace: 3, Items: []Item{{Kind: Weapon}, {Kind: Junk}, {Kind: "stimpak"}}}
	assert.Equal(t, 2, s.UsedSpace())
	assert.Equal(t, 1, s.Available())
}

func TestEventLogAppendIsImmutable(t *testing.T) {
	base := NewEventLog()
	one := base.Append(LogEntry{At: t0, Payload: RestEvent{Healed: 5}})
	two := one.Append(LogEntry{At: t0.Add(time.Minute), Payload: DangerEvent{Hazard: "radstorm"}})

	assert.Equal(t, 0, base.Len())
	assert.Equal(t, 1, one.Len())
	assert.Equal(t, 2, two.Len())

	entries := two.Entries()
	entries[0].Payload = CombatEvent{}
	assert.Equal(t, EventRest, two.Entries()[0].Payload.Kind())
}

func TestEventLogJSONIsTagged(t *testing.T) {
	log := NewEventLog(
		LogEntry{At: t0, Payload: CombatEvent{Enemy: "mole rat", Difficulty: 1, DamageTaken: 2, Caps: 4}},
		LogEntry{At: t0.Add(time.Minute), Payload: LootEvent{Caps: 7}},
	)
	data, err := json.Marshal(log)
	require.NoError(t, err)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Len(t, raw, 2)
	assert.Equal(t, "combat", raw[0]["type"])
	assert.Contains(t, raw[0], "timestamp")
	assert.Contains(t, raw[0], "payload")

	var back EventLog
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, 2, back.Len())
	assert.Equal(t, CombatEvent{Enemy: "mole rat", Difficulty: 1, DamageTaken: 2, Caps: 4}, back.Entries()[0].Payload)
	assert.True(t, back.Entries()[1].At.Equal(t0.Add(time.Minute)))

	var bad LogEntry
	assert.Error(t, json.Unmarshal([]byte(`{"type":"party","timestamp":"2026-03-01T12:00:00Z","payload":{}}`), &bad))
}

func TestExplorationFrozenAfterTermination(t *testing.T) {
	x := &Exploration{ID: "x", Status: ExplorationActive, StartTime: t0, Duration: 4 * time.Hour}
	require.NoError(t, x.Record(t0, RestEvent{}))
	require.NoError(t, x.Collect(Item{Name: "pipe"}))

	x.Status = ExplorationRecalled
	err := x.Record(t0, RestEvent{})
	assert.ErrorIs(t, err, errs.InvalidState)
	assert.ErrorIs(t, x.Collect(Item{}), errs.InvalidState)
	assert.Equal(t, 1, x.Events.Len())
	assert.Equal(t, 1, x.Loot.Len())
}

func TestExplorationProgress(t *testing.T) {
	x := &Exploration{StartTime: t0, Duration: 4 * time.Hour}
	assert.Equal(t, 0, x.ProgressPercentage(t0.Add(-time.Hour)))
	assert.Equal(t, 50, x.ProgressPercentage(t0.Add(2*time.Hour)))
	assert.Equal(t, 33, x.ProgressPercentage(t0.Add(80*time.Minute)))
	assert.Equal(t, 100, x.ProgressPercentage(t0.Add(9*time.Hour)))
}

func TestStateCloneIsDeep(t *testing.T) {
	v := NewVault("Vault", 101, 1, t0)
	s := NewState(v, 10)
	room, err := NewRoom(v.ID, LivingQuarters, 1, 0, 1, 1)
	require.NoError(t, err)
	s.Rooms = append(s.Rooms, room)
	d := NewSpawner(entropy.NewSeeded(1)).Arrival(v.ID, t0)
	d.RoomID = StrPtr(room.ID)
	s.Dwellers = append(s.Dwellers, d)
	s.Relationship(d.ID, "other").Affinity = 10
	s.Emit(t0, "test", "hello", map[string]any{"k": 1})

	c := s.Clone()
	c.Dwellers[0].Health = 1
	*c.Dwellers[0].RoomID = "elsewhere"
	c.Rooms[0].Tier = 3
	c.Relationships[0].Affinity = 99
	c.Outbox[0].Meta["k"] = 2
	c.Vault.Resources.Power.Current = 0

	assert.NotEqual(t, 1.0, s.Dwellers[0].Health)
	assert.Equal(t, room.ID, *s.Dwellers[0].RoomID)
	assert.Equal(t, 1, s.Rooms[0].Tier)
	assert.Equal(t, 10, s.Relationships[0].Affinity)
	assert.Equal(t, 1, s.Outbox[0].Meta["k"])
	assert.Equal(t, 500.0, s.Vault.Resources.Power.Current)
	assert.Equal(t, 8, s.PopulationCapacity())
	assert.Len(t, s.Occupants(room.ID), 1)
}

func TestSpawnerChildAveragesParents(t *testing.T) {
	sp := NewSpawner(entropy.NewSeeded(3))
	mom := &Dweller{ID: "m", VaultID: "v", LastName: "Baker", Special: Special{Strength: 5, Perception: 2, Endurance: 1, Charisma: 9, Intelligence: 4, Agility: 4, Luck: 10}}
	dad := &Dweller{ID: "d", VaultID: "v", LastName: "Nolan", Special: Special{Strength: 6, Perception: 3, Endurance: 1, Charisma: 2, Intelligence: 4, Agility: 7, Luck: 1}}

	kid := sp.Child(mom, dad, t0)
	assert.Equal(t, Special{Strength: 5, Perception: 2, Endurance: 1, Charisma: 5, Intelligence: 4, Agility: 5, Luck: 5}, kid.Special)
	assert.Equal(t, Child, kid.AgeGroup)
	assert.Equal(t, "Nolan", kid.LastName)
	assert.Equal(t, "m", *kid.MotherID)
	assert.Equal(t, "d", *kid.FatherID)
	assert.Equal(t, kid.MaxHealth, kid.Health)

	adult := sp.Arrival("v", t0)
	assert.Equal(t, Adult, adult.AgeGroup)
	assert.NoError(t, adult.Special.Validate())
}
