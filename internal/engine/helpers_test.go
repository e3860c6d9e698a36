package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talgya/vaultsim/internal/config"
	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/vault"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// quietTunables turns off every random side system so a test only sees what
// it sets up.
func quietTunables() config.Tunables {
	cfg := config.Default()
	cfg.Incidents.BaseChancePerTick = 0
	cfg.Breeding.ConceptionScale = 0
	return cfg
}

type fixture struct {
	sim   *Simulation
	store *MemoryStore
	clock *FakeClock
	st    *vault.State
}

func newFixture(t *testing.T, cfg config.Tunables, rng entropy.Source) *fixture {
	t.Helper()
	store := NewMemoryStore()
	clock := NewFakeClock(epoch)
	sim, err := New(cfg, store,
		WithClock(clock),
		WithRandom(func(string) entropy.Source { return rng }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)

	v := vault.NewVault("Test", 111, 1, epoch)
	return &fixture{sim: sim, store: store, clock: clock, st: vault.NewState(v, 10)}
}

func (f *fixture) room(t *testing.T, kind vault.Kind, floor, column, size int) *vault.Room {
	t.Helper()
	r, err := vault.NewRoom(f.st.Vault.ID, kind, floor, column, size, 1)
	require.NoError(t, err)
	f.st.Rooms = append(f.st.Rooms, r)
	return r
}

func (f *fixture) dweller(name string, g vault.Gender, sp vault.Special) *vault.Dweller {
	d := &vault.Dweller{
		ID:        vault.NewID(),
		VaultID:   f.st.Vault.ID,
		FirstName: name,
		Gender:    g,
		AgeGroup:  vault.Adult,
		BornAt:    epoch.Add(-24 * time.Hour),
		Status:    vault.StatusIdle,
		Special:   sp,
		Level:     1,
		Health:    100,
		MaxHealth: 100,
		Happiness: 50,
	}
	f.st.Dwellers = append(f.st.Dwellers, d)
	return d
}

// place puts a dweller in a room during setup.
func place(d *vault.Dweller, r *vault.Room) {
	d.RoomID = vault.StrPtr(r.ID)
	d.Status = r.StatusFor()
}

// save commits the setup state to the store.
func (f *fixture) save(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), f.st))
}

func (f *fixture) view(t *testing.T) *vault.State {
	t.Helper()
	st, err := f.store.View(context.Background(), f.st.Vault.ID)
	require.NoError(t, err)
	return st
}

func (f *fixture) tick(t *testing.T, at time.Time) TickResult {
	t.Helper()
	res, err := f.sim.Tick(context.Background(), f.st.Vault.ID, at)
	require.NoError(t, err)
	return res
}

func stats(n int) vault.Special {
	return vault.Special{Strength: n, Perception: n, Endurance: n, Charisma: n, Intelligence: n, Agility: n, Luck: n}
}
