package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// corpse marks d dead at when, remembering room.
func corpse(d *vault.Dweller, room *vault.Room, when time.Time) {
	d.IsDead = true
	d.Status = vault.StatusDead
	d.Health = 0
	d.DeathTimestamp = vault.TimePtr(when)
	d.DeathCause = "radiation"
	d.RoomID = nil
	if room != nil {
		d.ReturnRoomID = vault.StrPtr(room.ID)
	}
}

func TestStarvationKills(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	f.st.Vault.Resources.Food.Current = 0
	lq := f.room(t, vault.LivingQuarters, 2, 0, 1)
	d := f.dweller("Mabel", vault.Female, stats(5))
	place(d, lq)
	d.Health = 1
	p := &vault.Pregnancy{
		ID: vault.NewID(), VaultID: f.st.Vault.ID, MotherID: d.ID, FatherID: "gone",
		ConceivedAt: epoch, DueAt: epoch.Add(time.Hour), Status: vault.Pregnant,
	}
	f.st.Pregnancies = append(f.st.Pregnancies, p)
	f.save(t)

	res := f.tick(t, epoch.Add(time.Minute))
	assert.Equal(t, 1, res.Deaths)

	st := f.view(t)
	dead := st.Dweller(d.ID)
	assert.True(t, dead.IsDead)
	assert.False(t, dead.IsPermanentlyDead)
	assert.Equal(t, vault.StatusDead, dead.Status)
	assert.Equal(t, "starvation", dead.DeathCause)
	assert.Equal(t, epoch.Add(time.Minute), *dead.DeathTimestamp)
	assert.Nil(t, dead.RoomID)
	require.NotNil(t, dead.ReturnRoomID)
	assert.Equal(t, lq.ID, *dead.ReturnRoomID)
	assert.Equal(t, vault.Lost, st.Pregnancy(p.ID).Status)

	grave, err := f.sim.Graveyard(context.Background(), f.st.Vault.ID)
	require.NoError(t, err)
	require.Len(t, grave, 1)
	assert.Equal(t, d.ID, grave[0].ID)
}

func TestPermanentDeathAfterWindow(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	d := f.dweller("Lou", vault.Male, stats(3))
	diedAt := epoch.Add(30 * time.Second)
	corpse(d, nil, diedAt)
	f.save(t)

	window := 72 * time.Hour
	res := f.tick(t, epoch.Add(window))
	assert.Zero(t, res.PermanentDeaths)
	still := f.view(t).Dweller(d.ID)
	assert.False(t, still.IsPermanentlyDead)
	assert.Equal(t, 1, f.sim.DaysUntilPermanent(still, epoch.Add(window)))

	res = f.tick(t, epoch.Add(window+time.Minute))
	assert.Equal(t, 1, res.PermanentDeaths)
	gone := f.view(t).Dweller(d.ID)
	assert.True(t, gone.IsPermanentlyDead)
	assert.Zero(t, f.sim.DaysUntilPermanent(gone, epoch.Add(window+time.Minute)))

	grave, err := f.sim.Graveyard(context.Background(), f.st.Vault.ID)
	require.NoError(t, err)
	assert.Len(t, grave, 1, "the permanently dead stay in the graveyard")
}

func TestDaysUntilPermanent(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	d := f.dweller("Lou", vault.Male, stats(3))
	assert.Zero(t, f.sim.DaysUntilPermanent(d, epoch))

	corpse(d, nil, epoch)
	assert.Equal(t, 3, f.sim.DaysUntilPermanent(d, epoch))
	assert.Equal(t, 3, f.sim.DaysUntilPermanent(d, epoch.Add(time.Hour)))
	assert.Equal(t, 1, f.sim.DaysUntilPermanent(d, epoch.Add(49*time.Hour)))
	assert.Zero(t, f.sim.DaysUntilPermanent(d, epoch.Add(72*time.Hour)))
}

func TestRevive(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	d := f.dweller("Lou", vault.Male, stats(3))
	d.Level = 2
	d.MaxHealth = 110
	corpse(d, diner, epoch)
	alive := f.dweller("Alma", vault.Female, stats(3))
	f.save(t)
	ctx := context.Background()

	assert.Equal(t, 140, f.sim.RevivalCost(d))

	_, err := f.sim.Revive(ctx, alive.ID)
	assert.ErrorIs(t, err, errs.InvalidState)
	_, err = f.sim.Revive(ctx, "nobody")
	assert.ErrorIs(t, err, errs.NotFound)

	f.clock.Set(epoch.Add(2 * time.Hour))
	back, err := f.sim.Revive(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, back.IsDead)
	assert.Equal(t, 110.0, back.Health)
	assert.Equal(t, vault.StatusWorking, back.Status)
	require.NotNil(t, back.RoomID)
	assert.Equal(t, diner.ID, *back.RoomID)
	assert.Nil(t, back.DeathTimestamp)

	st := f.view(t)
	assert.Equal(t, 360.0, st.Vault.Resources.Caps.Current)
	assert.Empty(t, st.Graveyard())
}

func TestReviveRefusals(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	f.st.Vault.Resources.Caps.Current = 50
	poor := f.dweller("Lou", vault.Male, stats(3))
	corpse(poor, nil, epoch)
	gone := f.dweller("Rex", vault.Male, stats(3))
	corpse(gone, nil, epoch.Add(-96*time.Hour))
	gone.IsPermanentlyDead = true
	late := f.dweller("Vera", vault.Female, stats(3))
	corpse(late, nil, epoch.Add(-72*time.Hour))
	f.save(t)
	ctx := context.Background()

	_, err := f.sim.Revive(ctx, poor.ID)
	assert.ErrorIs(t, err, errs.NotEligible)
	assert.True(t, f.view(t).Dweller(poor.ID).IsDead, "a failed revival changes nothing")
	assert.Equal(t, 50.0, f.view(t).Vault.Resources.Caps.Current)

	_, err = f.sim.Revive(ctx, gone.ID)
	assert.ErrorIs(t, err, errs.NotEligible)
	_, err = f.sim.Revive(ctx, late.ID)
	assert.ErrorIs(t, err, errs.NotEligible)
}
