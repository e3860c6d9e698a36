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

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to vault.Status
		want     bool
	}{
		{vault.StatusIdle, vault.StatusWorking, true},
		{vault.StatusWorking, vault.StatusWorking, true},
		{vault.StatusWorking, vault.StatusExploring, true},
		{vault.StatusExploring, vault.StatusExploring, false},
		{vault.StatusExploring, vault.StatusResting, true},
		{vault.StatusDead, vault.StatusDead, false},
		{vault.StatusDead, vault.StatusExploring, false},
		{vault.StatusDead, vault.StatusResting, false},
		{vault.StatusDead, vault.StatusIdle, true},
		{vault.StatusTraining, vault.StatusDead, true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestEveryStatusHasAHandler(t *testing.T) {
	for from := range transitions {
		_, ok := handlers[from]
		assert.True(t, ok, "no handler for %s", from)
	}
}

func TestAssignRoom(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	gym := f.room(t, vault.WeightRoom, 1, 1, 1)
	lq := f.room(t, vault.LivingQuarters, 2, 0, 1)
	a := f.dweller("Alma", vault.Female, stats(5))
	b := f.dweller("Walt", vault.Male, stats(5))
	c := f.dweller("Gus", vault.Male, stats(5))
	kid := f.dweller("Pip", vault.Female, stats(1))
	kid.AgeGroup = vault.Child
	f.save(t)
	ctx := context.Background()

	got, err := f.sim.AssignRoom(ctx, a.ID, diner.ID)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusWorking, got.Status)
	_, err = f.sim.AssignRoom(ctx, b.ID, diner.ID)
	require.NoError(t, err)

	_, err = f.sim.AssignRoom(ctx, c.ID, diner.ID)
	assert.ErrorIs(t, err, errs.CapacityExceeded)
	assert.Equal(t, 507, errs.HTTPStatus(err))
	assert.ErrorContains(t, err, "is full (2/2)")

	got, err = f.sim.AssignRoom(ctx, a.ID, diner.ID)
	require.NoError(t, err, "reassigning to the same full room is fine")
	assert.Equal(t, vault.StatusWorking, got.Status)

	got, err = f.sim.AssignRoom(ctx, a.ID, gym.ID)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusTraining, got.Status)

	_, err = f.sim.AssignRoom(ctx, kid.ID, diner.ID)
	assert.ErrorIs(t, err, errs.InvalidState)
	got, err = f.sim.AssignRoom(ctx, kid.ID, lq.ID)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusIdle, got.Status)

	_, err = f.sim.AssignRoom(ctx, a.ID, "nowhere")
	assert.ErrorIs(t, err, errs.NotFound)
	_, err = f.sim.AssignRoom(ctx, "nobody", diner.ID)
	assert.ErrorIs(t, err, errs.NotFound)

	got, err = f.sim.UnassignRoom(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, vault.StatusIdle, got.Status)
	assert.Nil(t, got.RoomID)
	assert.Len(t, f.view(t).Occupants(diner.ID), 0)
}

func TestAssignRejectsExplorersAndTheDead(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	out := f.dweller("Dusty", vault.Male, stats(5))
	f.trip(out, time.Hour)
	dead := f.dweller("Lou", vault.Male, stats(5))
	corpse(dead, nil, epoch)
	f.save(t)
	ctx := context.Background()

	_, err := f.sim.AssignRoom(ctx, out.ID, diner.ID)
	assert.ErrorIs(t, err, errs.InvalidState)
	_, err = f.sim.AssignRoom(ctx, dead.ID, diner.ID)
	assert.ErrorIs(t, err, errs.InvalidState)
	_, err = f.sim.UnassignRoom(ctx, out.ID)
	assert.ErrorIs(t, err, errs.InvalidState)
}

func TestRestingDwellerReturnsToWork(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	d := f.dweller("Alma", vault.Female, stats(5))
	d.RoomID = vault.StrPtr(diner.ID)
	d.Status = vault.StatusResting
	d.Health = 91
	f.save(t)

	f.tick(t, epoch.Add(4*time.Minute))
	got := f.view(t).Dweller(d.ID)
	assert.Equal(t, vault.StatusResting, got.Status)
	assert.Equal(t, 99.0, got.Health)

	f.tick(t, epoch.Add(5*time.Minute))
	got = f.view(t).Dweller(d.ID)
	assert.Equal(t, vault.StatusWorking, got.Status)
	assert.Equal(t, 100.0, got.Health)
}

func TestExplorerComesHomeToRest(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	d := f.dweller("Dusty", vault.Male, stats(5))
	place(d, diner)
	f.trip(d, time.Hour)
	d.Health = 30
	f.save(t)

	f.tick(t, epoch.Add(time.Hour))
	got := f.view(t).Dweller(d.ID)
	assert.Equal(t, vault.StatusResting, got.Status)
	require.NotNil(t, got.RoomID)
	assert.Equal(t, diner.ID, *got.RoomID)
}

func TestHappinessFollowsDwellers(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	// Agility is Alma's best stat, so the diner suits her.
	place(f.dweller("Alma", vault.Female, vault.Special{Strength: 1, Perception: 1, Endurance: 1, Charisma: 1, Intelligence: 1, Agility: 9, Luck: 1}), diner)
	f.save(t)

	res := f.tick(t, epoch.Add(10*time.Minute))
	st := f.view(t)
	assert.Equal(t, 55.0, st.Dwellers[0].Happiness)
	assert.Equal(t, 55.0, st.Vault.Resources.Happiness.Current)
	assert.Zero(t, res.Produced[vault.Happiness], "mirroring dwellers is not production")
	assert.Zero(t, res.Consumed[vault.Happiness])
}
