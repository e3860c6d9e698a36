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

func TestRushFailureChance(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	assert.InDelta(t, 0.25, f.sim.RushFailureChance(5, 5), 1e-9)
	assert.InDelta(t, 0.1, f.sim.RushFailureChance(10, 10), 1e-9)
	assert.InDelta(t, 0.05, f.sim.RushFailureChance(15, 10), 1e-9)
}

func TestRushSuccess(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	place(f.dweller("Alma", vault.Female, stats(5)), diner)
	f.save(t)
	ctx := context.Background()

	res, err := f.sim.RushRoom(ctx, diner.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.InDelta(t, 0.25, res.FailureChance, 1e-9)
	// 0.5 food a second for ten minutes.
	assert.InDelta(t, 300, res.Credited, 1e-9)
	assert.InDelta(t, 800, f.view(t).Vault.Resources.Food.Current, 1e-9)

	f.clock.Advance(10 * time.Minute)
	_, err = f.sim.RushRoom(ctx, diner.ID)
	assert.ErrorIs(t, err, errs.NotEligible)

	f.clock.Advance(20 * time.Minute)
	_, err = f.sim.RushRoom(ctx, diner.ID)
	assert.NoError(t, err)
}

func TestRushBackfires(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.1))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	place(f.dweller("Alma", vault.Female, stats(5)), diner)
	f.save(t)

	res, err := f.sim.RushRoom(context.Background(), diner.ID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.NotNil(t, res.Incident)
	assert.Equal(t, vault.Fire, res.Incident.Type)

	st := f.view(t)
	assert.NotNil(t, st.ActiveIncident(diner.ID))
	assert.NotNil(t, st.Room(diner.ID).RushedAt)
	assert.Equal(t, 500.0, st.Vault.Resources.Food.Current)

	_, err = f.sim.RushRoom(context.Background(), diner.ID)
	assert.ErrorIs(t, err, errs.InvalidState)
}

func TestRushRefusals(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	f.st.Vault.Resources.Power.Current = 0
	diner := f.room(t, vault.Diner, 1, 0, 1)
	place(f.dweller("Alma", vault.Female, stats(5)), diner)
	gen := f.room(t, vault.PowerGenerator, 1, 1, 1)
	lq := f.room(t, vault.LivingQuarters, 2, 0, 1)
	f.save(t)
	ctx := context.Background()

	_, err := f.sim.RushRoom(ctx, lq.ID)
	assert.ErrorIs(t, err, errs.InvalidState)
	_, err = f.sim.RushRoom(ctx, diner.ID)
	assert.ErrorIs(t, err, errs.InvalidState, "no power")
	_, err = f.sim.RushRoom(ctx, gen.ID)
	assert.ErrorIs(t, err, errs.NotEligible, "nobody working")
	_, err = f.sim.RushRoom(ctx, "nowhere")
	assert.ErrorIs(t, err, errs.NotFound)
}
