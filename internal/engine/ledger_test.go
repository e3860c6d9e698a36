package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

func TestLedgerClampsAndSpends(t *testing.T) {
	res := vault.Resources{
		Power: vault.Counter{Current: 990, Max: 1000},
		Caps:  vault.Counter{Current: 50, Max: 999999},
	}
	l := NewLedger(&res)
	assert.False(t, l.Outage())

	assert.Equal(t, 10.0, l.Credit(vault.Power, 25))
	assert.Equal(t, 1000.0, res.Power.Current)
	assert.Equal(t, 1000.0, l.Debit(vault.Power, 5000))
	assert.Equal(t, 0.0, res.Power.Current)

	err := l.Spend(vault.Caps, 80)
	assert.ErrorIs(t, err, errs.NotEligible)
	assert.Equal(t, 50.0, res.Caps.Current)
	require.NoError(t, l.Spend(vault.Caps, 30))
	assert.Equal(t, 20.0, res.Caps.Current)

	assert.Equal(t, 10.0, l.Produced()[vault.Power])
	assert.Equal(t, 1030.0, l.Consumed()[vault.Power]+l.Consumed()[vault.Caps])
}

func TestOutageOnlyStrengthRoomsProduce(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	f.st.Vault.Resources.Power.Current = 0
	gen := f.room(t, vault.PowerGenerator, 1, 0, 2)
	diner := f.room(t, vault.Diner, 1, 2, 2)
	place(f.dweller("Gus", vault.Male, stats(5)), gen)
	place(f.dweller("Alma", vault.Female, stats(5)), diner)
	f.save(t)

	assert.Zero(t, f.sim.RoomOutput(f.st, diner, true))
	assert.InDelta(t, 0.5, f.sim.RoomOutput(f.st, gen, true), 1e-9)

	res := f.tick(t, epoch.Add(time.Minute))
	require.Equal(t, 1, res.ElapsedTicks)
	assert.Equal(t, 1, res.OutageTicks)
	assert.InDelta(t, 30, res.Produced[vault.Power], 1e-9)
	assert.Zero(t, res.Produced[vault.Food])

	st := f.view(t)
	// 30 produced, 4 room units * 0.01/s * 60s drained.
	assert.InDelta(t, 27.6, st.Vault.Resources.Power.Current, 1e-9)
	assert.InDelta(t, 499.4, st.Vault.Resources.Food.Current, 1e-9)
}

func TestPoweredTierMultiplier(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 2)
	diner.Tier = 3
	place(f.dweller("Alma", vault.Female, stats(4)), diner)
	place(f.dweller("Edna", vault.Female, stats(6)), diner)

	// 1.0 base * (4+6) agility * 0.1 * 2.0 tier.
	assert.InDelta(t, 2.0, f.sim.RoomOutput(f.st, diner, false), 1e-9)

	f.st.Incidents = append(f.st.Incidents, newIncident(f.st.Vault.ID, diner.ID, vault.Fire, 20, epoch))
	assert.Zero(t, f.sim.RoomOutput(f.st, diner, false))
}

func TestCountersStayClampedAcrossTicks(t *testing.T) {
	cfg := quietTunables()
	cfg.Incidents.BaseChancePerTick = 0.2
	cfg.Breeding.ConceptionScale = 1
	f := newFixture(t, cfg, entropy.NewSeeded(99))

	f.st.Vault.Resources.Food.Current = 995
	f.st.Vault.Resources.Power.Current = 3
	gen := f.room(t, vault.PowerGenerator, 1, 0, 1)
	diner := f.room(t, vault.Diner, 1, 1, 3)
	lq := f.room(t, vault.LivingQuarters, 2, 0, 3)
	place(f.dweller("Rex", vault.Male, stats(1)), gen)
	place(f.dweller("Mabel", vault.Female, stats(10)), diner)
	place(f.dweller("Walt", vault.Male, stats(10)), diner)
	place(f.dweller("June", vault.Female, stats(7)), lq)
	place(f.dweller("Otis", vault.Male, stats(7)), lq)
	explorer := f.dweller("Dusty", vault.Male, stats(3))
	f.save(t)

	_, err := f.sim.DispatchExploration(t.Context(), explorer.ID, 2)
	require.NoError(t, err)

	now := epoch
	for i := 0; i < 60; i++ {
		now = now.Add(7 * time.Minute)
		f.tick(t, now)
		st := f.view(t)
		for _, kind := range vault.ResourceKinds {
			c := st.Vault.Resources.Counter(kind)
			assert.GreaterOrEqual(t, c.Current, 0.0, "%s at step %d", kind, i)
			assert.LessOrEqual(t, c.Current, c.Max, "%s at step %d", kind, i)
		}
	}
}
