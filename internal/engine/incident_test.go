package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/vault"
)

func TestContainChance(t *testing.T) {
	assert.Zero(t, ContainChance(0, 10))
	assert.InDelta(t, 0.5, ContainChance(10, 10), 1e-9)
	assert.InDelta(t, 0.8, ContainChance(40, 10), 1e-9)
}

func TestIncidentContained(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	place(f.dweller("Alma", vault.Female, stats(10)), diner)
	place(f.dweller("Walt", vault.Male, stats(10)), diner)
	inc := newIncident(f.st.Vault.ID, diner.ID, vault.Fire, 20, epoch)
	f.st.Incidents = append(f.st.Incidents, inc)
	f.save(t)

	res := f.tick(t, epoch.Add(time.Minute))
	assert.Equal(t, 1, res.IncidentsResolved)

	st := f.view(t)
	got := st.Incidents[0]
	assert.Equal(t, vault.Contained, got.Outcome)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, epoch.Add(time.Minute), *got.EndTime)
	assert.Equal(t, 525.0, st.Vault.Resources.Caps.Current)
	for _, d := range st.Dwellers {
		assert.Equal(t, 100.0, d.Health)
	}
}

func TestIncidentHurtsDwellers(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.99))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	d := f.dweller("Alma", vault.Female, stats(1))
	place(d, diner)
	f.st.Incidents = append(f.st.Incidents, newIncident(f.st.Vault.ID, diner.ID, vault.Radroaches, 20, epoch))
	f.save(t)

	res := f.tick(t, epoch.Add(time.Minute))
	assert.Zero(t, res.IncidentsResolved)
	assert.Zero(t, res.Produced[vault.Food], "rooms on fire make nothing")
	assert.Equal(t, 98.0, f.view(t).Dweller(d.ID).Health)
}

func TestIncidentEscalatesThenSpreads(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 2)
	gen := f.room(t, vault.PowerGenerator, 1, 2, 2)
	f.room(t, vault.OverseerOffice, 1, 4, 1)
	f.st.Incidents = append(f.st.Incidents, newIncident(f.st.Vault.ID, diner.ID, vault.Fire, 20, epoch))
	f.save(t)

	f.tick(t, epoch.Add(5*time.Minute))
	st := f.view(t)
	assert.Equal(t, 2, st.Incidents[0].Severity)
	assert.Equal(t, 40.0, st.Incidents[0].Strength)

	f.tick(t, epoch.Add(10*time.Minute))
	assert.Equal(t, 3, f.view(t).Incidents[0].Severity)

	res := f.tick(t, epoch.Add(15*time.Minute))
	assert.Equal(t, 1, res.IncidentsStarted)
	st = f.view(t)
	require.Len(t, st.Incidents, 2)
	assert.Equal(t, 3, st.Incidents[0].Severity)
	spread := st.ActiveIncident(gen.ID)
	require.NotNil(t, spread)
	assert.Equal(t, vault.Fire, spread.Type)
	assert.Equal(t, epoch.Add(15*time.Minute), spread.StartTime)
}

func TestIncidentBurnsOut(t *testing.T) {
	f := newFixture(t, quietTunables(), entropy.NewSequence(0.5))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	f.st.Incidents = append(f.st.Incidents, newIncident(f.st.Vault.ID, diner.ID, vault.Raiders, 20, epoch))
	f.save(t)

	res := f.tick(t, epoch.Add(29*time.Minute))
	assert.Zero(t, res.IncidentsResolved)

	res = f.tick(t, epoch.Add(30*time.Minute))
	assert.Equal(t, 1, res.IncidentsResolved)
	st := f.view(t)
	assert.Equal(t, vault.Burnout, st.Incidents[0].Outcome)
	// Raiders take 100 caps per severity level; severity reached 3.
	assert.Equal(t, 200.0, st.Vault.Resources.Caps.Current)
}

func TestIncidentSpacing(t *testing.T) {
	cfg := quietTunables()
	cfg.Incidents.BaseChancePerTick = 1
	f := newFixture(t, cfg, entropy.NewSequence(0))
	diner := f.room(t, vault.Diner, 1, 0, 1)
	water := f.room(t, vault.WaterTreatment, 1, 3, 1)
	place(f.dweller("Alma", vault.Female, stats(5)), diner)
	place(f.dweller("Walt", vault.Male, stats(5)), water)
	f.room(t, vault.LivingQuarters, 2, 0, 1)
	f.save(t)

	res := f.tick(t, epoch.Add(30*time.Minute))
	assert.Equal(t, 1, res.IncidentsStarted)
	st := f.view(t)
	require.Len(t, st.Incidents, 1)
	assert.Equal(t, diner.ID, st.Incidents[0].RoomID, "only staffed rooms are targets")
	assert.Equal(t, epoch.Add(time.Minute), st.Incidents[0].StartTime)

	res = f.tick(t, epoch.Add(31*time.Minute))
	assert.Equal(t, 1, res.IncidentsStarted)
}
