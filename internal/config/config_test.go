package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	d := Default()
	require.NoError(t, d.Validate())
	assert.Equal(t, 1.0, d.TierMultiplier(1))
	assert.Equal(t, 1.5, d.TierMultiplier(2))
	assert.Equal(t, 2.0, d.TierMultiplier(3))
	assert.Equal(t, 1.0, d.TierMultiplier(9))
	assert.False(t, d.Debug.Enabled)
	assert.Equal(t, 72*time.Hour, d.PermanentDeathWindow())
}

func TestCloneIsIndependent(t *testing.T) {
	d := Default()
	c := d.Clone()
	c.Production.TierMultipliers[2] = 9

	assert.Equal(t, 1.5, d.TierMultiplier(2))
}

func TestLoadTunablesOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tick_interval: 30s
production:
  tier_multipliers:
    3: 2.5
breeding:
  gestation: 1h
debug:
  enabled: true
`), 0o644))

	tun, err := LoadTunables(path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, tun.TickInterval)
	assert.Equal(t, 2.5, tun.TierMultiplier(3))
	assert.Equal(t, 1.5, tun.TierMultiplier(2), "unset tiers keep defaults")
	assert.Equal(t, time.Hour, tun.Breeding.Gestation)
	assert.Equal(t, 0.1, tun.Production.BaseRate)
	assert.True(t, tun.Debug.Enabled)
}

func TestLoadTunablesRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_interval: 0s\n"), 0o644))

	_, err := LoadTunables(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tick_interval")
}

func TestValidateRejectsBrokenRanges(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Tunables)
		want   string
	}{
		"danger damage inverted": {func(c *Tunables) { c.Exploration.DangerDamageMin, c.Exploration.DangerDamageMax = 12, 3 }, "danger damage range [12, 3]"},
		"negative jitter":        {func(c *Tunables) { c.Exploration.EventJitterFraction = -0.5 }, "event_jitter_fraction"},
		"no loot categories":     {func(c *Tunables) { c.Loot.CategoryWeights = CategoryWeights{} }, "category_weights"},
		"negative loot category": {func(c *Tunables) { c.Loot.CategoryWeights.Junk = -1 }, "category_weights"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			tun := Default()
			tc.mutate(&tun)
			assert.ErrorContains(t, tun.Validate(), tc.want)
		})
	}
}

func TestLoadTunablesEmptyPath(t *testing.T) {
	tun, err := LoadTunables("")
	require.NoError(t, err)
	assert.Equal(t, Default().TickInterval, tun.TickInterval)
}

func TestParseEnvDefaults(t *testing.T) {
	var e Env
	require.NoError(t, ParseEnv(&e))

	assert.Equal(t, "data/vaults.db", e.DBPath)
	assert.Equal(t, 4, e.Workers)
	assert.False(t, e.DebugOverrides)
	assert.Equal(t, slog.LevelInfo, e.SlogLevel())
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("VAULTSIM_WORKERS", "lots")

	var e Env
	err := ParseEnv(&e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoadDebugOverride(t *testing.T) {
	t.Setenv("VAULTSIM_DEBUG_OVERRIDES", "true")
	t.Setenv("VAULTSIM_LOG_LEVEL", "debug")

	e, tun, err := Load()
	require.NoError(t, err)
	assert.True(t, tun.Debug.Enabled)
	assert.Equal(t, slog.LevelDebug, e.SlogLevel())
}
