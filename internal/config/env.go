package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds process settings read from the environment.
type Env struct {
	DBPath         string        `env:"VAULTSIM_DB_PATH" envDefault:"data/vaults.db"`
	BalancePath    string        `env:"VAULTSIM_BALANCE_PATH"`
	LogLevel       string        `env:"VAULTSIM_LOG_LEVEL" envDefault:"info"`
	Workers        int           `env:"VAULTSIM_WORKERS" envDefault:"4"`
	PollInterval   time.Duration `env:"VAULTSIM_POLL_INTERVAL" envDefault:"5s"`
	DebugOverrides bool          `env:"VAULTSIM_DEBUG_OVERRIDES" envDefault:"false"`
	OTelEndpoint   string        `env:"VAULTSIM_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads the environment and the balance file it points to. The debug
// override flag in the environment can only turn debug paths on, never off.
func Load() (Env, Tunables, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, Tunables{}, err
	}
	t, err := LoadTunables(e.BalancePath)
	if err != nil {
		return Env{}, Tunables{}, err
	}
	if e.DebugOverrides {
		t.Debug.Enabled = true
	}
	return e, t, nil
}

// SlogLevel maps the configured log level name to a slog level.
func (e Env) SlogLevel() slog.Level {
	switch strings.ToLower(e.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
