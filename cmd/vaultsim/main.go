// Command vaultsim runs the vault simulation daemon. It catches every stored
// vault up to wall-clock time on a fixed poll and persists each tick to SQLite.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/vaultsim/internal/config"
	"github.com/talgya/vaultsim/internal/engine"
	"github.com/talgya/vaultsim/internal/persistence"
	"github.com/talgya/vaultsim/internal/telemetry"
)

func main() {
	env, tunables, err := config.Load()
	if err != nil {
		config.Exitf("vaultsim: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Tracing ───────────────────────────────────────────────────────
	shutdown, err := telemetry.Setup(ctx, "vaultsim", env.OTelEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(env.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(env.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", env.DBPath)

	// ── Simulation ────────────────────────────────────────────────────
	sim, err := engine.New(tunables, db,
		engine.WithLogger(logger),
		engine.WithWorkers(env.Workers),
	)
	if err != nil {
		slog.Error("invalid balance configuration", "error", err)
		os.Exit(1)
	}

	ids, err := db.VaultIDs(ctx)
	if err != nil {
		slog.Error("failed to list vaults", "error", err)
		os.Exit(1)
	}
	slog.Info("simulation ready",
		"vaults", len(ids),
		"tick", tunables.TickInterval,
		"debug_overrides", tunables.Debug.Enabled,
	)

	eng := engine.NewEngine(sim, env.PollInterval)
	eng.OnPoll = func(results []engine.TickResult) {
		for _, r := range results {
			for _, f := range r.Failures {
				slog.Warn("entity failed during tick",
					"vault_id", r.VaultID, "entity", f.Entity, "id", f.ID, "error", f.Error)
			}
		}
	}

	fmt.Println("Starting simulation... (Ctrl+C to stop)")
	if err := eng.Run(ctx); err != nil {
		slog.Error("engine stopped", "error", err)
	}
	fmt.Println("Simulation stopped. Vault state saved.")
}
