// Package engine advances vault simulations on a fixed cadence and serves the
// commands players issue against them.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Engine polls the Simulation on a wall-clock interval. Each poll ticks every
// vault up to the current time; vaults with less than one whole tick owed are
// left alone.
type Engine struct {
	Sim      *Simulation
	Clock    Clock
	Interval time.Duration // how often to poll, not the tick interval

	// OnPoll, if set, receives the results of every poll.
	OnPoll func(results []TickResult)

	polls uint64
}

// NewEngine creates an engine polling sim every interval.
func NewEngine(sim *Simulation, interval time.Duration) *Engine {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Engine{Sim: sim, Clock: sim.clock, Interval: interval}
}

// Run polls until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("simulation engine started", "interval", e.Interval)
	ticker := time.NewTicker(e.Interval)
	defer ticker.Stop()

	e.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "polls", e.polls)
			return nil
		case <-ticker.C:
			e.Poll(ctx)
		}
	}
}

// Poll ticks every vault once.
func (e *Engine) Poll(ctx context.Context) []TickResult {
	e.polls++
	start := time.Now()
	results, err := e.Sim.TickDue(ctx, e.Clock.Now())
	if err != nil {
		slog.Warn("poll finished with errors", "poll", e.polls, "error", err)
	}

	ticks, failures := 0, 0
	for _, r := range results {
		ticks += r.ElapsedTicks
		failures += len(r.Failures)
	}
	if ticks > 0 || failures > 0 {
		slog.Info("poll", "poll", e.polls, "vaults", len(results), "ticks", ticks,
			"failures", failures, "took", time.Since(start).Round(time.Millisecond))
	}
	if e.OnPoll != nil {
		e.OnPoll(results)
	}
	return results
}

// GameTime formats a vault's accumulated simulated time.
func GameTime(d time.Duration) string {
	totalMinutes := int64(d / time.Minute)
	minutes := totalMinutes % 60
	hours := totalMinutes / 60 % 24
	days := totalMinutes/(60*24) + 1
	return fmt.Sprintf("Day %d, %d:%02d", days, hours, minutes)
}
