// Simulation ties the vault systems together and runs them each tick.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/talgya/vaultsim/internal/config"
	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/vault"
)

// Simulation advances vaults and serves the commands players issue against
// them. It holds no vault state of its own; everything lives in the Store.
type Simulation struct {
	cfg     config.Tunables
	store   Store
	clock   Clock
	random  func(vaultID string) entropy.Source
	log     *slog.Logger
	tracer  trace.Tracer
	workers int
	locks   vaultLocks
}

type Option func(*Simulation)

func WithClock(c Clock) Option { return func(s *Simulation) { s.clock = c } }

// WithRandom replaces the per-vault randomness source.
func WithRandom(fn func(vaultID string) entropy.Source) Option {
	return func(s *Simulation) { s.random = fn }
}

func WithLogger(l *slog.Logger) Option { return func(s *Simulation) { s.log = l } }

func WithTracer(t trace.Tracer) Option { return func(s *Simulation) { s.tracer = t } }

// WithWorkers bounds how many vaults TickDue advances at once.
func WithWorkers(n int) Option { return func(s *Simulation) { s.workers = n } }

// New creates a Simulation over store. The tunables are copied.
func New(cfg config.Tunables, store Store, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tunables: %w", err)
	}
	s := &Simulation{
		cfg:     cfg.Clone(),
		store:   store,
		clock:   RealClock{},
		random:  func(string) entropy.Source { return entropy.NewCryptoSeeded() },
		log:     slog.Default(),
		tracer:  otel.Tracer("github.com/talgya/vaultsim/internal/engine"),
		workers: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s, nil
}

// Tunables returns a copy of the balance in use.
func (s *Simulation) Tunables() config.Tunables { return s.cfg.Clone() }

func (s *Simulation) now() time.Time { return s.clock.Now().UTC() }

// update runs fn against a vault while holding that vault's lock.
func (s *Simulation) update(ctx context.Context, vaultID string, fn func(*vault.State) error) error {
	unlock := s.locks.lock(vaultID)
	defer unlock()
	return s.store.Update(ctx, vaultID, fn)
}

// Failure is one entity that could not be processed during a tick.
type Failure struct {
	Entity string    `json:"entity"`
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Error  string    `json:"error"`
}

// TickResult summarises what one Tick call did to a vault.
type TickResult struct {
	VaultID           string                     `json:"vault_id"`
	ElapsedTicks      int                        `json:"elapsed_ticks"`
	LastTickTime      time.Time                  `json:"last_tick_time"`
	Produced          map[vault.Resource]float64 `json:"produced"`
	Consumed          map[vault.Resource]float64 `json:"consumed"`
	OutageTicks       int                        `json:"outage_ticks"`
	ExplorationEvents int                        `json:"exploration_events"`
	Returns           []vault.RewardsSummary     `json:"returns,omitempty"`
	Conceptions       int                        `json:"conceptions"`
	Births            int                        `json:"births"`
	Deaths            int                        `json:"deaths"`
	PermanentDeaths   int                        `json:"permanent_deaths"`
	IncidentsStarted  int                        `json:"incidents_started"`
	IncidentsResolved int                        `json:"incidents_resolved"`
	Events            int                        `json:"events"`
	Failures          []Failure                  `json:"failures,omitempty"`
}

func newTickResult(vaultID string) *TickResult {
	return &TickResult{
		VaultID:  vaultID,
		Produced: make(map[vault.Resource]float64),
		Consumed: make(map[vault.Resource]float64),
	}
}

// turn is the working context for one simulated instant of one vault.
type turn struct {
	st       *vault.State
	at       time.Time
	rng      entropy.Source
	ledger   *Ledger
	threat   entropy.ThreatField
	res      *TickResult
	returned []*vault.Exploration
	log      *slog.Logger
}

func (s *Simulation) newTurn(st *vault.State, at time.Time) *turn {
	return &turn{
		st:     st,
		at:     at.UTC(),
		rng:    s.random(st.Vault.ID),
		ledger: NewLedger(&st.Vault.Resources),
		threat: entropy.NewThreatField(st.Vault.Seed),
		res:    newTickResult(st.Vault.ID),
		log:    s.log,
	}
}

func (t *turn) fail(entity, id string, err error) {
	t.log.Error("tick step failed", "vault_id", t.st.Vault.ID, "entity", entity, "id", id, "at", t.at, "error", err)
	t.res.Failures = append(t.res.Failures, Failure{Entity: entity, ID: id, At: t.at, Error: err.Error()})
}

// isolate runs fn, turning a returned error or a panic into a recorded failure.
func (t *turn) isolate(entity, id string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			t.fail(entity, id, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		t.fail(entity, id, err)
	}
}

// Tick advances one vault by every whole tick interval between its last tick
// and now. Calling it again with the same now does nothing.
func (s *Simulation) Tick(ctx context.Context, vaultID string, now time.Time) (TickResult, error) {
	ctx, span := s.tracer.Start(ctx, "vault.tick", trace.WithAttributes(attribute.String("vault.id", vaultID)))
	defer span.End()

	var res TickResult
	err := s.update(ctx, vaultID, func(st *vault.State) error {
		res = s.advance(ctx, st, now.UTC())
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TickResult{}, err
	}
	span.SetAttributes(
		attribute.Int("vault.elapsed_ticks", res.ElapsedTicks),
		attribute.Int("vault.failures", len(res.Failures)),
	)
	if res.ElapsedTicks > 0 {
		s.log.Debug("vault ticked", "vault_id", vaultID, "ticks", res.ElapsedTicks,
			"events", res.Events, "failures", len(res.Failures))
	}
	return res, nil
}

// catchUpVault plays every whole tick owed up to now. Commands call it first
// so they never change state that earlier, unplayed ticks would run against.
// The result lists anything those ticks finished, such as explorations that
// came home.
func (s *Simulation) catchUpVault(ctx context.Context, st *vault.State) (time.Time, TickResult) {
	now := s.now()
	return now, s.advance(ctx, st, now)
}

// advance consumes whole elapsed ticks. LastTickTime moves by exactly the
// consumed intervals so any remainder carries over to the next call.
func (s *Simulation) advance(ctx context.Context, st *vault.State, now time.Time) TickResult {
	res := newTickResult(st.Vault.ID)
	gs := &st.Vault.GameState
	res.LastTickTime = gs.LastTickTime
	if gs.IsPaused || !now.After(gs.LastTickTime) {
		return *res
	}

	interval := s.cfg.TickInterval
	n := int(now.Sub(gs.LastTickTime) / interval)
	start := gs.LastTickTime
	done := 0
	for k := 1; k <= n; k++ {
		if ctx.Err() != nil {
			break
		}
		s.step(st, start.Add(time.Duration(k)*interval), res)
		done++
	}

	gs.LastTickTime = start.Add(time.Duration(done) * interval)
	gs.TotalGameTime += time.Duration(done) * interval
	res.ElapsedTicks = done
	res.LastTickTime = gs.LastTickTime
	res.Events = len(st.Outbox)
	return *res
}

// step runs one tick: ledger, every dweller, vault-wide passes, then storage.
func (s *Simulation) step(st *vault.State, at time.Time, res *TickResult) {
	t := s.newTurn(st, at)
	t.res = res

	if t.ledger.Outage() {
		res.OutageTicks++
	}
	s.applyProduction(st, t.ledger, s.cfg.TickInterval)

	roster := append([]*vault.Dweller(nil), st.Dwellers...)
	for _, d := range roster {
		t.isolate("dweller", d.ID, func() error { return s.dispatch(t, d) })
	}

	t.isolate("vault", st.Vault.ID, func() error { s.processBreeding(t); return nil })
	t.isolate("vault", st.Vault.ID, func() error { s.processIncidents(t); return nil })
	s.markPermanentDeaths(t)
	s.admitReturns(t)
	s.syncHappiness(t)

	for k, v := range t.ledger.Produced() {
		res.Produced[k] += v
	}
	for k, v := range t.ledger.Consumed() {
		res.Consumed[k] += v
	}
}

// syncHappiness moves the vault happiness counter to the dwellers' mean. The
// move is bookkeeping, so it stays out of the produced and consumed totals.
func (s *Simulation) syncHappiness(t *turn) {
	living := t.st.Living()
	if len(living) == 0 {
		return
	}
	sum := 0.0
	for _, d := range living {
		sum += d.Happiness
	}
	t.ledger.Set(vault.Happiness, sum/float64(len(living)))
}

// TickDue advances every stored vault to now, several vaults at a time. A
// vault that fails does not stop the others; its error is joined into the
// returned error.
func (s *Simulation) TickDue(ctx context.Context, now time.Time) ([]TickResult, error) {
	ids, err := s.store.VaultIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}

	results := make([]TickResult, len(ids))
	failures := make([]error, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range ids {
		g.Go(func() error {
			res, err := s.Tick(gctx, id, now)
			if err != nil {
				s.log.Error("vault tick failed", "vault_id", id, "error", err)
				failures[i] = fmt.Errorf("vault %s: %w", id, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, errors.Join(failures...)
}
