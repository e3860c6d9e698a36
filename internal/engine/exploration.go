// Wasteland explorations: dispatch, event generation, completion and recall.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// Progress is a read-only view of an exploration.
type Progress struct {
	ExplorationID        string                  `json:"exploration_id"`
	DwellerID            string                  `json:"dweller_id"`
	Status               vault.ExplorationStatus `json:"status"`
	ProgressPercentage   int                     `json:"progress_percentage"`
	TimeRemainingSeconds int64                   `json:"time_remaining_seconds"`
	Events               []vault.LogEntry        `json:"events"`
	Loot                 []vault.Item            `json:"loot_collected"`
	Caps                 int                     `json:"caps"`
	EnemiesDefeated      int                     `json:"enemies_defeated"`
}

// GenerateResult is the outcome of a manual event trigger. An exploration
// whose time is already up completes instead of producing an event.
type GenerateResult struct {
	Entry     *vault.LogEntry       `json:"entry,omitempty"`
	Completed bool                  `json:"completed"`
	Rewards   *vault.RewardsSummary `json:"rewards,omitempty"`
}

var hazards = []string{"a radiation storm", "a collapsed overpass", "a landmine", "an acid pool", "a cave-in"}

// EventWeights returns combat, loot, danger and rest weights at a progress
// fraction. Trips get more hostile the further out they go.
func EventWeights(progress float64) []float64 {
	return []float64{
		20 + 30*progress,
		40 - 10*progress,
		10 + 15*progress,
		30 - 20*progress,
	}
}

// DispatchExploration sends an eligible dweller into the wasteland.
func (s *Simulation) DispatchExploration(ctx context.Context, dwellerID string, durationHours int) (vault.Exploration, error) {
	ex := s.cfg.Exploration
	if durationHours < ex.MinHours || durationHours > ex.MaxHours {
		return vault.Exploration{}, errs.Ineligiblef("duration must be between %d and %d hours, got %d", ex.MinHours, ex.MaxHours, durationHours)
	}
	vaultID, err := s.store.LocateDweller(ctx, dwellerID)
	if err != nil {
		return vault.Exploration{}, err
	}

	var out vault.Exploration
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		now, _ := s.catchUpVault(ctx, st)
		d := st.Dweller(dwellerID)
		switch {
		case d == nil:
			return errs.NotFoundf("dweller %s not found", dwellerID)
		case !d.Alive():
			return errs.Invalidf("%s is dead", d.Name()).With("dweller_id", d.ID)
		case d.Status == vault.StatusExploring:
			return errs.Invalidf("%s is already exploring", d.Name()).With("dweller_id", d.ID)
		case !d.IsAdult():
			return errs.Ineligiblef("%s is too young to explore", d.Name()).With("dweller_id", d.ID)
		case d.Health <= 0:
			return errs.Ineligiblef("%s has no health left", d.Name()).With("dweller_id", d.ID)
		}

		x := &vault.Exploration{
			ID:        vault.NewID(),
			VaultID:   st.Vault.ID,
			DwellerID: d.ID,
			Status:    vault.ExplorationActive,
			StartTime: now,
			Duration:  time.Duration(durationHours) * time.Hour,
			Stats:     d.Special,
			Events:    vault.NewEventLog(),
			Loot:      vault.NewLootLog(),
		}
		if err := s.depart(d); err != nil {
			return err
		}
		x.NextEventAt = s.nextEventAt(s.random(st.Vault.ID), x, now)
		st.Explorations = append(st.Explorations, x)
		st.Emit(now, "exploration", fmt.Sprintf("%s headed into the wasteland for %dh", d.Name(), durationHours),
			map[string]any{"exploration_id": x.ID, "dweller_id": d.ID})
		out = *x
		return nil
	})
	return out, err
}

// GetExplorationProgress reports where an exploration stands now.
func (s *Simulation) GetExplorationProgress(ctx context.Context, explorationID string) (Progress, error) {
	vaultID, err := s.store.LocateExploration(ctx, explorationID)
	if err != nil {
		return Progress{}, err
	}
	st, err := s.store.View(ctx, vaultID)
	if err != nil {
		return Progress{}, err
	}
	x := st.Exploration(explorationID)
	if x == nil {
		return Progress{}, errs.NotFoundf("exploration %s not found", explorationID)
	}
	now := s.now()

	p := Progress{
		ExplorationID:   x.ID,
		DwellerID:       x.DwellerID,
		Status:          x.Status,
		Events:          x.Events.Entries(),
		Loot:            x.Loot.Items(),
		Caps:            x.Caps,
		EnemiesDefeated: x.EnemiesDefeated,
	}
	switch {
	case x.Active():
		p.ProgressPercentage = x.ProgressPercentage(now)
		if left := x.DueAt().Sub(now); left > 0 {
			p.TimeRemainingSeconds = int64(left / time.Second)
		}
	case x.Rewards != nil:
		p.ProgressPercentage = x.Rewards.ProgressPercentage
	default:
		p.ProgressPercentage = 100
	}
	return p, nil
}

// CompleteExploration brings a dweller home once the full duration has passed.
func (s *Simulation) CompleteExploration(ctx context.Context, explorationID string) (vault.RewardsSummary, error) {
	return s.endExploration(ctx, explorationID, false)
}

// RecallExploration brings a dweller home early with progress-scaled rewards.
// A trip whose time is already up completes normally instead.
func (s *Simulation) RecallExploration(ctx context.Context, explorationID string) (vault.RewardsSummary, error) {
	return s.endExploration(ctx, explorationID, true)
}

func (s *Simulation) endExploration(ctx context.Context, explorationID string, recall bool) (vault.RewardsSummary, error) {
	vaultID, err := s.store.LocateExploration(ctx, explorationID)
	if err != nil {
		return vault.RewardsSummary{}, err
	}

	var out vault.RewardsSummary
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		now, caught := s.catchUpVault(ctx, st)
		if sum, ok := returnedIn(caught, explorationID); ok {
			out = sum
			return nil
		}
		t := s.newTurn(st, now)
		x, d, err := activeTrip(st, explorationID)
		if err != nil {
			return err
		}
		due := !t.at.Before(x.DueAt())
		if !recall && !due {
			return errs.Invalidf("exploration %s still has %s to go", x.ID, x.DueAt().Sub(t.at).Round(time.Second)).
				With("exploration_id", x.ID)
		}

		end, status := x.DueAt(), vault.ExplorationCompleted
		if !due {
			end, status = t.at, vault.ExplorationRecalled
		}
		if err := s.catchUp(t, x, d, end); err != nil {
			return err
		}
		if err := s.finish(t, x, d, status, end); err != nil {
			return err
		}
		s.admitReturns(t)
		out = *x.Rewards
		return nil
	})
	return out, err
}

// GenerateEvent forces one exploration event now.
func (s *Simulation) GenerateEvent(ctx context.Context, explorationID string) (GenerateResult, error) {
	vaultID, err := s.store.LocateExploration(ctx, explorationID)
	if err != nil {
		return GenerateResult{}, err
	}

	var out GenerateResult
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		now, caught := s.catchUpVault(ctx, st)
		if sum, ok := returnedIn(caught, explorationID); ok {
			out = GenerateResult{Completed: true, Rewards: &sum}
			return nil
		}
		t := s.newTurn(st, now)
		x, d, err := activeTrip(st, explorationID)
		if err != nil {
			return err
		}
		if !t.at.Before(x.DueAt()) {
			if err := s.catchUp(t, x, d, x.DueAt()); err != nil {
				return err
			}
			if err := s.finish(t, x, d, vault.ExplorationCompleted, x.DueAt()); err != nil {
				return err
			}
			s.admitReturns(t)
			rewards := *x.Rewards
			out = GenerateResult{Completed: true, Rewards: &rewards}
			return nil
		}
		// Scheduled events up to now go first so the log stays in time order.
		if err := s.catchUp(t, x, d, t.at); err != nil {
			return err
		}
		entry, err := s.generateEvent(t.rng, x, d, t.at)
		if err != nil {
			return err
		}
		out = GenerateResult{Entry: &entry}
		return nil
	})
	return out, err
}

// returnedIn finds an exploration that the catch-up ticks brought home.
func returnedIn(res TickResult, explorationID string) (vault.RewardsSummary, bool) {
	for _, r := range res.Returns {
		if r.ExplorationID == explorationID {
			return r, true
		}
	}
	return vault.RewardsSummary{}, false
}

func activeTrip(st *vault.State, explorationID string) (*vault.Exploration, *vault.Dweller, error) {
	x := st.Exploration(explorationID)
	if x == nil {
		return nil, nil, errs.NotFoundf("exploration %s not found", explorationID)
	}
	if !x.Active() {
		return nil, nil, errs.Invalidf("exploration %s is %s, not active", x.ID, x.Status).
			With("exploration_id", x.ID)
	}
	d := st.Dweller(x.DwellerID)
	if d == nil {
		return nil, nil, errs.NotFoundf("dweller %s not found", x.DwellerID)
	}
	return x, d, nil
}

// tickExploring plays out any events that came due and brings the explorer
// home once the duration is up.
func (s *Simulation) tickExploring(t *turn, d *vault.Dweller) error {
	x := t.st.ActiveExploration(d.ID)
	if x == nil {
		if err := s.comeHome(t.st, d); err != nil {
			return err
		}
		return fmt.Errorf("dweller %s was exploring without an active exploration", d.ID)
	}
	if err := s.catchUp(t, x, d, t.at); err != nil {
		return err
	}
	if t.at.Before(x.DueAt()) {
		return nil
	}
	if err := s.catchUp(t, x, d, x.DueAt()); err != nil {
		return err
	}
	return s.finish(t, x, d, vault.ExplorationCompleted, x.DueAt())
}

// catchUp generates every scheduled event up to until. Events are stamped with
// their scheduled time so a late tick replays the same trip as a timely one.
func (s *Simulation) catchUp(t *turn, x *vault.Exploration, d *vault.Dweller, until time.Time) error {
	for x.Active() && !x.NextEventAt.After(until) && x.NextEventAt.Before(x.DueAt()) {
		at := x.NextEventAt
		if _, err := s.generateEvent(t.rng, x, d, at); err != nil {
			return err
		}
		x.NextEventAt = s.nextEventAt(t.rng, x, at)
		t.res.ExplorationEvents++
	}
	return nil
}

func (s *Simulation) nextEventAt(rng entropy.Source, x *vault.Exploration, from time.Time) time.Time {
	ex := s.cfg.Exploration
	jitter := time.Duration(rng.Float64() * float64(x.Duration) * ex.EventJitterFraction)
	return from.Add(ex.MinEventInterval + jitter)
}

func (s *Simulation) generateEvent(rng entropy.Source, x *vault.Exploration, d *vault.Dweller, at time.Time) (vault.LogEntry, error) {
	progress := 1.0
	if x.Duration > 0 {
		progress = float64(x.Elapsed(at)) / float64(x.Duration)
	}

	var p vault.Payload
	switch entropy.Weighted(rng, EventWeights(progress)) {
	case 0:
		p = resolveCombat(rng, x, d, progress)
	case 1:
		loot, err := s.resolveLoot(rng, x, at)
		if err != nil {
			return vault.LogEntry{}, err
		}
		p = loot
	case 2:
		ex := s.cfg.Exploration
		dmg := entropy.Between(rng, ex.DangerDamageMin, ex.DangerDamageMax)
		lost := d.Damage(float64(dmg), 1)
		x.HealthLost += lost
		p = vault.DangerEvent{Hazard: hazards[rng.Intn(len(hazards))], DamageTaken: lost}
	default:
		before := d.Health
		d.Heal(s.cfg.Exploration.RestHeal)
		p = vault.RestEvent{Healed: d.Health - before}
	}

	if err := x.Record(at, p); err != nil {
		return vault.LogEntry{}, err
	}
	return vault.LogEntry{At: at.UTC(), Payload: p}, nil
}

// finish terminates an exploration, pays experience and caps and brings the
// dweller home. Items wait in x.Rewards for storage admission.
func (s *Simulation) finish(t *turn, x *vault.Exploration, d *vault.Dweller, status vault.ExplorationStatus, at time.Time) error {
	var sum vault.RewardsSummary
	if status == vault.ExplorationRecalled {
		sum = s.RecallRewards(x, at)
	} else {
		sum = s.FullRewards(x)
	}

	x.Status = status
	x.EndTime = vault.TimePtr(at.UTC())
	sum.LevelsGained = d.AddExperience(sum.Experience)
	t.ledger.Credit(vault.Caps, float64(sum.Caps))
	x.Rewards = &sum
	t.returned = append(t.returned, x)

	if err := s.comeHome(t.st, d); err != nil {
		return err
	}

	verb := "returned from"
	if sum.RecalledEarly {
		verb = "was recalled from"
	}
	t.st.Emit(at, "exploration",
		fmt.Sprintf("%s %s the wasteland with %d caps and %d items", d.Name(), verb, sum.Caps, len(sum.Items)),
		map[string]any{"exploration_id": x.ID, "dweller_id": d.ID, "experience": sum.Experience, "recalled_early": sum.RecalledEarly})
	return nil
}

// admitReturns moves loot from explorations that ended this turn into storage.
func (s *Simulation) admitReturns(t *turn) {
	for _, x := range t.returned {
		transferred, overflow := Admit(&t.st.Storage, x.Rewards.Items)
		x.Rewards.TransferredItems = transferred
		x.Rewards.OverflowItems = overflow
		t.res.Returns = append(t.res.Returns, *x.Rewards)
		if len(overflow) > 0 {
			t.st.Emit(t.at, "storage", fmt.Sprintf("storage full, %d items left behind", len(overflow)),
				map[string]any{"exploration_id": x.ID, "overflow": len(overflow)})
		}
	}
	t.returned = nil
}
