// Death, the revival window and permanent death.
package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// injure removes health and kills the dweller if it runs out.
func (s *Simulation) injure(t *turn, d *vault.Dweller, amount float64, cause string) {
	if !d.Alive() || amount <= 0 {
		return
	}
	d.Damage(amount, 0)
	if d.Health <= 0 {
		if err := s.kill(t, d, cause); err != nil {
			t.fail("dweller", d.ID, err)
		}
	}
}

// kill marks a dweller dead at the turn's time. Its room is released and an
// unborn child is lost.
func (s *Simulation) kill(t *turn, d *vault.Dweller, cause string) error {
	if err := transition(d, vault.StatusDead); err != nil {
		return err
	}
	d.IsDead = true
	d.Health = 0
	d.DeathTimestamp = vault.TimePtr(t.at)
	d.DeathCause = cause
	if d.RoomID != nil {
		d.ReturnRoomID = d.RoomID
	}
	d.RoomID = nil
	d.TrainingProgress = 0

	for _, p := range t.st.Pregnancies {
		if p.MotherID == d.ID && p.Status == vault.Pregnant {
			p.Status = vault.Lost
			t.st.Emit(t.at, "pregnancy", fmt.Sprintf("%s's pregnancy was lost", d.Name()),
				map[string]any{"pregnancy_id": p.ID})
		}
	}

	t.res.Deaths++
	t.st.Emit(t.at, "death", fmt.Sprintf("%s died of %s", d.Name(), cause),
		map[string]any{"dweller_id": d.ID, "cause": cause})
	return nil
}

// DaysUntilPermanent is the number of whole days, rounded up, left in a dead
// dweller's revival window. Zero for the living and the permanently dead.
func (s *Simulation) DaysUntilPermanent(d *vault.Dweller, now time.Time) int {
	if !d.IsDead || d.IsPermanentlyDead || d.DeathTimestamp == nil {
		return 0
	}
	left := d.DeathTimestamp.Add(s.cfg.PermanentDeathWindow()).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// markPermanentDeaths closes every revival window that has run out by now.
func (s *Simulation) markPermanentDeaths(t *turn) {
	window := s.cfg.PermanentDeathWindow()
	for _, d := range t.st.Dwellers {
		if !d.IsDead || d.IsPermanentlyDead || d.DeathTimestamp == nil {
			continue
		}
		if t.at.Before(d.DeathTimestamp.Add(window)) {
			continue
		}
		d.IsPermanentlyDead = true
		d.ReturnRoomID = nil
		t.res.PermanentDeaths++
		t.st.Emit(t.at, "death", fmt.Sprintf("%s can no longer be revived", d.Name()),
			map[string]any{"dweller_id": d.ID})
	}
}

// RevivalCost is the caps needed to bring a dweller back.
func (s *Simulation) RevivalCost(d *vault.Dweller) int {
	return s.cfg.Death.RevivalBaseCost + s.cfg.Death.RevivalCostPerLevel*d.Level
}

// Revive pays caps to bring a dead dweller back at full health.
func (s *Simulation) Revive(ctx context.Context, dwellerID string) (vault.Dweller, error) {
	vaultID, err := s.store.LocateDweller(ctx, dwellerID)
	if err != nil {
		return vault.Dweller{}, err
	}

	var out vault.Dweller
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		now, _ := s.catchUpVault(ctx, st)
		t := s.newTurn(st, now)
		d := st.Dweller(dwellerID)
		switch {
		case d == nil:
			return errs.NotFoundf("dweller %s not found", dwellerID)
		case !d.IsDead:
			return errs.Invalidf("%s is not dead", d.Name()).With("dweller_id", d.ID)
		case d.IsPermanentlyDead || d.DeathTimestamp != nil && !t.at.Before(d.DeathTimestamp.Add(s.cfg.PermanentDeathWindow())):
			return errs.Ineligiblef("%s is gone for good", d.Name()).With("dweller_id", d.ID)
		}

		cost := s.RevivalCost(d)
		if err := t.ledger.Spend(vault.Caps, float64(cost)); err != nil {
			return err
		}

		d.RoomID = nil
		if d.ReturnRoomID != nil {
			if room := st.Room(*d.ReturnRoomID); room != nil && hasSpace(st, room, d) {
				d.RoomID = vault.StrPtr(room.ID)
			}
		}
		d.ReturnRoomID = nil
		if err := s.settle(st, d); err != nil {
			return err
		}
		d.IsDead = false
		d.DeathTimestamp = nil
		d.DeathCause = ""
		d.Health = d.MaxHealth

		st.Emit(t.at, "revival", fmt.Sprintf("%s was revived for %d caps", d.Name(), cost),
			map[string]any{"dweller_id": d.ID, "cost": cost})
		out = *d
		return nil
	})
	return out, err
}

// Graveyard lists a vault's dead, revivable or not.
func (s *Simulation) Graveyard(ctx context.Context, vaultID string) ([]vault.Dweller, error) {
	st, err := s.store.View(ctx, vaultID)
	if err != nil {
		return nil, err
	}
	dead := st.Graveyard()
	out := make([]vault.Dweller, len(dead))
	for i, d := range dead {
		out[i] = *d
	}
	return out, nil
}
