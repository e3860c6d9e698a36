package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// starterLayout is the room grid every new vault begins with.
var starterLayout = []struct {
	kind                      vault.Kind
	floor, column, size, tier int
}{
	{vault.PowerGenerator, 1, 0, 2, 1},
	{vault.Diner, 1, 2, 2, 1},
	{vault.WaterTreatment, 1, 4, 2, 1},
	{vault.LivingQuarters, 2, 0, 2, 1},
	{vault.StorageRoom, 2, 2, 1, 1},
	{vault.WeightRoom, 2, 3, 1, 1},
}

// BaseStorage is the item space a vault has before any storage room.
const BaseStorage = 10

// FoundVault creates a vault with the starter rooms and settlers.
func (s *Simulation) FoundVault(ctx context.Context, name string, number, settlers int) (*vault.State, error) {
	seed, err := entropy.NewSeed()
	if err != nil {
		return nil, fmt.Errorf("seed vault: %w", err)
	}
	now := s.now()
	v := vault.NewVault(name, number, seed, now)

	st := vault.NewState(v, BaseStorage)
	for _, l := range starterLayout {
		room, err := vault.NewRoom(v.ID, l.kind, l.floor, l.column, l.size, l.tier)
		if err != nil {
			return nil, err
		}
		st.Rooms = append(st.Rooms, room)
		st.Storage.MaxSpace += room.StorageSpace()
	}
	sp := vault.NewSpawner(s.random(v.ID))
	for range settlers {
		st.Dwellers = append(st.Dwellers, sp.Arrival(v.ID, now))
	}
	st.Emit(now, "vault", fmt.Sprintf("Vault %d (%s) opened its doors with %d dwellers", number, name, settlers), nil)

	if err := s.store.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create vault: %w", err)
	}
	s.log.Info("vault founded", "vault_id", v.ID, "number", number, "dwellers", settlers)
	return st, nil
}

// Vault returns a snapshot of one vault.
func (s *Simulation) Vault(ctx context.Context, vaultID string) (*vault.State, error) {
	return s.store.View(ctx, vaultID)
}

// VaultIDs lists every stored vault.
func (s *Simulation) VaultIDs(ctx context.Context) ([]string, error) {
	return s.store.VaultIDs(ctx)
}

// AssignRoom moves a dweller into a room.
func (s *Simulation) AssignRoom(ctx context.Context, dwellerID, roomID string) (vault.Dweller, error) {
	vaultID, err := s.store.LocateDweller(ctx, dwellerID)
	if err != nil {
		return vault.Dweller{}, err
	}

	var out vault.Dweller
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		s.catchUpVault(ctx, st)
		d := st.Dweller(dwellerID)
		if d == nil {
			return errs.NotFoundf("dweller %s not found", dwellerID)
		}
		room := st.Room(roomID)
		if room == nil {
			return errs.NotFoundf("room %s not found in this vault", roomID)
		}
		if err := s.assign(st, d, room); err != nil {
			return err
		}
		out = *d
		return nil
	})
	return out, err
}

// UnassignRoom takes a dweller out of its room.
func (s *Simulation) UnassignRoom(ctx context.Context, dwellerID string) (vault.Dweller, error) {
	vaultID, err := s.store.LocateDweller(ctx, dwellerID)
	if err != nil {
		return vault.Dweller{}, err
	}

	var out vault.Dweller
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		s.catchUpVault(ctx, st)
		d := st.Dweller(dwellerID)
		if d == nil {
			return errs.NotFoundf("dweller %s not found", dwellerID)
		}
		if err := s.unassign(d); err != nil {
			return err
		}
		out = *d
		return nil
	})
	return out, err
}

// PauseVault stops simulated time. Whole ticks owed up to now are consumed
// first so nothing earned before the pause is lost.
func (s *Simulation) PauseVault(ctx context.Context, vaultID string) (vault.GameState, error) {
	var out vault.GameState
	err := s.update(ctx, vaultID, func(st *vault.State) error {
		gs := &st.Vault.GameState
		if gs.IsPaused {
			return errs.Invalidf("vault %s is already paused", vaultID)
		}
		now, _ := s.catchUpVault(ctx, st)
		gs.IsPaused = true
		gs.PausedAt = vault.TimePtr(now)
		st.Emit(now, "vault", "vault paused", nil)
		out = *gs
		return nil
	})
	return out, err
}

// ResumeVault restarts simulated time. The paused span is skipped.
func (s *Simulation) ResumeVault(ctx context.Context, vaultID string) (vault.GameState, error) {
	var out vault.GameState
	err := s.update(ctx, vaultID, func(st *vault.State) error {
		gs := &st.Vault.GameState
		if !gs.IsPaused {
			return errs.Invalidf("vault %s is not paused", vaultID)
		}
		now := s.now()
		var paused time.Duration
		if gs.PausedAt != nil {
			paused = now.Sub(*gs.PausedAt)
		}
		if paused > 0 {
			gs.LastTickTime = gs.LastTickTime.Add(paused)
		}
		gs.IsPaused = false
		gs.ResumedAt = vault.TimePtr(now)
		st.Emit(now, "vault", fmt.Sprintf("vault resumed after %s", paused.Round(time.Second)), nil)
		out = *gs
		return nil
	})
	return out, err
}
