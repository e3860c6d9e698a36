package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// RushResult is the outcome of rushing a production room.
type RushResult struct {
	RoomID        string          `json:"room_id"`
	Success       bool            `json:"success"`
	FailureChance float64         `json:"failure_chance"`
	Credited      float64         `json:"credited"`
	Incident      *vault.Incident `json:"incident,omitempty"`
}

// RushFailureChance is the risk of rushing with the given staff averages.
func (s *Simulation) RushFailureChance(avgStat, avgLuck float64) float64 {
	return max(0.05, s.cfg.Production.RushBaseFailure-0.02*avgStat-0.01*avgLuck)
}

// RushRoom pays out a burst of production at once. A failed rush starts an
// incident in the room instead.
func (s *Simulation) RushRoom(ctx context.Context, roomID string) (RushResult, error) {
	vaultID, err := s.store.LocateRoom(ctx, roomID)
	if err != nil {
		return RushResult{}, err
	}

	var out RushResult
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		now, _ := s.catchUpVault(ctx, st)
		t := s.newTurn(st, now)
		room := st.Room(roomID)
		switch {
		case room == nil:
			return errs.NotFoundf("room %s not found", roomID)
		case room.Category != vault.Production:
			return errs.Invalidf("only production rooms can be rushed").With("room_id", room.ID)
		case !room.Powered(t.ledger.Outage()):
			return errs.Invalidf("the %s has no power", room.Kind).With("room_id", room.ID)
		case st.ActiveIncident(room.ID) != nil:
			return errs.Invalidf("the %s has an active incident", room.Kind).With("room_id", room.ID)
		case room.RushedAt != nil && t.at.Sub(*room.RushedAt) < s.cfg.Production.RushCooldown:
			return errs.Ineligiblef("the %s was rushed %s ago", room.Kind, t.at.Sub(*room.RushedAt).Round(time.Second)).
				With("room_id", room.ID)
		}

		var workers []*vault.Dweller
		for _, d := range st.Occupants(room.ID) {
			if d.Status == vault.StatusWorking {
				workers = append(workers, d)
			}
		}
		if len(workers) == 0 {
			return errs.Ineligiblef("nobody is working in the %s", room.Kind).With("room_id", room.ID)
		}
		statSum, luckSum := 0, 0
		for _, d := range workers {
			statSum += d.Special.Get(room.Ability)
			luckSum += d.Special.Luck
		}
		n := float64(len(workers))
		chance := s.RushFailureChance(float64(statSum)/n, float64(luckSum)/n)

		room.RushedAt = vault.TimePtr(t.at)
		out = RushResult{RoomID: room.ID, FailureChance: chance}
		if t.rng.Float64() < chance {
			inc := s.startIncident(t, room, vault.IncidentTypes[t.rng.Intn(len(vault.IncidentTypes))])
			out.Incident = inc
			st.Emit(t.at, "rush", fmt.Sprintf("rushing the %s backfired: %s", room.Kind, inc.Type),
				map[string]any{"room_id": room.ID, "incident_id": inc.ID})
			return nil
		}

		out.Success = true
		out.Credited = t.ledger.Credit(room.Output, s.RoomOutput(st, room, t.ledger.Outage())*s.cfg.Production.RushDuration.Seconds())
		st.Emit(t.at, "rush", fmt.Sprintf("rushed the %s for %.0f %s", room.Kind, out.Credited, room.Output),
			map[string]any{"room_id": room.ID, "credited": out.Credited})
		return nil
	})
	return out, err
}
