// Dweller lifecycle: the status state machine and the per-status tick handlers.
// Nothing outside this file writes Dweller.Status.
package engine

import (
	"fmt"
	"slices"

	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

var transitions = map[vault.Status][]vault.Status{
	vault.StatusIdle:      {vault.StatusWorking, vault.StatusTraining, vault.StatusResting, vault.StatusExploring, vault.StatusDead},
	vault.StatusWorking:   {vault.StatusIdle, vault.StatusTraining, vault.StatusResting, vault.StatusExploring, vault.StatusDead},
	vault.StatusTraining:  {vault.StatusIdle, vault.StatusWorking, vault.StatusResting, vault.StatusExploring, vault.StatusDead},
	vault.StatusResting:   {vault.StatusIdle, vault.StatusWorking, vault.StatusTraining, vault.StatusExploring, vault.StatusDead},
	vault.StatusExploring: {vault.StatusIdle, vault.StatusWorking, vault.StatusTraining, vault.StatusResting, vault.StatusDead},
	vault.StatusDead:      {vault.StatusIdle, vault.StatusWorking, vault.StatusTraining},
}

// CanTransition reports whether from → to is allowed. Staying in an in-vault
// status (for example moving between two production rooms) is allowed.
func CanTransition(from, to vault.Status) bool {
	if from == to {
		return from != vault.StatusExploring && from != vault.StatusDead
	}
	return slices.Contains(transitions[from], to)
}

func transition(d *vault.Dweller, to vault.Status) error {
	if !CanTransition(d.Status, to) {
		return errs.Invalidf("dweller %s cannot go from %s to %s", d.ID, d.Status, to).
			With("dweller_id", d.ID)
	}
	d.Status = to
	return nil
}

// handler runs one dweller's share of a tick.
type handler func(s *Simulation, t *turn, d *vault.Dweller) error

var handlers = map[vault.Status]handler{
	vault.StatusIdle:      (*Simulation).tickIdle,
	vault.StatusWorking:   (*Simulation).tickWorking,
	vault.StatusTraining:  (*Simulation).tickTraining,
	vault.StatusResting:   (*Simulation).tickResting,
	vault.StatusExploring: (*Simulation).tickExploring,
	vault.StatusDead:      func(*Simulation, *turn, *vault.Dweller) error { return nil },
}

// dispatch routes one dweller through the handler for its status.
func (s *Simulation) dispatch(t *turn, d *vault.Dweller) error {
	if d.IsPermanentlyDead {
		return nil
	}
	h, ok := handlers[d.Status]
	if !ok {
		return fmt.Errorf("unknown status %q", d.Status)
	}
	if d.InVault() {
		if err := s.upkeep(t, d); err != nil {
			return err
		}
		if !d.Alive() {
			return nil
		}
	}
	return h(s, t, d)
}

// upkeep applies what every dweller inside the vault goes through each tick.
func (s *Simulation) upkeep(t *turn, d *vault.Dweller) error {
	drift := s.cfg.Consumption.HappinessDrift
	if t.ledger.Starving() {
		d.AdjustHappiness(-2 * drift)
		s.injure(t, d, s.cfg.Consumption.StarvationDamage, "starvation")
		return nil
	}
	switch {
	case d.Happiness < 50:
		d.AdjustHappiness(min(drift, 50-d.Happiness))
	case d.Happiness > 50 && d.Status != vault.StatusWorking:
		d.AdjustHappiness(-min(drift, d.Happiness-50))
	}
	return nil
}

func (s *Simulation) tickIdle(t *turn, d *vault.Dweller) error {
	return nil
}

func (s *Simulation) tickWorking(t *turn, d *vault.Dweller) error {
	room := roomOf(t.st, d)
	if room == nil {
		return s.settle(t.st, d)
	}
	if room.Powered(t.ledger.Outage()) && room.Ability == d.Special.Best() {
		d.AdjustHappiness(s.cfg.Consumption.HappinessDrift)
	}
	return nil
}

func (s *Simulation) tickResting(t *turn, d *vault.Dweller) error {
	d.Heal(s.cfg.Resting.HealPerTick)
	if d.Health < d.MaxHealth {
		return nil
	}
	return s.settle(t.st, d)
}

// settle puts a dweller into the status its room implies, Idle without one.
func (s *Simulation) settle(st *vault.State, d *vault.Dweller) error {
	room := roomOf(st, d)
	if room == nil {
		d.RoomID = nil
		return transition(d, vault.StatusIdle)
	}
	return transition(d, room.StatusFor())
}

func roomOf(st *vault.State, d *vault.Dweller) *vault.Room {
	if d.RoomID == nil {
		return nil
	}
	return st.Room(*d.RoomID)
}

// hasSpace reports whether d could be placed in room without exceeding it.
func hasSpace(st *vault.State, room *vault.Room, d *vault.Dweller) bool {
	n := 0
	for _, o := range st.Occupants(room.ID) {
		if o.ID != d.ID {
			n++
		}
	}
	return n < room.Capacity()
}

// assign places a dweller in a room and updates its status to match.
func (s *Simulation) assign(st *vault.State, d *vault.Dweller, room *vault.Room) error {
	switch {
	case !d.Alive():
		return errs.Invalidf("dweller %s is dead", d.ID).With("dweller_id", d.ID)
	case d.Status == vault.StatusExploring:
		return errs.Invalidf("dweller %s is exploring the wasteland", d.ID).With("dweller_id", d.ID)
	case !d.IsAdult() && (room.Category == vault.Production || room.Category == vault.Training):
		return errs.Invalidf("children cannot work or train").With("dweller_id", d.ID)
	case !hasSpace(st, room, d):
		return errs.Fullf("room %s is full (%d/%d)", room.ID, len(st.Occupants(room.ID)), room.Capacity()).
			With("room_id", room.ID)
	}

	if err := transition(d, room.StatusFor()); err != nil {
		return err
	}
	if d.RoomID == nil || *d.RoomID != room.ID {
		d.TrainingProgress = 0
	}
	d.RoomID = vault.StrPtr(room.ID)
	return nil
}

// unassign removes a dweller from its room.
func (s *Simulation) unassign(d *vault.Dweller) error {
	if !d.Alive() || d.Status == vault.StatusExploring {
		return errs.Invalidf("dweller %s is %s", d.ID, d.Status).With("dweller_id", d.ID)
	}
	if err := transition(d, vault.StatusIdle); err != nil {
		return err
	}
	d.RoomID = nil
	d.TrainingProgress = 0
	return nil
}

// depart sends a dweller out, remembering the room to come back to.
func (s *Simulation) depart(d *vault.Dweller) error {
	if err := transition(d, vault.StatusExploring); err != nil {
		return err
	}
	d.ReturnRoomID = d.RoomID
	d.RoomID = nil
	d.TrainingProgress = 0
	return nil
}

// comeHome brings an explorer back. The old room is restored if it still has
// space. Dwellers below half health rest first.
func (s *Simulation) comeHome(st *vault.State, d *vault.Dweller) error {
	d.RoomID = nil
	if d.ReturnRoomID != nil {
		if room := st.Room(*d.ReturnRoomID); room != nil && hasSpace(st, room, d) {
			d.RoomID = vault.StrPtr(room.ID)
		}
	}
	d.ReturnRoomID = nil

	if d.Health < d.MaxHealth/2 {
		return transition(d, vault.StatusResting)
	}
	return s.settle(st, d)
}
