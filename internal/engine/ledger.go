// Resource ledger: the single read-then-write path onto a vault's counters.
package engine

import (
	"time"

	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// Ledger mediates every change to a vault's resource counters and clamps each
// one to [0, Max]. The outage flag is fixed when the ledger is opened.
type Ledger struct {
	res      *vault.Resources
	outage   bool
	produced map[vault.Resource]float64
	consumed map[vault.Resource]float64
}

// NewLedger opens a ledger over res. A vault with no power at this point is
// in outage for the rest of the tick.
func NewLedger(res *vault.Resources) *Ledger {
	return &Ledger{
		res:      res,
		outage:   res.Power.Current <= 0,
		produced: make(map[vault.Resource]float64),
		consumed: make(map[vault.Resource]float64),
	}
}

// Outage reports whether the vault had no power when the tick began.
func (l *Ledger) Outage() bool {
	return l.outage
}

func (l *Ledger) Balance(kind vault.Resource) float64 {
	if c := l.res.Counter(kind); c != nil {
		return c.Current
	}
	return 0
}

// Credit adds up to amount and returns what actually fit under Max.
func (l *Ledger) Credit(kind vault.Resource, amount float64) float64 {
	c := l.res.Counter(kind)
	if c == nil || amount <= 0 {
		return 0
	}
	before := c.Current
	c.Current += amount
	c.Clamp()
	got := c.Current - before
	l.produced[kind] += got
	return got
}

// Debit removes up to amount and returns what was actually taken.
func (l *Ledger) Debit(kind vault.Resource, amount float64) float64 {
	c := l.res.Counter(kind)
	if c == nil || amount <= 0 {
		return 0
	}
	before := c.Current
	c.Current -= amount
	c.Clamp()
	took := before - c.Current
	l.consumed[kind] += took
	return took
}

// Spend removes exactly amount or nothing at all.
func (l *Ledger) Spend(kind vault.Resource, amount float64) error {
	c := l.res.Counter(kind)
	if c == nil {
		return errs.Invalidf("unknown resource %q", kind)
	}
	if c.Current < amount {
		return errs.Ineligiblef("not enough %s: have %.0f, need %.0f", kind, c.Current, amount).
			With("resource", string(kind))
	}
	l.Debit(kind, amount)
	return nil
}

// Set moves a counter to value, clamped. It records neither production nor
// consumption, for counters that mirror other state.
func (l *Ledger) Set(kind vault.Resource, value float64) {
	if c := l.res.Counter(kind); c != nil {
		c.Current = value
		c.Clamp()
	}
}

// Produced returns what the ledger credited, per resource.
func (l *Ledger) Produced() map[vault.Resource]float64 { return l.produced }

// Consumed returns what the ledger debited, per resource.
func (l *Ledger) Consumed() map[vault.Resource]float64 { return l.consumed }

// RoomOutput is a production room's output per second given its staff.
// Rooms without power or with an active incident produce nothing.
func (s *Simulation) RoomOutput(st *vault.State, room *vault.Room, outage bool) float64 {
	if room.Category != vault.Production || room.Output == "" || !room.Powered(outage) {
		return 0
	}
	if st.ActiveIncident(room.ID) != nil {
		return 0
	}
	statSum := 0
	for _, d := range st.Occupants(room.ID) {
		if d.Status == vault.StatusWorking {
			statSum += d.Special.Get(room.Ability)
		}
	}
	return room.BaseOutput * float64(statSum) * s.cfg.Production.BaseRate * s.cfg.TierMultiplier(room.Tier)
}

// applyProduction runs one stretch of production and consumption.
func (s *Simulation) applyProduction(st *vault.State, l *Ledger, elapsed time.Duration) {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return
	}

	roomSize := 0
	for _, room := range st.Rooms {
		roomSize += room.Size
		if out := s.RoomOutput(st, room, l.Outage()); out > 0 {
			l.Credit(room.Output, out*secs)
		}
	}

	inVault := 0
	for _, d := range st.Dwellers {
		if d.InVault() {
			inVault++
		}
	}
	c := s.cfg.Consumption
	l.Debit(vault.Food, c.FoodPerDweller*float64(inVault)*secs)
	l.Debit(vault.Water, c.WaterPerDweller*float64(inVault)*secs)
	l.Debit(vault.Power, c.PowerPerRoomSize*float64(roomSize)*secs)
}

// Starving reports whether food or water has run out.
func (l *Ledger) Starving() bool {
	return l.Balance(vault.Food) <= 0 || l.Balance(vault.Water) <= 0
}
