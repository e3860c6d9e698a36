package vault

import (
	"maps"
	"time"
)

// State is the full in-memory snapshot of one vault. The engine ticks a clone
// and the store persists it, together with Outbox, in one transaction.
type State struct {
	Vault         Vault           `json:"vault"`
	Dwellers      []*Dweller      `json:"dwellers"`
	Rooms         []*Room         `json:"rooms"`
	Explorations  []*Exploration  `json:"explorations"`
	Pregnancies   []*Pregnancy    `json:"pregnancies"`
	Incidents     []*Incident     `json:"incidents"`
	Storage       Storage         `json:"storage"`
	Relationships []*Relationship `json:"relationships"`

	// Outbox holds events produced since the last commit.
	Outbox []Event `json:"-"`
}

// NewState starts an empty vault.
func NewState(v *Vault, storageSpace int) *State {
	return &State{
		Vault:   *v,
		Storage: Storage{MaxSpace: storageSpace},
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	out := &State{
		Vault:   s.Vault,
		Storage: Storage{MaxSpace: s.Storage.MaxSpace, Items: append([]Item(nil), s.Storage.Items...)},
		Outbox:  make([]Event, len(s.Outbox)),
	}
	out.Vault.GameState.PausedAt = clonePtr(s.Vault.GameState.PausedAt)
	out.Vault.GameState.ResumedAt = clonePtr(s.Vault.GameState.ResumedAt)

	out.Dwellers = make([]*Dweller, len(s.Dwellers))
	for i, d := range s.Dwellers {
		c := *d
		c.MotherID = clonePtr(d.MotherID)
		c.FatherID = clonePtr(d.FatherID)
		c.RoomID = clonePtr(d.RoomID)
		c.ReturnRoomID = clonePtr(d.ReturnRoomID)
		c.DeathTimestamp = clonePtr(d.DeathTimestamp)
		out.Dwellers[i] = &c
	}
	out.Rooms = make([]*Room, len(s.Rooms))
	for i, r := range s.Rooms {
		c := *r
		c.RushedAt = clonePtr(r.RushedAt)
		out.Rooms[i] = &c
	}
	out.Explorations = make([]*Exploration, len(s.Explorations))
	for i, x := range s.Explorations {
		c := *x
		// Event and loot logs are immutable values and can be shared.
		c.EndTime = clonePtr(x.EndTime)
		if x.Rewards != nil {
			r := *x.Rewards
			r.Items = append([]Item(nil), x.Rewards.Items...)
			r.TransferredItems = append([]Item(nil), x.Rewards.TransferredItems...)
			r.OverflowItems = append([]Item(nil), x.Rewards.OverflowItems...)
			c.Rewards = &r
		}
		out.Explorations[i] = &c
	}
	out.Pregnancies = make([]*Pregnancy, len(s.Pregnancies))
	for i, p := range s.Pregnancies {
		c := *p
		c.ChildID = clonePtr(p.ChildID)
		out.Pregnancies[i] = &c
	}
	out.Incidents = make([]*Incident, len(s.Incidents))
	for i, inc := range s.Incidents {
		c := *inc
		c.EndTime = clonePtr(inc.EndTime)
		out.Incidents[i] = &c
	}
	out.Relationships = make([]*Relationship, len(s.Relationships))
	for i, r := range s.Relationships {
		c := *r
		out.Relationships[i] = &c
	}
	for i, e := range s.Outbox {
		e.Meta = maps.Clone(e.Meta)
		out.Outbox[i] = e
	}
	return out
}

// Emit appends an event to the outbox.
func (s *State) Emit(at time.Time, category, description string, meta map[string]any) {
	s.Outbox = append(s.Outbox, Event{
		ID:          NewID(),
		VaultID:     s.Vault.ID,
		At:          at.UTC(),
		Category:    category,
		Description: description,
		Meta:        meta,
	})
}

// DrainOutbox returns and clears pending events.
func (s *State) DrainOutbox() []Event {
	out := s.Outbox
	s.Outbox = nil
	return out
}

// Dweller finds a dweller by id, including the dead.
func (s *State) Dweller(id string) *Dweller {
	for _, d := range s.Dwellers {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Room finds a room by id.
func (s *State) Room(id string) *Room {
	for _, r := range s.Rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Exploration finds an exploration by id.
func (s *State) Exploration(id string) *Exploration {
	for _, x := range s.Explorations {
		if x.ID == id {
			return x
		}
	}
	return nil
}

// ActiveExploration returns the running trip of a dweller, if any.
func (s *State) ActiveExploration(dwellerID string) *Exploration {
	for _, x := range s.Explorations {
		if x.DwellerID == dwellerID && x.Active() {
			return x
		}
	}
	return nil
}

// Pregnancy finds a pregnancy by id.
func (s *State) Pregnancy(id string) *Pregnancy {
	for _, p := range s.Pregnancies {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PregnancyOf returns the ongoing pregnancy of a mother, if any.
func (s *State) PregnancyOf(motherID string) *Pregnancy {
	for _, p := range s.Pregnancies {
		if p.MotherID == motherID && p.Status == Pregnant {
			return p
		}
	}
	return nil
}

// ActiveIncident returns the unresolved incident in a room, if any.
func (s *State) ActiveIncident(roomID string) *Incident {
	for _, inc := range s.Incidents {
		if inc.RoomID == roomID && inc.Active() {
			return inc
		}
	}
	return nil
}

// MostRecentIncident is the incident with the latest start time.
func (s *State) MostRecentIncident() *Incident {
	var latest *Incident
	for _, inc := range s.Incidents {
		if latest == nil || inc.StartTime.After(latest.StartTime) {
			latest = inc
		}
	}
	return latest
}

// Occupants returns living dwellers assigned to a room.
func (s *State) Occupants(roomID string) []*Dweller {
	var out []*Dweller
	for _, d := range s.Dwellers {
		if d.Alive() && d.RoomID != nil && *d.RoomID == roomID {
			out = append(out, d)
		}
	}
	return out
}

// Living returns dwellers that are not dead.
func (s *State) Living() []*Dweller {
	var out []*Dweller
	for _, d := range s.Dwellers {
		if d.Alive() {
			out = append(out, d)
		}
	}
	return out
}

// Graveyard returns dead dwellers, revivable or not.
func (s *State) Graveyard() []*Dweller {
	var out []*Dweller
	for _, d := range s.Dwellers {
		if !d.Alive() {
			out = append(out, d)
		}
	}
	return out
}

// PopulationCapacity is the housing provided by living quarters.
func (s *State) PopulationCapacity() int {
	n := 0
	for _, r := range s.Rooms {
		n += r.Housing()
	}
	return n
}

// Relationship returns the pair's record, creating it at zero affinity.
func (s *State) Relationship(x, y string) *Relationship {
	a, b := PairKey(x, y)
	for _, r := range s.Relationships {
		if r.A == a && r.B == b {
			return r
		}
	}
	r := &Relationship{A: a, B: b}
	s.Relationships = append(s.Relationships, r)
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
