// Breeding: affinity between roommates, conception, delivery and growing up.
package engine

import (
	"fmt"

	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

// processBreeding runs once per tick after every dweller has been handled.
func (s *Simulation) processBreeding(t *turn) {
	s.processDeliveries(t)
	s.ageChildren(t)
	s.processCouples(t)
}

// processDeliveries turns due pregnancies into children.
func (s *Simulation) processDeliveries(t *turn) {
	for _, p := range t.st.Pregnancies {
		if !p.Due(t.at) {
			continue
		}
		mother := t.st.Dweller(p.MotherID)
		if mother == nil || !mother.Alive() {
			p.Status = vault.Lost
			continue
		}
		father := t.st.Dweller(p.FatherID)
		if father == nil {
			father = mother
		}

		child := vault.NewSpawner(t.rng).Child(mother, father, t.at)
		t.st.Dwellers = append(t.st.Dwellers, child)
		p.Status = vault.Delivered
		p.ChildID = vault.StrPtr(child.ID)
		t.res.Births++
		t.st.Emit(t.at, "birth", fmt.Sprintf("%s gave birth to %s", mother.Name(), child.Name()),
			map[string]any{"dweller_id": child.ID, "mother_id": mother.ID, "father_id": p.FatherID})
	}
}

// ageChildren grows up children whose childhood is over.
func (s *Simulation) ageChildren(t *turn) {
	for _, d := range t.st.Dwellers {
		if !d.Alive() || d.IsAdult() {
			continue
		}
		if t.at.Sub(d.BornAt) < s.cfg.Breeding.ChildhoodDuration {
			continue
		}
		d.AgeGroup = vault.Adult
		t.st.Emit(t.at, "lifecycle", fmt.Sprintf("%s has grown up", d.Name()),
			map[string]any{"dweller_id": d.ID})
	}
}

// Couple is a potential mother and father.
type Couple struct {
	Mother, Father *vault.Dweller
}

// Eligible reports whether a pair can conceive, with the reason when not.
func Eligible(st *vault.State, mother, father *vault.Dweller) error {
	switch {
	case mother.Gender != vault.Female || father.Gender != vault.Male:
		return errs.Ineligiblef("a couple needs one female and one male dweller")
	case !mother.Alive() || !father.Alive():
		return errs.Ineligiblef("both partners must be alive")
	case !mother.IsAdult() || !father.IsAdult():
		return errs.Ineligiblef("both partners must be adults")
	case mother.Status == vault.StatusExploring || father.Status == vault.StatusExploring:
		return errs.Ineligiblef("both partners must be inside the vault")
	case vault.Related(mother, father):
		return errs.Ineligiblef("%s and %s are family", mother.Name(), father.Name())
	case st.PregnancyOf(mother.ID) != nil:
		return errs.Ineligiblef("%s is already pregnant", mother.Name()).With("dweller_id", mother.ID)
	}
	return nil
}

// couples lists co-located eligible pairs per living quarters, in roster order.
// Living quarters left dark by an outage are skipped.
func couples(st *vault.State, outage bool) []Couple {
	var out []Couple
	for _, room := range st.Rooms {
		if room.Kind != vault.LivingQuarters || !room.Powered(outage) {
			continue
		}
		occ := st.Occupants(room.ID)
		for _, m := range occ {
			for _, f := range occ {
				if Eligible(st, m, f) == nil {
					out = append(out, Couple{Mother: m, Father: f})
				}
			}
		}
	}
	return out
}

// hasRoomForBaby reports whether housing allows another dweller, counting
// pregnancies already on the way.
func hasRoomForBaby(st *vault.State) bool {
	expected := len(st.Living())
	for _, p := range st.Pregnancies {
		if p.Status == vault.Pregnant {
			expected++
		}
	}
	return expected < st.PopulationCapacity()
}

// processCouples grows affinity and rolls for conception.
func (s *Simulation) processCouples(t *turn) {
	for _, c := range couples(t.st, t.ledger.Outage()) {
		if t.st.PregnancyOf(c.Mother.ID) != nil {
			continue
		}
		rel := t.st.Relationship(c.Mother.ID, c.Father.ID)
		bonus := (c.Mother.Special.Charisma + c.Father.Special.Charisma) / 10
		rel.Affinity = min(100, rel.Affinity+s.cfg.Breeding.AffinityPerTick+bonus)

		if !hasRoomForBaby(t.st) {
			continue
		}
		if t.rng.Float64() >= s.conceptionChance(rel.Affinity) {
			continue
		}
		s.conceive(t, c.Mother, c.Father)
	}
}

// conceptionChance maps affinity to a per-tick probability.
func (s *Simulation) conceptionChance(affinity int) float64 {
	if s.cfg.Debug.Enabled && s.cfg.Debug.GuaranteedConception {
		return 1
	}
	return float64(affinity) / 100 * s.cfg.Breeding.ConceptionScale
}

func (s *Simulation) conceive(t *turn, mother, father *vault.Dweller) *vault.Pregnancy {
	p := &vault.Pregnancy{
		ID:          vault.NewID(),
		VaultID:     t.st.Vault.ID,
		MotherID:    mother.ID,
		FatherID:    father.ID,
		ConceivedAt: t.at,
		DueAt:       t.at.Add(s.cfg.Breeding.Gestation),
		Status:      vault.Pregnant,
	}
	t.st.Pregnancies = append(t.st.Pregnancies, p)
	t.res.Conceptions++
	t.st.Emit(t.at, "pregnancy", fmt.Sprintf("%s is expecting a child with %s", mother.Name(), father.Name()),
		map[string]any{"pregnancy_id": p.ID, "mother_id": mother.ID, "father_id": father.ID})
	return p
}
