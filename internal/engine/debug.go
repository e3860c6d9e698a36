// Debug overrides that shortcut breeding. Every entry point checks the debug
// gate before touching state; none is reachable from the tick.
package engine

import (
	"context"

	"github.com/talgya/vaultsim/internal/errs"
	"github.com/talgya/vaultsim/internal/vault"
)

func (s *Simulation) debugGate(capability string) error {
	if !s.cfg.Debug.Enabled {
		s.log.Warn("debug override refused", "capability", capability)
		return errs.Disabled(capability)
	}
	return nil
}

// ForceConception makes an eligible pair conceive immediately.
func (s *Simulation) ForceConception(ctx context.Context, motherID, fatherID string) (vault.Pregnancy, error) {
	if err := s.debugGate("force_conception"); err != nil {
		return vault.Pregnancy{}, err
	}
	vaultID, err := s.store.LocateDweller(ctx, motherID)
	if err != nil {
		return vault.Pregnancy{}, err
	}

	var out vault.Pregnancy
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		now, _ := s.catchUpVault(ctx, st)
		mother, father := st.Dweller(motherID), st.Dweller(fatherID)
		if mother == nil {
			return errs.NotFoundf("dweller %s not found", motherID)
		}
		if father == nil {
			return errs.Ineligiblef("dweller %s does not live in this vault", fatherID)
		}
		if err := Eligible(st, mother, father); err != nil {
			return err
		}
		t := s.newTurn(st, now)
		p := s.conceive(t, mother, father)
		s.log.Info("debug conception forced", "vault_id", vaultID, "pregnancy_id", p.ID)
		out = *p
		return nil
	})
	return out, err
}

// AcceleratePregnancy makes a pregnancy due now. Delivery happens on the next
// tick.
func (s *Simulation) AcceleratePregnancy(ctx context.Context, pregnancyID string) (vault.Pregnancy, error) {
	if err := s.debugGate("accelerate_pregnancy"); err != nil {
		return vault.Pregnancy{}, err
	}
	vaultID, err := s.store.LocatePregnancy(ctx, pregnancyID)
	if err != nil {
		return vault.Pregnancy{}, err
	}

	var out vault.Pregnancy
	err = s.update(ctx, vaultID, func(st *vault.State) error {
		now, _ := s.catchUpVault(ctx, st)
		p := st.Pregnancy(pregnancyID)
		if p == nil {
			return errs.NotFoundf("pregnancy %s not found", pregnancyID)
		}
		if p.Status != vault.Pregnant {
			return errs.Invalidf("pregnancy %s is %s", p.ID, p.Status).With("pregnancy_id", p.ID)
		}
		p.DueAt = now
		s.log.Info("debug pregnancy accelerated", "vault_id", vaultID, "pregnancy_id", p.ID)
		out = *p
		return nil
	})
	return out, err
}
