package engine

import (
	"fmt"
	"time"

	"github.com/talgya/vaultsim/internal/vault"
)

// TrainingTime is how long a dweller at stat level current trains for +1.
// Higher tier rooms train faster.
func (s *Simulation) TrainingTime(current, tier int) time.Duration {
	return time.Duration(float64(s.cfg.Training.BaseDuration) * float64(current) / s.cfg.TierMultiplier(tier))
}

func (s *Simulation) tickTraining(t *turn, d *vault.Dweller) error {
	room := roomOf(t.st, d)
	if room == nil || room.Category != vault.Training {
		return s.settle(t.st, d)
	}
	if !room.Powered(t.ledger.Outage()) || t.st.ActiveIncident(room.ID) != nil {
		return nil
	}

	current := d.Special.Get(room.Ability)
	if current >= s.cfg.Training.MaxStat {
		d.TrainingProgress = 0
		return nil
	}
	d.TrainingProgress += s.cfg.TickInterval
	if d.TrainingProgress < s.TrainingTime(current, room.Tier) {
		return nil
	}

	d.TrainingProgress = 0
	d.Special = d.Special.With(room.Ability, current+1)
	t.st.Emit(t.at, "training", fmt.Sprintf("%s raised %s to %d", d.Name(), room.Ability, current+1),
		map[string]any{"dweller_id": d.ID, "stat": string(room.Ability), "value": current + 1})
	return nil
}
