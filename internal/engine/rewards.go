package engine

import (
	"math"
	"time"

	"github.com/talgya/vaultsim/internal/vault"
)

// Distance is the ground covered after elapsed time out.
func (s *Simulation) Distance(elapsed time.Duration) int {
	return int(math.Floor(elapsed.Hours() * s.cfg.Exploration.DistancePerHour))
}

// FullRewards is what an exploration pays if it runs its whole duration with
// what it has found so far.
func (s *Simulation) FullRewards(x *vault.Exploration) vault.RewardsSummary {
	dist := s.Distance(x.Duration)
	return vault.RewardsSummary{
		ExplorationID:      x.ID,
		DwellerID:          x.DwellerID,
		Distance:           dist,
		EnemiesDefeated:    x.EnemiesDefeated,
		Experience:         dist*s.cfg.Exploration.ExperiencePerUnit + x.EnemiesDefeated*s.cfg.Exploration.ExperiencePerEnemy,
		Caps:               x.Caps,
		Items:              x.Loot.Items(),
		ProgressPercentage: 100,
	}
}

// RecallRewards scales the full rewards by the integer progress percentage p.
// Experience, caps and the number of items are each floor(full*p/100); the
// items kept are the earliest found.
func (s *Simulation) RecallRewards(x *vault.Exploration, now time.Time) vault.RewardsSummary {
	full := s.FullRewards(x)
	p := x.ProgressPercentage(now)
	items := full.Items[:len(full.Items)*p/100]
	return vault.RewardsSummary{
		ExplorationID:      x.ID,
		DwellerID:          x.DwellerID,
		Distance:           s.Distance(x.Elapsed(now)),
		EnemiesDefeated:    x.EnemiesDefeated,
		Experience:         full.Experience * p / 100,
		Caps:               full.Caps * p / 100,
		Items:              append([]vault.Item(nil), items...),
		ProgressPercentage: p,
		RecalledEarly:      true,
	}
}
