package engine

import (
	"math"

	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/vault"
)

// Enemy is a wasteland creature an explorer can run into.
type Enemy struct {
	Name       string
	Difficulty int // 1..5
	Damage     int
	Caps       int
}

var bestiary = []Enemy{
	{Name: "radroach", Difficulty: 1, Damage: 6, Caps: 2},
	{Name: "mole rat", Difficulty: 1, Damage: 8, Caps: 3},
	{Name: "bloatfly", Difficulty: 1, Damage: 7, Caps: 3},
	{Name: "feral ghoul", Difficulty: 2, Damage: 14, Caps: 8},
	{Name: "raider", Difficulty: 2, Damage: 16, Caps: 12},
	{Name: "mirelurk", Difficulty: 3, Damage: 22, Caps: 15},
	{Name: "raider veteran", Difficulty: 3, Damage: 24, Caps: 25},
	{Name: "super mutant", Difficulty: 4, Damage: 30, Caps: 25},
	{Name: "yao guai", Difficulty: 4, Damage: 34, Caps: 20},
	{Name: "deathclaw", Difficulty: 5, Damage: 45, Caps: 40},
}

// MaxDifficulty is the hardest enemy tier allowed at a given progress (0..1).
func MaxDifficulty(progress float64) int {
	return max(1, int(math.Floor(progress*5)))
}

// PickEnemy chooses uniformly among enemies no harder than the progress allows.
func PickEnemy(rng entropy.Source, progress float64) Enemy {
	limit := MaxDifficulty(progress)
	pool := make([]Enemy, 0, len(bestiary))
	for _, e := range bestiary {
		if e.Difficulty <= limit {
			pool = append(pool, e)
		}
	}
	return pool[rng.Intn(len(pool))]
}

// CombatDamage is the health an explorer loses fighting e.
func CombatDamage(e Enemy, stats vault.Special) int {
	return max(1, e.Damage-stats.Endurance*2)
}

// resolveCombat fights one enemy. Explorers always win; wasteland damage never
// takes them below 1 health.
func resolveCombat(rng entropy.Source, x *vault.Exploration, d *vault.Dweller, progress float64) vault.CombatEvent {
	e := PickEnemy(rng, progress)
	lost := d.Damage(float64(CombatDamage(e, x.Stats)), 1)
	x.HealthLost += lost
	x.EnemiesDefeated++
	x.Caps += e.Caps
	return vault.CombatEvent{
		Enemy:       e.Name,
		Difficulty:  e.Difficulty,
		DamageTaken: lost,
		Caps:        e.Caps,
	}
}
