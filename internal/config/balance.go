// Package config loads process settings from the environment and game balance
// tunables from an optional YAML file layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tunables is the immutable balance configuration injected into the engine.
// Copy it with Clone before handing it to code that may keep it.
type Tunables struct {
	TickInterval time.Duration `yaml:"tick_interval" json:"tick_interval"`
	Production   Production    `yaml:"production" json:"production"`
	Consumption  Consumption   `yaml:"consumption" json:"consumption"`
	Exploration  Exploration   `yaml:"exploration" json:"exploration"`
	Loot         Loot          `yaml:"loot" json:"loot"`
	Breeding     Breeding      `yaml:"breeding" json:"breeding"`
	Death        Death         `yaml:"death" json:"death"`
	Incidents    Incidents     `yaml:"incidents" json:"incidents"`
	Training     Training      `yaml:"training" json:"training"`
	Resting      Resting       `yaml:"resting" json:"resting"`
	Debug        Debug         `yaml:"debug" json:"debug"`
}

type Production struct {
	BaseRate        float64         `yaml:"base_rate" json:"base_rate"`
	TierMultipliers map[int]float64 `yaml:"tier_multipliers" json:"tier_multipliers"`
	RushDuration    time.Duration   `yaml:"rush_duration" json:"rush_duration"`
	RushCooldown    time.Duration   `yaml:"rush_cooldown" json:"rush_cooldown"`
	RushBaseFailure float64         `yaml:"rush_base_failure" json:"rush_base_failure"`
}

// Consumption rates are per second unless stated otherwise.
type Consumption struct {
	FoodPerDweller   float64 `yaml:"food_per_dweller" json:"food_per_dweller"`
	WaterPerDweller  float64 `yaml:"water_per_dweller" json:"water_per_dweller"`
	PowerPerRoomSize float64 `yaml:"power_per_room_size" json:"power_per_room_size"`
	StarvationDamage float64 `yaml:"starvation_damage" json:"starvation_damage"` // per tick
	HappinessDrift   float64 `yaml:"happiness_drift" json:"happiness_drift"`     // per tick
}

type Exploration struct {
	MinHours            int           `yaml:"min_hours" json:"min_hours"`
	MaxHours            int           `yaml:"max_hours" json:"max_hours"`
	MinEventInterval    time.Duration `yaml:"min_event_interval" json:"min_event_interval"`
	EventJitterFraction float64       `yaml:"event_jitter_fraction" json:"event_jitter_fraction"`
	DistancePerHour     float64       `yaml:"distance_per_hour" json:"distance_per_hour"`
	ExperiencePerUnit   int           `yaml:"experience_per_distance" json:"experience_per_distance"`
	ExperiencePerEnemy  int           `yaml:"experience_per_enemy" json:"experience_per_enemy"`
	BaseCaps            int           `yaml:"base_caps" json:"base_caps"`
	RestHeal            float64       `yaml:"rest_heal" json:"rest_heal"`
	DangerDamageMin     int           `yaml:"danger_damage_min" json:"danger_damage_min"`
	DangerDamageMax     int           `yaml:"danger_damage_max" json:"danger_damage_max"`
}

type Loot struct {
	RarityWeights     RarityWeights   `yaml:"rarity_weights" json:"rarity_weights"`
	CategoryWeights   CategoryWeights `yaml:"category_weights" json:"category_weights"`
	LuckMultiplierMin float64         `yaml:"luck_multiplier_min" json:"luck_multiplier_min"`
	LuckMultiplierMax float64         `yaml:"luck_multiplier_max" json:"luck_multiplier_max"`
}

type RarityWeights struct {
	Common    float64 `yaml:"common" json:"common"`
	Rare      float64 `yaml:"rare" json:"rare"`
	Legendary float64 `yaml:"legendary" json:"legendary"`
}

type CategoryWeights struct {
	Weapon float64 `yaml:"weapon" json:"weapon"`
	Outfit float64 `yaml:"outfit" json:"outfit"`
	Junk   float64 `yaml:"junk" json:"junk"`
}

type Breeding struct {
	Gestation         time.Duration `yaml:"gestation" json:"gestation"`
	ChildhoodDuration time.Duration `yaml:"childhood_duration" json:"childhood_duration"`
	AffinityPerTick   int           `yaml:"affinity_per_tick" json:"affinity_per_tick"`
	ConceptionScale   float64       `yaml:"conception_scale" json:"conception_scale"`
}

type Death struct {
	PermanentDeathDays  int `yaml:"permanent_death_days" json:"permanent_death_days"`
	RevivalBaseCost     int `yaml:"revival_base_cost" json:"revival_base_cost"`
	RevivalCostPerLevel int `yaml:"revival_cost_per_level" json:"revival_cost_per_level"`
}

type Incidents struct {
	MinSpacing           time.Duration `yaml:"min_spacing" json:"min_spacing"`
	SpreadInterval       time.Duration `yaml:"spread_interval" json:"spread_interval"`
	MaxDuration          time.Duration `yaml:"max_duration" json:"max_duration"`
	BaseChancePerTick    float64       `yaml:"base_chance_per_tick" json:"base_chance_per_tick"`
	MaxSeverity          int           `yaml:"max_severity" json:"max_severity"`
	ContainmentThreshold float64       `yaml:"containment_threshold" json:"containment_threshold"`
	StrengthPerSeverity  float64       `yaml:"strength_per_severity" json:"strength_per_severity"`
	ContainedReward      int           `yaml:"contained_reward" json:"contained_reward"`
}

type Training struct {
	BaseDuration time.Duration `yaml:"base_duration" json:"base_duration"`
	MaxStat      int           `yaml:"max_stat" json:"max_stat"`
}

type Resting struct {
	HealPerTick float64 `yaml:"heal_per_tick" json:"heal_per_tick"`
}

// Debug gates override paths that shortcut normal gameplay.
type Debug struct {
	Enabled              bool `yaml:"enabled" json:"enabled"`
	GuaranteedConception bool `yaml:"guaranteed_conception" json:"guaranteed_conception"`
}

// Default returns the built-in balance.
func Default() Tunables {
	return Tunables{
		TickInterval: time.Minute,
		Production: Production{
			BaseRate:        0.1,
			TierMultipliers: map[int]float64{1: 1.0, 2: 1.5, 3: 2.0},
			RushDuration:    10 * time.Minute,
			RushCooldown:    30 * time.Minute,
			RushBaseFailure: 0.4,
		},
		Consumption: Consumption{
			FoodPerDweller:   0.005,
			WaterPerDweller:  0.005,
			PowerPerRoomSize: 0.01,
			StarvationDamage: 1,
			HappinessDrift:   0.5,
		},
		Exploration: Exploration{
			MinHours:            1,
			MaxHours:            24,
			MinEventInterval:    10 * time.Minute,
			EventJitterFraction: 0.1,
			DistancePerHour:     5,
			ExperiencePerUnit:   10,
			ExperiencePerEnemy:  50,
			BaseCaps:            10,
			RestHeal:            10,
			DangerDamageMin:     3,
			DangerDamageMax:     12,
		},
		Loot: Loot{
			RarityWeights:     RarityWeights{Common: 70, Rare: 25, Legendary: 5},
			CategoryWeights:   CategoryWeights{Weapon: 30, Outfit: 30, Junk: 40},
			LuckMultiplierMin: 0.5,
			LuckMultiplierMax: 2.0,
		},
		Breeding: Breeding{
			Gestation:         3 * time.Hour,
			ChildhoodDuration: 3 * time.Hour,
			AffinityPerTick:   1,
			ConceptionScale:   0.05,
		},
		Death: Death{
			PermanentDeathDays:  3,
			RevivalBaseCost:     100,
			RevivalCostPerLevel: 20,
		},
		Incidents: Incidents{
			MinSpacing:           30 * time.Minute,
			SpreadInterval:       5 * time.Minute,
			MaxDuration:          30 * time.Minute,
			BaseChancePerTick:    0.01,
			MaxSeverity:          3,
			ContainmentThreshold: 10,
			StrengthPerSeverity:  20,
			ContainedReward:      25,
		},
		Training: Training{
			BaseDuration: 30 * time.Minute,
			MaxStat:      10,
		},
		Resting: Resting{HealPerTick: 2},
	}
}

// Clone returns a deep copy so the receiver's map cannot be mutated through it.
func (t Tunables) Clone() Tunables {
	out := t
	out.Production.TierMultipliers = make(map[int]float64, len(t.Production.TierMultipliers))
	for k, v := range t.Production.TierMultipliers {
		out.Production.TierMultipliers[k] = v
	}
	return out
}

// TierMultiplier returns the output multiplier for a room tier, 1.0 if unknown.
func (t Tunables) TierMultiplier(tier int) float64 {
	if m, ok := t.Production.TierMultipliers[tier]; ok {
		return m
	}
	return 1.0
}

// PermanentDeathWindow is the revival window as a duration.
func (t Tunables) PermanentDeathWindow() time.Duration {
	return time.Duration(t.Death.PermanentDeathDays) * 24 * time.Hour
}

// Validate rejects balance values the engine cannot run with.
func (t Tunables) Validate() error {
	var errs []error
	if t.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %s", t.TickInterval))
	}
	if t.Production.BaseRate < 0 {
		errs = append(errs, errors.New("production.base_rate must not be negative"))
	}
	for tier := 1; tier <= 3; tier++ {
		if _, ok := t.Production.TierMultipliers[tier]; !ok {
			errs = append(errs, fmt.Errorf("production.tier_multipliers missing tier %d", tier))
		}
	}
	if t.Exploration.MinHours <= 0 || t.Exploration.MaxHours < t.Exploration.MinHours {
		errs = append(errs, fmt.Errorf("exploration hours range [%d, %d] is invalid", t.Exploration.MinHours, t.Exploration.MaxHours))
	}
	if t.Exploration.MinEventInterval <= 0 {
		errs = append(errs, errors.New("exploration.min_event_interval must be positive"))
	}
	if t.Exploration.EventJitterFraction < 0 {
		errs = append(errs, errors.New("exploration.event_jitter_fraction must not be negative"))
	}
	if t.Exploration.DangerDamageMin < 0 || t.Exploration.DangerDamageMax < t.Exploration.DangerDamageMin {
		errs = append(errs, fmt.Errorf("exploration danger damage range [%d, %d] is invalid",
			t.Exploration.DangerDamageMin, t.Exploration.DangerDamageMax))
	}
	w := t.Loot.RarityWeights
	if w.Common < 0 || w.Rare < 0 || w.Legendary < 0 || w.Common+w.Rare+w.Legendary == 0 {
		errs = append(errs, errors.New("loot.rarity_weights must be non-negative with a positive sum"))
	}
	cw := t.Loot.CategoryWeights
	if cw.Weapon < 0 || cw.Outfit < 0 || cw.Junk < 0 || cw.Weapon+cw.Outfit+cw.Junk == 0 {
		errs = append(errs, errors.New("loot.category_weights must be non-negative with a positive sum"))
	}
	if t.Breeding.Gestation <= 0 {
		errs = append(errs, errors.New("breeding.gestation must be positive"))
	}
	if t.Death.PermanentDeathDays < 0 {
		errs = append(errs, errors.New("death.permanent_death_days must not be negative"))
	}
	if t.Incidents.MaxSeverity < 1 {
		errs = append(errs, errors.New("incidents.max_severity must be at least 1"))
	}
	if t.Training.MaxStat < 1 {
		errs = append(errs, errors.New("training.max_stat must be at least 1"))
	}
	return errors.Join(errs...)
}

// LoadTunables reads a YAML balance file over the defaults. An empty path
// returns the defaults.
func LoadTunables(path string) (Tunables, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Tunables{}, fmt.Errorf("read balance: %w", err)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tunables{}, fmt.Errorf("parse balance %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tunables{}, fmt.Errorf("validate balance %s: %w", path, err)
	}
	return t, nil
}
