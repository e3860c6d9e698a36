package engine

import (
	"math"
	"time"

	"github.com/talgya/vaultsim/internal/config"
	"github.com/talgya/vaultsim/internal/entropy"
	"github.com/talgya/vaultsim/internal/vault"
)

var itemNames = map[vault.ItemKind]map[vault.Rarity][]string{
	vault.Weapon: {
		vault.Common:    {"Rusty Pipe Pistol", "BB Gun", "Lead Pipe", "Switchblade"},
		vault.Rare:      {"Hunting Rifle", "Combat Shotgun", "Laser Pistol"},
		vault.Legendary: {"Fat Man", "Gatling Laser", "Lincoln's Repeater"},
	},
	vault.Outfit: {
		vault.Common:    {"Wasteland Gear", "Leather Armor", "Lab Coat"},
		vault.Rare:      {"Combat Armor", "Handyman Jumpsuit", "Military Fatigues"},
		vault.Legendary: {"T-60 Power Armor", "Vengeance Armor", "Lucky Formal Wear"},
	},
	vault.Junk: {
		vault.Common:    {"Tin Can", "Bent Fork", "Duct Tape", "Wonderglue"},
		vault.Rare:      {"Desk Fan", "Hot Plate", "Microscope"},
		vault.Legendary: {"Nuka-Cola Quantum", "Military Grade Circuit Board", "Fusion Core"},
	},
}

var itemValue = map[vault.Rarity]int{
	vault.Common:    10,
	vault.Rare:      50,
	vault.Legendary: 200,
}

// LuckMultiplier scales rare and legendary weights, linear from the configured
// minimum at luck 1 to the maximum at luck 10.
func LuckMultiplier(cfg config.Loot, luck int) float64 {
	luck = max(vault.MinStat, min(vault.MaxStat, luck))
	return cfg.LuckMultiplierMin + float64(luck-1)*(cfg.LuckMultiplierMax-cfg.LuckMultiplierMin)/9
}

// RarityWeights returns the common, rare and legendary weights for a given luck.
func RarityWeights(cfg config.Loot, luck int) []float64 {
	m := LuckMultiplier(cfg, luck)
	w := cfg.RarityWeights
	return []float64{w.Common, w.Rare * m, w.Legendary * m}
}

// LootCaps is the caps found on a loot event.
func LootCaps(baseCaps, perception int) int {
	return int(math.Floor(float64(baseCaps) * (1 + float64(perception)*0.1)))
}

// RollItem draws one item using the explorer's stat snapshot.
func RollItem(cfg config.Loot, rng entropy.Source, stats vault.Special, at time.Time) vault.Item {
	kinds := []vault.ItemKind{vault.Weapon, vault.Outfit, vault.Junk}
	cw := cfg.CategoryWeights
	kind := kinds[max(0, entropy.Weighted(rng, []float64{cw.Weapon, cw.Outfit, cw.Junk}))]

	rarities := []vault.Rarity{vault.Common, vault.Rare, vault.Legendary}
	rarity := rarities[max(0, entropy.Weighted(rng, RarityWeights(cfg, stats.Luck)))]

	names := itemNames[kind][rarity]
	return vault.Item{
		ID:      vault.NewID(),
		Name:    names[rng.Intn(len(names))],
		Kind:    kind,
		Rarity:  rarity,
		Value:   itemValue[rarity],
		FoundAt: at.UTC(),
	}
}

func (s *Simulation) resolveLoot(rng entropy.Source, x *vault.Exploration, at time.Time) (vault.LootEvent, error) {
	it := RollItem(s.cfg.Loot, rng, x.Stats, at)
	caps := LootCaps(s.cfg.Exploration.BaseCaps, x.Stats.Perception)
	if err := x.Collect(it); err != nil {
		return vault.LootEvent{}, err
	}
	x.Caps += caps
	return vault.LootEvent{Item: &it, Caps: caps}, nil
}
