package vault

import "time"

// ItemKind is a loot category.
type ItemKind string

const (
	Weapon ItemKind = "weapon"
	Outfit ItemKind = "outfit"
	Junk   ItemKind = "junk"
)

// Stored reports whether items of this kind take a storage slot.
func (k ItemKind) Stored() bool {
	return k == Weapon || k == Outfit || k == Junk
}

// Rarity is a loot quality tier.
type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Legendary Rarity = "legendary"
)

// Priority orders rarities for storage admission. Higher wins.
func (r Rarity) Priority() int {
	switch r {
	case Legendary:
		return 2
	case Rare:
		return 1
	default:
		return 0
	}
}

// Item is one piece of loot.
type Item struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    ItemKind  `json:"type"`
	Rarity  Rarity    `json:"rarity"`
	Value   int       `json:"value"`
	FoundAt time.Time `json:"found_at"`
}

// Storage is the vault's item container.
type Storage struct {
	MaxSpace int    `json:"max_space"`
	Items    []Item `json:"items"`
}

// UsedSpace counts stored weapon, outfit and junk items.
func (s *Storage) UsedSpace() int {
	n := 0
	for _, it := range s.Items {
		if it.Kind.Stored() {
			n++
		}
	}
	return n
}

// Available is the number of free slots, never negative.
func (s *Storage) Available() int {
	if free := s.MaxSpace - s.UsedSpace(); free > 0 {
		return free
	}
	return 0
}
