package engine

import (
	"sort"

	"github.com/talgya/vaultsim/internal/vault"
)

// Admit moves as many candidate items into storage as there is free space.
// Higher rarity goes first; equal rarity keeps discovery order. Both returned
// slices are non-nil.
func Admit(storage *vault.Storage, candidates []vault.Item) (transferred, overflow []vault.Item) {
	ranked := append([]vault.Item(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rarity.Priority() > ranked[j].Rarity.Priority()
	})

	n := min(storage.Available(), len(ranked))
	transferred = append(make([]vault.Item, 0, n), ranked[:n]...)
	overflow = append(make([]vault.Item, 0, len(ranked)-n), ranked[n:]...)
	storage.Items = append(storage.Items, transferred...)
	return transferred, overflow
}
