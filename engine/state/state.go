// Package state holds the immutable scene repository and the helpers that
// read and copy the mutable per-session world state.
package state

import (
	"maps"
	"slices"

	"github.com/nathoo/branchtale/types"
)

// NewWorldState creates a fresh world state positioned at the start scene.
func NewWorldState(start string) *types.WorldState {
	return &types.WorldState{
		Scene:     start,
		Inventory: map[string]bool{},
		History:   map[string]bool{},
	}
}

// HasItem returns true if the item is held.
func HasItem(s *types.WorldState, item string) bool {
	return s.Inventory[item]
}

// HasFact returns true if the history fact has been recorded.
func HasFact(s *types.WorldState, fact string) bool {
	return s.History[fact]
}

// Items returns the held inventory ids in sorted order.
func Items(s *types.WorldState) []string {
	return sortedKeys(s.Inventory)
}

// Facts returns the recorded history facts in sorted order.
func Facts(s *types.WorldState) []string {
	return sortedKeys(s.History)
}

// Clone returns a deep copy of the world state. Nil sets become empty sets.
func Clone(s *types.WorldState) *types.WorldState {
	c := &types.WorldState{
		Scene:     s.Scene,
		Inventory: maps.Clone(s.Inventory),
		History:   maps.Clone(s.History),
	}
	if c.Inventory == nil {
		c.Inventory = map[string]bool{}
	}
	if c.History == nil {
		c.History = map[string]bool{}
	}
	return c
}

// Equal reports whether two world states hold the same scene, inventory and
// history. A false entry in a set counts as absent.
func Equal(a, b *types.WorldState) bool {
	if a.Scene != b.Scene {
		return false
	}
	return slices.Equal(Items(a), Items(b)) && slices.Equal(Facts(a), Facts(b))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
