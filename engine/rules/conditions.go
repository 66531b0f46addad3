// Package rules evaluates transition guards and narration-override
// condition sets against a world state.
package rules

import (
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// Clauses expands a condition set into its tagged clauses, in a fixed order.
// Empty groups are omitted.
func Clauses(c types.Conditions) []types.Clause {
	groups := []types.Clause{
		{Kind: types.RequireAll, Source: types.SourceHistory, IDs: c.HistoryAll},
		{Kind: types.RequireAny, Source: types.SourceHistory, IDs: c.HistoryAny},
		{Kind: types.ForbidAny, Source: types.SourceHistory, IDs: c.HistoryNone},
		{Kind: types.RequireAll, Source: types.SourceInventory, IDs: c.InventoryAll},
		{Kind: types.RequireAny, Source: types.SourceInventory, IDs: c.InventoryAny},
		{Kind: types.ForbidAny, Source: types.SourceInventory, IDs: c.InventoryNone},
	}
	var out []types.Clause
	for _, g := range groups {
		if len(g.IDs) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// EvalClause evaluates a single clause against the world state.
func EvalClause(c types.Clause, s *types.WorldState) bool {
	has := holder(c.Source, s)

	switch c.Kind {
	case types.RequireAll:
		for _, id := range c.IDs {
			if !has(id) {
				return false
			}
		}
		return true

	case types.RequireAny:
		if len(c.IDs) == 0 {
			return true
		}
		for _, id := range c.IDs {
			if has(id) {
				return true
			}
		}
		return false

	case types.ForbidAny:
		for _, id := range c.IDs {
			if has(id) {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// EvalConditions returns true if every clause of the set holds (AND logic).
// An empty condition set is vacuously true.
func EvalConditions(c types.Conditions, s *types.WorldState) bool {
	for _, cl := range Clauses(c) {
		if !EvalClause(cl, s) {
			return false
		}
	}
	return true
}

// GuardHolds returns true if all required history facts are recorded and
// all required items are held. Consumed items are not part of the guard.
// Evaluation stops at the first missing id.
func GuardHolds(tr types.Transition, s *types.WorldState) bool {
	clauses := []types.Clause{
		{Kind: types.RequireAll, Source: types.SourceHistory, IDs: tr.Requires.History},
		{Kind: types.RequireAll, Source: types.SourceInventory, IDs: tr.Requires.Inventory},
	}
	for _, cl := range clauses {
		if !EvalClause(cl, s) {
			return false
		}
	}
	return true
}

func holder(src types.ClauseSource, s *types.WorldState) func(string) bool {
	switch src {
	case types.SourceHistory:
		return func(id string) bool { return state.HasFact(s, id) }
	case types.SourceInventory:
		return func(id string) bool { return state.HasItem(s, id) }
	default:
		return func(string) bool { return false }
	}
}
