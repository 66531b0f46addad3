package rules

import "github.com/nathoo/branchtale/types"

// DefaultBlockedNarration is shown when a guard fails and the transition has
// no failure narration of its own.
const DefaultBlockedNarration = "Nothing happens."

// SelectOverride returns the index of the first narration override whose
// condition set holds against s, or -1 if none does. s must be the world
// state as it was before the owning transition's own mutations.
func SelectOverride(overrides []types.NarrationOverride, s *types.WorldState) int {
	for i, ov := range overrides {
		if EvalConditions(ov.When, s) {
			return i
		}
	}
	return -1
}

// Narration picks the narration and the full list of facts to record for a
// transition that passed its guard. The selected override's facts follow the
// transition's own, without duplicates.
func Narration(tr types.Transition, s *types.WorldState) (text string, records []string, override int) {
	text = tr.Narration
	records = appendUnique(nil, tr.Records...)

	override = SelectOverride(tr.Overrides, s)
	if override >= 0 {
		ov := tr.Overrides[override]
		text = ov.Narration
		records = appendUnique(records, ov.Records...)
	}
	return text, records, override
}

// BlockedNarration returns the text shown when tr's guard fails.
func BlockedNarration(tr types.Transition) string {
	if tr.FailureNarration != "" {
		return tr.FailureNarration
	}
	return DefaultBlockedNarration
}

func appendUnique(dst []string, ids ...string) []string {
	for _, id := range ids {
		seen := false
		for _, d := range dst {
			if d == id {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, id)
		}
	}
	return dst
}
