// Package resolve computes the outcome of issuing a command from the
// current scene: guard check, narration selection, and state mutation.
package resolve

import (
	"errors"
	"fmt"

	"github.com/nathoo/branchtale/engine/effects"
	"github.com/nathoo/branchtale/engine/rules"
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// ErrUnknownScene indicates the world state points at a scene the
// repository does not hold. A repository built by the loader never causes
// this; seeing it means state and content have drifted apart.
var ErrUnknownScene = errors.New("unknown scene")

// UnknownSceneError names the missing scene.
// Wraps ErrUnknownScene for errors.Is() compatibility.
type UnknownSceneError struct {
	Scene string
}

func (e *UnknownSceneError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownScene.Error(), e.Scene)
}

func (e *UnknownSceneError) Unwrap() error { return ErrUnknownScene }

// Resolve attempts command from s's current scene. Unrecognized and blocked
// outcomes leave s untouched; only a moved outcome mutates it. The returned
// error is non-nil only for an unknown current scene.
func Resolve(repo *state.Repository, s *types.WorldState, command string) (types.Outcome, error) {
	out := types.Outcome{
		Command:  command,
		From:     s.Scene,
		To:       s.Scene,
		Override: -1,
	}

	// 1. Current scene.
	scene, ok := repo.Lookup(s.Scene)
	if !ok {
		return out, &UnknownSceneError{Scene: s.Scene}
	}

	// 2. Transition for the command.
	tr, ok := scene.Transitions[command]
	if !ok {
		out.Kind = types.OutcomeUnrecognized
		return out, nil
	}

	// 3. Guard.
	if !rules.GuardHolds(tr, s) {
		out.Kind = types.OutcomeBlocked
		out.Narration = rules.BlockedNarration(tr)
		return out, nil
	}

	// 4. Narration is chosen against the state before this transition's
	// own mutations.
	text, records, override := rules.Narration(tr, s)

	effs := Plan(tr, text, records)
	events, _ := effects.Apply(s, effs)

	out.Kind = types.OutcomeMoved
	out.Narration = text
	out.Terminal = tr.Target == ""
	out.To = s.Scene
	out.Override = override
	out.Effects = effs
	out.Events = events
	return out, nil
}

// Plan lists the effects of a transition that passed its guard, in the
// order they are applied: consume, grant, record, narrate, move. Required
// items are spent along with the consumed ones.
func Plan(tr types.Transition, narration string, records []string) []types.Effect {
	var effs []types.Effect
	for _, item := range Spent(tr) {
		effs = append(effs, types.Effect{Type: effects.RemoveItem, Params: map[string]any{"item": item}})
	}
	if tr.Item != "" {
		effs = append(effs, types.Effect{Type: effects.GiveItem, Params: map[string]any{"item": tr.Item}})
	}
	for _, fact := range records {
		effs = append(effs, types.Effect{Type: effects.RecordFact, Params: map[string]any{"fact": fact}})
	}
	effs = append(effs, effects.SayEffect(narration))
	if tr.Target == "" {
		effs = append(effs, types.Effect{Type: effects.EndStory})
	} else {
		effs = append(effs, types.Effect{Type: effects.MoveTo, Params: map[string]any{"scene": tr.Target}})
	}
	return effs
}

// Spent returns the items a successful transition removes: its required
// items followed by its consumed items, each once.
func Spent(tr types.Transition) []string {
	seen := make(map[string]bool, len(tr.Requires.Inventory)+len(tr.Consumes))
	var items []string
	for _, list := range [][]string{tr.Requires.Inventory, tr.Consumes} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				items = append(items, id)
			}
		}
	}
	return items
}
