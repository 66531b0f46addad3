// Package effects implements centralized world-state mutation via the Apply
// function. Every effect type is one atomic operation. No logic in effects.
package effects

import "github.com/nathoo/branchtale/types"

// Effect types.
const (
	Say        = "say"
	GiveItem   = "give_item"
	RemoveItem = "remove_item"
	RecordFact = "record_fact"
	MoveTo     = "move_to"
	EndStory   = "end_story"
)

// Event types emitted by Apply.
const (
	EventItemGranted  = "item_granted"
	EventItemConsumed = "item_consumed"
	EventFactRecorded = "fact_recorded"
	EventSceneEntered = "scene_entered"
	EventStoryEnded   = "story_ended"
)

// Apply applies a list of effects to the world state, mutating it.
// Returns events emitted and output text collected.
func Apply(s *types.WorldState, effects []types.Effect) ([]types.Event, []string) {
	var events []types.Event
	var output []string

	for _, eff := range effects {
		switch eff.Type {
		case Say:
			text, _ := eff.Params["text"].(string)
			output = append(output, text)

		case GiveItem:
			item, _ := eff.Params["item"].(string)
			if s.Inventory == nil {
				s.Inventory = map[string]bool{}
			}
			s.Inventory[item] = true
			events = append(events, types.Event{
				Type: EventItemGranted,
				Data: map[string]any{"item": item},
			})

		case RemoveItem:
			item, _ := eff.Params["item"].(string)
			delete(s.Inventory, item)
			events = append(events, types.Event{
				Type: EventItemConsumed,
				Data: map[string]any{"item": item},
			})

		case RecordFact:
			fact, _ := eff.Params["fact"].(string)
			if s.History == nil {
				s.History = map[string]bool{}
			}
			s.History[fact] = true
			events = append(events, types.Event{
				Type: EventFactRecorded,
				Data: map[string]any{"fact": fact},
			})

		case MoveTo:
			scene, _ := eff.Params["scene"].(string)
			s.Scene = scene
			events = append(events, types.Event{
				Type: EventSceneEntered,
				Data: map[string]any{"scene": scene},
			})

		case EndStory:
			events = append(events, types.Event{
				Type: EventStoryEnded,
				Data: map[string]any{"scene": s.Scene},
			})
		}
	}

	return events, output
}

// SayEffect returns a say effect for the given text.
func SayEffect(text string) types.Effect {
	return types.Effect{Type: Say, Params: map[string]any{"text": text}}
}
