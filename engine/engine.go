// Package engine provides the Step() orchestrator that drives one playthrough
// session: it hands each command to a Narrator and turns the outcome into
// player-facing output.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nathoo/branchtale/engine/effects"
	"github.com/nathoo/branchtale/engine/events"
	"github.com/nathoo/branchtale/engine/resolve"
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// Player-facing messages.
const (
	MsgEmptyInput   = "What do you want to do?"
	MsgUnrecognized = "I don't understand that."
	MsgGameOver     = "The story is over. Use /load to restore a save or /quit to exit."
	MsgTheEnd       = "*** The End ***"
	MsgLostThread   = "The story seems to have lost its thread."
)

// Engine holds one session: the shared repository store, the narrator, and
// the session's own world state.
type Engine struct {
	Store    *state.Store
	Narrator Narrator
	State    *types.WorldState
	Turn     int
	Ended    bool
	Log      []string // commands issued, in order
	Logger   *slog.Logger
}

// New creates an engine positioned at start, using a scripted narrator over
// store. An empty start falls back to the repository's metadata.
func New(store *state.Store, start string) *Engine {
	if start == "" {
		start = store.Current().Meta().Start
	}
	return &Engine{
		Store:    store,
		Narrator: ScriptedNarrator{Store: store},
		State:    state.NewWorldState(start),
		Log:      []string{},
		Logger:   slog.Default(),
	}
}

// Restore replaces the session state, e.g. after loading a save.
func (e *Engine) Restore(s *types.WorldState, turn int, ended bool, log []string) {
	e.State = s
	e.Turn = turn
	e.Ended = ended
	e.Log = log
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	var result types.Result

	// 0. Ended: block all gameplay commands.
	if e.Ended {
		result.Output = append(result.Output, MsgGameOver)
		return result
	}

	// 1. Commands are exact tokens; only surrounding space is dropped.
	command := strings.TrimSpace(input)
	if command == "" {
		result.Output = append(result.Output, MsgEmptyInput)
		return result
	}

	// 2. Log the command.
	e.Log = append(e.Log, command)
	e.Turn++

	// 3. Ask the narrator.
	outcome, err := e.Narrator.ProposeOutcome(e.State, command)
	result.Outcome = outcome
	if err != nil {
		if errors.Is(err, resolve.ErrUnknownScene) {
			e.Logger.Error("world state points at a missing scene",
				"scene", e.State.Scene, "command", command, "err", err)
		} else {
			e.Logger.Error("narrator failed", "command", command, "err", err)
		}
		result.Output = append(result.Output, MsgLostThread)
		return result
	}

	// 4. Render.
	switch outcome.Kind {
	case types.OutcomeUnrecognized:
		result.Output = append(result.Output, MsgUnrecognized)

	case types.OutcomeBlocked:
		result.Output = append(result.Output, outcome.Narration)

	case types.OutcomeMoved:
		result.Events = outcome.Events
		result.Output = append(result.Output, outcome.Narration)
		// A narrator may signal the ending with the flag or the event.
		if outcome.Terminal || events.Count(outcome.Events, effects.EventStoryEnded) > 0 {
			e.Ended = true
			e.Logger.Info("story ended", "scene", outcome.From, "command", command, "turn", e.Turn)
			result.Output = append(result.Output, "", MsgTheEnd)
		} else {
			result.Output = append(result.Output, "")
			result.Output = append(result.Output, e.Describe()...)
		}
	}

	e.Logger.Debug("step", "command", command, "outcome", string(outcome.Kind),
		"from", outcome.From, "to", outcome.To, "override", outcome.Override)
	return result
}

// Describe returns the current scene's description followed by its choices.
func (e *Engine) Describe() []string {
	scene, ok := e.Store.Current().Lookup(e.State.Scene)
	if !ok {
		e.Logger.Error("world state points at a missing scene", "scene", e.State.Scene)
		return []string{MsgLostThread}
	}
	return DescribeScene(scene)
}

// DescribeScene renders a scene's description and its numbered choices.
func DescribeScene(scene types.Scene) []string {
	var lines []string
	if scene.Description != "" {
		lines = append(lines, scene.Description)
	}
	if len(scene.Choices) > 0 {
		lines = append(lines, "")
		for i, ch := range scene.Choices {
			if ch.Description != "" {
				lines = append(lines, fmt.Sprintf("  %d. %s — %s", i+1, ch.Command, ch.Description))
			} else {
				lines = append(lines, fmt.Sprintf("  %d. %s", i+1, ch.Command))
			}
		}
	}
	return lines
}

// Choices returns the commands available in the current scene.
func (e *Engine) Choices() []string {
	scene, ok := e.Store.Current().Lookup(e.State.Scene)
	if !ok {
		return nil
	}
	cmds := make([]string, 0, len(scene.Choices))
	for _, ch := range scene.Choices {
		cmds = append(cmds, ch.Command)
	}
	return cmds
}

// Command maps raw player input to a command token. Surrounding space is
// trimmed, and a bare number selects that entry of the current scene's
// numbered choice list unless the scene declares the number as a command.
func (e *Engine) Command(input string) string {
	command := strings.TrimSpace(input)
	n, err := strconv.Atoi(command)
	if err != nil {
		return command
	}
	choices := e.Choices()
	for _, c := range choices {
		if c == command {
			return command
		}
	}
	if n >= 1 && n <= len(choices) {
		return choices[n-1]
	}
	return command
}
