package engine

import (
	"github.com/nathoo/branchtale/engine/resolve"
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// Capability tags the kind of narrator behind the Narrator contract.
type Capability string

const (
	// CapabilityScripted narrators resolve commands against authored content.
	CapabilityScripted Capability = "scripted"
	// CapabilityGenerative narrators are backed by a language model. None
	// ships in this module; hosts plug one in through the same interface.
	CapabilityGenerative Capability = "generative"
)

// Narrator proposes the outcome of a player command. Implementations must
// leave s untouched unless the outcome is OutcomeMoved.
type Narrator interface {
	Capability() Capability
	ProposeOutcome(s *types.WorldState, command string) (types.Outcome, error)
}

// ScriptedNarrator resolves commands against the repository currently
// published in Store.
type ScriptedNarrator struct {
	Store *state.Store
}

// Capability implements Narrator.
func (n ScriptedNarrator) Capability() Capability {
	return CapabilityScripted
}

// ProposeOutcome implements Narrator. The repository reference is taken once
// per call, so a concurrent reload never splits a resolution across two
// content versions.
func (n ScriptedNarrator) ProposeOutcome(s *types.WorldState, command string) (types.Outcome, error) {
	return resolve.Resolve(n.Store.Current(), s, command)
}
