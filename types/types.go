// Package types defines the shared data structures for the BranchTale engine.
// This package contains only type definitions: no logic, no methods.
package types

// Choice is a command the player may issue in a scene, with the text shown
// to the player for it.
type Choice struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// Guard lists the history facts and inventory items a transition requires.
type Guard struct {
	History   []string `json:"history,omitempty"`
	Inventory []string `json:"inventory,omitempty"`
}

// Conditions is the condition set of a narration override. Each field is one
// tagged group; an empty group imposes no constraint.
type Conditions struct {
	HistoryAll    []string `json:"requires_history_all,omitempty"`
	HistoryAny    []string `json:"requires_history_any,omitempty"`
	HistoryNone   []string `json:"forbids_history_any,omitempty"`
	InventoryAll  []string `json:"requires_inventory_all,omitempty"`
	InventoryAny  []string `json:"requires_inventory_any,omitempty"`
	InventoryNone []string `json:"forbids_inventory_any,omitempty"`
}

// ClauseKind tags how a clause's ids are tested.
type ClauseKind string

const (
	RequireAll ClauseKind = "require_all"
	RequireAny ClauseKind = "require_any"
	ForbidAny  ClauseKind = "forbid_any"
)

// ClauseSource names the world-state set a clause is tested against.
type ClauseSource string

const (
	SourceHistory   ClauseSource = "history"
	SourceInventory ClauseSource = "inventory"
)

// Clause is one tagged group of a condition set.
type Clause struct {
	Kind   ClauseKind
	Source ClauseSource
	IDs    []string
}

// NarrationOverride replaces a transition's narration when its conditions
// hold against the pre-transition world state.
type NarrationOverride struct {
	Narration string     `json:"narration"`
	When      Conditions `json:"when"`
	Records   []string   `json:"records,omitempty"`
}

// Transition is the effect of issuing one command from a scene.
type Transition struct {
	Narration        string              `json:"narration"`
	Target           string              `json:"target,omitempty"` // empty = terminal
	Item             string              `json:"item,omitempty"`   // granted on success
	Requires         Guard               `json:"requires"`
	Consumes         []string            `json:"consumes,omitempty"`
	Records          []string            `json:"records,omitempty"`
	FailureNarration string              `json:"failure_narration,omitempty"`
	Overrides        []NarrationOverride `json:"narration_overrides,omitempty"`
}

// Scene is a node in the narrative graph.
type Scene struct {
	ID          string
	Description string
	Ending      bool // designed ending; a scene with no exits on purpose
	Choices     []Choice
	Transitions map[string]Transition // command → transition
}

// GameMeta holds optional game metadata from the content source.
type GameMeta struct {
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
	Version string `json:"version,omitempty"`
	Start   string `json:"start,omitempty"`
	Intro   string `json:"intro,omitempty"`
}

// WorldState is the per-session mutable state.
type WorldState struct {
	Scene     string          `json:"scene"`
	Inventory map[string]bool `json:"inventory"`
	History   map[string]bool `json:"history"`
}

// OutcomeKind classifies the result of attempting a command.
type OutcomeKind string

const (
	OutcomeUnrecognized OutcomeKind = "unrecognized"
	OutcomeBlocked      OutcomeKind = "blocked"
	OutcomeMoved        OutcomeKind = "moved"
)

// Outcome is the result of resolving one command. Only OutcomeMoved is ever
// accompanied by a world-state mutation.
type Outcome struct {
	Kind      OutcomeKind
	Command   string
	Narration string
	Terminal  bool
	From      string
	To        string
	Override  int // index of the selected narration override, -1 if none
	Effects   []Effect
	Events    []Event
}

// Effect is a single atomic state mutation instruction.
type Effect struct {
	Type   string
	Params map[string]any
}

// Event is emitted after effects are applied.
type Event struct {
	Type string
	Data map[string]any
}

// Result is the output of a single game step.
type Result struct {
	Outcome Outcome
	Events  []Event
	Output  []string
}

// Severity of a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one structural finding about the content graph.
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path"`
}
