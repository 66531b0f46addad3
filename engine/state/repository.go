package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nathoo/branchtale/types"
)

// ErrContent indicates malformed authored content. Loading aborts on it.
var ErrContent = errors.New("content error")

// ContentError reports malformed content at a path in the content graph.
// Wraps ErrContent for errors.Is() compatibility.
type ContentError struct {
	Path string // e.g. "scenes.atrium.transitions.look"
	Msg  string
}

func (e *ContentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrContent.Error(), e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", ErrContent.Error(), e.Path, e.Msg)
}

func (e *ContentError) Unwrap() error { return ErrContent }

// Repository is the immutable, shared view of all authored scenes.
// It is built once per content load and never mutated; a reload builds a
// new Repository (see Store).
type Repository struct {
	meta   types.GameMeta
	scenes map[string]types.Scene
	ids    []string // sorted
}

// NewRepository checks the structural rules every repository must satisfy
// and returns a Repository holding its own copy of the scenes. It fails with
// a *ContentError when a scene id is empty or duplicated, a choice command is
// repeated within a scene, or a transition is keyed by an undeclared command.
// No graph-level checks are made here.
func NewRepository(meta types.GameMeta, scenes []types.Scene) (*Repository, error) {
	r := &Repository{
		meta:   meta,
		scenes: make(map[string]types.Scene, len(scenes)),
	}

	for i, sc := range scenes {
		if sc.ID == "" {
			return nil, &ContentError{
				Path: fmt.Sprintf("scenes[%d]", i),
				Msg:  "scene id is empty",
			}
		}
		if _, dup := r.scenes[sc.ID]; dup {
			return nil, &ContentError{
				Path: ScenePath(sc.ID),
				Msg:  fmt.Sprintf("duplicate scene id %q", sc.ID),
			}
		}

		declared := make(map[string]bool, len(sc.Choices))
		for _, ch := range sc.Choices {
			if declared[ch.Command] {
				return nil, &ContentError{
					Path: ChoicePath(sc.ID, ch.Command),
					Msg:  fmt.Sprintf("command %q declared more than once", ch.Command),
				}
			}
			declared[ch.Command] = true
		}
		for cmd := range sc.Transitions {
			if !declared[cmd] {
				return nil, &ContentError{
					Path: TransitionPath(sc.ID, cmd),
					Msg:  fmt.Sprintf("transition %q does not match any declared choice", cmd),
				}
			}
		}

		r.scenes[sc.ID] = copyScene(sc)
		r.ids = append(r.ids, sc.ID)
	}
	slices.Sort(r.ids)
	return r, nil
}

// Meta returns the game metadata.
func (r *Repository) Meta() types.GameMeta {
	return r.meta
}

// Lookup returns a copy of the scene with the given id. Changing the copy
// never reaches the repository.
func (r *Repository) Lookup(id string) (types.Scene, bool) {
	sc, ok := r.scenes[id]
	if !ok {
		return types.Scene{}, false
	}
	return copyScene(sc), true
}

// Has reports whether a scene with the given id exists.
func (r *Repository) Has(id string) bool {
	_, ok := r.scenes[id]
	return ok
}

// SceneIDs returns all scene ids in sorted order.
func (r *Repository) SceneIDs() []string {
	return slices.Clone(r.ids)
}

// Len returns the number of scenes.
func (r *Repository) Len() int {
	return len(r.ids)
}

// Commands returns the scene's transition commands in choice order. A choice
// without a transition is skipped.
func Commands(sc types.Scene) []string {
	var cmds []string
	for _, ch := range sc.Choices {
		if _, ok := sc.Transitions[ch.Command]; ok {
			cmds = append(cmds, ch.Command)
		}
	}
	return cmds
}

// ScenePath returns the content path of a scene.
func ScenePath(id string) string {
	return "scenes." + id
}

// TransitionPath returns the content path of a scene's transition.
func TransitionPath(id, command string) string {
	return ScenePath(id) + ".transitions." + command
}

// ChoicePath returns the content path of a scene's choice.
func ChoicePath(id, command string) string {
	return ScenePath(id) + ".choices." + command
}

func copyScene(sc types.Scene) types.Scene {
	out := sc
	out.Choices = slices.Clone(sc.Choices)
	out.Transitions = make(map[string]types.Transition, len(sc.Transitions))
	for cmd, tr := range sc.Transitions {
		out.Transitions[cmd] = copyTransition(tr)
	}
	return out
}

func copyTransition(tr types.Transition) types.Transition {
	out := tr
	out.Requires = types.Guard{
		History:   slices.Clone(tr.Requires.History),
		Inventory: slices.Clone(tr.Requires.Inventory),
	}
	out.Consumes = slices.Clone(tr.Consumes)
	out.Records = slices.Clone(tr.Records)
	if tr.Overrides != nil {
		out.Overrides = make([]types.NarrationOverride, len(tr.Overrides))
		for i, ov := range tr.Overrides {
			out.Overrides[i] = types.NarrationOverride{
				Narration: ov.Narration,
				Records:   slices.Clone(ov.Records),
				When: types.Conditions{
					HistoryAll:    slices.Clone(ov.When.HistoryAll),
					HistoryAny:    slices.Clone(ov.When.HistoryAny),
					HistoryNone:   slices.Clone(ov.When.HistoryNone),
					InventoryAll:  slices.Clone(ov.When.InventoryAll),
					InventoryAny:  slices.Clone(ov.When.InventoryAny),
					InventoryNone: slices.Clone(ov.When.InventoryNone),
				},
			}
		}
	}
	return out
}
