package state

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/nathoo/branchtale/types"
)

func testScenes() []types.Scene {
	return []types.Scene{
		{
			ID:          "atrium",
			Description: "A marble atrium.",
			Choices: []types.Choice{
				{Command: "look", Description: "Look around"},
				{Command: "leave", Description: "Walk out"},
			},
			Transitions: map[string]types.Transition{
				"look":  {Narration: "You head for the library.", Target: "library"},
				"leave": {Narration: "You leave. The end."},
			},
		},
		{
			ID:          "library",
			Description: "Shelves climb into darkness.",
		},
	}
}

func TestNewWorldState_StartsAtStartScene(t *testing.T) {
	s := NewWorldState("atrium")

	if s.Scene != "atrium" {
		t.Errorf("expected scene atrium, got %q", s.Scene)
	}
	if len(s.Inventory) != 0 || len(s.History) != 0 {
		t.Errorf("expected empty sets, got inventory=%v history=%v", s.Inventory, s.History)
	}
}

func TestHasItemAndFact(t *testing.T) {
	s := NewWorldState("atrium")
	s.Inventory["torch"] = true
	s.History["met_archivist"] = true
	s.History["lost_map"] = false

	if !HasItem(s, "torch") {
		t.Error("expected torch to be held")
	}
	if HasItem(s, "rope") {
		t.Error("expected rope to be missing")
	}
	if !HasFact(s, "met_archivist") {
		t.Error("expected met_archivist to be recorded")
	}
	if HasFact(s, "lost_map") {
		t.Error("a false entry should count as absent")
	}
}

func TestItemsAndFacts_Sorted(t *testing.T) {
	s := NewWorldState("atrium")
	s.Inventory["torch"] = true
	s.Inventory["key"] = true
	s.Inventory["rope"] = false
	s.History["b"] = true
	s.History["a"] = true

	if got := Items(s); !slices.Equal(got, []string{"key", "torch"}) {
		t.Errorf("Items = %v", got)
	}
	if got := Facts(s); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Facts = %v", got)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	s := NewWorldState("atrium")
	s.Inventory["torch"] = true

	c := Clone(s)
	c.Inventory["key"] = true
	c.History["x"] = true
	c.Scene = "library"

	if s.Inventory["key"] || s.History["x"] || s.Scene != "atrium" {
		t.Errorf("clone mutation leaked into original: %+v", s)
	}
	if !Equal(s, Clone(s)) {
		t.Error("expected a clone to equal its source")
	}
}

func TestClone_NilSets(t *testing.T) {
	c := Clone(&types.WorldState{Scene: "atrium"})
	if c.Inventory == nil || c.History == nil {
		t.Fatal("expected non-nil sets after clone")
	}
}

func TestEqual(t *testing.T) {
	a := NewWorldState("atrium")
	b := NewWorldState("atrium")
	b.History["ghost"] = false

	if !Equal(a, b) {
		t.Error("false entries should not affect equality")
	}
	b.History["ghost"] = true
	if Equal(a, b) {
		t.Error("expected states with different history to differ")
	}
}

func TestNewRepository_Lookup(t *testing.T) {
	repo, err := NewRepository(types.GameMeta{Start: "atrium"}, testScenes())
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	sc, ok := repo.Lookup("atrium")
	if !ok {
		t.Fatal("atrium not found")
	}
	if sc.Transitions["look"].Target != "library" {
		t.Errorf("look target = %q", sc.Transitions["look"].Target)
	}
	if _, ok := repo.Lookup("cellar"); ok {
		t.Error("expected cellar to be missing")
	}
	if got := repo.SceneIDs(); !slices.Equal(got, []string{"atrium", "library"}) {
		t.Errorf("SceneIDs = %v", got)
	}
	if repo.Len() != 2 {
		t.Errorf("Len = %d", repo.Len())
	}
	if repo.Meta().Start != "atrium" {
		t.Errorf("Meta().Start = %q", repo.Meta().Start)
	}
}

func TestNewRepository_CopiesInput(t *testing.T) {
	scenes := testScenes()
	repo, err := NewRepository(types.GameMeta{}, scenes)
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	scenes[0].Description = "changed"
	scenes[0].Transitions["look"] = types.Transition{Narration: "changed"}
	scenes[0].Choices[0].Command = "changed"

	sc, _ := repo.Lookup("atrium")
	if sc.Description != "A marble atrium." {
		t.Errorf("description changed through caller slice: %q", sc.Description)
	}
	if sc.Transitions["look"].Narration != "You head for the library." {
		t.Error("transition changed through caller map")
	}
	if sc.Choices[0].Command != "look" {
		t.Error("choice changed through caller slice")
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	repo, err := NewRepository(types.GameMeta{}, testScenes())
	if err != nil {
		t.Fatalf("NewRepository failed: %v", err)
	}

	sc, _ := repo.Lookup("atrium")
	sc.Transitions["look"] = types.Transition{Narration: "changed"}
	sc.Transitions["dance"] = types.Transition{Narration: "added"}
	sc.Choices[0].Command = "changed"

	again, _ := repo.Lookup("atrium")
	if again.Transitions["look"].Narration != "You head for the library." {
		t.Error("transition changed through a looked-up scene")
	}
	if _, ok := again.Transitions["dance"]; ok {
		t.Error("transition added through a looked-up scene")
	}
	if again.Choices[0].Command != "look" {
		t.Error("choice changed through a looked-up scene")
	}
}

func TestNewRepository_ContentErrors(t *testing.T) {
	tests := []struct {
		name     string
		scenes   []types.Scene
		wantPath string
	}{
		{
			name:     "empty id",
			scenes:   []types.Scene{{ID: ""}},
			wantPath: "scenes[0]",
		},
		{
			name:     "duplicate id",
			scenes:   []types.Scene{{ID: "atrium"}, {ID: "atrium"}},
			wantPath: "scenes.atrium",
		},
		{
			name: "undeclared transition",
			scenes: []types.Scene{{
				ID:          "atrium",
				Choices:     []types.Choice{{Command: "look"}},
				Transitions: map[string]types.Transition{"jump": {Narration: "Whee."}},
			}},
			wantPath: "scenes.atrium.transitions.jump",
		},
		{
			name: "repeated command",
			scenes: []types.Scene{{
				ID:      "atrium",
				Choices: []types.Choice{{Command: "look"}, {Command: "look"}},
			}},
			wantPath: "scenes.atrium.choices.look",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRepository(types.GameMeta{}, tt.scenes)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrContent) {
				t.Errorf("expected ErrContent, got %T: %v", err, err)
			}
			var ce *ContentError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ContentError, got %T", err)
			}
			if ce.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", ce.Path, tt.wantPath)
			}
		})
	}
}

func TestNewRepository_CaseVariantsAllowed(t *testing.T) {
	// Case-only duplicates are a validator warning, not a load failure.
	_, err := NewRepository(types.GameMeta{}, []types.Scene{{
		ID:      "atrium",
		Choices: []types.Choice{{Command: "look"}, {Command: "LOOK"}},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCommands_ChoiceOrder(t *testing.T) {
	sc := types.Scene{
		ID: "atrium",
		Choices: []types.Choice{
			{Command: "wait"},
			{Command: "look"},
			{Command: "leave"},
		},
		Transitions: map[string]types.Transition{
			"leave": {},
			"wait":  {},
		},
	}
	if got := Commands(sc); !slices.Equal(got, []string{"wait", "leave"}) {
		t.Errorf("Commands = %v", got)
	}
}

func TestPaths(t *testing.T) {
	if got := TransitionPath("atrium", "look"); got != "scenes.atrium.transitions.look" {
		t.Errorf("TransitionPath = %q", got)
	}
	if got := ChoicePath("atrium", "look"); got != "scenes.atrium.choices.look" {
		t.Errorf("ChoicePath = %q", got)
	}
}

func TestStore_Swap(t *testing.T) {
	first, _ := NewRepository(types.GameMeta{}, testScenes())
	second, _ := NewRepository(types.GameMeta{}, testScenes()[:1])

	st := NewStore(first)
	held := st.Current()

	old := st.Swap(second)
	if old != first {
		t.Error("Swap should return the previous repository")
	}
	if st.Current() != second {
		t.Error("Current should return the swapped-in repository")
	}
	// A reader holding the old reference keeps a coherent view.
	if !held.Has("library") {
		t.Error("held repository lost a scene after swap")
	}
}

func TestStore_ConcurrentReaders(t *testing.T) {
	first, _ := NewRepository(types.GameMeta{}, testScenes())
	second, _ := NewRepository(types.GameMeta{}, testScenes())
	st := NewStore(first)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				repo := st.Current()
				if repo.Len() != 2 {
					t.Errorf("reader saw %d scenes", repo.Len())
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			st.Swap(second)
		} else {
			st.Swap(first)
		}
	}
	wg.Wait()
}
