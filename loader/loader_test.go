package loader

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

func quietLogger() Option {
	return WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func TestLoad_Minimal(t *testing.T) {
	repo, err := Load("testdata/minimal", quietLogger())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	meta := repo.Meta()
	if meta.Title != "Minimal Test Story" || meta.Start != "atrium" || meta.Version != "1.0" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Intro != "You wake beneath a glass dome." {
		t.Errorf("Intro = %q", meta.Intro)
	}
	if !slices.Equal(repo.SceneIDs(), []string{"atrium", "library"}) {
		t.Errorf("SceneIDs = %v", repo.SceneIDs())
	}

	atrium, _ := repo.Lookup("atrium")
	if atrium.Description != "A marble atrium." {
		t.Errorf("Description = %q", atrium.Description)
	}
	if len(atrium.Choices) != 2 || atrium.Choices[0].Description != "Look around" {
		t.Errorf("Choices = %+v", atrium.Choices)
	}
	if atrium.Transitions["look"].Target != "library" {
		t.Errorf("look = %+v", atrium.Transitions["look"])
	}
	if atrium.Transitions["leave"].Target != "" {
		t.Error("leave should be terminal")
	}
}

func TestLoad_MixedSources(t *testing.T) {
	repo, err := Load("testdata/mixed", quietLogger())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if repo.Meta().Title != "Mixed Sources" {
		t.Errorf("meta = %+v", repo.Meta())
	}
	if !slices.Equal(repo.SceneIDs(), []string{"atrium", "tower", "vault"}) {
		t.Errorf("SceneIDs = %v", repo.SceneIDs())
	}

	atrium, _ := repo.Lookup("atrium")
	descend := atrium.Transitions["descend"]
	if !slices.Equal(descend.Requires.Inventory, []string{"torch"}) {
		t.Errorf("Requires = %+v", descend.Requires)
	}
	if descend.FailureNarration != "The stairs vanish into blackness." {
		t.Errorf("FailureNarration = %q", descend.FailureNarration)
	}
	if len(descend.Overrides) != 2 {
		t.Fatalf("Overrides = %+v", descend.Overrides)
	}
	first := descend.Overrides[0]
	if !slices.Equal(first.When.HistoryAll, []string{"took_torch"}) ||
		!slices.Equal(first.When.HistoryNone, []string{"relit_torch"}) {
		t.Errorf("override conditions = %+v", first.When)
	}
	if len(nonEmptyGroups(descend.Overrides[1].When)) != 0 {
		t.Errorf("second override should be unconditioned: %+v", descend.Overrides[1].When)
	}

	take := atrium.Transitions["take torch"]
	if take.Item != "torch" || !slices.Equal(take.Records, []string{"took_torch"}) {
		t.Errorf("take torch = %+v", take)
	}

	vault, _ := repo.Lookup("vault")
	if !vault.Ending {
		t.Error("vault should be an ending")
	}

	tower, _ := repo.Lookup("tower")
	jump := tower.Transitions["jump"]
	if jump.Target != "" || !slices.Equal(jump.Consumes, []string{"torch"}) {
		t.Errorf("jump = %+v", jump)
	}
	if tower.Choices[0].Description != "Leap from the parapet" {
		t.Errorf("tower choices = %+v", tower.Choices)
	}
}

// nonEmptyGroups lists the non-empty condition groups.
func nonEmptyGroups(c types.Conditions) [][]string {
	var out [][]string
	for _, g := range [][]string{c.HistoryAll, c.HistoryAny, c.HistoryNone, c.InventoryAll, c.InventoryAny, c.InventoryNone} {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func TestLoad_Lua(t *testing.T) {
	repo, err := Load("testdata/lua", quietLogger())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	meta := repo.Meta()
	if meta.Title != "Lua Story" || meta.Start != "gate" || meta.Author != "Tester" {
		t.Errorf("meta = %+v", meta)
	}

	gate, ok := repo.Lookup("gate")
	if !ok {
		t.Fatal("gate not found")
	}
	if !slices.Equal(state.Commands(gate), []string{"open gate", "knock"}) {
		t.Errorf("Commands = %v", state.Commands(gate))
	}
	if gate.Choices[1].Description != "" {
		t.Errorf("knock description = %q", gate.Choices[1].Description)
	}

	open := gate.Transitions["open gate"]
	if !slices.Equal(open.Requires.History, []string{"knocked"}) {
		t.Errorf("Requires = %+v", open.Requires)
	}
	if len(open.Overrides) != 2 || open.Overrides[0].Narration != "The gate swings wide for a friend." {
		t.Errorf("Overrides = %+v", open.Overrides)
	}
	if !slices.Equal(open.Overrides[0].When.HistoryAll, []string{"friend"}) {
		t.Errorf("override When = %+v", open.Overrides[0].When)
	}

	yard, _ := repo.Lookup("yard")
	if !yard.Ending || len(yard.Choices) != 0 {
		t.Errorf("yard = %+v", yard)
	}
}

func TestLoad_NoContentFiles(t *testing.T) {
	_, err := Load("testdata/empty", quietLogger())
	if err == nil || !strings.Contains(err.Error(), "no content files") {
		t.Fatalf("expected no-content error, got %v", err)
	}
}

func TestLoad_MissingDirectory(t *testing.T) {
	if _, err := Load("testdata/does-not-exist", quietLogger()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLoad_DuplicateSceneAcrossFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.yaml": "atrium:\n  description: One.\n",
		"b.json": `{"atrium": {"description": "Two."}}`,
	})

	_, err := Load(dir, quietLogger())
	var ce *ContentError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContentError, got %v", err)
	}
	if ce.Path != "scenes.atrium" {
		t.Errorf("Path = %q", ce.Path)
	}
	if !errors.Is(err, ErrContent) {
		t.Error("expected errors.Is(err, ErrContent)")
	}
}

func TestLoad_DuplicateSceneAcrossLuaFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.lua": `Scene "atrium" { description = "One." }`,
		"b.lua": `Scene "atrium" { description = "Two." }`,
	})

	_, err := Load(dir, quietLogger())
	var ce *ContentError
	if !errors.As(err, &ce) || ce.Path != "scenes.atrium" {
		t.Fatalf("expected ContentError at scenes.atrium, got %v", err)
	}
	if !strings.Contains(ce.Msg, "a.lua") || !strings.Contains(ce.Msg, "b.lua") {
		t.Errorf("Msg = %q", ce.Msg)
	}
}

func TestLoad_MetadataDefinedTwice(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"game.yaml": "title: One\n",
		"game.lua":  `Game { title = "Two" }`,
	})

	_, err := Load(dir, quietLogger())
	var ce *ContentError
	if !errors.As(err, &ce) || ce.Path != "game" {
		t.Fatalf("expected ContentError at game, got %v", err)
	}
}

func TestLoad_WarnsWithoutStart(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scenes.yaml": "atrium:\n  description: Alone.\n",
	})
	var logs bytes.Buffer

	if _, err := Load(dir, WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(logs.String(), "no start scene") {
		t.Errorf("expected warning, got %q", logs.String())
	}
}

func TestReload_SwapsOnSuccess(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scenes.yaml": "atrium:\n  description: Before.\n",
	})
	repo, err := Load(dir, quietLogger())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	store := state.NewStore(repo)

	if err := os.WriteFile(filepath.Join(dir, "scenes.yaml"), []byte("atrium:\n  description: After.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Reload(store, dir, quietLogger()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	sc, _ := store.Current().Lookup("atrium")
	if sc.Description != "After." {
		t.Errorf("Description = %q", sc.Description)
	}
	old, _ := repo.Lookup("atrium")
	if old.Description != "Before." {
		t.Error("previous repository must not change")
	}
}

func TestReload_KeepsCurrentOnFailure(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scenes.yaml": "atrium:\n  description: Before.\n",
	})
	repo, err := Load(dir, quietLogger())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	store := state.NewStore(repo)

	if err := os.WriteFile(filepath.Join(dir, "scenes.yaml"), []byte("atrium: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Reload(store, dir, quietLogger()); err == nil {
		t.Fatal("expected reload error")
	}
	if store.Current() != repo {
		t.Error("failed reload must keep the current repository")
	}
}

func TestSortedContentFiles(t *testing.T) {
	got := sortedContentFiles([]string{"zeta.yaml", "game.lua", "alpha.json", "game.yaml", "beta.lua"})
	want := []string{"game.lua", "game.yaml", "alpha.json", "beta.lua", "zeta.yaml"}
	if !slices.Equal(got, want) {
		t.Errorf("sortedContentFiles = %v, want %v", got, want)
	}
}
