package events

import (
	"strings"
	"testing"

	"github.com/nathoo/branchtale/types"
)

func TestTrace_EmptyResult(t *testing.T) {
	if lines := Trace(types.Result{}); lines != nil {
		t.Errorf("expected no trace lines, got %v", lines)
	}
}

func TestTrace_Moved(t *testing.T) {
	result := types.Result{
		Outcome: types.Outcome{
			Kind:     types.OutcomeMoved,
			From:     "atrium",
			To:       "library",
			Override: 1,
			Effects: []types.Effect{
				{Type: "record_fact", Params: map[string]any{"fact": "looked"}},
				{Type: "move_to", Params: map[string]any{"scene": "library"}},
			},
		},
		Events: []types.Event{
			{Type: "scene_entered", Data: map[string]any{"scene": "library"}},
		},
	}

	lines := Trace(result)
	joined := strings.Join(lines, "\n")

	for _, want := range []string{
		"[trace] Outcome: moved (atrium -> library)",
		"[trace] Narration override #1",
		"[trace] Effects: 2",
		"[trace]   record_fact fact=looked",
		"[trace] Events: 1",
		"[trace]   scene_entered scene=library",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func TestTrace_BlockedHasNoEffects(t *testing.T) {
	lines := Trace(types.Result{Outcome: types.Outcome{
		Kind: types.OutcomeBlocked, From: "atrium", To: "atrium", Override: -1,
	}})
	if len(lines) != 1 {
		t.Errorf("expected 1 line, got %v", lines)
	}
}

func TestFormatData_SortedKeys(t *testing.T) {
	got := formatData(map[string]any{"b": 2, "a": "x"})
	if got != " a=x b=2" {
		t.Errorf("formatData = %q", got)
	}
}

func TestCount(t *testing.T) {
	evts := []types.Event{{Type: "a"}, {Type: "b"}, {Type: "a"}}
	if got := Count(evts, "a"); got != 2 {
		t.Errorf("Count = %d", got)
	}
}
