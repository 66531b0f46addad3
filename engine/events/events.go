// Package events formats the effects and events of a step for trace output.
package events

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/branchtale/types"
)

// Trace returns "[trace]" lines describing a step's outcome, the effects
// it planned, and the events they emitted.
func Trace(result types.Result) []string {
	out := result.Outcome
	if out.Kind == "" {
		return nil
	}

	lines := []string{fmt.Sprintf("[trace] Outcome: %s (%s -> %s)", out.Kind, out.From, out.To)}
	if out.Override >= 0 {
		lines = append(lines, fmt.Sprintf("[trace] Narration override #%d", out.Override))
	}
	if len(out.Effects) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Effects: %d", len(out.Effects)))
		for _, e := range out.Effects {
			lines = append(lines, fmt.Sprintf("[trace]   %s%s", e.Type, formatData(e.Params)))
		}
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s%s", e.Type, formatData(e.Data)))
		}
	}
	return lines
}

// Count returns how many events of the given type were emitted.
func Count(evts []types.Event, eventType string) int {
	n := 0
	for _, e := range evts {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// formatData renders params as " k=v k=v" with keys sorted.
func formatData(data map[string]any) string {
	if len(data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, data[k])
	}
	return b.String()
}
