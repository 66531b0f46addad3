package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/branchtale/engine/state"
)

// sceneDisplayName derives a human-readable name from a scene ID.
// "great_hall" -> "Great Hall", "library.annex" -> "Library Annex".
func sceneDisplayName(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing the
// current scene, the number of choices, the inventory, and the turn count.
func (m Model) renderStatusBar() string {
	s := m.engine.State

	left := fmt.Sprintf(" %s", sceneDisplayName(s.Scene))
	switch {
	case m.engine.Ended:
		left += " | The End"
	default:
		left += fmt.Sprintf(" | Choices: %d", len(m.engine.Choices()))
	}
	right := fmt.Sprintf("T:%d ", m.engine.Turn)

	// Show item names if they fit, otherwise just the count.
	if items := state.Items(s); len(items) > 0 {
		candidate := fmt.Sprintf("Inv: %s | T:%d ", strings.Join(items, ", "), m.engine.Turn)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | T:%d ", len(items), m.engine.Turn)
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
