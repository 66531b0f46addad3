package tui

import "strings"

// History keeps the commands entered this session for Up/Down recall.
// The cursor equals len(entries) while the player is typing fresh input.
type History struct {
	entries []string
	max     int
	cursor  int
}

// NewHistory creates a history that keeps at most max entries.
func NewHistory(max int) *History {
	return &History{entries: make([]string, 0, max), max: max}
}

// Push records a command. Blank input and an immediate repeat of the last
// entry are ignored.
func (h *History) Push(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}
	if n := len(h.entries); n > 0 && h.entries[n-1] == cmd {
		h.cursor = n
		return
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	h.cursor = len(h.entries)
}

// Prev steps back to an older entry, stopping at the oldest.
// Returns ("", false) if history is empty.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps forward to a newer entry. Returns ("", false) once past the
// newest entry, i.e. back to fresh input.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor returns to fresh input.
func (h *History) ResetCursor() {
	h.cursor = len(h.entries)
}

// Len returns the number of stored entries.
func (h *History) Len() int {
	return len(h.entries)
}
