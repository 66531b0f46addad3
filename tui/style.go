package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/branchtale/engine"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleChoiceNumber = lipgloss.NewStyle().
				Foreground(lipgloss.Color("75")).
				Bold(true)

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	styleEnding = lipgloss.NewStyle().
			Foreground(lipgloss.Color("213")).
			Bold(true)

	styleDialogue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindChoice
	kindEnding
	kindDialogue
	kindSystem
	kindError
	kindTrace
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case line == engine.MsgTheEnd:
		return kindEnding
	case line == engine.MsgUnrecognized, line == engine.MsgLostThread, line == engine.MsgGameOver:
		return kindError
	case isChoiceLine(line):
		return kindChoice
	case containsQuotedSpeech(line):
		return kindDialogue
	default:
		return kindNarration
	}
}

// isChoiceLine reports whether line is an entry of a numbered choice list,
// e.g. "  2. open the door".
func isChoiceLine(line string) bool {
	rest, ok := strings.CutPrefix(line, "  ")
	if !ok {
		return false
	}
	num, _, ok := strings.Cut(rest, ". ")
	if !ok || num == "" {
		return false
	}
	for _, r := range num {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// containsQuotedSpeech checks if a line carries a spoken passage in double
// quotes of more than a few characters.
func containsQuotedSpeech(line string) bool {
	inQuote := false
	quoteLen := 0
	for _, r := range line {
		switch {
		case r == '"' || r == '“' || r == '”':
			if inQuote && quoteLen > 5 {
				return true
			}
			inQuote = !inQuote
			quoteLen = 0
		case inQuote:
			quoteLen++
		}
	}
	return false
}

// styledChoice renders "  2. open the door" with the number highlighted.
func styledChoice(line string) string {
	rest := strings.TrimPrefix(line, "  ")
	num, text, _ := strings.Cut(rest, ". ")
	return "  " + styleChoiceNumber.Render(num+".") + " " + styleChoice.Render(text)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
