// Package tui provides a full-screen terminal interface for playing a
// BranchTale story, built on Bubble Tea.
package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/branchtale/engine"
	"github.com/nathoo/branchtale/engine/events"
	"github.com/nathoo/branchtale/engine/save"
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/graph"
	"github.com/nathoo/branchtale/loader"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the BranchTale TUI.
type Model struct {
	engine *engine.Engine
	logger *slog.Logger

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated story lines (unstyled, for re-wrapping)

	width      int
	height     int
	ready      bool
	trace      bool
	quitting   bool
	lastCmd    string
	saveDir    string
	contentDir string
}

// storyOutputMsg carries output from the engine into the Update loop.
type storyOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given engine. contentDir is the
// source for /reload and may be empty.
func New(eng *engine.Engine, contentDir, saveDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		engine:     eng,
		logger:     eng.Logger,
		input:      ti,
		history:    NewHistory(100),
		saveDir:    saveDir,
		contentDir: contentDir,
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, contentDir, saveDir string) error {
	m := New(eng, contentDir, saveDir)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the title, intro and the
// opening scene.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		return storyOutputMsg{lines: m.openingLines()}
	}
}

func (m Model) openingLines() []string {
	var lines []string
	meta := m.engine.Store.Current().Meta()

	if title := titleLine(meta.Title, meta.Version, meta.Author); title != "" {
		lines = append(lines, title, "")
	}
	if meta.Intro != "" {
		lines = append(lines, meta.Intro, "")
	}
	return append(lines, m.engine.Describe()...)
}

// titleLine formats "Title v1.0 by Author", leaving out missing parts.
func titleLine(title, version, author string) string {
	if title == "" {
		return ""
	}
	if version != "" {
		title += " v" + version
	}
	if author != "" {
		title += " by " + author
	}
	return title
}

// Update handles messages (key presses, window resize, story output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case storyOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(storyOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m = m.playCommand(input)
	return m, nil
}

// playCommand runs one story command, resolving "again"/"g" and numbered
// choices first.
func (m Model) playCommand(input string) Model {
	var command string
	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			return m.appendOutput(storyOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
		}
		command = m.lastCmd
	} else {
		command = m.engine.Command(input)
		m.lastCmd = command
	}

	result := m.engine.Step(command)
	output := result.Output
	if m.trace {
		output = append(output, events.Trace(result)...)
	}
	return m.appendOutput(storyOutputMsg{input: input, lines: output})
}

// appendOutput adds lines to the story log and refreshes the viewport.
func (m Model) appendOutput(msg storyOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wordWrap(rl.text, width)))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wordWrap(rl.text, width)))
		case rl.kind == kindChoice:
			// Choice lines keep their indent; wrapping would drop it.
			styled = append(styled, styledChoice(rl.text))
		default:
			styled = append(styled, renderLineKind(wordWrap(rl.text, width), rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindEnding:
		return styleEnding.Render(line)
	case kindDialogue:
		return styleDialogue.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	lineLen := 0

	for i, word := range strings.Fields(text) {
		wLen := len(word)

		switch {
		case i == 0:
			lineLen = wLen
		case lineLen+1+wLen > width:
			result.WriteString("\n")
			lineLen = wLen
		default:
			result.WriteString(" ")
			lineLen += 1 + wLen
		}
		result.WriteString(word)
	}

	return result.String()
}

// View renders the full TUI layout: viewport, status bar and input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/reload":
		return m.cmdReload(), false

	case "/help":
		return m.cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) savePath(name string) string {
	return filepath.Join(m.saveDir, filepath.Base(name)+".json")
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(m.engine)
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	if err := os.WriteFile(m.savePath(name), data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Story saved to %s.", name)}
}

func (m *Model) cmdLoad(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := os.ReadFile(m.savePath(name))
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	if err := save.ApplySave(m.engine, sd); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	m.lastCmd = ""

	output := []string{fmt.Sprintf("Story loaded from %s (turn %d).", name, sd.Turn)}
	if m.engine.Ended {
		return append(output, engine.MsgGameOver)
	}
	return append(output, m.engine.Describe()...)
}

func (m *Model) cmdReload() []string {
	if m.contentDir == "" {
		return []string{"Reload unavailable: no content directory."}
	}

	repo, err := loader.Reload(m.engine.Store, m.contentDir, loader.WithLogger(m.logger))
	if err != nil {
		return []string{fmt.Sprintf("Reload failed, keeping current story: %v", err)}
	}

	errs, warns := graph.Counts(graph.ValidateRepository(repo, m.engine.State.Scene))
	output := []string{fmt.Sprintf("Reloaded %d scene(s) (%d error(s), %d warning(s)).", repo.Len(), errs, warns)}
	if !repo.Has(m.engine.State.Scene) {
		output = append(output, fmt.Sprintf("Warning: current scene %q no longer exists.", m.engine.State.Scene))
	}
	return output
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]  — Save story (default: quicksave)",
		"  /load [name]  — Load story (default: quicksave)",
		"  /reload       — Reload content from disk",
		"  /quit         — Exit",
		"  /help         — Show this help",
		"  /state        — Debug: dump current state",
		"  /trace        — Toggle debug trace output",
		"",
		"Story commands:",
		"  Type a choice exactly as listed, or its number.",
		"  again (g)     — Repeat your last command",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

func (m *Model) cmdState() []string {
	s := m.engine.State
	output := []string{
		fmt.Sprintf("Turn: %d", m.engine.Turn),
		fmt.Sprintf("Scene: %s", s.Scene),
		fmt.Sprintf("Inventory: %v", state.Items(s)),
		fmt.Sprintf("History: %v", state.Facts(s)),
	}
	if m.engine.Ended {
		output = append(output, "Story ended.")
	}
	return output
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
