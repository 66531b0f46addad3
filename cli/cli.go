// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for a BranchTale playthrough.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nathoo/branchtale/engine"
	"github.com/nathoo/branchtale/engine/events"
	"github.com/nathoo/branchtale/engine/save"
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/graph"
	"github.com/nathoo/branchtale/loader"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine     *engine.Engine
	In         io.Reader
	Out        io.Writer
	SaveDir    string
	ContentDir string // source for /reload; empty disables reloading
	Trace      bool
	EchoInput  bool   // echo each input line after the prompt (for script playback)
	Logger     *slog.Logger
	lastCmd    string // for "again"/"g" repeat
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, contentDir, saveDir string) *CLI {
	return &CLI{
		Engine:     eng,
		In:         os.Stdin,
		Out:        os.Stdout,
		SaveDir:    saveDir,
		ContentDir: contentDir,
		Logger:     slog.Default(),
	}
}

// Run starts the playthrough. It shows the intro, describes the starting
// scene, then loops: prompt → input → dispatch → output.
func (c *CLI) Run() {
	if intro := c.Engine.Store.Current().Meta().Intro; intro != "" {
		c.printLine(intro)
		c.printLine("")
	}
	c.printLines(c.Engine.Describe())

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		// "again" / "g" repeats the last story command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			input = c.Engine.Command(input)
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printLines(result.Output)

		if c.Trace {
			c.printLines(events.Trace(result))
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the session should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/reload":
		c.cmdReload()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func savePath(dir, name string) string {
	if name == "" {
		name = "quicksave"
	}
	return filepath.Join(dir, filepath.Base(name)+".json")
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Engine)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.WriteFile(savePath(c.SaveDir, name), data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Story saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := os.ReadFile(savePath(c.SaveDir, name))
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}

	if err := save.ApplySave(c.Engine, sd); err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.lastCmd = ""
	c.printSystem(fmt.Sprintf("Story loaded from %s (turn %d).", name, sd.Turn))

	if c.Engine.Ended {
		c.printLine(engine.MsgGameOver)
		return
	}
	c.printLines(c.Engine.Describe())
}

func (c *CLI) cmdReload() {
	if c.ContentDir == "" {
		c.printSystem("Reload unavailable: no content directory.")
		return
	}

	repo, err := loader.Reload(c.Engine.Store, c.ContentDir, loader.WithLogger(c.Logger))
	if err != nil {
		c.printSystem(fmt.Sprintf("Reload failed, keeping current story: %v", err))
		return
	}

	issues := graph.ValidateRepository(repo, c.Engine.State.Scene)
	errs, warns := graph.Counts(issues)
	c.printSystem(fmt.Sprintf("Reloaded %s (%s, %s).",
		plural(repo.Len(), "scene"), plural(errs, "error"), plural(warns, "warning")))

	if !repo.Has(c.Engine.State.Scene) {
		c.printSystem(fmt.Sprintf("Warning: current scene %q no longer exists.", c.Engine.State.Scene))
	}
}

func (c *CLI) cmdHelp() {
	help := []string{
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
	}
	c.printLines(help)
}

func (c *CLI) cmdState() {
	s := c.Engine.State
	c.printSystem(fmt.Sprintf("Turn: %d", c.Engine.Turn))
	c.printSystem(fmt.Sprintf("Scene: %s", s.Scene))
	c.printSystem(fmt.Sprintf("Inventory: %v", state.Items(s)))
	c.printSystem(fmt.Sprintf("History: %v", state.Facts(s)))
	if c.Engine.Ended {
		c.printSystem("Story ended.")
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func (c *CLI) printLines(lines []string) {
	for _, line := range lines {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
