// BranchTale plays, validates, and exports branching text stories authored
// as scene graphs.
//
// Usage:
//
//	branchtale [play] [--plain] [--script <file>] [--trace] [--start <id>] <content_dir>
//	branchtale validate [--json] [--start <id>] <content_dir>
//	branchtale graph [--start <id>] [--out <file>] <content_dir>
//	branchtale --version
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"

	"github.com/nathoo/branchtale/cli"
	"github.com/nathoo/branchtale/config"
	"github.com/nathoo/branchtale/engine"
	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/graph"
	"github.com/nathoo/branchtale/loader"
	"github.com/nathoo/branchtale/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Usage:
  branchtale [play] [--plain] [--script <file>] [--trace] [--start <id>] <content_dir>
  branchtale validate [--json] [--start <id>] <content_dir>
  branchtale graph [--start <id>] [--out <file>] <content_dir>
  branchtale --version
`

// options collects the flags of every subcommand.
type options struct {
	command    string
	contentDir string
	start      string
	plain      bool
	trace      bool
	script     string
	json       bool
	out        string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	opts, err := parseArgs(args, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n\n%s", err, usage)
		return 1
	}

	if opts.command == "version" {
		fmt.Fprintf(stdout, "branchtale %s (commit %s, built %s)\n", version, commit, date)
		return 0
	}
	if opts.contentDir == "" {
		fmt.Fprint(stderr, usage)
		return 1
	}

	logger := cfg.Logger(stderr)

	repo, err := loader.Load(opts.contentDir, loader.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "Error loading story: %v\n", err)
		return 1
	}
	if opts.start == "" {
		opts.start = repo.Meta().Start
	}

	switch opts.command {
	case "validate":
		return runValidate(repo, opts, stdout, stderr)
	case "graph":
		return runGraph(repo, opts, stdout, stderr)
	default:
		return runPlay(repo, opts, cfg, logger, stdout, stderr)
	}
}

// parseArgs reads the subcommand and its flags. Environment configuration
// supplies the defaults that flags leave unset.
func parseArgs(args []string, cfg config.Config) (options, error) {
	opts := options{
		command:    "play",
		contentDir: cfg.ContentDir,
		start:      cfg.StartScene,
		plain:      cfg.Plain,
	}

	if len(args) > 0 {
		switch args[0] {
		case "play", "validate", "graph":
			opts.command = args[0]
			args = args[1:]
		}
	}

	value := func(i int, flag string) (string, error) {
		if i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		return args[i+1], nil
	}

	var positional []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			opts.command = "version"
			return opts, nil
		case "--plain":
			opts.plain = true
		case "--trace":
			opts.trace = true
		case "--json":
			opts.json = true
		case "--script", "--start", "--out":
			v, err := value(i, args[i])
			if err != nil {
				return opts, err
			}
			switch args[i] {
			case "--script":
				opts.script = v
			case "--start":
				opts.start = v
			case "--out":
				opts.out = v
			}
			i++
		default:
			if len(args[i]) > 1 && args[i][0] == '-' {
				return opts, fmt.Errorf("unknown flag %s", args[i])
			}
			positional = append(positional, args[i])
		}
	}

	if len(positional) > 1 {
		return opts, fmt.Errorf("expected one content directory, got %d", len(positional))
	}
	if len(positional) == 1 {
		opts.contentDir = positional[0]
	}
	return opts, nil
}

func runValidate(repo *state.Repository, opts options, stdout, stderr io.Writer) int {
	issues := graph.ValidateRepository(repo, opts.start)

	if opts.json {
		data, err := json.MarshalIndent(graph.Report(issues), "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", oops.In("validate").Wrapf(err, "encode report"))
			return 1
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		cli.WriteReport(stdout, issues)
	}

	if graph.Failed(issues) {
		return 1
	}
	return 0
}

func runGraph(repo *state.Repository, opts options, stdout, stderr io.Writer) int {
	g := graph.Build(repo, opts.start)
	doc := graph.Export(g, graph.Validate(g), time.Now().UTC())

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", oops.In("graph").Wrapf(err, "encode graph"))
		return 1
	}
	data = append(data, '\n')

	if opts.out == "" {
		stdout.Write(data)
		return 0
	}
	if err := os.WriteFile(opts.out, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", oops.In("graph").With("out", opts.out).Wrapf(err, "write graph"))
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %d nodes and %d edges to %s\n", len(doc.Nodes), len(doc.Edges), opts.out)
	return 0
}

func runPlay(repo *state.Repository, opts options, cfg config.Config, logger *slog.Logger, stdout, stderr io.Writer) int {
	if !repo.Has(opts.start) {
		fmt.Fprintf(stderr, "Error: start scene %q is not defined\n", opts.start)
		return 1
	}

	eng := engine.New(state.NewStore(repo), opts.start)
	eng.Logger = logger
	meta := repo.Meta()

	// Script mode: read commands from a file, force plain, echo commands.
	if opts.script != "" {
		f, err := os.Open(opts.script)
		if err != nil {
			fmt.Fprintf(stderr, "Error opening script: %v\n", err)
			return 1
		}
		defer f.Close()
		printTitle(stdout, meta.Title, meta.Version, meta.Author)
		c := newCLI(eng, opts, cfg, logger, stdout)
		c.In = f
		c.EchoInput = true
		c.Run()
		return 0
	}

	// Use plain CLI if asked to or stdout is not a terminal.
	if opts.plain || !isTerminal() {
		printTitle(stdout, meta.Title, meta.Version, meta.Author)
		newCLI(eng, opts, cfg, logger, stdout).Run()
		return 0
	}

	if err := tui.Run(eng, opts.contentDir, cfg.SaveDir); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newCLI(eng *engine.Engine, opts options, cfg config.Config, logger *slog.Logger, out io.Writer) *cli.CLI {
	c := cli.New(eng, opts.contentDir, cfg.SaveDir)
	c.Out = out
	c.Trace = opts.trace
	c.Logger = logger
	return c
}

func printTitle(w io.Writer, title, version, author string) {
	if title == "" {
		return
	}
	line := title
	if version != "" {
		line += " v" + version
	}
	if author != "" {
		line += " by " + author
	}
	fmt.Fprintf(w, "%s\n\n", line)
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
