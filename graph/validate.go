package graph

import (
	"fmt"
	"strings"

	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// Issue codes.
const (
	CodeDanglingTarget   = "dangling-target"
	CodeUnreachableScene = "unreachable-scene"
	CodeNoExit           = "no-exit"
	CodeDuplicateCommand = "duplicate-command"
	CodeUnknownStart     = "unknown-start"
)

// Status is a scene's aggregate validation status.
type Status string

const (
	StatusValid    Status = "valid"
	StatusWarnings Status = "warnings"
	StatusErrors   Status = "errors"
)

// ValidateRepository builds the graph of repo from start and validates it.
func ValidateRepository(repo *state.Repository, start string) []types.ValidationIssue {
	return Validate(Build(repo, start))
}

// Validate checks g and returns every issue found. It never stops at the
// first issue, performs no I/O, and returns the same list for the same
// graph. Issues are grouped per scene in node order.
func Validate(g *Graph) []types.ValidationIssue {
	issues := []types.ValidationIssue{}

	_, startKnown := g.Scene(g.Start)
	if !startKnown {
		issues = append(issues, types.ValidationIssue{
			Severity: types.SeverityError,
			Code:     CodeUnknownStart,
			Message:  fmt.Sprintf("start scene %q is not defined", g.Start),
			Path:     "start",
		})
	}

	var reached map[string]bool
	if startKnown {
		reached = reachable(g)
	}

	for _, node := range g.Nodes {
		if node.Kind != KindScene {
			continue
		}
		id := node.ID
		out := g.Outgoing(id)

		for _, e := range out {
			if e.Terminal {
				continue
			}
			if _, ok := g.Scene(e.Target); !ok {
				issues = append(issues, types.ValidationIssue{
					Severity: types.SeverityError,
					Code:     CodeDanglingTarget,
					Message: fmt.Sprintf("transition %q in scene %q targets undefined scene %q",
						e.Command, id, e.Target),
					Path: state.TransitionPath(id, e.Command),
				})
			}
		}

		issues = append(issues, duplicateCommands(node)...)

		if len(out) == 0 && !node.Ending {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityWarning,
				Code:     CodeNoExit,
				Message:  fmt.Sprintf("scene %q has no outgoing transitions", id),
				Path:     state.ScenePath(id),
			})
		}

		if reached != nil && id != g.Start && !reached[id] {
			issues = append(issues, types.ValidationIssue{
				Severity: types.SeverityError,
				Code:     CodeUnreachableScene,
				Message:  fmt.Sprintf("scene %q cannot be reached from start scene %q", id, g.Start),
				Path:     state.ScenePath(id),
			})
		}
	}

	return issues
}

// reachable runs a breadth-first traversal from g.Start over every edge,
// ignoring guards, and returns the set of scenes visited.
func reachable(g *Graph) map[string]bool {
	visited := map[string]bool{g.Start: true}
	queue := []string{g.Start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Outgoing(id) {
			if e.Terminal || visited[e.Target] {
				continue
			}
			if _, ok := g.Scene(e.Target); ok {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	return visited
}

// duplicateCommands reports choices whose command differs from an earlier
// choice in the same scene only by case.
func duplicateCommands(node Node) []types.ValidationIssue {
	var issues []types.ValidationIssue
	first := map[string]string{}
	for _, cmd := range node.Commands {
		key := strings.ToLower(cmd)
		prev, seen := first[key]
		if !seen {
			first[key] = cmd
			continue
		}
		if prev == cmd {
			continue
		}
		issues = append(issues, types.ValidationIssue{
			Severity: types.SeverityWarning,
			Code:     CodeDuplicateCommand,
			Message:  fmt.Sprintf("command %q in scene %q differs from %q only by case", cmd, node.ID, prev),
			Path:     state.ChoicePath(node.ID, cmd),
		})
	}
	return issues
}

// SceneStatuses returns the aggregate status of every scene in g: errors if
// an error-severity issue touches it, else warnings if a warning does, else
// valid. An issue touches the scene whose path prefix it carries; the
// longest matching scene id wins.
func SceneStatuses(g *Graph, issues []types.ValidationIssue) map[string]Status {
	statuses := make(map[string]Status, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Kind == KindScene {
			statuses[n.ID] = StatusValid
		}
	}

	for _, is := range issues {
		id, ok := touchedScene(statuses, is.Path)
		if !ok {
			continue
		}
		switch is.Severity {
		case types.SeverityError:
			statuses[id] = StatusErrors
		case types.SeverityWarning:
			if statuses[id] == StatusValid {
				statuses[id] = StatusWarnings
			}
		}
	}
	return statuses
}

// touchedScene finds the longest scene id that path starts with, trying
// "scenes.a.b.c", then "scenes.a.b", then "scenes.a".
func touchedScene(scenes map[string]Status, path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, state.ScenePath(""))
	if !ok {
		return "", false
	}
	for rest != "" {
		if _, ok := scenes[rest]; ok {
			return rest, true
		}
		i := strings.LastIndexByte(rest, '.')
		if i < 0 {
			break
		}
		rest = rest[:i]
	}
	return "", false
}

// Failed reports whether issues contain at least one error. Warnings alone
// never fail validation.
func Failed(issues []types.ValidationIssue) bool {
	errs, _ := Counts(issues)
	return errs > 0
}

// Counts returns the number of error and warning issues.
func Counts(issues []types.ValidationIssue) (errs, warnings int) {
	for _, is := range issues {
		switch is.Severity {
		case types.SeverityError:
			errs++
		case types.SeverityWarning:
			warnings++
		}
	}
	return errs, warnings
}
