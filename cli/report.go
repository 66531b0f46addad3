package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/branchtale/graph"
	"github.com/nathoo/branchtale/types"
)

// WriteReport prints validation issues one per line followed by a summary.
// Severity labels are coloured when w is a colour-capable terminal.
func WriteReport(w io.Writer, issues []types.ValidationIssue) {
	r := lipgloss.NewRenderer(w)
	errStyle := r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle := r.NewStyle().Foreground(lipgloss.Color("11"))
	pathStyle := r.NewStyle().Faint(true)

	for _, is := range issues {
		label := fmt.Sprintf("%-7s", is.Severity)
		switch is.Severity {
		case types.SeverityError:
			label = errStyle.Render(label)
		case types.SeverityWarning:
			label = warnStyle.Render(label)
		}
		fmt.Fprintf(w, "%s %-18s %s  %s\n", label, is.Code, pathStyle.Render(is.Path), is.Message)
	}

	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	errs, warns := graph.Counts(issues)
	fmt.Fprintf(w, "\n%s, %s\n", plural(errs, "error"), plural(warns, "warning"))
}
