package graph

import (
	"time"

	"github.com/nathoo/branchtale/types"
)

// ExportDocument is the JSON graph export consumed by external tooling.
type ExportDocument struct {
	GeneratedAt time.Time    `json:"generated_at"`
	StartScene  string       `json:"start_scene"`
	Nodes       []ExportNode `json:"nodes"`
	Edges       []ExportEdge `json:"edges"`
}

// ExportNode is one scene in the export. Synthetic terminal nodes are not
// exported; a terminal edge has a null target instead.
type ExportNode struct {
	ID                    string `json:"id"`
	Description           string `json:"description"`
	Ending                bool   `json:"ending,omitempty"`
	ChoiceCount           int    `json:"choice_count"`
	TransitionCount       int    `json:"transition_count"`
	HasTerminalTransition bool   `json:"has_terminal_transition"`
	ValidationStatus      Status `json:"validation_status"`
}

// ExportEdge is one transition in the export.
type ExportEdge struct {
	ID               string      `json:"id"`
	Source           string      `json:"source"`
	Command          string      `json:"command"`
	Target           *string     `json:"target"`
	Narration        string      `json:"narration"`
	IsTerminal       bool        `json:"is_terminal"`
	Item             string      `json:"item,omitempty"`
	Requires         types.Guard `json:"requires"`
	Consumes         []string    `json:"consumes"`
	Records          []string    `json:"records"`
	FailureNarration string      `json:"failure_narration,omitempty"`
	OverrideCount    int         `json:"override_count"`
}

// ReportDocument is the JSON validation report.
type ReportDocument struct {
	Issues []types.ValidationIssue `json:"issues"`
}

// Export renders g as an export document. Each scene node carries the
// status derived from issues.
func Export(g *Graph, issues []types.ValidationIssue, now time.Time) ExportDocument {
	statuses := SceneStatuses(g, issues)
	doc := ExportDocument{
		GeneratedAt: now.UTC(),
		StartScene:  g.Start,
		Nodes:       []ExportNode{},
		Edges:       []ExportEdge{},
	}

	for _, n := range g.Nodes {
		if n.Kind != KindScene {
			continue
		}
		doc.Nodes = append(doc.Nodes, ExportNode{
			ID:                    n.ID,
			Description:           n.Description,
			Ending:                n.Ending,
			ChoiceCount:           n.ChoiceCount,
			TransitionCount:       n.TransitionCount,
			HasTerminalTransition: n.HasTerminalTransition,
			ValidationStatus:      statuses[n.ID],
		})
	}

	for _, e := range g.Edges {
		ee := ExportEdge{
			ID:               e.ID,
			Source:           e.Source,
			Command:          e.Command,
			Narration:        e.Narration,
			IsTerminal:       e.Terminal,
			Item:             e.Item,
			Requires:         e.Requires,
			Consumes:         nonNil(e.Consumes),
			Records:          nonNil(e.Records),
			FailureNarration: e.FailureNarration,
			OverrideCount:    e.OverrideCount,
		}
		if !e.Terminal {
			target := e.Target
			ee.Target = &target
		}
		doc.Edges = append(doc.Edges, ee)
	}

	return doc
}

// Import rebuilds a graph from an export document. Validating the result
// yields the same issues as validating the graph that was exported, except
// for case-variant command warnings, which need the declared choice list.
func Import(doc ExportDocument) *Graph {
	g := &Graph{Start: doc.StartScene}
	var terminals []Node

	for _, n := range doc.Nodes {
		g.Nodes = append(g.Nodes, Node{
			ID:                    n.ID,
			Kind:                  KindScene,
			Description:           n.Description,
			Ending:                n.Ending,
			ChoiceCount:           n.ChoiceCount,
			TransitionCount:       n.TransitionCount,
			HasTerminalTransition: n.HasTerminalTransition,
		})
	}

	for _, ee := range doc.Edges {
		e := Edge{
			ID:               ee.ID,
			Source:           ee.Source,
			Command:          ee.Command,
			Narration:        ee.Narration,
			Item:             ee.Item,
			Requires:         ee.Requires,
			Consumes:         ee.Consumes,
			Records:          ee.Records,
			FailureNarration: ee.FailureNarration,
			OverrideCount:    ee.OverrideCount,
		}
		if ee.Target == nil || ee.IsTerminal {
			e.Terminal = true
			e.Target = TerminalNodeID(ee.Source, ee.Command)
			terminals = append(terminals, Node{ID: e.Target, Kind: KindTerminal})
		} else {
			e.Target = *ee.Target
		}
		g.Edges = append(g.Edges, e)
	}

	g.Nodes = append(g.Nodes, terminals...)
	g.index()
	return g
}

// Report builds the validation report document.
func Report(issues []types.ValidationIssue) ReportDocument {
	if issues == nil {
		issues = []types.ValidationIssue{}
	}
	return ReportDocument{Issues: issues}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
