// Package graph builds the structural graph of authored content and checks
// it for dangling targets, unreachable scenes, dead ends, and ambiguous
// commands. Guards are never evaluated here; every transition counts as an
// edge.
package graph

import (
	"slices"

	"github.com/nathoo/branchtale/engine/state"
	"github.com/nathoo/branchtale/types"
)

// NodeKind distinguishes authored scenes from synthetic ending nodes.
type NodeKind string

const (
	KindScene    NodeKind = "scene"
	KindTerminal NodeKind = "terminal"
)

// Node is one vertex of the content graph.
type Node struct {
	ID                    string
	Kind                  NodeKind
	Description           string
	Ending                bool     // scene flagged as a designed ending
	Commands              []string // declared choice commands, in order
	ChoiceCount           int
	TransitionCount       int
	HasTerminalTransition bool
}

// Edge is one transition. Terminal edges point at a synthetic node.
type Edge struct {
	ID               string
	Source           string
	Command          string
	Target           string
	Terminal         bool
	Narration        string
	Item             string
	Requires         types.Guard
	Consumes         []string
	Records          []string
	FailureNarration string
	OverrideCount    int
}

// Graph is the structural view of a repository from a start scene.
// Build and Import index it for lookup; a graph assembled by hand is
// indexed on first lookup and must not be changed afterwards.
type Graph struct {
	Start string
	Nodes []Node // scene nodes sorted by id, then synthetic terminal nodes
	Edges []Edge // grouped by source scene, in choice order

	nodeAt   map[string]int   // node id -> index in Nodes
	outgoing map[string][]int // source id -> indexes in Edges
}

// TerminalNodeID returns the id of the synthetic node a terminal transition
// leads to.
func TerminalNodeID(scene, command string) string {
	return "end:" + scene + ":" + command
}

// EdgeID returns the id of the edge for a scene's transition.
func EdgeID(scene, command string) string {
	return scene + ":" + command
}

// Build constructs the graph of repo: one node per scene, one synthetic
// node per terminal transition, one edge per transition.
func Build(repo *state.Repository, start string) *Graph {
	g := &Graph{Start: start}
	var terminals []Node

	for _, id := range repo.SceneIDs() {
		sc, _ := repo.Lookup(id)

		node := Node{
			ID:              sc.ID,
			Kind:            KindScene,
			Description:     sc.Description,
			Ending:          sc.Ending,
			ChoiceCount:     len(sc.Choices),
			TransitionCount: len(sc.Transitions),
		}
		for _, ch := range sc.Choices {
			node.Commands = append(node.Commands, ch.Command)
		}

		for _, cmd := range state.Commands(sc) {
			tr := sc.Transitions[cmd]
			e := Edge{
				ID:               EdgeID(sc.ID, cmd),
				Source:           sc.ID,
				Command:          cmd,
				Target:           tr.Target,
				Narration:        tr.Narration,
				Item:             tr.Item,
				Requires:         copyGuard(tr.Requires),
				Consumes:         slices.Clone(tr.Consumes),
				Records:          slices.Clone(tr.Records),
				FailureNarration: tr.FailureNarration,
				OverrideCount:    len(tr.Overrides),
			}
			if tr.Target == "" {
				e.Terminal = true
				e.Target = TerminalNodeID(sc.ID, cmd)
				node.HasTerminalTransition = true
				terminals = append(terminals, Node{ID: e.Target, Kind: KindTerminal})
			}
			g.Edges = append(g.Edges, e)
		}

		g.Nodes = append(g.Nodes, node)
	}

	g.Nodes = append(g.Nodes, terminals...)
	g.index()
	return g
}

// index builds the node and adjacency lookups in one pass over the graph.
func (g *Graph) index() {
	g.nodeAt = make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		g.nodeAt[n.ID] = i
	}
	g.outgoing = make(map[string][]int, len(g.Nodes))
	for i, e := range g.Edges {
		g.outgoing[e.Source] = append(g.outgoing[e.Source], i)
	}
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if g.nodeAt == nil {
		g.index()
	}
	i, ok := g.nodeAt[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Scene returns the scene node with the given id; synthetic terminal nodes
// are not scenes.
func (g *Graph) Scene(id string) (Node, bool) {
	n, ok := g.Node(id)
	if !ok || n.Kind != KindScene {
		return Node{}, false
	}
	return n, true
}

// Outgoing returns the edges leaving a node, in edge order.
func (g *Graph) Outgoing(id string) []Edge {
	if g.outgoing == nil {
		g.index()
	}
	idx := g.outgoing[id]
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.Edges[i])
	}
	return out
}

func copyGuard(g types.Guard) types.Guard {
	return types.Guard{
		History:   slices.Clone(g.History),
		Inventory: slices.Clone(g.Inventory),
	}
}
