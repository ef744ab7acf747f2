// Package lineage builds a typed lineage graph from snapshot edges. Nodes are
// a tagged union over the kinds of things lineage connects: source fields,
// canonical fields, physical fields and semantic measures. The graph answers
// upstream, downstream and impact queries and exports to json, mermaid and
// dot.
package lineage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ozmeta-labs/ozmeta/internal/dag"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// NodeType discriminates the lineage node union.
type NodeType string

const (
	NodeSourceField     NodeType = "SourceField"
	NodeCanonicalField  NodeType = "CanonicalField"
	NodePhysicalField   NodeType = "PhysicalField"
	NodeSemanticMeasure NodeType = "SemanticMeasure"
)

// NodeTypes lists the valid node types, sorted.
var NodeTypes = []NodeType{
	NodeCanonicalField,
	NodePhysicalField,
	NodeSemanticMeasure,
	NodeSourceField,
}

// ValidNodeType reports whether t names a known node type.
func ValidNodeType(t string) bool {
	for _, nt := range NodeTypes {
		if string(nt) == t {
			return true
		}
	}
	return false
}

// Node is one lineage graph node.
type Node struct {
	Type NodeType `json:"type"`
	Key  string   `json:"key"`
}

// ID is the node's graph identity, stable and unique across types.
func (n Node) ID() string { return string(n.Type) + ":" + n.Key }

// Edge is one lineage graph edge with its optional transform expression.
type Edge struct {
	From      Node   `json:"from"`
	To        Node   `json:"to"`
	Transform string `json:"transform,omitempty"`
}

// Graph is a typed lineage graph.
type Graph struct {
	nodes map[string]Node
	edges []Edge
	dag   *dag.Graph
}

// Build constructs the lineage graph from snapshot edges. Unknown node types
// and cyclic lineage are errors.
func Build(l snapshot.Lineage) (*Graph, error) {
	g := &Graph{
		nodes: make(map[string]Node),
		dag:   dag.New(),
	}
	for i, e := range l.Edges {
		if !ValidNodeType(e.FromType) {
			return nil, fmt.Errorf("lineage edge %d: unknown node type %q", i, e.FromType)
		}
		if !ValidNodeType(e.ToType) {
			return nil, fmt.Errorf("lineage edge %d: unknown node type %q", i, e.ToType)
		}
		from := Node{Type: NodeType(e.FromType), Key: e.FromKey}
		to := Node{Type: NodeType(e.ToType), Key: e.ToKey}

		g.nodes[from.ID()] = from
		g.nodes[to.ID()] = to
		g.dag.AddNode(from.ID())
		g.dag.AddNode(to.ID())
		if err := g.dag.AddEdge(from.ID(), to.ID()); err != nil {
			return nil, fmt.Errorf("lineage edge %d: %w", i, err)
		}
		g.edges = append(g.edges, Edge{From: from, To: to, Transform: e.Transform})
	}

	if cyclic, path := g.dag.HasCycle(); cyclic {
		return nil, fmt.Errorf("lineage contains a cycle: %s", strings.Join(path, " -> "))
	}

	sort.Slice(g.edges, func(i, j int) bool {
		if g.edges[i].From.ID() != g.edges[j].From.ID() {
			return g.edges[i].From.ID() < g.edges[j].From.ID()
		}
		return g.edges[i].To.ID() < g.edges[j].To.ID()
	})
	return g, nil
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Edges returns all edges sorted by endpoint IDs.
func (g *Graph) Edges() []Edge { return g.edges }

// Lookup resolves a node by type and key.
func (g *Graph) Lookup(t NodeType, key string) (Node, bool) {
	n, ok := g.nodes[Node{Type: t, Key: key}.ID()]
	return n, ok
}

// Upstream returns every node the given node transitively derives from.
func (g *Graph) Upstream(n Node) []Node {
	return g.resolve(g.dag.Upstream(n.ID()))
}

// Downstream returns every node transitively derived from the given node,
// excluding the node itself.
func (g *Graph) Downstream(n Node) []Node {
	ids := g.dag.Downstream([]string{n.ID()})
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != n.ID() {
			out = append(out, id)
		}
	}
	return g.resolve(out)
}

// Impact reports the downstream closure of a set of nodes: everything that
// would be affected if any of them changed, including the nodes themselves.
func (g *Graph) Impact(nodes []Node) []Node {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return g.resolve(g.dag.Downstream(ids))
}

// Sources returns nodes with no upstream, sorted.
func (g *Graph) Sources() []Node { return g.resolve(g.dag.Roots()) }

// Sinks returns nodes with no downstream, sorted.
func (g *Graph) Sinks() []Node { return g.resolve(g.dag.Leaves()) }

// Complete checks that every canonical field named in the mapping area has
// lineage to at least one source field. Returns the canonical field keys
// with no source lineage, sorted.
func (g *Graph) Complete(mapping snapshot.Mapping) []string {
	var missing []string
	for _, mf := range mapping.Fields {
		node, ok := g.Lookup(NodeCanonicalField, mf.FieldCode)
		if !ok {
			missing = append(missing, mf.FieldCode)
			continue
		}
		hasSource := false
		for _, up := range g.Upstream(node) {
			if up.Type == NodeSourceField {
				hasSource = true
				break
			}
		}
		if !hasSource {
			missing = append(missing, mf.FieldCode)
		}
	}
	sort.Strings(missing)
	return dedupe(missing)
}

func (g *Graph) resolve(ids []string) []Node {
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := g.nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	var prev string
	for i, s := range sorted {
		if i == 0 || s != prev {
			out = append(out, s)
		}
		prev = s
	}
	return out
}
