package lineage

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Export writes the graph in the requested format: "json", "mermaid" or
// "dot". Output is stable across runs.
func Export(w io.Writer, g *Graph, format string) error {
	switch format {
	case "json":
		return exportJSON(w, g)
	case "mermaid":
		return exportMermaid(w, g)
	case "dot":
		return exportDot(w, g)
	default:
		return fmt.Errorf("unknown lineage format %q (supported: dot, json, mermaid)", format)
	}
}

func exportJSON(w io.Writer, g *Graph) error {
	doc := struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}{Nodes: g.Nodes(), Edges: g.Edges()}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func exportMermaid(w io.Writer, g *Graph) error {
	var sb strings.Builder
	sb.WriteString("graph LR\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(&sb, "  %s[\"%s: %s\"]\n", mermaidID(n), n.Type, n.Key)
	}
	for _, e := range g.Edges() {
		if e.Transform != "" {
			fmt.Fprintf(&sb, "  %s -->|%s| %s\n", mermaidID(e.From), e.Transform, mermaidID(e.To))
		} else {
			fmt.Fprintf(&sb, "  %s --> %s\n", mermaidID(e.From), mermaidID(e.To))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func exportDot(w io.Writer, g *Graph) error {
	var sb strings.Builder
	sb.WriteString("digraph lineage {\n  rankdir=LR;\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(&sb, "  %q [label=\"%s: %s\", shape=%s];\n", n.ID(), n.Type, n.Key, dotShape(n.Type))
	}
	for _, e := range g.Edges() {
		if e.Transform != "" {
			fmt.Fprintf(&sb, "  %q -> %q [label=%q];\n", e.From.ID(), e.To.ID(), e.Transform)
		} else {
			fmt.Fprintf(&sb, "  %q -> %q;\n", e.From.ID(), e.To.ID())
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// mermaidID strips characters mermaid cannot carry in a node identifier.
func mermaidID(n Node) string {
	id := n.ID()
	var sb strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

func dotShape(t NodeType) string {
	switch t {
	case NodeSourceField:
		return "cylinder"
	case NodeSemanticMeasure:
		return "diamond"
	default:
		return "box"
	}
}
