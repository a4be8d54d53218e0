package graph

import (
	"fmt"
	"io"
	"strings"
)

// Visualizer renders a DependencyGraph.
type Visualizer struct {
	graph *DependencyGraph
}

// NewVisualizer creates a new graph visualizer.
func NewVisualizer(graph *DependencyGraph) *Visualizer {
	return &Visualizer{graph: graph}
}

// WriteDOT writes the graph in Graphviz DOT format.
func (v *Visualizer) WriteDOT(w io.Writer) error {
	nodes := v.graph.Nodes()

	var b strings.Builder
	b.WriteString("digraph dependencies {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box];\n")

	for _, node := range nodes {
		fmt.Fprintf(&b, "  %q [label=%q, fillcolor=%q, style=filled];\n",
			string(node.Key), v.formatNodeLabel(node), nodeColor(node.Label))
	}

	for _, node := range nodes {
		for _, dep := range node.Dependencies {
			fmt.Fprintf(&b, "  %q -> %q;\n", string(node.Key), string(dep))
		}
	}

	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteText writes the graph grouped by depth, leaves first.
func (v *Visualizer) WriteText(w io.Writer) error {
	nodes := v.graph.Nodes()

	var b strings.Builder
	b.WriteString("Dependency Graph:\n")
	b.WriteString("=================\n\n")

	levels := make(map[int][]*Node)
	maxDepth := 0
	var cyclic []*Node
	for _, node := range nodes {
		if node.Depth < 0 {
			cyclic = append(cyclic, node)
			continue
		}
		levels[node.Depth] = append(levels[node.Depth], node)
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}

	for depth := 0; depth <= maxDepth; depth++ {
		group, ok := levels[depth]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "Level %d:\n", depth)
		b.WriteString("--------\n")
		for _, node := range group {
			writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	if len(cyclic) > 0 {
		b.WriteString("Nodes in Cycles:\n")
		b.WriteString("----------------\n")
		for _, node := range cyclic {
			writeNodeDetails(&b, node, "  ")
		}
		b.WriteString("\n")
	}

	edges := 0
	for _, node := range nodes {
		edges += len(node.Dependencies)
	}
	b.WriteString("Statistics:\n")
	b.WriteString("-----------\n")
	fmt.Fprintf(&b, "  Total nodes: %d\n", len(nodes))
	fmt.Fprintf(&b, "  Total edges: %d\n", edges)

	_, err := io.WriteString(w, b.String())
	return err
}

func (v *Visualizer) formatNodeLabel(node *Node) string {
	if node.Label == "" {
		return fmt.Sprintf("%s\nIn:%d Out:%d", node.Key, len(node.Dependents), len(node.Dependencies))
	}
	return fmt.Sprintf("%s\n[%s]\nIn:%d Out:%d", node.Key, node.Label, len(node.Dependents), len(node.Dependencies))
}

// nodeColor picks a fill color from the lifetime label.
func nodeColor(label string) string {
	switch label {
	case "Singleton":
		return "lightblue"
	case "Scoped":
		return "lightgreen"
	case "Transient":
		return "lightyellow"
	case "Parameterized":
		return "plum"
	default:
		return "lightgray"
	}
}

func writeNodeDetails(b *strings.Builder, node *Node, indent string) {
	fmt.Fprintf(b, "%s%s\n", indent, node.Key)

	if node.Label != "" {
		fmt.Fprintf(b, "%s  Lifetime: %s\n", indent, node.Label)
	}

	if len(node.Dependencies) > 0 {
		fmt.Fprintf(b, "%s  Dependencies: [%s]\n", indent, joinKeys(node.Dependencies))
	}

	if len(node.Dependents) > 0 {
		fmt.Fprintf(b, "%s  Dependents: [%s]\n", indent, joinKeys(node.Dependents))
	}
}

func joinKeys(keys []NodeKey) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
