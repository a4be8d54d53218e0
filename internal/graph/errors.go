package graph

import (
	"strings"
)

// CycleError reports a cycle found in the recorded graph.
type CycleError struct {
	Path []NodeKey
}

func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Path)+1)
	for _, k := range e.Path {
		parts = append(parts, string(k))
	}
	if len(e.Path) > 0 {
		parts = append(parts, string(e.Path[0]))
	}
	return "dependency graph contains a cycle: " + strings.Join(parts, " > ")
}
