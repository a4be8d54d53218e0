// Package graph records the dependency edges a provider observes while
// resolving, and answers structural questions about them.
package graph

import (
	"slices"
	"sync"
)

// NodeKey identifies a node in the graph.
type NodeKey string

// Node is a snapshot of one service in the graph.
type Node struct {
	Key   NodeKey
	Label string

	// Dependencies are the services this node resolved.
	Dependencies []NodeKey
	// Dependents are the services that resolved this node.
	Dependents []NodeKey
	// Depth is the length of the longest dependency chain below the node.
	Depth int
}

// DependencyGraph is a directed graph from dependent to dependency.
// It is safe for concurrent use.
type DependencyGraph struct {
	mu     sync.RWMutex
	labels map[NodeKey]string
	edges  map[NodeKey][]NodeKey
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		labels: make(map[NodeKey]string),
		edges:  make(map[NodeKey][]NodeKey),
	}
}

// AddNode adds key with a display label, replacing any previous label.
func (g *DependencyGraph) AddNode(key NodeKey, label string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.labels[key] = label
	if _, ok := g.edges[key]; !ok {
		g.edges[key] = nil
	}
}

// AddEdge records that from depends on to. It reports whether the edge is new.
func (g *DependencyGraph) AddEdge(from, to NodeKey) bool {
	g.mu.RLock()
	exists := slices.Contains(g.edges[from], to)
	g.mu.RUnlock()
	if exists {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if slices.Contains(g.edges[from], to) {
		return false
	}

	g.edges[from] = append(g.edges[from], to)
	if _, ok := g.edges[to]; !ok {
		g.edges[to] = nil
	}

	return true
}

// HasEdge reports whether from depends on to.
func (g *DependencyGraph) HasEdge(from, to NodeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Contains(g.edges[from], to)
}

// HasNode reports whether key is in the graph.
func (g *DependencyGraph) HasNode(key NodeKey) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.edges[key]
	return ok
}

// RemoveNode removes key and every edge touching it.
func (g *DependencyGraph) RemoveNode(key NodeKey) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.edges, key)
	delete(g.labels, key)

	for from, tos := range g.edges {
		if i := slices.Index(tos, key); i >= 0 {
			g.edges[from] = slices.Delete(tos, i, i+1)
		}
	}
}

// Size returns the number of nodes.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.edges)
}

// GetDependencies returns the direct dependencies of key.
func (g *DependencyGraph) GetDependencies(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.edges[key])
}

// GetDependents returns the nodes that depend directly on key.
func (g *DependencyGraph) GetDependents(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.dependentsLocked(key)
}

func (g *DependencyGraph) dependentsLocked(key NodeKey) []NodeKey {
	var result []NodeKey
	for _, from := range g.sortedKeysLocked() {
		if slices.Contains(g.edges[from], key) {
			result = append(result, from)
		}
	}
	return result
}

// GetTransitiveDependencies returns every node reachable from key.
func (g *DependencyGraph) GetTransitiveDependencies(key NodeKey) []NodeKey {
	g.mu.RLock()
	defer g.mu.RUnlock()

	visited := map[NodeKey]bool{key: true}
	var result []NodeKey

	var collect func(NodeKey)
	collect = func(current NodeKey) {
		for _, dep := range g.edges[current] {
			if visited[dep] {
				continue
			}
			visited[dep] = true
			result = append(result, dep)
			collect(dep)
		}
	}

	collect(key)
	return result
}

// TopologicalSort returns the nodes with dependencies before dependents.
func (g *DependencyGraph) TopologicalSort() ([]*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.sortLocked()
}

func (g *DependencyGraph) sortLocked() ([]*Node, error) {
	// remaining[k] counts dependencies of k not yet emitted.
	remaining := make(map[NodeKey]int, len(g.edges))
	for from, tos := range g.edges {
		remaining[from] = len(tos)
	}

	var queue []NodeKey
	for _, k := range g.sortedKeysLocked() {
		if remaining[k] == 0 {
			queue = append(queue, k)
		}
	}

	result := make([]*Node, 0, len(g.edges))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.nodeLocked(current))

		for _, dependent := range g.dependentsLocked(current) {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.edges) {
		if err := g.detectLocked(); err != nil {
			return nil, err
		}
		return nil, &CycleError{}
	}

	return result, nil
}

// DetectCycles returns a *CycleError if the graph contains a cycle.
func (g *DependencyGraph) DetectCycles() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.detectLocked()
}

// IsAcyclic reports whether the graph has no cycles.
func (g *DependencyGraph) IsAcyclic() bool {
	return g.DetectCycles() == nil
}

func (g *DependencyGraph) detectLocked() error {
	const (
		unvisited = iota
		visiting
		visited
	)

	state := make(map[NodeKey]int, len(g.edges))
	var path []NodeKey
	var cycle []NodeKey

	var visit func(NodeKey) bool
	visit = func(k NodeKey) bool {
		state[k] = visiting
		path = append(path, k)

		for _, dep := range g.edges[k] {
			switch state[dep] {
			case visiting:
				start := slices.Index(path, dep)
				cycle = slices.Clone(path[start:])
				return true
			case unvisited:
				if visit(dep) {
					return true
				}
			}
		}

		path = path[:len(path)-1]
		state[k] = visited
		return false
	}

	for _, k := range g.sortedKeysLocked() {
		if state[k] == unvisited && visit(k) {
			return &CycleError{Path: cycle}
		}
	}

	return nil
}

// Nodes returns a snapshot of every node, ordered by key, with depths set.
func (g *DependencyGraph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := g.sortedKeysLocked()
	nodes := make([]*Node, 0, len(keys))
	for _, k := range keys {
		nodes = append(nodes, g.nodeLocked(k))
	}
	return nodes
}

func (g *DependencyGraph) nodeLocked(key NodeKey) *Node {
	return &Node{
		Key:          key,
		Label:        g.labels[key],
		Dependencies: slices.Clone(g.edges[key]),
		Dependents:   g.dependentsLocked(key),
		Depth:        g.depthLocked(key, map[NodeKey]bool{}),
	}
}

// depthLocked returns the longest chain below key, or -1 when key is on a cycle.
func (g *DependencyGraph) depthLocked(key NodeKey, onPath map[NodeKey]bool) int {
	if onPath[key] {
		return -1
	}
	onPath[key] = true
	defer delete(onPath, key)

	depth := 0
	for _, dep := range g.edges[key] {
		d := g.depthLocked(dep, onPath)
		if d < 0 {
			return -1
		}
		if d+1 > depth {
			depth = d + 1
		}
	}
	return depth
}

func (g *DependencyGraph) sortedKeysLocked() []NodeKey {
	keys := make([]NodeKey, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
