// Package dag holds the model dependency graph: cycle detection,
// topological order, execution levels and upstream/downstream closures.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Node is a vertex of the graph carrying typed data.
type Node[T any] struct {
	ID   string
	Data T
}

// Graph is a directed graph where an edge parent -> child means the child
// reads the parent. Adjacency lists are kept sorted so every traversal is
// deterministic.
type Graph[T any] struct {
	nodes    map[string]*Node[T]
	children map[string][]string
	parents  map[string][]string
}

// CycleError is returned when an operation needs an acyclic graph.
type CycleError struct {
	// Path starts and ends at the same node.
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

// NewGraph creates an empty graph.
func NewGraph[T any]() *Graph[T] {
	return &Graph[T]{
		nodes:    make(map[string]*Node[T]),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddNode adds a node, replacing the data of an existing node with the same ID.
func (g *Graph[T]) AddNode(id string, data T) {
	if n, ok := g.nodes[id]; ok {
		n.Data = data
		return
	}
	g.nodes[id] = &Node[T]{ID: id, Data: data}
}

// AddEdge records that child depends on parent. Duplicate edges are ignored.
func (g *Graph[T]) AddEdge(parentID, childID string) error {
	if _, ok := g.nodes[parentID]; !ok {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, ok := g.nodes[childID]; !ok {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if parentID == childID {
		return fmt.Errorf("self-loop detected: %s", parentID)
	}
	g.children[parentID] = insertSorted(g.children[parentID], childID)
	g.parents[childID] = insertSorted(g.parents[childID], parentID)
	return nil
}

func insertSorted(list []string, id string) []string {
	i, found := slices.BinarySearch(list, id)
	if found {
		return list
	}
	return slices.Insert(list, i, id)
}

// GetNode returns a node by ID.
func (g *Graph[T]) GetNode(id string) (*Node[T], bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// GetParents returns the direct dependencies of a node, sorted.
func (g *Graph[T]) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the direct dependents of a node, sorted.
func (g *Graph[T]) GetChildren(id string) []string {
	return g.children[id]
}

// NodeCount returns the number of nodes.
func (g *Graph[T]) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph[T]) EdgeCount() int {
	n := 0
	for _, c := range g.children {
		n += len(c)
	}
	return n
}

func (g *Graph[T]) ids() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// HasCycle reports whether the graph contains a cycle and, if so, one
// cycle path.
func (g *Graph[T]) HasCycle() (bool, []string) {
	const (
		unseen = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = onStack
		stack = append(stack, id)
		for _, c := range g.children[id] {
			switch state[c] {
			case onStack:
				start := slices.Index(stack, c)
				return append(slices.Clone(stack[start:]), c)
			case unseen:
				if cycle := visit(c); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range g.ids() {
		if state[id] == unseen {
			if cycle := visit(id); cycle != nil {
				return true, cycle
			}
		}
	}
	return false, nil
}

func (g *Graph[T]) checkAcyclic() error {
	if cyclic, path := g.HasCycle(); cyclic {
		return &CycleError{Path: path}
	}
	return nil
}

// TopologicalSort returns nodes with every dependency before its
// dependents. Nodes are visited in ID order and each node's parents are
// emitted first, so the order is stable across calls.
func (g *Graph[T]) TopologicalSort() ([]*Node[T], error) {
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(g.nodes))
	out := make([]*Node[T], 0, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, p := range g.parents[id] {
			visit(p)
		}
		out = append(out, g.nodes[id])
	}
	for _, id := range g.ids() {
		visit(id)
	}
	return out, nil
}

// GetExecutionLevels groups node IDs into waves. Level 0 holds nodes
// without dependencies; a node sits one level above its deepest parent.
func (g *Graph[T]) GetExecutionLevels() ([][]string, error) {
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	pending := make(map[string]int, len(g.nodes))
	var wave []string
	for _, id := range g.ids() {
		pending[id] = len(g.parents[id])
		if pending[id] == 0 {
			wave = append(wave, id)
		}
	}

	var levels [][]string
	for len(wave) > 0 {
		levels = append(levels, wave)
		var next []string
		for _, id := range wave {
			for _, c := range g.children[id] {
				pending[c]--
				if pending[c] == 0 {
					next = append(next, c)
				}
			}
		}
		slices.Sort(next)
		wave = next
	}
	return levels, nil
}

// GetAffectedNodes returns the given nodes plus everything downstream of
// them, sorted. Unknown IDs are ignored.
func (g *Graph[T]) GetAffectedNodes(changedIDs []string) []string {
	var start []string
	for _, id := range changedIDs {
		if _, ok := g.nodes[id]; ok {
			start = append(start, id)
		}
	}
	return closure(start, g.children, true)
}

// GetUpstreamNodes returns every transitive dependency of a node, sorted.
func (g *Graph[T]) GetUpstreamNodes(id string) []string {
	return closure([]string{id}, g.parents, false)
}

// closure walks next from start. The start nodes are part of the result
// only when includeStart is set.
func closure(start []string, next map[string][]string, includeStart bool) []string {
	seen := make(map[string]bool)
	queue := slices.Clone(start)
	if includeStart {
		for _, id := range start {
			seen[id] = true
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range next[id] {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Subgraph returns a new graph with only the given nodes and the edges
// between them. Unknown IDs are ignored.
func (g *Graph[T]) Subgraph(nodeIDs []string) *Graph[T] {
	sub := NewGraph[T]()
	for _, id := range nodeIDs {
		if n, ok := g.nodes[id]; ok {
			sub.AddNode(id, n.Data)
		}
	}
	for id := range sub.nodes {
		for _, c := range g.children[id] {
			if _, ok := sub.nodes[c]; ok {
				_ = sub.AddEdge(id, c)
			}
		}
	}
	return sub
}
