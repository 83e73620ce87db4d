// Package dependency models the service dependency graph: validation
// (unknown references, cycles) and topological grouping into start levels.
package dependency

import (
	"fmt"
	"sort"
	"strings"
)

// NodeID identifies a node in the graph.
type NodeID string

// Node is a single service in the dependency graph.
type Node struct {
	ID        NodeID
	DependsOn []NodeID
}

// Graph is a directed dependency graph. Nodes keep insertion order so
// derived orderings are deterministic for a given configuration.
type Graph struct {
	nodes map[NodeID]Node
	order []NodeID
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]Node)}
}

// AddNode adds a node to the graph, replacing any node with the same ID.
func (g *Graph) AddNode(n Node) {
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	g.nodes[n.ID] = n
}

// Get returns the node with the given ID, or nil if absent.
func (g *Graph) Get(id NodeID) *Node {
	if n, ok := g.nodes[id]; ok {
		return &n
	}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependents returns the IDs of nodes that directly depend on id, in
// insertion order.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var out []NodeID
	for _, candidate := range g.order {
		for _, dep := range g.nodes[candidate].DependsOn {
			if dep == id {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}

// CycleError reports a dependency cycle and names its members.
type CycleError struct {
	Members []NodeID
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Members))
	for i, id := range e.Members {
		names[i] = string(id)
	}
	sort.Strings(names)
	return fmt.Sprintf("dependency cycle between services: %s", strings.Join(names, ", "))
}

// UnknownDependencyError reports a dependency reference to a node that is
// not declared in the graph.
type UnknownDependencyError struct {
	Node      NodeID
	DependsOn NodeID
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("service %q depends on undeclared service %q", e.Node, e.DependsOn)
}

// Validate checks that every dependency reference resolves and that the
// graph is acyclic. It returns an *UnknownDependencyError or *CycleError.
func (g *Graph) Validate() error {
	for _, id := range g.order {
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				return &UnknownDependencyError{Node: id, DependsOn: dep}
			}
		}
	}

	// Three-color DFS. Nodes on the gray stack when a back edge is found are
	// the cycle members.
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[NodeID]int, len(g.nodes))
	var stack []NodeID

	var visit func(id NodeID) *CycleError
	visit = func(id NodeID) *CycleError {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range g.nodes[id].DependsOn {
			switch color[dep] {
			case gray:
				// Back edge: the cycle is the stack suffix starting at dep.
				var members []NodeID
				for i := len(stack) - 1; i >= 0; i-- {
					members = append(members, stack[i])
					if stack[i] == dep {
						break
					}
				}
				return &CycleError{Members: members}
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for _, id := range g.order {
		if color[id] == white {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Levels groups nodes into topological levels: level 0 holds nodes with no
// dependencies, level n+1 holds nodes whose deepest dependency sits at level
// n. Every node appears after all of its dependencies. Validate must pass
// first; Levels returns the validation error otherwise.
func (g *Graph) Levels() ([][]NodeID, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	depths := make(map[NodeID]int, len(g.nodes))
	var depthOf func(id NodeID) int
	depthOf = func(id NodeID) int {
		if d, ok := depths[id]; ok {
			return d
		}
		max := -1
		for _, dep := range g.nodes[id].DependsOn {
			if d := depthOf(dep); d > max {
				max = d
			}
		}
		depths[id] = max + 1
		return max + 1
	}

	maxLevel := 0
	for _, id := range g.order {
		if d := depthOf(id); d > maxLevel {
			maxLevel = d
		}
	}

	levels := make([][]NodeID, maxLevel+1)
	for _, id := range g.order {
		levels[depths[id]] = append(levels[depths[id]], id)
	}
	return levels, nil
}

// TopologicalOrder returns all node IDs in an order where each node appears
// after its dependencies. It flattens Levels.
func (g *Graph) TopologicalOrder() ([]NodeID, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}
	var out []NodeID
	for _, level := range levels {
		out = append(out, level...)
	}
	return out, nil
}
