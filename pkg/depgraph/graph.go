// Package depgraph builds and sorts the dependency graph: the directed
// multigraph whose topological order drives isAsync computation (never
// evaluation order, which stays lazy and demand-driven) and whose
// acyclicity is a hard compile-time invariant per step artefact.
package depgraph

import "github.com/ormasoftchile/formengine/pkg/ir"

// EdgeType classifies why an edge exists.
type EdgeType string

const (
	DataFlow    EdgeType = "DATA_FLOW"
	ControlFlow EdgeType = "CONTROL_FLOW"
	Structural  EdgeType = "STRUCTURAL"
)

// Edge is a single typed dependency. Edges point from a dependency to the
// node that consumes it (operand → consumer), so that a topological sort
// lists dependencies before dependents.
type Edge struct {
	To       ir.NodeID // the consumer
	Type     EdgeType
	Property string
	Index    int // -1 when Property is not list-valued
}

// Graph is a directed multigraph over NodeIDs.
type Graph struct {
	// out[v] holds every edge leaving v (v is the dependency).
	out map[ir.NodeID][]Edge
	// nodes records every node that appears as an endpoint, so isolated
	// nodes with neither in- nor out-edges still show up in a full sort.
	nodes map[ir.NodeID]struct{}
}

func New() *Graph {
	return &Graph{out: map[ir.NodeID][]Edge{}, nodes: map[ir.NodeID]struct{}{}}
}

// AddEdge records that `to` depends on `from` (from feeds to).
func (g *Graph) AddEdge(from, to ir.NodeID, typ EdgeType, property string, index int) {
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}
	g.out[from] = append(g.out[from], Edge{To: to, Type: typ, Property: property, Index: index})
}

// AddNode ensures an isolated node (no edges) still participates in sort.
func (g *Graph) AddNode(id ir.NodeID) {
	g.nodes[id] = struct{}{}
}

// Dependents returns every node that directly depends on id.
func (g *Graph) Dependents(id ir.NodeID) []ir.NodeID {
	edges := g.out[id]
	out := make([]ir.NodeID, len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	return out
}

// Edges returns every outgoing edge from id.
func (g *Graph) Edges(id ir.NodeID) []Edge { return g.out[id] }

// SortResult is the outcome of a topological sort attempt.
type SortResult struct {
	Sort      []ir.NodeID
	Cycles    [][]ir.NodeID
	HasCycles bool
}

// TopologicalSort performs Kahn's algorithm. Nodes left over once the
// queue drains lie on a cycle or downstream of one; Cycles lists each
// cycle that a DFS over just those nodes closes through a back edge.
func (g *Graph) TopologicalSort() SortResult {
	inDegree := map[ir.NodeID]int{}
	for n := range g.nodes {
		inDegree[n] = 0
	}
	for _, edges := range g.out {
		for _, e := range edges {
			inDegree[e.To]++
		}
	}

	var queue []ir.NodeID
	for n, d := range inDegree {
		if d == 0 {
			queue = append(queue, n)
		}
	}
	// deterministic order: sort the initial queue
	sortIDs(queue)

	var order []ir.NodeID
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		var next []ir.NodeID
		for _, e := range g.out[n] {
			inDegree[e.To]--
			if inDegree[e.To] == 0 {
				next = append(next, e.To)
			}
		}
		sortIDs(next)
		queue = append(queue, next...)
	}

	if len(order) == len(g.nodes) {
		return SortResult{Sort: order}
	}

	remaining := map[ir.NodeID]struct{}{}
	for n, d := range inDegree {
		if d > 0 {
			remaining[n] = struct{}{}
		}
	}
	cycles := findCycles(g, remaining)
	return SortResult{Sort: order, Cycles: cycles, HasCycles: true}
}

func sortIDs(ids []ir.NodeID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

// findCycles performs a DFS over the remaining (post-Kahn) node set,
// reporting the first cycle found starting from each unvisited root.
func findCycles(g *Graph, remaining map[ir.NodeID]struct{}) [][]ir.NodeID {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[ir.NodeID]int{}
	var cycles [][]ir.NodeID
	var stack []ir.NodeID

	var visit func(n ir.NodeID)
	visit = func(n ir.NodeID) {
		color[n] = gray
		stack = append(stack, n)
		for _, e := range g.out[n] {
			if _, ok := remaining[e.To]; !ok {
				continue
			}
			switch color[e.To] {
			case white:
				visit(e.To)
			case gray:
				// found a back-edge; extract the cycle from the stack
				start := 0
				for i, s := range stack {
					if s == e.To {
						start = i
						break
					}
				}
				cycle := append([]ir.NodeID{}, stack[start:]...)
				cycles = append(cycles, append(cycle, e.To))
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}

	ids := make([]ir.NodeID, 0, len(remaining))
	for n := range remaining {
		ids = append(ids, n)
	}
	sortIDs(ids)
	for _, n := range ids {
		if color[n] == white {
			visit(n)
		}
	}
	return cycles
}
