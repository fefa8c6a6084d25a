// Package registry holds the NodeRegistry and MetadataRegistry: the
// static, post-compile lookup tables every later stage (pseudo-node
// creation, dependency wiring, projection, thunk compilation) queries
// instead of re-walking the declarative input.
package registry

import (
	"fmt"

	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/traverse"
)

// Entry is what the registry stores per node: the node itself and the
// structural path it was reached at from the Journey root.
type Entry struct {
	Node *ir.Node
	Path string
}

// PseudoKey identifies a pseudo-node by its synthesis key, e.g.
// (answerLocal, "email") or (query, "ref").
type PseudoKey struct {
	Kind ir.Kind
	Key  string
}

// NodeRegistry is the id → {node, path} map built by a structural
// traversal from the Journey root, plus two secondary indices: by type,
// and by (pseudoKind, key) for O(1) pseudo-node lookup.
type NodeRegistry struct {
	Root    ir.NodeID
	entries map[ir.NodeID]Entry
	byType  map[ir.Kind][]ir.NodeID
	byKey   map[PseudoKey]ir.NodeID
}

func (r *NodeRegistry) Node(id ir.NodeID) (*ir.Node, bool) {
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.Node, true
}

func (r *NodeRegistry) Path(id ir.NodeID) (string, bool) {
	e, ok := r.entries[id]
	return e.Path, ok
}

func (r *NodeRegistry) ByType(k ir.Kind) []ir.NodeID {
	return r.byType[k]
}

func (r *NodeRegistry) ByPseudoKey(kind ir.Kind, key string) (ir.NodeID, bool) {
	id, ok := r.byKey[PseudoKey{Kind: kind, Key: key}]
	return id, ok
}

// RegisterPseudo adds a pseudo-node the PseudoNodeFactory synthesized:
// it is not reachable from the Journey root by structural traversal, so
// it is indexed directly rather than discovered by Build.
func (r *NodeRegistry) RegisterPseudo(n *ir.Node, key string) {
	r.entries[n.ID] = Entry{Node: n, Path: fmt.Sprintf("$pseudo.%s.%s", n.Kind, key)}
	r.byType[n.Kind] = append(r.byType[n.Kind], n.ID)
	r.byKey[PseudoKey{Kind: n.Kind, Key: key}] = n.ID
}

// Size returns the number of distinct registered ids — used to check
// invariant P1 (id uniqueness) against an independent structural count.
func (r *NodeRegistry) Size() int { return len(r.entries) }

// All returns every registered id, in no particular order.
func (r *NodeRegistry) All() []ir.NodeID {
	ids := make([]ir.NodeID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// registrar is the traverse.Visitor that populates a NodeRegistry during
// Build: it records every node it enters exactly once, the first time it
// is reached (a node reachable from two parents keeps its first path —
// the dependency graph, not the registry, is what must stay acyclic).
type registrar struct {
	reg *NodeRegistry
}

func (v *registrar) EnterNode(n *ir.Node, ctx traverse.Context) traverse.Action {
	if _, exists := v.reg.entries[n.ID]; exists {
		return traverse.Skip
	}
	v.reg.entries[n.ID] = Entry{Node: n, Path: ctx.Path}
	v.reg.byType[n.Kind] = append(v.reg.byType[n.Kind], n.ID)
	return traverse.Continue
}

func (v *registrar) ExitNode(n *ir.Node, ctx traverse.Context) {}

// Build walks nodes from root using the structural Traverser and returns
// the populated NodeRegistry.
func Build(nodes map[ir.NodeID]*ir.Node, root ir.NodeID) *NodeRegistry {
	reg := &NodeRegistry{
		Root:    root,
		entries: map[ir.NodeID]Entry{},
		byType:  map[ir.Kind][]ir.NodeID{},
		byKey:   map[PseudoKey]ir.NodeID{},
	}
	t := traverse.New(traverse.MapResolver(nodes))
	t.Walk(root, &registrar{reg: reg})
	return reg
}

// Attach walks a subtree rooted at root (freshly created at runtime, e.g.
// by an Iterate handler) and merges its nodes into an already-built
// registry, using the same traversal Build uses so it shares dedup and
// byType/byKey bookkeeping.
func Attach(reg *NodeRegistry, nodes map[ir.NodeID]*ir.Node, root ir.NodeID) {
	t := traverse.New(traverse.MapResolver(nodes))
	t.Walk(root, &registrar{reg: reg})
}
