// Package traverse implements the structural traverser: a single
// depth-first visitor used by normalizers, registry construction,
// pseudo-node creation, and relevant-node projection to walk the compiled
// IR graph without each caller re-deriving parent/child/sibling context.
package traverse

import "github.com/ormasoftchile/formengine/pkg/ir"

// Action is a visitor method's verdict: whether to keep descending,
// skip the current subtree, or abort the walk entirely.
type Action int

const (
	Continue Action = iota
	Skip
	Stop
)

// Context accompanies every visitor callback, describing where the
// current value sits in the overall tree.
type Context struct {
	Path     string
	Depth    int
	Kind     ir.Kind
	Property string // property name this node was reached through, "" at root
	Index    int    // -1 unless Property is list-valued
	Siblings int     // number of siblings sharing Property (0 if not list-valued)
	IsFirst  bool
	IsLast   bool
	Parent   ir.NodeID
	ParentKind ir.Kind
	Ancestors []ir.NodeID
}

// Visitor receives callbacks for every node the Traverser descends into.
// Each method returns an Action controlling whether the walk continues
// into that node's children.
type Visitor interface {
	EnterNode(n *ir.Node, ctx Context) Action
	ExitNode(n *ir.Node, ctx Context)
}

// Resolver looks a node up by id; the registry and the factory's
// in-progress node table both satisfy it.
type Resolver interface {
	Node(id ir.NodeID) (*ir.Node, bool)
}

// MapResolver adapts a plain map to Resolver.
type MapResolver map[ir.NodeID]*ir.Node

func (m MapResolver) Node(id ir.NodeID) (*ir.Node, bool) {
	n, ok := m[id]
	return n, ok
}

// Traverser walks an IR graph depth-first starting from root, calling the
// visitor's EnterNode/ExitNode for every reachable node exactly once per
// distinct path (a node referenced from two places is visited twice, with
// distinct Context.Path values — dependency wiring, not traversal, is what
// enforces the project's id-uniqueness invariant).
type Traverser struct {
	Resolver Resolver
}

func New(r Resolver) *Traverser {
	return &Traverser{Resolver: r}
}

// Walk visits root and everything reachable from it.
func (t *Traverser) Walk(root ir.NodeID, v Visitor) {
	t.walk(root, v, Context{Path: "$", Depth: 0, Index: -1}, nil)
}

func (t *Traverser) walk(id ir.NodeID, v Visitor, ctx Context, ancestors []ir.NodeID) Action {
	n, ok := t.Resolver.Node(id)
	if !ok {
		return Continue
	}
	ctx.Kind = n.Kind
	ctx.Ancestors = ancestors

	action := v.EnterNode(n, ctx)
	if action == Stop {
		return Stop
	}
	if action != Skip {
		children := ir.Children(n)
		nextAncestors := append(append([]ir.NodeID{}, ancestors...), id)

		// group children by Property to compute sibling counts for
		// list-valued properties (Index >= 0).
		counts := map[string]int{}
		for _, c := range children {
			if c.Index >= 0 {
				counts[c.Property]++
			}
		}
		seen := map[string]int{}
		for _, c := range children {
			childCtx := Context{
				Path:       ctx.Path + "." + c.Property,
				Depth:      ctx.Depth + 1,
				Property:   c.Property,
				Index:      c.Index,
				Parent:     id,
				ParentKind: n.Kind,
			}
			if c.Index >= 0 {
				childCtx.Path = ctx.Path + "." + c.Property + "[" + itoa(c.Index) + "]"
				childCtx.Siblings = counts[c.Property]
				idx := seen[c.Property]
				childCtx.IsFirst = idx == 0
				childCtx.IsLast = idx == counts[c.Property]-1
				seen[c.Property]++
			}
			if res := t.walk(c.ID, v, childCtx, nextAncestors); res == Stop {
				return Stop
			}
		}
	}
	v.ExitNode(n, ctx)
	return Continue
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	if neg {
		b = append([]byte{'-'}, b...)
	}
	return string(b)
}
