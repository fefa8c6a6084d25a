package thunk

import (
	"sync"

	"github.com/ormasoftchile/formengine/pkg/ir"
)

// blockHandler renders a Block's view value: {id, type, variant,
// blockType, properties}. Every property is evaluated concurrently, each
// against its own isolated scope, per spec.md §5's "Block evaluates all
// its properties in parallel".
type blockHandler struct {
	base
	n *ir.Node
}

func newBlockHandler(id ir.NodeID, n *ir.Node) *blockHandler {
	return &blockHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *blockHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	props := map[string]any{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	set := func(key string, v any) {
		mu.Lock()
		props[key] = v
		mu.Unlock()
	}

	dependentOK := true
	if h.n.Dependent != "" {
		dr := inv.Invoke(h.n.Dependent, ectx)
		if dr.Error == nil {
			if b, ok := dr.Value.(bool); ok {
				dependentOK = b
			}
		}
	}

	if !dependentOK {
		set("validate", []any{})
	} else if len(h.n.Validate) > 0 {
		results := make([]any, len(h.n.Validate))
		for i, vid := range h.n.Validate {
			wg.Add(1)
			go func(i int, vid ir.NodeID) {
				defer wg.Done()
				r := inv.Invoke(vid, ectx.WithIsolatedScope())
				if r.Error == nil {
					results[i] = r.Value
				}
			}(i, vid)
		}
		wg.Wait()
		set("validate", results)
	} else {
		set("validate", []any{})
	}

	if h.n.Label != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := inv.Invoke(h.n.Label, ectx.WithIsolatedScope())
			set("label", r.Value)
		}()
	}

	for k, pid := range h.n.Properties {
		wg.Add(1)
		go func(k string, pid ir.NodeID) {
			defer wg.Done()
			r := inv.Invoke(pid, ectx.WithIsolatedScope())
			set(k, r.Value)
		}(k, pid)
	}

	if len(h.n.Formatters) > 0 {
		names := make([]string, len(h.n.Formatters))
		for i, fid := range h.n.Formatters {
			names[i] = string(fid)
		}
		set("formatters", names)
	}

	if h.n.Code != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if localID, ok := inv.Registry().ByPseudoKey(ir.KindAnswerLocal, h.n.Code); ok {
				r := inv.Invoke(localID, ectx.WithIsolatedScope())
				set("value", r.Value)
			}
		}()
		set("code", h.n.Code)
	}

	wg.Wait()
	return Ok(map[string]any{
		"id":        h.n.ID,
		"type":      "block",
		"variant":   h.n.Variant,
		"blockType": h.n.BlockType,
		"properties": props,
	})
}

// stepHandler renders {id, type, path, title, view, blocks}; blocks are
// evaluated concurrently, one goroutine per block, written back by index
// so declaration order survives the fan-out.
type stepHandler struct {
	base
	n *ir.Node
}

func newStepHandler(id ir.NodeID, n *ir.Node) *stepHandler {
	return &stepHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *stepHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	blocks := make([]any, len(h.n.Blocks))
	var wg sync.WaitGroup
	for i, bid := range h.n.Blocks {
		wg.Add(1)
		go func(i int, bid ir.NodeID) {
			defer wg.Done()
			r := inv.Invoke(bid, ectx.WithIsolatedScope())
			blocks[i] = r.Value
		}(i, bid)
	}
	wg.Wait()
	return Ok(map[string]any{
		"id":     h.n.ID,
		"type":   "step",
		"path":   h.n.Path,
		"title":  h.n.Title,
		"view":   h.n.View,
		"blocks": blocks,
	})
}

// journeyHandler is the entry point build invoke() starts from: it renders
// its sub-journeys and steps, fully expanding whichever step the
// MetadataRegistry marks as current and rendering every other step as a
// lightweight stub ({id, type, path, title}) without evaluating its
// subtree.
type journeyHandler struct {
	base
	n *ir.Node
}

func newJourneyHandler(id ir.NodeID, n *ir.Node) *journeyHandler {
	return &journeyHandler{base: base{id: id, kind: n.Kind}, n: n}
}

func (h *journeyHandler) Evaluate(inv Invoker, ectx *EvalContext, hooks RuntimeHooks) Result {
	steps := make([]any, len(h.n.Steps))
	for i, sid := range h.n.Steps {
		md := inv.Metadata().Get(sid)
		if md.IsCurrentStep {
			r := inv.Invoke(sid, ectx)
			if r.Error != nil {
				return r
			}
			steps[i] = r.Value
			continue
		}
		s, ok := inv.Registry().Node(sid)
		if !ok {
			continue
		}
		steps[i] = map[string]any{"id": sid, "type": "step", "path": s.Path, "title": s.Title}
	}

	children := make([]any, len(h.n.Children))
	for i, cid := range h.n.Children {
		r := inv.Invoke(cid, ectx)
		if r.Error != nil {
			return r
		}
		children[i] = r.Value
	}

	return Ok(map[string]any{
		"id":       h.n.ID,
		"type":     "journey",
		"path":     h.n.Path,
		"view":     h.n.View,
		"steps":    steps,
		"children": children,
	})
}
