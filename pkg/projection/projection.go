// Package projection builds the relevant-node projection (spec.md §4.6):
// the minimal, duplicate-free subset of the registry one compiled step
// artefact needs to see.
package projection

import (
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

// Set is a duplicate-free collection of relevant node ids (P9).
type Set map[ir.NodeID]bool

func (s Set) Has(id ir.NodeID) bool { return s[id] }

// Project computes the relevant-node set for stepID within the journey
// rooted at journeyRootID.
func Project(reg *registry.NodeRegistry, journeyRootID, stepID ir.NodeID) Set {
	rel := Set{}

	var markFull func(id ir.NodeID)
	markFull = func(id ir.NodeID) {
		if id == "" || rel[id] {
			return
		}
		rel[id] = true
		n, ok := reg.Node(id)
		if !ok {
			return
		}
		for _, ref := range ir.Children(n) {
			markFull(ref.ID)
		}
	}

	// Rule 1: current step, full subtree.
	markFull(stepID)

	// Rule 2: Journey ancestors — the node itself, plus onLoad/onAccess.
	for _, jid := range journeyAncestors(reg, journeyRootID, stepID) {
		rel[jid] = true
		if j, ok := reg.Node(jid); ok {
			markFull(j.OnLoad)
			markFull(j.OnAccess)
		}
	}

	// Rule 3: every step's onSubmission transition.
	for _, sid := range reg.ByType(ir.KindStep) {
		if s, ok := reg.Node(sid); ok {
			markFull(s.OnSubmission)
		}
	}

	// Rule 4: non-current steps contribute only validation-relevant block
	// properties; ancestors are Journeys in this data model (Steps never
	// nest), so every other Step qualifies here.
	for _, sid := range reg.ByType(ir.KindStep) {
		if sid == stepID {
			continue
		}
		if s, ok := reg.Node(sid); ok {
			for _, blockID := range s.Blocks {
				collectValidationOnly(reg, rel, blockID)
			}
		}
	}

	// Rule 5: pseudo-node filter — keep only pseudo-nodes keyed by an
	// identifier a collected Reference actually names.
	filterPseudoNodes(reg, rel)

	return rel
}

// journeyAncestors walks the journey tree from root, returning every
// Journey id on the path to the Journey that directly contains stepID
// (root first, nearest-parent last). Returns nil if stepID is not found.
func journeyAncestors(reg *registry.NodeRegistry, root, stepID ir.NodeID) []ir.NodeID {
	j, ok := reg.Node(root)
	if !ok {
		return nil
	}
	for _, sid := range j.Steps {
		if sid == stepID {
			return []ir.NodeID{root}
		}
	}
	for _, childID := range j.Children {
		if path := journeyAncestors(reg, childID, stepID); path != nil {
			return append([]ir.NodeID{root}, path...)
		}
	}
	return nil
}

// collectValidationOnly marks blockID relevant for its `code` (identity)
// plus the full subtree of `validate` and `dependent`, and recurses
// (without marking) into every other property to discover nested
// FieldBlocks, which get the same treatment even though their host does
// not become relevant itself.
func collectValidationOnly(reg *registry.NodeRegistry, rel Set, blockID ir.NodeID) {
	block, ok := reg.Node(blockID)
	if !ok {
		return
	}
	rel[blockID] = true

	var markFull func(id ir.NodeID)
	markFull = func(id ir.NodeID) {
		if id == "" || rel[id] {
			return
		}
		rel[id] = true
		n, ok := reg.Node(id)
		if !ok {
			return
		}
		for _, ref := range ir.Children(n) {
			markFull(ref.ID)
		}
	}
	for _, v := range block.Validate {
		markFull(v)
	}
	markFull(block.Dependent)

	for _, ref := range ir.Children(block) {
		if ref.Property == "validate" || ref.Property == "dependent" {
			continue
		}
		discoverNestedFields(reg, rel, ref.ID)
	}
}

func discoverNestedFields(reg *registry.NodeRegistry, rel Set, id ir.NodeID) {
	n, ok := reg.Node(id)
	if !ok {
		return
	}
	if n.Kind == ir.KindBlock && n.Code != "" {
		collectValidationOnly(reg, rel, id)
		return
	}
	for _, ref := range ir.Children(n) {
		discoverNestedFields(reg, rel, ref.ID)
	}
}

// filterPseudoNodes adds exactly the pseudo-nodes a collected Reference
// actually names, mirroring the namespace resolution depgraph.WireStepScope
// performs when wiring edges.
func filterPseudoNodes(reg *registry.NodeRegistry, rel Set) {
	ids := make([]ir.NodeID, 0, len(rel))
	for id := range rel {
		ids = append(ids, id)
	}
	for _, refID := range ids {
		ref, ok := reg.Node(refID)
		if !ok || ref.Kind != ir.KindReference || len(ref.RefPath) == 0 {
			continue
		}
		root, ok := ref.RefPath[0].(string)
		if !ok {
			continue
		}
		switch root {
		case "answers":
			if len(ref.RefPath) < 2 {
				continue
			}
			code, ok := ref.RefPath[1].(string)
			if !ok {
				continue
			}
			if localID, ok := reg.ByPseudoKey(ir.KindAnswerLocal, code); ok {
				if local, _ := reg.Node(localID); local != nil && rel[local.FieldNodeID] {
					rel[localID] = true
					continue
				}
			}
			if remoteID, ok := reg.ByPseudoKey(ir.KindAnswerRemote, code); ok {
				rel[remoteID] = true
			}
		case "query", "params", "data":
			if len(ref.RefPath) < 2 {
				continue
			}
			key, ok := ref.RefPath[1].(string)
			if !ok {
				continue
			}
			var kind ir.Kind
			switch root {
			case "query":
				kind = ir.KindQuery
			case "params":
				kind = ir.KindParams
			case "data":
				kind = ir.KindData
			}
			if id, ok := reg.ByPseudoKey(kind, key); ok {
				rel[id] = true
			}
		}
	}
}
