// Package pseudonode synthesizes the engine's pseudo-nodes: handlers that
// read a value from the request, session, or in-flight answer map rather
// than evaluating a user-authored expression.
package pseudonode

import (
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/registry"
)

// Scan creates every pseudo-node the compiled form needs:
//   - one Post and one AnswerLocal per FieldBlock, keyed by field code
//   - one AnswerRemote per field code (reference resolution prefers the
//     local pseudo-node when both are relevant to a step; projection then
//     drops whichever one a given step's collected references never
//     named — see pkg/projection)
//   - one Query/Params/Data per distinct literal identifier appearing as
//     path[1] of a reference rooted at "query"/"params"/"data"
//
// Scan mutates reg in place via RegisterPseudo. It runs after the
// registry's structural Build and before dependency wiring; running it
// again registers only the pseudo-nodes not already present.
func Scan(reg *registry.NodeRegistry, ids *ir.IDGenerator) {
	for _, blockID := range reg.ByType(ir.KindBlock) {
		block, _ := reg.Node(blockID)
		if block.Code == "" {
			continue
		}
		if _, exists := reg.ByPseudoKey(ir.KindPost, block.Code); !exists {
			postID := ids.NextCompile(ir.KindPost)
			reg.RegisterPseudo(&ir.Node{ID: postID, Kind: ir.KindPost, BaseFieldCode: block.Code}, block.Code)
		}
		if _, exists := reg.ByPseudoKey(ir.KindAnswerLocal, block.Code); !exists {
			localID := ids.NextCompile(ir.KindAnswerLocal)
			reg.RegisterPseudo(&ir.Node{
				ID: localID, Kind: ir.KindAnswerLocal,
				BaseFieldCode: block.Code, FieldNodeID: block.ID,
			}, block.Code)
		}
		if _, exists := reg.ByPseudoKey(ir.KindAnswerRemote, block.Code); !exists {
			remoteID := ids.NextCompile(ir.KindAnswerRemote)
			reg.RegisterPseudo(&ir.Node{ID: remoteID, Kind: ir.KindAnswerRemote, BaseFieldCode: block.Code}, block.Code)
		}
	}

	for _, refID := range reg.ByType(ir.KindReference) {
		ref, _ := reg.Node(refID)
		if len(ref.RefPath) < 2 {
			continue
		}
		root, ok := ref.RefPath[0].(string)
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
		default:
			continue
		}
		key, ok := ref.RefPath[1].(string)
		if !ok {
			continue // dynamic segment; resolved at evaluation time, not pre-synthesized
		}
		if _, exists := reg.ByPseudoKey(kind, key); exists {
			continue
		}
		id := ids.NextCompile(kind)
		node := &ir.Node{ID: id, Kind: kind}
		switch kind {
		case ir.KindQuery:
			node.ParamName = key
		case ir.KindParams:
			node.ParamName = key
		case ir.KindData:
			node.BaseProperty = key
		}
		reg.RegisterPseudo(node, key)
	}
}
