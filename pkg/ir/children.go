package ir

// ChildRef names one outgoing structural reference from a node: the
// property it was stored under (and an index, for list-valued properties),
// plus the referenced id. Traversers, dependency wirers, and the
// relevant-node projection all walk a node's children through this single
// function rather than switching on Kind themselves.
type ChildRef struct {
	Property string
	Index    int // -1 when the property is not list-valued
	ID       NodeID
}

// Children returns every node-valued reference n carries, in declaration
// order. Primitive fields (strings, bools) are not included — only fields
// that hold a NodeID or a slice of NodeIDs contribute a ChildRef.
func Children(n *Node) []ChildRef {
	var refs []ChildRef
	add := func(prop string, id NodeID) {
		if id != "" {
			refs = append(refs, ChildRef{Property: prop, Index: -1, ID: id})
		}
	}
	addList := func(prop string, ids []NodeID) {
		for i, id := range ids {
			if id != "" {
				refs = append(refs, ChildRef{Property: prop, Index: i, ID: id})
			}
		}
	}

	switch n.Kind {
	case KindJourney:
		addList("children", n.Children)
		addList("steps", n.Steps)
		add("onLoad", n.OnLoad)
		add("onAccess", n.OnAccess)
	case KindStep:
		addList("blocks", n.Blocks)
		add("onLoad", n.OnLoad)
		add("onAccess", n.OnAccess)
		add("onAction", n.OnAction)
		add("onSubmission", n.OnSubmission)
	case KindBlock:
		add("label", n.Label)
		addList("validate", n.Validate)
		add("dependent", n.Dependent)
		addList("formatters", n.Formatters)
		add("formatPipeline", n.FormatPipeline)
		add("defaultValue", n.DefaultValue)
		keys := make([]string, 0, len(n.Properties))
		for k := range n.Properties {
			keys = append(keys, k)
		}
		sortStrings(keys)
		for _, k := range keys {
			add("properties."+k, n.Properties[k])
		}
	case KindReference:
		for i, seg := range n.RefPath {
			if id, ok := seg.(NodeID); ok {
				refs = append(refs, ChildRef{Property: "path", Index: i, ID: id})
			}
		}
	case KindFormat:
		addList("args", n.Args)
	case KindPipeline:
		add("input", n.Input)
		addList("steps", n.Steps2)
	case KindIterate:
		add("collection", n.Collection)
		add("fallback", n.Fallback)
	case KindValidation:
		add("when", n.When)
	case KindNext:
		add("when", n.When)
		add("goto", n.Goto)
	case KindFunction:
		addList("arguments", n.FuncArgs)
	case KindTest:
		add("subject", n.Subject)
		add("condition", firstOperand(n))
	case KindAnd, KindOr, KindXor, KindNot:
		addList("operands", n.Operands)
	case KindLoad, KindAccess:
		addList("effects", n.Effects)
	case KindAction:
		add("when", n.When)
		addList("effects", n.Effects)
	case KindSubmit:
		add("when", n.When)
		if n.Branch != nil {
			addList("effects", n.Branch.Effects)
			addList("next", n.Branch.Next)
			add("outcome", n.Branch.Outcome)
		}
		add("onValid", n.OnValid)
		add("onInvalid", n.OnInvalid)
	case KindRedirect:
		add("goto", n.Goto)
	}
	return refs
}

// firstOperand supports Test.condition, which is itself a single operand
// stashed in Operands[0] to avoid a dedicated field.
func firstOperand(n *Node) NodeID {
	if len(n.Operands) == 0 {
		return ""
	}
	return n.Operands[0]
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}
