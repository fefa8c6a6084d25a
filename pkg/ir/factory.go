package ir

import (
	"fmt"

	"github.com/ormasoftchile/formengine/pkg/evalerr"
)

// Factory converts declarative input — the generic map[string]any/[]any
// tree produced by decl.Decode — into IR nodes. It is the single place
// that understands the declarative discriminators; every node it builds
// is appended to Nodes so the caller can hand the whole set to the
// registry builder.
type Factory struct {
	IDs   *IDGenerator
	Nodes map[NodeID]*Node
}

// NewFactory returns an empty factory ready to build one form's IR.
func NewFactory() *Factory {
	return &Factory{IDs: NewIDGenerator(), Nodes: map[NodeID]*Node{}}
}

// CreateNode converts one declarative object into an IR node and returns
// its id. input must be a map[string]any carrying a "type" discriminator,
// per spec.md §4.1 ("unknown objects with a type string ... fails with
// UnknownNodeType").
func (f *Factory) CreateNode(input any, path string) (NodeID, error) {
	obj, ok := input.(map[string]any)
	if !ok {
		return "", &evalerr.InvalidNodeError{Reason: fmt.Sprintf("expected object, got %T", input), Path: path}
	}
	typ, _ := obj["type"].(string)
	if typ == "" {
		return "", &evalerr.InvalidNodeError{Reason: "object missing \"type\" discriminator", Path: path}
	}

	switch typ {
	case "journey":
		return f.createJourney(obj, path)
	case "step":
		return f.createStep(obj, path)
	case "block":
		return f.createBlock(obj, path)
	case "reference":
		return f.createReference(obj, path)
	case "format":
		return f.createFormat(obj, path)
	case "pipeline":
		return f.createPipeline(obj, path)
	case "iterate":
		return f.createIterate(obj, path)
	case "validation":
		return f.createValidation(obj, path)
	case "next":
		return f.createNext(obj, path)
	case "function":
		return f.createFunction(obj, path)
	case "test":
		return f.createTest(obj, path)
	case "and", "or", "xor", "not":
		return f.createBoolOp(typ, obj, path)
	case "load", "access":
		return f.createLoadAccess(typ, obj, path)
	case "action":
		return f.createAction(obj, path)
	case "submit":
		return f.createSubmit(obj, path)
	case "redirect":
		return f.createRedirect(obj, path)
	case "throwError":
		return f.createThrowError(obj, path)
	case "self":
		return f.createSelf(obj, path)
	default:
		return "", &evalerr.UnknownNodeTypeError{Type: typ, Path: path}
	}
}

func (f *Factory) put(n *Node) NodeID {
	f.Nodes[n.ID] = n
	return n.ID
}

// transformValue recursively transforms a declarative value: nested
// typed objects become IR nodes (returned as their NodeID); arrays and
// plain (untyped) records are walked element/field-wise with primitives
// passed through unchanged.
func (f *Factory) transformValue(v any, path string) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if _, hasType := val["type"]; hasType {
			return f.CreateNode(val, path)
		}
		out := make(map[string]any, len(val))
		for k, vv := range val {
			tv, err := f.transformValue(vv, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = tv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			tv, err := f.transformValue(vv, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = tv
		}
		return out, nil
	default:
		return val, nil
	}
}

// transformNodeList transforms a declarative array that is expected to be
// entirely node-valued (e.g. Step.blocks), returning the child ids.
func (f *Factory) transformNodeList(v any, path string) ([]NodeID, error) {
	arr, _ := v.([]any)
	ids := make([]NodeID, 0, len(arr))
	for i, item := range arr {
		id, err := f.CreateNode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// transformOptionalNode transforms a declarative field that may be absent,
// a literal, or a single nested node.
func (f *Factory) transformOptionalNode(v any, path string) (NodeID, error) {
	if v == nil {
		return "", nil
	}
	return f.CreateNode(v, path)
}

// optionalDynamic transforms a field that may be a literal (string, number)
// or a nested expression node; literals yield no NodeID and stay readable
// only via the parent's Raw map.
func (f *Factory) optionalDynamic(v any, path string) (NodeID, error) {
	if v == nil {
		return "", nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return "", nil
	}
	if _, hasType := m["type"]; !hasType {
		return "", nil
	}
	return f.CreateNode(m, path)
}

func str(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func boolVal(obj map[string]any, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

func (f *Factory) createJourney(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindJourney)
	n := &Node{ID: id, Kind: KindJourney, Raw: obj, Path: str(obj, "path"), View: str(obj, "view")}

	if children, ok := obj["children"]; ok {
		ids, err := f.transformNodeList(children, path+".children")
		if err != nil {
			return "", err
		}
		n.Children = ids
	}
	if steps, ok := obj["steps"]; ok {
		ids, err := f.transformNodeList(steps, path+".steps")
		if err != nil {
			return "", err
		}
		n.Steps = ids
	}
	var err error
	if n.OnLoad, err = f.transformOptionalNode(obj["onLoad"], path+".onLoad"); err != nil {
		return "", err
	}
	if n.OnAccess, err = f.transformOptionalNode(obj["onAccess"], path+".onAccess"); err != nil {
		return "", err
	}
	return f.put(n), nil
}

func (f *Factory) createStep(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindStep)
	n := &Node{ID: id, Kind: KindStep, Raw: obj, Path: str(obj, "path"), Title: str(obj, "title"),
		View: str(obj, "view"), Entry: boolVal(obj, "entry"), IsEntryPoint: boolVal(obj, "isEntryPoint")}

	if blocks, ok := obj["blocks"]; ok {
		ids, err := f.transformNodeList(blocks, path+".blocks")
		if err != nil {
			return "", err
		}
		n.Blocks = ids
	}
	var err error
	for _, t := range []struct {
		key string
		dst *NodeID
	}{
		{"onLoad", &n.OnLoad}, {"onAccess", &n.OnAccess},
		{"onAction", &n.OnAction}, {"onSubmission", &n.OnSubmission},
	} {
		if *t.dst, err = f.transformOptionalNode(obj[t.key], path+"."+t.key); err != nil {
			return "", err
		}
	}
	return f.put(n), nil
}

func (f *Factory) createBlock(obj map[string]any, path string) (NodeID, error) {
	variant := str(obj, "variant")
	code := str(obj, "code")
	if variant == "" {
		return "", &evalerr.InvalidNodeError{Reason: "block missing \"variant\"", Path: path}
	}
	id := f.IDs.NextCompile(KindBlock)
	n := &Node{ID: id, Kind: KindBlock, Raw: obj, Variant: variant, BlockType: str(obj, "blockType"), Code: code}
	if sv, ok := obj["sanitize"].(bool); ok {
		n.Sanitize = &sv
	}

	var err error
	if n.Label, err = f.optionalDynamic(obj["label"], path+".label"); err != nil {
		return "", err
	}
	if validate, ok := obj["validate"]; ok {
		if n.Validate, err = f.transformNodeList(validate, path+".validate"); err != nil {
			return "", err
		}
	}
	if n.Dependent, err = f.transformOptionalNode(obj["dependent"], path+".dependent"); err != nil {
		return "", err
	}
	if formatters, ok := obj["formatters"]; ok {
		if n.Formatters, err = f.transformNodeList(formatters, path+".formatters"); err != nil {
			return "", err
		}
	}
	if n.FormatPipeline, err = f.transformOptionalNode(obj["formatPipeline"], path+".formatPipeline"); err != nil {
		return "", err
	}
	if n.DefaultValue, err = f.transformOptionalNode(obj["defaultValue"], path+".defaultValue"); err != nil {
		return "", err
	}

	reserved := map[string]bool{
		"type": true, "variant": true, "blockType": true, "code": true, "label": true,
		"validate": true, "dependent": true, "formatters": true, "formatPipeline": true,
		"defaultValue": true, "sanitize": true,
	}
	props := map[string]NodeID{}
	for k, v := range obj {
		if reserved[k] {
			continue
		}
		tv, err := f.transformValue(v, path+"."+k)
		if err != nil {
			return "", err
		}
		if nid, ok := tv.(NodeID); ok {
			props[k] = nid
		}
		// non-node freeform values (strings, numbers, plain records) are
		// kept only on Raw; render-time handlers read them from there.
	}
	if len(props) > 0 {
		n.Properties = props
	}
	return f.put(n), nil
}

func (f *Factory) createReference(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindReference)
	n := &Node{ID: id, Kind: KindReference, Raw: obj, RefBase: str(obj, "base")}
	pathSegs, _ := obj["path"].([]any)
	if len(pathSegs) == 0 {
		return "", &evalerr.InvalidNodeError{Reason: "reference requires a non-empty path", Path: path}
	}
	for i, seg := range pathSegs {
		if m, ok := seg.(map[string]any); ok {
			nid, err := f.CreateNode(m, fmt.Sprintf("%s.path[%d]", path, i))
			if err != nil {
				return "", err
			}
			n.RefPath = append(n.RefPath, nid)
		} else {
			n.RefPath = append(n.RefPath, seg)
		}
	}
	return f.put(n), nil
}

func (f *Factory) createFormat(obj map[string]any, path string) (NodeID, error) {
	tmpl := str(obj, "template")
	if tmpl == "" {
		return "", &evalerr.InvalidNodeError{Reason: "format requires a template", Path: path}
	}
	id := f.IDs.NextCompile(KindFormat)
	n := &Node{ID: id, Kind: KindFormat, Raw: obj, Template: tmpl}
	if args, ok := obj["args"]; ok {
		ids, err := f.transformExprList(args, path+".args")
		if err != nil {
			return "", err
		}
		n.Args = ids
	}
	return f.put(n), nil
}

// transformExprList transforms a list that may mix nodes and literals;
// literal entries are wrapped into synthetic Reference-free "literal"
// placeholders is unnecessary — handlers read Raw for literals, so a
// literal slot keeps an empty NodeID and the evaluator falls back to the
// corresponding Raw element.
func (f *Factory) transformExprList(v any, path string) ([]NodeID, error) {
	arr, _ := v.([]any)
	ids := make([]NodeID, len(arr))
	for i, item := range arr {
		if m, ok := item.(map[string]any); ok {
			if _, hasType := m["type"]; hasType {
				id, err := f.CreateNode(m, fmt.Sprintf("%s[%d]", path, i))
				if err != nil {
					return nil, err
				}
				ids[i] = id
				continue
			}
		}
		ids[i] = "" // literal; resolved from Raw at evaluation time
	}
	return ids, nil
}

func (f *Factory) createPipeline(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindPipeline)
	n := &Node{ID: id, Kind: KindPipeline, Raw: obj}
	var err error
	if n.Input, err = f.transformOptionalNode(obj["input"], path+".input"); err != nil {
		return "", err
	}
	if steps, ok := obj["steps"]; ok {
		if n.Steps2, err = f.transformNodeList(steps, path+".steps"); err != nil {
			return "", err
		}
	}
	return f.put(n), nil
}

func (f *Factory) createIterate(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindIterate)
	n := &Node{ID: id, Kind: KindIterate, Raw: obj}
	var err error
	if n.Collection, err = f.transformOptionalNode(obj["collection"], path+".collection"); err != nil {
		return "", err
	}
	if tmpl, ok := obj["template"].([]any); ok {
		n.Tmpl = tmpl // kept raw; instantiated per-item at evaluation time
	}
	if n.Fallback, err = f.transformOptionalNode(obj["fallback"], path+".fallback"); err != nil {
		return "", err
	}
	return f.put(n), nil
}

func (f *Factory) createValidation(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindValidation)
	n := &Node{ID: id, Kind: KindValidation, Raw: obj, Message: str(obj, "message")}
	var err error
	if n.When, err = f.transformOptionalNode(obj["when"], path+".when"); err != nil {
		return "", err
	}
	return f.put(n), nil
}

func (f *Factory) createNext(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindNext)
	n := &Node{ID: id, Kind: KindNext, Raw: obj}
	var err error
	if n.When, err = f.transformOptionalNode(obj["when"], path+".when"); err != nil {
		return "", err
	}
	if n.Goto, err = f.optionalDynamic(obj["goto"], path+".goto"); err != nil {
		return "", err
	}
	return f.put(n), nil
}

func (f *Factory) createFunction(obj map[string]any, path string) (NodeID, error) {
	name := str(obj, "name")
	kind := str(obj, "kind")
	if name == "" {
		return "", &evalerr.InvalidNodeError{Reason: "function requires a name", Path: path}
	}
	id := f.IDs.NextCompile(KindFunction)
	n := &Node{ID: id, Kind: KindFunction, Raw: obj, FuncKind: FunctionKind(kind), FuncName: name}
	if args, ok := obj["arguments"]; ok {
		ids, err := f.transformExprList(args, path+".arguments")
		if err != nil {
			return "", err
		}
		n.FuncArgs = ids
	}
	return f.put(n), nil
}

func (f *Factory) createTest(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindTest)
	n := &Node{ID: id, Kind: KindTest, Raw: obj, Negate: boolVal(obj, "negate")}
	var err error
	if n.Subject, err = f.optionalDynamic(obj["subject"], path+".subject"); err != nil {
		return "", err
	}
	cond, err := f.transformOptionalNode(obj["condition"], path+".condition")
	if err != nil {
		return "", err
	}
	n.Operands = []NodeID{cond}
	return f.put(n), nil
}

func (f *Factory) createBoolOp(typ string, obj map[string]any, path string) (NodeID, error) {
	var kind Kind
	switch typ {
	case "and":
		kind = KindAnd
	case "or":
		kind = KindOr
	case "xor":
		kind = KindXor
	case "not":
		kind = KindNot
	}
	id := f.IDs.NextCompile(kind)
	n := &Node{ID: id, Kind: kind, Raw: obj}
	operands, _ := obj["operands"].([]any)
	if len(operands) == 0 {
		return "", &evalerr.InvalidNodeError{Reason: typ + " requires at least one operand", Path: path}
	}
	ids, err := f.transformNodeList(obj["operands"], path+".operands")
	if err != nil {
		return "", err
	}
	n.Operands = ids
	return f.put(n), nil
}

func (f *Factory) createLoadAccess(typ string, obj map[string]any, path string) (NodeID, error) {
	kind := KindLoad
	if typ == "access" {
		kind = KindAccess
	}
	id := f.IDs.NextCompile(kind)
	n := &Node{ID: id, Kind: kind, Raw: obj}
	if effects, ok := obj["effects"]; ok {
		ids, err := f.transformNodeList(effects, path+".effects")
		if err != nil {
			return "", err
		}
		n.Effects = ids
	}
	return f.put(n), nil
}

func (f *Factory) createAction(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindAction)
	n := &Node{ID: id, Kind: KindAction, Raw: obj}
	var err error
	if n.When, err = f.transformOptionalNode(obj["when"], path+".when"); err != nil {
		return "", err
	}
	if effects, ok := obj["effects"]; ok {
		if n.Effects, err = f.transformNodeList(effects, path+".effects"); err != nil {
			return "", err
		}
	}
	return f.put(n), nil
}

func (f *Factory) createSubmit(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindSubmit)
	n := &Node{ID: id, Kind: KindSubmit, Raw: obj}
	var err error
	if n.When, err = f.transformOptionalNode(obj["when"], path+".when"); err != nil {
		return "", err
	}
	if onValid, ok := obj["onValid"].(map[string]any); ok {
		if n.OnValid, err = f.createBranchAsID(onValid, path+".onValid"); err != nil {
			return "", err
		}
	}
	if onInvalid, ok := obj["onInvalid"].(map[string]any); ok {
		if n.OnInvalid, err = f.createBranchAsID(onInvalid, path+".onInvalid"); err != nil {
			return "", err
		}
	}
	return f.put(n), nil
}

// createBranchAsID materializes a Submit branch {effects?, next|outcome} as
// its own synthetic node so it can hold a NodeID like any other child,
// keeping Children() uniform.
func (f *Factory) createBranchAsID(obj map[string]any, path string) (NodeID, error) {
	branch := &SubmitBranch{}
	var err error
	if effects, ok := obj["effects"]; ok {
		if branch.Effects, err = f.transformNodeList(effects, path+".effects"); err != nil {
			return "", err
		}
	}
	if next, ok := obj["next"]; ok {
		if branch.Next, err = f.transformNodeList(next, path+".next"); err != nil {
			return "", err
		}
	}
	if outcome, ok := obj["outcome"]; ok {
		if branch.Outcome, err = f.transformOptionalNode(outcome, path+".outcome"); err != nil {
			return "", err
		}
	}
	id := f.IDs.NextCompile(KindSubmit)
	n := &Node{ID: id, Kind: KindSubmit, Raw: obj, Branch: branch}
	return f.put(n), nil
}

func (f *Factory) createRedirect(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindRedirect)
	n := &Node{ID: id, Kind: KindRedirect, Raw: obj}
	var err error
	if n.Goto, err = f.optionalDynamic(obj["goto"], path+".goto"); err != nil {
		return "", err
	}
	return f.put(n), nil
}

func (f *Factory) createThrowError(obj map[string]any, path string) (NodeID, error) {
	code := str(obj, "code")
	if code == "" {
		return "", &evalerr.InvalidNodeError{Reason: "throwError requires a code", Path: path}
	}
	id := f.IDs.NextCompile(KindThrowError)
	n := &Node{ID: id, Kind: KindThrowError, Raw: obj, Code2: code, ErrMsg: str(obj, "message")}
	return f.put(n), nil
}

func (f *Factory) createSelf(obj map[string]any, path string) (NodeID, error) {
	id := f.IDs.NextCompile(KindSelf)
	n := &Node{ID: id, Kind: KindSelf, Raw: obj}
	return f.put(n), nil
}
