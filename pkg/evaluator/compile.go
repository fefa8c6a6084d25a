// Package evaluator wires the rest of the engine's packages into the
// request-facing ThunkEvaluator (spec.md §4.8): it compiles one step
// artefact, drives invoke() with caching/dedupe, and implements the
// runtime hooks Iterate uses to grow the registry mid-request.
package evaluator

import (
	"time"

	"github.com/ormasoftchile/formengine/pkg/depgraph"
	"github.com/ormasoftchile/formengine/pkg/functions"
	"github.com/ormasoftchile/formengine/pkg/ir"
	"github.com/ormasoftchile/formengine/pkg/normalize"
	"github.com/ormasoftchile/formengine/pkg/projection"
	"github.com/ormasoftchile/formengine/pkg/pseudonode"
	"github.com/ormasoftchile/formengine/pkg/registry"
	"github.com/ormasoftchile/formengine/pkg/telemetry"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

// CompiledStep is the per-step compile output spec.md §6 calls an
// artefact: {graph, specialisedNodeRegistry, metadataRegistry,
// idGenerator, thunkHandlerRegistry}, plus the bits the runtime overlay
// needs to grow the registry later (Factory, JourneyRoot, StepID).
type CompiledStep struct {
	Graph       *depgraph.Graph
	Registry    *registry.NodeRegistry
	Metadata    *registry.MetadataRegistry
	IDs         *ir.IDGenerator
	Handlers    *thunk.HandlerRegistry
	Factory     *ir.Factory
	JourneyRoot ir.NodeID
	StepID      ir.NodeID
}

// CompileForm runs the NodeFactory over one declarative journey document
// and the two normalization passes that must happen before registration.
func CompileForm(rootDecl any) (*ir.Factory, ir.NodeID, error) {
	f := ir.NewFactory()
	rootID, err := f.CreateNode(rootDecl, "$")
	if err != nil {
		return nil, "", err
	}
	normalize.AddSelfValueToFields(f.Nodes, f.IDs)
	normalize.ResolveSelfReferences(f.Nodes, rootID, f.IDs)
	return f, rootID, nil
}

// CompileStep builds one step's artefact: registry, pseudo-nodes, the
// static dependency graph plus this step's pseudo-node scoping edges, the
// relevant-node metadata, and the compiled handler map with isAsync
// already computed.
func CompileStep(f *ir.Factory, journeyRootID, stepID ir.NodeID, funcs *functions.Registry, trace *telemetry.Writer) (*CompiledStep, error) {
	start := time.Now()
	if trace != nil {
		trace.EmitCompileStart(stepID)
	}

	reg := registry.Build(f.Nodes, journeyRootID)
	pseudonode.Scan(reg, f.IDs)

	g := depgraph.WireStatic(reg)
	relevant := projection.Project(reg, journeyRootID, stepID)
	depgraph.WireStepScope(reg, g, relevant)

	md := registry.NewMetadataRegistry()
	registry.SetStepMetadata(reg, md, stepID)

	handlers, err := thunk.Compile(reg, g, funcs)
	if err != nil {
		return nil, err
	}

	if trace != nil {
		trace.EmitCompileComplete(stepID, reg.Size(), len(handlers.All()), time.Since(start))
	}

	return &CompiledStep{
		Graph:       g,
		Registry:    reg,
		Metadata:    md,
		IDs:         f.IDs,
		Handlers:    handlers,
		Factory:     f,
		JourneyRoot: journeyRootID,
		StepID:      stepID,
	}, nil
}
