package registry

import "github.com/ormasoftchile/formengine/pkg/ir"

// Metadata is the per-node bag of step-scoped facts set during compilation
// of one step artefact. It is intentionally a fixed struct rather than an
// open (id,key)->value map: every field here is always set together by
// the same pass (SetStepMetadata), so a struct avoids a layer of type
// assertions every caller would otherwise need.
type Metadata struct {
	IsCurrentStep            bool
	IsAncestorOfStep         bool
	IsDescendantOfStep       bool
	AttachedToParentNode     ir.NodeID
	AttachedToParentProperty string
}

// MetadataRegistry maps node id to its Metadata for one compiled step.
// CompileStep creates a fresh instance per compilation, and Clone gives an
// independent copy, so step A's compile never mutates metadata step B
// already captured.
type MetadataRegistry struct {
	entries map[ir.NodeID]*Metadata
}

func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{entries: map[ir.NodeID]*Metadata{}}
}

func (m *MetadataRegistry) Get(id ir.NodeID) Metadata {
	if e, ok := m.entries[id]; ok {
		return *e
	}
	return Metadata{}
}

func (m *MetadataRegistry) Set(id ir.NodeID, md Metadata) {
	copyMd := md
	m.entries[id] = &copyMd
}

// Clone returns a deep-enough copy (Metadata is a value type, so copying
// the map copies every entry) safe to mutate independently, satisfying
// the "per-compilation cloning" requirement of the registry.
func (m *MetadataRegistry) Clone() *MetadataRegistry {
	out := NewMetadataRegistry()
	for id, md := range m.entries {
		copyMd := *md
		out.entries[id] = &copyMd
	}
	return out
}

// SetStepMetadata walks the registry relative to a target step, marking
// isCurrentStep for the step and every node in its subtree,
// attachedToParent{Node,Property} for each node below the step from its
// parent's child links, and isAncestorOfStep for every Journey that
// contains the step directly or through child journeys. Nodes outside the
// step's subtree get no parent link, and isDescendantOfStep is not set.
func SetStepMetadata(reg *NodeRegistry, md *MetadataRegistry, stepID ir.NodeID) {
	step, ok := reg.Node(stepID)
	if !ok {
		return
	}

	// Mark the step subtree as current.
	markSubtree(reg, md, stepID, true)
	_ = step

	// Mark every Journey containing stepID, directly or through child
	// journeys, as an ancestor of it.
	for _, journeyID := range reg.ByType(ir.KindJourney) {
		journey, _ := reg.Node(journeyID)
		isAncestor := containsStep(journey.Steps, stepID) || journeyHasDescendantStep(reg, journey, stepID)
		cur := md.Get(journeyID)
		cur.IsAncestorOfStep = cur.IsAncestorOfStep || isAncestor
		md.Set(journeyID, cur)
	}
}

func containsStep(steps []ir.NodeID, target ir.NodeID) bool {
	for _, s := range steps {
		if s == target {
			return true
		}
	}
	return false
}

func journeyHasDescendantStep(reg *NodeRegistry, j *ir.Node, target ir.NodeID) bool {
	if containsStep(j.Steps, target) {
		return true
	}
	for _, childID := range j.Children {
		child, ok := reg.Node(childID)
		if ok && journeyHasDescendantStep(reg, child, target) {
			return true
		}
	}
	return false
}

func markSubtree(reg *NodeRegistry, md *MetadataRegistry, root ir.NodeID, current bool) {
	node, ok := reg.Node(root)
	if !ok {
		return
	}
	cur := md.Get(root)
	cur.IsCurrentStep = current
	md.Set(root, cur)
	for _, ref := range ir.Children(node) {
		childCur := md.Get(ref.ID)
		childCur.AttachedToParentNode = root
		childCur.AttachedToParentProperty = ref.Property
		childCur.IsCurrentStep = current
		md.Set(ref.ID, childCur)
		markSubtree(reg, md, ref.ID, current)
	}
}
