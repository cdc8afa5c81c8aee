package ecs

import (
	"sort"

	"github.com/kestrelgames/ecsforge/internal/core/ecs/bitset"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/logx"
	"github.com/kestrelgames/ecsforge/internal/mathx"
)

// TRS is a translation-rotation-scale triple, the value representation of a
// transform both before and after hierarchy composition (§3, §4.7).
type TRS struct {
	Position mathx.Vec3
	Rotation mathx.Quat
	Scale    mathx.Vec3
}

// IdentityTRS is the neutral transform: no translation, no rotation, unit scale.
var IdentityTRS = TRS{Rotation: mathx.QuatIdentity, Scale: mathx.Vec3One}

// LocalTRSProvider is satisfied by whatever component type occupies a graph
// slot's local_transform_ref (in practice, components.TransformComponent).
// The graph package depends only on this interface, never the concrete
// component type, to avoid an import cycle (components imports ecs for
// Base/DeclareComponentType; ecs cannot import components back).
type LocalTRSProvider interface {
	Component
	LocalTRS() TRS
}

// graphRegistry is the process-wide graph_id -> *EntityGraph table a
// Transform component's MarkDirty() helper consults to flip its owning
// graph's dirty bit without the components package needing a reference to
// the graph itself.
var graphRegistry = make(map[uint16]*EntityGraph)

// MarkDirty flips the dirty bit for entity's slot in its owning graph. It is
// the package-level seam components.TransformComponent.MarkDirty() calls
// through (§6 "Transform component").
func MarkDirty(id EntityID) {
	if g, ok := graphRegistry[id.GraphID()]; ok {
		g.markDirtySlot(int(id.GraphSlotID()) - 1)
	}
}

// EntityGraph is a slot-based hierarchy over structure-of-arrays columns
// (§3, §4.7): allocation/free, parenting, dirty-flag propagation, and the
// per-frame world-transform recompute.
type EntityGraph struct {
	id uint16
	cs *ComponentSystem

	allocatedBits *bitset.Array
	dirtyBits     *bitset.Array

	parentID      []int32
	firstChildID  []int32
	nextSiblingID []int32
	prevSiblingID []int32
	depth         []int32

	localTransformRef []LocalTRSProvider
	worldTransform    []TRS
	worldMatrix       []mathx.Mat4
	entityRef         []*GameEntity

	// scratch buffers for update_transforms, reused across frames (§9
	// "Dirty-update scratch buffers"); cleared on entry/exit of every call.
	workList []int32
	dfsStack []int32
}

// NewEntityGraph constructs an empty graph with room for initialCapacity
// slots, registers it in graphRegistry under graphID, and wires cs as the
// ComponentSystem components are allocated/freed through.
func NewEntityGraph(graphID uint16, initialCapacity int, cs *ComponentSystem) *EntityGraph {
	if uint32(graphID) >= MaxGraphs {
		logx.L().Fatalw("graph id exceeds 12-bit field", "graph_id", graphID)
	}
	g := &EntityGraph{
		id:            graphID,
		cs:            cs,
		allocatedBits: bitset.NewArray(),
		dirtyBits:     bitset.NewArray(),
	}
	if initialCapacity > 0 {
		g.growTo(initialCapacity)
	}
	graphRegistry[graphID] = g
	return g
}

func (g *EntityGraph) growTo(n int) {
	if n <= len(g.parentID) {
		return
	}
	g.allocatedBits.Reserve(n)
	g.dirtyBits.Reserve(n)

	grow := func(s []int32) []int32 {
		out := make([]int32, n)
		copy(out, s)
		for i := len(s); i < n; i++ {
			out[i] = -1
		}
		return out
	}
	g.parentID = grow(g.parentID)
	g.firstChildID = grow(g.firstChildID)
	g.nextSiblingID = grow(g.nextSiblingID)
	g.prevSiblingID = grow(g.prevSiblingID)

	depth := make([]int32, n)
	copy(depth, g.depth)
	g.depth = depth

	refs := make([]LocalTRSProvider, n)
	copy(refs, g.localTransformRef)
	g.localTransformRef = refs

	world := make([]TRS, n)
	copy(world, g.worldTransform)
	for i := len(g.worldTransform); i < n; i++ {
		world[i] = IdentityTRS
	}
	g.worldTransform = world

	mats := make([]mathx.Mat4, n)
	copy(mats, g.worldMatrix)
	for i := len(g.worldMatrix); i < n; i++ {
		mats[i] = mathx.TRS(mathx.Vec3Zero, mathx.QuatIdentity, mathx.Vec3One)
	}
	g.worldMatrix = mats

	entities := make([]*GameEntity, n)
	copy(entities, g.entityRef)
	g.entityRef = entities
}

// allocateSlot finds the first clear bit in allocated_bits, growing the
// columns by one 256-slot block if none is free, and returns the 0-based
// slot with hierarchy fields reset to their "just allocated" state.
func (g *EntityGraph) allocateSlot() int {
	slot := g.allocatedBits.FindFirstClear()
	if slot == -1 || slot >= len(g.parentID) {
		slot = len(g.parentID)
		g.growTo(len(g.parentID) + bitset.BitsPerBlock)
	}
	if slot >= MaxSlotsPerGraph {
		logx.L().Fatalw("graph slot id exceeds 20-bit field", "graph_id", g.id, "slot", slot)
	}

	g.parentID[slot] = -1
	g.firstChildID[slot] = -1
	g.nextSiblingID[slot] = -1
	g.prevSiblingID[slot] = -1
	g.depth[slot] = 0
	g.worldTransform[slot] = IdentityTRS
	g.worldMatrix[slot] = mathx.TRS(mathx.Vec3Zero, mathx.QuatIdentity, mathx.Vec3One)
	g.localTransformRef[slot] = nil
	g.entityRef[slot] = nil

	g.allocatedBits.SetBit(slot)
	g.dirtyBits.SetBit(slot)
	return slot
}

// CreateEntity constructs a fresh GameEntity without registering it into the
// graph yet — the caller must attach a Transform and then call
// TryRegisterEntity to claim a slot and bind the EntityID.
func (g *EntityGraph) CreateEntity() *GameEntity {
	return newGameEntity()
}

// TryRegisterEntity claims a graph slot for e, binding its EntityID's
// graph_id/graph_slot_id fields. Requires e to already hold a component
// satisfying LocalTRSProvider (a Transform); returns false otherwise.
func (g *EntityGraph) TryRegisterEntity(e *GameEntity) bool {
	var provider LocalTRSProvider
	for _, c := range e.Components() {
		if p, ok := c.(LocalTRSProvider); ok {
			provider = p
			break
		}
	}
	if provider == nil {
		return false
	}

	slot := g.allocateSlot()
	g.localTransformRef[slot] = provider
	g.entityRef[slot] = e
	e.id = e.id.WithSlot(g.id, uint32(slot+1))
	registerGlobal(e)
	return true
}

func (g *EntityGraph) slotOf(id EntityID) (int, bool) {
	if id.GraphID() != g.id {
		return 0, false
	}
	slotID := id.GraphSlotID()
	if slotID == 0 {
		return 0, false
	}
	slot := int(slotID) - 1
	if slot >= len(g.parentID) || !g.allocatedBits.GetBit(slot) {
		return 0, false
	}
	return slot, true
}

// removeFromSiblingList detaches slot from its current parent's sibling
// list without touching parent_id itself.
func (g *EntityGraph) removeFromSiblingList(slot int32) {
	prev := g.prevSiblingID[slot]
	next := g.nextSiblingID[slot]
	parent := g.parentID[slot]
	if prev != -1 {
		g.nextSiblingID[prev] = next
	} else if parent != -1 {
		g.firstChildID[parent] = next
	}
	if next != -1 {
		g.prevSiblingID[next] = prev
	}
	g.prevSiblingID[slot] = -1
	g.nextSiblingID[slot] = -1
}

// propagateDepth recomputes depth[] for every descendant of root using an
// explicit stack (root's own depth must already be current).
func (g *EntityGraph) propagateDepth(root int32) {
	stack := g.dfsStack[:0]
	stack = append(stack, root)
	for len(stack) > 0 {
		n := len(stack) - 1
		slot := stack[n]
		stack = stack[:n]
		child := g.firstChildID[slot]
		for child != -1 {
			g.depth[child] = g.depth[slot] + 1
			stack = append(stack, child)
			child = g.nextSiblingID[child]
		}
	}
	g.dfsStack = stack[:0]
}

// SetParent reparents child under parent (InvalidEntityID detaches to root).
// Depth is recomputed for child and, via an explicit stack, every descendant.
// Cyclic parenting is caller-enforced and unchecked, per §4.7.
func (g *EntityGraph) SetParent(child EntityID, parent EntityID) {
	childSlot, ok := g.slotOf(child)
	if !ok {
		return
	}
	g.removeFromSiblingList(int32(childSlot))

	if parent == InvalidEntityID {
		g.parentID[childSlot] = -1
		g.depth[childSlot] = 0
	} else {
		parentSlot, ok := g.slotOf(parent)
		if !ok {
			return
		}
		g.parentID[childSlot] = int32(parentSlot)
		oldFirst := g.firstChildID[parentSlot]
		g.nextSiblingID[childSlot] = oldFirst
		if oldFirst != -1 {
			g.prevSiblingID[oldFirst] = int32(childSlot)
		}
		g.firstChildID[parentSlot] = int32(childSlot)
		g.depth[childSlot] = g.depth[parentSlot] + 1
	}

	g.propagateDepth(int32(childSlot))
	g.dirtyBits.SetBit(childSlot)
}

// MarkDirty sets entity's dirty bit. Descendants are discovered at
// update_transforms time, not here.
func (g *EntityGraph) MarkDirty(entity EntityID) {
	if slot, ok := g.slotOf(entity); ok {
		g.markDirtySlot(slot)
	}
}

func (g *EntityGraph) markDirtySlot(slot int) {
	if slot >= 0 && slot < len(g.parentID) {
		g.dirtyBits.SetBit(slot)
	}
}

// TryGetParentTransform returns the world transform of entity's parent, or
// false if entity is unallocated or has no parent.
func (g *EntityGraph) TryGetParentTransform(entity EntityID) (TRS, bool) {
	slot, ok := g.slotOf(entity)
	if !ok {
		return TRS{}, false
	}
	parent := g.parentID[slot]
	if parent == -1 {
		return TRS{}, false
	}
	return g.worldTransform[parent], true
}

// TryGetWorldMatrix returns entity's cached world matrix. False if the
// entity is unallocated or currently dirty (not yet recomputed).
func (g *EntityGraph) TryGetWorldMatrix(entity EntityID) (mathx.Mat4, bool) {
	slot, ok := g.slotOf(entity)
	if !ok || g.dirtyBits.GetBit(slot) {
		return mathx.Mat4{}, false
	}
	return g.worldMatrix[slot], true
}

// TryGetLocalMatrix returns the matrix form of entity's local (un-composed)
// TRS, independent of dirty state.
func (g *EntityGraph) TryGetLocalMatrix(entity EntityID) (mathx.Mat4, bool) {
	slot, ok := g.slotOf(entity)
	if !ok || g.localTransformRef[slot] == nil {
		return mathx.Mat4{}, false
	}
	local := g.localTransformRef[slot].LocalTRS()
	return mathx.TRS(local.Position, local.Rotation, local.Scale), true
}

// collectSubtree appends slot and every descendant (DFS via first_child/
// next_sibling) to workList, using dfsStack as scratch.
func (g *EntityGraph) collectSubtree(root int32) {
	stack := g.dfsStack[:0]
	stack = append(stack, root)
	for len(stack) > 0 {
		n := len(stack) - 1
		slot := stack[n]
		stack = stack[:n]
		g.workList = append(g.workList, slot)
		child := g.firstChildID[slot]
		for child != -1 {
			stack = append(stack, child)
			child = g.nextSiblingID[child]
		}
	}
	g.dfsStack = stack[:0]
}

// UpdateTransforms recomputes world transforms for every dirty subtree,
// parents before children, per §4.7's three-step algorithm.
func (g *EntityGraph) UpdateTransforms() {
	g.workList = g.workList[:0]
	g.dirtyBits.ForEachSet(func(slot int) {
		parent := g.parentID[slot]
		if parent != -1 && g.dirtyBits.GetBit(int(parent)) {
			return
		}
		g.collectSubtree(int32(slot))
	})

	sort.SliceStable(g.workList, func(i, j int) bool {
		return g.depth[g.workList[i]] < g.depth[g.workList[j]]
	})

	for _, slot := range g.workList {
		provider := g.localTransformRef[slot]
		var local TRS
		if provider != nil {
			local = provider.LocalTRS()
		} else {
			local = IdentityTRS
		}

		parent := g.parentID[slot]
		var world TRS
		if parent != -1 {
			pw := g.worldTransform[parent]
			world = TRS{
				Scale:    pw.Scale.Mul(local.Scale),
				Rotation: pw.Rotation.Mul(local.Rotation),
				Position: pw.Position.Add(pw.Rotation.Rotate(local.Position.Mul(pw.Scale))),
			}
		} else {
			world = local
		}

		g.worldTransform[slot] = world
		g.worldMatrix[slot] = mathx.TRS(world.Position, world.Rotation, world.Scale)
		g.dirtyBits.ClearBit(int(slot))
	}
	g.workList = g.workList[:0]
}

// FreeSlot detaches slot from its parent's sibling list, orphans its
// children (they become roots, not recursively freed), and clears the slot.
// Freeing an already-free slot is a no-op.
func (g *EntityGraph) FreeSlot(entity EntityID) {
	slot, ok := g.slotOf(entity)
	if !ok {
		return
	}
	g.removeFromSiblingList(int32(slot))

	child := g.firstChildID[slot]
	for child != -1 {
		next := g.nextSiblingID[child]
		g.parentID[child] = -1
		g.prevSiblingID[child] = -1
		g.nextSiblingID[child] = -1
		g.depth[child] = 0
		child = next
	}
	g.firstChildID[slot] = -1
	g.parentID[slot] = -1

	g.allocatedBits.ClearBit(slot)
	g.dirtyBits.ClearBit(slot)
	g.entityRef[slot] = nil
	g.localTransformRef[slot] = nil
}

// DestroyEntity frees e's components through the graph's ComponentSystem and
// then frees its graph slot.
func (g *EntityGraph) DestroyEntity(e *GameEntity) {
	e.Destroy(g.cs)
	g.FreeSlot(e.id)
}

// DirtyCount reports the size of the current dirty set, for metrics.
func (g *EntityGraph) DirtyCount() int { return g.dirtyBits.Popcount() }

// EntityCount reports the number of currently allocated slots, for metrics.
func (g *EntityGraph) EntityCount() int { return g.allocatedBits.Popcount() }
