package ecs

import (
	"github.com/kestrelgames/ecsforge/internal/core/ecs/logx"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/storage"
)

// registryHandle is the small capability interface every typedRegistry[T]
// satisfies, letting ComponentSystem dispatch shutdown/update/free uniformly
// across registries of different concrete component types (§9 "Dynamic
// dispatch").
type registryHandle interface {
	freeComponent(c Component)
	updateAll(dt float64)
	fixedUpdateAll(dt float64)
	activeCount() int
	growths() (registry int64, allocator int64)
	dispose()
}

type typedRegistry[T any] struct {
	reg *storage.Registry[T]
}

func (r *typedRegistry[T]) freeComponent(c Component) {
	if ptr, ok := c.(*T); ok {
		r.reg.Free(ptr)
	}
}
func (r *typedRegistry[T]) updateAll(dt float64)      { r.reg.UpdateAll(dt) }
func (r *typedRegistry[T]) fixedUpdateAll(dt float64) { r.reg.FixedUpdateAll(dt) }
func (r *typedRegistry[T]) activeCount() int          { return r.reg.ActiveCount() }
func (r *typedRegistry[T]) growths() (int64, int64)   { return r.reg.Growths(), r.reg.AllocatorGrowths() }
func (r *typedRegistry[T]) dispose()                  { r.reg.Dispose() }

// ComponentSystem is the process-wide table of per-type registries, keyed by
// internal_type_id (§4.5). Registries are constructed lazily on first access,
// in encounter order, which in practice equals ascending type id because
// type ids are frozen at first use and components are generally touched for
// the first time in declaration order.
type ComponentSystem struct {
	slabCapacity int
	registries   []registryHandle // index = internal_type_id; nil until first GetRegistry[T]
	shuttingDown bool
}

// NewComponentSystem constructs an empty table. slabCapacity configures every
// registry's underlying SlabAllocator; <= 0 uses storage.DefaultSlabCapacity.
func NewComponentSystem(slabCapacity int) *ComponentSystem {
	return &ComponentSystem{slabCapacity: slabCapacity}
}

// GetRegistry returns the process-wide registry for T, constructing it
// lazily. Must be a package-level function (not a ComponentSystem method):
// Go methods cannot carry their own type parameters.
func GetRegistry[T any](cs *ComponentSystem) *storage.Registry[T] {
	if cs.shuttingDown {
		logx.L().Fatalw("component system accessed after shutdown")
	}
	id := TypeID[T]()
	for len(cs.registries) <= id {
		cs.registries = append(cs.registries, nil)
	}
	if cs.registries[id] == nil {
		cs.registries[id] = &typedRegistry[T]{reg: storage.NewRegistry[T](cs.slabCapacity)}
	}
	return cs.registries[id].(*typedRegistry[T]).reg
}

// FreeComponent dispatches to the registry owning typeID, freeing c through
// its SlabAllocator. A typeID with no constructed registry is a no-op.
func (cs *ComponentSystem) FreeComponent(typeID int, c Component) {
	if typeID < 0 || typeID >= len(cs.registries) || cs.registries[typeID] == nil {
		return
	}
	cs.registries[typeID].freeComponent(c)
}

// Registries iterates only over constructed (non-nil) registries, in
// ascending type-id order.
func (cs *ComponentSystem) Registries() []registryHandle {
	out := make([]registryHandle, 0, len(cs.registries))
	for _, r := range cs.registries {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// UpdateAll invokes update_all across every registry in registries() order
// (§5: "in practice equals ascending component type id"). FixedUpdateAll does
// the same for fixed_update_all.
func (cs *ComponentSystem) UpdateAll(dt float64) {
	for _, r := range cs.Registries() {
		r.updateAll(dt)
	}
}

func (cs *ComponentSystem) FixedUpdateAll(dt float64) {
	for _, r := range cs.Registries() {
		r.fixedUpdateAll(dt)
	}
}

// ActiveComponentCounts returns active_count per type id, for metrics.
func (cs *ComponentSystem) ActiveComponentCounts() map[int]int {
	counts := make(map[int]int, len(cs.registries))
	for id, r := range cs.registries {
		if r != nil {
			counts[id] = r.activeCount()
		}
	}
	return counts
}

// GrowthCounts sums registry-growth and slab-growth events across every
// constructed registry, for PerformanceMetrics.
func (cs *ComponentSystem) GrowthCounts() (registryGrowths, slabGrowths int64) {
	for _, r := range cs.Registries() {
		rg, sg := r.growths()
		registryGrowths += rg
		slabGrowths += sg
	}
	return
}

// Shutdown disposes every registry (freeing all live components through
// their slab allocators) and marks the system so further access is fatal.
func (cs *ComponentSystem) Shutdown() {
	for _, r := range cs.Registries() {
		r.dispose()
	}
	cs.registries = nil
	cs.shuttingDown = true
}
