package storage

import (
	"unsafe"

	"github.com/kestrelgames/ecsforge/internal/core/ecs/bitset"
)

// growthBlock is the number of dense slots a Registry grows by at a time —
// one bitset.Array block's worth, so active_bits growth and dense-array
// growth stay in lock-step.
const growthBlock = bitset.BitsPerBlock

// Updatable is implemented by component types that participate in the
// per-frame update dispatch (§6, "Update dispatcher"). Types that don't
// implement it are still allocated and iterated normally; they are simply
// never added to a Registry's updatable list.
type Updatable interface {
	OnUpdate(dt float64)
	OnFixedUpdate(dt float64)
}

// Registry is the dense per-type component store: a SlabAllocator-backed pool
// plus a dense array of live pointers tracked by an active bitset, giving
// live-only iteration proportional to active_count rather than capacity.
type Registry[T any] struct {
	alloc       *Allocator
	components  []*T
	activeBits  *bitset.Array
	activeCount int
	updatable   []*T
	growths     int64
}

// NewRegistry creates an empty registry. slabCapacity <= 0 uses DefaultSlabCapacity.
func NewRegistry[T any](slabCapacity int) *Registry[T] {
	return &Registry[T]{
		alloc:      NewAllocator(slabCapacity),
		activeBits: bitset.NewArray(),
	}
}

// Allocate constructs a new T, reusing the first clear slot in active_bits,
// growing the dense array by one 256-slot block when no slot is free.
func (r *Registry[T]) Allocate() *T {
	slot := r.activeBits.FindFirstClear()
	if slot == -1 || slot >= len(r.components) {
		slot = len(r.components)
		r.growTo(len(r.components) + growthBlock)
	}

	var zero T
	ptr := (*T)(r.alloc.AllocTyped(unsafe.Sizeof(zero), unsafe.Alignof(zero)))
	if ptr != nil {
		*ptr = zero
	}

	r.components[slot] = ptr
	r.activeBits.SetBit(slot)
	r.activeCount++

	if _, ok := any(ptr).(Updatable); ok {
		r.updatable = append(r.updatable, ptr)
	}
	return ptr
}

func (r *Registry[T]) growTo(n int) {
	if n <= len(r.components) {
		return
	}
	r.growths++
	grown := make([]*T, n)
	copy(grown, r.components)
	r.components = grown
}

// Growths returns how many times the dense array has grown by a 256-slot
// block, for metrics.
func (r *Registry[T]) Growths() int64 { return r.growths }

// AllocatorGrowths returns how many times the underlying SlabAllocator has
// appended a new slab, for metrics.
func (r *Registry[T]) AllocatorGrowths() int64 { return r.alloc.Growths() }

// Free locates the slot holding ptr by scanning active_bits and releases it.
// An unknown pointer is a no-op, making Free idempotent.
func (r *Registry[T]) Free(ptr *T) {
	if ptr == nil {
		return
	}
	found := -1
	r.activeBits.ForEachSet(func(slot int) {
		if found == -1 && r.components[slot] == ptr {
			found = slot
		}
	})
	if found == -1 {
		return
	}

	r.activeBits.ClearBit(found)
	r.components[found] = nil
	r.activeCount--
	r.removeFromUpdatable(ptr)
	r.alloc.Free(unsafe.Pointer(ptr))
}

func (r *Registry[T]) removeFromUpdatable(ptr *T) {
	for i, u := range r.updatable {
		if u == ptr {
			r.updatable = append(r.updatable[:i], r.updatable[i+1:]...)
			return
		}
	}
}

// ActiveCount returns the number of live components, always equal to
// popcount(active_bits).
func (r *Registry[T]) ActiveCount() int { return r.activeCount }

// ForEach visits every live component in ascending slot order.
func (r *Registry[T]) ForEach(fn func(*T)) {
	r.activeBits.ForEachSet(func(slot int) {
		fn(r.components[slot])
	})
}

// UpdateAll invokes OnUpdate on every live Updatable instance, in registration order.
func (r *Registry[T]) UpdateAll(dt float64) {
	for _, u := range r.updatable {
		any(u).(Updatable).OnUpdate(dt)
	}
}

// FixedUpdateAll invokes OnFixedUpdate on every live Updatable instance, in registration order.
func (r *Registry[T]) FixedUpdateAll(dt float64) {
	for _, u := range r.updatable {
		any(u).(Updatable).OnFixedUpdate(dt)
	}
}

// Dispose releases all underlying slab memory. The registry must not be used afterward.
func (r *Registry[T]) Dispose() {
	r.alloc.Dispose()
	r.components = nil
	r.activeBits = bitset.NewArray()
	r.activeCount = 0
	r.updatable = nil
}
