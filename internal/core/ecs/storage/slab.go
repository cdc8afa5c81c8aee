// Package storage provides the slab allocator and per-type component registry
// that back every component type's storage: fixed-size slots, O(1) alloc/free
// via a bitset.Array free-list, and dense live-only iteration.
package storage

import (
	"unsafe"

	"github.com/kestrelgames/ecsforge/internal/core/ecs/bitset"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/logx"
)

// DefaultSlabCapacity is the number of object slots a freshly appended slab holds.
const DefaultSlabCapacity = 64

// SlabViolation is the panic value raised by Allocator's fatal assertions:
// double free, free of an unknown pointer, or an AllocTyped request that
// exceeds the layout latched by the first call.
type SlabViolation struct {
	Reason string
}

func (s SlabViolation) Error() string { return "slab violation: " + s.Reason }

// slab is a contiguous buffer of same-size, same-alignment object slots plus
// the raw (unaligned) allocation it was carved from, mirroring a real malloc +
// manual alignment: raw is the allocation retained for release, memory is raw
// rounded up to the latched alignment.
type slab struct {
	raw      []byte
	memory   unsafe.Pointer
	capacity int
	next     *slab
}

func newSlab(capacity int, objSize, align uintptr) *slab {
	if align < 1 {
		align = 1
	}
	rawLen := uintptr(capacity)*objSize + align
	raw := make([]byte, rawLen)
	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + align - 1) &^ (align - 1)
	offset := aligned - base
	return &slab{
		raw:      raw,
		memory:   unsafe.Pointer(&raw[offset]),
		capacity: capacity,
	}
}

func (s *slab) slotPointer(slot int, objSize uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(s.memory) + uintptr(slot)*objSize)
}

func (s *slab) contains(ptr unsafe.Pointer, objSize uintptr) (slot int, ok bool) {
	start := uintptr(s.memory)
	end := start + uintptr(s.capacity)*objSize
	p := uintptr(ptr)
	if p < start || p >= end {
		return 0, false
	}
	return int((p - start) / objSize), true
}

// Allocator is a fixed-size object pool organised in slabs, identical in
// layout policy to SlabAllocator<T> (spec §4.3): the first allocation latches
// object size and alignment, free slots are tracked by a bitset.Array where a
// set bit means free, and slabs are never individually released — only
// Dispose() drops them all.
type Allocator struct {
	slabs        []*slab // insertion order, oldest first
	freeBits     *bitset.Array
	totalCap     int
	objSize      uintptr
	align        uintptr
	latched      bool
	slabCapacity int
	growths      int64
}

// NewAllocator returns an Allocator that appends slabCapacity slots per growth.
// slabCapacity <= 0 uses DefaultSlabCapacity.
func NewAllocator(slabCapacity int) *Allocator {
	if slabCapacity <= 0 {
		slabCapacity = DefaultSlabCapacity
	}
	return &Allocator{
		freeBits:     bitset.NewArray(),
		slabCapacity: slabCapacity,
	}
}

// AllocTyped returns a slot sized and aligned for size/align. A slot from a
// freshly appended slab is zeroed; a reused slot keeps whatever its previous
// occupant left there (Registry.Allocate zeroes it before use).
// The first call latches the layout; later calls must not exceed it.
// size == 0 returns a nil sentinel (zero-sized types are permitted); free(nil)
// is a no-op.
func (a *Allocator) AllocTyped(size, align uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	if !a.latched {
		a.objSize, a.align, a.latched = size, align, true
	} else if size > a.objSize || align > a.align {
		logx.L().Errorw("slab layout violation",
			"latched_size", a.objSize, "latched_align", a.align,
			"requested_size", size, "requested_align", align)
		panic(SlabViolation{Reason: "requested size/align exceeds the layout latched by the first AllocTyped call"})
	}

	slot := a.freeBits.FindFirstSet()
	if slot == -1 {
		a.growOneSlab()
		slot = a.freeBits.FindFirstSet()
	}
	a.freeBits.ClearBit(slot)

	s := a.slabs[slot/a.slabCapacity]
	return s.slotPointer(slot%a.slabCapacity, a.objSize)
}

// Free returns ptr's slot to the free-list. A nil pointer is a no-op.
// An unknown pointer, or freeing an already-free slot, is a fatal assertion
// (catches double-free).
func (a *Allocator) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	// Walk newest-to-oldest: recently allocated slabs are the likelier owner
	// of a pointer being freed soon after allocation.
	for si := len(a.slabs) - 1; si >= 0; si-- {
		s := a.slabs[si]
		localSlot, ok := s.contains(ptr, a.objSize)
		if !ok {
			continue
		}
		globalSlot := si*a.slabCapacity + localSlot
		if a.freeBits.GetBit(globalSlot) {
			logx.L().Errorw("double free detected", "slot", globalSlot)
			panic(SlabViolation{Reason: "double free"})
		}
		a.freeBits.SetBit(globalSlot)
		return
	}
	logx.L().Errorw("free of unknown pointer")
	panic(SlabViolation{Reason: "unknown pointer"})
}

// Dispose releases every slab. The allocator must not be used afterward.
func (a *Allocator) Dispose() {
	a.slabs = nil
	a.freeBits = bitset.NewArray()
	a.totalCap = 0
	a.latched = false
}

// Capacity returns the total number of slots across all slabs.
func (a *Allocator) Capacity() int { return a.totalCap }

// Growths returns the number of times a new slab has been appended, for metrics.
func (a *Allocator) Growths() int64 { return a.growths }

func (a *Allocator) growOneSlab() {
	a.growths++
	s := newSlab(a.slabCapacity, a.objSize, a.align)
	if n := len(a.slabs); n > 0 {
		a.slabs[n-1].next = s
	}
	a.slabs = append(a.slabs, s)
	base := a.totalCap
	a.totalCap += a.slabCapacity
	for i := 0; i < a.slabCapacity; i++ {
		a.freeBits.SetBit(base + i)
	}
}
