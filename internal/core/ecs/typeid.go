package ecs

import (
	"reflect"
	"sort"
)

// typeRegistration records a component type's declared execution priority
// before the dense internal_type_id namespace is frozen. Declaration happens
// in each component package's init(), which Go guarantees runs before any
// other package code executes — the closest practical analogue, without
// codegen, to the compile-time registration trick described for this sort
// of per-type id assignment.
type typeRegistration struct {
	rtype    reflect.Type
	priority Priority
	id       int
}

var (
	typeRegistrations []*typeRegistration
	typeIDByType      map[reflect.Type]int
	typeIDsFrozen     bool
)

// DeclareComponentType registers T's execution priority. Must be called from
// an init() function, before any call to TypeID[T] or GetRegistry[T].
func DeclareComponentType[T any](priority Priority) {
	if typeIDsFrozen {
		panic(BitIndexViolation{Reason: "component type declared after type id table was frozen"})
	}
	rt := reflect.TypeOf((*T)(nil)).Elem()
	typeRegistrations = append(typeRegistrations, &typeRegistration{rtype: rt, priority: priority})
}

// freezeTypeIDs assigns dense ids 0..n-1 to every declared type, ascending by
// priority (stable, so equal-priority types keep declaration order). Transform
// declares PriorityTransform, below every other priority, so it lands on id 0.
func freezeTypeIDs() {
	if typeIDsFrozen {
		return
	}
	sort.SliceStable(typeRegistrations, func(i, j int) bool {
		return typeRegistrations[i].priority < typeRegistrations[j].priority
	})
	typeIDByType = make(map[reflect.Type]int, len(typeRegistrations))
	for i, reg := range typeRegistrations {
		reg.id = i
		typeIDByType[reg.rtype] = i
	}
	typeIDsFrozen = true
}

// TypeID returns T's internal_type_id, freezing the global type-id table on
// first call. Every component type must have called DeclareComponentType in
// an init() before this is reached.
func TypeID[T any]() int {
	if !typeIDsFrozen {
		freezeTypeIDs()
	}
	rt := reflect.TypeOf((*T)(nil)).Elem()
	id, ok := typeIDByType[rt]
	if !ok {
		panic(BitIndexViolation{Reason: "component type used without DeclareComponentType: " + rt.String()})
	}
	return id
}
