package ecs

import (
	"github.com/kestrelgames/ecsforge/internal/core/ecs/bitset"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/logx"
)

// EnableState is a GameEntity's three-way enable status (§3): an entity can
// be locally disabled, or disabled only because an ancestor is disabled.
type EnableState int

const (
	Enabled EnableState = iota
	DisabledLocal
	DisabledFromParent
)

// GameEntity composes a fixed-size type->slot mapping table, an active-type
// bitfield of the same cardinality, a dense component list, identity, and
// enable state (§4.6).
type GameEntity struct {
	id          EntityID
	slotMapping [MaxComponents]int // type_id -> 1-based index into components; 0 = never attached
	activeTypes *bitset.Array
	components  []Component
	enableState EnableState
}

// newGameEntity constructs an entity with a freshly minted global_id and
// registers it in the process-wide global_id -> entity map.
func newGameEntity() *GameEntity {
	e := &GameEntity{
		id:          EntityID(nextGlobalID()),
		activeTypes: bitset.NewArray(),
	}
	registerGlobal(e)
	return e
}

func (e *GameEntity) ID() EntityID        { return e.id }
func (e *GameEntity) EnableState() EnableState { return e.enableState }

func (e *GameEntity) SetEnableState(s EnableState) { e.enableState = s }

// HasComponentType reports whether T is currently attached.
func HasComponentType[T any](e *GameEntity) bool {
	return e.activeTypes.GetBit(TypeID[T]())
}

// TryCreateComponent allocates a new T through cs's registry and attaches it
// to e. Returns (nil, false) if T is already attached. Fatal if T's
// internal_type_id does not fit the MaxComponents-entry slot-mapping table
// (§7 CapacityExceeded); DeclareComponentType itself places no bound on how
// many types are declared, so this is the only place the limit is checked.
func TryCreateComponent[T any](e *GameEntity, cs *ComponentSystem) (*T, bool) {
	typeID := TypeID[T]()
	if typeID >= MaxComponents {
		logx.L().Fatalw("component type id exceeds MaxComponents", "type_id", typeID, "max", MaxComponents)
	}
	if e.activeTypes.GetBit(typeID) {
		return nil, false
	}

	reg := GetRegistry[T](cs)
	instance := reg.Allocate()
	comp := any(instance).(Component)
	comp.setEntityGlobalID(e.id.GlobalID())

	if e.slotMapping[typeID] == 0 {
		e.components = append(e.components, comp)
		e.slotMapping[typeID] = len(e.components)
	} else {
		e.components[e.slotMapping[typeID]-1] = comp
	}
	e.activeTypes.SetBit(typeID)

	if starter, ok := any(instance).(Starter); ok {
		starter.OnStart()
	}
	return instance, true
}

// TryGetComponent returns the attached T, or (nil, false) if not attached.
func TryGetComponent[T any](e *GameEntity) (*T, bool) {
	typeID := TypeID[T]()
	if !e.activeTypes.GetBit(typeID) {
		return nil, false
	}
	slot := e.slotMapping[typeID]
	if slot == 0 {
		return nil, false
	}
	ptr, ok := e.components[slot-1].(*T)
	return ptr, ok
}

// TryRemoveComponent detaches T, freeing it through cs, and returns whether
// it had been attached. The slot mapping is preserved for reuse on re-attach.
func TryRemoveComponent[T any](e *GameEntity, cs *ComponentSystem) bool {
	typeID := TypeID[T]()
	if !e.activeTypes.GetBit(typeID) {
		return false
	}
	slot := e.slotMapping[typeID] - 1
	c := e.components[slot]
	if d, ok := c.(Disabler); ok {
		d.OnDisable()
	}
	cs.FreeComponent(typeID, c)
	e.components[slot] = nil
	e.activeTypes.ClearBit(typeID)
	return true
}

// Components enumerates currently attached components in ascending type-id
// order, skipping freed slots.
func (e *GameEntity) Components() []Component {
	out := make([]Component, 0, e.activeTypes.Popcount())
	e.activeTypes.ForEachSet(func(typeID int) {
		if slot := e.slotMapping[typeID]; slot != 0 {
			if c := e.components[slot-1]; c != nil {
				out = append(out, c)
			}
		}
	})
	return out
}

// Destroy frees every attached component through cs, in ascending type-id
// order, calling OnDisable first on each one that implements Disabler, then
// unregisters the entity's global_id. If cs has already been
// shut down its registries have already freed everything, so destruction
// short-circuits to just the global_id cleanup (§4.6 "Lifetimes").
func (e *GameEntity) Destroy(cs *ComponentSystem) {
	if cs.shuttingDown {
		unregisterGlobal(e.id.GlobalID())
		return
	}
	e.activeTypes.ForEachSet(func(typeID int) {
		slot := e.slotMapping[typeID]
		if slot == 0 {
			return
		}
		if c := e.components[slot-1]; c != nil {
			if d, ok := c.(Disabler); ok {
				d.OnDisable()
			}
			cs.FreeComponent(typeID, c)
			e.components[slot-1] = nil
		}
	})
	e.activeTypes.ClearAll()
	unregisterGlobal(e.id.GlobalID())
}
