package ecs

// MaxComponents is the size of a GameEntity's slot-mapping table: at most
// this many distinct component types may ever be attached to one entity.
const MaxComponents = 255

// Component is the trait every component type satisfies: a fixed, small,
// compile-time type id and the owning entity's stable global_id. Types embed
// Base to get the global_id half for free; the type id half still requires a
// DeclareComponentType call in the concrete type's init().
type Component interface {
	EntityGlobalID() uint32
	setEntityGlobalID(uint32)
}

// Base is embedded by every concrete component type to satisfy Component.
// It carries nothing but the owning entity's global_id; components never
// hold a direct entity pointer (§9, breaking the component<->entity cycle).
type Base struct {
	entityGlobalID uint32
}

func (b *Base) EntityGlobalID() uint32    { return b.entityGlobalID }
func (b *Base) setEntityGlobalID(id uint32) { b.entityGlobalID = id }

// GetEntityID resolves a component's owning EntityID by looking up its
// global_id in the process-wide registry. Returns InvalidEntityID if the
// entity has since been destroyed.
func (b *Base) GetEntityID() EntityID {
	if e := LookupEntity(b.entityGlobalID); e != nil {
		return e.id
	}
	return InvalidEntityID
}

// Starter, Enabler, Disabler and the storage.Updatable pair
// (OnUpdate/OnFixedUpdate) are the optional lifecycle hooks from §6; a
// component implements whichever subset applies. Dispatch sites use a type
// assertion to discover which hooks a concrete type supports.
type Starter interface{ OnStart() }
type Enabler interface{ OnEnable() }
type Disabler interface{ OnDisable() }
