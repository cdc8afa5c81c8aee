// Package components holds the concrete component types built into the
// runtime: Transform (the one every entity registered into a graph must
// carry) and ScriptComponent (a Lua-backed trait implementation).
package components

import (
	"github.com/kestrelgames/ecsforge/internal/core/ecs"
	"github.com/kestrelgames/ecsforge/internal/mathx"
)

func init() {
	ecs.DeclareComponentType[TransformComponent](ecs.PriorityTransform)
}

// TransformComponent is the value-type local TRS triple every entity
// registered into an EntityGraph carries (§6 "Transform component"). It
// never holds a parent pointer or child list itself — the graph's SoA
// columns own the hierarchy; this component only supplies the local TRS the
// graph composes against ancestors.
type TransformComponent struct {
	ecs.Base

	Position mathx.Vec3
	Rotation mathx.Quat
	Scale    mathx.Vec3
}

// NewTransformComponent returns an identity transform.
func NewTransformComponent() *TransformComponent {
	return &TransformComponent{
		Rotation: mathx.QuatIdentity,
		Scale:    mathx.Vec3One,
	}
}

// LocalTRS satisfies ecs.LocalTRSProvider.
func (t *TransformComponent) LocalTRS() ecs.TRS {
	return ecs.TRS{Position: t.Position, Rotation: t.Rotation, Scale: t.Scale}
}

// MarkDirty looks up the owning graph via the entity's global_id and flips
// its dirty bit, per §6. Call this after mutating Position/Rotation/Scale.
func (t *TransformComponent) MarkDirty() {
	ecs.MarkDirty(t.GetEntityID())
}
