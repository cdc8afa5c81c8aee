package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelgames/ecsforge/internal/core/ecs"
	"github.com/kestrelgames/ecsforge/internal/mathx"
)

func TestNewTransformComponent_DefaultsToIdentity(t *testing.T) {
	tr := NewTransformComponent()
	assert.Equal(t, mathx.Vec3Zero, tr.Position)
	assert.Equal(t, mathx.QuatIdentity, tr.Rotation)
	assert.Equal(t, mathx.Vec3One, tr.Scale)
}

func TestTransformComponent_LocalTRSReflectsFields(t *testing.T) {
	tr := NewTransformComponent()
	tr.Position = mathx.Vec3{X: 1, Y: 2, Z: 3}

	local := tr.LocalTRS()
	assert.Equal(t, tr.Position, local.Position)
	assert.Equal(t, tr.Rotation, local.Rotation)
	assert.Equal(t, tr.Scale, local.Scale)
}

func TestTransformComponent_MarkDirtyReachesOwningGraph(t *testing.T) {
	cs := ecs.NewComponentSystem(4)
	graph := ecs.NewEntityGraph(9, 4, cs)

	e := graph.CreateEntity()
	tr, ok := ecs.TryCreateComponent[TransformComponent](e, cs)
	require.True(t, ok)
	graph.TryRegisterEntity(e)

	graph.UpdateTransforms()
	require.Equal(t, 0, graph.DirtyCount())

	tr.Position = mathx.Vec3{X: 5}
	tr.MarkDirty()

	assert.Equal(t, 1, graph.DirtyCount())
}
