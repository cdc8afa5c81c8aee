package main

import (
	"github.com/kestrelgames/ecsforge/internal/core/ecs"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/components"
	"github.com/kestrelgames/ecsforge/internal/core/ecs/logx"
	"github.com/kestrelgames/ecsforge/internal/mathx"
)

func spawn(g *ecs.EntityGraph, cs *ecs.ComponentSystem, pos mathx.Vec3) *ecs.GameEntity {
	e := g.CreateEntity()
	t, _ := ecs.TryCreateComponent[components.TransformComponent](e, cs)
	t.Position = pos
	g.TryRegisterEntity(e)
	return e
}

func main() {
	world := ecs.NewWorld(ecs.DefaultWorldConfig())
	defer world.Shutdown()

	graph := world.Root()
	cs := world.System()

	parent := spawn(graph, cs, mathx.Vec3{X: 1, Y: 0, Z: 0})
	child := spawn(graph, cs, mathx.Vec3{X: 0, Y: 1, Z: 0})
	graph.SetParent(child.ID(), parent.ID())

	script, _ := ecs.TryCreateComponent[components.ScriptComponent](child, cs)
	if err := script.Load("scripts/wander.lua"); err != nil {
		logx.L().Warnw("script load failed", "error", err)
	}

	for i := 0; i < 3; i++ {
		world.Update(1.0 / 60.0)
	}

	if m, ok := graph.TryGetWorldMatrix(child.ID()); ok {
		logx.L().Infow("child world matrix", "matrix", m)
	}

	snap := world.Metrics()
	logx.L().Infow("performance snapshot",
		"entity_count", snap.EntityCount,
		"dirty_set_size", snap.DirtySetSize,
		"registry_growths", snap.RegistryGrowths,
		"slab_growths", snap.SlabGrowths,
	)
}
