package ecs

import (
	"time"

	"github.com/kestrelgames/ecsforge/internal/core/ecs/logx"
)

// World is a thin facade wiring one process-wide ComponentSystem to however
// many EntityGraphs an embedder wants (§2 data flow: entity creation ->
// graph slot -> component attach -> mark dirty -> update_transforms).
// Embedders needing multiple graphs construct additional EntityGraph values
// directly with NewEntityGraph(id, cap, world.System()); World itself only
// owns graph 0, the reserved "process-wide persistent entities" graph (§3).
type World struct {
	config WorldConfig
	system *ComponentSystem
	root   *EntityGraph
}

// NewWorld constructs the ComponentSystem and graph 0 per cfg.
func NewWorld(cfg WorldConfig) *World {
	w := &World{
		config: cfg,
		system: NewComponentSystem(cfg.SlabCapacity),
	}
	w.root = NewEntityGraph(0, cfg.GraphCapacity, w.system)
	return w
}

// System returns the process-wide ComponentSystem, for constructing
// additional EntityGraphs or calling TryCreateComponent/TryRemoveComponent.
func (w *World) System() *ComponentSystem { return w.system }

// Root returns graph 0, the reserved persistent-entity graph.
func (w *World) Root() *EntityGraph { return w.root }

// Update runs fixed_update_all and then update_all across every registry of
// the ComponentSystem (§5 stage order: FixedUpdate before Update), then
// update_transforms over graph 0.
func (w *World) Update(dt float64) {
	w.system.FixedUpdateAll(dt)
	w.system.UpdateAll(dt)
	w.root.UpdateTransforms()
}

// Metrics snapshots the current scale of the world for the Prometheus
// collectors in metrics.go.
func (w *World) Metrics() PerformanceMetrics {
	registryGrowths, slabGrowths := w.system.GrowthCounts()
	return PerformanceMetrics{
		EntityCount:     w.root.EntityCount(),
		ComponentCounts: w.system.ActiveComponentCounts(),
		DirtySetSize:    w.root.DirtyCount(),
		RegistryGrowths: registryGrowths,
		SlabGrowths:     slabGrowths,
		Timestamp:       time.Now(),
	}
}

// Shutdown disposes the ComponentSystem. After this call, GetRegistry and
// TryCreateComponent against this world's ComponentSystem are fatal.
func (w *World) Shutdown() {
	logx.L().Infow("world shutdown", "entity_count", w.root.EntityCount())
	w.system.Shutdown()
}
