// Package ecs provides the core entity-component-system runtime: bitfield
// set-membership, slab-backed component storage, and a slot-based entity
// graph that propagates world-space transforms from dirty-flag tracking.
package ecs

import "time"

// Priority governs the order in which component types are assigned their
// internal_type_id (ascending) and, for Updatable components, the order
// registries are visited during the update stage. Lower values execute, and
// are assigned ids, first.
type Priority int

const (
	// PriorityTransform is the sentinel below every other priority so
	// Transform always lands on internal_type_id 0 (§4.5, §6).
	PriorityTransform Priority = -1

	PriorityLowest  Priority = 0
	PriorityLow     Priority = 25
	PriorityNormal  Priority = 50
	PriorityHigh    Priority = 75
	PriorityHighest Priority = 100
)

// WorldConfig is the one programmatic configuration surface (§6: no
// environment variables, no files, no ports). An embedder builds this struct
// directly; there is no parser.
type WorldConfig struct {
	MaxGraphs       int  // ceiling on concurrently live EntityGraphs, <= MaxGraphs (4096); NewWorld does not read it
	GraphCapacity   int  // initial slot capacity reserved for graph 0
	SlabCapacity    int  // slots per slab appended by each ComponentRegistry's allocator
	EnableMetrics   bool // NewWorld does not read it; an embedder builds a Collector with NewCollector
	EnableDebugLogs bool // not read anywhere in the core
}

// DefaultWorldConfig mirrors sane defaults for a small-to-medium scene.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		MaxGraphs:     MaxGraphs,
		GraphCapacity: 256,
		SlabCapacity:  64,
		EnableMetrics: true,
	}
}

// PerformanceMetrics is a point-in-time snapshot of the runtime's scale,
// copied into live Prometheus gauges by metrics.go's Collector on each
// Collect call.
type PerformanceMetrics struct {
	EntityCount       int
	ComponentCounts   map[int]int // internal_type_id -> active_count
	DirtySetSize      int
	RegistryGrowths   int64
	SlabGrowths       int64
	Timestamp         time.Time
}
