package ecs

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes PerformanceMetrics as live Prometheus gauges, wiring the
// teacher's stats-struct-as-telemetry intent (§2 FULL domain stack) to
// github.com/prometheus/client_golang rather than leaving PerformanceMetrics
// an inert struct nobody reads.
type Collector struct {
	world *World

	entityCount     prometheus.Gauge
	dirtySetSize    prometheus.Gauge
	componentCount  *prometheus.GaugeVec
	registryGrowths prometheus.Gauge
	slabGrowths     prometheus.Gauge
}

// NewCollector builds a Collector and registers it with reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry across multiple World instances.
func NewCollector(world *World, reg prometheus.Registerer) *Collector {
	c := &Collector{
		world: world,
		entityCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ecsforge",
			Name:      "entity_count",
			Help:      "Number of allocated entity-graph slots.",
		}),
		dirtySetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ecsforge",
			Name:      "dirty_set_size",
			Help:      "Number of entity-graph slots awaiting transform recomputation.",
		}),
		componentCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ecsforge",
			Name:      "component_active_count",
			Help:      "Active component instances per internal_type_id.",
		}, []string{"type_id"}),
		registryGrowths: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ecsforge",
			Name:      "registry_growths_total",
			Help:      "Cumulative number of times a ComponentRegistry grew its dense array by a 256-slot block.",
		}),
		slabGrowths: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ecsforge",
			Name:      "slab_growths_total",
			Help:      "Cumulative number of times a SlabAllocator appended a new slab.",
		}),
	}
	reg.MustRegister(c.entityCount, c.dirtySetSize, c.componentCount, c.registryGrowths, c.slabGrowths)
	return c
}

// Collect refreshes every gauge from the world's current PerformanceMetrics
// snapshot. Called once per Update tick by an embedder that enabled metrics.
func (c *Collector) Collect() {
	snap := c.world.Metrics()
	c.entityCount.Set(float64(snap.EntityCount))
	c.dirtySetSize.Set(float64(snap.DirtySetSize))
	c.registryGrowths.Set(float64(snap.RegistryGrowths))
	c.slabGrowths.Set(float64(snap.SlabGrowths))
	for typeID, count := range snap.ComponentCounts {
		c.componentCount.WithLabelValues(strconv.Itoa(typeID)).Set(float64(count))
	}
}
