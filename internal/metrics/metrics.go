package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersGenerated counts purchase orders created by the consolidation engine.
	OrdersGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distinta_orders_generated_total",
		Help: "Purchase orders created by order consolidation",
	})

	// OrderLinesGenerated counts lines created by the consolidation engine.
	OrderLinesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distinta_order_lines_generated_total",
		Help: "Order lines created by order consolidation",
	})

	// ComponentsSkipped counts components excluded from generated orders
	// because no supplier has priced them.
	ComponentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distinta_components_skipped_total",
		Help: "Components skipped during consolidation for lack of a supplier price",
	})

	// RollupCacheHits counts cost rollups served from the redis cache.
	RollupCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "distinta_rollup_cache_hits_total",
		Help: "Cost rollups served from cache",
	})
)
