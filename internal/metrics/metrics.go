package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service collectors on a private prometheus registry
// so tests can build as many as they like.
type Registry struct {
	registry *prometheus.Registry

	LedgerOperations *prometheus.CounterVec
	LedgerConflicts  *prometheus.CounterVec
	StockItems       prometheus.Gauge
	StockUnits       prometheus.Gauge
	LowStockItems    prometheus.Gauge
}

// NewRegistry creates and registers all collectors.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		LedgerOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_ledger_operations_total",
				Help: "Inventory ledger operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		LedgerConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sweetshop_ledger_cas_conflicts_total",
				Help: "Version conflicts seen by the ledger before retrying",
			},
			[]string{"op"},
		),
		StockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sweetshop_stock_items",
			Help: "Number of sweets in the catalog",
		}),
		StockUnits: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sweetshop_stock_units",
			Help: "Total units on hand across all sweets",
		}),
		LowStockItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sweetshop_low_stock_items",
			Help: "Sweets whose quantity is below the low-stock threshold",
		}),
	}

	r.registry.MustRegister(
		r.LedgerOperations,
		r.LedgerConflicts,
		r.StockItems,
		r.StockUnits,
		r.LowStockItems,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer is used by tests to read collected values.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
