// Package metrics exposes Prometheus metrics for the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/caduceon/acteledger/internal/registry"
)

// Collector holds the ledger's Prometheus metrics. It implements
// registry.Observer, so plugging it in is one option at construction.
type Collector struct {
	OpsTotal *prometheus.CounterVec

	ActsTotal         prometheus.Gauge
	OverridesTotal    prometheus.Gauge
	VersionsTotal     prometheus.Gauge
	AuditEntriesTotal prometheus.Gauge

	ChainFaultsTotal prometheus.Counter
}

// New creates a Collector and registers its metrics with reg.
// Callers that serve /metrics pass the registry they hand to
// promhttp; tests pass a fresh prometheus.NewRegistry.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{}

	c.OpsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "acteledger_operations_total",
			Help: "Ledger operations by name and outcome code (ok on success).",
		},
		[]string{"op", "outcome"},
	)

	c.ActsTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "acteledger_acts_total",
			Help: "Number of acts in the ledger.",
		},
	)
	c.OverridesTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "acteledger_overrides_total",
			Help: "Number of overrides in the ledger.",
		},
	)
	c.VersionsTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "acteledger_versions_total",
			Help: "Number of registered reference versions.",
		},
	)
	c.AuditEntriesTotal = promauto.With(reg).NewGauge(
		prometheus.GaugeOpts{
			Name: "acteledger_audit_entries_total",
			Help: "Number of audit entries across all trails.",
		},
	)

	c.ChainFaultsTotal = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "acteledger_chain_faults_total",
			Help: "Chain faults found by verification runs.",
		},
	)

	return c
}

// Observe records one operation outcome. An empty code means success.
func (c *Collector) Observe(op string, code registry.OpErrorCode) {
	outcome := "ok"
	if code != "" {
		outcome = string(code)
	}
	c.OpsTotal.WithLabelValues(op, outcome).Inc()
}

// SetTotals refreshes the ledger-size gauges from a totals snapshot.
func (c *Collector) SetTotals(t registry.Totals) {
	c.ActsTotal.Set(float64(t.Acts))
	c.OverridesTotal.Set(float64(t.Overrides))
	c.VersionsTotal.Set(float64(t.Versions))
	c.AuditEntriesTotal.Set(float64(t.AuditEntries))
}

// RecordChainFaults counts faults reported by a verification run.
func (c *Collector) RecordChainFaults(n int) {
	c.ChainFaultsTotal.Add(float64(n))
}
