// control/collector.go
// Author: lennyferrell
//
// Prometheus bridge: a Collector that reads the pool's stats snapshot at
// scrape time, so no background publishing loop is needed.

package control

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lennyferrell/http4s/pool"
)

// PoolCollector exports pool statistics as prometheus metrics.
type PoolCollector struct {
	stats func() pool.Stats

	maxTotal  *prometheus.Desc
	allocated *prometheus.Desc
	idle      *prometheus.Desc
	waiting   *prometheus.Desc
	borrows   *prometheus.Desc
	reuses    *prometheus.Desc
	evictions *prometheus.Desc
	failures  *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector builds a collector around a stats source, typically
// (*pool.ConnPool).Stats.
func NewPoolCollector(stats func() pool.Stats) *PoolCollector {
	return &PoolCollector{
		stats: stats,
		maxTotal: prometheus.NewDesc("conn_pool_max_total",
			"Configured connection budget.", nil, nil),
		allocated: prometheus.NewDesc("conn_pool_allocated",
			"Connections counted against the budget: idle, checked out, or in flight.", nil, nil),
		idle: prometheus.NewDesc("conn_pool_idle",
			"Connections parked in the idle queue.", nil, nil),
		waiting: prometheus.NewDesc("conn_pool_waiting",
			"Borrows queued for a free slot.", nil, nil),
		borrows: prometheus.NewDesc("conn_pool_borrows_total",
			"Borrow operations attempted.", nil, nil),
		reuses: prometheus.NewDesc("conn_pool_reuses_total",
			"Borrows satisfied from the idle queue.", nil, nil),
		evictions: prometheus.NewDesc("conn_pool_evictions_total",
			"Connections evicted under pressure or by the idle reaper.", nil, nil),
		failures: prometheus.NewDesc("conn_pool_failures_total",
			"Establishment failures.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxTotal
	ch <- c.allocated
	ch <- c.idle
	ch <- c.waiting
	ch <- c.borrows
	ch <- c.reuses
	ch <- c.evictions
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	st := c.stats()
	ch <- prometheus.MustNewConstMetric(c.maxTotal, prometheus.GaugeValue, float64(st.MaxTotal))
	ch <- prometheus.MustNewConstMetric(c.allocated, prometheus.GaugeValue, float64(st.Allocated))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(st.Idle))
	ch <- prometheus.MustNewConstMetric(c.waiting, prometheus.GaugeValue, float64(st.Waiting))
	ch <- prometheus.MustNewConstMetric(c.borrows, prometheus.CounterValue, float64(st.Borrows))
	ch <- prometheus.MustNewConstMetric(c.reuses, prometheus.CounterValue, float64(st.Reuses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(st.Evictions))
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(st.Failures))
}
