// control/metrics.go
// Author: lennyferrell
//
// Runtime metrics collector for system-level monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"

	"github.com/lennyferrell/http4s/pool"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// RecordPool publishes a pool stats snapshot into the registry under the
// conn_pool prefix.
func (mr *MetricsRegistry) RecordPool(st pool.Stats) {
	mr.mu.Lock()
	mr.metrics["conn_pool.max_total"] = st.MaxTotal
	mr.metrics["conn_pool.allocated"] = st.Allocated
	mr.metrics["conn_pool.idle"] = st.Idle
	mr.metrics["conn_pool.waiting"] = st.Waiting
	mr.metrics["conn_pool.borrows"] = st.Borrows
	mr.metrics["conn_pool.reuses"] = st.Reuses
	mr.metrics["conn_pool.evictions"] = st.Evictions
	mr.metrics["conn_pool.failures"] = st.Failures
	mr.updated = time.Now()
	mr.mu.Unlock()
}
