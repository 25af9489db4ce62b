package control_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lennyferrell/http4s/control"
	"github.com/lennyferrell/http4s/pool"
)

func TestMetricsRegistryRecordPool(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.RecordPool(pool.Stats{MaxTotal: 4, Allocated: 2, Idle: 1, Borrows: 7})

	snap := mr.GetSnapshot()
	assert.Equal(t, 4, snap["conn_pool.max_total"])
	assert.Equal(t, 2, snap["conn_pool.allocated"])
	assert.Equal(t, 1, snap["conn_pool.idle"])
	assert.EqualValues(t, 7, snap["conn_pool.borrows"])
}

func TestMetricsRegistrySet(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.Set("custom", 42)
	assert.Equal(t, 42, mr.GetSnapshot()["custom"])
}

func TestPoolCollectorExportsStats(t *testing.T) {
	stats := pool.Stats{
		MaxTotal:  4,
		Allocated: 3,
		Idle:      1,
		Waiting:   2,
		Borrows:   10,
		Reuses:    5,
		Evictions: 1,
		Failures:  0,
	}
	c := control.NewPoolCollector(func() pool.Stats { return stats })

	assert.Equal(t, 8, testutil.CollectAndCount(c))

	expected := `
# HELP conn_pool_allocated Connections counted against the budget: idle, checked out, or in flight.
# TYPE conn_pool_allocated gauge
conn_pool_allocated 3
# HELP conn_pool_reuses_total Borrows satisfied from the idle queue.
# TYPE conn_pool_reuses_total counter
conn_pool_reuses_total 5
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"conn_pool_allocated", "conn_pool_reuses_total"))
}
