package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-paging-cache/internal/runloop"
	pagingcache "github.com/goliatone/go-paging-cache/pagingcache"
	"github.com/goliatone/go-paging-cache/pkg/testsupport"
)

func TestPrometheus_NilSafe(t *testing.T) {
	var m *Prometheus
	m.LoadIssued(3)
	m.LoadFailed()
	m.StaleDropped()
	m.BlockedRequests(2)
	m.Bootstrap(true)
	m.Refreshed()
	m.Canceled()
}

func TestPrometheus_Unregistered(t *testing.T) {
	m := NewPrometheus(nil, "test")
	m.LoadIssued(5)
	m.Bootstrap(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadsTotal))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.LoadItemsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BootstrapsTotal.WithLabelValues("miss")))
}

func TestPrometheus_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewPrometheus(reg, "app")
	b := NewPrometheus(reg, "app")

	a.Refreshed()
	b.Refreshed()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.RefreshesTotal))
	count, err := testutil.GatherAndCount(reg, "app_paging_cache_refreshes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheus_EngineEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheus(reg, "app")

	loop := runloop.NewManual()
	loader := testsupport.NewCountdownLoader(10)
	cfg := pagingcache.DefaultConfig()
	cfg.Lookahead = 2
	cfg.Scheduler = loop
	cfg.Metrics = m

	c, err := pagingcache.New[int](loader, cfg)
	require.NoError(t, err)
	defer c.Close()

	loader.Hold()
	require.NoError(t, c.GetRange(0, 2, pagingcache.RangeCallbacks[int]{}))
	loop.RunUntilIdle()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Blocked))

	c.Cancel()
	loader.Release()
	loop.RunUntilIdle()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadsTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.LoadItemsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CancelsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Blocked))

	loader.FailWith(testsupport.ErrScripted)
	require.NoError(t, c.GetRange(0, 2, pagingcache.RangeCallbacks[int]{}))
	loop.RunUntilIdle()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadFailuresTotal))
}
