// Package metrics exports paging cache engine events to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	pagingcache "github.com/goliatone/go-paging-cache/pagingcache"
)

var _ pagingcache.Metrics = (*Prometheus)(nil)

// Prometheus implements pagingcache.Metrics. All methods are nil-safe.
type Prometheus struct {
	// LoadsTotal counts remote loads issued.
	LoadsTotal prometheus.Counter

	// LoadItemsTotal sums the limits of issued loads.
	LoadItemsTotal prometheus.Counter

	LoadFailuresTotal prometheus.Counter

	// StaleTotal counts load responses dropped after a refresh or cancel.
	StaleTotal prometheus.Counter

	// Blocked is the number of requests waiting for data.
	Blocked prometheus.Gauge

	// BootstrapsTotal counts snapshot reads by result ("hit" or "miss").
	BootstrapsTotal *prometheus.CounterVec

	RefreshesTotal prometheus.Counter
	CancelsTotal   prometheus.Counter
}

// NewPrometheus creates the collectors under namespace and registers them
// with reg. A nil reg leaves them unregistered. Collectors already present
// in reg are reused, so several caches can share one registry.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paging_cache",
			Name:      name,
			Help:      help,
		})
	}

	m := &Prometheus{
		LoadsTotal:        counter("loads_total", "Total number of remote loads issued"),
		LoadItemsTotal:    counter("load_items_total", "Total number of items requested from the remote source"),
		LoadFailuresTotal: counter("load_failures_total", "Total number of failed remote loads"),
		StaleTotal:        counter("stale_responses_total", "Total number of load responses dropped as stale"),
		Blocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "paging_cache",
			Name:      "blocked_requests",
			Help:      "Number of range requests waiting for data",
		}),
		BootstrapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "paging_cache",
			Name:      "bootstraps_total",
			Help:      "Total number of snapshot reads by result",
		}, []string{"result"}),
		RefreshesTotal: counter("refreshes_total", "Total number of completed refreshes"),
		CancelsTotal:   counter("cancels_total", "Total number of cancel calls"),
	}

	if reg != nil {
		m.LoadsTotal = registerOrReuse(reg, m.LoadsTotal).(prometheus.Counter)
		m.LoadItemsTotal = registerOrReuse(reg, m.LoadItemsTotal).(prometheus.Counter)
		m.LoadFailuresTotal = registerOrReuse(reg, m.LoadFailuresTotal).(prometheus.Counter)
		m.StaleTotal = registerOrReuse(reg, m.StaleTotal).(prometheus.Counter)
		m.Blocked = registerOrReuse(reg, m.Blocked).(prometheus.Gauge)
		m.BootstrapsTotal = registerOrReuse(reg, m.BootstrapsTotal).(*prometheus.CounterVec)
		m.RefreshesTotal = registerOrReuse(reg, m.RefreshesTotal).(prometheus.Counter)
		m.CancelsTotal = registerOrReuse(reg, m.CancelsTotal).(prometheus.Counter)
	}

	return m
}

// registerOrReuse registers c, returning the existing collector when an
// equal one is already registered.
func registerOrReuse(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (m *Prometheus) LoadIssued(limit int) {
	if m == nil {
		return
	}
	m.LoadsTotal.Inc()
	m.LoadItemsTotal.Add(float64(limit))
}

func (m *Prometheus) LoadFailed() {
	if m == nil {
		return
	}
	m.LoadFailuresTotal.Inc()
}

func (m *Prometheus) StaleDropped() {
	if m == nil {
		return
	}
	m.StaleTotal.Inc()
}

func (m *Prometheus) BlockedRequests(n int) {
	if m == nil {
		return
	}
	m.Blocked.Set(float64(n))
}

func (m *Prometheus) Bootstrap(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.BootstrapsTotal.WithLabelValues(result).Inc()
}

func (m *Prometheus) Refreshed() {
	if m == nil {
		return
	}
	m.RefreshesTotal.Inc()
}

func (m *Prometheus) Canceled() {
	if m == nil {
		return
	}
	m.CancelsTotal.Inc()
}
