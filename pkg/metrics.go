package pkg

// metrics.go is a thin abstraction over Prometheus: when the user passes a
// *prometheus.Registry via WithMetrics, labeled metrics are created and
// exposed through it; otherwise a no-op sink is used and the hot path pays
// nothing for metric updates. Counters (pkg/counters.go) remain the source
// of truth either way — this file only mirrors them into Prometheus.
//
// ┌──────────────────────────────────┐
// │ Metric                  │ Type  │
// ├──────────────────────────┼───────┤
// │ thunk_cache_hits_total    │ Ctr  │
// │ thunk_cache_misses_total  │ Ctr  │
// │ thunk_cache_stale_total   │ Ctr  │
// │ thunk_cache_impure_total  │ Ctr  │
// │ thunk_cache_lazy_total    │ Ctr  │
// │ expr_cache_entries        │ Gge  │
// └──────────────────────────────────┘
//
// © 2025 evalhash authors. MIT License.

import "github.com/prometheus/client_golang/prometheus"

// metricsSink abstracts away the concrete backend (Prometheus vs. noop).
type metricsSink interface {
	incHit()
	incMiss()
	incStaleHit()
	incImpureSkip()
	incLazySkip()
	setExprCacheEntries(n int)
}

type noopMetrics struct{}

func (noopMetrics) incHit()                    {}
func (noopMetrics) incMiss()                   {}
func (noopMetrics) incStaleHit()                {}
func (noopMetrics) incImpureSkip()              {}
func (noopMetrics) incLazySkip()                {}
func (noopMetrics) setExprCacheEntries(int)     {}

type promMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	staleHits   prometheus.Counter
	impureSkips prometheus.Counter
	lazySkips   prometheus.Counter
	exprEntries prometheus.Gauge
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	pm := &promMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalhash", Name: "thunk_cache_hits_total",
			Help: "Number of thunk-cache hits honored (fresh GC cycle).",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalhash", Name: "thunk_cache_misses_total",
			Help: "Number of thunk-cache misses that resulted in a fresh insert.",
		}),
		staleHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalhash", Name: "thunk_cache_stale_total",
			Help: "Number of lookups that found an entry from a superseded GC cycle.",
		}),
		impureSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalhash", Name: "thunk_cache_impure_total",
			Help: "Number of forcings skipped from caching because an impurity was observed.",
		}),
		lazySkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evalhash", Name: "thunk_cache_lazy_total",
			Help: "Number of forcings skipped from caching because the result was shallow-uncacheable.",
		}),
		exprEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "evalhash", Name: "expr_cache_entries",
			Help: "Current number of entries in the pointer-keyed expression hash cache.",
		}),
	}
	reg.MustRegister(pm.hits, pm.misses, pm.staleHits, pm.impureSkips, pm.lazySkips, pm.exprEntries)
	return pm
}

func (m *promMetrics) incHit()        { m.hits.Inc() }
func (m *promMetrics) incMiss()       { m.misses.Inc() }
func (m *promMetrics) incStaleHit()   { m.staleHits.Inc() }
func (m *promMetrics) incImpureSkip() { m.impureSkips.Inc() }
func (m *promMetrics) incLazySkip()   { m.lazySkips.Inc() }
func (m *promMetrics) setExprCacheEntries(n int) { m.exprEntries.Set(float64(n)) }

// newMetricsSink decides which implementation to use.
func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
