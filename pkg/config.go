package pkg

// config.go defines the internal configuration object and the set of
// functional options passed to New: a private config struct mutated only
// through Option closures, defaults filled in by defaultConfig(), validated
// by applyOptions().
//
// This cache's only invalidation rule is GC-cycle staleness (spec.md §3,
// §4.7) — there is deliberately no WeightFn/EjectCallback pair here, since
// the core memoization cache does not decide eviction policy beyond that
// (spec.md Non-goals).
//
// © 2025 evalhash authors. MIT License.

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Voskan/evalhash/internal/gccycle"
)

// Option configures a Cache at construction time.
type Option func(*config)

type config struct {
	shards      int
	logger      *zap.Logger
	registry    *prometheus.Registry
	counters    *Counters
	cycle       *gccycle.Counter
	exprCacheSz int
}

var errInvalidShards = errors.New("evalhash: shards must be positive")

func defaultConfig() config {
	return config{
		shards:      16,
		logger:      zap.NewNop(),
		registry:    nil, // user must opt in to metrics
		counters:    &Counters{},
		cycle:       &gccycle.Counter{},
		exprCacheSz: 1 << 16,
	}
}

// WithShards sets the number of concurrent map shards backing the cache.
func WithShards(n int) Option {
	return func(c *config) { c.shards = n }
}

// WithLogger plugs an external zap.Logger. The cache never logs on the hot
// path; the only event it logs is a GC-cycle advance.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics collection for the cache instance.
// Passing nil disables metrics (default): Counters are always maintained
// in-process regardless.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithGCCycleCounter lets the evaluator share its own GC-cycle counter with
// the cache rather than letting the cache own a private one.
func WithGCCycleCounter(cnt *gccycle.Counter) Option {
	return func(c *config) {
		if cnt != nil {
			c.cycle = cnt
		}
	}
}

// WithExprCacheSize bounds the pointer-keyed expression hash cache created
// alongside the memo cache. Zero or negative means unbounded.
func WithExprCacheSize(n int) Option {
	return func(c *config) { c.exprCacheSz = n }
}

// applyOptions copies user-supplied options into a fresh config and
// validates invariants.
func applyOptions(opts []Option) (config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	if c.shards <= 0 {
		return config{}, errInvalidShards
	}
	return c, nil
}
