// Package metrics exports Prometheus metrics for a hashnav engine.
//
// The collector is a plain status/scroll observer pair; it attaches to an
// engine through the same subscription surface any other observer uses:
//
//	collector := metrics.NewCollector()
//	dispose := collector.Observe(nav)
//	defer dispose()
//
// Metrics collected:
//   - hashnav_navigations_total: counter of navigation cycles by outcome
//     (committed, vetoed)
//   - hashnav_navigation_duration_seconds: histogram from guard phase
//     start to cycle outcome, by outcome
//   - hashnav_scroll_events_total: counter of scroll events by type
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/hashnav/pkg/hashnav"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "hashnav").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for navigation duration.
	// Default: prometheus.DefBuckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Collector translates engine status and scroll events into Prometheus
// metrics.
type Collector struct {
	navigations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	scrolls     *prometheus.CounterVec

	// mu guards started, which holds the loading-event timestamp per
	// candidate path until the cycle's terminal event arrives.
	mu      sync.Mutex
	started map[string]time.Time
}

// NewCollector creates a collector and registers its metrics.
func NewCollector(opts ...Option) *Collector {
	cfg := Config{
		Namespace: "hashnav",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := promauto.With(cfg.Registry)

	return &Collector{
		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "navigations_total",
			Help:        "Total navigation cycles by outcome",
			ConstLabels: cfg.ConstLabels,
		}, []string{"outcome"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Name:        "navigation_duration_seconds",
			Help:        "Guard phase start to cycle outcome, in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"outcome"}),

		scrolls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Name:        "scroll_events_total",
			Help:        "Total scroll events by type",
			ConstLabels: cfg.ConstLabels,
		}, []string{"type"}),
	}
}

// Observe attaches the collector to an engine. The returned disposer
// removes both subscriptions.
func (c *Collector) Observe(nav *hashnav.Engine) hashnav.Disposer {
	removeStatus := nav.OnStatus(c.onStatus)
	removeScroll := nav.OnScroll(c.onScroll)
	return func() {
		removeStatus()
		removeScroll()
	}
}

func (c *Collector) onStatus(s hashnav.Status) {
	switch s.Level {
	case hashnav.LevelLoading:
		c.mu.Lock()
		if c.started == nil {
			c.started = make(map[string]time.Time)
		}
		c.started[s.To.Path] = time.Now()
		c.mu.Unlock()

	case hashnav.LevelSuccess:
		c.finish(s.To.Path, "committed")

	case hashnav.LevelError:
		c.finish(s.To.Path, "vetoed")
	}
}

func (c *Collector) finish(path, outcome string) {
	c.navigations.WithLabelValues(outcome).Inc()

	c.mu.Lock()
	start, ok := c.started[path]
	delete(c.started, path)
	c.mu.Unlock()
	if ok {
		c.duration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}

func (c *Collector) onScroll(ev *hashnav.ScrollEvent) {
	c.scrolls.WithLabelValues(ev.Type.String()).Inc()
}
