// Package metrics exports keydi resolution statistics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/junioryono/keydi"
)

// Collector counts resolutions and errors per key and observes resolution
// latency. It implements prometheus.Collector.
//
// Example:
//
//	collector := metrics.NewCollector("myapp")
//	prometheus.MustRegister(collector)
//
//	provider, err := collection.BuildWithOptions(collector.Instrument(&keydi.ProviderOptions{}))
type Collector struct {
	resolutions *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector whose metric names are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keydi",
			Name:      "resolutions_total",
			Help:      "Number of successful top-level resolutions.",
		}, []string{"key"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keydi",
			Name:      "resolution_errors_total",
			Help:      "Number of failed top-level resolutions by error type.",
		}, []string{"key", "type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "keydi",
			Name:      "resolution_duration_seconds",
			Help:      "Latency of successful top-level resolutions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"key"}),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.resolutions.Describe(ch)
	c.errors.Describe(ch)
	c.duration.Describe(ch)
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.resolutions.Collect(ch)
	c.errors.Collect(ch)
	c.duration.Collect(ch)
}

// ObserveResolved records a successful resolution.
func (c *Collector) ObserveResolved(key keydi.Key, d time.Duration) {
	c.resolutions.WithLabelValues(string(key)).Inc()
	c.duration.WithLabelValues(string(key)).Observe(d.Seconds())
}

// ObserveError records a failed resolution.
func (c *Collector) ObserveError(key keydi.Key, err error) {
	c.errors.WithLabelValues(string(key), keydi.TypeOf(err).String()).Inc()
}

// Instrument sets the resolution hooks of options to feed the collector,
// chaining any hooks already set. A nil options is allocated.
func (c *Collector) Instrument(options *keydi.ProviderOptions) *keydi.ProviderOptions {
	if options == nil {
		options = &keydi.ProviderOptions{}
	}

	onResolved := options.OnResolved
	options.OnResolved = func(key keydi.Key, d time.Duration) {
		c.ObserveResolved(key, d)
		if onResolved != nil {
			onResolved(key, d)
		}
	}

	onError := options.OnError
	options.OnError = func(key keydi.Key, err error) {
		c.ObserveError(key, err)
		if onError != nil {
			onError(key, err)
		}
	}

	return options
}
