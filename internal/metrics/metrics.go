// Package metrics exposes the render loop's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	Volume          prometheus.Gauge
	Claps           prometheus.Counter
	FrameDuration   prometheus.Histogram
	CaptureState    *prometheus.GaugeVec
	CaptureFailures *prometheus.CounterVec
	HandFeeds       prometheus.Gauge
}

// NewCollector creates collectors under namespace on a private registry.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		Volume: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "volume",
			Help:      "Normalized loudness of the last frame",
		}),
		Claps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claps_total",
			Help:      "Total number of detected claps",
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time spent in one simulation tick",
			Buckets:   []float64{.0005, .001, .002, .004, .008, .016, .032},
		}),
		CaptureState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "capture_state",
			Help:      "1 for the current capture session state",
		}, []string{"state"}),
		CaptureFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_failures_total",
			Help:      "Capture acquisitions or streams that failed",
		}, []string{"reason"}),
		HandFeeds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hand_feeds",
			Help:      "Connected hand tracker feeds",
		}),
	}
	c.registry.MustRegister(
		c.Volume,
		c.Claps,
		c.FrameDuration,
		c.CaptureState,
		c.CaptureFailures,
		c.HandFeeds,
	)
	return c
}

// ObserveFrame records one tick.
func (c *Collector) ObserveFrame(volume float64, clapped bool, d time.Duration) {
	c.Volume.Set(volume)
	if clapped {
		c.Claps.Inc()
	}
	c.FrameDuration.Observe(d.Seconds())
}

// SetCaptureState marks state as current among states.
func (c *Collector) SetCaptureState(state string, states ...string) {
	for _, s := range states {
		c.CaptureState.WithLabelValues(s).Set(0)
	}
	c.CaptureState.WithLabelValues(state).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
