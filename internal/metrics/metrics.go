// Package metrics provides Prometheus metrics collection for cradle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for cradle.
type Collector struct {
	// Service call metrics
	ServiceCallsTotal  *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec

	// Upstream (Baby Buddy API) metrics
	UpstreamDuration *prometheus.HistogramVec
	UpstreamErrors   *prometheus.CounterVec

	// Refresh metrics
	RefreshTotal    prometheus.Counter
	RefreshErrors   prometheus.Counter
	LastRefresh     prometheus.Gauge
	ChildrenTracked prometheus.Gauge
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		ServiceCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cradle",
				Name:      "service_calls_total",
				Help:      "Total number of service calls handled",
			},
			[]string{"service", "status"},
		),
		ValidationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cradle",
				Name:      "validation_failures_total",
				Help:      "Total number of service call validation failures",
			},
			[]string{"service", "kind"},
		),

		UpstreamDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cradle",
				Name:      "upstream_request_duration_seconds",
				Help:      "Baby Buddy API request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "endpoint"},
		),
		UpstreamErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cradle",
				Name:      "upstream_errors_total",
				Help:      "Total number of failed Baby Buddy API requests",
			},
			[]string{"endpoint"},
		),

		RefreshTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cradle",
				Name:      "refresh_total",
				Help:      "Total number of upstream refresh runs",
			},
		),
		RefreshErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "cradle",
				Name:      "refresh_errors_total",
				Help:      "Total number of failed upstream refresh runs",
			},
		),
		LastRefresh: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cradle",
				Name:      "last_refresh_timestamp_seconds",
				Help:      "Unix timestamp of the last successful refresh",
			},
		),
		ChildrenTracked: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "cradle",
				Name:      "children_tracked",
				Help:      "Number of children currently tracked",
			},
		),
	}
}
