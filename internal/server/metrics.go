package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/topodraw/pkg/observability"
)

// Metrics collects Prometheus metrics for the API. It implements the
// observability hook interfaces, so registering it with [Metrics.Register]
// is all the wiring the conversion packages need.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge

	ConversionsTotal   *prometheus.CounterVec
	ConversionDuration *prometheus.HistogramVec
	ConversionNodes    *prometheus.HistogramVec
	WarningsTotal      *prometheus.CounterVec

	CacheEventsTotal *prometheus.CounterVec
	CacheBytes       *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topodraw_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "topodraw_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "topodraw_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
		ConversionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topodraw_conversions_total",
				Help: "Conversions by direction and outcome",
			},
			[]string{"direction", "status"},
		),
		ConversionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "topodraw_conversion_duration_seconds",
				Help:    "Conversion latency in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"direction"},
		),
		ConversionNodes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "topodraw_conversion_nodes",
				Help:    "Nodes per converted topology",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"direction"},
		),
		WarningsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topodraw_conversion_warnings_total",
				Help: "Warnings reported by conversions",
			},
			[]string{"direction"},
		),
		CacheEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "topodraw_cache_events_total",
				Help: "Cache hits, misses and writes",
			},
			[]string{"kind", "event"},
		),
		CacheBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "topodraw_cache_entry_bytes",
				Help:    "Size of cache entries written",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"kind"},
		),
	}
}

// Register installs m as the process-wide observability hooks.
func (m *Metrics) Register() {
	observability.SetConversionHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// =============================================================================
// observability hooks
// =============================================================================

func (m *Metrics) OnDrawStart(context.Context, string) {}

func (m *Metrics) OnDrawComplete(_ context.Context, _ string, s observability.Stats, d time.Duration, err error) {
	m.conversion("draw", s, d, err)
}

func (m *Metrics) OnExtractStart(context.Context, string) {}

func (m *Metrics) OnExtractComplete(_ context.Context, _ string, s observability.Stats, d time.Duration, err error) {
	m.conversion("extract", s, d, err)
}

func (m *Metrics) conversion(direction string, s observability.Stats, d time.Duration, err error) {
	if err != nil {
		m.ConversionsTotal.WithLabelValues(direction, "error").Inc()
		return
	}
	m.ConversionsTotal.WithLabelValues(direction, "ok").Inc()
	m.ConversionDuration.WithLabelValues(direction).Observe(d.Seconds())
	m.ConversionNodes.WithLabelValues(direction).Observe(float64(s.Nodes))
	m.WarningsTotal.WithLabelValues(direction).Add(float64(s.Warnings))
}

func (m *Metrics) OnCacheHit(_ context.Context, kind string) {
	m.CacheEventsTotal.WithLabelValues(kind, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, kind string) {
	m.CacheEventsTotal.WithLabelValues(kind, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, kind string, size int) {
	m.CacheEventsTotal.WithLabelValues(kind, "set").Inc()
	m.CacheBytes.WithLabelValues(kind).Observe(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.HTTPInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.HTTPInFlight.Dec()
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ observability.ConversionHooks = (*Metrics)(nil)
	_ observability.CacheHooks      = (*Metrics)(nil)
	_ observability.HTTPHooks       = (*Metrics)(nil)
)
