// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	Renders        *prometheus.CounterVec
	RenderCache    *prometheus.CounterVec
	EditorOps      *prometheus.CounterVec
	PreviewFetches *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "renders_total",
			Help:      "Content renders by source format and style variant.",
		}, []string{"format", "variant"}),
		RenderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "render_cache_total",
			Help:      "Rendered page cache lookups by result.",
		}, []string{"result"}),
		EditorOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "editor_operations_total",
			Help:      "Block operations applied through the editor by kind and outcome.",
		}, []string{"op", "outcome"}),
		PreviewFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "link_preview_fetches_total",
			Help:      "Link preview metadata fetches by outcome.",
		}, []string{"outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	m.registry.MustRegister(
		m.Renders,
		m.RenderCache,
		m.EditorOps,
		m.PreviewFetches,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
