// Package metrics exposes the dashboard's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	FetchFailures *prometheus.CounterVec
	Deletes       *prometheus.CounterVec
	LoadDuration  prometheus.Histogram

	TotalSpend         prometheus.Gauge
	LowEngagementPaid  prometheus.Gauge
	HighEngagementFree prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "fetch_failures_total",
			Help:      "Backend reads that failed during the load cycle, by collection.",
		}, []string{"collection"}),
		Deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "deletes_total",
			Help:      "Newsletter delete attempts, by result.",
		}, []string{"result"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "load_duration_seconds",
			Help:      "Wall time of the dual-fetch load cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		TotalSpend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "monthly_spend",
			Help:      "Sum of monthly cost over paid newsletters.",
		}),
		LowEngagementPaid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "low_engagement_paid",
			Help:      "Paid newsletters with engagement below 0.5.",
		}),
		HighEngagementFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "high_engagement_free",
			Help:      "Free newsletters with engagement above 0.8.",
		}),
	}

	m.Registry.MustRegister(
		m.FetchFailures,
		m.Deletes,
		m.LoadDuration,
		m.TotalSpend,
		m.LowEngagementPaid,
		m.HighEngagementFree,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
