// Package metrics exposes Prometheus instruments for scans, fetches and model fits.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics. A nil *Registry is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	Scans          *prometheus.CounterVec
	ScanDuration   *prometheus.HistogramVec
	SymbolsSkipped *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	ClassifierFit  prometheus.Histogram
	BreakerState   *prometheus.GaugeVec
}

// New creates a registry with process and Go runtime collectors attached.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		Scans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistradar_scans_total",
				Help: "Total analysis requests by mode and source",
			},
			[]string{"mode", "source"},
		),
		ScanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bistradar_scan_duration_seconds",
				Help:    "Wall-clock duration of universe scans",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"mode"},
		),
		SymbolsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bistradar_symbols_skipped_total",
				Help: "Symbols omitted from universe scans by reason",
			},
			[]string{"reason"},
		),
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bistradar_fetch_duration_seconds",
				Help:    "Price history fetch latency by provider and result",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "result"},
		),
		ClassifierFit: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bistradar_classifier_fit_duration_seconds",
				Help:    "Duration of one classifier fit/predict cycle",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bistradar_provider_breaker_open",
				Help: "1 when the provider circuit breaker is open",
			},
			[]string{"provider"},
		),
	}
	r.reg.MustRegister(
		r.Scans, r.ScanDuration, r.SymbolsSkipped, r.FetchDuration, r.ClassifierFit, r.BreakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) ObserveScan(mode, source string, d time.Duration, universe bool) {
	if r == nil {
		return
	}
	r.Scans.WithLabelValues(mode, source).Inc()
	if universe {
		r.ScanDuration.WithLabelValues(mode).Observe(d.Seconds())
	}
}

func (r *Registry) SkipSymbol(reason string) {
	if r == nil {
		return
	}
	r.SymbolsSkipped.WithLabelValues(reason).Inc()
}

func (r *Registry) ObserveFetch(provider, result string, d time.Duration) {
	if r == nil {
		return
	}
	r.FetchDuration.WithLabelValues(provider, result).Observe(d.Seconds())
}

func (r *Registry) ObserveFit(d time.Duration) {
	if r == nil {
		return
	}
	r.ClassifierFit.Observe(d.Seconds())
}

func (r *Registry) SetBreakerOpen(provider string, open bool) {
	if r == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	r.BreakerState.WithLabelValues(provider).Set(v)
}
