package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the ad orchestrator.
type Metrics struct {
	registry                *prometheus.Registry
	requestsTotal           prometheus.Counter
	adsRequestsTotal        prometheus.Counter
	adsRequestFailuresTotal prometheus.Counter
	adsRequestTimeoutsTotal prometheus.Counter
	adBreaksPlayedTotal     prometheus.Counter
	adErrorsTotal           prometheus.Counter
	activeSessions          prometheus.Gauge
	errorsTotal             prometheus.Counter
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adorch_requests_total",
		Help: "Total number of HTTP requests received",
	})
	adsRequestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adorch_ads_requests_total",
		Help: "Total number of ads requests issued to the delivery gateway",
	})
	adsRequestFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adorch_ads_request_failures_total",
		Help: "Total number of failed ads requests (including retried ones)",
	})
	adsRequestTimeoutsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adorch_ads_request_timeouts_total",
		Help: "Total number of ads requests that timed out",
	})
	adBreaksPlayedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adorch_ad_breaks_played_total",
		Help: "Total number of ad breaks played to completion",
	})
	adErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adorch_ad_errors_total",
		Help: "Total number of ad errors surfaced by sessions",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "adorch_active_sessions",
		Help: "Number of sessions that are not destroyed",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "adorch_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		adsRequestsTotal,
		adsRequestFailuresTotal,
		adsRequestTimeoutsTotal,
		adBreaksPlayedTotal,
		adErrorsTotal,
		activeSessions,
		errorsTotal,
	)

	return &Metrics{
		registry:                registry,
		requestsTotal:           requestsTotal,
		adsRequestsTotal:        adsRequestsTotal,
		adsRequestFailuresTotal: adsRequestFailuresTotal,
		adsRequestTimeoutsTotal: adsRequestTimeoutsTotal,
		adBreaksPlayedTotal:     adBreaksPlayedTotal,
		adErrorsTotal:           adErrorsTotal,
		activeSessions:          activeSessions,
		errorsTotal:             errorsTotal,
	}
}

// IncRequests increments the total HTTP request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncAdsRequests increments the ads requests counter.
func (m *Metrics) IncAdsRequests() {
	m.adsRequestsTotal.Inc()
}

// IncAdsRequestFailures increments the ads request failures counter.
func (m *Metrics) IncAdsRequestFailures() {
	m.adsRequestFailuresTotal.Inc()
}

// IncAdsRequestTimeouts increments the ads request timeouts counter.
func (m *Metrics) IncAdsRequestTimeouts() {
	m.adsRequestTimeoutsTotal.Inc()
}

// IncAdBreaksPlayed increments the ad breaks played counter.
func (m *Metrics) IncAdBreaksPlayed() {
	m.adBreaksPlayedTotal.Inc()
}

// IncAdErrors increments the ad errors counter.
func (m *Metrics) IncAdErrors() {
	m.adErrorsTotal.Inc()
}

// SetActiveSessions sets the active sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// IncErrors increments the HTTP errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values
// (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
