// Package metrics collects and exposes Prometheus metrics for the panel.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers fetch and HTTP metrics. It satisfies
// application.FetchRecorder and the HTTP middleware's status recorder.
type Collector struct {
	fetchSuccess   prometheus.Counter
	fetchFail      *prometheus.CounterVec
	fetchDays      prometheus.Histogram
	fetchLatency   prometheus.Histogram
	upstreamStatus *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "apodpanel_fetch_success_total",
			Help: "Total successful APOD gallery fetches.",
		}),
		fetchFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apodpanel_fetch_fail_total",
			Help: "Total failed APOD fetches by taxonomy reason.",
		}, []string{"reason"}),
		fetchDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "apodpanel_fetch_range_days",
			Help:    "Calendar days spanned by successful gallery fetches.",
			Buckets: []float64{1, 3, 7, 14, 30, 100, 365},
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "apodpanel_fetch_latency_seconds",
			Help:    "APOD fetch latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		upstreamStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apodpanel_upstream_status_total",
			Help: "Responses from the APOD API by HTTP status code.",
		}, []string{"status_code"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "apodpanel_http_requests_total",
			Help: "Requests served by the panel by HTTP status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.fetchSuccess,
		c.fetchFail,
		c.fetchDays,
		c.fetchLatency,
		c.upstreamStatus,
		c.httpRequests,
	)

	return c
}

// RecordFetchSuccess records one successful gallery fetch spanning days.
func (c *Collector) RecordFetchSuccess(days int) {
	c.fetchSuccess.Inc()
	c.fetchDays.Observe(float64(days))
}

// RecordFetchFailure records a failed fetch under its taxonomy reason.
func (c *Collector) RecordFetchFailure(reason string) {
	c.fetchFail.WithLabelValues(reason).Inc()
}

// RecordFetchLatency records the duration of an upstream fetch.
func (c *Collector) RecordFetchLatency(d time.Duration) {
	c.fetchLatency.Observe(d.Seconds())
}

// RecordUpstreamStatus records a status code returned by the APOD API.
func (c *Collector) RecordUpstreamStatus(code int) {
	c.upstreamStatus.WithLabelValues(strconv.Itoa(code)).Inc()
}

// RecordRequest records a status code served by the panel itself.
func (c *Collector) RecordRequest(code int) {
	c.httpRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
