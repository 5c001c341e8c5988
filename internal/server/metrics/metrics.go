// Package metrics exposes Prometheus counters for auth events, HTTP
// responses and mail delivery.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth event names.
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventForgotPassword = "forgot_password"
	EventResetPassword  = "reset_password"
)

// Collector is the Prometheus-backed recorder used by the HTTP layer and
// the mail dispatcher.
type Collector struct {
	authEvents   *prometheus.CounterVec
	httpStatus   *prometheus.CounterVec
	httpDuration prometheus.Histogram
	mailResults  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipehub_auth_events_total",
			Help: "Authentication events by kind and outcome.",
		}, []string{"event", "outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipehub_http_responses_total",
			Help: "HTTP responses by method and status code.",
		}, []string{"method", "status_code"}),
		httpDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recipehub_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		mailResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipehub_mail_total",
			Help: "Outbound mail by delivery result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.authEvents,
		c.httpStatus,
		c.httpDuration,
		c.mailResults,
	)

	return c
}

// RecordAuth counts one auth event. outcome is "ok" or a short failure reason.
func (c *Collector) RecordAuth(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

func (c *Collector) RecordHTTP(method string, statusCode int, d time.Duration) {
	c.httpStatus.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.Observe(d.Seconds())
}

// ObserveMail implements mail.Recorder.
func (c *Collector) ObserveMail(result string) {
	c.mailResults.WithLabelValues(result).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
