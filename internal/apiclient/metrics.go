package apiclient

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK           = "ok"
	outcomeAPIError     = "api_error"
	outcomeUnauthorized = "unauthorized"
	outcomeTransport    = "transport_error"
	outcomeCanceled     = "canceled"
)

// Metrics are the client-side Prometheus collectors.
// A nil *Metrics records nothing.
type Metrics struct {
	Requests   *prometheus.CounterVec
	Latency    *prometheus.HistogramVec
	Refreshes  *prometheus.CounterVec
	QueueDepth prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg (if not nil)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lmscli",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lmscli",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lmscli",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Token refresh exchanges by result.",
		}, []string{"result"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lmscli",
			Subsystem: "auth",
			Name:      "refresh_queue_depth",
			Help:      "Requests waiting for the in-flight token refresh.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Latency, m.Refreshes, m.QueueDepth)
	}
	return m
}

func (m *Metrics) observeRequest(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, outcome).Inc()
	m.Latency.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) observeRefresh(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func outcomeOf(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ErrUnauthorized):
		return outcomeUnauthorized
	case errors.As(err, &apiErr):
		return outcomeAPIError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	default:
		return outcomeTransport
	}
}
