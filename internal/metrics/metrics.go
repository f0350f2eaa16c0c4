// Package metrics provides Prometheus metrics for the login controller and
// the development auth server. Collectors are registered on a caller-supplied
// registry so several instances can coexist in tests.
//
//   - loginflow_login_attempts_total{outcome}
//   - loginflow_login_verify_duration_seconds{outcome}
//   - loginflow_login_lockouts_total
//   - loginflow_http_requests_total{route,status}
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nfrund/loginflow/internal/login"
)

const namespace = "loginflow"

// Login records controller outcomes. It implements login.Observer.
type Login struct {
	Attempts *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Lockouts prometheus.Counter
}

// NewLogin registers the login collectors on reg.
func NewLogin(reg prometheus.Registerer) *Login {
	f := promauto.With(reg)
	return &Login{
		Attempts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "login",
				Name:      "attempts_total",
				Help:      "Login calls by outcome.",
			},
			[]string{"outcome"},
		),
		Duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "login",
				Name:      "verify_duration_seconds",
				Help:      "Credential verifier round trip in seconds.",
				// 10ms → 20ms → … → ~10s
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 11),
			},
			[]string{"outcome"},
		),
		Lockouts: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "login",
				Name:      "lockouts_total",
				Help:      "Failures that tripped the lockout threshold.",
			},
		),
	}
}

// Observe implements login.Observer. Guard rejections are counted but never
// reach the duration histogram.
func (m *Login) Observe(outcome login.Outcome, elapsed time.Duration) {
	m.Attempts.WithLabelValues(string(outcome)).Inc()
	switch outcome {
	case login.OutcomeSuccess, login.OutcomeFailure, login.OutcomeLockout:
		m.Duration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
	}
	if outcome == login.OutcomeLockout {
		m.Lockouts.Inc()
	}
}

// HTTP counts requests served by the development auth server.
type HTTP struct {
	Requests *prometheus.CounterVec
}

// NewHTTP registers the HTTP collectors on reg.
func NewHTTP(reg prometheus.Registerer) *HTTP {
	return &HTTP{
		Requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by route and status code.",
			},
			[]string{"route", "status"},
		),
	}
}

// Record counts one request.
func (m *HTTP) Record(route string, status int) {
	m.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}
