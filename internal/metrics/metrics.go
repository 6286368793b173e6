// Package metrics exposes prometheus collectors for the banking portal.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeInsufficient = "insufficient_funds"
	OutcomeDuplicate    = "duplicate"
	OutcomeNotFound     = "not_found"
	OutcomeBadPassword  = "bad_password"
	OutcomeLimit        = "balance_limit"
	OutcomeError        = "error"
)

var (
	ledgerOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_ledger_operations_total",
		Help: "Deposit and withdraw attempts by outcome",
	}, []string{"kind", "outcome"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_auth_attempts_total",
		Help: "Registration and login attempts by outcome",
	}, []string{"action", "outcome"})

	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bank_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bank_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})
)

// ObserveLedger counts one ledger operation.
func ObserveLedger(kind, outcome string) {
	ledgerOps.WithLabelValues(kind, outcome).Inc()
}

// ObserveAuth counts one register/login attempt.
func ObserveAuth(action, outcome string) {
	authAttempts.WithLabelValues(action, outcome).Inc()
}

// LedgerCount returns the counter behind ObserveLedger for kind/outcome.
func LedgerCount(kind, outcome string) prometheus.Counter {
	return ledgerOps.WithLabelValues(kind, outcome)
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		timer := prometheus.NewTimer(httpLatency.WithLabelValues(c.Request.Method, route))
		c.Next()
		timer.ObserveDuration()
		httpReqTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
