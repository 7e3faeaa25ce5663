// Package metrics holds the Prometheus collectors for the board and small
// helpers for recording into them. Collectors register with the default
// registry, which the server exposes on /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sakif/whispering-network/internal/apperror"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wn_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wn_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wn_http_active_requests",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// Store
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wn_store_query_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation"},
	)

	StoreQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wn_store_query_errors_total",
			Help: "Total number of failed store operations by error kind",
		},
		[]string{"backend", "operation", "kind"},
	)

	// Domain
	MessagesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wn_messages_created_total",
			Help: "Total number of messages created, by visibility",
		},
		[]string{"visibility"},
	)

	RepliesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wn_replies_created_total",
			Help: "Total number of replies created",
		},
	)

	VisibilityChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wn_message_visibility_changes_total",
			Help: "Total number of message visibility updates, by target visibility",
		},
		[]string{"visibility"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wn_admin_login_attempts_total",
			Help: "Total number of admin login attempts by result",
		},
		[]string{"result"}, // "success", "failure"
	)
)

// ObserveStoreQuery records the latency of one store operation and, when err
// is non-nil, counts it under its apperror kind.
func ObserveStoreQuery(backend, op string, start time.Time, err error) {
	StoreQueryDuration.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	if err != nil {
		StoreQueryErrors.WithLabelValues(backend, op, errorKind(err)).Inc()
	}
}

// RecordHTTPRequest records a finished request. route should be the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// TrackActiveRequest moves the in-flight gauge up or down.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

func RecordMessageCreated(isPublic bool) {
	MessagesCreated.WithLabelValues(visibility(isPublic)).Inc()
}

func RecordReplyCreated() {
	RepliesCreated.Inc()
}

func RecordVisibilityChange(isPublic bool) {
	VisibilityChanges.WithLabelValues(visibility(isPublic)).Inc()
}

func RecordLogin(success bool) {
	if success {
		LoginAttempts.WithLabelValues("success").Inc()
		return
	}
	LoginAttempts.WithLabelValues("failure").Inc()
}

func visibility(isPublic bool) string {
	if isPublic {
		return "public"
	}
	return "private"
}

// errorKind maps an error to a small fixed label set.
func errorKind(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return "conflict"
	case errors.Is(err, apperror.ErrValidation):
		return "validation"
	default:
		return "internal"
	}
}
