// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the registry server: HTTP request shape,
// publish outcomes by classification, catalog transaction timing, and git
// index-commit timing.

var (
	// HTTP request metrics (generic, driven by middleware.PrometheusMetrics).
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// Publish metrics, labeled by the 3-way classification of spec.md §4.6.
	PublishAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "publish_attempts_total",
			Help: "Total number of publish attempts",
		},
		[]string{"classification", "outcome"}, // outcome: "ok", "client_error", "server_error"
	)

	PublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "publish_duration_seconds",
			Help:    "Duration of a full publish operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"classification"},
	)

	// Download metrics.
	DownloadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "download_attempts_total",
			Help: "Total number of crate download attempts",
		},
		[]string{"outcome"}, // "ok", "not_found", "server_error"
	)

	// Git index-commit metrics (spec.md §4.5 three-subprocess sequence).
	GitCommitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "git_commit_duration_seconds",
			Help:    "Duration of the git reset/add/commit sequence in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"}, // "reset", "add", "commit"
	)

	GitCommitErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "git_commit_errors_total",
			Help: "Total number of failed git subprocess invocations",
		},
		[]string{"step"},
	)

	// Catalog (DuckDB) transaction metrics.
	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_transaction_duration_seconds",
			Help:    "Duration of catalog transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"}, // "committed", "rolled_back"
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of catalog query errors",
		},
		[]string{"operation"},
	)
)

// RecordAPIRequest records an HTTP request's method, route, status code, and
// latency.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments (inc=true) or decrements the in-flight
// request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPublish records the outcome and duration of a publish attempt.
func RecordPublish(classification, outcome string, duration time.Duration) {
	PublishAttemptsTotal.WithLabelValues(classification, outcome).Inc()
	PublishDuration.WithLabelValues(classification).Observe(duration.Seconds())
}

// RecordDownload records the outcome of a download attempt.
func RecordDownload(outcome string) {
	DownloadAttemptsTotal.WithLabelValues(outcome).Inc()
}

// RecordGitCommitStep records the duration of one step of the git
// reset/add/commit sequence, and counts it as an error if err is non-nil.
func RecordGitCommitStep(step string, duration time.Duration, err error) {
	GitCommitDuration.WithLabelValues(step).Observe(duration.Seconds())
	if err != nil {
		GitCommitErrors.WithLabelValues(step).Inc()
	}
}

// RecordDBTransaction records a catalog transaction's outcome and duration.
func RecordDBTransaction(committed bool, duration time.Duration) {
	outcome := "committed"
	if !committed {
		outcome = "rolled_back"
	}
	DBTransactionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordDBQueryError records a catalog query failure by operation name.
func RecordDBQueryError(operation string) {
	DBQueryErrors.WithLabelValues(operation).Inc()
}
