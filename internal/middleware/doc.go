// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

/*
Package middleware provides HTTP middleware for the registry server.

Key Components:

  - Request ID: UUID-based request tracking, integrated with internal/logging
    for correlation-id propagation
  - Prometheus Metrics: HTTP request/response instrumentation

Middleware Stack:

	http.HandleFunc("/api/v1/crates/new",
	    middleware.PrometheusMetrics(
	        middleware.RequestID(
	            handler,
	        ),
	    ),
	)

Usage Example - Request ID:

	http.HandleFunc("/api/v1/crates/new",
	    middleware.RequestID(handler),
	)

	func handler(w http.ResponseWriter, r *http.Request) {
	    requestID := middleware.GetRequestID(r.Context())
	    logging.Ctx(r.Context()).Info().Msg("processing publish")
	}

Thread Safety:

All middleware components are thread-safe: Request ID uses context.Context
(immutable), Prometheus metrics use atomic counters/histograms.

See Also:

  - internal/httpapi: HTTP handlers wrapped by this middleware
  - internal/metrics: Prometheus metric definitions
*/
package middleware
