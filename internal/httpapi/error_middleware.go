// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package httpapi

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"
)

// apiError is one entry of the registry protocol's multi-error response
// shape (spec §6), mirroring original_source/src/middleware.rs's ApiError.
type apiError struct {
	Detail string `json:"detail"`
}

// apiErrorResponse is the registry protocol's wire error shape:
// {"errors":[{"detail":"..."}]}.
type apiErrorResponse struct {
	Errors []apiError `json:"errors"`
}

// convertErrorsToJSON rewrites a text/plain; charset=utf-8 4xx/5xx response
// body into apiErrorResponse JSON, passing every other response through
// unchanged — a direct translation of convert_errors_to_json's axum
// middleware into a chi-compatible http.Handler wrapper.
func convertErrorsToJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
		next.ServeHTTP(rec, r)

		status := rec.statusCode
		if status < 400 {
			rec.flush()
			return
		}

		contentType := rec.Header().Get("Content-Type")
		if contentType != "text/plain; charset=utf-8" {
			rec.flush()
			return
		}

		body, err := json.Marshal(apiErrorResponse{Errors: []apiError{{Detail: rec.body.String()}}})
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Del("Content-Type")
		w.Header().Del("Content-Length")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	})
}

// responseRecorder buffers a handler's response so convertErrorsToJSON can
// inspect the status and content-type before anything reaches the client.
type responseRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
	body        *bytes.Buffer
}

func (rec *responseRecorder) WriteHeader(status int) {
	if rec.wroteHeader {
		return
	}
	rec.wroteHeader = true
	rec.statusCode = status
}

func (rec *responseRecorder) Write(p []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.body.Write(p)
}

// flush writes the buffered status and body to the real ResponseWriter
// unchanged, for the pass-through paths.
func (rec *responseRecorder) flush() {
	rec.ResponseWriter.WriteHeader(rec.statusCode)
	_, _ = rec.ResponseWriter.Write(rec.body.Bytes())
}
