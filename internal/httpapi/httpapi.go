// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package httpapi wires the publish orchestrator to the registry protocol's
// HTTP surface (spec §6), routed with go-chi/chi/v5 in the shape of
// tomtom215-cartographus/internal/api/chi_router.go. The error-to-JSON
// middleware is grounded exactly on original_source/src/middleware.rs's
// convert_errors_to_json: it rewrites a text/plain 4xx/5xx body into
// {"errors":[{"detail":"..."}]} and passes every other response through
// unchanged.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cargoindex/internal/filestore"
	"github.com/tomtom215/cargoindex/internal/logging"
	appmiddleware "github.com/tomtom215/cargoindex/internal/middleware"
	"github.com/tomtom215/cargoindex/internal/metrics"
	"github.com/tomtom215/cargoindex/internal/publish"
	"github.com/tomtom215/cargoindex/internal/registry"
)

// Server holds the dependencies the HTTP handlers need.
type Server struct {
	Orchestrator *publish.Orchestrator
	Files        *filestore.Store
}

// NewRouter builds the full chi router: health, metrics, and the two
// registry protocol endpoints, wrapped in the error-to-JSON and
// Prometheus/request-ID middleware stack.
func NewRouter(server *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(adapt(appmiddleware.RequestID))
	r.Use(adapt(appmiddleware.PrometheusMetrics))
	r.Use(convertErrorsToJSON)

	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/crates", func(r chi.Router) {
		r.Put("/new", server.handlePublish)
		r.Get("/{crate_name}/{version}/download", server.handleDownload)
	})

	return r
}

// adapt lifts the existing http.HandlerFunc-style middleware (shared with
// the teacher's non-chi routes) into chi's func(http.Handler) http.Handler.
func adapt(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handlePublish implements PUT /api/v1/crates/new (spec §6).
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writePlainTextError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := s.Orchestrator.Publish(r.Context(), body)
	if err != nil {
		var pubErr *publish.Error
		outcome := "server_error"
		status := http.StatusInternalServerError
		message := err.Error()
		if errors.As(err, &pubErr) {
			if pubErr.Kind == publish.ClientBadRequest || pubErr.Kind == publish.ClientPayloadTooLarge {
				outcome = "client_error"
			}
			status = pubErr.Kind.StatusCode()
			message = pubErr.Message
			logging.Error().Err(pubErr.Cause).Str("phrase", pubErr.Message).Msg("publish failed")
		}
		metrics.RecordPublish("unknown", outcome, time.Since(start))
		writePlainTextError(w, status, message)
		return
	}

	metrics.RecordPublish("ok", "ok", time.Since(start))
	writeJSON(w, http.StatusOK, map[string]any{"warnings": result.Warnings})
}

// handleDownload implements GET /api/v1/crates/:crate_name/:version/download
// (spec §6): a plain file-store lookup, independent of the orchestrator.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rawName := chi.URLParam(r, "crate_name")
	rawVersion := chi.URLParam(r, "version")

	name, err := registry.ParsePackageName(rawName)
	if err != nil {
		writePlainTextError(w, http.StatusNotFound, "crate or version doesn't exist")
		return
	}
	version, err := registry.ParseVersion(rawVersion)
	if err != nil {
		writePlainTextError(w, http.StatusNotFound, "crate or version doesn't exist")
		return
	}

	data, err := publish.Download(s.Files, name, version)
	if err != nil {
		var pubErr *publish.Error
		if errors.As(err, &pubErr) {
			metrics.RecordDownload(outcomeFor(pubErr.Kind))
			writePlainTextError(w, pubErr.Kind.StatusCode(), pubErr.Message)
			return
		}
		metrics.RecordDownload("server_error")
		writePlainTextError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.RecordDownload("ok")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func outcomeFor(kind publish.ErrorKind) string {
	if kind == publish.NotFound {
		return "not_found"
	}
	return "server_error"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		writePlainTextError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writePlainTextError writes a text/plain 4xx/5xx body. convertErrorsToJSON
// rewrites this into the registry protocol's {"errors":[...]} shape before
// it reaches the client.
func writePlainTextError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(message))
}
