// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

/*
Package metrics provides Prometheus instrumentation for the registry server.

# Overview

The package provides metrics for:
  - HTTP request latency and throughput
  - Publish attempts by classification (new crate / new version / old
    version republish) and outcome
  - Download attempts by outcome
  - Git index-commit subprocess duration, by step (reset/add/commit)
  - Catalog (DuckDB) transaction duration and query errors

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Usage

	metrics.RecordPublish("new_crate", "ok", elapsed)
	metrics.RecordGitCommitStep("commit", elapsed, err)
	metrics.RecordDBTransaction(committed, elapsed)
*/
package metrics
