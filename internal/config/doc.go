// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package config loads cargoindex's runtime configuration.
//
// Configuration is sourced entirely from the process environment via
// koanf/v2's env provider — there is no config file layer, since the server
// has exactly four required settings:
//
//	REGISTRY_SERVER_IP                HTTP listen address
//	REGISTRY_SERVER_PORT              HTTP listen port
//	REGISTRY_SERVER_REPOSITORY_PATH   path to the git-tracked index checkout
//	REGISTRY_SERVER_DATABASE_PATH     DuckDB catalog file path
//
// All four are required; Load returns an error if any is missing, empty, or
// unparseable. Callers (cmd/server) treat that error as fatal.
//
// Three optional variables tune ambient behavior and fall back to sane
// defaults when unset: REGISTRY_SERVER_LOG_LEVEL (default "info"),
// REGISTRY_SERVER_LOG_FORMAT (default "json") and
// REGISTRY_SERVER_DATABASE_MEMORY (default "2GB").
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("configuration error")
//	}
package config
