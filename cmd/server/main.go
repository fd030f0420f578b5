// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package main is the entry point for the cargoindex registry server.
//
// The server initializes components in order: configuration (koanf/v2 from
// REGISTRY_SERVER_* environment variables), the embedded DuckDB catalog,
// the file-store and git-backed index, the in-process event bus, and
// finally the chi-routed HTTP listener. There is no supervisor tree —
// shutdown is a plain http.Server + signal.Notify sequence, since this
// server has exactly one long-running service (the listener) rather than
// the many background services a supervisor tree exists to coordinate.
package main

import (
	"context"
	"os"

	"github.com/tomtom215/cargoindex/internal/logging"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := Execute(ctx); err != nil {
		logging.Error().Err(err).Msg("cargoindex-server exited with error")
		os.Exit(1)
	}
}
