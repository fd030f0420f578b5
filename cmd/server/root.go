// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cargoindex/internal/config"
	"github.com/tomtom215/cargoindex/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "cargoindex-server",
	Short: "A package-registry server compatible with the cargo registry protocol",
	Long: `cargoindex-server reconciles publishes across three stores: a DuckDB
catalog, a content-addressed archive file store, and a git-tracked
JSON-lines dependency index.`,
	// serve is the default when invoked with no subcommand.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute adds all child commands to the root command and runs it. Called
// by main.main().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfigAndLogger loads REGISTRY_SERVER_* configuration and initializes
// the process-wide logger from it, the shared prelude for every subcommand.
func loadConfigAndLogger() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	return cfg, nil
}
