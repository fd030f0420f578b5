// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cargoindex/internal/catalog"
	"github.com/tomtom215/cargoindex/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the catalog schema to the configured DuckDB database and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigAndLogger()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		db, err := catalog.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("applying catalog schema: %w", err)
		}
		defer func() { _ = db.Close() }()

		logging.Info().Str("path", cfg.Database.Path).Msg("catalog schema applied")
		return nil
	},
}
