// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/cargoindex/internal/catalog"
	"github.com/tomtom215/cargoindex/internal/eventbus"
	"github.com/tomtom215/cargoindex/internal/filestore"
	"github.com/tomtom215/cargoindex/internal/httpapi"
	"github.com/tomtom215/cargoindex/internal/index"
	"github.com/tomtom215/cargoindex/internal/logging"
	"github.com/tomtom215/cargoindex/internal/publish"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registry HTTP server (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfigAndLogger()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	db, err := catalog.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer func() { _ = db.Close() }()

	archiveRoot := filepath.Join(filepath.Dir(cfg.Server.RepositoryPath), "download_files")
	files := filestore.New(archiveRoot)

	indexWriter := index.NewWriter(cfg.Server.RepositoryPath)

	bus := eventbus.New()
	defer func() { _ = bus.Close() }()

	subscriberCtx, stopSubscriber := context.WithCancel(ctx)
	defer stopSubscriber()
	go func() {
		if err := eventbus.RunDrainingSubscriber(subscriberCtx, bus); err != nil {
			logging.Warn().Err(err).Msg("publish-event subscriber stopped")
		}
	}()

	orchestrator := publish.New(db, files, indexWriter, bus)
	router := httpapi.NewRouter(&httpapi.Server{Orchestrator: orchestrator, Files: files})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serveErrCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("cargoindex-server listening")
		serveErrCh <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-serveErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	logging.Info().Msg("cargoindex-server stopped gracefully")
	return nil
}
