// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package logging provides centralized zerolog-based structured logging for
// cargoindex.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production (machine-parseable)
//   - Console output format for development (human-readable)
//   - Global logger configuration at startup
//   - Context-aware logging with correlation ID and request ID propagation
//
// # Quick Start
//
//	import "github.com/tomtom215/cargoindex/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("crate", name).Msg("publish accepted")
//	logging.Error().Err(err).Msg("publish failed")
//
//	logging.Ctx(ctx).Info().Msg("processing request")
//
// # Log Levels
//
// Supported log levels (from most to least verbose): trace, debug, info,
// warn, error, fatal, panic.
//
// # Structured Logging
//
// Always terminate a chain with Msg/Msgf/Send — a chain left hanging never
// emits:
//
//	logging.Info().Str("key", "value").Msg("message")  // correct
//	logging.Info().Str("key", "value")                 // wrong - never emitted
//
// # Component Loggers
//
//	publishLogger := logging.WithComponent("publish")
//	publishLogger.Info().Msg("starting")
//
// # Context-Aware Logging
//
//	logger := logging.Ctx(ctx)
//	logger.Info().Msg("processing request")
//
// # Output Formats
//
// JSON (production):
//
//	{"level":"info","time":"2026-01-03T10:30:00Z","message":"server starting","port":8080}
//
// Console (development):
//
//	10:30:00 INF server starting port=8080
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// protected by a sync.RWMutex for configuration changes.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
package logging
