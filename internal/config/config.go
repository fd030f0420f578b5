// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package config loads the server's runtime configuration from environment
// variables via koanf/v2.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the registry server's runtime configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener and the on-disk index repository.
type ServerConfig struct {
	// IP is the address the HTTP listener binds to.
	IP string `koanf:"ip"`
	// Port is the HTTP listener's TCP port.
	Port int `koanf:"port"`
	// RepositoryPath is the absolute path to the git-tracked index checkout.
	// Canonicalized with filepath.Abs and checked for existence at startup.
	RepositoryPath string `koanf:"repository_path"`
}

// DatabaseConfig controls the embedded DuckDB catalog.
type DatabaseConfig struct {
	// Path is the DuckDB database file path.
	Path string `koanf:"path"`
	// MaxMemory is a DuckDB `SET memory_limit` value, e.g. "2GB". Optional.
	MaxMemory string `koanf:"max_memory"`
}

// LoggingConfig controls the process-wide logger. Optional, defaulted.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Addr returns the "ip:port" listen address.
func (c ServerConfig) Addr() string {
	return c.IP + ":" + strconv.Itoa(c.Port)
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{MaxMemory: "2GB"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

// missingEnvError reports a required environment variable that was absent
// or empty at startup.
type missingEnvError struct {
	name string
}

func (e *missingEnvError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.name)
}

// invalidEnvError reports a required environment variable whose value could
// not be parsed into the expected type.
type invalidEnvError struct {
	name  string
	value string
	cause error
}

func (e *invalidEnvError) Error() string {
	return fmt.Sprintf("environment variable %s=%q is invalid: %v", e.name, e.value, e.cause)
}

func (e *invalidEnvError) Unwrap() error {
	return e.cause
}

// canonicalizeRepositoryPath resolves path to an absolute path and confirms
// it exists, matching the "canonicalized at startup" requirement for the
// index repository.
func canonicalizeRepositoryPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving repository path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("repository path %q: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repository path %q is not a directory", abs)
	}
	return abs, nil
}
