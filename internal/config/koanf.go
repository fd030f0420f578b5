// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

func lookupEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// requiredEnvVars names the environment variables spec.md §6 requires; the
// server refuses to start if any is missing or unparseable.
var requiredEnvVars = []string{
	"REGISTRY_SERVER_IP",
	"REGISTRY_SERVER_PORT",
	"REGISTRY_SERVER_REPOSITORY_PATH",
	"REGISTRY_SERVER_DATABASE_PATH",
}

// envTransformFunc maps REGISTRY_SERVER_* environment variable names to
// koanf config paths, e.g. REGISTRY_SERVER_IP -> server.ip.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	mappings := map[string]string{
		"registry_server_ip":              "server.ip",
		"registry_server_port":            "server.port",
		"registry_server_repository_path": "server.repository_path",
		"registry_server_database_path":   "database.path",
		"registry_server_database_memory": "database.max_memory",
		"registry_server_log_level":       "logging.level",
		"registry_server_log_format":      "logging.format",
	}

	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	return ""
}

// Load reads configuration from the process environment via koanf/v2's env
// provider. All four REGISTRY_SERVER_* variables are required; Load returns
// an error (never calls os.Exit itself) if one is missing or unparseable, or
// if the repository path does not exist — callers are expected to treat this
// as fatal at startup.
func Load() (*Config, error) {
	if err := checkRequiredEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	cfg := defaultConfig()

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	port, err := strconv.Atoi(k.String("server.port"))
	if err != nil {
		return nil, &invalidEnvError{name: "REGISTRY_SERVER_PORT", value: k.String("server.port"), cause: err}
	}
	if port < 0 || port > 65535 {
		return nil, &invalidEnvError{
			name:  "REGISTRY_SERVER_PORT",
			value: k.String("server.port"),
			cause: fmt.Errorf("port %d is outside the valid u16 range 0-65535", port),
		}
	}

	ip := k.String("server.ip")
	if net.ParseIP(ip) == nil {
		return nil, &invalidEnvError{name: "REGISTRY_SERVER_IP", value: ip, cause: fmt.Errorf("not a valid IP address")}
	}

	cfg.Server.IP = ip
	cfg.Server.Port = port
	cfg.Server.RepositoryPath = k.String("server.repository_path")
	cfg.Database.Path = k.String("database.path")

	if v := k.String("database.max_memory"); v != "" {
		cfg.Database.MaxMemory = v
	}
	if v := k.String("logging.level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := k.String("logging.format"); v != "" {
		cfg.Logging.Format = v
	}

	repoPath, err := canonicalizeRepositoryPath(cfg.Server.RepositoryPath)
	if err != nil {
		return nil, err
	}
	cfg.Server.RepositoryPath = repoPath

	return cfg, nil
}

func checkRequiredEnv() error {
	for _, name := range requiredEnvVars {
		if v, ok := lookupEnv(name); !ok || v == "" {
			return &missingEnvError{name: name}
		}
	}
	return nil
}
