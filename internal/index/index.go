// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package index writes the git-tracked, append-only JSON-lines index (spec
// §4.5), grounded on original_source/src/index.rs's add_file_to_index and
// its path-bucketing rule, with the git subprocess sequence run the way
// aretw0-loam/pkg/git.Client.Run wraps exec.Command — CombinedOutput so a
// non-zero git exit surfaces as an *exec.ExitError through Run's wrapped
// error, a stricter check than the original's Command::status(), which
// never inspected the exit code (spec §9: "any non-zero exit is a distinct
// variant of ServerIndexError").
package index

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cargoindex/internal/lockreg"
	"github.com/tomtom215/cargoindex/internal/registry"
)

// Error records which step of adding a version to the index failed (Op, a
// free-form label) and why (Cause), covering AddToIndexError's variants.
type Error struct {
	Op    string
	Cause error
}

func (e *Error) Error() string { return fmt.Sprintf("index: %s: %s", e.Op, e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

func wrap(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Op: op, Cause: cause}
}

// Writer appends version metadata to the index and commits the change to
// git, serialized through a process-wide lock on the repository path.
type Writer struct {
	repo *lockreg.Named[string]
}

// NewWriter returns a Writer for the git-tracked checkout at repositoryPath.
// The path is expected to already be canonicalized (config.Load does this
// at startup).
func NewWriter(repositoryPath string) *Writer {
	return &Writer{repo: lockreg.New(repositoryPath)}
}

// AddVersion appends versionMetadata as a JSON line to its bucketed index
// file and commits the change, under the repository lock for the whole
// sequence (spec §4.5: the lock must cover read-modify-write-commit as a
// unit, not just the file write).
func (w *Writer) AddVersion(ctx context.Context, versionMetadata registry.VersionMetadata) error {
	repositoryPath, unlock := w.repo.Lock()
	defer unlock()

	path := filePath(repositoryPath, versionMetadata.Name)
	if err := appendLine(path, versionMetadata); err != nil {
		return err
	}

	message := fmt.Sprintf("ADD CRATE: [%s] version: %s", versionMetadata.Name, versionMetadata.Vers)
	return commit(ctx, repositoryPath, path, message)
}

// filePath computes the bucketed index path for a package name, using the
// original (unnormalized) name's characters per spec §4.5:
//
//	1 char:  <repo>/1/<name>
//	2 chars: <repo>/2/<name>
//	3 chars: <repo>/3/<first-char>/<name>
//	4+:      <repo>/<first-two>/<next-two>/<name>
func filePath(repositoryPath string, name string) string {
	runes := []rune(name)
	switch len(runes) {
	case 1:
		return filepath.Join(repositoryPath, "1", name)
	case 2:
		return filepath.Join(repositoryPath, "2", name)
	case 3:
		return filepath.Join(repositoryPath, "3", string(runes[0]), name)
	default:
		return filepath.Join(repositoryPath, string(runes[0:2]), string(runes[2:4]), name)
	}
}

func appendLine(path string, versionMetadata registry.VersionMetadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return wrap("create directory", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return wrap("open index file", err)
	}
	defer f.Close()

	line, err := json.Marshal(versionMetadata)
	if err != nil {
		return wrap("serialize json", err)
	}
	line = append(line, '\n')

	if _, err := f.Write(line); err != nil {
		return wrap("write index file", err)
	}
	return nil
}

func commit(ctx context.Context, repositoryPath, filePath, message string) error {
	if err := runGit(ctx, repositoryPath, "reset", "-q", "HEAD"); err != nil {
		return wrap("git reset", err)
	}

	canonical, err := filepath.Abs(filePath)
	if err != nil {
		return wrap("canonicalize file path", err)
	}
	if err := runGit(ctx, repositoryPath, "add", canonical); err != nil {
		return wrap("git add", err)
	}

	if err := runGit(ctx, repositoryPath, "commit", "--no-gpg-sign", "-m", message); err != nil {
		return wrap("git commit", err)
	}
	return nil
}

// runGit always runs to completion, regardless of ctx's cancellation: spec
// §4.9 forbids cancelling the git subprocess phase mid-sequence, since a
// SIGKILL between "reset", "add", and "commit" can leave the git index
// half-staged. context.WithoutCancel strips ctx's Done channel and cancel
// cause while keeping any values it carries (e.g. for log correlation).
func runGit(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(context.WithoutCancel(ctx), "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %v: %w\noutput: %s", args, err, out)
	}
	return nil
}
