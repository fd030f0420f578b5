// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package index

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cargoindex/internal/registry"
)

func TestFilePath_Bucketing(t *testing.T) {
	repo := "/repo"
	require.Equal(t, filepath.Join(repo, "1", "a"), filePath(repo, "a"))
	require.Equal(t, filepath.Join(repo, "2", "ab"), filePath(repo, "ab"))
	require.Equal(t, filepath.Join(repo, "3", "a", "abc"), filePath(repo, "abc"))
	require.Equal(t, filepath.Join(repo, "ab", "cd", "abcd"), filePath(repo, "abcd"))
	require.Equal(t, filepath.Join(repo, "ab", "cd", "abcde"), filePath(repo, "abcde"))
}

func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runOrSkip(t, dir, "init", "-q")
	runOrSkip(t, dir, "config", "user.email", "test@example.com")
	runOrSkip(t, dir, "config", "user.name", "test")

	// an initial commit so "git reset HEAD" has a HEAD to reset to.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitkeep"), []byte(""), 0o644))
	runOrSkip(t, dir, "add", ".gitkeep")
	runOrSkip(t, dir, "commit", "-q", "-m", "init")
	return dir
}

func runOrSkip(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("git not usable in this environment: %v: %s", err, out)
	}
}

func TestWriter_AddVersion_AppendsAndCommits(t *testing.T) {
	dir := initTestRepo(t)
	w := NewWriter(dir)

	vm := registry.VersionMetadata{
		Name:      "foo",
		Vers:      "0.1.0",
		Deps:      []registry.VersionDependencyMetadata{},
		Cksum:     "deadbeef",
		Features:  map[string][]string{},
		Features2: map[string][]string{},
		V:         2,
	}

	require.NoError(t, w.AddVersion(context.Background(), vm))

	path := filePath(dir, "foo")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"name":"foo"`)
	require.Equal(t, byte('\n'), data[len(data)-1])

	log := exec.Command("git", "log", "-1", "--pretty=%s")
	log.Dir = dir
	out, err := log.CombinedOutput()
	require.NoError(t, err)
	require.Contains(t, string(out), "ADD CRATE: [foo] version: 0.1.0")
}

func TestWriter_AddVersion_SecondPublishAppendsSecondLine(t *testing.T) {
	dir := initTestRepo(t)
	w := NewWriter(dir)

	vm1 := registry.VersionMetadata{Name: "foo", Vers: "0.1.0", Features: map[string][]string{}, Features2: map[string][]string{}, V: 2}
	vm2 := registry.VersionMetadata{Name: "foo", Vers: "0.2.0", Features: map[string][]string{}, Features2: map[string][]string{}, V: 2}

	require.NoError(t, w.AddVersion(context.Background(), vm1))
	require.NoError(t, w.AddVersion(context.Background(), vm2))

	data, err := os.ReadFile(filePath(dir, "foo"))
	require.NoError(t, err)
	lines := splitLines(string(data))
	require.Len(t, lines, 2)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
