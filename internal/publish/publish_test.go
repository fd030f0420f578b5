// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package publish

import (
	"context"
	"encoding/binary"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cargoindex/internal/catalog"
	"github.com/tomtom215/cargoindex/internal/config"
	"github.com/tomtom215/cargoindex/internal/filestore"
	"github.com/tomtom215/cargoindex/internal/index"
	"github.com/tomtom215/cargoindex/internal/registry"
)

func mustName(t *testing.T) registry.PackageName {
	t.Helper()
	n, err := registry.ParsePackageName("foo")
	require.NoError(t, err)
	return n
}

func mustVersion(t *testing.T) registry.Version {
	t.Helper()
	v, err := registry.ParseVersion("0.1.0")
	require.NoError(t, err)
	return v
}

func encodeRequest(metadataJSON string, archive []byte) []byte {
	meta := []byte(metadataJSON)
	buf := make([]byte, 0, 8+len(meta)+len(archive))
	metaLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(metaLen, uint32(len(meta)))
	buf = append(buf, metaLen...)
	buf = append(buf, meta...)
	fileLen := make([]byte, 4)
	binary.LittleEndian.PutUint32(fileLen, uint32(len(archive)))
	buf = append(buf, fileLen...)
	buf = append(buf, archive...)
	return buf
}

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	db, err := catalog.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "catalog.duckdb")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := t.TempDir()
	initGitRepo(t, repo)

	return New(db, filestore.New(t.TempDir()), index.NewWriter(repo), nil)
}

func initGitRepo(t *testing.T, dir string) {
	t.Helper()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Skipf("git not usable in this environment: %v: %s", err, out)
		}
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	run("commit", "--allow-empty", "-q", "-m", "init")
}

const fooMetadataJSON = `{"name":"foo","vers":"0.1.0","description":"d","deps":[],"features":{},"authors":["a"],"keywords":[],"categories":[],"badges":{}}`

func TestPublish_NewCrateHappyPath(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	body := encodeRequest(fooMetadataJSON, []byte("HELLO"))
	result, err := o.Publish(ctx, body)
	require.NoError(t, err)
	require.Empty(t, result.Warnings.InvalidCategories)
	require.Empty(t, result.Warnings.InvalidBadges)
	require.Empty(t, result.Warnings.Other)
}

func TestPublish_NormalizedMatchOnlyRejected(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Publish(ctx, encodeRequest(fooMetadataJSON, []byte("HELLO")))
	require.NoError(t, err)

	otherMetadata := `{"name":"FOO","vers":"0.2.0","description":"d","deps":[],"features":{},"authors":["a"],"keywords":[],"categories":[],"badges":{}}`
	_, err = o.Publish(ctx, encodeRequest(otherMetadata, []byte("WORLD")))
	require.Error(t, err)
	var pubErr *Error
	require.ErrorAs(t, err, &pubErr)
	require.Equal(t, ClientBadRequest, pubErr.Kind)
	require.Equal(t, normalizedCollisionMessage, pubErr.Message)
}

func TestPublish_NewVersionForExistingCrate(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Publish(ctx, encodeRequest(fooMetadataJSON, []byte("HELLO")))
	require.NoError(t, err)

	newVersion := `{"name":"foo","vers":"0.2.0","description":"d","deps":[],"features":{},"authors":["a"],"keywords":["k1"],"categories":[],"badges":{}}`
	result, err := o.Publish(ctx, encodeRequest(newVersion, []byte("WORLD")))
	require.NoError(t, err)
	require.Empty(t, result.Warnings.Other)
}

func TestPublish_OldVersionForExistingCrate(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Publish(ctx, encodeRequest(fooMetadataJSON, []byte("HELLO")))
	require.NoError(t, err)

	newVersion := `{"name":"foo","vers":"0.2.0","description":"d","deps":[],"features":{},"authors":["a"],"keywords":["k1"],"categories":[],"badges":{}}`
	_, err = o.Publish(ctx, encodeRequest(newVersion, []byte("WORLD")))
	require.NoError(t, err)

	stale := `{"name":"foo","vers":"0.1.5","description":"d","deps":[],"features":{},"authors":["a"],"keywords":["k2"],"categories":[],"badges":{}}`
	result, err := o.Publish(ctx, encodeRequest(stale, []byte("STALE")))
	require.NoError(t, err)
	require.Contains(t, result.Warnings.Other, staleVersionWarning)
}

func TestPublish_DuplicateArchiveFails(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Publish(ctx, encodeRequest(fooMetadataJSON, []byte("HELLO")))
	require.NoError(t, err)

	_, err = o.Publish(ctx, encodeRequest(fooMetadataJSON, []byte("HELLO")))
	require.Error(t, err)
	var pubErr *Error
	require.ErrorAs(t, err, &pubErr)
	require.Equal(t, ServerFileStoreError, pubErr.Kind)
}

func TestPublish_MalformedFrame(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()

	_, err := o.Publish(ctx, []byte{1, 2, 3})
	require.Error(t, err)
	var pubErr *Error
	require.ErrorAs(t, err, &pubErr)
	require.Equal(t, ClientBadRequest, pubErr.Kind)
	require.Equal(t, "Unexpected end of data stream.", pubErr.Message)
}

func TestDownload_NotFound(t *testing.T) {
	store := filestore.New(t.TempDir())
	name, version := mustName(t), mustVersion(t)

	_, err := Download(store, name, version)
	require.Error(t, err)
	var pubErr *Error
	require.ErrorAs(t, err, &pubErr)
	require.Equal(t, NotFound, pubErr.Kind)
	require.Equal(t, 404, pubErr.Kind.StatusCode())
}
