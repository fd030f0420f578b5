// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cargoindex/internal/config"
	"github.com/tomtom215/cargoindex/internal/registry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "catalog.duckdb")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustName(t *testing.T, s string) registry.PackageName {
	t.Helper()
	n, err := registry.ParsePackageName(s)
	require.NoError(t, err)
	return n
}

func mustVersion(t *testing.T, s string) registry.Version {
	t.Helper()
	v, err := registry.ParseVersion(s)
	require.NoError(t, err)
	return v
}

func minimalMetadata(t *testing.T, name, vers string) registry.PublishMetadata {
	t.Helper()
	desc, err := registry.ParseNonEmptyString("a package")
	require.NoError(t, err)
	return registry.PublishMetadata{
		Name:        mustName(t, name),
		Vers:        mustVersion(t, vers),
		Description: desc,
		Authors:     []string{"author"},
		Keywords:    map[string]struct{}{},
		Categories:  map[string]struct{}{},
		Features:    map[registry.FeatureName][]string{},
	}
}

func TestExistsOrNormalized_Absent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	existence, err := ExistsOrNormalized(ctx, db.Conn(), mustName(t, "foo"))
	require.NoError(t, err)
	require.Equal(t, Absent, existence)
}

func TestExistsOrNormalized_ExactAndNormalized(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, AddCrate(ctx, db.Conn(), minimalMetadata(t, "Foo-Bar", "0.1.0")))

	existence, err := ExistsOrNormalized(ctx, db.Conn(), mustName(t, "Foo-Bar"))
	require.NoError(t, err)
	require.Equal(t, Exact, existence)

	existence, err = ExistsOrNormalized(ctx, db.Conn(), mustName(t, "foo_bar"))
	require.NoError(t, err)
	require.Equal(t, NormalizedOnly, existence)

	existence, err = ExistsOrNormalized(ctx, db.Conn(), mustName(t, "unrelated"))
	require.NoError(t, err)
	require.Equal(t, Absent, existence)
}

func TestAddVersionAndGetVersions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	metadata := minimalMetadata(t, "foo", "0.1.0")

	require.NoError(t, AddCrate(ctx, db.Conn(), metadata))
	require.NoError(t, AddVersion(ctx, db.Conn(), metadata, "deadbeef"))

	versions, err := GetVersions(ctx, db.Conn(), metadata.Name)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	require.Equal(t, "0.1.0", versions[0].String())
}

func TestKeywordsAndCategories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	metadata := minimalMetadata(t, "foo", "0.1.0")
	require.NoError(t, AddCrate(ctx, db.Conn(), metadata))

	require.NoError(t, AddKeywords(ctx, db.Conn(), metadata.Name, map[string]struct{}{"cli": {}, "parsing": {}}))
	require.NoError(t, DeleteKeywords(ctx, db.Conn(), metadata.Name))

	_, err := db.Conn().ExecContext(ctx,
		`INSERT INTO valid_categories (category_name) VALUES ('development-tools')`)
	require.NoError(t, err)

	bad, err := GetBadCategories(ctx, db.Conn(), map[string]struct{}{
		"development-tools": {},
		"not-a-category":    {},
	})
	require.NoError(t, err)
	require.Contains(t, bad, "not-a-category")
	require.NotContains(t, bad, "development-tools")

	require.NoError(t, InsertCategories(ctx, db.Conn(), metadata.Name, map[string]struct{}{"development-tools": {}}))
	require.NoError(t, DeleteCategoryEntries(ctx, db.Conn(), metadata.Name))
}

func TestAddVersion_DuplicateRejected(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	metadata := minimalMetadata(t, "foo", "0.1.0")

	require.NoError(t, AddCrate(ctx, db.Conn(), metadata))
	require.NoError(t, AddVersion(ctx, db.Conn(), metadata, "deadbeef"))

	err := AddVersion(ctx, db.Conn(), metadata, "deadbeef")
	require.ErrorIs(t, err, ErrVersionAlreadyExists)
}

func TestAddVersion_InTransaction(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	metadata := minimalMetadata(t, "foo", "0.1.0")

	tx, err := db.Conn().BeginTx(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, AddCrate(ctx, tx, metadata))
	require.NoError(t, AddVersion(ctx, tx, metadata, "cksum"))
	require.NoError(t, tx.Commit())

	versions, err := GetVersions(ctx, db.Conn(), metadata.Name)
	require.NoError(t, err)
	require.Len(t, versions, 1)
}
