// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package catalog is the embedded-DuckDB metadata store (spec §4.4),
// translating original_source/src/postgres.rs's sqlx/Postgres queries to
// database/sql over duckdb-go/v2 (SPEC_FULL.md §4.9.1). Every write here
// runs inside a *sql.Tx owned by the caller (internal/publish); this
// package never begins or commits a transaction itself.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/cargoindex/internal/config"
	"github.com/tomtom215/cargoindex/internal/registry"
)

// ErrVersionAlreadyExists is returned by AddVersion when the
// UNIQUE(crate_id, vers) constraint rejects a second row for a version
// already catalogued — the DB-side half of the two-layer duplicate-publish
// guarantee spec §5 describes, the file store's exclusive-create being the
// other half.
var ErrVersionAlreadyExists = errors.New("version already exists for this crate")

// isUniqueConstraintError reports whether err is a DuckDB unique-constraint
// violation, matched on message text the way
// tomtom215-cartographus/internal/database/crud_media_servers.go's
// isUniqueConstraintError does, since duckdb-go/v2 does not expose a typed
// constraint-violation error.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// schema creates every table the registry protocol needs, plus the
// normalize_crate_name scalar macro that stands in for Postgres's
// equivalent function (original_source/src/postgres.rs's
// crate_exists_or_normalized query).
const schema = `
CREATE SEQUENCE IF NOT EXISTS crate_id_seq;
CREATE SEQUENCE IF NOT EXISTS category_id_seq;

CREATE TABLE IF NOT EXISTS crates (
	crate_id      BIGINT PRIMARY KEY DEFAULT nextval('crate_id_seq'),
	original_name TEXT NOT NULL UNIQUE,
	description   TEXT,
	documentation TEXT,
	homepage      TEXT,
	readme        TEXT,
	readme_file   TEXT,
	license       TEXT,
	license_file  TEXT,
	repository    TEXT
);

CREATE TABLE IF NOT EXISTS keywords (
	crate_id BIGINT NOT NULL REFERENCES crates(crate_id),
	keyword  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS valid_categories (
	category_id   BIGINT PRIMARY KEY DEFAULT nextval('category_id_seq'),
	category_name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS crate_categories (
	crate_id    BIGINT NOT NULL REFERENCES crates(crate_id),
	category_id BIGINT NOT NULL REFERENCES valid_categories(category_id)
);

-- CREATE TABLE IF NOT EXISTS is a no-op against a versions table that
-- already exists, so this constraint only applies to databases created by
-- this schema from scratch; Open does not ALTER an older table to add it.
CREATE TABLE IF NOT EXISTS versions (
	crate_id     BIGINT NOT NULL REFERENCES crates(crate_id),
	vers         TEXT NOT NULL,
	cksum        TEXT NOT NULL,
	links        TEXT,
	rust_version TEXT,
	UNIQUE(crate_id, vers)
);

CREATE TABLE IF NOT EXISTS version_features (
	crate_id      BIGINT NOT NULL REFERENCES crates(crate_id),
	crate_version TEXT NOT NULL,
	feature_name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS feature_dependencies (
	crate_id        BIGINT NOT NULL REFERENCES crates(crate_id),
	crate_version   TEXT NOT NULL,
	feature_name    TEXT NOT NULL,
	dependency_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS version_authors (
	crate_id BIGINT NOT NULL REFERENCES crates(crate_id),
	version  TEXT NOT NULL,
	author   TEXT NOT NULL
);
`

const normalizeCrateNameMacro = `CREATE OR REPLACE MACRO normalize_crate_name(s) AS lower(replace(s, '-', '_'));`

// DB wraps the embedded DuckDB catalog connection.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if absent) the DuckDB database file at cfg.Path,
// applies the schema, and returns a ready DB.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	memLimit := cfg.MaxMemory
	if memLimit == "" {
		memLimit = "2GB"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&max_memory=%s", cfg.Path, memLimit)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initialize(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) initialize() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("applying catalog schema: %w", err)
	}
	if _, err := db.conn.Exec(normalizeCrateNameMacro); err != nil {
		return fmt.Errorf("creating normalize_crate_name macro: %w", err)
	}
	return nil
}

// Conn returns the underlying *sql.DB, used by internal/publish to begin
// the transaction each publish runs inside.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Existence classifies how a crate name relates to what is already
// catalogued, mirroring original_source/src/postgres.rs's CrateExists enum.
type Existence int

const (
	// Absent means no crate with this name or its normalized form exists.
	Absent Existence = iota
	// NormalizedOnly means a differently-cased or dash/underscore-swapped
	// crate with the same normalized form already exists.
	NormalizedOnly
	// Exact means a crate with this exact original name already exists.
	Exact
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ExistsExact reports whether a crate with this exact original name exists.
func ExistsExact(ctx context.Context, q querier, name registry.PackageName) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT crate_id FROM crates WHERE original_name = ?)`,
		name.Original(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking exact crate existence: %w", err)
	}
	return exists, nil
}

// ExistsOrNormalized classifies name against the catalog, mirroring
// crate_exists_or_normalized.
func ExistsOrNormalized(ctx context.Context, q querier, name registry.PackageName) (Existence, error) {
	exact, err := ExistsExact(ctx, q, name)
	if err != nil {
		return Absent, err
	}
	if exact {
		return Exact, nil
	}

	var exists bool
	err = q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT crate_id FROM crates WHERE normalize_crate_name(original_name) = ?)`,
		name.Normalized(),
	).Scan(&exists)
	if err != nil {
		return Absent, fmt.Errorf("checking normalized crate existence: %w", err)
	}
	if exists {
		return NormalizedOnly, nil
	}
	return Absent, nil
}

// AddCrate inserts a new crate row.
func AddCrate(ctx context.Context, q querier, metadata registry.PublishMetadata) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO crates (
			original_name, description, documentation, homepage,
			readme, readme_file, license, license_file, repository
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		metadata.Name.Original(),
		metadata.Description.String(),
		metadata.Documentation,
		metadata.Homepage,
		metadata.Readme,
		metadata.ReadmeFile,
		metadata.License,
		metadata.LicenseFile,
		metadata.Repository,
	)
	if err != nil {
		return fmt.Errorf("inserting crate %s: %w", metadata.Name, err)
	}
	return nil
}

// AddKeywords inserts one row per keyword for name. Translated from a
// single unnest($2::TEXT[]) Postgres insert into a per-item loop, since
// database/sql placeholder binding has no array parameter equivalent.
func AddKeywords(ctx context.Context, q querier, name registry.PackageName, keywords map[string]struct{}) error {
	for keyword := range keywords {
		_, err := q.ExecContext(ctx,
			`INSERT INTO keywords (crate_id, keyword)
			VALUES ((SELECT crate_id FROM crates WHERE original_name = ?), ?)`,
			name.Original(), keyword,
		)
		if err != nil {
			return fmt.Errorf("inserting keyword %q for %s: %w", keyword, name, err)
		}
	}
	return nil
}

// DeleteKeywords removes every keyword row for name.
func DeleteKeywords(ctx context.Context, q querier, name registry.PackageName) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM keywords WHERE crate_id IN (SELECT crate_id FROM crates WHERE original_name = ?)`,
		name.Original(),
	)
	if err != nil {
		return fmt.Errorf("deleting keywords for %s: %w", name, err)
	}
	return nil
}

// GetBadCategories returns the subset of categories that are not present in
// valid_categories, mirroring get_bad_categories's anti-join.
func GetBadCategories(ctx context.Context, q querier, categories map[string]struct{}) (map[string]struct{}, error) {
	bad := make(map[string]struct{})
	for category := range categories {
		var exists bool
		err := q.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT category_id FROM valid_categories WHERE category_name = ?)`,
			category,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("checking category %q: %w", category, err)
		}
		if !exists {
			bad[category] = struct{}{}
		}
	}
	return bad, nil
}

// InsertCategories links name to each of categories, assumed already
// validated via GetBadCategories.
func InsertCategories(ctx context.Context, q querier, name registry.PackageName, categories map[string]struct{}) error {
	for category := range categories {
		_, err := q.ExecContext(ctx,
			`INSERT INTO crate_categories (crate_id, category_id)
			SELECT crates.crate_id, valid_categories.category_id
			FROM crates
			JOIN valid_categories ON valid_categories.category_name = ?
			WHERE crates.original_name = ?`,
			category, name.Original(),
		)
		if err != nil {
			return fmt.Errorf("linking category %q to %s: %w", category, name, err)
		}
	}
	return nil
}

// DeleteCategoryEntries removes every category link for name.
func DeleteCategoryEntries(ctx context.Context, q querier, name registry.PackageName) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM crate_categories WHERE crate_id IN (SELECT crate_id FROM crates WHERE original_name = ?)`,
		name.Original(),
	)
	if err != nil {
		return fmt.Errorf("deleting category entries for %s: %w", name, err)
	}
	return nil
}

// AddVersion inserts the version row plus its features, feature
// dependencies, and authors, mirroring add_version.
func AddVersion(ctx context.Context, q querier, metadata registry.PublishMetadata, cksum string) error {
	vers := metadata.Vers.StrippedString()

	var rustVersion *string
	if metadata.RustVersion != nil {
		s := metadata.RustVersion.String()
		rustVersion = &s
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO versions (crate_id, vers, cksum, links, rust_version)
		SELECT crates.crate_id, ?, ?, ?, ?
		FROM crates
		WHERE crates.original_name = ?`,
		vers, cksum, metadata.Links, rustVersion, metadata.Name.Original(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("inserting version %s for %s: %w", vers, metadata.Name, ErrVersionAlreadyExists)
		}
		return fmt.Errorf("inserting version %s for %s: %w", vers, metadata.Name, err)
	}

	for feature, deps := range metadata.Features {
		_, err := q.ExecContext(ctx,
			`INSERT INTO version_features (crate_id, crate_version, feature_name)
			SELECT crates.crate_id, ?, ?
			FROM crates
			WHERE crates.original_name = ?`,
			vers, feature.String(), metadata.Name.Original(),
		)
		if err != nil {
			return fmt.Errorf("inserting feature %s for %s %s: %w", feature, metadata.Name, vers, err)
		}

		for _, dep := range deps {
			_, err := q.ExecContext(ctx,
				`INSERT INTO feature_dependencies (crate_id, crate_version, feature_name, dependency_name)
				SELECT crates.crate_id, ?, ?, ?
				FROM crates
				WHERE crates.original_name = ?`,
				vers, feature.String(), dep, metadata.Name.Original(),
			)
			if err != nil {
				return fmt.Errorf("inserting feature dependency %s/%s for %s %s: %w", feature, dep, metadata.Name, vers, err)
			}
		}
	}

	for _, author := range metadata.Authors {
		_, err := q.ExecContext(ctx,
			`INSERT INTO version_authors (crate_id, version, author)
			SELECT crates.crate_id, ?, ?
			FROM crates
			WHERE crates.original_name = ?`,
			vers, author, metadata.Name.Original(),
		)
		if err != nil {
			return fmt.Errorf("inserting author %q for %s %s: %w", author, metadata.Name, vers, err)
		}
	}

	return nil
}

// GetVersions returns every version catalogued for name.
func GetVersions(ctx context.Context, q querier, name registry.PackageName) ([]registry.Version, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT versions.vers
		FROM versions
		JOIN crates ON versions.crate_id = crates.crate_id
		WHERE crates.original_name = ?`,
		name.Original(),
	)
	if err != nil {
		return nil, fmt.Errorf("listing versions for %s: %w", name, err)
	}
	defer rows.Close()

	var result []registry.Version
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning version row for %s: %w", name, err)
		}
		v, err := registry.ParseVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("catalog contains invalid version %q for %s: %w", raw, name, err)
		}
		result = append(result, v)
	}
	return result, rows.Err()
}
