// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package publish implements the publish orchestrator (spec §4.6): the
// classification state machine and 12-step sequence that decode, validate,
// and commit a publish request across the catalog, file store, and index.
// The original's publish_handler is an unimplemented stub
// (original_source/src/publish.rs), so this package is built directly from
// spec.md §4.6/§7 rather than translated line-by-line.
package publish

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/cargoindex/internal/catalog"
	"github.com/tomtom215/cargoindex/internal/codec"
	"github.com/tomtom215/cargoindex/internal/eventbus"
	"github.com/tomtom215/cargoindex/internal/filestore"
	"github.com/tomtom215/cargoindex/internal/index"
	"github.com/tomtom215/cargoindex/internal/logging"
	"github.com/tomtom215/cargoindex/internal/registry"
)

// ErrorKind is the closed error taxonomy of spec §7.
type ErrorKind int

const (
	ClientBadRequest ErrorKind = iota
	ClientPayloadTooLarge
	ServerDbError
	ServerFileStoreError
	ServerIndexError
	NotFound
)

// StatusCode returns the HTTP status this error kind maps to.
func (k ErrorKind) StatusCode() int {
	switch k {
	case ClientBadRequest:
		return 400
	case ClientPayloadTooLarge:
		return 413
	case NotFound:
		return 404
	default:
		return 500
	}
}

// Error is the orchestrator's single error type, carrying the closed kind,
// a short client-facing phrase, and the underlying cause for logging.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func dbErr(message string, cause error) *Error {
	return &Error{Kind: ServerDbError, Message: message, Cause: cause}
}

// Classification is the three-way publish-kind decision of spec §4.6.
type Classification int

const (
	NewCrate Classification = iota
	NewVersionForExistingCrate
	OldVersionForExistingCrate
)

// Warnings is returned to the client on a successful publish.
type Warnings struct {
	InvalidCategories []string `json:"invalid_categories"`
	InvalidBadges     []string `json:"invalid_badges"`
	Other             []string `json:"other"`
}

// Result is what a successful Publish call returns.
type Result struct {
	Warnings Warnings
}

const staleVersionWarning = "Newer version for this crate is already in the registry. Categories and keywords will not be overwritten."
const normalizedCollisionMessage = "Crate exists under different -_ usage or capitalization"

// Orchestrator wires together the catalog, file store, index writer, and
// event bus for a single publish pipeline.
type Orchestrator struct {
	Catalog *catalog.DB
	Files   *filestore.Store
	Index   *index.Writer
	Bus     *eventbus.Bus
}

// New returns an Orchestrator over the given stores. bus may be nil, in
// which case publish events are not emitted.
func New(catalogDB *catalog.DB, files *filestore.Store, indexWriter *index.Writer, bus *eventbus.Bus) *Orchestrator {
	return &Orchestrator{Catalog: catalogDB, Files: files, Index: indexWriter, Bus: bus}
}

// Publish runs the full spec §4.6 sequence over a raw, length-framed
// request body and returns the warnings to report to the client.
func (o *Orchestrator) Publish(ctx context.Context, body []byte) (Result, error) {
	metadata, archive, err := codec.DecodeRequest(body)
	if err != nil {
		return Result{}, decodeError(err)
	}

	tx, err := o.Catalog.Conn().BeginTx(ctx, nil)
	if err != nil {
		return Result{}, dbErr("couldn't start transaction", err)
	}
	result, err := o.publishInTx(ctx, tx, metadata, archive)
	if err != nil {
		_ = tx.Rollback()
		return Result{}, err
	}

	if err := tx.Commit(); err != nil {
		return Result{}, dbErr("committing to database failed", err)
	}

	if o.Bus != nil {
		event := eventbus.PackagePublished{
			Name:           metadata.Name.Original(),
			Version:        metadata.Vers.StrippedString(),
			Classification: classificationName(result.classification),
			Cksum:          result.cksum,
		}
		if err := o.Bus.PublishPackagePublished(event); err != nil {
			logging.Warn().Err(err).Str("crate", metadata.Name.Original()).Msg("failed to publish event")
		}
	}

	return Result{Warnings: result.warnings}, nil
}

type txResult struct {
	warnings       Warnings
	classification Classification
	cksum          string
}

func (o *Orchestrator) publishInTx(ctx context.Context, tx *sql.Tx, metadata registry.PublishMetadata, archive []byte) (txResult, error) {
	existence, err := catalog.ExistsOrNormalized(ctx, tx, metadata.Name)
	if err != nil {
		return txResult{}, dbErr("couldn't check if crate exists", err)
	}
	if existence == catalog.NormalizedOnly {
		return txResult{}, &Error{Kind: ClientBadRequest, Message: normalizedCollisionMessage}
	}

	classification, err := o.classify(ctx, tx, metadata, existence)
	if err != nil {
		return txResult{}, err
	}

	warnings := Warnings{InvalidBadges: []string{}}

	switch classification {
	case NewCrate:
		if err := catalog.AddCrate(ctx, tx, metadata); err != nil {
			return txResult{}, dbErr("adding crate to db failed", err)
		}
		invalid, err := o.applyKeywordsAndCategories(ctx, tx, metadata)
		if err != nil {
			return txResult{}, err
		}
		warnings.InvalidCategories = invalid
	case NewVersionForExistingCrate:
		if err := catalog.DeleteKeywords(ctx, tx, metadata.Name); err != nil {
			return txResult{}, dbErr("removing old keywords failed", err)
		}
		if err := catalog.DeleteCategoryEntries(ctx, tx, metadata.Name); err != nil {
			return txResult{}, dbErr("removing old categories failed", err)
		}
		invalid, err := o.applyKeywordsAndCategories(ctx, tx, metadata)
		if err != nil {
			return txResult{}, err
		}
		warnings.InvalidCategories = invalid
	case OldVersionForExistingCrate:
		warnings.Other = append(warnings.Other, staleVersionWarning)
	}
	if warnings.InvalidCategories == nil {
		warnings.InvalidCategories = []string{}
	}
	if warnings.Other == nil {
		warnings.Other = []string{}
	}

	if err := o.Files.Create(metadata.Name, metadata.Vers, archive); err != nil {
		return txResult{}, &Error{Kind: ServerFileStoreError, Message: err.Error(), Cause: err}
	}

	versionMetadata := registry.BuildVersionMetadata(metadata, archive)

	if err := catalog.AddVersion(ctx, tx, metadata, versionMetadata.Cksum); err != nil {
		return txResult{}, dbErr("failed to add crate version to database", err)
	}

	if err := o.Index.AddVersion(ctx, versionMetadata); err != nil {
		return txResult{}, &Error{Kind: ServerIndexError, Message: "failed to add file to index", Cause: err}
	}

	return txResult{warnings: warnings, classification: classification, cksum: versionMetadata.Cksum}, nil
}

func (o *Orchestrator) classify(ctx context.Context, tx *sql.Tx, metadata registry.PublishMetadata, existence catalog.Existence) (Classification, error) {
	if existence == catalog.Absent {
		return NewCrate, nil
	}

	versions, err := catalog.GetVersions(ctx, tx, metadata.Name)
	if err != nil {
		return 0, dbErr("cannot get versions of crate", err)
	}

	var max *registry.Version
	for i := range versions {
		if max == nil || versions[i].Compare(*max) > 0 {
			v := versions[i]
			max = &v
		}
	}

	if max == nil || metadata.Vers.Compare(*max) > 0 {
		return NewVersionForExistingCrate, nil
	}
	return OldVersionForExistingCrate, nil
}

// applyKeywordsAndCategories runs spec §4.6.1's substep and returns the
// invalid category names (sorted for deterministic responses).
func (o *Orchestrator) applyKeywordsAndCategories(ctx context.Context, tx *sql.Tx, metadata registry.PublishMetadata) ([]string, error) {
	bad, err := catalog.GetBadCategories(ctx, tx, metadata.Categories)
	if err != nil {
		return nil, dbErr("Failed to check categories", err)
	}

	valid := make(map[string]struct{}, len(metadata.Categories))
	for c := range metadata.Categories {
		if _, isBad := bad[c]; !isBad {
			valid[c] = struct{}{}
		}
	}

	if err := catalog.InsertCategories(ctx, tx, metadata.Name, valid); err != nil {
		return nil, dbErr("Failed to insert categories", err)
	}
	if err := catalog.AddKeywords(ctx, tx, metadata.Name, metadata.Keywords); err != nil {
		return nil, dbErr("Couldn't add keywords", err)
	}

	invalid := make([]string, 0, len(bad))
	for c := range bad {
		invalid = append(invalid, c)
	}
	sort.Strings(invalid)
	return invalid, nil
}

func decodeError(err error) error {
	if errors.Is(err, codec.ErrUnexpectedEOF) {
		return &Error{Kind: ClientBadRequest, Message: "Unexpected end of data stream.", Cause: err}
	}
	var invalid *codec.InvalidMetadataError
	if errors.As(err, &invalid) {
		return &Error{Kind: ClientBadRequest, Message: invalid.Error(), Cause: err}
	}
	return &Error{Kind: ClientBadRequest, Message: err.Error(), Cause: err}
}

func classificationName(c Classification) string {
	switch c {
	case NewCrate:
		return "NewCrate"
	case NewVersionForExistingCrate:
		return "NewVersionForExistingCrate"
	case OldVersionForExistingCrate:
		return "OldVersionForExistingCrate"
	default:
		return "Unknown"
	}
}

// Download reads the archive for (name, version) from the file store,
// independent of the orchestrator's catalog/index state (spec §2: "Download
// is independent: orchestrator bypassed; file store lookup only.").
func Download(files *filestore.Store, name registry.PackageName, version registry.Version) ([]byte, error) {
	data, err := files.Read(name, version)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return nil, &Error{Kind: NotFound, Message: "crate or version doesn't exist", Cause: err}
		}
		return nil, &Error{Kind: ServerFileStoreError, Message: err.Error(), Cause: err}
	}
	return data, nil
}
