// Package codec decodes the length-framed publish request body (spec §4.1):
//
//	u32_le metadata_len | metadata_len bytes of JSON | u32_le file_len | file_len bytes of archive
//
// Grounded on original_source/src/publish.rs's extract_request_body.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cargoindex/internal/registry"
	"github.com/tomtom215/cargoindex/internal/validation"
)

// ErrUnexpectedEOF is returned when any length prefix or the bytes it
// announces are short — the body ends before the frame says it should.
var ErrUnexpectedEOF = errors.New("unexpected end of data stream")

// InvalidMetadataError wraps a JSON-decode or field-validation failure, kept
// distinct from ErrUnexpectedEOF so the HTTP layer can still map both to 400
// while logging the underlying cause (spec §7 ClientBadRequest).
type InvalidMetadataError struct {
	Cause error
}

func (e *InvalidMetadataError) Error() string {
	return fmt.Sprintf("invalid metadata: %s", e.Cause)
}

func (e *InvalidMetadataError) Unwrap() error { return e.Cause }

// rawMetadata mirrors the publish-request JSON shape (spec §3) before field
// validation promotes it into registry.PublishMetadata.
type rawMetadata struct {
	Name          string                       `json:"name"`
	Vers          string                       `json:"vers"`
	Deps          []rawDependency              `json:"deps"`
	Features      map[string][]string          `json:"features"`
	Authors       []string                     `json:"authors" validate:"required,min=1,dive,required"`
	Description   *string                      `json:"description"`
	Documentation *string                      `json:"documentation"`
	Homepage      *string                      `json:"homepage"`
	Readme        *string                      `json:"readme"`
	ReadmeFile    *string                      `json:"readme_file"`
	Keywords      []string                     `json:"keywords"`
	Categories    []string                     `json:"categories"`
	License       *string                      `json:"license"`
	LicenseFile   *string                      `json:"license_file"`
	Repository    *string                      `json:"repository"`
	Badges        map[string]map[string]string `json:"badges"`
	Links         *string                      `json:"links"`
	RustVersion   *string                      `json:"rust_version"`
}

type rawDependency struct {
	Name               string   `json:"name"`
	VersionReq         string   `json:"version_req"`
	Features           []string `json:"features"`
	Optional           bool     `json:"optional"`
	DefaultFeatures    bool     `json:"default_features"`
	Target             *string  `json:"target"`
	Kind               string   `json:"kind"`
	Registry           *string  `json:"registry"`
	ExplicitNameInTOML *string  `json:"explicit_name_in_toml"`
}

// DecodeRequest decodes a full publish request body into validated
// PublishMetadata and the raw archive bytes. It is the only entry point of
// this package, matching extract_request_body's (Metadata, &[u8]) contract.
func DecodeRequest(body []byte) (registry.PublishMetadata, []byte, error) {
	if len(body) < 4 {
		return registry.PublishMetadata{}, nil, ErrUnexpectedEOF
	}
	metaLen := binary.LittleEndian.Uint32(body[:4])
	rest := body[4:]
	if uint64(len(rest)) < uint64(metaLen) {
		return registry.PublishMetadata{}, nil, ErrUnexpectedEOF
	}
	metaBytes := rest[:metaLen]
	rest = rest[metaLen:]

	if len(rest) < 4 {
		return registry.PublishMetadata{}, nil, ErrUnexpectedEOF
	}
	fileLen := binary.LittleEndian.Uint32(rest[:4])
	fileContent := rest[4:]

	// spec §4.1 / §9 Open Question (iv): file_len must equal the remaining
	// byte count. file_len < remaining is trailing garbage; file_len >
	// remaining means the archive is shorter than its prefix announces.
	if uint64(fileLen) != uint64(len(fileContent)) {
		return registry.PublishMetadata{}, nil, ErrUnexpectedEOF
	}

	var raw rawMetadata
	if err := json.Unmarshal(metaBytes, &raw); err != nil {
		return registry.PublishMetadata{}, nil, &InvalidMetadataError{Cause: err}
	}
	if verr := validation.ValidateStruct(&raw); verr != nil {
		return registry.PublishMetadata{}, nil, &InvalidMetadataError{Cause: verr}
	}

	metadata, err := toPublishMetadata(raw)
	if err != nil {
		return registry.PublishMetadata{}, nil, &InvalidMetadataError{Cause: err}
	}

	return metadata, fileContent, nil
}

func toPublishMetadata(raw rawMetadata) (registry.PublishMetadata, error) {
	name, err := registry.ParsePackageName(raw.Name)
	if err != nil {
		return registry.PublishMetadata{}, fmt.Errorf("name: %w", err)
	}
	vers, err := registry.ParseVersion(raw.Vers)
	if err != nil {
		return registry.PublishMetadata{}, fmt.Errorf("vers: %w", err)
	}
	if raw.Description == nil {
		return registry.PublishMetadata{}, fmt.Errorf("description: %w", registry.ErrEmpty)
	}
	description, err := registry.ParseNonEmptyString(*raw.Description)
	if err != nil {
		return registry.PublishMetadata{}, fmt.Errorf("description: %w", err)
	}

	features := make(map[registry.FeatureName][]string, len(raw.Features))
	for k, v := range raw.Features {
		fn, err := registry.ParseFeatureName(k)
		if err != nil {
			return registry.PublishMetadata{}, fmt.Errorf("features[%q]: %w", k, err)
		}
		features[fn] = v
	}

	deps := make([]registry.DependencyMetadata, 0, len(raw.Deps))
	for i, d := range raw.Deps {
		dep, err := toDependencyMetadata(d)
		if err != nil {
			return registry.PublishMetadata{}, fmt.Errorf("deps[%d]: %w", i, err)
		}
		deps = append(deps, dep)
	}

	keywords := make(map[string]struct{}, len(raw.Keywords))
	for _, k := range raw.Keywords {
		if _, err := registry.ParseNonEmptyString(k); err != nil {
			return registry.PublishMetadata{}, fmt.Errorf("keywords: %w", err)
		}
		keywords[k] = struct{}{}
	}

	categories := make(map[string]struct{}, len(raw.Categories))
	for _, c := range raw.Categories {
		categories[c] = struct{}{}
	}

	var rustVersion *registry.RustVersionRequirement
	if raw.RustVersion != nil {
		rv, err := registry.ParseRustVersionRequirement(*raw.RustVersion)
		if err != nil {
			return registry.PublishMetadata{}, fmt.Errorf("rust_version: %w", err)
		}
		rustVersion = &rv
	}

	return registry.PublishMetadata{
		Name:          name,
		Vers:          vers,
		Deps:          deps,
		Features:      features,
		Authors:       raw.Authors,
		Description:   description,
		Documentation: raw.Documentation,
		Homepage:      raw.Homepage,
		Readme:        raw.Readme,
		ReadmeFile:    raw.ReadmeFile,
		Keywords:      keywords,
		Categories:    categories,
		License:       raw.License,
		LicenseFile:   raw.LicenseFile,
		Repository:    raw.Repository,
		Badges:        raw.Badges,
		Links:         raw.Links,
		RustVersion:   rustVersion,
	}, nil
}

func toDependencyMetadata(d rawDependency) (registry.DependencyMetadata, error) {
	name, err := registry.ParsePackageName(d.Name)
	if err != nil {
		return registry.DependencyMetadata{}, fmt.Errorf("name: %w", err)
	}
	req, err := registry.ParseVersionRequirement(d.VersionReq)
	if err != nil {
		return registry.DependencyMetadata{}, fmt.Errorf("version_req: %w", err)
	}
	kind := registry.DependencyKind(d.Kind)
	if !kind.Valid() {
		return registry.DependencyMetadata{}, fmt.Errorf("kind: unknown dependency kind %q", d.Kind)
	}
	features := make([]registry.FeatureName, 0, len(d.Features))
	for _, f := range d.Features {
		fn, err := registry.ParseFeatureName(f)
		if err != nil {
			return registry.DependencyMetadata{}, fmt.Errorf("features: %w", err)
		}
		features = append(features, fn)
	}
	var explicitNameInTOML *registry.PackageName
	if d.ExplicitNameInTOML != nil {
		explicit, err := registry.ParsePackageName(*d.ExplicitNameInTOML)
		if err != nil {
			return registry.DependencyMetadata{}, fmt.Errorf("explicit_name_in_toml: %w", err)
		}
		explicitNameInTOML = &explicit
	}
	return registry.DependencyMetadata{
		Name:               name,
		VersionReq:         req,
		Features:           features,
		Optional:           d.Optional,
		DefaultFeatures:    d.DefaultFeatures,
		Target:             d.Target,
		Kind:               kind,
		Registry:           d.Registry,
		ExplicitNameInTOML: explicitNameInTOML,
	}, nil
}
