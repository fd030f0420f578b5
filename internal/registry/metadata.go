package registry

import (
	"crypto/sha256"
	"encoding/hex"
)

// DependencyKind is spec §3's closed {dev, build, normal} enum, serialized
// as the lowercase token (original_source/src/publish.rs:
// #[serde(rename_all = "lowercase")]).
type DependencyKind string

const (
	DependencyKindDev    DependencyKind = "dev"
	DependencyKindBuild  DependencyKind = "build"
	DependencyKindNormal DependencyKind = "normal"
)

// Valid reports whether k is one of the three permitted tokens.
func (k DependencyKind) Valid() bool {
	switch k {
	case DependencyKindDev, DependencyKindBuild, DependencyKindNormal:
		return true
	default:
		return false
	}
}

// DependencyMetadata is one dependency entry of a publish request (spec §3).
// Name and ExplicitNameInTOML are both validated package names
// (original_source/src/publish.rs:97,105 types them as CrateName, not
// arbitrary strings) — a dependency identifier follows the same grammar as
// a crate being published.
type DependencyMetadata struct {
	Name               PackageName
	VersionReq         VersionRequirement
	Features           []FeatureName
	Optional           bool
	DefaultFeatures    bool
	Target             *string
	Kind               DependencyKind
	Registry           *string
	ExplicitNameInTOML *PackageName
}

// PublishMetadata is the decoded JSON half of a publish request body (spec
// §3/§4.1), mirroring original_source/src/publish.rs's Metadata struct.
type PublishMetadata struct {
	Name          PackageName
	Vers          Version
	Deps          []DependencyMetadata
	Features      map[FeatureName][]string
	Authors       []string
	Description   NonEmptyString
	Documentation *string
	Homepage      *string
	Readme        *string
	ReadmeFile    *string
	Keywords      map[string]struct{} // set of non-empty raw strings
	Categories    map[string]struct{}
	License       *string
	LicenseFile   *string
	Repository    *string
	Badges        map[string]map[string]string
	Links         *string
	RustVersion   *RustVersionRequirement
}

// VersionDependencyMetadata is one dependency entry as stored in the index
// (spec §3): (name, package) is derived from (original_name,
// explicit_name_in_toml) at construction time, not at serialization time.
type VersionDependencyMetadata struct {
	Name            string  `json:"name"`
	Req             string  `json:"req"`
	Features        []string `json:"features"`
	Optional        bool    `json:"optional"`
	DefaultFeatures bool    `json:"default_features"`
	Target          *string `json:"target,omitempty"`
	Kind            string  `json:"kind"`
	Registry        *string `json:"registry,omitempty"`
	Package         *string `json:"package,omitempty"`
}

// VersionMetadata is exactly what §4.5 appends to the index file: one JSON
// object per published version. Field order doesn't matter (spec §6), but
// Go struct tags fix a stable order for readability.
type VersionMetadata struct {
	Name        string                     `json:"name"`
	Vers        string                     `json:"vers"`
	Deps        []VersionDependencyMetadata `json:"deps"`
	Cksum       string                     `json:"cksum"`
	Features    map[string][]string        `json:"features"`
	Yanked      bool                       `json:"yanked"`
	Links       *string                    `json:"links,omitempty"`
	V           int                        `json:"v"`
	Features2   map[string][]string        `json:"features2"`
	RustVersion *string                    `json:"rust_version,omitempty"`
}

// BuildVersionMetadata constructs the index-record VersionMetadata for a
// successful publish, computing the archive checksum and the
// name/package dependency-rename split. Grounded on
// original_source/src/version.rs's build_version_metadata /
// original_source/src/index/json.rs's identical duplicate of that function.
func BuildVersionMetadata(metadata PublishMetadata, archive []byte) VersionMetadata {
	sum := sha256.Sum256(archive)
	cksum := hex.EncodeToString(sum[:])

	deps := make([]VersionDependencyMetadata, 0, len(metadata.Deps))
	for _, d := range metadata.Deps {
		name := d.Name.Original()
		var pkg *string
		if d.ExplicitNameInTOML != nil {
			original := name
			name = d.ExplicitNameInTOML.Original()
			pkg = &original
		}
		features := make([]string, 0, len(d.Features))
		for _, f := range d.Features {
			features = append(features, f.String())
		}
		deps = append(deps, VersionDependencyMetadata{
			Name:            name,
			Req:             d.VersionReq.String(),
			Features:        features,
			Optional:        d.Optional,
			DefaultFeatures: d.DefaultFeatures,
			Target:          d.Target,
			Kind:            string(d.Kind),
			Registry:        d.Registry,
			Package:         pkg,
		})
	}

	features := make(map[string][]string, len(metadata.Features))
	for name, exprs := range metadata.Features {
		features[name.String()] = exprs
	}

	var rustVersion *string
	if metadata.RustVersion != nil {
		s := metadata.RustVersion.String()
		rustVersion = &s
	}

	return VersionMetadata{
		Name:        metadata.Name.Original(),
		Vers:        metadata.Vers.StrippedString(),
		Deps:        deps,
		Cksum:       cksum,
		Features:    features,
		Yanked:      false,
		Links:       metadata.Links,
		V:           2,
		Features2:   map[string][]string{},
		RustVersion: rustVersion,
	}
}
