// Package registry implements the data model of the package registry: name
// and version validation, publish-request metadata, and the shape of a
// version record as stored in the index (spec §3).
package registry

import (
	"strings"
	"unicode"
)

// NameError is a closed enum of name-validation failures, matching
// original_source/src/crate_name.rs and feature_name.rs's FromStr errors.
// Kept hand-written rather than go-playground/validator-driven: these are
// structural grammar rules over individual runes, not tag-expressible
// constraints.
type NameError string

const (
	ErrEmpty              NameError = "name is empty"
	ErrStartsWithDigit     NameError = "name cannot start with a digit"
	ErrFirstLetterNotUXID  NameError = "first character must be a valid XID start character or underscore"
	ErrLetterNotUXID       NameError = "characters must be XID continue, dash, or underscore"
	ErrReservedFileName    NameError = "name is a reserved filesystem name"
	ErrFeatureInvalidStart NameError = "first character must be XID start, underscore, or digit"
	ErrFeatureInvalidChar  NameError = "characters must be XID continue, '-', '+', or '.'"
)

func (e NameError) Error() string { return string(e) }

// reservedFileNames is spec §3's Windows reserved device name list, matched
// case-insensitively against the original (pre-normalization) string.
var reservedFileNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM0": true, "COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"COM¹": true, "COM²": true, "COM³": true,
	"LPT0": true, "LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
	"LPT¹": true, "LPT²": true, "LPT³": true,
}

// PackageName is a validated crate/package name. Equality, ordering, and
// catalog/path lookups use the normalized form; Display and persistence of
// the "original_name" column use the original form. Never construct one
// except via ParsePackageName — the zero value is not a valid name.
type PackageName struct {
	original   string
	normalized string
}

// ParsePackageName validates s against spec §3's grammar and returns the
// constructed name, or the first NameError encountered.
func ParsePackageName(s string) (PackageName, error) {
	if s == "" {
		return PackageName{}, ErrEmpty
	}
	runes := []rune(s)
	if unicode.IsDigit(runes[0]) && runes[0] <= unicode.MaxASCII {
		return PackageName{}, ErrStartsWithDigit
	}
	if !isXIDStart(runes[0]) && runes[0] != '_' {
		return PackageName{}, ErrFirstLetterNotUXID
	}
	for _, r := range runes[1:] {
		if !isXIDContinue(r) && r != '-' {
			return PackageName{}, ErrLetterNotUXID
		}
	}
	if reservedFileNames[strings.ToUpper(s)] {
		return PackageName{}, ErrReservedFileName
	}
	return PackageName{original: s, normalized: normalizeName(s)}, nil
}

// normalizeName implements spec §3's normalization: lowercase, `-` -> `_`.
// Mirrors the DuckDB-side normalize_crate_name macro registered in
// internal/catalog so both sides of the uniqueness check agree.
func normalizeName(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "-", "_"))
}

// Original returns the name exactly as supplied to ParsePackageName — used
// for display, the catalog's original_name column, and index path
// assignment (§4.5 uses unnormalized characters).
func (n PackageName) Original() string { return n.original }

// Normalized returns the normalized form — used for equality, ordering, and
// the file-store/catalog collision key.
func (n PackageName) Normalized() string { return n.normalized }

// String implements fmt.Stringer using the original form (round-trip
// property 1 of spec §8).
func (n PackageName) String() string { return n.original }

// Equal reports whether two names collide under normalization (spec §8
// property 1: normalize(a) == normalize(b) iff name(a) == name(b)).
func (n PackageName) Equal(other PackageName) bool {
	return n.normalized == other.normalized
}

// Compare orders two names by normalized form, <0/0/>0 like strings.Compare.
func (n PackageName) Compare(other PackageName) int {
	return strings.Compare(n.normalized, other.normalized)
}

// FeatureName is a validated feature flag name (spec §3).
type FeatureName struct {
	value string
}

// ParseFeatureName validates s against the feature-name grammar:
// first character XID-Start, '_', or ASCII digit; subsequent characters
// XID-Continue or one of "-+.".
func ParseFeatureName(s string) (FeatureName, error) {
	if s == "" {
		return FeatureName{}, ErrEmpty
	}
	runes := []rune(s)
	first := runes[0]
	if !isXIDStart(first) && first != '_' && !(first >= '0' && first <= '9') {
		return FeatureName{}, ErrFeatureInvalidStart
	}
	for _, r := range runes[1:] {
		if !isXIDContinue(r) && r != '-' && r != '+' && r != '.' {
			return FeatureName{}, ErrFeatureInvalidChar
		}
	}
	return FeatureName{value: s}, nil
}

func (f FeatureName) String() string { return f.value }

// Equal compares feature names by their raw value (no normalization rule
// applies to feature names per spec §3).
func (f FeatureName) Equal(other FeatureName) bool { return f.value == other.value }

// Compare orders feature names lexically, for use as map keys needing
// deterministic iteration (e.g. index-record serialization).
func (f FeatureName) Compare(other FeatureName) int {
	return strings.Compare(f.value, other.value)
}

// isXIDStart and isXIDContinue approximate Unicode's XID_Start/XID_Continue
// properties using the standard library's categories: start is any Letter;
// continue is a Letter, decimal digit (Nd), Mark, or underscore,
// matching the practical behavior of Rust's unicode-xid crate used by
// original_source/src/crate_name.rs and feature_name.rs.
func isXIDStart(r rune) bool {
	return unicode.IsLetter(r)
}

func isXIDContinue(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

// NonEmptyString is the shared wrapper for Description and Keyword (spec
// §3): any string that is not empty. Grounded on
// original_source/src/non_empty_strings.rs's non_empty_string! macro, which
// generates the same rule for each named type.
type NonEmptyString struct {
	value string
}

// ParseNonEmptyString returns an error if s is empty.
func ParseNonEmptyString(s string) (NonEmptyString, error) {
	if s == "" {
		return NonEmptyString{}, ErrEmpty
	}
	return NonEmptyString{value: s}, nil
}

func (n NonEmptyString) String() string { return n.value }

// Description and Keyword are the two NonEmptyString-flavored fields named
// in spec §3; kept as distinct type names for clarity at call sites even
// though both share NonEmptyString's representation and rules.
type (
	Description = NonEmptyString
	Keyword     = NonEmptyString
)
