package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed SemVer 2.0.0 version (spec §3). No pack dependency
// covers Cargo-style precedence (golang.org/x/mod/semver is Go-module
// flavored and rejects build metadata and some pre-release forms the
// registry protocol accepts) — hand-written against the SemVer 2.0.0
// grammar, per DESIGN.md.
type Version struct {
	Major, Minor, Patch uint64
	Pre                 []string // dot-separated pre-release identifiers, in order
	Build                []string // dot-separated build identifiers, in order (ignored for comparison)
	raw                 string   // as supplied, for round-trip Display
}

// ParseVersion parses s as a SemVer 2.0.0 version string.
func ParseVersion(s string) (Version, error) {
	raw := s
	build := ""
	if i := strings.IndexByte(s, '+'); i >= 0 {
		build = s[i+1:]
		s = s[:i]
	}
	pre := ""
	if i := strings.IndexByte(s, '-'); i >= 0 {
		pre = s[i+1:]
		s = s[:i]
	}
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("version %q: expected major.minor.patch", raw)
	}
	nums := make([]uint64, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil || (len(p) > 1 && p[0] == '0') {
			return Version{}, fmt.Errorf("version %q: invalid numeric component %q", raw, p)
		}
		nums[i] = n
	}
	v := Version{Major: nums[0], Minor: nums[1], Patch: nums[2], raw: raw}
	if pre != "" {
		v.Pre = strings.Split(pre, ".")
	}
	if build != "" {
		v.Build = strings.Split(build, ".")
	}
	return v, nil
}

// String returns the version exactly as originally parsed (round-trip).
func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	return v.StrippedString()
}

// StrippedString renders the version without build metadata — the form
// used in file paths and database version strings (spec §3).
func (v Version) StrippedString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if len(v.Pre) > 0 {
		b.WriteByte('-')
		b.WriteString(strings.Join(v.Pre, "."))
	}
	return b.String()
}

// Compare implements SemVer 2.0.0 precedence: major.minor.patch first, then
// pre-release (a version without pre-release outranks one with), then
// pre-release identifiers compared per spec. Build metadata is always
// ignored (spec §3: "build metadata ignored").
func (v Version) Compare(other Version) int {
	if c := compareUint(v.Major, other.Major); c != 0 {
		return c
	}
	if c := compareUint(v.Minor, other.Minor); c != 0 {
		return c
	}
	if c := compareUint(v.Patch, other.Patch); c != 0 {
		return c
	}
	return comparePre(v.Pre, other.Pre)
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// comparePre compares pre-release identifier lists per SemVer 2.0.0 §11:
// no pre-release outranks any pre-release; identifiers compare numerically
// when both are numeric, lexically otherwise; a shorter list that is a
// prefix of a longer one sorts lower.
func comparePre(a, b []string) int {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) == 0 {
		return 1 // a has no pre-release: outranks b
	}
	if len(b) == 0 {
		return -1
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := comparePreIdentifier(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareUint(uint64(len(a)), uint64(len(b)))
}

func comparePreIdentifier(a, b string) int {
	an, aErr := strconv.ParseUint(a, 10, 64)
	bn, bErr := strconv.ParseUint(b, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return compareUint(an, bn)
	case aErr == nil:
		return -1 // numeric identifiers have lower precedence than alphanumeric
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// VersionRequirement is a parsed semver range expression (spec §3). Stored
// as its raw comparator list rather than evaluated eagerly — satisfaction
// checks are not part of this registry's publish path (the source does not
// resolve dependency graphs), so only parsing/round-trip fidelity of the
// requirement string is required.
type VersionRequirement struct {
	comparators []string // e.g. ">=0.5, <2" -> [">=0.5", "<2"]: split on comma, trimmed
	raw         string
}

// ParseVersionRequirement splits s on commas into individual comparators
// and retains the original string for Display/index-record serialization.
func ParseVersionRequirement(s string) (VersionRequirement, error) {
	var comparators []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			comparators = append(comparators, part)
		}
	}
	return VersionRequirement{comparators: comparators, raw: s}, nil
}

func (r VersionRequirement) String() string { return r.raw }

// Comparators returns the individual comparator expressions.
func (r VersionRequirement) Comparators() []string { return r.comparators }

// RustVersionRequirement is a VersionRequirement additionally constrained to
// have at least one comparator. Despite original_source/src/version.rs's
// doc comment claiming the opposite, RustVersionReq::new returns None when
// comparators.is_empty() — this wrapper follows the code, not the comment
// (spec §9 Open Question iii).
type RustVersionRequirement struct {
	VersionRequirement
}

// ParseRustVersionRequirement parses s and rejects an empty comparator list.
func ParseRustVersionRequirement(s string) (RustVersionRequirement, error) {
	req, err := ParseVersionRequirement(s)
	if err != nil {
		return RustVersionRequirement{}, err
	}
	if len(req.comparators) == 0 {
		return RustVersionRequirement{}, fmt.Errorf("rust_version requirement %q has no comparators", s)
	}
	return RustVersionRequirement{VersionRequirement: req}, nil
}
