package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion_RoundTrip(t *testing.T) {
	for _, s := range []string{"0.1.0", "1.2.3-alpha.1", "1.2.3+build.5", "1.2.3-beta+exp.sha.5114f85"} {
		v, err := ParseVersion(s)
		require.NoError(t, err)
		assert.Equal(t, s, v.String())
	}
}

func TestParseVersion_StrippedString(t *testing.T) {
	v, err := ParseVersion("1.2.3+build.5")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v.StrippedString())

	v, err = ParseVersion("1.2.3-alpha+build")
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-alpha", v.StrippedString())
}

func TestParseVersion_Invalid(t *testing.T) {
	for _, s := range []string{"1.2", "1.2.x", "01.2.3", ""} {
		_, err := ParseVersion(s)
		assert.Error(t, err, "expected %q to be rejected", s)
	}
}

func TestVersion_Compare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0", "1.0.0-alpha", 1},
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.1", "1.0.0-alpha.beta", -1},
		{"1.0.0-beta", "1.0.0-alpha", 1},
		// build metadata must never affect precedence
		{"1.0.0+build1", "1.0.0+build2", 0},
	}
	for _, c := range cases {
		a, err := ParseVersion(c.a)
		require.NoError(t, err)
		b, err := ParseVersion(c.b)
		require.NoError(t, err)
		got := a.Compare(b)
		if c.want < 0 {
			assert.Negative(t, got, "%s vs %s", c.a, c.b)
		} else if c.want > 0 {
			assert.Positive(t, got, "%s vs %s", c.a, c.b)
		} else {
			assert.Zero(t, got, "%s vs %s", c.a, c.b)
		}
	}
}

func TestParseVersionRequirement(t *testing.T) {
	r, err := ParseVersionRequirement("^1.2, <2.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"^1.2", "<2.0"}, r.Comparators())
	assert.Equal(t, "^1.2, <2.0", r.String())
}

func TestParseRustVersionRequirement_RejectsEmpty(t *testing.T) {
	_, err := ParseRustVersionRequirement("")
	assert.Error(t, err)

	_, err = ParseRustVersionRequirement("   ")
	assert.Error(t, err)
}

func TestParseRustVersionRequirement_Valid(t *testing.T) {
	r, err := ParseRustVersionRequirement("1.65")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.65"}, r.Comparators())
}
