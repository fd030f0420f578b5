package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePackageName_Valid(t *testing.T) {
	n, err := ParsePackageName("foo-bar")
	require.NoError(t, err)
	assert.Equal(t, "foo-bar", n.Original())
	assert.Equal(t, "foo_bar", n.Normalized())
	assert.Equal(t, "foo-bar", n.String())
}

func TestParsePackageName_NormalizationExactness(t *testing.T) {
	a, err := ParsePackageName("Foo-Bar")
	require.NoError(t, err)
	assert.Equal(t, "foo_bar", a.Normalized())

	b, err := ParsePackageName("foo_bar")
	require.NoError(t, err)
	assert.Equal(t, "foo_bar", b.Normalized())
}

func TestParsePackageName_RoundTrip(t *testing.T) {
	for _, s := range []string{"foo", "foo-bar", "foo_bar123", "_leading"} {
		n, err := ParsePackageName(s)
		require.NoError(t, err)
		assert.Equal(t, s, n.String())
	}
}

func TestParsePackageName_EqualityClosedUnderNormalization(t *testing.T) {
	a, err := ParsePackageName("Foo-bar")
	require.NoError(t, err)
	b, err := ParsePackageName("foo_bar")
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Normalized(), b.Normalized())
}

func TestParsePackageName_Empty(t *testing.T) {
	_, err := ParsePackageName("")
	assert.Equal(t, ErrEmpty, err)
}

func TestParsePackageName_StartsWithDigit(t *testing.T) {
	_, err := ParsePackageName("1foo")
	assert.Equal(t, ErrStartsWithDigit, err)
}

func TestParsePackageName_InvalidFirstChar(t *testing.T) {
	_, err := ParsePackageName("-foo")
	assert.Equal(t, ErrFirstLetterNotUXID, err)
}

func TestParsePackageName_InvalidLaterChar(t *testing.T) {
	_, err := ParsePackageName("foo bar")
	assert.Equal(t, ErrLetterNotUXID, err)
}

func TestParsePackageName_ReservedNamesRejected(t *testing.T) {
	for _, s := range []string{"con", "CON", "nul", "NUL", "Com1", "lpt9"} {
		_, err := ParsePackageName(s)
		assert.Equal(t, ErrReservedFileName, err, "expected %q to be rejected", s)
	}
}

func TestParsePackageName_Compare(t *testing.T) {
	a, _ := ParsePackageName("a")
	b, _ := ParsePackageName("b")
	assert.True(t, a.Compare(b) < 0)
	assert.True(t, b.Compare(a) > 0)
	assert.Equal(t, 0, a.Compare(a))
}

func TestParseFeatureName_Valid(t *testing.T) {
	for _, s := range []string{"default", "foo-bar", "foo+bar", "foo.bar", "1foo", "_foo"} {
		_, err := ParseFeatureName(s)
		assert.NoError(t, err, "expected %q to be valid", s)
	}
}

func TestParseFeatureName_Empty(t *testing.T) {
	_, err := ParseFeatureName("")
	assert.Equal(t, ErrEmpty, err)
}

func TestParseFeatureName_InvalidChar(t *testing.T) {
	_, err := ParseFeatureName("foo bar")
	assert.Equal(t, ErrFeatureInvalidChar, err)
}

func TestParseNonEmptyString(t *testing.T) {
	s, err := ParseNonEmptyString("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", s.String())

	_, err = ParseNonEmptyString("")
	assert.Equal(t, ErrEmpty, err)
}
