package effects

import (
	"strings"
	"testing"

	"chirpd/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeContentTrims(t *testing.T) {
	t.Parallel()

	got, err := sanitizeContent("  hello world \n")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestSanitizeContentRejectsEmpty(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "\n\t"} {
		_, err := sanitizeContent(raw)
		assert.True(t, core.IsValidation(err), "raw %q", raw)
	}
}

func TestSanitizeContentRedactsSchemeLinks(t *testing.T) {
	t.Parallel()

	got, err := sanitizeContent("check https://example.com/path?q=1 out")
	require.NoError(t, err)
	assert.Equal(t, "check [link removed] out", got)
}

func TestSanitizeContentRedactsWWWLinks(t *testing.T) {
	t.Parallel()

	got, err := sanitizeContent("go to www.example.com now")
	require.NoError(t, err)
	assert.Equal(t, "go to [link removed] now", got)
}

func TestSanitizeContentRedactsBareDomains(t *testing.T) {
	t.Parallel()

	got, err := sanitizeContent("found it on example.com yesterday")
	require.NoError(t, err)
	assert.Equal(t, "found it on [link removed] yesterday", got)
}

func TestSanitizeContentKeepsHandles(t *testing.T) {
	t.Parallel()

	got, err := sanitizeContent("cc @user.example on this")
	require.NoError(t, err)
	assert.Equal(t, "cc @user.example on this", got)
}

func TestSanitizeContentLengthCap(t *testing.T) {
	t.Parallel()

	ok, err := sanitizeContent(strings.Repeat("a", 280))
	require.NoError(t, err)
	assert.Len(t, ok, 280)

	_, err = sanitizeContent(strings.Repeat("a", 281))
	assert.True(t, core.IsValidation(err))
}

func TestSanitizeContentCountsCodePoints(t *testing.T) {
	t.Parallel()

	// 280 two-byte runes are within the cap; the count is code points, not
	// bytes.
	got, err := sanitizeContent(strings.Repeat("é", 280))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 280), got)

	_, err = sanitizeContent(strings.Repeat("é", 281))
	assert.True(t, core.IsValidation(err))
}

func TestSanitizeContentMeasuresRawLength(t *testing.T) {
	t.Parallel()

	// The cap applies to the text as typed. A long URL pushes the raw content
	// over the limit even though redaction would shrink it back under.
	raw := strings.Repeat("a", 250) + " https://example.com/" + strings.Repeat("x", 100)
	_, err := sanitizeContent(raw)
	assert.True(t, core.IsValidation(err))

	// Within the cap, redaction still applies.
	got, err := sanitizeContent(strings.Repeat("a", 250) + " https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 250)+" [link removed]", got)
}
