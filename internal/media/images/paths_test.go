package images

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeToken(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"Science Fiction", "science_fiction"},
		{"Ursula K. Le Guin", "ursula_k__le_guin"},
		{"already_clean", "already_clean"},
		{"ÜmläutCafé", "_ml_utcaf_"},
		{"123-456/789", "123_456_789"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeToken(tc.input), "input %q", tc.input)
	}
}

func TestSanitizeToken_Idempotent(t *testing.T) {
	valid := regexp.MustCompile(`^[a-z0-9_]+$`)

	inputs := []string{
		"Fantasy & Adventure",
		"T.S. Eliot",
		"uncategorized",
		"UPPER lower 42",
		"!!!",
	}
	for _, in := range inputs {
		once := SanitizeToken(in)
		twice := SanitizeToken(once)
		assert.Equal(t, once, twice, "sanitize should be idempotent for %q", in)
		assert.Regexp(t, valid, once, "sanitized output for %q", in)
	}
}

func TestDirectoryTokens(t *testing.T) {
	assert.Equal(t, TokenUncategorized, CategoryToken(""))
	assert.Equal(t, TokenUncategorized, CategoryToken("   "))
	assert.Equal(t, "mystery", CategoryToken("Mystery"))

	assert.Equal(t, TokenUnknownAuthor, AuthorToken(""))
	assert.Equal(t, "jane_austen", AuthorToken("Jane Austen"))

	assert.Equal(t, TokenUnassigned, BookToken(""))
	assert.Equal(t, "book_abc123", BookToken("book-abc123"))
}

func TestLayout_EnsureDirs(t *testing.T) {
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)

	dirs, err := layout.EnsureDirs("book_1", "mystery", "agatha_christie")
	require.NoError(t, err)

	for _, dir := range []string{dirs.Thumbnails, dirs.Medium, dirs.ByBook, dirs.ByCategory, dirs.ByAuthor} {
		info, err := os.Stat(layout.Abs(dir))
		require.NoError(t, err, "directory %s should exist", dir)
		assert.True(t, info.IsDir())
	}

	assert.Equal(t, filepath.Join("originals", "by-book", "book_1"), dirs.ByBook)
	assert.Equal(t, filepath.Join("originals", "by-category", "mystery"), dirs.ByCategory)
	assert.Equal(t, filepath.Join("originals", "by-author", "agatha_christie"), dirs.ByAuthor)

	// Ensuring the same dirs again must be a no-op.
	again, err := layout.EnsureDirs("book_1", "mystery", "agatha_christie")
	require.NoError(t, err)
	assert.Equal(t, dirs, again)
}

func TestNewLayout_EmptyBase(t *testing.T) {
	_, err := NewLayout("")
	assert.Error(t, err)
}

func TestNewBaseName_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		name := NewBaseName()
		require.False(t, seen[name], "base names must not collide: %s", name)
		seen[name] = true
	}
}

func TestFileName(t *testing.T) {
	got := FileName("1700000000-abc", RoleThumbnail, ".JPG")
	assert.Equal(t, "1700000000-abc_thumb.jpg", got)
	assert.True(t, strings.HasSuffix(FileName("b", RoleOriginal, ".png"), "_original.png"))
}
