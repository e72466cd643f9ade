// Package images provides upload ingestion, derivative generation, and
// filesystem storage for book images.
package images

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Directory tokens for absent metadata.
const (
	TokenUncategorized = "uncategorized"
	TokenUnknownAuthor = "unknown"
	TokenUnassigned    = "unassigned"
)

// Role suffixes embedded in stored filenames.
const (
	RoleOriginal  = "original"
	RoleThumbnail = "thumb"
	RoleMedium    = "medium"
)

// Subdirectories under the uploads base path.
const (
	dirThumbnails = "thumbnails"
	dirMedium     = "medium"
	dirOriginals  = "originals"
	dirByBook     = "by-book"
	dirByCategory = "by-category"
	dirByAuthor   = "by-author"
)

var nonAlnumRe = regexp.MustCompile(`[^A-Za-z0-9]`)

// SanitizeToken converts arbitrary text into a directory-safe token:
// every character outside [A-Za-z0-9] becomes an underscore and the
// result is lowercased. The function is idempotent, so repeated uploads
// for the same category or author reuse the same directory.
func SanitizeToken(s string) string {
	return strings.ToLower(nonAlnumRe.ReplaceAllString(s, "_"))
}

// CategoryToken returns the directory token for a book category.
// Absent categories map to the literal "uncategorized".
func CategoryToken(category string) string {
	if strings.TrimSpace(category) == "" {
		return TokenUncategorized
	}
	return SanitizeToken(category)
}

// AuthorToken returns the directory token for a book author.
// Absent authors map to the literal "unknown".
func AuthorToken(author string) string {
	if strings.TrimSpace(author) == "" {
		return TokenUnknownAuthor
	}
	return SanitizeToken(author)
}

// BookToken returns the directory token for an owning book ID.
// Unattached uploads map to the literal "unassigned".
func BookToken(bookID string) string {
	if strings.TrimSpace(bookID) == "" {
		return TokenUnassigned
	}
	return SanitizeToken(bookID)
}

// Layout derives canonical storage locations under a single uploads base
// directory. All returned locators are relative to the base path, so rows
// stay valid if the base directory is relocated.
type Layout struct {
	base string
}

// NewLayout creates a Layout rooted at basePath, creating it if absent.
func NewLayout(basePath string) (*Layout, error) {
	if basePath == "" {
		return nil, fmt.Errorf("uploads base path cannot be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &Layout{base: basePath}, nil
}

// Base returns the uploads base directory.
func (l *Layout) Base() string {
	return l.base
}

// Dirs holds the relative directories used for one ingestion.
type Dirs struct {
	Thumbnails string
	Medium     string
	ByBook     string
	ByCategory string
	ByAuthor   string
}

// EnsureDirs resolves and creates the directories for an upload keyed by
// book, category, and author tokens. Creation is recursive and tolerant
// of pre-existing directories.
func (l *Layout) EnsureDirs(bookToken, categoryToken, authorToken string) (Dirs, error) {
	d := Dirs{
		Thumbnails: dirThumbnails,
		Medium:     dirMedium,
		ByBook:     filepath.Join(dirOriginals, dirByBook, bookToken),
		ByCategory: filepath.Join(dirOriginals, dirByCategory, categoryToken),
		ByAuthor:   filepath.Join(dirOriginals, dirByAuthor, authorToken),
	}

	for _, dir := range []string{d.Thumbnails, d.Medium, d.ByBook, d.ByCategory, d.ByAuthor} {
		if err := os.MkdirAll(filepath.Join(l.base, dir), 0o755); err != nil {
			return Dirs{}, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return d, nil
}

// Abs resolves a relative locator to an absolute filesystem path.
func (l *Layout) Abs(locator string) string {
	return filepath.Join(l.base, filepath.FromSlash(locator))
}

// NewBaseName generates the shared base filename for one upload:
// a millisecond timestamp plus a random UUID. The UUID makes collisions
// between concurrent uploads within the same tick cryptographically
// negligible.
func NewBaseName() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString())
}

// FileName builds a stored filename: {base}_{role}{ext}.
// The extension is stored lower-cased.
func FileName(baseName, role, ext string) string {
	return baseName + "_" + role + strings.ToLower(ext)
}
