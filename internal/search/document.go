// Package search provides full-text catalog search using Bleve, with
// fuzzy matching and category faceting.
package search

import (
	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/util"
)

// BookDocument is the indexed representation of a catalog entry.
type BookDocument struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author,omitempty"`
	Category     string `json:"category,omitempty"`
	CategorySlug string `json:"category_slug,omitempty"`
	Description  string `json:"description,omitempty"`
	Publisher    string `json:"publisher,omitempty"`
	ISBN         string `json:"isbn,omitempty"`
	Language     string `json:"language,omitempty"`
}

// DocumentFromBook builds the index document for a book.
func DocumentFromBook(b *domain.Book) *BookDocument {
	return &BookDocument{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		Category:     b.Category,
		CategorySlug: util.Slugify(b.Category),
		Description:  b.Description,
		Publisher:    b.Publisher,
		ISBN:         b.ISBN,
		Language:     b.Language,
	}
}

// ToMap converts the document to a map so field names match the
// lowercase mapping regardless of struct tags.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"id":            d.ID,
		"title":         d.Title,
		"author":        d.Author,
		"category":      d.Category,
		"category_slug": d.CategorySlug,
		"description":   d.Description,
		"publisher":     d.Publisher,
		"isbn":          d.ISBN,
		"language":      d.Language,
	}
}
