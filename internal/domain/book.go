package domain

// Book represents a title in the library catalog.
type Book struct {
	Entity
	Title       string `json:"title"`
	Author      string `json:"author,omitempty"`
	Category    string `json:"category,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	Description string `json:"description,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	PublishYear string `json:"publish_year,omitempty"`
	Language    string `json:"language,omitempty"`

	// CoverImagePath is the denormalized medium-derivative path of the
	// current primary cover. It is written only by the store's primary-cover
	// operations, never directly by handlers or services.
	CoverImagePath string `json:"cover_image_path,omitempty"`

	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
}

// HasCover reports whether the book currently has a primary cover.
func (b *Book) HasCover() bool {
	return b.CoverImagePath != ""
}
