package domain

// ImageType classifies a stored book image.
type ImageType string

// Image types.
const (
	ImageTypeCover    ImageType = "cover"
	ImageTypeInterior ImageType = "interior"
)

// Valid reports whether t is a known image type.
func (t ImageType) Valid() bool {
	return t == ImageTypeCover || t == ImageTypeInterior
}

// BookImage is the metadata row for one stored image and its derivatives.
// A row's existence implies the three files at its paths exist on disk,
// except during the narrow window between file writes and row insert.
type BookImage struct {
	Entity

	// BookID is empty when the image is not yet attached to a book.
	BookID    string    `json:"book_id,omitempty"`
	ImageType ImageType `json:"image_type"`

	// Storage locators for the preserved original and the two derivatives.
	// Relative to the uploads base directory; never empty after ingestion.
	OriginalPath  string `json:"original_path"`
	ThumbnailPath string `json:"thumbnail_path"`
	MediumPath    string `json:"medium_path"`

	OriginalFilename string `json:"original_filename,omitempty"`
	AltText          string `json:"alt_text,omitempty"`
	Caption          string `json:"caption,omitempty"`
	Copyright        string `json:"copyright,omitempty"`

	// Pixel dimensions of the original, captured at ingestion.
	Width  int `json:"width"`
	Height int `json:"height"`

	SizeBytes int64  `json:"size_bytes"`
	MimeType  string `json:"mime_type,omitempty"`

	// At most one cover-type row per book carries IsPrimary.
	IsPrimary    bool `json:"is_primary"`
	DisplayOrder int  `json:"display_order"`

	// BlurHash placeholder for progressive loading, best-effort.
	BlurHash string `json:"blur_hash,omitempty"`
}

// IsCover reports whether this image is a cover-type image.
func (i *BookImage) IsCover() bool {
	return i.ImageType == ImageTypeCover
}

// ImagePatch is a partial update to a BookImage. Nil fields are left
// untouched; a non-nil pointer to the zero value sets the field to empty.
type ImagePatch struct {
	BookID           *string    `json:"book_id,omitempty"`
	ImageType        *ImageType `json:"image_type,omitempty"`
	AltText          *string    `json:"alt_text,omitempty"`
	Caption          *string    `json:"caption,omitempty"`
	Copyright        *string    `json:"copyright,omitempty"`
	IsPrimary        *bool      `json:"is_primary,omitempty"`
	DisplayOrder     *int       `json:"display_order,omitempty"`
	OriginalFilename *string    `json:"original_filename,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *ImagePatch) IsEmpty() bool {
	return p.BookID == nil &&
		p.ImageType == nil &&
		p.AltText == nil &&
		p.Caption == nil &&
		p.Copyright == nil &&
		p.IsPrimary == nil &&
		p.DisplayOrder == nil &&
		p.OriginalFilename == nil
}
