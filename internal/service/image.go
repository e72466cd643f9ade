// Package service provides the business logic layer for the library
// catalog, image pipeline, loans, and notifications.
package service

import (
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
	"github.com/bookhavenapp/bookhaven-server/internal/id"
	"github.com/bookhavenapp/bookhaven-server/internal/media/images"
	"github.com/bookhavenapp/bookhaven-server/internal/sse"
	"github.com/bookhavenapp/bookhaven-server/internal/store/sqlite"
)

// allowedExtensions is the set of accepted upload extensions. SVG is
// accepted at validation time but fails decoding later since it is not
// a raster format.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".svg":  true,
	".webp": true,
}

// UploadParams carries one image upload request.
type UploadParams struct {
	BookID       string
	Filename     string
	MimeType     string
	Data         []byte
	ImageType    domain.ImageType
	AltText      string
	Caption      string
	Copyright    string
	IsPrimary    bool
	DisplayOrder int
}

// ImageWithURLs is a BookImage enriched with absolute URLs for the
// three stored files.
type ImageWithURLs struct {
	*domain.BookImage
	OriginalURL  string `json:"original_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	MediumURL    string `json:"medium_url"`
}

// ImageService orchestrates upload ingestion, metadata CRUD, and cover
// consistency.
type ImageService struct {
	store          *sqlite.Store
	processor      *images.Processor
	storage        *images.Storage
	events         *sse.Manager
	logger         *slog.Logger
	baseURL        string
	maxUploadBytes int64
}

// NewImageService creates a new image service.
func NewImageService(
	store *sqlite.Store,
	processor *images.Processor,
	storage *images.Storage,
	events *sse.Manager,
	logger *slog.Logger,
	baseURL string,
	maxUploadBytes int64,
) *ImageService {
	return &ImageService{
		store:          store,
		processor:      processor,
		storage:        storage,
		events:         events,
		logger:         logger,
		baseURL:        strings.TrimRight(baseURL, "/"),
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload ingests one image: validate, resolve the owning book, write
// the original and derivatives, persist the metadata row, and propagate
// the primary-cover designation when requested.
//
// Validation failures reject the upload before any side effect. A
// persistence failure after the files are written leaves them orphaned;
// that is accepted rather than rolled back.
func (s *ImageService) Upload(ctx context.Context, p UploadParams) (*domain.BookImage, error) {
	if err := s.validateUpload(p); err != nil {
		return nil, err
	}

	// Resolve the owning book for directory tokens. An unresolvable
	// book ID degrades to an unattached upload instead of failing.
	bookID := p.BookID
	var category, author string
	if bookID != "" {
		book, err := s.store.GetBook(ctx, bookID)
		switch {
		case errors.Is(err, errors.ErrNotFound):
			s.logger.Warn("upload references unknown book, storing unattached",
				"book_id", bookID)
			bookID = ""
		case err != nil:
			return nil, err
		default:
			category = book.Category
			author = book.Author
		}
	}

	result, err := s.processor.Process(
		p.Data,
		p.Filename,
		images.BookToken(bookID),
		images.CategoryToken(category),
		images.AuthorToken(author),
	)
	if err != nil {
		return nil, err
	}

	img := &domain.BookImage{
		BookID:           bookID,
		ImageType:        p.ImageType,
		OriginalPath:     result.OriginalPath,
		ThumbnailPath:    result.ThumbnailPath,
		MediumPath:       result.MediumPath,
		OriginalFilename: p.Filename,
		AltText:          p.AltText,
		Caption:          p.Caption,
		Copyright:        p.Copyright,
		Width:            result.Width,
		Height:           result.Height,
		SizeBytes:        int64(len(p.Data)),
		MimeType:         p.MimeType,
		IsPrimary:        p.IsPrimary,
		DisplayOrder:     p.DisplayOrder,
		BlurHash:         result.BlurHash,
	}
	if img.ImageType == "" {
		img.ImageType = domain.ImageTypeCover
	}
	if img.AltText == "" {
		img.AltText = p.Filename
	}

	// An attached cover never inserts with the primary flag set: the
	// single-primary index would reject it while the current holder
	// stands. SetPrimaryImage performs the clear-then-set transition.
	promote := bookID != "" && img.ImageType == domain.ImageTypeCover && p.IsPrimary
	if promote {
		img.IsPrimary = false
	}

	imageID, err := id.Generate("img")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate image id")
	}
	img.ID = imageID
	img.InitTimestamps()

	if err := s.store.CreateImage(ctx, img); err != nil {
		// Files written above are orphaned at this point.
		return nil, err
	}

	if promote {
		if err := s.store.SetPrimaryImage(ctx, bookID, img.ID, img.MediumPath); err != nil {
			// The row exists; the cover reference is repaired on the
			// next primary designation.
			s.logger.Error("failed to propagate primary cover after upload",
				"image_id", img.ID,
				"book_id", bookID,
				"error", err,
			)
		} else {
			img.IsPrimary = true
			s.events.Emit(sse.NewCoverChangedEvent(bookID, img.ID, img.MediumPath))
		}
	}

	s.events.Emit(sse.NewImageUploadedEvent(img))

	s.logger.Info("image uploaded",
		"image_id", img.ID,
		"book_id", bookID,
		"filename", p.Filename,
		"size", img.SizeBytes,
	)

	return img, nil
}

func (s *ImageService) validateUpload(p UploadParams) error {
	fields := make(map[string]string)

	if p.Filename == "" {
		fields["filename"] = "is required"
	} else {
		ext := strings.ToLower(path.Ext(p.Filename))
		if !allowedExtensions[ext] {
			fields["filename"] = "extension must be one of: jpg jpeg png gif svg webp"
		}
	}
	if len(p.Data) == 0 {
		fields["file"] = "is required"
	} else if int64(len(p.Data)) > s.maxUploadBytes {
		fields["file"] = "exceeds the maximum upload size"
	}
	if p.ImageType != "" && !p.ImageType.Valid() {
		fields["image_type"] = "must be one of: cover interior"
	}
	if p.DisplayOrder < 0 {
		fields["display_order"] = "must be greater than or equal to 0"
	}

	if len(fields) > 0 {
		return errors.ValidationWithDetails("validation failed", fields)
	}
	return nil
}

// Get returns one image row with absolute URLs.
func (s *ImageService) Get(ctx context.Context, imageID string) (*ImageWithURLs, error) {
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}
	return s.withURLs(img), nil
}

// ListForBook returns a book's images ordered primary-first, each with
// absolute URL forms of the three locators.
func (s *ImageService) ListForBook(ctx context.Context, bookID string, typeFilter domain.ImageType) ([]*ImageWithURLs, error) {
	if typeFilter != "" && !typeFilter.Valid() {
		return nil, errors.Validation("type filter must be one of: cover interior")
	}

	// The book must exist even when it has no images.
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListImagesForBook(ctx, bookID, typeFilter)
	if err != nil {
		return nil, err
	}

	out := make([]*ImageWithURLs, 0, len(rows))
	for _, img := range rows {
		out = append(out, s.withURLs(img))
	}
	return out, nil
}

// Update applies a partial patch to an image row. Setting isPrimary to
// true is the sole trigger for cover propagation; it requires the row
// to be an attached cover. Propagation failure after the row write is
// logged, not rolled back.
func (s *ImageService) Update(ctx context.Context, imageID string, patch domain.ImagePatch) (*domain.BookImage, error) {
	if patch.ImageType != nil && !patch.ImageType.Valid() {
		return nil, errors.Validation("image_type must be one of: cover interior")
	}
	if patch.DisplayOrder != nil && *patch.DisplayOrder < 0 {
		return nil, errors.Validation("display_order must be greater than or equal to 0")
	}

	current, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	imageType := current.ImageType
	if patch.ImageType != nil {
		imageType = *patch.ImageType
	}

	// For attached covers the primary flag never goes through the
	// direct patch: the single-primary index would reject it while the
	// current holder stands. SetPrimaryImage does the clear-then-set.
	promote := patch.IsPrimary != nil && *patch.IsPrimary &&
		current.BookID != "" && imageType == domain.ImageTypeCover
	if promote {
		patch.IsPrimary = nil
	}

	if err := s.store.UpdateImage(ctx, imageID, patch); err != nil {
		return nil, err
	}

	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	if promote {
		if err := s.store.SetPrimaryImage(ctx, img.BookID, img.ID, img.MediumPath); err != nil {
			s.logger.Error("failed to propagate primary cover after update",
				"image_id", img.ID,
				"book_id", img.BookID,
				"error", err,
			)
		} else {
			img.IsPrimary = true
			s.events.Emit(sse.NewCoverChangedEvent(img.BookID, img.ID, img.MediumPath))
		}
	}

	return img, nil
}

// Delete removes an image: the three stored files (already-missing
// files are fine), then the row, then primary reassignment when the
// deleted row was the primary cover.
func (s *ImageService) Delete(ctx context.Context, imageID string) error {
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return err
	}

	for _, locator := range []string{img.OriginalPath, img.ThumbnailPath, img.MediumPath} {
		if err := s.storage.Delete(locator); err != nil {
			return err
		}
	}

	if err := s.store.DeleteImage(ctx, imageID); err != nil {
		return err
	}

	if img.IsPrimary && img.ImageType == domain.ImageTypeCover && img.BookID != "" {
		if err := s.store.ReassignPrimaryImage(ctx, img.BookID); err != nil {
			s.logger.Error("failed to reassign primary cover after delete",
				"image_id", imageID,
				"book_id", img.BookID,
				"error", err,
			)
		} else {
			s.emitCoverState(ctx, img.BookID)
		}
	}

	s.events.Emit(sse.NewImageDeletedEvent(imageID, img.BookID, time.Now()))

	s.logger.Info("image deleted",
		"image_id", imageID,
		"book_id", img.BookID,
	)
	return nil
}

// deleteAllForBook removes every image row and file belonging to a
// book. Used when the book itself is deleted, so no reassignment runs.
func (s *ImageService) deleteAllForBook(ctx context.Context, bookID string) error {
	rows, err := s.store.ListImagesForBook(ctx, bookID, "")
	if err != nil {
		return err
	}

	for _, img := range rows {
		for _, locator := range []string{img.OriginalPath, img.ThumbnailPath, img.MediumPath} {
			if err := s.storage.Delete(locator); err != nil {
				s.logger.Warn("failed to delete image file",
					"image_id", img.ID,
					"locator", locator,
					"error", err,
				)
			}
		}
		if err := s.store.DeleteImage(ctx, img.ID); err != nil && !errors.Is(err, errors.ErrNotFound) {
			return err
		}
	}
	return nil
}

// emitCoverState broadcasts the book's cover reference after a
// reassignment.
func (s *ImageService) emitCoverState(ctx context.Context, bookID string) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		s.logger.Warn("failed to load book for cover event",
			"book_id", bookID,
			"error", err,
		)
		return
	}
	s.events.Emit(sse.NewCoverChangedEvent(bookID, "", book.CoverImagePath))
}

func (s *ImageService) withURLs(img *domain.BookImage) *ImageWithURLs {
	return &ImageWithURLs{
		BookImage:    img,
		OriginalURL:  s.fileURL(img.OriginalPath),
		ThumbnailURL: s.fileURL(img.ThumbnailPath),
		MediumURL:    s.fileURL(img.MediumPath),
	}
}

func (s *ImageService) fileURL(locator string) string {
	return s.baseURL + "/api/v1/files/" + locator
}
