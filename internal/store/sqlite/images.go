package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

// imageColumns is the ordered list of columns selected in image queries.
// Must match the scan order in scanImage.
const imageColumns = `id, created_at, updated_at, book_id, image_type,
	original_path, thumbnail_path, medium_path, original_filename,
	alt_text, caption, copyright, width, height, size_bytes, mime_type,
	is_primary, display_order, blur_hash`

// scanImage scans a sql.Row (or sql.Rows via its Scan method) into a domain.BookImage.
func scanImage(scanner interface{ Scan(dest ...any) error }) (*domain.BookImage, error) {
	var img domain.BookImage

	var (
		createdAt        string
		updatedAt        string
		bookID           sql.NullString
		imageType        string
		originalFilename sql.NullString
		altText          sql.NullString
		caption          sql.NullString
		copyright        sql.NullString
		mimeType         sql.NullString
		blurHash         sql.NullString
		isPrimary        int
	)

	err := scanner.Scan(
		&img.ID,
		&createdAt,
		&updatedAt,
		&bookID,
		&imageType,
		&img.OriginalPath,
		&img.ThumbnailPath,
		&img.MediumPath,
		&originalFilename,
		&altText,
		&caption,
		&copyright,
		&img.Width,
		&img.Height,
		&img.SizeBytes,
		&mimeType,
		&isPrimary,
		&img.DisplayOrder,
		&blurHash,
	)
	if err != nil {
		return nil, err
	}

	img.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	img.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	img.ImageType = domain.ImageType(imageType)
	if bookID.Valid {
		img.BookID = bookID.String
	}
	if originalFilename.Valid {
		img.OriginalFilename = originalFilename.String
	}
	if altText.Valid {
		img.AltText = altText.String
	}
	if caption.Valid {
		img.Caption = caption.String
	}
	if copyright.Valid {
		img.Copyright = copyright.String
	}
	if mimeType.Valid {
		img.MimeType = mimeType.String
	}
	if blurHash.Valid {
		img.BlurHash = blurHash.String
	}
	img.IsPrimary = isPrimary != 0

	return &img, nil
}

// CreateImage inserts a new image metadata row.
func (s *Store) CreateImage(ctx context.Context, img *domain.BookImage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO book_images (
			id, created_at, updated_at, book_id, image_type,
			original_path, thumbnail_path, medium_path, original_filename,
			alt_text, caption, copyright, width, height, size_bytes, mime_type,
			is_primary, display_order, blur_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		img.ID,
		formatTime(img.CreatedAt),
		formatTime(img.UpdatedAt),
		nullString(img.BookID),
		string(img.ImageType),
		img.OriginalPath,
		img.ThumbnailPath,
		img.MediumPath,
		nullString(img.OriginalFilename),
		nullString(img.AltText),
		nullString(img.Caption),
		nullString(img.Copyright),
		img.Width,
		img.Height,
		img.SizeBytes,
		nullString(img.MimeType),
		boolToInt(img.IsPrimary),
		img.DisplayOrder,
		nullString(img.BlurHash),
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "insert image metadata")
	}
	return nil
}

// GetImage retrieves an image row by ID.
// Returns a NOT_FOUND error if the image does not exist.
func (s *Store) GetImage(ctx context.Context, id string) (*domain.BookImage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+imageColumns+` FROM book_images WHERE id = ?`, id)

	img, err := scanImage(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("image %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "get image metadata")
	}
	return img, nil
}

// ListImagesForBook returns all image rows for a book, optionally
// filtered by type. Ordering: primary rows first, then ascending
// display order, with insertion order (created_at, then id) breaking ties.
func (s *Store) ListImagesForBook(ctx context.Context, bookID string, typeFilter domain.ImageType) ([]*domain.BookImage, error) {
	query := `SELECT ` + imageColumns + ` FROM book_images WHERE book_id = ?`
	args := []any{bookID}

	if typeFilter != "" {
		query += ` AND image_type = ?`
		args = append(args, string(typeFilter))
	}
	query += ` ORDER BY is_primary DESC, display_order ASC, created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "query images")
	}
	defer rows.Close()

	var imgs []*domain.BookImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePersistence, "scan image row")
		}
		imgs = append(imgs, img)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "iterate image rows")
	}
	return imgs, nil
}

// UpdateImage applies a partial patch to an image row. Nil patch fields
// are left untouched; an empty patch is a no-op success for an existing
// row. Returns a NOT_FOUND error when the row does not exist.
func (s *Store) UpdateImage(ctx context.Context, id string, patch domain.ImagePatch) error {
	if patch.IsEmpty() {
		// Still distinguish "nothing to do" from "no such image".
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM book_images WHERE id = ?`, id).Scan(&exists)
		if err == sql.ErrNoRows {
			return errors.NotFoundf("image %s not found", id)
		}
		if err != nil {
			return errors.Wrap(err, errors.CodePersistence, "check image existence")
		}
		return nil
	}

	var sets []string
	var args []any
	appendSet := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.BookID != nil {
		appendSet("book_id", nullString(*patch.BookID))
	}
	if patch.ImageType != nil {
		appendSet("image_type", string(*patch.ImageType))
	}
	if patch.AltText != nil {
		appendSet("alt_text", nullString(*patch.AltText))
	}
	if patch.Caption != nil {
		appendSet("caption", nullString(*patch.Caption))
	}
	if patch.Copyright != nil {
		appendSet("copyright", nullString(*patch.Copyright))
	}
	if patch.IsPrimary != nil {
		appendSet("is_primary", boolToInt(*patch.IsPrimary))
	}
	if patch.DisplayOrder != nil {
		appendSet("display_order", *patch.DisplayOrder)
	}
	if patch.OriginalFilename != nil {
		appendSet("original_filename", nullString(*patch.OriginalFilename))
	}
	appendSet("updated_at", formatTime(time.Now()))

	query := fmt.Sprintf(`UPDATE book_images SET %s WHERE id = ?`, strings.Join(sets, ", "))
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "update image metadata")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "update image metadata")
	}
	if n == 0 {
		return errors.NotFoundf("image %s not found", id)
	}
	return nil
}

// DeleteImage removes an image row.
// Returns a NOT_FOUND error if the row does not exist.
func (s *Store) DeleteImage(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM book_images WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "delete image metadata")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "delete image metadata")
	}
	if n == 0 {
		return errors.NotFoundf("image %s not found", id)
	}
	return nil
}
