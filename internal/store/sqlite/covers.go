package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

// SetPrimaryImage makes imageID the primary cover for bookID and mirrors
// coverPath into the book's denormalized cover reference, all in one
// transaction. Concurrent calls for the same book serialize on the
// transaction; calls for different books do not block each other.
//
// The clear-then-set order matters: the partial unique index on
// (book_id) for primary covers would reject the new flag while the old
// one still stands.
func (s *Store) SetPrimaryImage(ctx context.Context, bookID, imageID, coverPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "begin set-primary tx")
	}
	defer tx.Rollback()

	now := formatTime(time.Now())

	if _, err := tx.ExecContext(ctx, `
		UPDATE book_images SET is_primary = 0, updated_at = ?
		WHERE book_id = ? AND image_type = 'cover' AND is_primary = 1 AND id <> ?`,
		now, bookID, imageID,
	); err != nil {
		return errors.Wrap(err, errors.CodePersistence, "clear previous primary")
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE book_images SET is_primary = 1, updated_at = ?
		WHERE id = ? AND book_id = ? AND image_type = 'cover'`,
		now, imageID, bookID,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "set primary flag")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "set primary flag")
	}
	if n == 0 {
		return errors.NotFoundf("cover image %s not found for book %s", imageID, bookID)
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE books SET cover_image_path = ?, updated_at = ? WHERE id = ?`,
		coverPath, now, bookID,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "update book cover reference")
	}
	n, err = result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "update book cover reference")
	}
	if n == 0 {
		return errors.NotFoundf("book %s not found", bookID)
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodePersistence, "commit set-primary tx")
	}
	return nil
}

// ReassignPrimaryImage promotes the remaining cover row with the lowest
// display order (ties broken by insertion order, then id) to primary
// after the previous primary was deleted, syncing the book's cover
// reference. When no cover rows remain the reference is cleared; that
// case is not an error.
func (s *Store) ReassignPrimaryImage(ctx context.Context, bookID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "begin reassign-primary tx")
	}
	defer tx.Rollback()

	now := formatTime(time.Now())

	var nextID, mediumPath string
	err = tx.QueryRowContext(ctx, `
		SELECT id, medium_path FROM book_images
		WHERE book_id = ? AND image_type = 'cover'
		ORDER BY display_order ASC, created_at ASC, id ASC
		LIMIT 1`,
		bookID,
	).Scan(&nextID, &mediumPath)

	switch {
	case err == sql.ErrNoRows:
		// Last cover is gone; the book goes back to having no cover.
		if _, err := tx.ExecContext(ctx, `
			UPDATE books SET cover_image_path = NULL, updated_at = ? WHERE id = ?`,
			now, bookID,
		); err != nil {
			return errors.Wrap(err, errors.CodePersistence, "clear book cover reference")
		}
	case err != nil:
		return errors.Wrap(err, errors.CodePersistence, "select next primary candidate")
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE book_images SET is_primary = 0, updated_at = ?
			WHERE book_id = ? AND image_type = 'cover' AND is_primary = 1 AND id <> ?`,
			now, bookID, nextID,
		); err != nil {
			return errors.Wrap(err, errors.CodePersistence, "clear stale primary flags")
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE book_images SET is_primary = 1, updated_at = ? WHERE id = ?`,
			now, nextID,
		); err != nil {
			return errors.Wrap(err, errors.CodePersistence, "promote next primary")
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE books SET cover_image_path = ?, updated_at = ? WHERE id = ?`,
			mediumPath, now, bookID,
		); err != nil {
			return errors.Wrap(err, errors.CodePersistence, "update book cover reference")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodePersistence, "commit reassign-primary tx")
	}
	return nil
}
