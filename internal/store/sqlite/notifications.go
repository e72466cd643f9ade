package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

const notificationColumns = `id, created_at, updated_at, user_id, type, title, body, read_at`

func scanNotification(scanner interface{ Scan(dest ...any) error }) (*domain.Notification, error) {
	var n domain.Notification
	var createdAt, updatedAt, ntype string
	var body, readAt sql.NullString

	err := scanner.Scan(
		&n.ID,
		&createdAt,
		&updatedAt,
		&n.UserID,
		&ntype,
		&n.Title,
		&body,
		&readAt,
	)
	if err != nil {
		return nil, err
	}

	if n.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if n.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if n.ReadAt, err = parseNullableTime(readAt); err != nil {
		return nil, err
	}
	n.Type = domain.NotificationType(ntype)
	if body.Valid {
		n.Body = body.String
	}

	return &n, nil
}

// CreateNotification inserts a feed entry for a user.
func (s *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, created_at, updated_at, user_id, type, title, body, read_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		formatTime(n.CreatedAt),
		formatTime(n.UpdatedAt),
		n.UserID,
		string(n.Type),
		n.Title,
		nullString(n.Body),
		nullTimeString(n.ReadAt),
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "insert notification")
	}
	return nil
}

// ListNotificationsForUser returns a user's feed, newest first. When
// unreadOnly is set, already-read entries are skipped.
func (s *Store) ListNotificationsForUser(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "query notifications")
	}
	defer rows.Close()

	var items []*domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePersistence, "scan notification row")
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "iterate notification rows")
	}
	return items, nil
}

// MarkNotificationRead marks one of a user's notifications as read.
// Already-read entries stay at their original read time.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	now := formatTime(time.Now())
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, ?), updated_at = ?
		WHERE id = ? AND user_id = ?`,
		now, now, id, userID,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "mark notification read")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "mark notification read")
	}
	if n == 0 {
		return errors.NotFoundf("notification %s not found", id)
	}
	return nil
}

// CountUnreadNotifications returns the number of unread feed entries.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read_at IS NULL`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodePersistence, "count unread notifications")
	}
	return count, nil
}
