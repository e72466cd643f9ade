package service

import (
	"context"
	"log/slog"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
	"github.com/bookhavenapp/bookhaven-server/internal/id"
	"github.com/bookhavenapp/bookhaven-server/internal/sse"
	"github.com/bookhavenapp/bookhaven-server/internal/store/sqlite"
)

// NotificationService maintains per-user notification feeds and pushes
// new entries over the SSE channel.
type NotificationService struct {
	store  *sqlite.Store
	events *sse.Manager
	logger *slog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(store *sqlite.Store, events *sse.Manager, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		events: events,
		logger: logger,
	}
}

// Notify appends an entry to a user's feed and pushes it to that user's
// live connections.
func (s *NotificationService) Notify(ctx context.Context, userID string, ntype domain.NotificationType, title, body string) (*domain.Notification, error) {
	notificationID, err := id.Generate("ntf")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate notification id")
	}

	n := &domain.Notification{
		UserID: userID,
		Type:   ntype,
		Title:  title,
		Body:   body,
	}
	n.ID = notificationID
	n.InitTimestamps()

	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, err
	}

	s.events.Emit(sse.NewNotificationEvent(n))
	return n, nil
}

// ListForUser returns a user's feed, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListNotificationsForUser(ctx, userID, unreadOnly)
}

// MarkRead marks one of the user's notifications as read. Marking an
// already-read entry keeps its original read time.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.store.MarkNotificationRead(ctx, notificationID, userID)
}

// UnreadCount returns the number of unread entries in a user's feed.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}
