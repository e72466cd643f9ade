package domain

import "time"

// NotificationType classifies feed entries.
type NotificationType string

// Notification types.
const (
	NotificationLoanBorrowed NotificationType = "loan.borrowed"
	NotificationLoanReturned NotificationType = "loan.returned"
	NotificationBookAdded    NotificationType = "book.added"
	NotificationSystem       NotificationType = "system"
)

// Notification is one entry in a user's notification feed. Entries are
// readable over the REST feed and pushed live over the SSE channel.
type Notification struct {
	Entity
	UserID string           `json:"user_id"`
	Type   NotificationType `json:"type"`
	Title  string           `json:"title"`
	Body   string           `json:"body,omitempty"`
	ReadAt *time.Time       `json:"read_at,omitempty"`
}

// IsRead reports whether the notification has been marked read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
