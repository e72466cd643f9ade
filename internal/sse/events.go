// Package sse implements Server-Sent Events for real-time library
// updates. Communication is server-to-client only; everything else in
// the API follows a request/response pattern.
package sse

import (
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventBookCreated represents a book creation event.
	EventBookCreated EventType = "book.created"
	// EventBookUpdated represents a book update event.
	EventBookUpdated EventType = "book.updated"
	// EventBookDeleted represents a book deletion event.
	EventBookDeleted EventType = "book.deleted"

	// EventImageUploaded represents an image ingestion event.
	EventImageUploaded EventType = "image.uploaded"
	// EventImageDeleted represents an image removal event.
	EventImageDeleted EventType = "image.deleted"
	// EventCoverChanged fires whenever a book's primary cover reference
	// changes, including promotion after a delete.
	EventCoverChanged EventType = "cover.changed"

	// EventLoanBorrowed represents a borrow event.
	EventLoanBorrowed EventType = "loan.borrowed"
	// EventLoanReturned represents a return event.
	EventLoanReturned EventType = "loan.returned"

	// EventNotificationCreated pushes a feed entry to its owner.
	EventNotificationCreated EventType = "notification.created"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct
// deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID filters delivery to one user. Empty means broadcast to
	// all connected clients. Not sent to the client.
	UserID string `json:"-"`
}

// BookEventData is the data payload for book events.
type BookEventData struct {
	Book *domain.Book `json:"book"`
}

// BookDeletedEventData is the data payload for book delete events.
type BookDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	BookID    string    `json:"book_id"`
}

// ImageEventData is the data payload for image upload events.
type ImageEventData struct {
	Image *domain.BookImage `json:"image"`
}

// ImageDeletedEventData is the data payload for image delete events.
type ImageDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	ImageID   string    `json:"image_id"`
	BookID    string    `json:"book_id,omitempty"`
}

// CoverChangedEventData is the data payload for cover change events.
// CoverPath is empty when the book no longer has a cover.
type CoverChangedEventData struct {
	BookID    string `json:"book_id"`
	ImageID   string `json:"image_id,omitempty"`
	CoverPath string `json:"cover_path,omitempty"`
}

// LoanEventData is the data payload for loan events.
type LoanEventData struct {
	Loan *domain.Loan `json:"loan"`
}

// NotificationEventData is the data payload for notification events.
type NotificationEventData struct {
	Notification *domain.Notification `json:"notification"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewBookCreatedEvent creates a book.created event.
func NewBookCreatedEvent(book *domain.Book) Event {
	return Event{
		Type:      EventBookCreated,
		Data:      BookEventData{Book: book},
		Timestamp: time.Now(),
	}
}

// NewBookUpdatedEvent creates a book.updated event.
func NewBookUpdatedEvent(book *domain.Book) Event {
	return Event{
		Type:      EventBookUpdated,
		Data:      BookEventData{Book: book},
		Timestamp: time.Now(),
	}
}

// NewBookDeletedEvent creates a book.deleted event.
func NewBookDeletedEvent(bookID string, deletedAt time.Time) Event {
	return Event{
		Type: EventBookDeleted,
		Data: BookDeletedEventData{
			BookID:    bookID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewImageUploadedEvent creates an image.uploaded event.
func NewImageUploadedEvent(image *domain.BookImage) Event {
	return Event{
		Type:      EventImageUploaded,
		Data:      ImageEventData{Image: image},
		Timestamp: time.Now(),
	}
}

// NewImageDeletedEvent creates an image.deleted event.
func NewImageDeletedEvent(imageID, bookID string, deletedAt time.Time) Event {
	return Event{
		Type: EventImageDeleted,
		Data: ImageDeletedEventData{
			ImageID:   imageID,
			BookID:    bookID,
			DeletedAt: deletedAt,
		},
		Timestamp: time.Now(),
	}
}

// NewCoverChangedEvent creates a cover.changed event.
func NewCoverChangedEvent(bookID, imageID, coverPath string) Event {
	return Event{
		Type: EventCoverChanged,
		Data: CoverChangedEventData{
			BookID:    bookID,
			ImageID:   imageID,
			CoverPath: coverPath,
		},
		Timestamp: time.Now(),
	}
}

// NewLoanBorrowedEvent creates a loan.borrowed event.
func NewLoanBorrowedEvent(loan *domain.Loan) Event {
	return Event{
		Type:      EventLoanBorrowed,
		Data:      LoanEventData{Loan: loan},
		Timestamp: time.Now(),
	}
}

// NewLoanReturnedEvent creates a loan.returned event.
func NewLoanReturnedEvent(loan *domain.Loan) Event {
	return Event{
		Type:      EventLoanReturned,
		Data:      LoanEventData{Loan: loan},
		Timestamp: time.Now(),
	}
}

// NewNotificationEvent creates a notification.created event targeted at
// the notification's owner.
func NewNotificationEvent(n *domain.Notification) Event {
	return Event{
		Type:      EventNotificationCreated,
		Data:      NotificationEventData{Notification: n},
		Timestamp: time.Now(),
		UserID:    n.UserID,
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
