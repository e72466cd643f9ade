package domain

import "time"

// Loan records one borrow/return cycle of a book copy by a user.
type Loan struct {
	Entity
	BookID     string     `json:"book_id"`
	UserID     string     `json:"user_id"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

// IsReturned reports whether the loan has been closed.
func (l *Loan) IsReturned() bool {
	return l.ReturnedAt != nil
}

// IsOverdue reports whether an open loan is past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.ReturnedAt == nil && now.After(l.DueAt)
}
