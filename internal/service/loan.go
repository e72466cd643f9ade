package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
	"github.com/bookhavenapp/bookhaven-server/internal/id"
	"github.com/bookhavenapp/bookhaven-server/internal/sse"
	"github.com/bookhavenapp/bookhaven-server/internal/store/sqlite"
)

// defaultLoanPeriod is how long a borrowed copy is held before it is due.
const defaultLoanPeriod = 14 * 24 * time.Hour

// LoanService manages borrow/return cycles and the resulting feed
// entries.
type LoanService struct {
	store         *sqlite.Store
	notifications *NotificationService
	events        *sse.Manager
	logger        *slog.Logger
}

// NewLoanService creates a new loan service.
func NewLoanService(
	store *sqlite.Store,
	notifications *NotificationService,
	events *sse.Manager,
	logger *slog.Logger,
) *LoanService {
	return &LoanService{
		store:         store,
		notifications: notifications,
		events:        events,
		logger:        logger,
	}
}

// Borrow lends one copy of a book to a user. Returns a CONFLICT error
// when no copies are available. The borrower gets a feed entry; its
// failure does not undo the loan.
func (s *LoanService) Borrow(ctx context.Context, bookID, userID string) (*domain.Loan, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	loanID, err := id.Generate("loan")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate loan id")
	}

	now := time.Now()
	loan := &domain.Loan{
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: now,
		DueAt:      now.Add(defaultLoanPeriod),
	}
	loan.ID = loanID
	loan.InitTimestamps()

	if err := s.store.CreateLoan(ctx, loan); err != nil {
		return nil, err
	}

	if _, err := s.notifications.Notify(ctx, userID,
		domain.NotificationLoanBorrowed,
		fmt.Sprintf("You borrowed %q", book.Title),
		fmt.Sprintf("Due back on %s.", loan.DueAt.Format("January 2, 2006")),
	); err != nil {
		s.logger.Warn("failed to record borrow notification",
			"loan_id", loan.ID,
			"error", err,
		)
	}

	s.events.Emit(sse.NewLoanBorrowedEvent(loan))

	s.logger.Info("book borrowed",
		"loan_id", loan.ID,
		"book_id", bookID,
		"user_id", user.ID,
	)
	return loan, nil
}

// Return closes a loan and puts the copy back in circulation. Returning
// an already-closed loan is a CONFLICT.
func (s *LoanService) Return(ctx context.Context, loanID string) (*domain.Loan, error) {
	if err := s.store.CloseLoan(ctx, loanID, time.Now()); err != nil {
		return nil, err
	}

	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	title := loan.BookID
	if book, err := s.store.GetBook(ctx, loan.BookID); err == nil {
		title = fmt.Sprintf("%q", book.Title)
	}
	if _, err := s.notifications.Notify(ctx, loan.UserID,
		domain.NotificationLoanReturned,
		fmt.Sprintf("You returned %s", title),
		"",
	); err != nil {
		s.logger.Warn("failed to record return notification",
			"loan_id", loan.ID,
			"error", err,
		)
	}

	s.events.Emit(sse.NewLoanReturnedEvent(loan))

	s.logger.Info("book returned",
		"loan_id", loan.ID,
		"book_id", loan.BookID,
		"user_id", loan.UserID,
	)
	return loan, nil
}

// Get returns one loan by ID.
func (s *LoanService) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.store.GetLoan(ctx, loanID)
}

// ListForUser returns a user's loans, newest first.
func (s *LoanService) ListForUser(ctx context.Context, userID string, openOnly bool) ([]*domain.Loan, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListLoansForUser(ctx, userID, openOnly)
}

// ListForBook returns a book's loan history, newest first.
func (s *LoanService) ListForBook(ctx context.Context, bookID string) ([]*domain.Loan, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListLoansForBook(ctx, bookID)
}
