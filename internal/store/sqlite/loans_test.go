package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

func makeTestLoan(id, bookID, userID string) *domain.Loan {
	now := time.Now()
	return &domain.Loan{
		Entity: domain.Entity{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookID:     bookID,
		UserID:     userID,
		BorrowedAt: now,
		DueAt:      now.Add(14 * 24 * time.Hour),
	}
}

func TestCreateLoan_DecrementsAvailability(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "reader@example.com")

	b := makeTestBook("book-1", "Hyperion")
	b.TotalCopies = 2
	b.AvailableCopies = 2
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	if err := s.CreateLoan(ctx, makeTestLoan("loan-1", "book-1", "user-1")); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	got, err := s.GetBook(ctx, "book-1")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.AvailableCopies != 1 {
		t.Errorf("AvailableCopies: got %d, want 1", got.AvailableCopies)
	}

	loan, err := s.GetLoan(ctx, "loan-1")
	if err != nil {
		t.Fatalf("GetLoan: %v", err)
	}
	if loan.IsReturned() {
		t.Error("fresh loan should be open")
	}
	if loan.BookID != "book-1" || loan.UserID != "user-1" {
		t.Errorf("loan refs: got %s/%s", loan.BookID, loan.UserID)
	}
}

func TestCreateLoan_NoCopies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "reader@example.com")
	mustCreateBook(t, s, "book-1", "Scarce") // 1 copy

	if err := s.CreateLoan(ctx, makeTestLoan("loan-1", "book-1", "user-1")); err != nil {
		t.Fatalf("first borrow: %v", err)
	}

	err := s.CreateLoan(ctx, makeTestLoan("loan-2", "book-1", "user-1"))
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected CONFLICT when no copies remain, got %v", err)
	}

	// The failed borrow must not leave a loan row behind.
	_, err = s.GetLoan(ctx, "loan-2")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("loan-2 should not exist, got %v", err)
	}
}

func TestCloseLoan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "reader@example.com")
	mustCreateBook(t, s, "book-1", "Returnable")

	if err := s.CreateLoan(ctx, makeTestLoan("loan-1", "book-1", "user-1")); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	if err := s.CloseLoan(ctx, "loan-1", time.Now()); err != nil {
		t.Fatalf("CloseLoan: %v", err)
	}

	loan, err := s.GetLoan(ctx, "loan-1")
	if err != nil {
		t.Fatalf("GetLoan: %v", err)
	}
	if !loan.IsReturned() {
		t.Error("loan should be closed")
	}

	book, err := s.GetBook(ctx, "book-1")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if book.AvailableCopies != 1 {
		t.Errorf("AvailableCopies: got %d, want 1", book.AvailableCopies)
	}

	// Closing twice is a conflict and must not bump availability again.
	err = s.CloseLoan(ctx, "loan-1", time.Now())
	if !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected CONFLICT on double return, got %v", err)
	}
	book, _ = s.GetBook(ctx, "book-1")
	if book.AvailableCopies != 1 {
		t.Errorf("double return changed availability: got %d", book.AvailableCopies)
	}
}

func TestCloseLoan_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.CloseLoan(context.Background(), "loan-missing", time.Now())
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCloseLoan_AvailabilityCapped(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "reader@example.com")
	mustCreateBook(t, s, "book-1", "Capped")

	if err := s.CreateLoan(ctx, makeTestLoan("loan-1", "book-1", "user-1")); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	// Simulate an admin shrinking the copy count while the loan is open.
	b, _ := s.GetBook(ctx, "book-1")
	b.TotalCopies = 0
	b.AvailableCopies = 0
	if err := s.UpdateBook(ctx, b); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}

	if err := s.CloseLoan(ctx, "loan-1", time.Now()); err != nil {
		t.Fatalf("CloseLoan: %v", err)
	}
	b, _ = s.GetBook(ctx, "book-1")
	if b.AvailableCopies != 0 {
		t.Errorf("availability must not exceed total copies, got %d", b.AvailableCopies)
	}
}

func TestListLoans(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "a@example.com")
	mustCreateUser(t, s, "user-2", "b@example.com")

	b := makeTestBook("book-1", "Popular")
	b.TotalCopies = 5
	b.AvailableCopies = 5
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	older := makeTestLoan("loan-older", "book-1", "user-1")
	older.BorrowedAt = time.Now().Add(-48 * time.Hour)
	if err := s.CreateLoan(ctx, older); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	newer := makeTestLoan("loan-newer", "book-1", "user-1")
	if err := s.CreateLoan(ctx, newer); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	other := makeTestLoan("loan-other", "book-1", "user-2")
	if err := s.CreateLoan(ctx, other); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	if err := s.CloseLoan(ctx, "loan-older", time.Now()); err != nil {
		t.Fatalf("CloseLoan: %v", err)
	}

	all, err := s.ListLoansForUser(ctx, "user-1", false)
	if err != nil {
		t.Fatalf("ListLoansForUser: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 loans, got %d", len(all))
	}
	if all[0].ID != "loan-newer" {
		t.Errorf("newest first: got %s", all[0].ID)
	}

	open, err := s.ListLoansForUser(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("ListLoansForUser(open): %v", err)
	}
	if len(open) != 1 || open[0].ID != "loan-newer" {
		t.Errorf("open filter: got %d loans", len(open))
	}

	history, err := s.ListLoansForBook(ctx, "book-1")
	if err != nil {
		t.Fatalf("ListLoansForBook: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("expected 3 loans in book history, got %d", len(history))
	}
}
