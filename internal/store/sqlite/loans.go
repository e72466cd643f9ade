package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

const loanColumns = `id, created_at, updated_at, book_id, user_id, borrowed_at, due_at, returned_at`

func scanLoan(scanner interface{ Scan(dest ...any) error }) (*domain.Loan, error) {
	var l domain.Loan
	var createdAt, updatedAt, borrowedAt, dueAt string
	var returnedAt sql.NullString

	err := scanner.Scan(
		&l.ID,
		&createdAt,
		&updatedAt,
		&l.BookID,
		&l.UserID,
		&borrowedAt,
		&dueAt,
		&returnedAt,
	)
	if err != nil {
		return nil, err
	}

	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if l.BorrowedAt, err = parseTime(borrowedAt); err != nil {
		return nil, err
	}
	if l.DueAt, err = parseTime(dueAt); err != nil {
		return nil, err
	}
	if l.ReturnedAt, err = parseNullableTime(returnedAt); err != nil {
		return nil, err
	}

	return &l, nil
}

// CreateLoan records a borrow and decrements the book's availability in
// one transaction. Returns a CONFLICT error when no copies are available.
func (s *Store) CreateLoan(ctx context.Context, l *domain.Loan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "begin borrow tx")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE books SET available_copies = available_copies - 1, updated_at = ?
		WHERE id = ? AND available_copies > 0`,
		formatTime(time.Now()), l.BookID,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "decrement availability")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "decrement availability")
	}
	if n == 0 {
		return errors.Conflict("no copies available")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO loans (id, created_at, updated_at, book_id, user_id, borrowed_at, due_at, returned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
		l.BookID,
		l.UserID,
		formatTime(l.BorrowedAt),
		formatTime(l.DueAt),
		nullTimeString(l.ReturnedAt),
	); err != nil {
		return errors.Wrap(err, errors.CodePersistence, "insert loan")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodePersistence, "commit borrow tx")
	}
	return nil
}

// GetLoan retrieves a loan by ID.
func (s *Store) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)

	l, err := scanLoan(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("loan %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "get loan")
	}
	return l, nil
}

// CloseLoan marks an open loan as returned at the given time and
// increments the book's availability, capped at the total copy count.
// Returns a CONFLICT error when the loan was already returned.
func (s *Store) CloseLoan(ctx context.Context, id string, returnedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "begin return tx")
	}
	defer tx.Rollback()

	var bookID string
	err = tx.QueryRowContext(ctx,
		`SELECT book_id FROM loans WHERE id = ?`, id).Scan(&bookID)
	if err == sql.ErrNoRows {
		return errors.NotFoundf("loan %s not found", id)
	}
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "get loan for return")
	}

	now := formatTime(time.Now())
	result, err := tx.ExecContext(ctx, `
		UPDATE loans SET returned_at = ?, updated_at = ?
		WHERE id = ? AND returned_at IS NULL`,
		formatTime(returnedAt), now, id,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "close loan")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "close loan")
	}
	if n == 0 {
		return errors.Conflict("loan already returned")
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE books SET
			available_copies = MIN(total_copies, available_copies + 1),
			updated_at = ?
		WHERE id = ?`,
		now, bookID,
	); err != nil {
		return errors.Wrap(err, errors.CodePersistence, "increment availability")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodePersistence, "commit return tx")
	}
	return nil
}

// ListLoansForUser returns a user's loans, newest first. When openOnly is
// set only loans not yet returned are included.
func (s *Store) ListLoansForUser(ctx context.Context, userID string, openOnly bool) ([]*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_id = ?`
	if openOnly {
		query += ` AND returned_at IS NULL`
	}
	query += ` ORDER BY borrowed_at DESC, id ASC`

	return s.queryLoans(ctx, query, userID)
}

// ListLoansForBook returns a book's loan history, newest first.
func (s *Store) ListLoansForBook(ctx context.Context, bookID string) ([]*domain.Loan, error) {
	return s.queryLoans(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE book_id = ? ORDER BY borrowed_at DESC, id ASC`,
		bookID)
}

func (s *Store) queryLoans(ctx context.Context, query string, args ...any) ([]*domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "query loans")
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePersistence, "scan loan row")
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "iterate loan rows")
	}
	return loans, nil
}
