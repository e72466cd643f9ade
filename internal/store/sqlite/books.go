package sqlite

import (
	"context"
	"database/sql"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, title, author, category, isbn,
	description, publisher, publish_year, language, cover_image_path,
	total_copies, available_copies`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt      string
		updatedAt      string
		author         sql.NullString
		category       sql.NullString
		isbn           sql.NullString
		description    sql.NullString
		publisher      sql.NullString
		publishYear    sql.NullString
		language       sql.NullString
		coverImagePath sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.Title,
		&author,
		&category,
		&isbn,
		&description,
		&publisher,
		&publishYear,
		&language,
		&coverImagePath,
		&b.TotalCopies,
		&b.AvailableCopies,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if author.Valid {
		b.Author = author.String
	}
	if category.Valid {
		b.Category = category.String
	}
	if isbn.Valid {
		b.ISBN = isbn.String
	}
	if description.Valid {
		b.Description = description.String
	}
	if publisher.Valid {
		b.Publisher = publisher.String
	}
	if publishYear.Valid {
		b.PublishYear = publishYear.String
	}
	if language.Valid {
		b.Language = language.String
	}
	if coverImagePath.Valid {
		b.CoverImagePath = coverImagePath.String
	}

	return &b, nil
}

// CreateBook inserts a new book into the catalog.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, title, author, category, isbn,
			description, publisher, publish_year, language, cover_image_path,
			total_copies, available_copies
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
		b.Title,
		nullString(b.Author),
		nullString(b.Category),
		nullString(b.ISBN),
		nullString(b.Description),
		nullString(b.Publisher),
		nullString(b.PublishYear),
		nullString(b.Language),
		nullString(b.CoverImagePath),
		b.TotalCopies,
		b.AvailableCopies,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "insert book")
	}
	return nil
}

// GetBook retrieves a book by ID.
// Returns a NOT_FOUND error if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("book %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "get book")
	}
	return b, nil
}

// BookFilter narrows ListBooks results. Zero values mean "no filter".
type BookFilter struct {
	Category string
	Author   string
	Limit    int
	Offset   int
}

// ListBooks returns catalog entries ordered by title, optionally filtered
// by category and author.
func (s *Store) ListBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Author != "" {
		query += ` AND author = ?`
		args = append(args, filter.Author)
	}
	query += ` ORDER BY title ASC, id ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "query books")
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePersistence, "scan book row")
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "iterate book rows")
	}
	return books, nil
}

// UpdateBook performs a full row update on an existing book. The
// denormalized cover_image_path is deliberately excluded; only the
// primary-cover operations write it.
func (s *Store) UpdateBook(ctx context.Context, b *domain.Book) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?,
			title = ?,
			author = ?,
			category = ?,
			isbn = ?,
			description = ?,
			publisher = ?,
			publish_year = ?,
			language = ?,
			total_copies = ?,
			available_copies = ?
		WHERE id = ?`,
		formatTime(b.UpdatedAt),
		b.Title,
		nullString(b.Author),
		nullString(b.Category),
		nullString(b.ISBN),
		nullString(b.Description),
		nullString(b.Publisher),
		nullString(b.PublishYear),
		nullString(b.Language),
		b.TotalCopies,
		b.AvailableCopies,
		b.ID,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "update book")
	}

	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "update book")
	}
	if n == 0 {
		return errors.NotFoundf("book %s not found", b.ID)
	}
	return nil
}

// DeleteBook removes a book row. Image rows are detached by the schema's
// ON DELETE SET NULL; their files are cleaned up by the service layer
// before this is called.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "delete book")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "delete book")
	}
	if n == 0 {
		return errors.NotFoundf("book %s not found", id)
	}
	return nil
}
