package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

const userColumns = `id, created_at, updated_at, name, email, role, password_hash`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User
	var createdAt, updatedAt, role string

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&u.Name,
		&u.Email,
		&role,
		&u.PasswordHash,
	)
	if err != nil {
		return nil, err
	}

	u.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	u.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)

	return &u, nil
}

// CreateUser inserts a new user account.
// Returns an ALREADY_EXISTS error when the email is taken.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, created_at, updated_at, name, email, role, password_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
		u.Name,
		u.Email,
		string(u.Role),
		u.PasswordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errors.AlreadyExists("email already in use")
		}
		return errors.Wrap(err, errors.CodePersistence, "insert user")
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("user %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "get user")
	}
	return u, nil
}

// GetUserByEmail retrieves a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("user with email %s not found", email)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "get user by email")
	}
	return u, nil
}

// ListUsers returns all accounts ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "query users")
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodePersistence, "scan user row")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodePersistence, "iterate user rows")
	}
	return users, nil
}

// UpdateUser performs a full row update on an existing user.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET updated_at = ?, name = ?, email = ?, role = ?, password_hash = ?
		WHERE id = ?`,
		formatTime(u.UpdatedAt),
		u.Name,
		u.Email,
		string(u.Role),
		u.PasswordHash,
		u.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return errors.AlreadyExists("email already in use")
		}
		return errors.Wrap(err, errors.CodePersistence, "update user")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "update user")
	}
	if n == 0 {
		return errors.NotFoundf("user %s not found", u.ID)
	}
	return nil
}

// DeleteUser removes a user account. Loans and notifications cascade.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "delete user")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CodePersistence, "delete user")
	}
	if n == 0 {
		return errors.NotFoundf("user %s not found", id)
	}
	return nil
}
