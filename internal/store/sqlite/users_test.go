package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

func makeTestUser(id, email string) *domain.User {
	now := time.Now()
	return &domain.User{
		Entity: domain.Entity{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:         "Test User",
		Email:        email,
		Role:         domain.RoleMember,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}
}

func mustCreateUser(t *testing.T, s *Store, id, email string) *domain.User {
	t.Helper()
	u := makeTestUser(id, email)
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s): %v", id, err)
	}
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "reader@example.com")

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != u.Email {
		t.Errorf("Email: got %q, want %q", got.Email, u.Email)
	}
	if got.Role != domain.RoleMember {
		t.Errorf("Role: got %q, want member", got.Role)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Errorf("PasswordHash mismatch")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "user-1", "reader@example.com")

	dup := makeTestUser("user-2", "reader@example.com")
	err := s.CreateUser(context.Background(), dup)
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("expected ALREADY_EXISTS, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "reader@example.com")

	got, err := s.GetUserByEmail(ctx, "reader@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q", got.ID)
	}

	_, err = s.GetUserByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "user-1", "a@example.com")
	mustCreateUser(t, s, "user-2", "b@example.com")

	users, err := s.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := mustCreateUser(t, s, "user-1", "reader@example.com")

	u.Name = "Renamed"
	u.Role = domain.RoleAdmin
	u.Touch()
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name: got %q", got.Name)
	}
	if !got.IsAdmin() {
		t.Error("role change did not persist")
	}
}

func TestUpdateUser_EmailCollision(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "user-1", "a@example.com")
	u2 := mustCreateUser(t, s, "user-2", "b@example.com")

	u2.Email = "a@example.com"
	err := s.UpdateUser(context.Background(), u2)
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("expected ALREADY_EXISTS, got %v", err)
	}
}

func TestDeleteUser_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateUser(t, s, "user-1", "reader@example.com")
	mustCreateBook(t, s, "book-1", "Borrowable")

	loan := makeTestLoan("loan-1", "book-1", "user-1")
	if err := s.CreateLoan(ctx, loan); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	if err := s.DeleteUser(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}

	_, err := s.GetLoan(ctx, "loan-1")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("loan should cascade with its user, got %v", err)
	}

	err = s.DeleteUser(ctx, "user-1")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND on second delete, got %v", err)
	}
}
