package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bookhavenapp/bookhaven-server/internal/auth"
	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
	"github.com/bookhavenapp/bookhaven-server/internal/id"
	"github.com/bookhavenapp/bookhaven-server/internal/store/sqlite"
	"github.com/bookhavenapp/bookhaven-server/internal/validation"
)

// RegisterParams carries a new account request.
type RegisterParams struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,oneof=admin member"`
}

// UserUpdateParams carries a partial account update. Nil fields are left
// unchanged.
type UserUpdateParams struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=8,max=128"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin member"`
}

// UserService manages library accounts.
type UserService struct {
	store     *sqlite.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store *sqlite.Store, validator *validation.Validator, logger *slog.Logger) *UserService {
	return &UserService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// Register creates an account with an argon2id password hash. The role
// defaults to member.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (*domain.User, error) {
	if err := s.validator.Validate(p); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "hash password")
	}

	userID, err := id.Generate("usr")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate user id")
	}

	role := domain.Role(p.Role)
	if role == "" {
		role = domain.RoleMember
	}

	user := &domain.User{
		Name:         p.Name,
		Email:        strings.ToLower(p.Email),
		Role:         role,
		PasswordHash: hash,
	}
	user.ID = userID
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"role", string(user.Role),
	)
	return user, nil
}

// Authenticate checks an email/password pair and returns the account.
// Unknown emails and wrong passwords both come back UNAUTHORIZED so the
// response does not leak which one it was.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "verify password")
	}
	if !ok {
		return nil, errors.Unauthorized("invalid credentials")
	}
	return user, nil
}

// Get returns one account by ID.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// List returns all accounts ordered by name.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

// Update applies a partial account update. A new password is re-hashed;
// the stored hash is otherwise preserved.
func (s *UserService) Update(ctx context.Context, userID string, p UserUpdateParams) (*domain.User, error) {
	if err := s.validator.Validate(p); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if p.Name != nil {
		user.Name = *p.Name
	}
	if p.Email != nil {
		user.Email = strings.ToLower(*p.Email)
	}
	if p.Role != nil {
		user.Role = domain.Role(*p.Role)
	}
	if p.Password != nil {
		hash, err := auth.HashPassword(*p.Password)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "hash password")
		}
		user.PasswordHash = hash
	}
	user.Touch()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account and its loan history.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", userID)
	return nil
}
