package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
	"github.com/bookhavenapp/bookhaven-server/internal/service"
)

// handleRegisterUser creates a library account.
// POST /api/v1/users
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var params service.RegisterParams
	if !s.decodeBody(w, r, &params) {
		return
	}

	// Open registration only creates members; roles are granted by an
	// admin afterwards.
	params.Role = ""

	user, err := s.users.Register(r.Context(), params)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Created(w, user, s.logger.Logger)
}

// handleLogin checks credentials and returns the account.
// POST /api/v1/users/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !s.decodeBody(w, r, &creds) {
		return
	}

	user, err := s.users.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, user, s.logger.Logger)
}

// handleListUsers returns all accounts.
// GET /api/v1/users
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, users, s.logger.Logger)
}

// handleGetUser returns one account. Members can only read their own.
// GET /api/v1/users/{id}
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !s.authorizeSelfOrAdmin(w, r, userID) {
		return
	}

	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, user, s.logger.Logger)
}

// handleUpdateUser applies a partial account update.
// PATCH /api/v1/users/{id}
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var params service.UserUpdateParams
	if !s.decodeBody(w, r, &params) {
		return
	}

	user, err := s.users.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, user, s.logger.Logger)
}

// handleDeleteUser removes an account and its loan history.
// DELETE /api/v1/users/{id}
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.NoContent(w)
}

// authorizeSelfOrAdmin lets a member act on their own resources and an
// admin on anyone's.
func (s *Server) authorizeSelfOrAdmin(w http.ResponseWriter, r *http.Request, userID string) bool {
	caller := currentUser(r.Context())
	if caller == nil {
		response.Unauthorized(w, "Authentication required", s.logger.Logger)
		return false
	}
	if caller.ID != userID && !caller.IsAdmin() {
		response.Forbidden(w, "Access denied", s.logger.Logger)
		return false
	}
	return true
}
