package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
)

// handleBorrow lends a copy of a book to the calling user. An admin can
// borrow on another user's behalf by naming them in the body.
// POST /api/v1/loans
func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID string `json:"book_id"`
		UserID string `json:"user_id"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	caller := currentUser(r.Context())
	borrower := caller.ID
	if req.UserID != "" && req.UserID != caller.ID {
		if !caller.IsAdmin() {
			response.Forbidden(w, "Cannot borrow on behalf of another user", s.logger.Logger)
			return
		}
		borrower = req.UserID
	}

	loan, err := s.loans.Borrow(r.Context(), req.BookID, borrower)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Created(w, loan, s.logger.Logger)
}

// handleReturn closes a loan.
// POST /api/v1/loans/{id}/return
func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "id")

	loan, err := s.loans.Get(r.Context(), loanID)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	caller := currentUser(r.Context())
	if loan.UserID != caller.ID && !caller.IsAdmin() {
		response.Forbidden(w, "Not your loan", s.logger.Logger)
		return
	}

	returned, err := s.loans.Return(r.Context(), loanID)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, returned, s.logger.Logger)
}

// handleListUserLoans returns a user's loans, newest first.
// GET /api/v1/users/{id}/loans?open=true
func (s *Server) handleListUserLoans(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !s.authorizeSelfOrAdmin(w, r, userID) {
		return
	}

	openOnly := r.URL.Query().Get("open") == "true"
	loans, err := s.loans.ListForUser(r.Context(), userID, openOnly)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, loans, s.logger.Logger)
}

// handleListBookLoans returns a book's loan history.
// GET /api/v1/books/{id}/loans
func (s *Server) handleListBookLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.loans.ListForBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, loans, s.logger.Logger)
}
