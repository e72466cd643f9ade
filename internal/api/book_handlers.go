package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
	"github.com/bookhavenapp/bookhaven-server/internal/service"
)

// handleCreateBook adds a book to the catalog.
// POST /api/v1/books
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var params service.BookParams
	if !s.decodeBody(w, r, &params) {
		return
	}

	book, err := s.books.Create(r.Context(), params)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Created(w, book, s.logger.Logger)
}

// handleListBooks returns catalog entries, optionally filtered by
// category and author and paginated with limit/offset.
// GET /api/v1/books
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.books.List(r.Context(), parseBookFilter(r))
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, books, s.logger.Logger)
}

// handleSearchBooks runs a full-text catalog search.
// GET /api/v1/books/search?q=...&category=...&limit=...&offset=...
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	result, err := s.books.Search(r.Context(), parseSearchParams(r))
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, result, s.logger.Logger)
}

// handleGetBook returns a single book by ID.
// GET /api/v1/books/{id}
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, book, s.logger.Logger)
}

// handleUpdateBook replaces a book's catalog fields.
// PUT /api/v1/books/{id}
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var params service.BookParams
	if !s.decodeBody(w, r, &params) {
		return
	}

	book, err := s.books.Update(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, book, s.logger.Logger)
}

// handleDeleteBook removes a book and its stored images.
// DELETE /api/v1/books/{id}
func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := s.books.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.NoContent(w)
}
