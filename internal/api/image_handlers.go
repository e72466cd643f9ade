package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
	"github.com/bookhavenapp/bookhaven-server/internal/service"
)

// handleUploadBookImage ingests an image for a book.
// POST /api/v1/books/{id}/images
// Content-Type: multipart/form-data with a "file" field plus optional
// image_type, alt_text, caption, copyright, is_primary, display_order.
func (s *Server) handleUploadBookImage(w http.ResponseWriter, r *http.Request) {
	s.uploadImage(w, r, chi.URLParam(r, "id"))
}

// handleUploadImage ingests an unattached image.
// POST /api/v1/images
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	s.uploadImage(w, r, r.FormValue("book_id"))
}

func (s *Server) uploadImage(w http.ResponseWriter, r *http.Request, bookID string) {
	// Leave headroom for the non-file form fields.
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file uploaded. Use 'file' field in multipart form", s.logger.Logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.logger.Error("failed to read uploaded file", "error", err)
		response.InternalError(w, "Failed to read uploaded file", s.logger.Logger)
		return
	}

	params := service.UploadParams{
		BookID:    bookID,
		Filename:  header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Data:      data,
		ImageType: domain.ImageType(r.FormValue("image_type")),
		AltText:   r.FormValue("alt_text"),
		Caption:   r.FormValue("caption"),
		Copyright: r.FormValue("copyright"),
		IsPrimary: r.FormValue("is_primary") == "true",
	}
	if order, err := strconv.Atoi(r.FormValue("display_order")); err == nil {
		params.DisplayOrder = order
	}

	img, err := s.images.Upload(r.Context(), params)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Created(w, img, s.logger.Logger)
}

// handleGetImage returns one image row with URLs.
// GET /api/v1/images/{id}
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.images.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, img, s.logger.Logger)
}

// handleListBookImages returns a book's images, optionally filtered by
// type, ordered primary first.
// GET /api/v1/books/{id}/images?type=cover
func (s *Server) handleListBookImages(w http.ResponseWriter, r *http.Request) {
	list, err := s.images.ListForBook(r.Context(),
		chi.URLParam(r, "id"),
		domain.ImageType(r.URL.Query().Get("type")))
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, list, s.logger.Logger)
}

// handleUpdateImage applies a partial metadata patch.
// PATCH /api/v1/images/{id}
func (s *Server) handleUpdateImage(w http.ResponseWriter, r *http.Request) {
	var patch domain.ImagePatch
	if !s.decodeBody(w, r, &patch) {
		return
	}

	img, err := s.images.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, img, s.logger.Logger)
}

// handleDeleteImage removes an image's files and row.
// DELETE /api/v1/images/{id}
func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := s.images.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.NoContent(w)
}
