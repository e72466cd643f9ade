package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
)

// handleListNotifications returns a user's feed, newest first.
// GET /api/v1/users/{id}/notifications?unread=true
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !s.authorizeSelfOrAdmin(w, r, userID) {
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	feed, err := s.notifications.ListForUser(r.Context(), userID, unreadOnly)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.Success(w, feed, s.logger.Logger)
}

// handleMarkNotificationRead marks one feed entry as read. Marking an
// already-read entry is a no-op success.
// POST /api/v1/users/{id}/notifications/{notificationID}/read
func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if !s.authorizeSelfOrAdmin(w, r, userID) {
		return
	}

	err := s.notifications.MarkRead(r.Context(), chi.URLParam(r, "notificationID"), userID)
	if err != nil {
		response.HandleError(w, err, s.logger.Logger)
		return
	}

	response.NoContent(w)
}
