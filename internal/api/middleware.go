package api

import (
	"context"
	"net/http"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
)

// headerUserID carries the authenticated identity established by the
// deployment's auth layer in front of this server.
const headerUserID = "X-User-ID"

type contextKey string

const userContextKey contextKey = "user"

// currentUser returns the identity resolved by requireUser/requireAdmin.
func currentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// rateLimit throttles requests per client IP.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(r.RemoteAddr) {
			response.TooManyRequests(w, "Too many requests", s.logger.Logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser resolves the identity header to an account and stores it
// in the request context.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.resolveIdentity(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), userContextKey, user)))
	})
}

// requireAdmin is requireUser plus an admin role check.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.resolveIdentity(w, r)
		if !ok {
			return
		}
		if !user.IsAdmin() {
			response.Forbidden(w, "Admin access required", s.logger.Logger)
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), userContextKey, user)))
	})
}

func (s *Server) resolveIdentity(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		response.Unauthorized(w, "Authentication required", s.logger.Logger)
		return nil, false
	}

	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		response.Unauthorized(w, "Unknown identity", s.logger.Logger)
		return nil, false
	}
	return user, true
}
