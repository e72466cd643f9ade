// Package api provides the HTTP API server and handlers for the BookHaven server.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
	"github.com/bookhavenapp/bookhaven-server/internal/logger"
	"github.com/bookhavenapp/bookhaven-server/internal/ratelimit"
	"github.com/bookhavenapp/bookhaven-server/internal/service"
	"github.com/bookhavenapp/bookhaven-server/internal/sse"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	books         *service.BookService
	images        *service.ImageService
	users         *service.UserService
	loans         *service.LoanService
	notifications *service.NotificationService
	sseHandler    *sse.Handler
	limiter       *ratelimit.KeyedRateLimiter
	router        *chi.Mux
	logger        *logger.Logger

	// uploadsDir is the base directory served under /api/v1/files/.
	uploadsDir     string
	maxUploadBytes int64
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(
	books *service.BookService,
	images *service.ImageService,
	users *service.UserService,
	loans *service.LoanService,
	notifications *service.NotificationService,
	sseHandler *sse.Handler,
	limiter *ratelimit.KeyedRateLimiter,
	uploadsDir string,
	maxUploadBytes int64,
	log *logger.Logger,
) *Server {
	s := &Server{
		books:          books,
		images:         images,
		users:          users,
		loans:          loans,
		notifications:  notifications,
		sseHandler:     sseHandler,
		limiter:        limiter,
		router:         chi.NewRouter(),
		logger:         log,
		uploadsDir:     uploadsDir,
		maxUploadBytes: maxUploadBytes,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", headerUserID},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.rateLimit)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Books.
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/search", s.handleSearchBooks)
			r.Get("/{id}", s.handleGetBook)
			r.Get("/{id}/images", s.handleListBookImages)
			r.Get("/{id}/loans", s.handleListBookLoans)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/", s.handleCreateBook)
				r.Put("/{id}", s.handleUpdateBook)
				r.Delete("/{id}", s.handleDeleteBook)
				r.Post("/{id}/images", s.handleUploadBookImage)
			})
		})

		// Images.
		r.Route("/images", func(r chi.Router) {
			r.Get("/{id}", s.handleGetImage)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/", s.handleUploadImage)
				r.Patch("/{id}", s.handleUpdateImage)
				r.Delete("/{id}", s.handleDeleteImage)
			})
		})

		// Stored originals and derivatives.
		r.Handle("/files/*", http.StripPrefix("/api/v1/files/",
			http.FileServer(http.Dir(s.uploadsDir))))

		// Users.
		r.Route("/users", func(r chi.Router) {
			r.Post("/", s.handleRegisterUser)
			r.Post("/login", s.handleLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.requireUser)
				r.Get("/{id}", s.handleGetUser)
				r.Get("/{id}/loans", s.handleListUserLoans)
				r.Get("/{id}/notifications", s.handleListNotifications)
				r.Post("/{id}/notifications/{notificationID}/read", s.handleMarkNotificationRead)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/", s.handleListUsers)
				r.Patch("/{id}", s.handleUpdateUser)
				r.Delete("/{id}", s.handleDeleteUser)
			})
		})

		// Loans.
		r.Route("/loans", func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/", s.handleBorrow)
			r.Post("/{id}/return", s.handleReturn)
		})

		// Live updates.
		r.Get("/events", s.sseHandler.ServeHTTP)
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger.Logger)
}
