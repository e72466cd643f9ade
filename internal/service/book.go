package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
	"github.com/bookhavenapp/bookhaven-server/internal/errors"
	"github.com/bookhavenapp/bookhaven-server/internal/id"
	"github.com/bookhavenapp/bookhaven-server/internal/normalize"
	"github.com/bookhavenapp/bookhaven-server/internal/search"
	"github.com/bookhavenapp/bookhaven-server/internal/sse"
	"github.com/bookhavenapp/bookhaven-server/internal/store/sqlite"
	"github.com/bookhavenapp/bookhaven-server/internal/validation"
)

// BookParams carries the writable catalog fields of a book. The cover
// reference is excluded on purpose; it is owned by the image pipeline.
type BookParams struct {
	Title       string `json:"title" validate:"required,max=500"`
	Author      string `json:"author" validate:"max=200"`
	Category    string `json:"category" validate:"max=100"`
	ISBN        string `json:"isbn" validate:"max=20"`
	Description string `json:"description"`
	Publisher   string `json:"publisher" validate:"max=200"`
	PublishYear string `json:"publish_year" validate:"max=10"`
	Language    string `json:"language" validate:"max=50"`
	TotalCopies int    `json:"total_copies" validate:"gte=0"`
}

// BookService manages the library catalog.
type BookService struct {
	store     *sqlite.Store
	images    *ImageService
	search    *search.Index
	events    *sse.Manager
	validator *validation.Validator
	logger    *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(
	store *sqlite.Store,
	images *ImageService,
	searchIndex *search.Index,
	events *sse.Manager,
	validator *validation.Validator,
	logger *slog.Logger,
) *BookService {
	return &BookService{
		store:     store,
		images:    images,
		search:    searchIndex,
		events:    events,
		validator: validator,
		logger:    logger,
	}
}

// Create adds a book to the catalog. All copies start available.
func (s *BookService) Create(ctx context.Context, p BookParams) (*domain.Book, error) {
	if err := s.validator.Validate(p); err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate book id")
	}

	book := &domain.Book{
		Title:           p.Title,
		Author:          p.Author,
		Category:        p.Category,
		ISBN:            p.ISBN,
		Description:     p.Description,
		Publisher:       p.Publisher,
		PublishYear:     p.PublishYear,
		Language:        canonicalLanguage(p.Language),
		TotalCopies:     p.TotalCopies,
		AvailableCopies: p.TotalCopies,
	}
	book.ID = bookID
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, err
	}

	s.indexBook(book)
	s.events.Emit(sse.NewBookCreatedEvent(book))

	s.logger.Info("book created",
		"book_id", book.ID,
		"title", book.Title,
	)
	return book, nil
}

// Get returns one book by ID.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// List returns catalog entries matching the filter, ordered by title.
func (s *BookService) List(ctx context.Context, filter sqlite.BookFilter) ([]*domain.Book, error) {
	return s.store.ListBooks(ctx, filter)
}

// Update replaces a book's catalog fields. The cover reference is left
// untouched; only the primary-cover operations may write it. Shrinking
// the copy count caps availability at the new total.
func (s *BookService) Update(ctx context.Context, bookID string, p BookParams) (*domain.Book, error) {
	if err := s.validator.Validate(p); err != nil {
		return nil, err
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	onLoan := book.TotalCopies - book.AvailableCopies

	book.Title = p.Title
	book.Author = p.Author
	book.Category = p.Category
	book.ISBN = p.ISBN
	book.Description = p.Description
	book.Publisher = p.Publisher
	book.PublishYear = p.PublishYear
	book.Language = canonicalLanguage(p.Language)
	book.TotalCopies = p.TotalCopies
	book.AvailableCopies = max(p.TotalCopies-onLoan, 0)
	book.Touch()

	if err := s.store.UpdateBook(ctx, book); err != nil {
		return nil, err
	}

	s.indexBook(book)
	s.events.Emit(sse.NewBookUpdatedEvent(book))
	return book, nil
}

// Delete removes a book along with its stored images. Image rows and
// files go first so nothing is left pointing at deleted paths.
func (s *BookService) Delete(ctx context.Context, bookID string) error {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return err
	}

	if err := s.images.deleteAllForBook(ctx, bookID); err != nil {
		return err
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteBook(bookID); err != nil {
			s.logger.Warn("failed to remove book from search index",
				"book_id", bookID,
				"error", err,
			)
		}
	}

	s.events.Emit(sse.NewBookDeletedEvent(bookID, time.Now()))

	s.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// Search runs a full-text query over the catalog index.
func (s *BookService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if s.search == nil {
		return nil, errors.Internal("search index not configured")
	}
	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "search catalog")
	}
	return result, nil
}

// RebuildSearchIndex reindexes the whole catalog. Called at startup so
// the index catches up with rows written while it was unavailable.
func (s *BookService) RebuildSearchIndex(ctx context.Context) error {
	if s.search == nil {
		return nil
	}

	books, err := s.store.ListBooks(ctx, sqlite.BookFilter{})
	if err != nil {
		return err
	}

	if err := s.search.IndexBooks(books); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "rebuild search index")
	}

	s.logger.Info("search index rebuilt", "books", len(books))
	return nil
}

// indexBook updates the search index after a catalog write. Index
// failures are logged, never surfaced; the store stays authoritative.
func (s *BookService) indexBook(book *domain.Book) {
	if s.search == nil {
		return
	}
	if err := s.search.IndexBook(book); err != nil {
		s.logger.Warn("failed to index book for search",
			"book_id", book.ID,
			"error", err,
		)
	}
}

// canonicalLanguage maps free-form language input to a display name,
// keeping the raw value when it is not a recognized language.
func canonicalLanguage(raw string) string {
	if name := normalize.Language(raw); name != "" {
		return name
	}
	return raw
}
