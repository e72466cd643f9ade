package sqlite

import (
	"context"
	"testing"

	"github.com/bookhavenapp/bookhaven-server/internal/errors"
)

func TestCreateAndGetBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := makeTestBook("book-1", "A Wizard of Earthsea")
	b.Author = "Ursula K. Le Guin"
	b.Category = "Fantasy"
	b.ISBN = "978-0547773742"
	b.Description = "The first book of Earthsea."
	b.Publisher = "Parnassus Press"
	b.PublishYear = "1968"
	b.Language = "en"
	b.TotalCopies = 3
	b.AvailableCopies = 3
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	got, err := s.GetBook(ctx, "book-1")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != b.Title {
		t.Errorf("Title: got %q, want %q", got.Title, b.Title)
	}
	if got.Author != b.Author {
		t.Errorf("Author: got %q, want %q", got.Author, b.Author)
	}
	if got.Category != b.Category {
		t.Errorf("Category: got %q, want %q", got.Category, b.Category)
	}
	if got.ISBN != b.ISBN {
		t.Errorf("ISBN: got %q, want %q", got.ISBN, b.ISBN)
	}
	if got.Publisher != b.Publisher {
		t.Errorf("Publisher: got %q, want %q", got.Publisher, b.Publisher)
	}
	if got.PublishYear != b.PublishYear {
		t.Errorf("PublishYear: got %q, want %q", got.PublishYear, b.PublishYear)
	}
	if got.Language != b.Language {
		t.Errorf("Language: got %q, want %q", got.Language, b.Language)
	}
	if got.TotalCopies != 3 || got.AvailableCopies != 3 {
		t.Errorf("copies: got %d/%d, want 3/3", got.AvailableCopies, got.TotalCopies)
	}
	if got.CoverImagePath != "" {
		t.Errorf("CoverImagePath: expected empty, got %q", got.CoverImagePath)
	}
}

func TestGetBook_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetBook(context.Background(), "book-missing")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestListBooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	zebra := makeTestBook("book-z", "Zen Mind")
	zebra.Category = "Philosophy"
	zebra.Author = "Suzuki"
	if err := s.CreateBook(ctx, zebra); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	apple := makeTestBook("book-a", "Anathem")
	apple.Category = "SF"
	apple.Author = "Stephenson"
	if err := s.CreateBook(ctx, apple); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	mid := makeTestBook("book-m", "Maus")
	mid.Category = "SF" // Deliberately same category as Anathem.
	mid.Author = "Spiegelman"
	if err := s.CreateBook(ctx, mid); err != nil {
		t.Fatalf("CreateBook: %v", err)
	}

	all, err := s.ListBooks(ctx, BookFilter{})
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 books, got %d", len(all))
	}
	// Ordered by title.
	if all[0].ID != "book-a" || all[1].ID != "book-m" || all[2].ID != "book-z" {
		t.Errorf("title order wrong: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}

	sf, err := s.ListBooks(ctx, BookFilter{Category: "SF"})
	if err != nil {
		t.Fatalf("ListBooks(SF): %v", err)
	}
	if len(sf) != 2 {
		t.Errorf("expected 2 SF books, got %d", len(sf))
	}

	byAuthor, err := s.ListBooks(ctx, BookFilter{Author: "Stephenson"})
	if err != nil {
		t.Fatalf("ListBooks(author): %v", err)
	}
	if len(byAuthor) != 1 || byAuthor[0].ID != "book-a" {
		t.Errorf("author filter: got %d results", len(byAuthor))
	}

	page, err := s.ListBooks(ctx, BookFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListBooks(page): %v", err)
	}
	if len(page) != 1 || page[0].ID != "book-m" {
		t.Errorf("pagination: expected book-m, got %v", page)
	}
}

func TestUpdateBook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	b := mustCreateBook(t, s, "book-1", "Draft Title")

	// Give the book a primary cover so we can prove UpdateBook leaves the
	// denormalized path alone.
	img := makeTestImage("img-1", "book-1")
	mustCreateImage(t, s, img)
	if err := s.SetPrimaryImage(ctx, "book-1", "img-1", img.MediumPath); err != nil {
		t.Fatalf("SetPrimaryImage: %v", err)
	}

	b.Title = "Final Title"
	b.Author = "Someone"
	b.Touch()
	if err := s.UpdateBook(ctx, b); err != nil {
		t.Fatalf("UpdateBook: %v", err)
	}

	got, err := s.GetBook(ctx, "book-1")
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != "Final Title" {
		t.Errorf("Title: got %q", got.Title)
	}
	if got.Author != "Someone" {
		t.Errorf("Author: got %q", got.Author)
	}
	if got.CoverImagePath != img.MediumPath {
		t.Errorf("UpdateBook must not touch cover_image_path, got %q", got.CoverImagePath)
	}
}

func TestUpdateBook_NotFound(t *testing.T) {
	s := newTestStore(t)

	b := makeTestBook("book-missing", "Ghost")
	err := s.UpdateBook(context.Background(), b)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteBook_DetachesImages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	mustCreateBook(t, s, "book-1", "Ephemeral")
	mustCreateImage(t, s, makeTestImage("img-1", "book-1"))

	if err := s.DeleteBook(ctx, "book-1"); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}

	_, err := s.GetBook(ctx, "book-1")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND after delete, got %v", err)
	}

	// The image row survives with its book reference cleared.
	img, err := s.GetImage(ctx, "img-1")
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if img.BookID != "" {
		t.Errorf("image should be detached, got book_id %q", img.BookID)
	}

	// Deleting again reports not found.
	err = s.DeleteBook(ctx, "book-1")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND on second delete, got %v", err)
	}
}
