package reader

import (
	"context"
	"io"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// This file consolidates the dependency interfaces a reading session
// consumes. The session receives concrete implementations at construction
// time; it never reaches into shared state.

// DocumentRef identifies the document a session reads. Immutable for the
// session's lifetime; opening a different book means opening a new session.
type DocumentRef struct {
	BookID            uint
	Title             string
	Author            string
	FileURL           string
	DeclaredPageCount int // provisional until the document is loaded
}

// Viewport is the rendered size of a page at a given zoom scale.
type Viewport struct {
	Width  float64
	Height float64
}

// DocumentStore serves remote documents. Load blocks until the document is
// fetched and parsed, or fails.
type DocumentStore interface {
	Load(ctx context.Context, url string) (Document, error)
}

// Document is an open handle on a loaded document. It is owned by exactly
// one session and must be released on teardown to free decode resources.
type Document interface {
	PageCount() int
	Page(n int) (Page, error)
	Release()
}

// Page is a single page of an open document.
type Page interface {
	Viewport(scale float64) Viewport
	RenderInto(w io.Writer, vp Viewport) error
}

// PositionStore persists reading positions keyed by (user, book).
type PositionStore interface {
	// Find returns the stored position, or an error satisfying the
	// progress package's not-found sentinel when none exists.
	Find(userID, bookID uint) (*entities.ReadingProgress, error)

	// Upsert updates the existing record for (user, book) or inserts a
	// new one; it never duplicates.
	Upsert(userID, bookID uint, currentPage int) error
}

// BookmarkStore persists page bookmarks. Create reports an existing
// (user, book, page) combination with bookmarks.ErrDuplicate.
type BookmarkStore interface {
	ListByUserAndBook(userID, bookID uint) ([]entities.Bookmark, error)
	Create(bookmark *entities.Bookmark) error
	Delete(id, userID uint) error
}

// NoteStore persists per-page notes.
type NoteStore interface {
	ListByUserAndBook(userID, bookID uint) ([]entities.Note, error)
	Create(note *entities.Note) error
	Delete(id, userID uint) error
}

// ReviewStore lists the validated reviews shown in the reviews panel.
type ReviewStore interface {
	ListValidatedByBook(bookID uint) ([]entities.Comment, error)
}
