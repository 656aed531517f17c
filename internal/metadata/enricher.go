package metadata

import (
	"context"
	"fmt"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// MetadataProvider defines the interface for fetching book metadata.
type MetadataProvider interface {
	SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error)
}

// BookUpdater reads and rewrites catalog entries.
type BookUpdater interface {
	GetByID(id uint) (*entities.Book, error)
	Update(book *entities.Book) error
}

// CoverInvalidator defines the interface for invalidating cached covers.
type CoverInvalidator interface {
	InvalidateCover(bookID uint) error
}

// EnrichmentResult contains the result of an enrichment operation.
type EnrichmentResult struct {
	Book          *entities.Book `json:"book"`
	FieldsUpdated []string       `json:"fields_updated"`
	Source        string         `json:"source"`
}

// Enricher fills in catalog fields a librarian left blank. Fields that
// already hold a value are never overwritten.
type Enricher struct {
	provider         MetadataProvider
	books            BookUpdater
	coverInvalidator CoverInvalidator
}

// NewEnricher creates a new Enricher with the given metadata provider and catalog.
func NewEnricher(provider MetadataProvider, books BookUpdater) *Enricher {
	return &Enricher{
		provider: provider,
		books:    books,
	}
}

// SetCoverInvalidator sets the cover cache invalidator (optional).
func (e *Enricher) SetCoverInvalidator(invalidator CoverInvalidator) {
	e.coverInvalidator = invalidator
}

// EnrichBook fetches metadata for a book and fills in its missing fields.
func (e *Enricher) EnrichBook(ctx context.Context, bookID uint) (*EnrichmentResult, error) {
	book, err := e.books.GetByID(bookID)
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	metadata, err := e.provider.SearchByTitle(ctx, book.Title, book.Author)
	if err != nil {
		return nil, fmt.Errorf("metadata search failed: %w", err)
	}

	var fieldsUpdated []string
	if book.Author == "" && metadata.Author != "" {
		book.Author = metadata.Author
		fieldsUpdated = append(fieldsUpdated, "author")
	}
	if book.Description == "" && metadata.Description != "" {
		book.Description = metadata.Description
		fieldsUpdated = append(fieldsUpdated, "description")
	}
	if book.PublicationYear == 0 && metadata.PublicationYear != 0 {
		book.PublicationYear = metadata.PublicationYear
		fieldsUpdated = append(fieldsUpdated, "publication_year")
	}
	if book.CoverImage == "" && metadata.CoverURL != "" {
		book.CoverImage = metadata.CoverURL
		fieldsUpdated = append(fieldsUpdated, "cover_image")
	}

	if len(fieldsUpdated) > 0 {
		if containsField(fieldsUpdated, "cover_image") && e.coverInvalidator != nil {
			_ = e.coverInvalidator.InvalidateCover(bookID)
		}
		if err := e.books.Update(book); err != nil {
			return nil, fmt.Errorf("update book metadata: %w", err)
		}
	}

	return &EnrichmentResult{
		Book:          book,
		FieldsUpdated: fieldsUpdated,
		Source:        "openlibrary",
	}, nil
}

func containsField(fields []string, name string) bool {
	for _, field := range fields {
		if field == name {
			return true
		}
	}
	return false
}
