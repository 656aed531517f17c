package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/bibliotheca/internal/entities"
)

type fakeProvider struct {
	metadata *BookMetadata
	err      error
}

func (f *fakeProvider) SearchByTitle(ctx context.Context, title, author string) (*BookMetadata, error) {
	return f.metadata, f.err
}

type fakeBooks struct {
	book      *entities.Book
	updated   *entities.Book
	updateErr error
}

func (f *fakeBooks) GetByID(id uint) (*entities.Book, error) {
	if f.book == nil {
		return nil, errors.New("not found")
	}
	return f.book, nil
}

func (f *fakeBooks) Update(book *entities.Book) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = book
	return nil
}

type fakeInvalidator struct {
	invalidated []uint
}

func (f *fakeInvalidator) InvalidateCover(bookID uint) error {
	f.invalidated = append(f.invalidated, bookID)
	return nil
}

func TestEnrichBook_FillsMissingFields(t *testing.T) {
	books := &fakeBooks{book: &entities.Book{ID: 1, Title: "Moby Dick"}}
	provider := &fakeProvider{metadata: &BookMetadata{
		Author:          "Herman Melville",
		Description:     "A sailor's obsession.",
		PublicationYear: 1851,
		CoverURL:        "https://covers.openlibrary.org/b/id/123-L.jpg",
	}}

	enricher := NewEnricher(provider, books)
	result, err := enricher.EnrichBook(context.Background(), 1)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"author", "description", "publication_year", "cover_image"},
		result.FieldsUpdated)
	require.NotNil(t, books.updated)
	assert.Equal(t, "Herman Melville", books.updated.Author)
	assert.Equal(t, 1851, books.updated.PublicationYear)
}

func TestEnrichBook_NeverOverwrites(t *testing.T) {
	books := &fakeBooks{book: &entities.Book{
		ID:              1,
		Title:           "Moby Dick",
		Author:          "Herman Melville",
		Description:     "The librarian's own summary.",
		PublicationYear: 1851,
		CoverImage:      "https://example.com/cover.jpg",
	}}
	provider := &fakeProvider{metadata: &BookMetadata{
		Author:          "Wrong Author",
		Description:     "Different text.",
		PublicationYear: 1999,
		CoverURL:        "https://example.com/other.jpg",
	}}

	enricher := NewEnricher(provider, books)
	result, err := enricher.EnrichBook(context.Background(), 1)
	require.NoError(t, err)

	assert.Empty(t, result.FieldsUpdated)
	assert.Nil(t, books.updated)
	assert.Equal(t, "Herman Melville", result.Book.Author)
}

func TestEnrichBook_InvalidatesCoverOnChange(t *testing.T) {
	books := &fakeBooks{book: &entities.Book{ID: 7, Title: "Dune"}}
	provider := &fakeProvider{metadata: &BookMetadata{CoverURL: "https://example.com/dune.jpg"}}
	invalidator := &fakeInvalidator{}

	enricher := NewEnricher(provider, books)
	enricher.SetCoverInvalidator(invalidator)

	_, err := enricher.EnrichBook(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, invalidator.invalidated)
}

func TestEnrichBook_SearchFailure(t *testing.T) {
	books := &fakeBooks{book: &entities.Book{ID: 1, Title: "Moby Dick"}}
	provider := &fakeProvider{err: errors.New("rate limited")}

	enricher := NewEnricher(provider, books)
	_, err := enricher.EnrichBook(context.Background(), 1)
	assert.Error(t, err)
}
