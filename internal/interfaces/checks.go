package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/openshelf/bibliotheca/internal/covers"
	"github.com/openshelf/bibliotheca/internal/database/bookmarks"
	"github.com/openshelf/bibliotheca/internal/database/books"
	"github.com/openshelf/bibliotheca/internal/database/categories"
	"github.com/openshelf/bibliotheca/internal/database/comments"
	"github.com/openshelf/bibliotheca/internal/database/notes"
	"github.com/openshelf/bibliotheca/internal/database/progress"
	"github.com/openshelf/bibliotheca/internal/exporters"
	"github.com/openshelf/bibliotheca/internal/http"
	"github.com/openshelf/bibliotheca/internal/importers"
	"github.com/openshelf/bibliotheca/internal/metadata"
	"github.com/openshelf/bibliotheca/internal/pdf"
	"github.com/openshelf/bibliotheca/internal/reader"
	"github.com/openshelf/bibliotheca/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Catalog store implementations
var _ http.BookStore = (*books.Repository)(nil)
var _ http.CategoryStore = (*categories.Repository)(nil)
var _ http.CommentStore = (*comments.Repository)(nil)
var _ importers.BookCatalog = (*books.Repository)(nil)
var _ metadata.BookUpdater = (*books.Repository)(nil)
var _ tasks.BookUpdater = (*books.Repository)(nil)

// =============================================================================
// Reading Sessions
// =============================================================================

// Session dependency implementations
var _ reader.PositionStore = (*progress.Repository)(nil)
var _ reader.BookmarkStore = (*bookmarks.Repository)(nil)
var _ reader.NoteStore = (*notes.Repository)(nil)
var _ reader.ReviewStore = (*comments.Repository)(nil)
var _ reader.Surface = (*reader.Canvas)(nil)

// Annotation export implementations
var _ exporters.NoteReader = (*notes.Repository)(nil)
var _ exporters.BookmarkReader = (*bookmarks.Repository)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.CoverWarmer = (*covers.Cache)(nil)
var _ tasks.PageCounter = (*pdf.Store)(nil)
var _ tasks.MetadataEnricher = (*metadata.Enricher)(nil)
var _ metadata.CoverInvalidator = (*covers.Cache)(nil)
