package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/bibliotheca/internal/entities"
	"github.com/openshelf/bibliotheca/internal/exporters"
	"github.com/openshelf/bibliotheca/internal/importers"
)

// LibraryController serves the library maintenance surface: exporting a
// reader's annotations and importing PDFs found on disk.
type LibraryController struct {
	books    BookStore
	exporter *exporters.MarkdownExporter
	scanner  *importers.Scanner
}

func NewLibraryController(books BookStore, exporter *exporters.MarkdownExporter, scanner *importers.Scanner) *LibraryController {
	return &LibraryController{books: books, exporter: exporter, scanner: scanner}
}

// ExportAnnotations returns the requesting reader's notes and bookmarks
// for a book as a markdown download.
// GET /api/books/:id/annotations/export
func (controller *LibraryController) ExportAnnotations(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := GetUserID(c)
	if userID == entities.AnonymousUserID {
		respondError(c, http.StatusUnauthorized, "sign in to export annotations")
		return
	}

	book, err := controller.books.GetByID(id)
	if err != nil {
		respondNotFound(c, "book")
		return
	}

	doc, result, err := controller.exporter.Export(book, userID)
	if err != nil {
		respondInternalError(c, err, "export annotations")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("X-Notes-Exported", fmt.Sprintf("%d", result.NotesExported))
	c.Header("X-Bookmarks-Exported", fmt.Sprintf("%d", result.BookmarksExported))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(doc))
}

// ScanLibrary walks the library directory and imports PDFs the catalog
// does not know yet. Admin only.
// POST /api/admin/library/scan
func (controller *LibraryController) ScanLibrary(c *gin.Context) {
	if controller.scanner == nil {
		respondError(c, http.StatusServiceUnavailable, "library scanning is not configured")
		return
	}

	result, err := controller.scanner.Scan(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "scan library")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "scan complete", "result": result})
}
