// Package exporters renders a reader's annotations to portable formats.
package exporters

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/openshelf/bibliotheca/internal/entities"
	"github.com/openshelf/bibliotheca/internal/utils"
)

// NoteReader lists one user's annotations for a book.
type NoteReader interface {
	ListByUserAndBook(userID, bookID uint) ([]entities.Note, error)
}

// BookmarkReader lists one user's bookmarks for a book.
type BookmarkReader interface {
	ListByUserAndBook(userID, bookID uint) ([]entities.Bookmark, error)
}

// ExportResult summarizes a finished export.
type ExportResult struct {
	Filename          string `json:"filename"`
	NotesExported     int    `json:"notes_exported"`
	BookmarksExported int    `json:"bookmarks_exported"`
}

// MarkdownExporter renders a user's notes and bookmarks for a single book
// into one markdown document, notes grouped by page in reading order.
type MarkdownExporter struct {
	notes     NoteReader
	bookmarks BookmarkReader
}

func NewMarkdownExporter(notes NoteReader, bookmarks BookmarkReader) *MarkdownExporter {
	return &MarkdownExporter{notes: notes, bookmarks: bookmarks}
}

// Export builds the markdown document for (user, book). The filename in
// the result is derived from the book title and safe to serve as a
// download attachment.
func (exporter *MarkdownExporter) Export(book *entities.Book, userID uint) (string, ExportResult, error) {
	result := ExportResult{
		Filename: fmt.Sprintf("%s - notes.md", utils.SanitizeFilename(book.Title)),
	}

	notes, err := exporter.notes.ListByUserAndBook(userID, book.ID)
	if err != nil {
		return "", result, fmt.Errorf("failed to list notes: %w", err)
	}
	bookmarks, err := exporter.bookmarks.ListByUserAndBook(userID, book.ID)
	if err != nil {
		return "", result, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	sort.SliceStable(notes, func(i, j int) bool { return notes[i].PageNumber < notes[j].PageNumber })
	sort.SliceStable(bookmarks, func(i, j int) bool { return bookmarks[i].PageNumber < bookmarks[j].PageNumber })

	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	fmt.Fprintf(&builder, "content_type: book_notes\n")
	fmt.Fprintf(&builder, "created_at: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&builder, "title: %s\n", book.Title)
	if book.Author != "" {
		fmt.Fprintf(&builder, "author: %s\n", book.Author)
	}
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "# %s\n", book.Title)

	if len(bookmarks) > 0 {
		fmt.Fprintf(&builder, "\n## Bookmarks\n\n")
		for _, bookmark := range bookmarks {
			fmt.Fprintf(&builder, "- %s (page %d)\n", bookmark.Title, bookmark.PageNumber)
			result.BookmarksExported++
		}
	}

	if len(notes) > 0 {
		fmt.Fprintf(&builder, "\n## Notes\n")
		currentPage := -1
		for _, note := range notes {
			if note.PageNumber != currentPage {
				fmt.Fprintf(&builder, "\n### Page %d\n\n", note.PageNumber)
				currentPage = note.PageNumber
			}
			fmt.Fprintf(&builder, "- %s\n", strings.ReplaceAll(note.NoteText, "\n", " "))
			result.NotesExported++
		}
	}

	if len(bookmarks) == 0 && len(notes) == 0 {
		fmt.Fprintf(&builder, "\nNo annotations yet.\n")
	}

	return builder.String(), result, nil
}
