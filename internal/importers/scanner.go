// Package importers brings documents that already live on disk into the
// catalog. The scanner walks the library directory and registers every
// PDF the catalog does not know yet.
package importers

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	"github.com/openshelf/bibliotheca/internal/entities"
	"github.com/openshelf/bibliotheca/internal/utils"
)

// BookCatalog is the catalog access the scanner needs.
type BookCatalog interface {
	GetAll() ([]entities.Book, error)
	Create(book *entities.Book) error
}

// ScanResult summarizes one pass over the library directory.
type ScanResult struct {
	Scanned  int `json:"scanned"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Scanner imports PDFs found in the library directory. Files whose path is
// already present in the catalog are skipped; everything else becomes a new
// catalog entry with title and author derived from the filename.
type Scanner struct {
	booksDir string
	catalog  BookCatalog

	// onImported, when set, runs after each created entry, typically to
	// enqueue cover fetching and page counting for it.
	onImported func(book *entities.Book)
}

func NewScanner(booksDir string, catalog BookCatalog, onImported func(book *entities.Book)) *Scanner {
	return &Scanner{
		booksDir:   booksDir,
		catalog:    catalog,
		onImported: onImported,
	}
}

// Scan walks the library directory once. It keeps going past individual
// files that fail to import and reports them in the result.
func (s *Scanner) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult

	existing, err := s.catalog.GetAll()
	if err != nil {
		return result, err
	}
	known := make(map[string]struct{}, len(existing))
	for _, book := range existing {
		known[book.FilePath] = struct{}{}
	}

	err = filepath.WalkDir(s.booksDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		result.Scanned++
		if _, ok := known[path]; ok {
			result.Skipped++
			return nil
		}

		title, author := utils.TitleAuthorFromFilename(path)
		book := entities.Book{
			Title:    title,
			Author:   author,
			FilePath: path,
		}
		if err := s.catalog.Create(&book); err != nil {
			log.Printf("Failed to import %s: %v", path, err)
			result.Failed++
			return nil
		}

		known[path] = struct{}{}
		result.Imported++
		if s.onImported != nil {
			s.onImported(&book)
		}
		return nil
	})

	return result, err
}
