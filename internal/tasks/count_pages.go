package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// PageCounter determines the actual page count of a stored document.
type PageCounter interface {
	CountPages(ctx context.Context, fileURL string) (int, error)
}

// BookUpdater reads and rewrites catalog entries.
type BookUpdater interface {
	GetByID(id uint) (*entities.Book, error)
	Update(book *entities.Book) error
}

// CountPagesTask verifies a book's declared page count against the actual
// document and corrects the catalog entry when they differ.
type CountPagesTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for page count tasks.
func (t CountPagesTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "count_pages",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CountPagesProcessor creates a processor function for CountPagesTask.
func CountPagesProcessor(counter PageCounter, books BookUpdater) backlite.QueueProcessor[CountPagesTask] {
	return func(ctx context.Context, task CountPagesTask) error {
		if counter == nil || books == nil {
			return fmt.Errorf("page counter not configured")
		}

		book, err := books.GetByID(task.BookID)
		if err != nil {
			return fmt.Errorf("get book %d: %w", task.BookID, err)
		}

		count, err := counter.CountPages(ctx, book.FilePath)
		if err != nil {
			return fmt.Errorf("count pages of book %d: %w", task.BookID, err)
		}

		if count == book.PageCount {
			return nil
		}

		log.Printf("[TASK] Book %d page count corrected: %d -> %d", book.ID, book.PageCount, count)
		book.PageCount = count
		if err := books.Update(book); err != nil {
			return fmt.Errorf("update book %d: %w", task.BookID, err)
		}
		return nil
	}
}

// NewCountPagesQueue creates a backlite queue for page count tasks.
func NewCountPagesQueue(counter PageCounter, books BookUpdater) backlite.Queue {
	return backlite.NewQueue(CountPagesProcessor(counter, books))
}
