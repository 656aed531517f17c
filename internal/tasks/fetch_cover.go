package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CoverWarmer pre-fetches a cover image into the local cache.
type CoverWarmer interface {
	Warm(ctx context.Context, bookID uint, coverURL string) error
}

// FetchCoverTask downloads and caches a book's cover image so the first
// catalog request does not pay the fetch latency.
type FetchCoverTask struct {
	BookID   uint   `json:"book_id"`
	CoverURL string `json:"cover_url"`
}

// Config returns the queue configuration for cover fetch tasks.
func (t FetchCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "fetch_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// FetchCoverProcessor creates a processor function for FetchCoverTask.
func FetchCoverProcessor(warmer CoverWarmer) backlite.QueueProcessor[FetchCoverTask] {
	return func(ctx context.Context, task FetchCoverTask) error {
		if warmer == nil {
			return fmt.Errorf("cover cache not configured")
		}
		if task.CoverURL == "" {
			return nil
		}

		if err := warmer.Warm(ctx, task.BookID, task.CoverURL); err != nil {
			return fmt.Errorf("fetch cover for book %d: %w", task.BookID, err)
		}

		log.Printf("[TASK] Cached cover for book %d", task.BookID)
		return nil
	}
}

// NewFetchCoverQueue creates a backlite queue for cover fetch tasks.
func NewFetchCoverQueue(warmer CoverWarmer) backlite.Queue {
	return backlite.NewQueue(FetchCoverProcessor(warmer))
}
