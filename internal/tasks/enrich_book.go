package tasks

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/openshelf/bibliotheca/internal/metadata"
)

// MetadataEnricher fills in a book's missing catalog fields.
type MetadataEnricher interface {
	EnrichBook(ctx context.Context, bookID uint) (*metadata.EnrichmentResult, error)
}

// EnrichBookTask looks up a book on OpenLibrary and fills in whatever
// fields the catalog entry is missing.
type EnrichBookTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for enrichment tasks.
func (t EnrichBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "enrich_book",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// EnrichBookProcessor creates a processor function for EnrichBookTask.
func EnrichBookProcessor(enricher MetadataEnricher) backlite.QueueProcessor[EnrichBookTask] {
	return func(ctx context.Context, task EnrichBookTask) error {
		if enricher == nil {
			return fmt.Errorf("metadata enricher not configured")
		}

		result, err := enricher.EnrichBook(ctx, task.BookID)
		if err != nil {
			return fmt.Errorf("enrich book %d: %w", task.BookID, err)
		}

		if len(result.FieldsUpdated) == 0 {
			log.Printf("[TASK] Book %d already complete, nothing to enrich", task.BookID)
			return nil
		}

		log.Printf("[TASK] Enriched book %d (%s)", task.BookID, strings.Join(result.FieldsUpdated, ", "))
		return nil
	}
}

// NewEnrichBookQueue creates a backlite queue for enrichment tasks.
func NewEnrichBookQueue(enricher MetadataEnricher) backlite.Queue {
	return backlite.NewQueue(EnrichBookProcessor(enricher))
}
