// Package progress provides database operations for reading positions.
//
// There is at most one ReadingProgress row per (user, book) pair. Upsert
// checks for an existing row and updates it in place; it never inserts a
// duplicate.
package progress

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// ErrNotFound is returned by Find when no position has been recorded yet.
var ErrNotFound = errors.New("reading progress not found")

// Repository handles all reading-progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find returns the recorded position for a (user, book) pair.
func (r *Repository) Find(userID, bookID uint) (*entities.ReadingProgress, error) {
	var record entities.ReadingProgress
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Insert creates a new position record. LastRead is assigned here, not by
// the caller.
func (r *Repository) Insert(record *entities.ReadingProgress) error {
	record.LastRead = time.Now()
	return r.db.Create(record).Error
}

// Update rewrites the page and read timestamp of an existing record.
func (r *Repository) Update(recordID uint, currentPage int) error {
	return r.db.Model(&entities.ReadingProgress{}).
		Where("id = ?", recordID).
		Updates(map[string]any{
			"current_page": currentPage,
			"last_read":    time.Now(),
		}).Error
}

// Upsert writes the current page for a (user, book) pair, updating the
// existing record when one exists and inserting otherwise. The store has no
// native on-conflict guarantee exercised here, so the existence check is
// mandatory.
func (r *Repository) Upsert(userID, bookID uint, currentPage int) error {
	existing, err := r.Find(userID, bookID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	if existing != nil {
		return r.Update(existing.ID, currentPage)
	}

	return r.Insert(&entities.ReadingProgress{
		UserID:      userID,
		BookID:      bookID,
		CurrentPage: currentPage,
	})
}

// ListByUser returns a user's positions across all books, most recent first.
func (r *Repository) ListByUser(userID uint) ([]entities.ReadingProgress, error) {
	var records []entities.ReadingProgress
	err := r.db.Where("user_id = ?", userID).
		Order("last_read DESC").
		Find(&records).Error
	return records, err
}

// Delete removes the position for a (user, book) pair.
func (r *Repository) Delete(userID, bookID uint) error {
	return r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.ReadingProgress{}).Error
}
