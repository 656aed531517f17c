// Package notes provides database operations for per-page reading notes.
package notes

import (
	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// Repository handles all note database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUserAndBook returns a user's notes for a book, ordered by page.
func (r *Repository) ListByUserAndBook(userID, bookID uint) ([]entities.Note, error) {
	var notes []entities.Note
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("page_number ASC, created_at ASC").
		Find(&notes).Error
	return notes, err
}

// Create stores a note. Field validation happens at the session boundary
// before the store is reached.
func (r *Repository) Create(note *entities.Note) error {
	return r.db.Create(note).Error
}

// Delete removes a note owned by the given user.
func (r *Repository) Delete(id, userID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
