// Package comments provides database operations for book reviews and the
// moderation queue.
package comments

import (
	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new comments repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListValidatedByBook returns the reviews visible on a book's page, newest
// first. Reviews awaiting moderation are excluded.
func (r *Repository) ListValidatedByBook(bookID uint) ([]entities.Comment, error) {
	var comments []entities.Comment
	err := r.db.Preload("User").
		Where("book_id = ? AND is_validated = ?", bookID, true).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, err
}

// Create stores a review. New reviews always enter the moderation queue.
func (r *Repository) Create(comment *entities.Comment) error {
	comment.IsValidated = false
	return r.db.Create(comment).Error
}

// ListPending returns the moderation queue, oldest first.
func (r *Repository) ListPending() ([]entities.Comment, error) {
	var comments []entities.Comment
	err := r.db.Preload("User").Preload("Book").
		Where("is_validated = ?", false).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

// Validate publishes a pending review.
func (r *Repository) Validate(id uint) error {
	result := r.db.Model(&entities.Comment{}).
		Where("id = ?", id).
		Update("is_validated", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete rejects a review outright.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Comment{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
