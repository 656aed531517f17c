// Package bookmarks provides database operations for page bookmarks.
package bookmarks

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// ErrDuplicate is returned when a user already holds a bookmark for the
// requested page of a book.
var ErrDuplicate = errors.New("bookmark already exists for this page")

// Repository handles all bookmark database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new bookmarks repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListByUserAndBook returns a user's bookmarks for a book, ordered by page.
func (r *Repository) ListByUserAndBook(userID, bookID uint) ([]entities.Bookmark, error) {
	var bookmarks []entities.Bookmark
	err := r.db.Where("user_id = ? AND book_id = ?", userID, bookID).
		Order("page_number ASC").
		Find(&bookmarks).Error
	return bookmarks, err
}

// Create stores a bookmark. Returns ErrDuplicate when the (user, book, page)
// combination already exists so callers can distinguish it from a generic
// write failure.
func (r *Repository) Create(bookmark *entities.Bookmark) error {
	var count int64
	err := r.db.Model(&entities.Bookmark{}).
		Where("user_id = ? AND book_id = ? AND page_number = ?",
			bookmark.UserID, bookmark.BookID, bookmark.PageNumber).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicate
	}

	return r.db.Create(bookmark).Error
}

// Delete removes a bookmark owned by the given user.
func (r *Repository) Delete(id, userID uint) error {
	result := r.db.Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.Bookmark{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
