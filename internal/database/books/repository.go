// Package books provides database operations for the catalog.
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAll returns the full catalog ordered by title.
func (r *Repository) GetAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Category").Order("title ASC").Find(&books).Error
	return books, err
}

// GetByID returns a single book.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Category").First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByCategory returns the books in a category, ordered by title.
func (r *Repository) GetByCategory(categoryID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Preload("Category").
		Where("category_id = ?", categoryID).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

// Search finds books whose title or author matches the query.
func (r *Repository) Search(query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + query + "%"
	err := r.db.Preload("Category").
		Where("title LIKE ? OR author LIKE ?", pattern, pattern).
		Order("title ASC").
		Find(&books).Error
	return books, err
}

// Create adds a book to the catalog.
func (r *Repository) Create(book *entities.Book) error {
	if book.Title == "" {
		return errors.New("book title is required")
	}
	if book.FilePath == "" {
		return errors.New("book file path is required")
	}
	return r.db.Create(book).Error
}

// Update rewrites a book's catalog fields.
func (r *Repository) Update(book *entities.Book) error {
	result := r.db.Model(&entities.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]any{
			"title":            book.Title,
			"author":           book.Author,
			"description":      book.Description,
			"category_id":      book.CategoryID,
			"file_path":        book.FilePath,
			"cover_image":      book.CoverImage,
			"publication_year": book.PublicationYear,
			"page_count":       book.PageCount,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a book from the catalog.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Stats returns catalog totals for the admin dashboard.
func (r *Repository) Stats() (totalBooks, totalCategories int64, err error) {
	if err = r.db.Model(&entities.Book{}).Count(&totalBooks).Error; err != nil {
		return 0, 0, err
	}
	if err = r.db.Model(&entities.Category{}).Count(&totalCategories).Error; err != nil {
		return 0, 0, err
	}
	return totalBooks, totalCategories, nil
}
