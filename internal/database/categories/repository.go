// Package categories provides database operations for catalog categories.
package categories

import (
	"errors"

	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// ErrInUse is returned when deleting a category that still has books.
var ErrInUse = errors.New("category still has books assigned")

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetAll returns every category ordered by name.
func (r *Repository) GetAll() ([]entities.Category, error) {
	var categories []entities.Category
	err := r.db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// GetByID returns a single category.
func (r *Repository) GetByID(id uint) (*entities.Category, error) {
	var category entities.Category
	err := r.db.First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

// Create adds a category.
func (r *Repository) Create(category *entities.Category) error {
	if category.Name == "" {
		return errors.New("category name is required")
	}
	return r.db.Create(category).Error
}

// Update renames a category.
func (r *Repository) Update(id uint, name string) error {
	if name == "" {
		return errors.New("category name is required")
	}
	result := r.db.Model(&entities.Category{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an empty category.
func (r *Repository) Delete(id uint) error {
	var count int64
	if err := r.db.Model(&entities.Book{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrInUse
	}

	result := r.db.Delete(&entities.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
