package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/database/categories"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// CategoryStore is the access the categories controller needs.
type CategoryStore interface {
	GetAll() ([]entities.Category, error)
	GetByID(id uint) (*entities.Category, error)
	Create(category *entities.Category) error
	Update(id uint, name string) error
	Delete(id uint) error
}

type CategoriesController struct {
	store CategoryStore
}

func NewCategoriesController(store CategoryStore) *CategoriesController {
	return &CategoriesController{store: store}
}

// ListCategories returns every category.
// GET /api/categories
func (controller *CategoriesController) ListCategories(c *gin.Context) {
	list, err := controller.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list categories")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"categories": list, "count": len(list)})
}

// CategoryRequest is the payload for creating or renaming a category.
type CategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory adds a category. Admin only.
// POST /api/categories
func (controller *CategoriesController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	category := entities.Category{Name: req.Name}
	if err := controller.store.Create(&category); err != nil {
		respondInternalError(c, err, "create category")
		return
	}
	respondCreated(c, category)
}

// UpdateCategory renames a category. Admin only.
// PUT /api/categories/:id
func (controller *CategoriesController) UpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name is required")
		return
	}

	if err := controller.store.Update(id, req.Name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "category")
			return
		}
		respondInternalError(c, err, "update category")
		return
	}
	respondSuccess(c, "category updated")
}

// DeleteCategory removes a category. Refused while books still use it.
// Admin only.
// DELETE /api/categories/:id
func (controller *CategoriesController) DeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.Delete(id); err != nil {
		if errors.Is(err, categories.ErrInUse) {
			respondConflict(c, "category still has books assigned")
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "category")
			return
		}
		respondInternalError(c, err, "delete category")
		return
	}
	respondSuccess(c, "category deleted")
}
