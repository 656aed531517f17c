package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/openshelf/bibliotheca/internal/entities"
)

// BookStore is the catalog access the books controller needs.
type BookStore interface {
	GetAll() ([]entities.Book, error)
	GetByID(id uint) (*entities.Book, error)
	GetByCategory(categoryID uint) ([]entities.Book, error)
	Search(query string) ([]entities.Book, error)
	Create(book *entities.Book) error
	Update(book *entities.Book) error
	Delete(id uint) error
	Stats() (totalBooks, totalCategories int64, err error)
}

type BooksController struct {
	store BookStore

	// onCreated, when set, is invoked after a book is stored. The
	// entrypoint uses it to enqueue cover fetching and page counting.
	onCreated func(book *entities.Book)
}

func NewBooksController(store BookStore, onCreated func(book *entities.Book)) *BooksController {
	return &BooksController{store: store, onCreated: onCreated}
}

// ListBooks returns the catalog, optionally filtered by category or a
// title/author search query.
// GET /api/books?category=3&q=melville
func (controller *BooksController) ListBooks(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		books, err := controller.store.Search(query)
		if err != nil {
			respondInternalError(c, err, "search books")
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
		return
	}

	if categoryStr := c.Query("category"); categoryStr != "" {
		categoryID, ok := parseQueryUint(c, "category", categoryStr)
		if !ok {
			return
		}
		books, err := controller.store.GetByCategory(categoryID)
		if err != nil {
			respondInternalError(c, err, "list books by category")
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
		return
	}

	books, err := controller.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// GetBook returns a single catalog entry.
// GET /api/books/:id
func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// BookRequest is the payload for creating or updating a catalog entry.
type BookRequest struct {
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author"`
	Description     string `json:"description"`
	CategoryID      uint   `json:"category_id"`
	FilePath        string `json:"file_path" binding:"required"`
	CoverImage      string `json:"cover_image"`
	PublicationYear int    `json:"publication_year"`
	PageCount       int    `json:"page_count"`
}

// CreateBook adds a book to the catalog. Admin only.
// POST /api/books
func (controller *BooksController) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and file_path are required")
		return
	}

	book := entities.Book{
		Title:           req.Title,
		Author:          req.Author,
		Description:     req.Description,
		CategoryID:      req.CategoryID,
		FilePath:        req.FilePath,
		CoverImage:      req.CoverImage,
		PublicationYear: req.PublicationYear,
		PageCount:       req.PageCount,
	}
	if err := controller.store.Create(&book); err != nil {
		respondInternalError(c, err, "create book")
		return
	}
	if controller.onCreated != nil {
		controller.onCreated(&book)
	}
	respondCreated(c, book)
}

// UpdateBook edits a catalog entry. Admin only.
// PUT /api/books/:id
func (controller *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "get book")
		return
	}

	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title and file_path are required")
		return
	}

	book.Title = req.Title
	book.Author = req.Author
	book.Description = req.Description
	book.CategoryID = req.CategoryID
	book.FilePath = req.FilePath
	book.CoverImage = req.CoverImage
	book.PublicationYear = req.PublicationYear
	book.PageCount = req.PageCount

	if err := controller.store.Update(book); err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// DeleteBook removes a catalog entry. Admin only.
// DELETE /api/books/:id
func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := controller.store.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "book")
			return
		}
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

// GetStats returns catalog-wide counters.
// GET /api/books/stats
func (controller *BooksController) GetStats(c *gin.Context) {
	totalBooks, totalCategories, err := controller.store.Stats()
	if err != nil {
		respondInternalError(c, err, "book stats")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"total_books":      totalBooks,
		"total_categories": totalCategories,
	})
}
