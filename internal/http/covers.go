package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/bibliotheca/internal/covers"
)

// CoversController serves cached book cover images.
type CoversController struct {
	cache *covers.Cache
	books BookStore
}

func NewCoversController(cache *covers.Cache, books BookStore) *CoversController {
	return &CoversController{
		cache: cache,
		books: books,
	}
}

// GetCover serves a book's cover image from the local cache, fetching it
// on a miss. Falls back to redirecting to the origin URL when the fetch
// fails.
// GET /api/books/:id/cover
func (controller *CoversController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.books.GetByID(id)
	if err != nil {
		respondNotFound(c, "book")
		return
	}
	if book.CoverImage == "" {
		respondNotFound(c, "cover")
		return
	}

	cachePath, err := controller.cache.GetCover(c.Request.Context(), id, book.CoverImage)
	if err != nil || cachePath == "" {
		c.Redirect(http.StatusTemporaryRedirect, book.CoverImage)
		return
	}
	c.File(cachePath)
}
