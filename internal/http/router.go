package http

import (
	"github.com/gin-gonic/gin"

	"github.com/openshelf/bibliotheca/internal/auth"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	// Session runs after CSRF so session context isn't overwritten by
	// CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	// Resolve the requesting reader; anonymous requests pass through
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	} else {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUserID, entities.AnonymousUserID)
			c.Next()
		})
	}

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Account endpoints
	if cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled() && cfg.SessionManager != nil {
		accounts := NewAccountsController(cfg.AuthService, cfg.SessionManager)
		router.POST("/api/auth/register", accounts.Register)
		router.POST("/api/auth/login", accounts.Login)
		router.POST("/api/auth/logout", accounts.Logout)
		router.GET("/api/auth/me", accounts.Me)
	}

	requireAdmin := func() gin.HandlerFunc {
		if cfg.AuthMiddleware != nil {
			return cfg.AuthMiddleware.RequireAdmin()
		}
		return func(c *gin.Context) { c.Next() }
	}()

	// Catalog endpoints
	booksController := NewBooksController(cfg.Books, cfg.OnBookCreated)
	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/stats", booksController.GetStats)
	router.GET("/api/books/:id", booksController.GetBook)
	router.POST("/api/books", requireAdmin, booksController.CreateBook)
	router.PUT("/api/books/:id", requireAdmin, booksController.UpdateBook)
	router.DELETE("/api/books/:id", requireAdmin, booksController.DeleteBook)

	categoriesController := NewCategoriesController(cfg.Categories)
	router.GET("/api/categories", categoriesController.ListCategories)
	router.POST("/api/categories", requireAdmin, categoriesController.CreateCategory)
	router.PUT("/api/categories/:id", requireAdmin, categoriesController.UpdateCategory)
	router.DELETE("/api/categories/:id", requireAdmin, categoriesController.DeleteCategory)

	// Review endpoints
	commentsController := NewCommentsController(cfg.Comments, cfg.Auditor)
	router.GET("/api/books/:id/comments", commentsController.ListBookComments)
	router.POST("/api/books/:id/comments", commentsController.CreateComment)
	router.GET("/api/admin/comments/pending", requireAdmin, commentsController.ListPendingComments)
	router.POST("/api/admin/comments/:id/validate", requireAdmin, commentsController.ValidateComment)
	router.DELETE("/api/admin/comments/:id", requireAdmin, commentsController.DeleteComment)

	// Library maintenance endpoints
	if cfg.Exporter != nil {
		libraryController := NewLibraryController(cfg.Books, cfg.Exporter, cfg.Scanner)
		router.GET("/api/books/:id/annotations/export", libraryController.ExportAnnotations)
		router.POST("/api/admin/library/scan", requireAdmin, libraryController.ScanLibrary)
	}

	// Cover endpoint
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Books)
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// Reading session endpoints
	if cfg.Sessions != nil && cfg.OpenSession != nil {
		readerController := NewReaderController(cfg.Books, cfg.Sessions, cfg.OpenSession)
		router.POST("/api/reader/sessions", readerController.OpenSession)
		router.GET("/api/reader/sessions/:token", readerController.GetSession)
		router.DELETE("/api/reader/sessions/:token", readerController.CloseSession)
		router.POST("/api/reader/sessions/:token/retry", readerController.RetrySession)
		router.POST("/api/reader/sessions/:token/goto", readerController.GoTo)
		router.POST("/api/reader/sessions/:token/next", readerController.Next)
		router.POST("/api/reader/sessions/:token/previous", readerController.Previous)
		router.POST("/api/reader/sessions/:token/input", readerController.Input)
		router.POST("/api/reader/sessions/:token/zoom", readerController.Zoom)
		router.POST("/api/reader/sessions/:token/panel", readerController.TogglePanel)
		router.GET("/api/reader/sessions/:token/frame", readerController.GetFrame)
		router.GET("/api/reader/sessions/:token/notices", readerController.GetNotices)
		router.GET("/api/reader/sessions/:token/bookmarks", readerController.ListBookmarks)
		router.POST("/api/reader/sessions/:token/bookmarks", readerController.AddBookmark)
		router.DELETE("/api/reader/sessions/:token/bookmarks/:id", readerController.RemoveBookmark)
		router.GET("/api/reader/sessions/:token/notes", readerController.ListNotes)
		router.POST("/api/reader/sessions/:token/notes", readerController.AddNote)
		router.DELETE("/api/reader/sessions/:token/notes/:id", readerController.RemoveNote)
		router.GET("/api/reader/sessions/:token/reviews", readerController.ListReviews)
	}

	return router
}
