package http

import (
	"github.com/openshelf/bibliotheca/internal/auth"
	"github.com/openshelf/bibliotheca/internal/covers"
	"github.com/openshelf/bibliotheca/internal/database"
	"github.com/openshelf/bibliotheca/internal/entities"
	"github.com/openshelf/bibliotheca/internal/exporters"
	"github.com/openshelf/bibliotheca/internal/importers"
	"github.com/openshelf/bibliotheca/internal/reader"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router. This replaces a long parameter list
// in NewRouter for better testability.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database

	// Catalog stores
	Books      BookStore
	Categories CategoryStore
	Comments   CommentStore

	// OnBookCreated runs after a catalog entry is stored, typically to
	// enqueue background work for the new book.
	OnBookCreated func(book *entities.Book)

	// Library maintenance
	Exporter *exporters.MarkdownExporter
	Scanner  *importers.Scanner
	Auditor  AuditRecorder

	// Reading sessions
	Sessions    *reader.Registry
	OpenSession SessionOpener

	// Cover caching
	CoverCache *covers.Cache

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}
