// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation and carries compile-time
// checks that the concrete types satisfy them.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - BookStore: Catalog access (internal/http/books.go)
//   - CategoryStore: Category management (internal/http/categories.go)
//   - CommentStore: Review storage and moderation (internal/http/comments.go)
//
// ## Reading Session Interfaces
//
//   - DocumentStore / Document / Page: Document loading and rendering (internal/reader/stores.go)
//   - PositionStore: Reading position persistence (internal/reader/stores.go)
//   - BookmarkStore / NoteStore / ReviewStore: Annotations (internal/reader/stores.go)
//   - Surface: Where rendered frames land (internal/reader/surface.go)
//
// ## Background Work Interfaces
//
//   - CoverWarmer: Cover prefetching (internal/tasks/fetch_cover.go)
//   - PageCounter: Page count verification (internal/tasks/count_pages.go)
//   - MetadataEnricher: OpenLibrary enrichment (internal/tasks/enrich_book.go)
//
// Controllers accept these interfaces rather than concrete repositories so
// tests can substitute fakes without a database.
package interfaces
