package entrypoint

import (
	"log"
	"path/filepath"

	"github.com/openshelf/bibliotheca/internal/config"
	"github.com/openshelf/bibliotheca/internal/database"
	"github.com/openshelf/bibliotheca/internal/database/books"
	"github.com/openshelf/bibliotheca/internal/entities"
)

// demoBooks is a small public-domain catalog. The PDF files themselves are
// not bundled; place matching files in the books directory to read them.
var demoBooks = []entities.Book{
	{Title: "Moby Dick", Author: "Herman Melville", PublicationYear: 1851, PageCount: 635,
		Description: "The voyage of the whaling ship Pequod."},
	{Title: "Pride and Prejudice", Author: "Jane Austen", PublicationYear: 1813, PageCount: 432},
	{Title: "The Time Machine", Author: "H. G. Wells", PublicationYear: 1895, PageCount: 118},
	{Title: "Frankenstein", Author: "Mary Shelley", PublicationYear: 1818, PageCount: 280},
}

// SeedDemo loads demo catalog data into an empty database.
func SeedDemo(cfg *config.Config) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	booksRepo := books.NewRepository(db.DB)

	existing, err := booksRepo.GetAll()
	if err != nil {
		log.Fatalf("Failed to read catalog: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("Catalog already has %d books, nothing to seed", len(existing))
		return
	}

	for i := range demoBooks {
		book := demoBooks[i]
		book.FilePath = filepath.Join(cfg.Library.BooksDir, book.Title+".pdf")
		if err := booksRepo.Create(&book); err != nil {
			log.Fatalf("Failed to seed %q: %v", book.Title, err)
		}
		log.Printf("Seeded %q by %s", book.Title, book.Author)
	}
	log.Printf("Seeded %d demo books", len(demoBooks))
}
