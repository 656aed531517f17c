package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/openshelf/bibliotheca/internal/audit"
	"github.com/openshelf/bibliotheca/internal/auth"
	"github.com/openshelf/bibliotheca/internal/config"
	"github.com/openshelf/bibliotheca/internal/covers"
	"github.com/openshelf/bibliotheca/internal/database"
	"github.com/openshelf/bibliotheca/internal/database/bookmarks"
	"github.com/openshelf/bibliotheca/internal/database/books"
	"github.com/openshelf/bibliotheca/internal/database/categories"
	"github.com/openshelf/bibliotheca/internal/database/comments"
	"github.com/openshelf/bibliotheca/internal/database/notes"
	"github.com/openshelf/bibliotheca/internal/database/progress"
	"github.com/openshelf/bibliotheca/internal/database/users"
	"github.com/openshelf/bibliotheca/internal/entities"
	"github.com/openshelf/bibliotheca/internal/exporters"
	http_controllers "github.com/openshelf/bibliotheca/internal/http"
	"github.com/openshelf/bibliotheca/internal/importers"
	"github.com/openshelf/bibliotheca/internal/metadata"
	"github.com/openshelf/bibliotheca/internal/pdf"
	"github.com/openshelf/bibliotheca/internal/reader"
	"github.com/openshelf/bibliotheca/internal/scheduler"
	"github.com/openshelf/bibliotheca/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then give in-flight requests and
	// background workers a bounded window to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to flush reading positions
	// and stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Bibliotheca v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Per-aggregate repositories
	booksRepo := books.NewRepository(db.DB)
	categoriesRepo := categories.NewRepository(db.DB)
	commentsRepo := comments.NewRepository(db.DB)
	progressRepo := progress.NewRepository(db.DB)
	bookmarksRepo := bookmarks.NewRepository(db.DB)
	notesRepo := notes.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)

	// Document store for loading and rendering PDFs
	pdfStore := pdf.NewStore()
	documents := pdf.NewReaderStore(pdfStore)

	// Create cover cache for locally caching book covers
	coverCache, err := covers.NewCache(cfg.Library.CoversDir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
	} else {
		log.Printf("Cover cache initialized at %s", cfg.Library.CoversDir)
	}

	// Create auditor for recording administrative actions
	auditor := audit.NewAuditor(cfg.Audit.Dir)

	// Create metadata enricher for filling in catalog fields from OpenLibrary
	var enricher *metadata.Enricher
	if cfg.Metadata.Enabled {
		enricher = metadata.NewEnricher(metadata.NewOpenLibraryClient(), booksRepo)
		if coverCache != nil {
			enricher.SetCoverInvalidator(coverCache)
		}
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues. The cover queue is only wired when the
		// cache came up; a nil cache inside the interface would defeat
		// the processor's nil check.
		queues := []backlite.Queue{
			tasks.NewCountPagesQueue(pdfStore, booksRepo),
		}
		if coverCache != nil {
			queues = append(queues, tasks.NewFetchCoverQueue(coverCache))
		}
		if enricher != nil {
			queues = append(queues, tasks.NewEnrichBookQueue(enricher))
		}
		taskClient.Register(queues...)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Session registry and the opener the HTTP layer uses to start a
	// reading session. Every session paints onto its own canvas.
	registry := reader.NewRegistry(cfg.Reader.SessionTTL)
	readerOpts := reader.Options{
		DebounceInterval: cfg.Reader.DebounceInterval,
		InitialScale:     cfg.Reader.InitialScale,
		ZoomStep:         cfg.Reader.ZoomStep,
		ZoomMin:          cfg.Reader.ZoomMin,
		ZoomMax:          cfg.Reader.ZoomMax,
	}
	openSession := func(ref reader.DocumentRef, userID uint) *reader.Session {
		return reader.NewSession(ref, userID, reader.Deps{
			Documents: documents,
			Positions: progressRepo,
			Bookmarks: bookmarksRepo,
			Notes:     notesRepo,
			Reviews:   commentsRepo,
			Surface:   reader.NewCanvas(),
		}, readerOpts)
	}

	// Reaper closes sessions whose readers walked away
	var reaper *scheduler.SessionReaper
	if cfg.Scheduler.Enabled {
		reaper = scheduler.NewSessionReaper(registry, cfg.Scheduler.ReapSchedule, cfg.Reader.MaxIdle)
		if err := reaper.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start session reaper: %v", err)
		}
	}

	// Initialize authentication if enabled
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(usersRepo, cfg.Auth)

		sqlDB, err := db.SQLDB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}

		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		secret, err := auth.GenerateSecret()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)

		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. The first registered account becomes the administrator.")
		}
	} else {
		log.Printf("Authentication mode: none (anonymous reading, positions are not saved)")
	}

	// New books get their cover fetched, their declared page count
	// verified and their missing metadata filled in, all in the background.
	onBookCreated := func(book *entities.Book) {
		if taskClient == nil {
			return
		}
		if book.CoverImage != "" && coverCache != nil {
			op := taskClient.Add(tasks.FetchCoverTask{BookID: book.ID, CoverURL: book.CoverImage})
			if _, err := op.Save(); err != nil {
				log.Printf("Failed to enqueue cover fetch for book %d: %v", book.ID, err)
			}
		}
		if _, err := taskClient.Add(tasks.CountPagesTask{BookID: book.ID}).Save(); err != nil {
			log.Printf("Failed to enqueue page count for book %d: %v", book.ID, err)
		}
		incomplete := book.Author == "" || book.Description == "" || book.CoverImage == ""
		if enricher != nil && incomplete {
			if _, err := taskClient.Add(tasks.EnrichBookTask{BookID: book.ID}).Save(); err != nil {
				log.Printf("Failed to enqueue enrichment for book %d: %v", book.ID, err)
			}
		}
	}

	// Annotation export and library directory scanning
	exporter := exporters.NewMarkdownExporter(notesRepo, bookmarksRepo)
	scanner := importers.NewScanner(cfg.Library.BooksDir, booksRepo, onBookCreated)

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Books:          booksRepo,
		Categories:     categoriesRepo,
		Comments:       commentsRepo,
		OnBookCreated:  onBookCreated,
		Exporter:       exporter,
		Scanner:        scanner,
		Auditor:        auditor,
		Sessions:       registry,
		OpenSession:    openSession,
		CoverCache:     coverCache,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup. Open sessions are closed
	// first so that final reading positions reach the database.
	onShutdown := func(ctx context.Context) {
		if reaper != nil {
			reaper.Stop()
		}
		if err := registry.CloseAll(ctx); err != nil {
			log.Printf("Error closing reading sessions: %v", err)
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
