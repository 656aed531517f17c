// Package tasks runs the library's background work on a backlite queue:
// cover fetching, page counting and metadata enrichment for newly added
// books.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client owns the queue database and the backlite worker pool.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int

	mu      sync.Mutex
	started bool
}

// QueueDBPath derives the queue database path from the catalog database
// path: "library.db" becomes "library-tasks.db" in the same directory.
func QueueDBPath(catalogDBPath string) string {
	dir := filepath.Dir(catalogDBPath)
	base := filepath.Base(catalogDBPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

// NewClient opens the queue database and prepares the worker pool. The
// queue lives in its own sqlite file next to the catalog so task churn and
// WAL checkpoints never contend with catalog writes.
func NewClient(catalogDBPath string, cfg Config) (*Client, error) {
	db, err := sql.Open("sqlite3", QueueDBPath(catalogDBPath)+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}

	// Each worker holds a connection while processing; leave headroom for
	// enqueues from request handlers.
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create queue client: %w", err)
	}

	if err := bl.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install queue schema: %w", err)
	}

	return &Client{backlite: bl, db: db, workers: cfg.Workers}, nil
}

// Register wires task queues into the client. Call before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start launches the worker pool. Non-blocking after the first call;
// subsequent calls are no-ops.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("Background queue running with %d workers", c.workers)
	c.backlite.Start(ctx)
}

// Stop drains the worker pool, waiting for in-flight tasks up to the
// context deadline. Reports whether everything finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return true
	}

	done := c.backlite.Stop(ctx)
	if done {
		log.Println("Background queue drained")
	} else {
		log.Println("Background queue stopped before all tasks finished")
	}
	return done
}

// Close releases the queue database. Call after Stop.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Add begins an enqueue operation for one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.backlite.Add(tasks...)
}

// queueLogger routes backlite's log output through the standard logger
// under the same [TASK] prefix the processors use.
type queueLogger struct{}

func (queueLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (queueLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
