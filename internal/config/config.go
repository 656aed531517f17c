package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeLocal AuthMode = "local" // Local user database with sessions
)

type (
	Config struct {
		HTTP
		Global
		Database
		Library
		Audit
		Metadata
		Reader
		Scheduler
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Library struct {
		BooksDir  string // Directory holding the uploaded PDF files
		CoversDir string // Directory holding cached cover images
	}
	Audit struct {
		Dir string // Directory where admin action records are written
	}
	Metadata struct {
		Enabled bool // Enrich new books from OpenLibrary
	}
	Reader struct {
		DebounceInterval time.Duration // Quiet period before a position write
		InitialScale     float64
		ZoomStep         float64
		ZoomMin          float64
		ZoomMax          float64
		SessionTTL       time.Duration // Registry eviction TTL per session
		MaxIdle          time.Duration // Reaper closes sessions idle longer than this
	}
	Scheduler struct {
		Enabled      bool
		ReapSchedule string // Cron format: "*/5 * * * *" = every 5 minutes
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Auth struct {
		Mode            AuthMode
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("books_dir", "./library/books")
	v.SetDefault("covers_dir", "./library/covers")
	v.SetDefault("audit_dir", "./library/audit")
	v.SetDefault("metadata_enabled", true)

	// Reader defaults
	v.SetDefault("reader_debounce_interval", "2s")
	v.SetDefault("reader_initial_scale", 1.5)
	v.SetDefault("reader_zoom_step", 0.2)
	v.SetDefault("reader_zoom_min", 0.5)
	v.SetDefault("reader_zoom_max", 3.0)
	v.SetDefault("reader_session_ttl", "30m")
	v.SetDefault("reader_max_idle", "15m")

	// Scheduler defaults
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("scheduler_reap_schedule", "*/5 * * * *") // Every 5 minutes

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)

	// Task queue defaults. Per-task retry and retention policy lives with
	// each task type, not here.
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Library: Library{
			BooksDir:  v.GetString("BOOKS_DIR"),
			CoversDir: v.GetString("COVERS_DIR"),
		},
		Audit: Audit{
			Dir: v.GetString("AUDIT_DIR"),
		},
		Metadata: Metadata{
			Enabled: v.GetBool("METADATA_ENABLED"),
		},
		Reader: Reader{
			DebounceInterval: v.GetDuration("READER_DEBOUNCE_INTERVAL"),
			InitialScale:     v.GetFloat64("READER_INITIAL_SCALE"),
			ZoomStep:         v.GetFloat64("READER_ZOOM_STEP"),
			ZoomMin:          v.GetFloat64("READER_ZOOM_MIN"),
			ZoomMax:          v.GetFloat64("READER_ZOOM_MAX"),
			SessionTTL:       v.GetDuration("READER_SESSION_TTL"),
			MaxIdle:          v.GetDuration("READER_MAX_IDLE"),
		},
		Scheduler: Scheduler{
			Enabled:      v.GetBool("SCHEDULER_ENABLED"),
			ReapSchedule: v.GetString("SCHEDULER_REAP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			Mode:            AuthMode(v.GetString("AUTH_MODE")),
			SessionLifetime: v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:      v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:   v.GetBool("AUTH_SECURE_COOKIES"),
		},
	}
}
