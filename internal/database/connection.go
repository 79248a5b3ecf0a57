package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/example/studytrack/internal/config"
)

// Connect opens a connection pool for the configured driver.
func Connect(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == "sqlite3" && !isMemoryDSN(cfg.DSN) {
		// Create data directory if it doesn't exist
		if dir := filepath.Dir(sqlitePath(cfg.DSN)); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == "sqlite3" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

// InitSchema creates necessary tables if they don't exist
func InitSchema(ctx context.Context, db *sqlx.DB) error {
	timestamp := "TIMESTAMP"
	if db.DriverName() == "postgres" {
		timestamp = "TIMESTAMPTZ"
	}

	statements := []struct {
		name  string
		query string
	}{
		{"items table", `
			CREATE TABLE IF NOT EXISTS items (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				subject_id TEXT NOT NULL,
				topic_name TEXT NOT NULL,
				chapter_reference TEXT,
				difficulty_level INTEGER NOT NULL CHECK (difficulty_level BETWEEN 1 AND 5),
				ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5 CHECK (ease_factor >= 1.3),
				interval_days INTEGER NOT NULL DEFAULT 1 CHECK (interval_days >= 1),
				repetition_count INTEGER NOT NULL DEFAULT 0,
				last_reviewed_at ` + timestamp + `,
				next_review_at ` + timestamp + ` NOT NULL,
				archived BOOLEAN NOT NULL DEFAULT FALSE,
				archived_at ` + timestamp + `,
				version BIGINT NOT NULL DEFAULT 1,
				created_at ` + timestamp + ` NOT NULL,
				updated_at ` + timestamp + ` NOT NULL
			)`},
		{"items due index", `CREATE INDEX IF NOT EXISTS idx_items_user_next_review ON items (user_id, next_review_at)`},
		{"review_records table", `
			CREATE TABLE IF NOT EXISTS review_records (
				id TEXT PRIMARY KEY,
				item_id TEXT NOT NULL REFERENCES items(id),
				confidence INTEGER NOT NULL CHECK (confidence BETWEEN 1 AND 5),
				time_spent_seconds INTEGER NOT NULL CHECK (time_spent_seconds > 0),
				result TEXT NOT NULL CHECK (result IN ('correct', 'partial', 'incorrect')),
				reviewed_at ` + timestamp + ` NOT NULL
			)`},
		{"review_records index", `CREATE INDEX IF NOT EXISTS idx_review_records_item ON review_records (item_id, reviewed_at)`},
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt.query); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
