package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Client owns a single-connection SQLite handle. One connection keeps
// in-memory databases alive and serializes writers.
type Client struct {
	db   *sql.DB
	path string
}

// NewClient opens the database and applies connection pragmas.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		Path:        MemoryPath,
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	for _, stmt := range pragmas(*cfg) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma %q: %w", stmt, err)
		}
	}
	return &Client{db: db, path: cfg.Path}, nil
}

func pragmas(cfg ClientConfig) []string {
	var out []string
	if cfg.ForeignKeys {
		out = append(out, "PRAGMA foreign_keys = ON")
	}
	if cfg.BusyTimeout > 0 {
		out = append(out, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	if cfg.JournalWAL && cfg.Path != MemoryPath {
		out = append(out, "PRAGMA journal_mode = WAL")
	}
	return out
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Path returns the database location.
func (c *Client) Path() string {
	return c.path
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the handle.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// IsConstraintError reports whether err is a UNIQUE, FOREIGN KEY, CHECK
// or NOT NULL violation.
func IsConstraintError(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
