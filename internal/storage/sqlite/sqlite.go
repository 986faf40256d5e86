// Package sqlite registers the "sqlite" storage kind, the default catalog
// store. It uses the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"beautywiz/internal/schema"
	"beautywiz/internal/storage"
	"beautywiz/internal/storage/sqldb"
)

// Dialect is the SQLite SQL dialect.
var Dialect = sqldb.Dialect{
	Schema: schema.SQLite,
	Bind:   sqldb.QuestionMark,
	Ignore: sqldb.OnConflictDoNothing,
}

// Open opens the database at dsn (a file path, "file:" URI or ":memory:")
// with foreign keys enforced. The parent directory of a plain file path is
// created when missing.
//
// The pool is limited to one connection: the foreign_keys pragma is
// per-connection and an in-memory database exists only on the connection
// that created it.
func Open(ctx context.Context, dsn string) (*sqldb.Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}

	st, err := sqldb.New(db, Dialect, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg.DSN)
	})
}
