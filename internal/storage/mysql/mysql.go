// Package mysql registers the "mysql" storage kind on go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"beautywiz/internal/schema"
	"beautywiz/internal/storage"
	"beautywiz/internal/storage/sqldb"
)

// Dialect is the MySQL dialect.
var Dialect = sqldb.Dialect{
	Schema: schema.MySQL,
	Bind:   sqldb.QuestionMark,
	Ignore: sqldb.OnDuplicateKeyNoop,
}

const defaultDialTimeout = 10 * time.Second

// Config parses dsn and applies the settings the store relies on.
func Config(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: dsn: %w", err)
	}
	// RowsAffected must report 0 for an ON DUPLICATE KEY no-op.
	cfg.ClientFoundRows = false
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultDialTimeout
	}
	return cfg, nil
}

// Open connects and pings the server.
func Open(ctx context.Context, dsn string) (*sqldb.Store, error) {
	cfg, err := Config(dsn)
	if err != nil {
		return nil, err
	}
	conn, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(conn)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	st, err := sqldb.New(db, Dialect, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg.DSN)
	})
}
