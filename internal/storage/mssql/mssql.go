// Package mssql registers the "mssql" storage kind on go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"beautywiz/internal/schema"
	"beautywiz/internal/storage"
	"beautywiz/internal/storage/sqldb"
)

// Dialect is the SQL Server dialect. T-SQL has no ON CONFLICT, so
// insert-if-absent is an INSERT ... SELECT guarded by NOT EXISTS.
var Dialect = sqldb.Dialect{
	Schema: schema.MSSQL,
	Bind:   sqldb.AtP,
	Ignore: sqldb.WhereNotExists,
}

// Open validates dsn, connects and pings the server.
func Open(ctx context.Context, dsn string) (*sqldb.Store, error) {
	// Fail fast on obvious DSN mistakes before dialing.
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mssql: ping: %w", err)
	}
	st, err := sqldb.New(db, Dialect, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg.DSN)
	})
}
