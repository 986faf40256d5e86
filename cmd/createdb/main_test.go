package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"beautywiz/internal/catalog"
	"beautywiz/internal/storage"
)

func TestRun_SQLiteCreatesEmptySchema(t *testing.T) {
	t.Parallel()

	dsn := filepath.Join(t.TempDir(), "db", "BeautyWiz.db")
	sc := storage.Config{Kind: "sqlite", DSN: dsn}

	// Twice: a second reset over existing tables must succeed too.
	for i := 0; i < 2; i++ {
		c, err := run(context.Background(), sc, storage.New)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if c != (catalog.Counts{}) {
			t.Fatalf("counts = %+v, want empty tables", c)
		}
	}
}

func TestRun_OpenError(t *testing.T) {
	t.Parallel()

	boom := errors.New("unreachable")
	open := func(context.Context, storage.Config) (storage.Store, error) { return nil, boom }
	if _, err := run(context.Background(), storage.Config{Kind: "postgres"}, open); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestPrintDDL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind string
		want string
	}{
		{"sqlite", `CREATE TABLE IF NOT EXISTS "Ingredients"`},
		{"postgres", "GENERATED BY DEFAULT AS IDENTITY"},
		{"mssql", "IF OBJECT_ID(N'[ProductIngredients]', N'U') IS NOT NULL DROP TABLE [ProductIngredients];"},
		{"mysql", "ENGINE=InnoDB"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := printDDL(&buf, tt.kind); err != nil {
			t.Fatalf("printDDL(%s): %v", tt.kind, err)
		}
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("printDDL(%s) missing %q:\n%s", tt.kind, tt.want, buf.String())
		}
	}

	if err := printDDL(&bytes.Buffer{}, "oracle"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
