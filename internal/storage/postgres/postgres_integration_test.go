//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"beautywiz/internal/storage/storetest"
)

func TestStoreSuiteIntegration(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping Postgres integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer st.Close()

	storetest.Run(t, st)
}
