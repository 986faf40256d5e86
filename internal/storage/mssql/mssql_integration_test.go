//go:build integration

package mssql

import (
	"context"
	"os"
	"testing"
	"time"

	"beautywiz/internal/storage/storetest"
)

// getTestDSN reads MSSQL_TEST_DSN; the test is skipped when it is empty.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

func TestStoreSuiteIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer st.Close()

	storetest.Run(t, st)
}
