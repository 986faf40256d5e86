package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalOpenReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cosmetic_p.csv")
	if err := os.WriteFile(path, []byte("brand,name\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	rc, err := NewLocal(path).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(b) != "brand,name\n" {
		t.Fatalf("content = %q", b)
	}
}

func TestLocalOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(filepath.Join(t.TempDir(), "absent.csv")).Open(context.Background())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Open error = %v, want os.ErrNotExist", err)
	}
}

func TestLocalOpenCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal("whatever.csv").Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open error = %v, want context.Canceled", err)
	}
}
