package all

import (
	"slices"
	"testing"

	"beautywiz/internal/storage"
)

func TestAllKindsRegistered(t *testing.T) {
	t.Parallel()

	kinds := storage.ListKinds()
	for _, want := range []string{"mssql", "mysql", "postgres", "sqlite"} {
		if !slices.Contains(kinds, want) {
			t.Fatalf("kind %q not registered: %v", want, kinds)
		}
	}
}
