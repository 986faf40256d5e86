// Package storage defines the catalog store abstraction and a registry of
// backend factories keyed by storage kind.
//
// Backends register themselves in init; importing beautywiz/internal/storage/all
// enables every built-in kind. Callers then stay backend-agnostic:
//
//	st, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "BeautyWiz.db"})
//	if err != nil {
//	    // handle error
//	}
//	defer st.Close()
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"beautywiz/internal/catalog"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "sqlite" or "postgres".
	Kind string

	// DSN is passed to the backend's driver.
	DSN string
}

// Store persists the catalog. Every batch method runs in a single
// transaction: it either commits all rows or none.
//
// Insert methods return the number of rows actually written. Ingredient,
// association and fingerprinted feed inserts are no-ops for rows whose
// unique key already exists.
type Store interface {
	// ResetSchema drops the catalog tables children-first and recreates
	// them with their constraints and indexes.
	ResetSchema(ctx context.Context) error

	InsertProducts(ctx context.Context, products []catalog.Product) (int64, error)

	// Products returns the id and business key of every stored product in
	// id order.
	Products(ctx context.Context) ([]catalog.StoredProduct, error)

	InsertIngredients(ctx context.Context, names []string) (int64, error)

	// IngredientIndex returns canonical name -> ingredient id for every
	// stored ingredient.
	IngredientIndex(ctx context.Context) (map[string]int64, error)

	LinkIngredients(ctx context.Context, links []catalog.ProductIngredient) (int64, error)
	InsertHazards(ctx context.Context, hazards []catalog.IngredientHazard) (int64, error)
	InsertReports(ctx context.Context, reports []catalog.ChemicalReport) (int64, error)

	// DeleteProduct and DeleteIngredient remove one parent row; dependent
	// rows go with it through the cascading foreign keys.
	DeleteProduct(ctx context.Context, id int64) error
	DeleteIngredient(ctx context.Context, id int64) error

	Counts(ctx context.Context) (catalog.Counts, error)

	Close()
}

// Factory opens a Store for cfg.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Registering the same kind
// again replaces the previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Store using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
