// Package storetest is a behavioral test suite shared by every storage
// backend. Backends call Run from their own tests with a freshly opened
// store; the suite resets the schema itself.
package storetest

import (
	"context"
	"testing"

	"beautywiz/internal/catalog"
	"beautywiz/internal/storage"
)

func ptr[T any](v T) *T { return &v }

// Run exercises st. Subtests run sequentially because they share one
// database.
func Run(t *testing.T, st storage.Store) {
	t.Helper()

	t.Run("ResetSchemaEmptiesTables", func(t *testing.T) { resetSchemaEmptiesTables(t, st) })
	t.Run("IngredientsInsertIfAbsent", func(t *testing.T) { ingredientsInsertIfAbsent(t, st) })
	t.Run("IngredientNamesCompareExactly", func(t *testing.T) { ingredientNamesCompareExactly(t, st) })
	t.Run("LinksIdempotent", func(t *testing.T) { linksIdempotent(t, st) })
	t.Run("FeedsAppendOrDedup", func(t *testing.T) { feedsAppendOrDedup(t, st) })
	t.Run("DeleteCascades", func(t *testing.T) { deleteCascades(t, st) })
}

func reset(t *testing.T, st storage.Store) {
	t.Helper()
	if err := st.ResetSchema(context.Background()); err != nil {
		t.Fatalf("ResetSchema: %v", err)
	}
}

func counts(t *testing.T, st storage.Store) catalog.Counts {
	t.Helper()
	c, err := st.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	return c
}

// seed stores one product and the given ingredients.
func seed(t *testing.T, st storage.Store, names ...string) (int64, map[string]int64) {
	t.Helper()
	ctx := context.Background()

	if _, err := st.InsertProducts(ctx, []catalog.Product{
		{Label: "Cleanser", Brand: "Acme", Name: "Foam", Price: ptr(12.5), Oily: ptr(int64(1))},
	}); err != nil {
		t.Fatalf("InsertProducts: %v", err)
	}
	ps, err := st.Products(ctx)
	if err != nil || len(ps) == 0 {
		t.Fatalf("Products = %v, %v", ps, err)
	}
	if _, err := st.InsertIngredients(ctx, names); err != nil {
		t.Fatalf("InsertIngredients: %v", err)
	}
	idx, err := st.IngredientIndex(ctx)
	if err != nil {
		t.Fatalf("IngredientIndex: %v", err)
	}
	return ps[len(ps)-1].ID, idx
}

func resetSchemaEmptiesTables(t *testing.T, st storage.Store) {
	reset(t, st)
	seed(t, st, "water")
	reset(t, st)
	if c := counts(t, st); c != (catalog.Counts{}) {
		t.Fatalf("counts after reset = %+v, want zero", c)
	}
}

func ingredientsInsertIfAbsent(t *testing.T, st storage.Store) {
	reset(t, st)
	ctx := context.Background()

	if n, err := st.InsertIngredients(ctx, []string{"water", "glycerin"}); err != nil || n != 2 {
		t.Fatalf("first insert = %d, %v; want 2, nil", n, err)
	}
	if n, err := st.InsertIngredients(ctx, []string{"glycerin", "mica"}); err != nil || n != 1 {
		t.Fatalf("second insert = %d, %v; want 1, nil", n, err)
	}
	idx, err := st.IngredientIndex(ctx)
	if err != nil {
		t.Fatalf("IngredientIndex: %v", err)
	}
	if len(idx) != 3 {
		t.Fatalf("index = %v, want 3 names", idx)
	}
}

// Canonical names that differ only by accent or case are distinct
// ingredients; the unique index must not fold them.
func ingredientNamesCompareExactly(t *testing.T, st storage.Store) {
	reset(t, st)
	ctx := context.Background()

	names := []string{"cafe", "café", "Cafe"}
	if n, err := st.InsertIngredients(ctx, names); err != nil || n != 3 {
		t.Fatalf("InsertIngredients = %d, %v; want 3, nil", n, err)
	}
	idx, err := st.IngredientIndex(ctx)
	if err != nil {
		t.Fatalf("IngredientIndex: %v", err)
	}
	for _, name := range names {
		if _, ok := idx[name]; !ok {
			t.Fatalf("index missing %q: %v", name, idx)
		}
	}
	if idx["cafe"] == idx["café"] {
		t.Fatalf("cafe and café share id %d", idx["cafe"])
	}
}

func linksIdempotent(t *testing.T, st storage.Store) {
	reset(t, st)
	ctx := context.Background()
	pid, idx := seed(t, st, "water", "glycerin")

	links := []catalog.ProductIngredient{
		{ProductID: pid, IngredientID: idx["water"], Sequence: 1},
		{ProductID: pid, IngredientID: idx["glycerin"], Sequence: 2},
	}
	for run, want := range []int64{2, 0} {
		n, err := st.LinkIngredients(ctx, links)
		if err != nil {
			t.Fatalf("LinkIngredients run %d: %v", run, err)
		}
		if n != want {
			t.Fatalf("LinkIngredients run %d inserted %d, want %d", run, n, want)
		}
	}
	if c := counts(t, st); c.ProductIngredients != 2 {
		t.Fatalf("associations = %d, want 2", c.ProductIngredients)
	}
}

func feedsAppendOrDedup(t *testing.T, st storage.Store) {
	reset(t, st)
	ctx := context.Background()
	_, idx := seed(t, st, "water")

	h := catalog.IngredientHazard{IngredientID: idx["water"], HazardScore: ptr(2.0), Concerns: ptr("irritation")}
	r := catalog.ChemicalReport{IngredientID: idx["water"], ChemicalID: ptr("656"), ReportCount: ptr(int64(3))}

	for range 2 {
		if _, err := st.InsertHazards(ctx, []catalog.IngredientHazard{h}); err != nil {
			t.Fatalf("InsertHazards: %v", err)
		}
		if _, err := st.InsertReports(ctx, []catalog.ChemicalReport{r}); err != nil {
			t.Fatalf("InsertReports: %v", err)
		}
	}
	if c := counts(t, st); c.IngredientHazards != 2 || c.ChemicalReports != 2 {
		t.Fatalf("append-only counts = %+v, want 2 hazards and 2 reports", c)
	}

	h.Fingerprint = ptr(uint64(0x9e3779b97f4a7c15))
	r.Fingerprint = ptr(uint64(42))
	for range 2 {
		if _, err := st.InsertHazards(ctx, []catalog.IngredientHazard{h}); err != nil {
			t.Fatalf("InsertHazards fingerprinted: %v", err)
		}
		if _, err := st.InsertReports(ctx, []catalog.ChemicalReport{r}); err != nil {
			t.Fatalf("InsertReports fingerprinted: %v", err)
		}
	}
	if c := counts(t, st); c.IngredientHazards != 3 || c.ChemicalReports != 3 {
		t.Fatalf("fingerprinted counts = %+v, want 3 hazards and 3 reports", c)
	}
}

func deleteCascades(t *testing.T, st storage.Store) {
	reset(t, st)
	ctx := context.Background()
	pid, idx := seed(t, st, "water", "glycerin")

	if _, err := st.LinkIngredients(ctx, []catalog.ProductIngredient{
		{ProductID: pid, IngredientID: idx["water"], Sequence: 1},
		{ProductID: pid, IngredientID: idx["glycerin"], Sequence: 2},
	}); err != nil {
		t.Fatalf("LinkIngredients: %v", err)
	}
	if _, err := st.InsertHazards(ctx, []catalog.IngredientHazard{{IngredientID: idx["glycerin"]}}); err != nil {
		t.Fatalf("InsertHazards: %v", err)
	}
	if _, err := st.InsertReports(ctx, []catalog.ChemicalReport{{IngredientID: idx["glycerin"]}}); err != nil {
		t.Fatalf("InsertReports: %v", err)
	}

	if err := st.DeleteIngredient(ctx, idx["glycerin"]); err != nil {
		t.Fatalf("DeleteIngredient: %v", err)
	}
	want := catalog.Counts{Products: 1, Ingredients: 1, ProductIngredients: 1}
	if c := counts(t, st); c != want {
		t.Fatalf("after DeleteIngredient counts = %+v, want %+v", c, want)
	}

	if err := st.DeleteProduct(ctx, pid); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	want = catalog.Counts{Ingredients: 1}
	if c := counts(t, st); c != want {
		t.Fatalf("after DeleteProduct counts = %+v, want %+v", c, want)
	}
}
