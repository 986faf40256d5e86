package etl

import (
	"context"
	"fmt"
	"log"

	"beautywiz/internal/catalog"
	"beautywiz/internal/ingredient"
	"beautywiz/internal/skiplog"
	"beautywiz/internal/source"
)

func (r *runner) resetSchema(ctx context.Context) (PhaseResult, error) {
	return PhaseResult{}, r.st.ResetSchema(ctx)
}

// loadProducts inserts one product per catalog row. Rows without a label,
// brand or name cannot satisfy the NOT NULL columns and are skipped.
func (r *runner) loadProducts(ctx context.Context) (PhaseResult, error) {
	res := PhaseResult{Read: int64(len(r.src.Catalog))}

	products := make([]catalog.Product, 0, len(r.src.Catalog))
	for _, row := range r.src.Catalog {
		if row.Label == nil || row.Brand == nil || row.Name == nil {
			res.Skipped++
			r.skip(PhaseProducts, skiplog.ReasonMissingField, row.Line, deref(row.Brand)+" / "+deref(row.Name))
			continue
		}
		products = append(products, catalog.Product{
			Label:       *row.Label,
			Brand:       *row.Brand,
			Name:        *row.Name,
			Price:       row.Price,
			Rank:        row.Rank,
			Combination: row.Combination,
			Dry:         row.Dry,
			Normal:      row.Normal,
			Oily:        row.Oily,
			Sensitive:   row.Sensitive,
		})
	}

	n, err := r.st.InsertProducts(ctx, products)
	res.Written = n
	return res, err
}

// resolveIngredients builds the ingredient universe from all three feeds,
// stores the names not yet present and loads the name index used by the
// link phases.
func (r *runner) resolveIngredients(ctx context.Context) (PhaseResult, error) {
	u := ingredient.NewUniverse()
	for _, row := range r.src.Catalog {
		if row.Ingredients != nil {
			u.AddList(*row.Ingredients)
		}
	}
	if r.src.HazardColumn != "" {
		for _, row := range r.src.Hazards {
			if row.Ingredient != nil {
				u.AddList(*row.Ingredient)
			}
		}
	}
	if r.src.HasReportNames {
		for _, row := range r.src.Reports {
			u.AddPtr(row.ChemicalName)
		}
	}

	res := PhaseResult{Read: int64(u.Len())}
	n, err := r.st.InsertIngredients(ctx, u.Names())
	res.Written = n
	if err != nil {
		return res, err
	}

	idx, err := r.st.IngredientIndex(ctx)
	if err != nil {
		return res, fmt.Errorf("load index: %w", err)
	}
	r.index = ingredient.Index(idx)
	return res, nil
}

// linkProducts records every stored product's ingredients with their
// 1-based label position. Products are matched back to the catalog by
// (brand, name); the first catalog row with an ingredient list wins.
func (r *runner) linkProducts(ctx context.Context) (PhaseResult, error) {
	lookup := r.catalogLookup()

	stored, err := r.st.Products(ctx)
	if err != nil {
		return PhaseResult{}, fmt.Errorf("list products: %w", err)
	}

	res := PhaseResult{Read: int64(len(stored))}
	var links []catalog.ProductIngredient
	for _, p := range stored {
		row, ok := lookup[p.ProductKey]
		if !ok {
			res.Skipped++
			r.skip(PhaseLinks, skiplog.ReasonNoCatalogRow, 0, p.Brand+" / "+p.Name)
			continue
		}
		for _, m := range ingredient.Mentions(*row.Ingredients) {
			if !m.OK {
				res.Skipped++
				r.skip(PhaseLinks, skiplog.ReasonBlankName, row.Line, *row.Ingredients)
				continue
			}
			id, ok := r.index.ID(m.Name)
			if !ok {
				res.Skipped++
				r.skip(PhaseLinks, skiplog.ReasonUnresolvedName, row.Line, m.Raw)
				continue
			}
			links = append(links, catalog.ProductIngredient{ProductID: p.ID, IngredientID: id, Sequence: m.Sequence})
		}
	}

	n, err := r.st.LinkIngredients(ctx, links)
	res.Written = n
	return res, err
}

// catalogLookup indexes catalog rows that carry an ingredient list by
// business key. Later rows with the same key are counted and ignored.
func (r *runner) catalogLookup() map[catalog.ProductKey]*source.CatalogRow {
	lookup := make(map[catalog.ProductKey]*source.CatalogRow, len(r.src.Catalog))
	dups := 0
	for i := range r.src.Catalog {
		row := &r.src.Catalog[i]
		if row.Brand == nil || row.Name == nil || row.Ingredients == nil {
			continue
		}
		key := catalog.ProductKey{Brand: *row.Brand, Name: *row.Name}
		if _, seen := lookup[key]; seen {
			dups++
			r.skip(PhaseLinks, skiplog.ReasonDuplicateKey, row.Line, key.Brand+" / "+key.Name)
			continue
		}
		lookup[key] = row
	}
	if dups > 0 {
		log.Printf("warning: etl: %d catalog rows repeat a (brand, name) key; the first row's ingredients are linked", dups)
	}
	return lookup
}

// loadHazards attaches each hazard row to the ingredient its whole
// ingredient cell normalizes to. A list-valued cell seeds several
// ingredients in the resolve phase but only resolves here when it names
// exactly one.
func (r *runner) loadHazards(ctx context.Context) (PhaseResult, error) {
	if r.src.HazardColumn == "" {
		return PhaseResult{SkipReason: "hazard feed has no ingredients or ingredient column"}, nil
	}

	res := PhaseResult{Read: int64(len(r.src.Hazards))}
	hazards := make([]catalog.IngredientHazard, 0, len(r.src.Hazards))
	for _, row := range r.src.Hazards {
		id, ok := r.resolve(PhaseHazards, row.Line, row.Ingredient)
		if !ok {
			res.Skipped++
			continue
		}
		h := catalog.IngredientHazard{
			IngredientID:     id,
			HazardScore:      row.HazardScore,
			Concerns:         row.Concerns,
			RegulationStatus: row.RegulationStatus,
			SourceURLs:       row.Source,
		}
		if r.opt.IdempotentFeeds {
			fp := hazardFingerprint(h)
			h.Fingerprint = &fp
		}
		hazards = append(hazards, h)
	}

	n, err := r.st.InsertHazards(ctx, hazards)
	res.Written = n
	return res, err
}

// loadReports attaches each chemical report to the ingredient named by its
// chemicalname cell.
func (r *runner) loadReports(ctx context.Context) (PhaseResult, error) {
	if !r.src.HasReportNames {
		return PhaseResult{SkipReason: "report feed has no chemicalname column"}, nil
	}

	res := PhaseResult{Read: int64(len(r.src.Reports))}
	reports := make([]catalog.ChemicalReport, 0, len(r.src.Reports))
	for _, row := range r.src.Reports {
		id, ok := r.resolve(PhaseReports, row.Line, row.ChemicalName)
		if !ok {
			res.Skipped++
			continue
		}
		rep := catalog.ChemicalReport{
			IngredientID:     id,
			ChemicalID:       row.ChemicalID,
			FirstReported:    row.FirstReported,
			MostRecentReport: row.MostRecentReport,
			DiscontinuedDate: row.DiscontinuedDate,
			ReportCount:      row.ReportCount,
		}
		if r.opt.IdempotentFeeds {
			fp := reportFingerprint(rep)
			rep.Fingerprint = &fp
		}
		reports = append(reports, rep)
	}

	n, err := r.st.InsertReports(ctx, reports)
	res.Written = n
	return res, err
}

// resolve looks raw up in the ingredient index, logging a skip on a miss.
func (r *runner) resolve(phase string, line int, raw *string) (int64, bool) {
	name, ok := ingredient.NormalizePtr(raw)
	if !ok {
		r.skip(phase, skiplog.ReasonBlankName, line, "")
		return 0, false
	}
	id, ok := r.index.ID(name)
	if !ok {
		r.skip(phase, skiplog.ReasonUnresolvedName, line, *raw)
	}
	return id, ok
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
