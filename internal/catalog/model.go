// Package catalog defines the row types persisted by the importer: products,
// ingredients, the ordered product/ingredient association, and the two
// ingredient-level feeds (hazards and chemical reports).
//
// Optional source values are pointers; nil is written as SQL NULL. The
// Values methods return column-ordered slices aligned with the matching
// *Columns variable so storage backends can bind them directly.
package catalog

// Table names shared by the schema model and the storage backends.
const (
	TableProducts           = "Products"
	TableIngredients        = "Ingredients"
	TableProductIngredients = "ProductIngredients"
	TableIngredientHazards  = "IngredientHazards"
	TableChemicalReports    = "ChemicalReports"
)

// Product is one catalog row. Brand and Name together form the business key
// used to find the catalog row again when linking ingredients.
type Product struct {
	ID    int64
	Label string
	Brand string
	Name  string
	Price *float64
	Rank  *float64

	// Skin-suitability flags as found in the catalog (typically 0 or 1).
	Combination *int64
	Dry         *int64
	Normal      *int64
	Oily        *int64
	Sensitive   *int64
}

// ProductColumns lists the insertable Products columns in Values order.
var ProductColumns = []string{
	"label", "brand", "product_name", "price", "rank",
	"skin_combination", "skin_dry", "skin_normal", "skin_oily", "skin_sensitive",
}

// Values returns p's insertable fields in ProductColumns order.
func (p Product) Values() []any {
	return []any{
		p.Label, p.Brand, p.Name, Opt(p.Price), Opt(p.Rank),
		Opt(p.Combination), Opt(p.Dry), Opt(p.Normal), Opt(p.Oily), Opt(p.Sensitive),
	}
}

// Key returns the product's business key.
func (p Product) Key() ProductKey {
	return ProductKey{Brand: p.Brand, Name: p.Name}
}

// ProductKey is the (brand, product name) business key.
type ProductKey struct {
	Brand string
	Name  string
}

// StoredProduct pairs a persisted product id with its business key.
type StoredProduct struct {
	ID int64
	ProductKey
}

// Ingredient is one canonical ingredient. AltNames is reserved for alias
// resolution and is never populated by the importer.
type Ingredient struct {
	ID       int64
	Name     string
	AltNames *string
}

// ProductIngredient links a product to an ingredient. Sequence is the
// 1-based position of the ingredient in the product's label list.
type ProductIngredient struct {
	ProductID    int64
	IngredientID int64
	Sequence     int
}

// ProductIngredientColumns lists the ProductIngredients columns in Values order.
var ProductIngredientColumns = []string{"product_id", "ingredient_id", "sequence"}

// Values returns pi's fields in ProductIngredientColumns order.
func (pi ProductIngredient) Values() []any {
	return []any{pi.ProductID, pi.IngredientID, int64(pi.Sequence)}
}

// IngredientHazard is one hazard/concern record for an ingredient.
//
// Fingerprint is set only when feeds are loaded idempotently; a non-nil
// fingerprint makes the insert a no-op when the same record already exists.
type IngredientHazard struct {
	ID               int64
	IngredientID     int64
	HazardScore      *float64
	Concerns         *string
	RegulationStatus *string
	SourceURLs       *string
	Fingerprint      *uint64
}

// IngredientHazardColumns lists the insertable IngredientHazards columns.
var IngredientHazardColumns = []string{
	"ingredient_id", "hazard_score", "concerns", "regulation_status", "source_urls", "row_hash",
}

// Values returns h's insertable fields in IngredientHazardColumns order.
func (h IngredientHazard) Values() []any {
	return []any{
		h.IngredientID, Opt(h.HazardScore), Opt(h.Concerns),
		Opt(h.RegulationStatus), Opt(h.SourceURLs), hashValue(h.Fingerprint),
	}
}

// ChemicalReport is one regulatory report record for an ingredient.
type ChemicalReport struct {
	ID               int64
	IngredientID     int64
	ChemicalID       *string
	FirstReported    *string
	MostRecentReport *string
	DiscontinuedDate *string
	ReportCount      *int64
	Fingerprint      *uint64
}

// ChemicalReportColumns lists the insertable ChemicalReports columns.
var ChemicalReportColumns = []string{
	"ingredient_id", "chemical_id", "first_reported", "most_recent_report",
	"discontinued_date", "report_count", "row_hash",
}

// Values returns r's insertable fields in ChemicalReportColumns order.
func (r ChemicalReport) Values() []any {
	return []any{
		r.IngredientID, Opt(r.ChemicalID), Opt(r.FirstReported), Opt(r.MostRecentReport),
		Opt(r.DiscontinuedDate), Opt(r.ReportCount), hashValue(r.Fingerprint),
	}
}

// Counts holds per-table row counts.
type Counts struct {
	Products           int64
	Ingredients        int64
	ProductIngredients int64
	IngredientHazards  int64
	ChemicalReports    int64
}

// Opt dereferences p, returning nil for a nil pointer so drivers bind NULL.
func Opt[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// hashValue stores an unsigned fingerprint in a signed BIGINT column.
func hashValue(h *uint64) any {
	if h == nil {
		return nil
	}
	return int64(*h)
}
