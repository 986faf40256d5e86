// Package schema holds the logical relational model of the catalog database
// and renders it to dialect-specific DDL.
//
// The model is database-agnostic: columns carry a logical Type that each
// dialect maps to a concrete SQL type, and identifiers are quoted only at
// render time.
package schema

import "beautywiz/internal/catalog"

// Type is a logical column type.
type Type int

const (
	// Serial is an auto-incrementing surrogate key; it is always the
	// table's single primary-key column.
	Serial Type = iota
	// Int is a 64-bit integer.
	Int
	// Real is a double-precision float.
	Real
	// Text is unbounded text that is never indexed.
	Text
	// Key is text that participates in a unique constraint or index, which
	// some dialects require to be length-bounded.
	Key
	// Hash is a 64-bit fingerprint.
	Hash
)

func (t Type) String() string {
	switch t {
	case Serial:
		return "serial"
	case Int:
		return "int"
	case Real:
		return "real"
	case Text:
		return "text"
	case Key:
		return "key"
	case Hash:
		return "hash"
	default:
		return "unknown"
	}
}

// Column is one column definition.
type Column struct {
	Name     string
	Type     Type
	Nullable bool
	Unique   bool
}

// ForeignKey references a parent table column. Every foreign key in the
// model deletes dependents when the parent row is deleted.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Table is one table definition. PrimaryKey is only set for composite keys;
// a Serial column is the primary key on its own.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Serial returns the table's Serial column name, or "".
func (t Table) Serial() string {
	for _, c := range t.Columns {
		if c.Type == Serial {
			return c.Name
		}
	}
	return ""
}

// Column returns the named column.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Index is a secondary index. A NotNull index covers only rows whose
// indexed columns are non-NULL, so NULLs never conflict on a unique index.
type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
	NotNull bool
}

// Model is an ordered set of tables (parents before children) and indexes.
type Model struct {
	Tables  []Table
	Indexes []Index
}

// Table returns the named table.
func (m Model) Table(name string) (Table, bool) {
	for _, t := range m.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// DropOrder returns table names children-first so each drop succeeds while
// foreign keys are enforced.
func (m Model) DropOrder() []string {
	out := make([]string, 0, len(m.Tables))
	for i := len(m.Tables) - 1; i >= 0; i-- {
		out = append(out, m.Tables[i].Name)
	}
	return out
}

// Catalog returns the catalog database model.
func Catalog() Model {
	return Model{
		Tables: []Table{
			{
				Name: catalog.TableProducts,
				Columns: []Column{
					{Name: "product_id", Type: Serial},
					{Name: "label", Type: Text},
					{Name: "brand", Type: Text},
					{Name: "product_name", Type: Text},
					{Name: "price", Type: Real, Nullable: true},
					{Name: "rank", Type: Real, Nullable: true},
					{Name: "skin_combination", Type: Int, Nullable: true},
					{Name: "skin_dry", Type: Int, Nullable: true},
					{Name: "skin_normal", Type: Int, Nullable: true},
					{Name: "skin_oily", Type: Int, Nullable: true},
					{Name: "skin_sensitive", Type: Int, Nullable: true},
				},
			},
			{
				Name: catalog.TableIngredients,
				Columns: []Column{
					{Name: "ingredient_id", Type: Serial},
					{Name: "ingredient_name", Type: Key, Unique: true},
					{Name: "alt_names", Type: Text, Nullable: true},
				},
			},
			{
				Name: catalog.TableProductIngredients,
				Columns: []Column{
					{Name: "product_id", Type: Int},
					{Name: "ingredient_id", Type: Int},
					{Name: "sequence", Type: Int, Nullable: true},
				},
				PrimaryKey: []string{"product_id", "ingredient_id"},
				ForeignKeys: []ForeignKey{
					{Column: "product_id", RefTable: catalog.TableProducts, RefColumn: "product_id"},
					{Column: "ingredient_id", RefTable: catalog.TableIngredients, RefColumn: "ingredient_id"},
				},
			},
			{
				Name: catalog.TableIngredientHazards,
				Columns: []Column{
					{Name: "hazard_id", Type: Serial},
					{Name: "ingredient_id", Type: Int},
					{Name: "hazard_score", Type: Real, Nullable: true},
					{Name: "concerns", Type: Text, Nullable: true},
					{Name: "regulation_status", Type: Text, Nullable: true},
					{Name: "source_urls", Type: Text, Nullable: true},
					{Name: "row_hash", Type: Hash, Nullable: true},
				},
				ForeignKeys: []ForeignKey{
					{Column: "ingredient_id", RefTable: catalog.TableIngredients, RefColumn: "ingredient_id"},
				},
			},
			{
				Name: catalog.TableChemicalReports,
				Columns: []Column{
					{Name: "report_id", Type: Serial},
					{Name: "ingredient_id", Type: Int},
					{Name: "chemical_id", Type: Text, Nullable: true},
					{Name: "first_reported", Type: Text, Nullable: true},
					{Name: "most_recent_report", Type: Text, Nullable: true},
					{Name: "discontinued_date", Type: Text, Nullable: true},
					{Name: "report_count", Type: Int, Nullable: true},
					{Name: "row_hash", Type: Hash, Nullable: true},
				},
				ForeignKeys: []ForeignKey{
					{Column: "ingredient_id", RefTable: catalog.TableIngredients, RefColumn: "ingredient_id"},
				},
			},
		},
		Indexes: []Index{
			{Name: "idx_ingredients_name", Table: catalog.TableIngredients, Columns: []string{"ingredient_name"}},
			{Name: "idx_pi_product", Table: catalog.TableProductIngredients, Columns: []string{"product_id"}},
			{Name: "idx_pi_ingredient", Table: catalog.TableProductIngredients, Columns: []string{"ingredient_id"}},
			{Name: "idx_ih_ingredient", Table: catalog.TableIngredientHazards, Columns: []string{"ingredient_id"}},
			{Name: "idx_cr_ingredient", Table: catalog.TableChemicalReports, Columns: []string{"ingredient_id"}},
			{Name: "ux_ih_row_hash", Table: catalog.TableIngredientHazards, Columns: []string{"row_hash"}, Unique: true, NotNull: true},
			{Name: "ux_cr_row_hash", Table: catalog.TableChemicalReports, Columns: []string{"row_hash"}, Unique: true, NotNull: true},
		},
	}
}
