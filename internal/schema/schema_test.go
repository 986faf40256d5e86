package schema

import (
	"strings"
	"testing"
)

func TestQuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		d    Dialect
		in   string
		want string
	}{
		{name: "sqlite simple", d: SQLite, in: "Products", want: `"Products"`},
		{name: "sqlite embedded quote", d: SQLite, in: `weird"name`, want: `"weird""name"`},
		{name: "postgres", d: Postgres, in: "rank", want: `"rank"`},
		{name: "mssql simple", d: MSSQL, in: "rank", want: "[rank]"},
		{name: "mssql closing bracket", d: MSSQL, in: "weird]id", want: "[weird]]id]"},
		{name: "mysql", d: MySQL, in: "rank", want: "`rank`"},
		{name: "mysql backtick", d: MySQL, in: "a`b", want: "`a``b`"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Quote(tt.d, tt.in)
			if err != nil {
				t.Fatalf("Quote: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Quote(%s, %q) = %q, want %q", tt.d, tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderUnknownDialect(t *testing.T) {
	t.Parallel()

	if _, err := Render(Catalog(), Dialect("oracle")); err == nil {
		t.Fatalf("expected error for unsupported dialect")
	}
}

// TestDropOrder verifies children are dropped before their parents.
func TestDropOrder(t *testing.T) {
	t.Parallel()

	m := Catalog()
	pos := map[string]int{}
	for i, name := range m.DropOrder() {
		pos[name] = i
	}
	for _, tbl := range m.Tables {
		for _, fk := range tbl.ForeignKeys {
			if pos[tbl.Name] > pos[fk.RefTable] {
				t.Fatalf("%s dropped after its parent %s", tbl.Name, fk.RefTable)
			}
		}
	}
}

func TestRenderSQLite(t *testing.T) {
	t.Parallel()

	s, err := Render(Catalog(), SQLite)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(s.Drop) != 5 {
		t.Fatalf("drop statements = %d, want 5", len(s.Drop))
	}
	if s.Drop[0] != `DROP TABLE IF EXISTS "ChemicalReports";` {
		t.Fatalf("first drop = %q", s.Drop[0])
	}
	if s.Drop[4] != `DROP TABLE IF EXISTS "Products";` {
		t.Fatalf("last drop = %q", s.Drop[4])
	}

	all := strings.Join(s.Create, "\n")
	for _, want := range []string{
		`"product_id" INTEGER PRIMARY KEY AUTOINCREMENT`,
		`"label" TEXT NOT NULL`,
		`"price" REAL,`,
		`"ingredient_name" TEXT NOT NULL UNIQUE`,
		`PRIMARY KEY ("product_id", "ingredient_id")`,
		`FOREIGN KEY ("product_id") REFERENCES "Products" ("product_id") ON DELETE CASCADE`,
		`CREATE INDEX IF NOT EXISTS "idx_pi_ingredient" ON "ProductIngredients" ("ingredient_id");`,
		`CREATE UNIQUE INDEX IF NOT EXISTS "ux_cr_row_hash" ON "ChemicalReports" ("row_hash") WHERE "row_hash" IS NOT NULL;`,
	} {
		if !strings.Contains(all, want) {
			t.Fatalf("sqlite script missing %q\n%s", want, all)
		}
	}
}

func TestRenderPostgres(t *testing.T) {
	t.Parallel()

	s, err := Render(Catalog(), Postgres)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	all := strings.Join(s.Create, "\n")
	for _, want := range []string{
		`"hazard_id" BIGINT GENERATED BY DEFAULT AS IDENTITY NOT NULL`,
		`"hazard_score" DOUBLE PRECISION,`,
		`PRIMARY KEY ("hazard_id")`,
	} {
		if !strings.Contains(all, want) {
			t.Fatalf("postgres script missing %q\n%s", want, all)
		}
	}
}

func TestRenderMSSQL(t *testing.T) {
	t.Parallel()

	s, err := Render(Catalog(), MSSQL)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if want := "IF OBJECT_ID(N'[ProductIngredients]', N'U') IS NOT NULL DROP TABLE [ProductIngredients];"; s.Drop[2] != want {
		t.Fatalf("drop[2] = %q, want %q", s.Drop[2], want)
	}
	all := strings.Join(s.Create, "\n")
	for _, want := range []string{
		"IF OBJECT_ID(N'[Ingredients]', N'U') IS NULL\nBEGIN\n  CREATE TABLE [Ingredients] (\n    [ingredient_id] BIGINT IDENTITY(1,1) NOT NULL,",
		"[ingredient_name] NVARCHAR(450) COLLATE Latin1_General_100_BIN2 NOT NULL UNIQUE",
		"[alt_names] NVARCHAR(MAX),",
		"CREATE UNIQUE INDEX [ux_ih_row_hash] ON [IngredientHazards] ([row_hash]) WHERE [row_hash] IS NOT NULL;",
	} {
		if !strings.Contains(all, want) {
			t.Fatalf("mssql script missing %q\n%s", want, all)
		}
	}
}

func TestRenderMySQL(t *testing.T) {
	t.Parallel()

	s, err := Render(Catalog(), MySQL)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	all := strings.Join(s.Create, "\n")
	for _, want := range []string{
		"`ingredient_name` VARCHAR(512) COLLATE utf8mb4_bin NOT NULL UNIQUE",
		"ENGINE=InnoDB",
		"CREATE UNIQUE INDEX `ux_ih_row_hash` ON `IngredientHazards` (`row_hash`);",
	} {
		if !strings.Contains(all, want) {
			t.Fatalf("mysql script missing %q\n%s", want, all)
		}
	}
	if strings.Contains(all, "WHERE") {
		t.Fatalf("mysql script must not contain partial indexes")
	}
}

func TestRenderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model Model
	}{
		{name: "empty table name", model: Model{Tables: []Table{{Columns: []Column{{Name: "a", Type: Int}}}}}},
		{name: "no columns", model: Model{Tables: []Table{{Name: "t"}}}},
		{name: "empty column name", model: Model{Tables: []Table{{Name: "t", Columns: []Column{{Type: Int}}}}}},
		{name: "unknown type", model: Model{Tables: []Table{{Name: "t", Columns: []Column{{Name: "a", Type: Type(99)}}}}}},
		{name: "undefined pk column", model: Model{Tables: []Table{{
			Name: "t", Columns: []Column{{Name: "a", Type: Int}}, PrimaryKey: []string{"b"},
		}}}},
		{name: "serial with composite key", model: Model{Tables: []Table{{
			Name: "t", Columns: []Column{{Name: "id", Type: Serial}, {Name: "a", Type: Int}}, PrimaryKey: []string{"a"},
		}}}},
		{name: "undefined fk column", model: Model{Tables: []Table{{
			Name: "t", Columns: []Column{{Name: "a", Type: Int}},
			ForeignKeys: []ForeignKey{{Column: "b", RefTable: "p", RefColumn: "id"}},
		}}}},
		{name: "index on unknown table", model: Model{
			Tables:  []Table{{Name: "t", Columns: []Column{{Name: "a", Type: Int}}}},
			Indexes: []Index{{Name: "ix", Table: "u", Columns: []string{"a"}}},
		}},
		{name: "index on unknown column", model: Model{
			Tables:  []Table{{Name: "t", Columns: []Column{{Name: "a", Type: Int}}}},
			Indexes: []Index{{Name: "ix", Table: "t", Columns: []string{"b"}}},
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			for _, d := range []Dialect{SQLite, Postgres, MSSQL, MySQL} {
				if _, err := Render(tt.model, d); err == nil {
					t.Fatalf("%s: expected error", d)
				}
			}
		})
	}
}
