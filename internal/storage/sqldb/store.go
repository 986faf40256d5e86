// Package sqldb implements storage.Store on database/sql. The SQL it issues
// is parameterized by a Dialect so the SQLite, SQL Server and MySQL backends
// share one implementation.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"beautywiz/internal/catalog"
	"beautywiz/internal/schema"
	"beautywiz/internal/storage"
)

// IgnoreStyle selects how an insert-if-absent is expressed.
type IgnoreStyle int

const (
	// OnConflictDoNothing appends ON CONFLICT DO NOTHING (SQLite, Postgres).
	OnConflictDoNothing IgnoreStyle = iota
	// OnDuplicateKeyNoop appends ON DUPLICATE KEY UPDATE k = k (MySQL).
	// INSERT IGNORE is avoided because it also downgrades foreign-key and
	// NOT NULL violations to warnings.
	OnDuplicateKeyNoop
	// WhereNotExists uses INSERT ... SELECT ... WHERE NOT EXISTS (SQL Server).
	WhereNotExists
)

// Dialect describes the SQL differences between backends.
type Dialect struct {
	Schema schema.Dialect

	// Bind returns the placeholder for the i-th (1-based) argument.
	Bind func(i int) string

	Ignore IgnoreStyle
}

// QuestionMark binds every argument as "?".
func QuestionMark(int) string { return "?" }

// AtP binds arguments as @p1, @p2, ... (SQL Server).
func AtP(i int) string { return fmt.Sprintf("@p%d", i) }

// Store is a database/sql-backed storage.Store.
type Store struct {
	db      *sql.DB
	d       Dialect
	quote   func(string) string
	script  schema.Script
	closeFn func()
}

var _ storage.Store = (*Store)(nil)

// New wraps an open database. closeFn, when non-nil, runs on Close instead
// of db.Close.
func New(db *sql.DB, d Dialect, closeFn func()) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqldb: db must not be nil")
	}
	if d.Bind == nil {
		return nil, fmt.Errorf("sqldb: dialect %s has no Bind", d.Schema)
	}
	quote, err := schema.Quoter(d.Schema)
	if err != nil {
		return nil, fmt.Errorf("sqldb: %w", err)
	}
	script, err := schema.Render(schema.Catalog(), d.Schema)
	if err != nil {
		return nil, fmt.Errorf("sqldb: render schema: %w", err)
	}
	if closeFn == nil {
		closeFn = func() { _ = db.Close() }
	}
	return &Store{db: db, d: d, quote: quote, script: script, closeFn: closeFn}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database.
func (s *Store) Close() { s.closeFn() }

// ResetSchema drops and recreates every catalog table in one transaction.
// On SQLite and Postgres DDL is transactional; elsewhere a failed reset may
// leave a partial schema that the next reset cleans up.
func (s *Store) ResetSchema(ctx context.Context) error {
	return s.inTx(ctx, "reset schema", func(tx *sql.Tx) error {
		for _, stmt := range s.script.All() {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	})
}

// InsertProducts appends products.
func (s *Store) InsertProducts(ctx context.Context, products []catalog.Product) (int64, error) {
	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = p.Values()
	}
	return s.insertRows(ctx, "insert products", catalog.TableProducts, catalog.ProductColumns, nil, rows)
}

// Products returns stored product ids and business keys in id order.
func (s *Store) Products(ctx context.Context) ([]catalog.StoredProduct, error) {
	q := fmt.Sprintf("SELECT %s, %s, %s FROM %s ORDER BY %s",
		s.quote("product_id"), s.quote("brand"), s.quote("product_name"),
		s.quote(catalog.TableProducts), s.quote("product_id"))

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: products: %w", s.d.Schema, err)
	}
	defer rows.Close()

	var out []catalog.StoredProduct
	for rows.Next() {
		var p catalog.StoredProduct
		if err := rows.Scan(&p.ID, &p.Brand, &p.Name); err != nil {
			return nil, fmt.Errorf("%s: products: scan: %w", s.d.Schema, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: products: %w", s.d.Schema, err)
	}
	return out, nil
}

// InsertIngredients inserts names not already present.
func (s *Store) InsertIngredients(ctx context.Context, names []string) (int64, error) {
	rows := make([][]any, len(names))
	for i, n := range names {
		rows[i] = []any{n}
	}
	return s.insertRows(ctx, "insert ingredients", catalog.TableIngredients,
		[]string{"ingredient_name"}, []string{"ingredient_name"}, rows)
}

// IngredientIndex returns canonical name -> id.
func (s *Store) IngredientIndex(ctx context.Context) (map[string]int64, error) {
	q := fmt.Sprintf("SELECT %s, %s FROM %s",
		s.quote("ingredient_id"), s.quote("ingredient_name"), s.quote(catalog.TableIngredients))

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: ingredient index: %w", s.d.Schema, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("%s: ingredient index: scan: %w", s.d.Schema, err)
		}
		out[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ingredient index: %w", s.d.Schema, err)
	}
	return out, nil
}

// LinkIngredients inserts associations not already present.
func (s *Store) LinkIngredients(ctx context.Context, links []catalog.ProductIngredient) (int64, error) {
	rows := make([][]any, len(links))
	for i, l := range links {
		rows[i] = l.Values()
	}
	return s.insertRows(ctx, "link ingredients", catalog.TableProductIngredients,
		catalog.ProductIngredientColumns, []string{"product_id", "ingredient_id"}, rows)
}

// InsertHazards appends hazard rows; fingerprinted rows already stored are
// skipped.
func (s *Store) InsertHazards(ctx context.Context, hazards []catalog.IngredientHazard) (int64, error) {
	rows := make([][]any, len(hazards))
	for i, h := range hazards {
		rows[i] = h.Values()
	}
	return s.insertRows(ctx, "insert hazards", catalog.TableIngredientHazards,
		catalog.IngredientHazardColumns, []string{"row_hash"}, rows)
}

// InsertReports appends report rows; fingerprinted rows already stored are
// skipped.
func (s *Store) InsertReports(ctx context.Context, reports []catalog.ChemicalReport) (int64, error) {
	rows := make([][]any, len(reports))
	for i, r := range reports {
		rows[i] = r.Values()
	}
	return s.insertRows(ctx, "insert reports", catalog.TableChemicalReports,
		catalog.ChemicalReportColumns, []string{"row_hash"}, rows)
}

// DeleteProduct deletes one product and, by cascade, its associations.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, catalog.TableProducts, "product_id", id)
}

// DeleteIngredient deletes one ingredient and, by cascade, its associations,
// hazards and reports.
func (s *Store) DeleteIngredient(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, catalog.TableIngredients, "ingredient_id", id)
}

func (s *Store) deleteByID(ctx context.Context, table, col string, id int64) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", s.quote(table), s.quote(col), s.d.Bind(1))
	return s.inTx(ctx, "delete "+table, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, q, id)
		return err
	})
}

// Counts returns per-table row counts.
func (s *Store) Counts(ctx context.Context) (catalog.Counts, error) {
	var c catalog.Counts
	targets := []struct {
		table string
		dst   *int64
	}{
		{catalog.TableProducts, &c.Products},
		{catalog.TableIngredients, &c.Ingredients},
		{catalog.TableProductIngredients, &c.ProductIngredients},
		{catalog.TableIngredientHazards, &c.IngredientHazards},
		{catalog.TableChemicalReports, &c.ChemicalReports},
	}
	for _, t := range targets {
		q := "SELECT COUNT(*) FROM " + s.quote(t.table)
		if err := s.db.QueryRowContext(ctx, q).Scan(t.dst); err != nil {
			return catalog.Counts{}, fmt.Errorf("%s: count %s: %w", s.d.Schema, t.table, err)
		}
	}
	return c, nil
}

// insertRows executes one prepared insert per row inside a transaction and
// sums the affected rows. A nil conflict renders a plain INSERT.
func (s *Store) insertRows(ctx context.Context, op, table string, cols, conflict []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	q := s.InsertSQL(table, cols, conflict)

	var inserted int64
	err := s.inTx(ctx, op, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return fmt.Errorf("prepare: %w", err)
		}
		defer stmt.Close()

		for i, row := range rows {
			if len(row) != len(cols) {
				return fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(cols))
			}
			res, err := stmt.ExecContext(ctx, row...)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// InsertSQL renders the insert statement for table. With a conflict key the
// statement is a no-op when a row with equal key values exists.
func (s *Store) InsertSQL(table string, cols, conflict []string) string {
	qcols := make([]string, len(cols))
	binds := make([]string, len(cols))
	for i, c := range cols {
		qcols[i] = s.quote(c)
		binds[i] = s.d.Bind(i + 1)
	}
	qtable := s.quote(table)
	colList := strings.Join(qcols, ", ")
	bindList := strings.Join(binds, ", ")

	if len(conflict) == 0 {
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", qtable, colList, bindList)
	}

	switch s.d.Ignore {
	case OnDuplicateKeyNoop:
		k := s.quote(conflict[0])
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s = %s",
			qtable, colList, bindList, k, k)
	case WhereNotExists:
		conds := make([]string, len(conflict))
		for i, k := range conflict {
			pos := indexOf(cols, k)
			conds[i] = fmt.Sprintf("%s = %s", s.quote(k), s.d.Bind(pos+1))
		}
		return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s WHERE NOT EXISTS (SELECT 1 FROM %s WHERE %s)",
			qtable, colList, bindList, qtable, strings.Join(conds, " AND "))
	default:
		return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING", qtable, colList, bindList)
	}
}

func (s *Store) inTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %s: begin tx: %w", s.d.Schema, op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%s: %s: %w", s.d.Schema, op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %s: commit: %w", s.d.Schema, op, err)
	}
	return nil
}

func indexOf(cols []string, c string) int {
	for i, v := range cols {
		if v == c {
			return i
		}
	}
	panic("sqldb: conflict column " + c + " not among insert columns")
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return stmt[:i]
	}
	return stmt
}
