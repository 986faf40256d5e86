// Package postgres implements storage.Store on a pgx v5 connection pool.
// Append-only tables are loaded with COPY; inserts that must skip existing
// keys go through a batch of INSERT ... ON CONFLICT DO NOTHING statements.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"beautywiz/internal/catalog"
	"beautywiz/internal/schema"
	"beautywiz/internal/storage"
)

// Store is a Postgres-backed storage.Store.
type Store struct {
	pool    *pgxpool.Pool
	script  schema.Script
	closeFn func()
}

var _ storage.Store = (*Store)(nil)

// Open connects a pool to dsn and verifies it with a ping.
func Open(ctx context.Context, dsn string) (*Store, error) {
	script, err := schema.Render(schema.Catalog(), schema.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: render schema: %w", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool, script: script, closeFn: pool.Close}, nil
}

// open is a test hook that points to Open by default.
var open = Open

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return open(ctx, cfg.DSN)
	})
}

// Close closes the pool.
func (s *Store) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// ResetSchema drops and recreates the catalog tables in one transaction.
func (s *Store) ResetSchema(ctx context.Context) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range s.script.All() {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", stmt, err)
			}
		}
		return nil
	})
	return wrap("reset schema", err)
}

// InsertProducts appends products with COPY.
func (s *Store) InsertProducts(ctx context.Context, products []catalog.Product) (int64, error) {
	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = p.Values()
	}
	return s.copyRows(ctx, "insert products", catalog.TableProducts, catalog.ProductColumns, rows)
}

// Products returns stored product ids and business keys in id order.
func (s *Store) Products(ctx context.Context) ([]catalog.StoredProduct, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT "product_id", "brand", "product_name" FROM "Products" ORDER BY "product_id"`)
	if err != nil {
		return nil, wrap("products", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.StoredProduct, error) {
		var p catalog.StoredProduct
		err := row.Scan(&p.ID, &p.Brand, &p.Name)
		return p, err
	})
	return out, wrap("products", err)
}

// InsertIngredients inserts names not already present.
func (s *Store) InsertIngredients(ctx context.Context, names []string) (int64, error) {
	rows := make([][]any, len(names))
	for i, n := range names {
		rows[i] = []any{n}
	}
	return s.batchIgnore(ctx, "insert ingredients", catalog.TableIngredients, []string{"ingredient_name"}, rows)
}

// IngredientIndex returns canonical name -> id.
func (s *Store) IngredientIndex(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT "ingredient_id", "ingredient_name" FROM "Ingredients"`)
	if err != nil {
		return nil, wrap("ingredient index", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, wrap("ingredient index", err)
		}
		out[name] = id
	}
	return out, wrap("ingredient index", rows.Err())
}

// LinkIngredients inserts associations not already present.
func (s *Store) LinkIngredients(ctx context.Context, links []catalog.ProductIngredient) (int64, error) {
	rows := make([][]any, len(links))
	for i, l := range links {
		rows[i] = l.Values()
	}
	return s.batchIgnore(ctx, "link ingredients", catalog.TableProductIngredients, catalog.ProductIngredientColumns, rows)
}

// InsertHazards appends hazard rows with COPY, or skips already stored
// fingerprints when any row carries one.
func (s *Store) InsertHazards(ctx context.Context, hazards []catalog.IngredientHazard) (int64, error) {
	rows := make([][]any, len(hazards))
	fingerprinted := false
	for i, h := range hazards {
		rows[i] = h.Values()
		fingerprinted = fingerprinted || h.Fingerprint != nil
	}
	if fingerprinted {
		return s.batchIgnore(ctx, "insert hazards", catalog.TableIngredientHazards, catalog.IngredientHazardColumns, rows)
	}
	return s.copyRows(ctx, "insert hazards", catalog.TableIngredientHazards, catalog.IngredientHazardColumns, rows)
}

// InsertReports appends report rows; see InsertHazards.
func (s *Store) InsertReports(ctx context.Context, reports []catalog.ChemicalReport) (int64, error) {
	rows := make([][]any, len(reports))
	fingerprinted := false
	for i, r := range reports {
		rows[i] = r.Values()
		fingerprinted = fingerprinted || r.Fingerprint != nil
	}
	if fingerprinted {
		return s.batchIgnore(ctx, "insert reports", catalog.TableChemicalReports, catalog.ChemicalReportColumns, rows)
	}
	return s.copyRows(ctx, "insert reports", catalog.TableChemicalReports, catalog.ChemicalReportColumns, rows)
}

// DeleteProduct deletes one product; associations cascade.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM "Products" WHERE "product_id" = $1`, id)
	return wrap("delete product", err)
}

// DeleteIngredient deletes one ingredient; associations, hazards and
// reports cascade.
func (s *Store) DeleteIngredient(ctx context.Context, id int64) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM "Ingredients" WHERE "ingredient_id" = $1`, id)
	return wrap("delete ingredient", err)
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
		q := "SELECT COUNT(*) FROM " + pgx.Identifier{t.table}.Sanitize()
		if err := s.pool.QueryRow(ctx, q).Scan(t.dst); err != nil {
			return catalog.Counts{}, wrap("count "+t.table, err)
		}
	}
	return c, nil
}

func (s *Store) copyRows(ctx context.Context, op, table string, cols []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var n int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		n, err = tx.CopyFrom(ctx, pgx.Identifier{table}, cols, pgx.CopyFromRows(rows))
		return err
	})
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

func (s *Store) batchIgnore(ctx context.Context, op, table string, cols []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	q := insertIgnoreSQL(table, cols)

	var n int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		for _, row := range rows {
			b.Queue(q, row...)
		}
		br := tx.SendBatch(ctx, b)
		for range rows {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return err
			}
			n += tag.RowsAffected()
		}
		return br.Close()
	})
	if err != nil {
		return 0, wrap(op, err)
	}
	return n, nil
}

func insertIgnoreSQL(table string, cols []string) string {
	qcols := make([]string, len(cols))
	binds := make([]string, len(cols))
	for i, c := range cols {
		qcols[i] = pgx.Identifier{c}.Sanitize()
		binds[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		pgx.Identifier{table}.Sanitize(), strings.Join(qcols, ", "), strings.Join(binds, ", "))
}

// wrap prefixes err with the operation, surfacing Postgres error details.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("postgres: %s: %s (%s): %w", op, pgErr.Detail, pgErr.SQLState(), err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}
