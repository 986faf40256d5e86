// Package source loads the three import feeds (product catalog, hazard feed,
// chemical-report feed) into typed rows.
//
// Columns are addressed by their normalized names. The catalog's label,
// brand, name and ingredients columns are required; everything else is
// probed and left nil when missing, so a dependent phase can decide to skip.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"beautywiz/internal/datasource"
	"beautywiz/internal/datasource/httpds"
	"beautywiz/internal/parser/csv"
)

// ErrMissingColumn is returned when a required column is absent.
var ErrMissingColumn = errors.New("missing required column")

// coerceLogLimit caps per-feed logging of unparseable numeric cells.
const coerceLogLimit = 10

// Locations are the configured inputs; each is a path or an http(s) URL.
type Locations struct {
	Catalog string
	Hazards string
	Reports string
}

// Options configures Load.
type Options struct {
	CSV  csv.Options
	HTTP *httpds.Client
}

// CatalogRow is one product catalog row.
type CatalogRow struct {
	Line        int
	Label       *string
	Brand       *string
	Name        *string
	Ingredients *string
	Price       *float64
	Rank        *float64
	Combination *int64
	Dry         *int64
	Normal      *int64
	Oily        *int64
	Sensitive   *int64
}

// HazardRow is one hazard feed row.
type HazardRow struct {
	Line             int
	Ingredient       *string
	HazardScore      *float64
	Concerns         *string
	RegulationStatus *string
	Source           *string
}

// ReportRow is one chemical-report feed row.
type ReportRow struct {
	Line             int
	ChemicalName     *string
	ChemicalID       *string
	FirstReported    *string
	MostRecentReport *string
	DiscontinuedDate *string
	ReportCount      *int64
}

// Sources holds the loaded feeds.
type Sources struct {
	Catalog []CatalogRow
	Hazards []HazardRow
	Reports []ReportRow

	// HazardColumn is the hazard feed's ingredient column ("ingredients" or
	// "ingredient"), or "" when the feed has neither.
	HazardColumn string

	// HasReportNames reports whether the report feed has a chemicalname column.
	HasReportNames bool

	// Skipped counts malformed lines dropped by the CSV reader, per feed.
	Skipped map[string]int
}

// Load reads the three feeds concurrently. The store is not touched here,
// so parallel reads do not interfere with the sequential load phases.
func Load(ctx context.Context, loc Locations, opt Options) (*Sources, error) {
	var catalog, hazards, reports *csv.Table

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		catalog, err = readFeed(gctx, "catalog", loc.Catalog, opt)
		return err
	})
	g.Go(func() (err error) {
		hazards, err = readFeed(gctx, "hazards", loc.Hazards, opt)
		return err
	})
	g.Go(func() (err error) {
		reports, err = readFeed(gctx, "reports", loc.Reports, opt)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return FromTables(catalog, hazards, reports)
}

// FromTables converts already read tables into Sources.
func FromTables(catalog, hazards, reports *csv.Table) (*Sources, error) {
	crows, err := CatalogRows(catalog)
	if err != nil {
		return nil, err
	}
	hrows, hcol := HazardRows(hazards)
	rrows, hasNames := ReportRows(reports)

	return &Sources{
		Catalog:        crows,
		Hazards:        hrows,
		Reports:        rrows,
		HazardColumn:   hcol,
		HasReportNames: hasNames,
		Skipped: map[string]int{
			"catalog": catalog.Skipped,
			"hazards": hazards.Skipped,
			"reports": reports.Skipped,
		},
	}, nil
}

func readFeed(ctx context.Context, name, loc string, opt Options) (*csv.Table, error) {
	if strings.TrimSpace(loc) == "" {
		return nil, fmt.Errorf("source %s: location is empty", name)
	}
	rc, err := datasource.ForLocation(loc, opt.HTTP).Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	defer rc.Close()

	return readTable(name, rc, opt.CSV)
}

func readTable(name string, r io.Reader, opt csv.Options) (*csv.Table, error) {
	opt.Name = name
	t, err := csv.ReadTable(r, opt)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", name, err)
	}
	log.Printf("source: feed=%s rows=%d columns=%d skipped=%d", name, t.Len(), len(t.Headers), t.Skipped)
	return t, nil
}

// CatalogRows converts the catalog table. label, brand, name and
// ingredients are required.
func CatalogRows(t *csv.Table) ([]CatalogRow, error) {
	for _, col := range []string{"label", "brand", "name", "ingredients"} {
		if !t.Has(col) {
			return nil, fmt.Errorf("source catalog: %w %q", ErrMissingColumn, col)
		}
	}

	c := coercer{feed: "catalog"}
	out := make([]CatalogRow, t.Len())
	for i := range out {
		line := t.Line(i)
		out[i] = CatalogRow{
			Line:        line,
			Label:       t.Value(i, "label"),
			Brand:       t.Value(i, "brand"),
			Name:        t.Value(i, "name"),
			Ingredients: t.Value(i, "ingredients"),
			Price:       c.float(line, "price", t.Value(i, "price")),
			Rank:        c.float(line, "rank", t.Value(i, "rank")),
			Combination: c.int(line, "combination", t.Value(i, "combination")),
			Dry:         c.int(line, "dry", t.Value(i, "dry")),
			Normal:      c.int(line, "normal", t.Value(i, "normal")),
			Oily:        c.int(line, "oily", t.Value(i, "oily")),
			Sensitive:   c.int(line, "sensitive", t.Value(i, "sensitive")),
		}
	}
	return out, nil
}

// HazardRows converts the hazard table and returns the ingredient column
// used, or "" when the feed has no ingredient column.
func HazardRows(t *csv.Table) ([]HazardRow, string) {
	col := t.First("ingredients", "ingredient")

	c := coercer{feed: "hazards"}
	out := make([]HazardRow, t.Len())
	for i := range out {
		line := t.Line(i)
		out[i] = HazardRow{
			Line:             line,
			HazardScore:      c.float(line, "hazard_score", t.Value(i, "hazard_score")),
			Concerns:         t.Value(i, "concerns"),
			RegulationStatus: t.Value(i, "regulation_status"),
			Source:           t.Value(i, "source"),
		}
		if col != "" {
			out[i].Ingredient = t.Value(i, col)
		}
	}
	return out, col
}

// ReportRows converts the chemical-report table and reports whether the
// chemicalname column exists.
func ReportRows(t *csv.Table) ([]ReportRow, bool) {
	c := coercer{feed: "reports"}
	out := make([]ReportRow, t.Len())
	for i := range out {
		line := t.Line(i)
		out[i] = ReportRow{
			Line:             line,
			ChemicalName:     t.Value(i, "chemicalname"),
			ChemicalID:       t.Value(i, "chemicalid"),
			FirstReported:    t.Value(i, "chemicaldatecreated"),
			MostRecentReport: t.Value(i, "mostrecentdatereported"),
			DiscontinuedDate: t.Value(i, "discontinueddate"),
			ReportCount:      c.int(line, "chemicalcount", t.Value(i, "chemicalcount")),
		}
	}
	return out, t.Has("chemicalname")
}

// coercer parses numeric cells. Unparseable values become NULL and the first
// few are logged per feed.
type coercer struct {
	feed   string
	logged int
}

func (c *coercer) float(line int, col string, v *string) *float64 {
	if v == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(*v), 64)
	if err != nil || math.IsNaN(f) {
		c.warn(line, col, *v)
		return nil
	}
	return &f
}

func (c *coercer) int(line int, col string, v *string) *int64 {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	// Exports often write integer columns as 1.0.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		n := int64(f)
		return &n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		var n int64
		if b {
			n = 1
		}
		return &n
	}
	c.warn(line, col, *v)
	return nil
}

func (c *coercer) warn(line int, col, v string) {
	if c.logged < coerceLogLimit {
		log.Printf("source: feed=%s row=%d column=%s value=%q not numeric; stored as NULL", c.feed, line, col, v)
	}
	c.logged++
}
