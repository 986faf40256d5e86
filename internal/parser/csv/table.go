// Package csv reads delimited sources into an in-memory Table addressed by
// canonical column names.
//
// Header cells are normalized (trimmed, BOM stripped, lowercased, spaces
// replaced by underscores) so callers can probe fields by stable names no
// matter how the export spelled them. Malformed rows are skipped and counted
// rather than failing the whole read; I/O errors still fail it.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// skipLogLimit caps how many skipped rows are logged individually.
const skipLogLimit = 20

// DefaultNullValues are cell values read as absent, matching what common
// dataframe tooling treats as missing in CSV exports.
var DefaultNullValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

// Options configures ReadTable. The zero value reads comma-separated input
// with DefaultNullValues.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// LazyQuotes relaxes quote handling for sloppy exports.
	LazyQuotes bool

	// NullValues overrides DefaultNullValues when non-nil.
	NullValues []string

	// Name labels log lines, e.g. "catalog".
	Name string
}

// Table is a fully read delimited source.
type Table struct {
	// Headers are the normalized column names in file order.
	Headers []string

	// Rows hold raw cell values; rows shorter than Headers are padded.
	Rows [][]string

	// Lines holds the 1-based body line number where each row starts,
	// counted after the header.
	Lines []int

	// Skipped counts rows dropped for parse errors or excess fields.
	Skipped int

	index map[string]int
	nulls map[string]struct{}
}

// ReadTable reads all of r. Input carrying a UTF-8 or UTF-16 byte order
// mark is decoded accordingly; anything else is read as UTF-8.
func ReadTable(r io.Reader, opt Options) (*Table, error) {
	r = transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1

	h, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read csv header: empty input")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	t := newTable(NormalizeHeaders(h), opt.NullValues)
	name := opt.Name
	if name == "" {
		name = "csv"
	}

	// Body lines count from the line after the header ends, so quoted
	// newlines in earlier cells do not shift later numbers.
	headerLine, _ := cr.FieldPos(len(h) - 1)

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read csv: %w", err)
			}
			if t.Skipped < skipLogLimit {
				log.Printf("%s: skipping row %d: %v", name, perr.StartLine-headerLine, err)
			}
			t.Skipped++
			continue
		}
		start, _ := cr.FieldPos(0)
		line := start - headerLine
		if len(row) > len(t.Headers) {
			if t.Skipped < skipLogLimit {
				log.Printf("%s: skipping row %d: incorrect number of fields (expected %d, got %d)",
					name, line, len(t.Headers), len(row))
			}
			t.Skipped++
			continue
		}
		if len(row) < len(t.Headers) {
			padded := make([]string, len(t.Headers))
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, line)
	}
	return t, nil
}

// NewTable builds a Table from already split rows; headers are normalized.
// It is mostly useful in tests.
func NewTable(headers []string, rows ...[]string) *Table {
	t := newTable(NormalizeHeaders(headers), nil)
	for i, r := range rows {
		if len(r) < len(t.Headers) {
			padded := make([]string, len(t.Headers))
			copy(padded, r)
			r = padded
		}
		t.Rows = append(t.Rows, r)
		t.Lines = append(t.Lines, i+1)
	}
	return t
}

func newTable(headers []string, nullValues []string) *Table {
	if nullValues == nil {
		nullValues = DefaultNullValues
	}
	t := &Table{
		Headers: headers,
		index:   make(map[string]int, len(headers)),
		nulls:   make(map[string]struct{}, len(nullValues)),
	}
	for i, h := range headers {
		// First occurrence wins for duplicate headers.
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}
	for _, v := range nullValues {
		t.nulls[v] = struct{}{}
	}
	t.nulls[""] = struct{}{}
	return t
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Has reports whether the canonical column exists.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// First returns the first of cols present in the table, or "".
func (t *Table) First(cols ...string) string {
	for _, c := range cols {
		if t.Has(c) {
			return c
		}
	}
	return ""
}

// Value returns the cell at row/col, or nil when the column is missing or
// the cell holds a null marker.
func (t *Table) Value(row int, col string) *string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.Rows) {
		return nil
	}
	v := t.Rows[row][i]
	if _, null := t.nulls[v]; null {
		return nil
	}
	return &v
}

// Line returns the body line number of row.
func (t *Table) Line(row int) int {
	if row < 0 || row >= len(t.Lines) {
		return 0
	}
	return t.Lines[row]
}

// NormalizeHeaders produces canonical column names: surrounding whitespace
// and a UTF-8 BOM are removed, letters are lowercased and spaces become
// underscores.
func NormalizeHeaders(h []string) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(strings.TrimPrefix(col, utf8BOM))
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}
