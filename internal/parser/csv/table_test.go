package csv

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
	"unicode/utf16"
)

func TestNormalizeHeaders(t *testing.T) {
	t.Parallel()

	in := []string{"\uFEFFLabel", " brand ", "Chemical Name", "MostRecentDateReported", "Skin Type"}
	want := []string{"label", "brand", "chemical_name", "mostrecentdatereported", "skin_type"}
	if got := NormalizeHeaders(in); !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeHeaders() = %v, want %v", got, want)
	}
}

// TestReadTable checks header normalization, null markers, padding of short
// rows and skipping of over-wide rows.
func TestReadTable(t *testing.T) {
	t.Parallel()

	input := "Label,brand,Name,price\n" +
		"Moisturizer,Acme,Cream,10.5\n" +
		"Cleanser,Acme,Wash\n" +
		"Toner,Acme,Mist,1,EXTRA\n" +
		"Serum,NA,Drops,\n"

	tbl, err := ReadTable(strings.NewReader(input), Options{Name: "catalog"})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}

	if want := []string{"label", "brand", "name", "price"}; !reflect.DeepEqual(tbl.Headers, want) {
		t.Fatalf("Headers = %v, want %v", tbl.Headers, want)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tbl.Len())
	}
	if tbl.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1", tbl.Skipped)
	}

	if v := tbl.Value(0, "price"); v == nil || *v != "10.5" {
		t.Fatalf("Value(0, price) = %v, want 10.5", v)
	}
	if v := tbl.Value(1, "price"); v != nil {
		t.Fatalf("Value(1, price) = %q, want nil for padded cell", *v)
	}
	if v := tbl.Value(2, "brand"); v != nil {
		t.Fatalf("Value(2, brand) = %q, want nil for NA marker", *v)
	}
	if v := tbl.Value(0, "missing"); v != nil {
		t.Fatalf("Value on missing column = %q, want nil", *v)
	}
	if got := tbl.Line(2); got != 4 {
		t.Fatalf("Line(2) = %d, want 4", got)
	}
}

func TestReadTableUTF16WithBOM(t *testing.T) {
	t.Parallel()

	text := "ChemicalName,ChemicalCount\nTitanium dioxide,3\n"
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range utf16.Encode([]rune(text)) {
		buf.WriteByte(byte(u))
		buf.WriteByte(byte(u >> 8))
	}

	tbl, err := ReadTable(&buf, Options{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if !tbl.Has("chemicalname") {
		t.Fatalf("Headers = %v, want chemicalname", tbl.Headers)
	}
	if v := tbl.Value(0, "chemicalname"); v == nil || *v != "Titanium dioxide" {
		t.Fatalf("Value(0, chemicalname) = %v", v)
	}
}

func TestReadTableEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := ReadTable(strings.NewReader(""), Options{}); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestReadTableLinesFollowQuotedNewlines(t *testing.T) {
	t.Parallel()

	input := "h1,h2,h3\n" +
		"\"a\nb\",x,y\n" + // body lines 1-2
		"c,d,e\n" +
		"f,g\"h,i\n" + // bare quote, skipped
		"j,k,l\n"

	tbl, err := ReadTable(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if want := []int{1, 3, 5}; !reflect.DeepEqual(tbl.Lines, want) {
		t.Fatalf("Lines = %v, want %v", tbl.Lines, want)
	}
	if tbl.Skipped != 1 {
		t.Fatalf("Skipped = %d, want 1", tbl.Skipped)
	}
	if v := tbl.Value(0, "h1"); v == nil || *v != "a\nb" {
		t.Fatalf("Value(0, h1) = %v, want embedded newline kept", v)
	}
}

func TestReadTableReadErrorFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("h1,h2\n1,2\n"), iotest.ErrReader(boom))
	if _, err := ReadTable(r, Options{}); !errors.Is(err, boom) {
		t.Fatalf("ReadTable error = %v, want %v", err, boom)
	}
}

func TestTableFirstAndCustomNulls(t *testing.T) {
	t.Parallel()

	tbl := NewTable([]string{"Ingredient", "Ingredients"}, []string{"a", "b"})
	if got := tbl.First("ingredients", "ingredient"); got != "ingredients" {
		t.Fatalf("First() = %q, want ingredients", got)
	}
	if got := tbl.First("nope", "ingredient"); got != "ingredient" {
		t.Fatalf("First() = %q, want ingredient", got)
	}
	if got := tbl.First("nope"); got != "" {
		t.Fatalf("First() = %q, want empty", got)
	}

	custom, err := ReadTable(strings.NewReader("name\nNA\n-\n"), Options{NullValues: []string{"-"}})
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if v := custom.Value(0, "name"); v == nil || *v != "NA" {
		t.Fatalf("custom nulls: Value(0) = %v, want NA kept", v)
	}
	if v := custom.Value(1, "name"); v != nil {
		t.Fatalf("custom nulls: Value(1) = %q, want nil", *v)
	}
}
