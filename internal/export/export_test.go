package export

import (
	"bytes"
	"database/sql"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xeipuuv/gojsonschema"
	"github.com/xuri/excelize/v2"
	"golang.org/x/image/font/gofont/gomono"

	"csvedit/internal/grid"
)

func sample() *grid.Grid {
	return grid.New(
		[]string{"ID", "Name", ""},
		[][]string{{"1", "alpha", "x"}, {"2", "beta"}, {"3", "Grüße, Welt", "z"}},
	)
}

func TestParseFormatAndFromPath(t *testing.T) {
	cases := map[string]Format{"out.XLSX": FormatXLSX, "a/b.pdf": FormatPDF, "c.png": FormatPNG, "d.json": FormatJSON, "e.sqlite": FormatSQLite, "f.db": FormatSQLite}
	for path, want := range cases {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
	if _, err := FormatFromPath("noext"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("noext err = %v", err)
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("docx err = %v", err)
	}
}

func TestExportRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	if err := Export(sample(), filepath.Join(dir, "x.json"), Format("csv2"), Options{}); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("unknown format err = %v", err)
	}
	if err := Export(sample(), filepath.Join(dir, "x.json"), FormatJSON, Options{Order: []int{9}}); !errors.Is(err, grid.ErrInvalidOrder) {
		t.Fatalf("bad order err = %v", err)
	}
	if err := Export(nil, filepath.Join(dir, "x.json"), FormatJSON, Options{}); err == nil {
		t.Fatalf("nil grid accepted")
	}
}

func TestJSONExportMatchesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Export(sample(), path, FormatJSON, Options{Order: []int{1, 0}}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(JSONSchema), gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(path)))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.Valid() {
		t.Fatalf("schema errors: %v", res.Errors())
	}
	b, _ := os.ReadFile(path)
	if !bytes.Contains(b, []byte(`"Name",`)) || !bytes.Contains(b, []byte(`"beta",`)) {
		t.Fatalf("ordered columns missing: %s", b)
	}
}

func TestJSONExportOfEmptyGridIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := Export(&grid.Grid{}, path, FormatJSON, Options{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	b, _ := os.ReadFile(path)
	res, err := gojsonschema.Validate(gojsonschema.NewStringLoader(JSONSchema), gojsonschema.NewBytesLoader(b))
	if err != nil || !res.Valid() {
		t.Fatalf("empty export invalid: %v %v (%s)", err, res, b)
	}
}

func TestXLSXExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := Export(sample(), path, FormatXLSX, Options{}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// GetRows trims trailing empty cells
	want := [][]string{{"ID", "Name"}, {"1", "alpha", "x"}, {"2", "beta"}, {"3", "Grüße, Welt", "z"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	panes, err := f.GetPanes(SheetName)
	if err != nil {
		t.Fatalf("GetPanes: %v", err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Fatalf("header row not frozen: %+v", panes)
	}
}

func TestPDFExportWritesPages(t *testing.T) {
	rows := make([][]string, 120)
	for i := range rows {
		rows[i] = []string{strings.Repeat("long text ", 20), "b"}
	}
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := Export(grid.New([]string{"A", "B"}, rows), path, FormatPDF, Options{Title: "Requirements"}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", b[:min(len(b), 16)])
	}
	if n := bytes.Count(b, []byte("/Type /Page\n")); n < 2 {
		t.Fatalf("expected several pages, found %d", n)
	}
}

func TestPNGExportDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	if err := Export(sample(), path, FormatPNG, Options{MaxRows: 2}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// header, dashes, 2 rows, "more rows", blank, total
	if wantH := 7*13 + 2*pngPad; cfg.Height != wantH {
		t.Fatalf("height = %d, want %d", cfg.Height, wantH)
	}
	if cfg.Width <= 2*pngPad {
		t.Fatalf("width too small: %d", cfg.Width)
	}
}

func TestPNGExportWithFontFile(t *testing.T) {
	dir := t.TempDir()
	ttf := filepath.Join(dir, "mono.ttf")
	if err := os.WriteFile(ttf, gomono.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "out.png")
	if err := Export(sample(), path, FormatPNG, Options{MaxRows: 2, FontFile: ttf, FontSize: 20}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// a 20pt face is taller than the built-in 13px one
	if cfg.Height <= 7*13+2*pngPad {
		t.Fatalf("height = %d, expected larger than the default face", cfg.Height)
	}

	bad := filepath.Join(dir, "bad.ttf")
	if err := os.WriteFile(bad, []byte("not a font"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Export(sample(), path, FormatPNG, Options{FontFile: bad}); err == nil {
		t.Fatalf("expected error for invalid font file")
	}
}

func TestSQLiteExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.sqlite")
	g := grid.New([]string{"Name", "name", "2nd Value", ""}, [][]string{{"a", "b", "c", "d"}, {"e"}})
	if err := Export(g, path, FormatSQLite, Options{Table: "My Sheet"}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT "_row", "name", "name_2", "c_2nd_value", "col_4" FROM "my_sheet" ORDER BY "_row"`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var got [][]string
	for rows.Next() {
		var n int
		var a, b, c, d string
		if err := rows.Scan(&n, &a, &b, &c, &d); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, []string{a, b, c, d})
	}
	want := [][]string{{"a", "b", "c", "d"}, {"e", "", "", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	var header string
	if err := db.QueryRow(`SELECT "header" FROM "_columns" WHERE "name" = 'c_2nd_value'`).Scan(&header); err != nil {
		t.Fatalf("columns table: %v", err)
	}
	if header != "2nd Value" {
		t.Fatalf("header = %q", header)
	}

	// exporting again replaces the file
	if err := Export(g, path, FormatSQLite, Options{}); err != nil {
		t.Fatalf("second Export: %v", err)
	}
}

func TestColumnIdentifiers(t *testing.T) {
	got := ColumnIdentifiers([]string{"Traced To", "traced-to", "", "ID", "Ünïcode!", "9 lives", "ID"})
	want := []string{"traced_to", "traced_to_2", "col_3", "id", "n_code", "c_9_lives", "id_2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("identifiers mismatch (-want +got):\n%s", diff)
	}
}
