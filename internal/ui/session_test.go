package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"csvedit/internal/storage"
)

func newTestSession(t *testing.T, content string) (*Session, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sheet.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewSession(storage.SaveOptions{}, []string{"ID", "Name"})
	if err := s.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestNewSessionIsEmptyAndUntitled(t *testing.T) {
	s := NewSession(storage.DefaultSaveOptions(), nil)
	if got := s.Status(); got != "Rows: 0, Columns: 0" {
		t.Fatalf("Status = %q", got)
	}
	if got := s.Title(); got != "Untitled - CSV Editor" {
		t.Fatalf("Title = %q", got)
	}
	if err := s.Save(); !errors.Is(err, ErrNoPath) {
		t.Fatalf("Save err = %v, want ErrNoPath", err)
	}
}

func TestNewUsesDefaultHeaders(t *testing.T) {
	s := NewSession(storage.SaveOptions{}, []string{"A", "B", "C"})
	s.New()
	if diff := cmp.Diff([]string{"A", "B", "C"}, s.Grid().Headers()); diff != "" {
		t.Fatalf("headers mismatch:\n%s", diff)
	}
	if s.Modified() {
		t.Fatalf("new sheet should not be modified")
	}
}

func TestRowInsertionFollowsSelection(t *testing.T) {
	s, _ := newTestSession(t, "ID,Name\n1,a\n2,b\n")

	if err := s.InsertRowBelow(); err != nil { // no selection: append
		t.Fatalf("InsertRowBelow: %v", err)
	}
	if s.Grid().RowCount() != 3 || s.Grid().Cell(2, 0) != "" {
		t.Fatalf("row not appended: %v", s.Grid().Rows())
	}
	s.Select(1, 0)
	if err := s.InsertRowAbove(); err != nil {
		t.Fatalf("InsertRowAbove: %v", err)
	}
	want := [][]string{{"1", "a"}, {"", ""}, {"2", "b"}, {"", ""}}
	if diff := cmp.Diff(want, s.Grid().Rows()); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if row, _ := s.Selection(); row != 1 {
		t.Fatalf("selection row = %d, want 1", row)
	}
	if !s.Modified() || !strings.HasSuffix(s.Status(), "[Modified]") || !strings.HasPrefix(s.Title(), "*sheet.csv") {
		t.Fatalf("modified state not reflected: %q / %q", s.Status(), s.Title())
	}
}

func TestColumnInsertionAndDeletion(t *testing.T) {
	s, _ := newTestSession(t, "ID,Name\n1,a\n")
	s.Select(0, 0)
	if err := s.InsertColumnRight(); err != nil {
		t.Fatalf("InsertColumnRight: %v", err)
	}
	if diff := cmp.Diff([]string{"ID", "", "Name"}, s.Grid().Headers()); diff != "" {
		t.Fatalf("headers mismatch:\n%s", diff)
	}
	if _, col := s.Selection(); col != 1 {
		t.Fatalf("selected col = %d, want 1", col)
	}
	if err := s.DeleteColumn(); err != nil {
		t.Fatalf("DeleteColumn: %v", err)
	}
	if err := s.InsertColumnLeft(); err != nil {
		t.Fatalf("InsertColumnLeft: %v", err)
	}
	if diff := cmp.Diff([][]string{{"1", "", "a"}}, s.Grid().Rows()); diff != "" {
		t.Fatalf("rows mismatch:\n%s", diff)
	}
}

func TestDeleteWithoutSelection(t *testing.T) {
	s, _ := newTestSession(t, "A\n1\n")
	if err := s.DeleteRow(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("DeleteRow err = %v", err)
	}
	if err := s.DeleteColumn(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("DeleteColumn err = %v", err)
	}
	if err := s.ClearCell(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("ClearCell err = %v", err)
	}
	if s.Modified() {
		t.Fatalf("failed actions marked the document modified")
	}
}

func TestDeleteLastRowClearsSelection(t *testing.T) {
	s, _ := newTestSession(t, "A\n1\n")
	s.Select(0, 0)
	if err := s.DeleteRow(); err != nil {
		t.Fatalf("DeleteRow: %v", err)
	}
	if row, _ := s.Selection(); row != -1 {
		t.Fatalf("selection row = %d, want -1", row)
	}
}

func TestSetCellSameValueIsNotAModification(t *testing.T) {
	s, _ := newTestSession(t, "A,B\n1,2\n")
	if err := s.SetCell(0, 1, "2"); err != nil {
		t.Fatalf("SetCell: %v", err)
	}
	if err := s.RenameHeader(0, "A"); err != nil {
		t.Fatalf("RenameHeader: %v", err)
	}
	if s.Modified() {
		t.Fatalf("unchanged values marked the document modified")
	}
	if err := s.RenameHeader(3, "D"); err != nil {
		t.Fatalf("RenameHeader beyond width: %v", err)
	}
	if !s.Modified() || s.Grid().Header(3) != "D" {
		t.Fatalf("header not set: %v", s.Grid().Headers())
	}
}

func TestResolveUnsaved(t *testing.T) {
	s, path := newTestSession(t, "A\n1\n")
	if ok, err := s.ResolveUnsaved(ChoiceCancel); !ok || err != nil {
		t.Fatalf("unmodified doc must proceed: %v %v", ok, err)
	}
	_ = s.SetCell(0, 0, "changed")
	if ok, _ := s.ResolveUnsaved(ChoiceCancel); ok {
		t.Fatalf("cancel must stop the action")
	}
	if ok, _ := s.ResolveUnsaved(ChoiceDiscard); !ok {
		t.Fatalf("discard must proceed")
	}
	if ok, err := s.ResolveUnsaved(ChoiceSave); !ok || err != nil {
		t.Fatalf("save must proceed: %v %v", ok, err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "A\nchanged\n" {
		t.Fatalf("file content = %q", b)
	}

	s.New()
	_ = s.InsertRowBelow()
	if ok, err := s.ResolveUnsaved(ChoiceSave); ok || !errors.Is(err, ErrNoPath) {
		t.Fatalf("untitled save: ok=%v err=%v", ok, err)
	}
}

func TestOpenFailureKeepsDocument(t *testing.T) {
	s, path := newTestSession(t, "A\n1\n")
	if err := s.Open(filepath.Join(filepath.Dir(path), "missing.csv")); err == nil {
		t.Fatalf("expected error")
	}
	if s.Doc.Path != path || s.Grid().Cell(0, 0) != "1" {
		t.Fatalf("document replaced after failed open")
	}
}

func TestSaveAs(t *testing.T) {
	s := NewSession(storage.SaveOptions{}, []string{"X"})
	s.New()
	target := filepath.Join(t.TempDir(), "out.csv")
	if err := s.SaveAs(target); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if s.Modified() || s.Doc.Path != target || s.Message() != "Saved: "+target {
		t.Fatalf("unexpected state: %+v %q", s.Doc, s.Message())
	}
}
