package grid

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestRenderEmpty(t *testing.T) {
	var g Grid
	if got := g.Render(ViewOptions{}); got != "No data loaded." {
		t.Fatalf("Render(empty) = %q", got)
	}
}

func TestRenderLayout(t *testing.T) {
	g := New([]string{"ID", "Name"}, [][]string{{"1", "alpha"}, {"22", "b"}})
	got := g.Render(ViewOptions{})
	want := strings.Join([]string{
		"ID | Name ",
		"----------",
		"1  | alpha",
		"22 | b    ",
		"",
		"Total: 2 rows, 2 columns",
	}, "\n")
	if got != want {
		t.Fatalf("Render mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderTruncatesAndLimitsRows(t *testing.T) {
	g := New([]string{"Description"}, [][]string{
		{"a very long value indeed"},
		{"short"},
		{"third"},
	})
	got := g.Render(ViewOptions{MaxRows: 2, MaxWidth: 8})
	lines := strings.Split(got, "\n")
	if lines[0] != "Descr..." {
		t.Fatalf("header not truncated: %q", lines[0])
	}
	if lines[2] != "a ver..." {
		t.Fatalf("cell not truncated: %q", lines[2])
	}
	if !strings.Contains(got, "... (1 more rows)") {
		t.Fatalf("missing more-rows line:\n%s", got)
	}
	if !strings.HasSuffix(got, "Total: 3 rows, 1 columns") {
		t.Fatalf("missing totals:\n%s", got)
	}
}

func TestRenderFallbackHeaderAndLineBreaks(t *testing.T) {
	g := New(nil, [][]string{{"line1\nline2"}})
	got := g.Render(ViewOptions{})
	if !strings.HasPrefix(got, "Column 1") {
		t.Fatalf("expected fallback header label:\n%s", got)
	}
	if !strings.Contains(got, "line1 line2") {
		t.Fatalf("line break not flattened:\n%s", got)
	}
}

func TestClipNarrowWidth(t *testing.T) {
	if got := clip("abcdef", 2); got != "ab" {
		t.Fatalf("clip narrow = %q", got)
	}
	if got := clip("abc", 5); got != "abc" {
		t.Fatalf("clip fits = %q", got)
	}
}

func TestRenderWideRunes(t *testing.T) {
	g := New([]string{"名前", "x"}, [][]string{{"東京都", "1"}, {"a", "22"}})
	got := g.Render(ViewOptions{})
	want := strings.Join([]string{
		"名前   | x ",
		"-----------",
		"東京都 | 1 ",
		"a      | 22",
		"",
		"Total: 2 rows, 2 columns",
	}, "\n")
	if got != want {
		t.Fatalf("Render mismatch\n got: %q\nwant: %q", got, want)
	}
	lines := strings.Split(got, "\n")
	if w := runewidth.StringWidth(lines[0]); w != len(lines[1]) {
		t.Fatalf("dash line %d cells, header %d cells", len(lines[1]), w)
	}
}

func TestRenderTruncatesWideRunesAtOddWidth(t *testing.T) {
	g := New([]string{"名前"}, [][]string{{"東京都市"}})
	got := g.Render(ViewOptions{MaxWidth: 5})
	lines := strings.Split(got, "\n")
	if lines[0] != "名前 " {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "-----" {
		t.Fatalf("dash line = %q", lines[1])
	}
	// a wide rune never straddles the cut
	if lines[2] != "東..." {
		t.Fatalf("cell = %q", lines[2])
	}
	if w := runewidth.StringWidth(lines[2]); w != 5 {
		t.Fatalf("cell width = %d, want 5", w)
	}
}
