/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package grid

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ViewOptions controls Render. Zero values fall back to the defaults.
type ViewOptions struct {
	MaxRows  int // data rows shown before the "more rows" line
	MaxWidth int // column width cap in terminal cells
}

const (
	DefaultViewRows  = 20
	DefaultViewWidth = 20
	ellipsis         = "..."
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Render formats the grid as a plain-text table for terminals.
func (g *Grid) Render(opts ViewOptions) string {
	if g.Empty() {
		return "No data loaded."
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultViewRows
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = DefaultViewWidth
	}
	cols := g.ColumnCount()

	headers := make([]string, cols)
	for c := range headers {
		headers[c] = clip(g.Header(c), opts.MaxWidth)
	}
	shown := min(opts.MaxRows, g.RowCount())
	body := make([][]string, shown)
	for r := range body {
		body[r] = make([]string, cols)
		for c := range body[r] {
			body[r][c] = clip(g.Cell(r, c), opts.MaxWidth)
		}
	}

	widths := make([]int, cols)
	for c := range widths {
		w := runewidth.StringWidth(headers[c])
		for _, row := range body {
			w = max(w, runewidth.StringWidth(row[c]))
		}
		widths[c] = min(w, opts.MaxWidth)
	}

	join := func(cells []string) string {
		padded := make([]string, len(cells))
		for i, s := range cells {
			padded[i] = runewidth.FillRight(s, widths[i])
		}
		return strings.Join(padded, " | ")
	}

	var b strings.Builder
	head := join(headers)
	b.WriteString(head)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", runewidth.StringWidth(head)))
	for _, row := range body {
		b.WriteString("\n")
		b.WriteString(join(row))
	}
	if more := g.RowCount() - opts.MaxRows; more > 0 {
		fmt.Fprintf(&b, "\n... (%d more rows)", more)
	}
	fmt.Fprintf(&b, "\n\nTotal: %d rows, %d columns", g.RowCount(), cols)
	return b.String()
}

// clip flattens line breaks and truncates s to width cells, marking the cut
// with an ellipsis.
func clip(s string, width int) string {
	s = lineBreaks.Replace(s)
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= len(ellipsis) {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, ellipsis)
}
