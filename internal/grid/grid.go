/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package grid holds the in-memory table edited by csvedit: a header row plus
// data rows of string cells. All mutations validate their indices first, so a
// failed call leaves the grid untouched.
package grid

import (
	"errors"
	"fmt"
)

var (
	ErrRowOutOfRange    = errors.New("row index out of range")
	ErrColumnOutOfRange = errors.New("column index out of range")
	ErrInvalidCount     = errors.New("count must be at least 1")
	ErrInvalidOrder     = errors.New("invalid column order")
)

// Grid is a header row plus data rows. Rows may be ragged until Normalize is
// called; storage.Open always returns a normalized grid.
// The zero value is an empty grid ready for use.
type Grid struct {
	headers []string
	rows    [][]string
}

// New builds a grid from copies of headers and rows.
func New(headers []string, rows [][]string) *Grid {
	g := &Grid{headers: append([]string(nil), headers...)}
	if len(rows) > 0 {
		g.rows = make([][]string, len(rows))
		for i, r := range rows {
			g.rows[i] = append([]string(nil), r...)
		}
	}
	return g
}

// NewWithHeaders returns a sheet with the given headers and no rows.
func NewWithHeaders(headers []string) *Grid { return New(headers, nil) }

// RowCount returns the number of data rows; the header row is not counted.
func (g *Grid) RowCount() int { return len(g.rows) }

// ColumnCount returns the header count, or the width of the first row when
// there are no headers.
func (g *Grid) ColumnCount() int {
	if len(g.headers) > 0 {
		return len(g.headers)
	}
	if len(g.rows) > 0 {
		return len(g.rows[0])
	}
	return 0
}

// Empty reports whether the grid has neither headers nor rows.
func (g *Grid) Empty() bool { return len(g.headers) == 0 && len(g.rows) == 0 }

// Cell returns the value at row/col, or "" when either index is out of range.
func (g *Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g.rows) {
		return ""
	}
	if col < 0 || col >= len(g.rows[row]) {
		return ""
	}
	return g.rows[row][col]
}

// SetCell stores value at row/col. The row grows with empty cells when col is
// past its end.
func (g *Grid) SetCell(row, col int, value string) error {
	if row < 0 || row >= len(g.rows) {
		return fmt.Errorf("%w: row %d (rows: %d)", ErrRowOutOfRange, row, len(g.rows))
	}
	if col < 0 {
		return fmt.Errorf("%w: column %d", ErrColumnOutOfRange, col)
	}
	g.rows[row] = padTo(g.rows[row], col+1)
	g.rows[row][col] = value
	return nil
}

// ClearCell empties the cell at row/col.
func (g *Grid) ClearCell(row, col int) error { return g.SetCell(row, col, "") }

// Header returns the header text for col, falling back to a "Column N" label
// when the header list does not reach that far.
func (g *Grid) Header(col int) string {
	if col >= 0 && col < len(g.headers) {
		return g.headers[col]
	}
	return fmt.Sprintf("Column %d", col+1)
}

// SetHeader renames column col, growing the header list as needed.
func (g *Grid) SetHeader(col int, value string) error {
	if col < 0 {
		return fmt.Errorf("%w: column %d", ErrColumnOutOfRange, col)
	}
	g.headers = padTo(g.headers, col+1)
	g.headers[col] = value
	return nil
}

// Headers returns a copy of the header row.
func (g *Grid) Headers() []string { return append([]string(nil), g.headers...) }

// Rows returns a deep copy of the data rows.
func (g *Grid) Rows() [][]string {
	out := make([][]string, len(g.rows))
	for i, r := range g.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// InsertRows inserts count empty rows before index at. at may equal RowCount
// to append.
func (g *Grid) InsertRows(at, count int) error {
	if at < 0 || at > len(g.rows) {
		return fmt.Errorf("%w: insert at %d (rows: %d)", ErrRowOutOfRange, at, len(g.rows))
	}
	if count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	cols := g.ColumnCount()
	fresh := make([][]string, count)
	for i := range fresh {
		fresh[i] = make([]string, cols)
	}
	g.rows = append(g.rows[:at], append(fresh, g.rows[at:]...)...)
	return nil
}

// RemoveRows deletes up to count rows starting at index at.
func (g *Grid) RemoveRows(at, count int) error {
	if at < 0 || at >= len(g.rows) {
		return fmt.Errorf("%w: remove at %d (rows: %d)", ErrRowOutOfRange, at, len(g.rows))
	}
	if count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	end := min(at+count, len(g.rows))
	g.rows = append(g.rows[:at], g.rows[end:]...)
	return nil
}

// InsertColumns inserts count empty columns before index at. Headers are
// materialized as empty strings if the grid had none.
func (g *Grid) InsertColumns(at, count int) error {
	cols := g.ColumnCount()
	if at < 0 || at > cols {
		return fmt.Errorf("%w: insert at %d (columns: %d)", ErrColumnOutOfRange, at, cols)
	}
	if count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if len(g.headers) == 0 {
		g.headers = make([]string, cols)
	}
	g.headers = insertBlank(g.headers, at, count)
	for i, r := range g.rows {
		g.rows[i] = insertBlank(padTo(r, at), at, count)
	}
	return nil
}

// RemoveColumns deletes up to count columns starting at index at from the
// headers and from every row long enough to hold them.
func (g *Grid) RemoveColumns(at, count int) error {
	cols := g.ColumnCount()
	if at < 0 || at >= cols {
		return fmt.Errorf("%w: remove at %d (columns: %d)", ErrColumnOutOfRange, at, cols)
	}
	if count < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	g.headers = cut(g.headers, at, count)
	for i, r := range g.rows {
		g.rows[i] = cut(r, at, count)
	}
	return nil
}

// MoveColumn moves column from to position to, carrying its header and cells.
func (g *Grid) MoveColumn(from, to int) error {
	cols := g.ColumnCount()
	if from < 0 || from >= cols {
		return fmt.Errorf("%w: move from %d (columns: %d)", ErrColumnOutOfRange, from, cols)
	}
	if to < 0 || to >= cols {
		return fmt.Errorf("%w: move to %d (columns: %d)", ErrColumnOutOfRange, to, cols)
	}
	if from == to {
		return nil
	}
	g.Normalize()
	g.headers = move(g.headers, from, to)
	for i, r := range g.rows {
		g.rows[i] = move(r, from, to)
	}
	return nil
}

// Normalize pads the header row and every data row with empty cells up to
// the widest of them and returns that width.
func (g *Grid) Normalize() int {
	width := len(g.headers)
	for _, r := range g.rows {
		width = max(width, len(r))
	}
	g.headers = padTo(g.headers, width)
	for i, r := range g.rows {
		g.rows[i] = padTo(r, width)
	}
	return width
}

// Ordered returns a normalized copy of headers and rows projected onto order.
// An empty order keeps the natural column order.
func (g *Grid) Ordered(order []int) ([]string, [][]string, error) {
	c := New(g.headers, g.rows)
	width := c.Normalize()
	if len(order) == 0 {
		return c.headers, c.rows, nil
	}
	for _, idx := range order {
		if idx < 0 || idx >= width {
			return nil, nil, fmt.Errorf("%w: index %d (columns: %d)", ErrInvalidOrder, idx, width)
		}
	}
	project := func(src []string) []string {
		out := make([]string, len(order))
		for i, idx := range order {
			out[i] = src[idx]
		}
		return out
	}
	rows := make([][]string, len(c.rows))
	for i, r := range c.rows {
		rows[i] = project(r)
	}
	return project(c.headers), rows, nil
}

func padTo(s []string, n int) []string {
	for len(s) < n {
		s = append(s, "")
	}
	return s
}

func insertBlank(s []string, at, count int) []string {
	out := make([]string, 0, len(s)+count)
	out = append(out, s[:at]...)
	out = append(out, make([]string, count)...)
	return append(out, s[at:]...)
}

func cut(s []string, at, count int) []string {
	if at >= len(s) {
		return s
	}
	end := min(at+count, len(s))
	return append(s[:at], s[end:]...)
}

func move(s []string, from, to int) []string {
	v := s[from]
	s = append(s[:from], s[from+1:]...)
	s = append(s[:to], append([]string{v}, s[to:]...)...)
	return s
}
