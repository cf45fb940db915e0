/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"csvedit/internal/grid"
	applog "csvedit/internal/log"
	"csvedit/internal/storage"
)

// AppTitle is the window title without a document.
const AppTitle = "CSV Editor"

// ErrNoPath reports a save of a document that was never saved; callers ask for a path and use SaveAs.
var ErrNoPath = errors.New("document has no file name")

// ErrNoSelection reports an action that needs a selected cell, row or column.
var ErrNoSelection = errors.New("nothing selected")

// Options configure the desktop window.
type Options struct {
	SaveOptions    storage.SaveOptions
	DefaultHeaders []string
	Theme          string // "system", "light" or "dark"
}

// Choice is the answer to the unsaved-changes prompt.
type Choice int

const (
	ChoiceSave Choice = iota
	ChoiceDiscard
	ChoiceCancel
)

// Session is the editor state behind the window: one document, the current
// selection and the status line. It has no toolkit dependency so the window
// code stays a thin layer of widgets and dialogs.
type Session struct {
	Doc            *storage.Document
	SaveOptions    storage.SaveOptions
	DefaultHeaders []string

	row, col int // selection; -1 when unset
	message  string
}

// NewSession starts with an empty, untitled document.
func NewSession(opts storage.SaveOptions, defaultHeaders []string) *Session {
	return &Session{
		Doc:            &storage.Document{Grid: &grid.Grid{}},
		SaveOptions:    opts,
		DefaultHeaders: append([]string(nil), defaultHeaders...),
		row:            -1,
		col:            -1,
		message:        "Ready",
	}
}

func (s *Session) Grid() *grid.Grid { return s.Doc.Grid }
func (s *Session) Modified() bool   { return s.Doc.Modified }

// Selection returns the selected row and column; -1 means none.
func (s *Session) Selection() (row, col int) { return s.row, s.col }

// Select sets the selection. Out-of-range values clear that axis.
func (s *Session) Select(row, col int) {
	s.row, s.col = -1, -1
	if row >= 0 && row < s.Grid().RowCount() {
		s.row = row
	}
	if col >= 0 && col < s.Grid().ColumnCount() {
		s.col = col
	}
}

// Title is the window title: file name, modified marker, application name.
func (s *Session) Title() string {
	name := "Untitled"
	if s.Doc.Path != "" {
		name = filepath.Base(s.Doc.Path)
	}
	if s.Doc.Modified {
		name = "*" + name
	}
	return name + " - " + AppTitle
}

// Status is the status bar text, e.g. "Rows: 3, Columns: 8 - a.csv [Modified]".
func (s *Session) Status() string {
	line := fmt.Sprintf("Rows: %d, Columns: %d", s.Grid().RowCount(), s.Grid().ColumnCount())
	if s.Doc.Path != "" {
		line += " - " + s.Doc.Path
	}
	if s.Doc.Modified {
		line += " [Modified]"
	}
	return line
}

// Message is the last action's feedback, shown next to the status.
func (s *Session) Message() string { return s.message }

// New replaces the document with an untitled sheet carrying the default headers.
func (s *Session) New() {
	s.Doc = &storage.Document{Grid: grid.NewWithHeaders(s.DefaultHeaders)}
	s.row, s.col = -1, -1
	s.message = "New sheet"
}

// Open loads path. The current document is kept when loading fails.
func (s *Session) Open(path string) error {
	doc, err := storage.Open(path)
	if err != nil {
		return err
	}
	s.Doc = doc
	s.row, s.col = -1, -1
	s.message = "Opened: " + path
	if doc.Modified {
		s.message = "Recovered from backup: " + path
	}
	return nil
}

// Save writes to the current path.
func (s *Session) Save() error {
	if s.Doc.Path == "" {
		return ErrNoPath
	}
	if err := storage.Save(s.Doc, s.SaveOptions); err != nil {
		return err
	}
	s.message = "Saved: " + s.Doc.Path
	return nil
}

// SaveAs writes to path and makes it the current path.
func (s *Session) SaveAs(path string) error {
	old := s.Doc.Path
	if err := storage.SaveAs(s.Doc, path, s.SaveOptions); err != nil {
		s.Doc.Path = old
		return err
	}
	s.message = "Saved: " + path
	return nil
}

// ResolveUnsaved applies the user's answer to the unsaved-changes prompt and
// reports whether the pending action (new, open, quit) may proceed.
// ChoiceSave on an untitled document returns ErrNoPath.
func (s *Session) ResolveUnsaved(c Choice) (bool, error) {
	if !s.Doc.Modified {
		return true, nil
	}
	switch c {
	case ChoiceDiscard:
		return true, nil
	case ChoiceSave:
		if err := s.Save(); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, nil
	}
}

// InsertRowAbove inserts a row at the selected row, or at the top when none is selected.
func (s *Session) InsertRowAbove() error {
	at := max(s.row, 0)
	return s.insertRow(at)
}

// InsertRowBelow inserts a row after the selected row, or at the end.
func (s *Session) InsertRowBelow() error {
	at := s.Grid().RowCount()
	if s.row >= 0 {
		at = s.row + 1
	}
	return s.insertRow(at)
}

func (s *Session) insertRow(at int) error {
	if err := s.Grid().InsertRows(at, 1); err != nil {
		return err
	}
	s.row = at
	s.changed(fmt.Sprintf("Inserted row %d", at))
	return nil
}

// DeleteRow removes the selected row.
func (s *Session) DeleteRow() error {
	if s.row < 0 {
		return ErrNoSelection
	}
	if err := s.Grid().RemoveRows(s.row, 1); err != nil {
		return err
	}
	deleted := s.row
	s.row = min(s.row, s.Grid().RowCount()-1)
	s.changed(fmt.Sprintf("Deleted row %d", deleted))
	return nil
}

// InsertColumnLeft inserts a column at the selected column, or first when none is selected.
func (s *Session) InsertColumnLeft() error {
	return s.insertColumn(max(s.col, 0))
}

// InsertColumnRight inserts a column after the selected column, or last.
func (s *Session) InsertColumnRight() error {
	at := s.Grid().ColumnCount()
	if s.col >= 0 {
		at = s.col + 1
	}
	return s.insertColumn(at)
}

func (s *Session) insertColumn(at int) error {
	if err := s.Grid().InsertColumns(at, 1); err != nil {
		return err
	}
	s.col = at
	s.changed(fmt.Sprintf("Inserted column %d", at))
	return nil
}

// DeleteColumn removes the selected column.
func (s *Session) DeleteColumn() error {
	if s.col < 0 {
		return ErrNoSelection
	}
	label := s.Grid().Header(s.col)
	if err := s.Grid().RemoveColumns(s.col, 1); err != nil {
		return err
	}
	s.col = min(s.col, s.Grid().ColumnCount()-1)
	s.changed(fmt.Sprintf("Deleted column '%s'", label))
	return nil
}

// MoveColumn moves a column and keeps it selected.
func (s *Session) MoveColumn(from, to int) error {
	if err := s.Grid().MoveColumn(from, to); err != nil {
		return err
	}
	if from != to {
		s.col = to
		s.changed(fmt.Sprintf("Moved column %d to %d", from, to))
	}
	return nil
}

// ClearCell empties the selected cell.
func (s *Session) ClearCell() error {
	if s.row < 0 || s.col < 0 {
		return ErrNoSelection
	}
	return s.SetCell(s.row, s.col, "")
}

// SetCell writes a cell. Writing the current value is not a modification.
func (s *Session) SetCell(row, col int, value string) error {
	if row >= 0 && row < s.Grid().RowCount() && col >= 0 && s.Grid().Cell(row, col) == value {
		return nil
	}
	if err := s.Grid().SetCell(row, col, value); err != nil {
		return err
	}
	s.changed(fmt.Sprintf("Edited cell (%d, %d)", row, col))
	return nil
}

// RenameHeader sets the header text of col.
func (s *Session) RenameHeader(col int, name string) error {
	if hs := s.Grid().Headers(); col >= 0 && col < len(hs) && hs[col] == name {
		return nil
	}
	if err := s.Grid().SetHeader(col, name); err != nil {
		return err
	}
	s.changed(fmt.Sprintf("Renamed column %d", col))
	return nil
}

func (s *Session) changed(msg string) {
	s.Doc.Modified = true
	s.message = msg
	applog.WithComponent("ui").Debug(msg, slog.String("path", s.Doc.Path))
}
