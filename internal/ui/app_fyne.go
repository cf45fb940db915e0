//go:build fyne && cgo

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
	"slices"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"csvedit/internal/crash"
	"csvedit/internal/export"
	applog "csvedit/internal/log"
	"csvedit/internal/storage"
)

const (
	prefWidth  = "window.width"
	prefHeight = "window.height"
	prefRecent = "recent.files"
	maxRecent  = 8

	minColumnWidth = 80
	maxColumnWidth = 320
)

// Run starts the Fyne desktop editor. path, when set, is opened immediately.
func Run(path string, opts Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	s := NewSession(opts.SaveOptions, opts.DefaultHeaders)
	defer crash.RecoverCurrent(func() *storage.Document { return s.Doc })

	fyneApp := app.NewWithID("io.csvedit")
	switch strings.ToLower(opts.Theme) {
	case "light":
		fyneApp.Settings().SetTheme(theme.LightTheme())
	case "dark":
		fyneApp.Settings().SetTheme(theme.DarkTheme())
	}
	prefs := fyneApp.Preferences()

	w := fyneApp.NewWindow(AppTitle)
	w.Resize(fyne.NewSize(
		float32(max(prefs.IntWithFallback(prefWidth, 1200), 800)),
		float32(max(prefs.IntWithFallback(prefHeight, 800), 600)),
	))

	status := widget.NewLabel(s.Status())
	message := widget.NewLabel(s.Message())
	cellEntry := widget.NewEntry()
	cellEntry.SetPlaceHolder("Select a cell to edit")
	cellEntry.Disable()
	cellLabel := widget.NewLabel("")

	var table *widget.Table
	refresh := func() {
		table.Refresh()
		for c := 0; c < s.Grid().ColumnCount(); c++ {
			table.SetColumnWidth(c, columnWidth(s, c))
		}
		status.SetText(s.Status())
		message.SetText(s.Message())
		w.SetTitle(s.Title())
	}
	syncEntry := func() {
		row, col := s.Selection()
		if row < 0 || col < 0 {
			cellLabel.SetText("")
			cellEntry.SetText("")
			cellEntry.Disable()
			return
		}
		cellLabel.SetText(fmt.Sprintf("%s, row %d:", s.Grid().Header(col), row))
		cellEntry.Enable()
		cellEntry.SetText(s.Grid().Cell(row, col))
	}
	fail := func(err error) {
		l.Error("action failed", slog.Any("err", err))
		dialog.ShowError(err, w)
	}
	act := func(fn func() error) func() {
		return func() {
			if err := fn(); err != nil {
				if errors.Is(err, ErrNoSelection) {
					dialog.ShowInformation("Select a cell", "Select a cell first.", w)
					return
				}
				fail(err)
				return
			}
			refresh()
			syncEntry()
		}
	}

	var renameHeader func(col int)
	var editCellDialog func(id widget.TableCellID)
	table = widget.NewTableWithHeaders(
		func() (int, int) { return s.Grid().RowCount(), s.Grid().ColumnCount() },
		func() fyne.CanvasObject {
			return newTableCell(
				func(id widget.TableCellID) { table.Select(id) },
				func(id widget.TableCellID) { editCellDialog(id) },
			)
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			c := o.(*tableCell)
			c.id = id
			c.SetText(oneLine(s.Grid().Cell(id.Row, id.Col)))
		},
	)
	table.CreateHeader = func() fyne.CanvasObject {
		b := widget.NewButton("", nil)
		b.Importance = widget.LowImportance
		return b
	}
	table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		b := o.(*widget.Button)
		switch {
		case id.Row < 0:
			col := id.Col
			b.SetText(s.Grid().Header(col))
			b.OnTapped = func() { renameHeader(col) }
		case id.Col < 0:
			b.SetText(fmt.Sprintf("%d", id.Row))
			b.OnTapped = nil
		}
	}
	table.OnSelected = func(id widget.TableCellID) {
		s.Select(id.Row, id.Col)
		syncEntry()
	}
	table.OnUnselected = func(widget.TableCellID) {
		s.Select(-1, -1)
		syncEntry()
	}

	cellEntry.OnSubmitted = func(text string) {
		row, col := s.Selection()
		if err := s.SetCell(row, col, text); err != nil {
			fail(err)
			return
		}
		refresh()
		// move down like a spreadsheet
		if row+1 < s.Grid().RowCount() {
			table.Select(widget.TableCellID{Row: row + 1, Col: col})
		}
	}

	renameHeader = func(col int) {
		entry := widget.NewEntry()
		if hs := s.Grid().Headers(); col < len(hs) {
			entry.SetText(hs[col])
		}
		dialog.ShowForm("Edit Header", "Rename", "Cancel", []*widget.FormItem{
			widget.NewFormItem(fmt.Sprintf("Column %d", col), entry),
		}, func(ok bool) {
			if ok {
				act(func() error { return s.RenameHeader(col, entry.Text) })()
			}
		}, w)
	}

	editCellDialog = func(id widget.TableCellID) {
		table.Select(id)
		entry := widget.NewMultiLineEntry()
		entry.SetText(s.Grid().Cell(id.Row, id.Col))
		entry.SetMinRowsVisible(3)
		dialog.ShowForm("Edit Cell", "Set", "Cancel", []*widget.FormItem{
			widget.NewFormItem(fmt.Sprintf("%s, row %d", s.Grid().Header(id.Col), id.Row), entry),
		}, func(ok bool) {
			if ok {
				act(func() error { return s.SetCell(id.Row, id.Col, entry.Text) })()
			}
		}, w)
	}

	// Unsaved changes: ask, then continue with next when the user allows it.
	var saveAs func(next func())
	guard := func(next func()) {
		if !s.Modified() {
			next()
			return
		}
		var d dialog.Dialog
		answer := func(c Choice) func() {
			return func() {
				d.Hide()
				ok, err := s.ResolveUnsaved(c)
				switch {
				case errors.Is(err, ErrNoPath):
					saveAs(next)
				case err != nil:
					fail(err)
				case ok:
					next()
				}
			}
		}
		content := container.NewVBox(
			widget.NewLabel("You have unsaved changes. Do you want to save them first?"),
			container.NewHBox(
				widget.NewButton("Save", answer(ChoiceSave)),
				widget.NewButton("Don't Save", answer(ChoiceDiscard)),
			),
		)
		d = dialog.NewCustom("Unsaved Changes", "Cancel", content, w)
		d.Show()
	}

	var openPath func(path string)
	recentItem := fyne.NewMenuItem("Open Recent", nil)
	buildRecent := func() {
		var items []*fyne.MenuItem
		for _, p := range prefs.StringList(prefRecent) {
			items = append(items, fyne.NewMenuItem(p, func() { guard(func() { openPath(p) }) }))
		}
		if len(items) == 0 {
			none := fyne.NewMenuItem("(none)", nil)
			none.Disabled = true
			items = append(items, none)
		}
		recentItem.ChildMenu = fyne.NewMenu("", items...)
		if m := w.MainMenu(); m != nil {
			m.Refresh()
		}
	}
	addRecent := func(path string) {
		recent := slices.DeleteFunc(prefs.StringList(prefRecent), func(p string) bool { return p == path })
		recent = append([]string{path}, recent...)
		prefs.SetStringList(prefRecent, recent[:min(len(recent), maxRecent)])
		buildRecent()
	}
	openPath = func(path string) {
		if err := s.Open(path); err != nil {
			fail(fmt.Errorf("could not open file: %w", err))
			return
		}
		addRecent(path)
		table.UnselectAll()
		refresh()
		syncEntry()
	}

	saveAs = func(next func()) {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				fail(err)
				return
			}
			if wc == nil {
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			if err := s.SaveAs(path); err != nil {
				fail(fmt.Errorf("could not save file: %w", err))
				return
			}
			addRecent(path)
			refresh()
			if next != nil {
				next()
			}
		}, w)
		fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".csv"}))
		name := "untitled.csv"
		if s.Doc.Path != "" {
			name = filepath.Base(s.Doc.Path)
		}
		fd.SetFileName(name)
		fd.Show()
	}
	save := func() {
		err := s.Save()
		if errors.Is(err, ErrNoPath) {
			saveAs(nil)
			return
		}
		if err != nil {
			fail(fmt.Errorf("could not save file: %w", err))
			return
		}
		refresh()
	}

	newItem := fyne.NewMenuItem("New", func() {
		guard(func() {
			s.New()
			table.UnselectAll()
			refresh()
			syncEntry()
		})
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		guard(func() {
			fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
				if err != nil {
					fail(err)
					return
				}
				if rc == nil {
					return
				}
				path := rc.URI().Path()
				_ = rc.Close()
				openPath(path)
			}, w)
			fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".csv", ".txt"}))
			fd.Show()
		})
	})
	saveItem := fyne.NewMenuItem("Save", save)
	saveAsItem := fyne.NewMenuItem("Save As…", func() { saveAs(nil) })
	exportItem := fyne.NewMenuItem("Export…", func() {
		fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil || wc == nil {
				if err != nil {
					fail(err)
				}
				return
			}
			path := wc.URI().Path()
			_ = wc.Close()
			f, err := export.FormatFromPath(path)
			if err != nil {
				fail(err)
				return
			}
			if err := export.Export(s.Grid(), path, f, export.Options{Title: strings.TrimSuffix(filepath.Base(s.Doc.Path), filepath.Ext(s.Doc.Path))}); err != nil {
				fail(err)
				return
			}
			message.SetText("Exported: " + path)
		}, w)
		exts := make([]string, len(export.Formats))
		for i, f := range export.Formats {
			exts[i] = "." + string(f)
		}
		fd.SetFilter(fstorage.NewExtensionFileFilter(exts))
		fd.SetFileName("export.xlsx")
		fd.Show()
	})

	insertAbove := act(s.InsertRowAbove)
	insertBelow := act(s.InsertRowBelow)
	insertLeft := act(s.InsertColumnLeft)
	insertRight := act(s.InsertColumnRight)
	clearCell := act(s.ClearCell)
	deleteRow := func() {
		row, _ := s.Selection()
		if row < 0 {
			dialog.ShowInformation("Delete Row", "Select a row first.", w)
			return
		}
		dialog.ShowConfirm("Delete Row", fmt.Sprintf("Delete row %d?", row), func(ok bool) {
			if ok {
				act(s.DeleteRow)()
				table.UnselectAll()
			}
		}, w)
	}
	deleteColumn := func() {
		_, col := s.Selection()
		if col < 0 {
			dialog.ShowInformation("Delete Column", "Select a column first.", w)
			return
		}
		dialog.ShowConfirm("Delete Column", fmt.Sprintf("Delete column '%s'?", s.Grid().Header(col)), func(ok bool) {
			if ok {
				act(s.DeleteColumn)()
				table.UnselectAll()
			}
		}, w)
	}
	moveColumn := func(delta int) func() {
		return func() {
			row, col := s.Selection()
			if col < 0 {
				return
			}
			to := col + delta
			if to < 0 || to >= s.Grid().ColumnCount() {
				return
			}
			act(func() error { return s.MoveColumn(col, to) })()
			if row >= 0 {
				table.Select(widget.TableCellID{Row: row, Col: to})
			}
		}
	}
	renameSelected := func() {
		if _, col := s.Selection(); col >= 0 {
			renameHeader(col)
		}
	}

	quit := func() {
		guard(func() {
			prefs.SetInt(prefWidth, int(w.Canvas().Size().Width))
			prefs.SetInt(prefHeight, int(w.Canvas().Size().Height))
			l.Info("quit")
			fyneApp.Quit()
		})
	}

	ctrl := func(k fyne.KeyName) fyne.Shortcut {
		return &desktop.CustomShortcut{KeyName: k, Modifier: fyne.KeyModifierShortcutDefault}
	}
	newItem.Shortcut = ctrl(fyne.KeyN)
	openItem.Shortcut = ctrl(fyne.KeyO)
	saveItem.Shortcut = ctrl(fyne.KeyS)
	quitItem := fyne.NewMenuItem("Quit", quit)
	quitItem.IsQuit = true

	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", newItem, openItem, recentItem, fyne.NewMenuItemSeparator(),
			saveItem, saveAsItem, exportItem, fyne.NewMenuItemSeparator(), quitItem),
		fyne.NewMenu("Edit",
			fyne.NewMenuItem("Insert Row Above", insertAbove),
			fyne.NewMenuItem("Insert Row Below", insertBelow),
			fyne.NewMenuItem("Delete Row", deleteRow),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Insert Column Left", insertLeft),
			fyne.NewMenuItem("Insert Column Right", insertRight),
			fyne.NewMenuItem("Delete Column", deleteColumn),
			fyne.NewMenuItem("Move Column Left", moveColumn(-1)),
			fyne.NewMenuItem("Move Column Right", moveColumn(1)),
			fyne.NewMenuItem("Edit Header…", renameSelected),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Clear Cell", clearCell),
		),
	))
	for _, it := range []*fyne.MenuItem{newItem, openItem, saveItem} {
		w.Canvas().AddShortcut(it.Shortcut, func(fyne.Shortcut) { it.Action() })
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), newItem.Action),
		widget.NewToolbarAction(theme.FolderOpenIcon(), openItem.Action),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), save),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.MoveUpIcon(), insertAbove),
		widget.NewToolbarAction(theme.MoveDownIcon(), insertBelow),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), deleteRow),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.NavigateBackIcon(), insertLeft),
		widget.NewToolbarAction(theme.NavigateNextIcon(), insertRight),
		widget.NewToolbarAction(theme.DeleteIcon(), deleteColumn),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), clearCell),
	)

	editBar := container.NewBorder(nil, nil, cellLabel, nil, cellEntry)
	top := container.NewVBox(toolbar, editBar)
	bottom := container.NewBorder(nil, nil, status, message)
	w.SetContent(container.NewBorder(top, bottom, nil, nil, table))
	w.SetCloseIntercept(quit)

	buildRecent()
	if path != "" {
		openPath(path)
	} else {
		refresh()
	}
	w.ShowAndRun()
	return nil
}

// tableCell is a table label that selects on tap and opens the cell editor
// on double tap.
type tableCell struct {
	widget.Label
	id          widget.TableCellID
	onTap       func(widget.TableCellID)
	onDoubleTap func(widget.TableCellID)
}

func newTableCell(tap, doubleTap func(widget.TableCellID)) *tableCell {
	c := &tableCell{onTap: tap, onDoubleTap: doubleTap}
	c.Truncation = fyne.TextTruncateEllipsis
	c.ExtendBaseWidget(c)
	return c
}

func (c *tableCell) Tapped(*fyne.PointEvent) {
	if c.onTap != nil {
		c.onTap(c.id)
	}
}

func (c *tableCell) DoubleTapped(*fyne.PointEvent) {
	if c.onDoubleTap != nil {
		c.onDoubleTap(c.id)
	}
}

// columnWidth fits a column to its header and first rows, within bounds.
func columnWidth(s *Session, col int) float32 {
	size := theme.TextSize()
	measure := func(text string) float32 {
		return fyne.MeasureText(oneLine(text), size, fyne.TextStyle{}).Width
	}
	w := measure(s.Grid().Header(col))
	for r := 0; r < min(s.Grid().RowCount(), 100); r++ {
		w = max(w, measure(s.Grid().Cell(r, col)))
	}
	return min(max(w+2*theme.Padding()+8, minColumnWidth), maxColumnWidth)
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
