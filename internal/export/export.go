/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes a grid to formats other than CSV.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"csvedit/internal/grid"
	applog "csvedit/internal/log"
)

type Format string

const (
	FormatXLSX   Format = "xlsx"
	FormatPDF    Format = "pdf"
	FormatPNG    Format = "png"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatXLSX, FormatPDF, FormatPNG, FormatJSON, FormatSQLite}

var ErrUnknownFormat = errors.New("unknown export format")

// Options tune an export. Zero values pick sensible defaults.
type Options struct {
	Order   []int  // column order; empty keeps the natural order
	Table   string // table name for sqlite; default "sheet"
	Title   string // document title for pdf
	MaxRows int    // rows drawn into png; default 50

	FontFile string  // TTF/OTF font for png; empty uses a built-in 7x13 face
	FontSize float64 // font size in points for FontFile; default 13
}

// ParseFormat accepts a format name case-insensitively; "db" and "sqlite3" mean sqlite.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF, FormatPNG, FormatJSON, FormatSQLite:
		return f, nil
	case "db", "sqlite3":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath derives the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, filepath.Base(path))
	}
	return ParseFormat(ext)
}

// Export writes g to path in the given format.
func Export(g *grid.Grid, path string, f Format, opt Options) error {
	if g == nil {
		return errors.New("nil grid")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("output path is required")
	}
	headers, rows, err := g.Ordered(opt.Order)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}
	t := table{headers: headers, rows: rows}
	switch f {
	case FormatXLSX:
		err = writeXLSX(path, t)
	case FormatPDF:
		err = writePDF(path, t, opt.Title)
	case FormatPNG:
		err = writePNG(path, t, opt)
	case FormatJSON:
		err = writeJSON(path, t)
	case FormatSQLite:
		err = writeSQLite(path, t, opt.Table)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	applog.WithOperation(applog.WithComponent("export"), string(f)).Info("exported",
		slog.String("path", path), slog.Int("rows", len(rows)), slog.Int("cols", len(headers)))
	return nil
}

// table is a normalized, ordered snapshot of a grid.
type table struct {
	headers []string
	rows    [][]string
}

// label returns the header text or the "Column N" fallback.
func (t table) label(col int) string {
	if h := t.headers[col]; h != "" {
		return h
	}
	return fmt.Sprintf("Column %d", col+1)
}
