/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"csvedit/internal/grid"
)

// utf8BOM is the byte order mark some Windows tools prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var ErrInvalidUTF8 = errors.New("file is not valid UTF-8")

// Decode parses CSV bytes into a normalized grid. The first record becomes
// the header row. A leading BOM is dropped and empty input yields an empty grid.
func Decode(data []byte) (*grid.Grid, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return &grid.Grid{}, nil
	}
	g := grid.New(records[0], records[1:])
	g.Normalize()
	return g, nil
}

// Encode writes the header row and data rows as CSV. Rows are padded to a
// common width and projected onto opts.Order when it is set.
func Encode(w io.Writer, g *grid.Grid, opts SaveOptions) error {
	headers, rows, err := g.Ordered(opts.Order)
	if err != nil {
		return err
	}
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return err
		}
	}
	if len(headers) == 0 {
		// zero-width rows have no CSV representation
		return nil
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = opts.CRLF
	eol := "\n"
	if opts.CRLF {
		eol = "\r\n"
	}
	// encoding/csv writes a lone empty field as a blank line, which readers skip.
	write := func(rec []string) error {
		if len(rec) != 1 || rec[0] != "" {
			return cw.Write(rec)
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(w, `""`+eol)
		return err
	}
	if err := write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range rows {
		if err := write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
