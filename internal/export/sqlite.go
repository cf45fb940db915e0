/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// DefaultTable names the table written by SQLite export.
const DefaultTable = "sheet"

// RowColumn holds the 1-based data row ordinal in exported tables.
const RowColumn = "_row"

// writeSQLite writes the table into a fresh database file. Every column is
// TEXT; the original header text is kept in the _columns table.
func writeSQLite(path string, t table, name string) (err error) {
	name = Identifier(name)
	if name == "" {
		name = DefaultTable
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); err == nil {
			err = cerr
		}
	}()

	ids := ColumnIdentifiers(t.headers)
	defs := []string{quoteIdent(RowColumn) + " INTEGER PRIMARY KEY"}
	cols := []string{quoteIdent(RowColumn)}
	for _, id := range ids {
		defs = append(defs, quoteIdent(id)+" TEXT")
		cols = append(cols, quoteIdent(id))
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec(fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if _, err = tx.Exec(`CREATE TABLE "_columns" ("position" INTEGER PRIMARY KEY, "name" TEXT NOT NULL, "header" TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create column table: %w", err)
	}
	for i, id := range ids {
		if _, err = tx.Exec(`INSERT INTO "_columns" VALUES (?, ?, ?)`, i, id, t.headers[i]); err != nil {
			return err
		}
	}

	ph := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(name), strings.Join(cols, ", "), ph))
	if err != nil {
		return err
	}
	defer stmt.Close()
	args := make([]any, len(cols))
	for r, row := range t.rows {
		args[0] = r + 1
		for i, v := range row {
			args[i+1] = v
		}
		if _, err = stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert row %d: %w", r, err)
		}
	}
	return tx.Commit()
}
