/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pgsync pushes a grid into a PostgreSQL table.
package pgsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"csvedit/internal/export"
	"csvedit/internal/grid"
	applog "csvedit/internal/log"
)

var ErrNoDSN = errors.New("no PostgreSQL DSN configured")

type PushOptions struct {
	Replace bool          // truncate the table before loading
	Order   []int         // column order; empty keeps the natural order
	Timeout time.Duration // overall deadline; 0 means 60s
}

// Push copies the grid into table, creating it with one TEXT column per
// header plus an integer _row ordinal when it does not exist. It returns
// the number of rows copied. The load runs in one transaction.
func Push(ctx context.Context, dsn, table string, g *grid.Grid, opt PushOptions) (int64, error) {
	if strings.TrimSpace(dsn) == "" {
		return 0, ErrNoDSN
	}
	if g == nil {
		return 0, errors.New("nil grid")
	}
	name := export.Identifier(table)
	if name == "" {
		name = export.DefaultTable
	}
	headers, rows, err := g.Ordered(opt.Order)
	if err != nil {
		return 0, err
	}
	timeout := opt.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := applog.WithOperation(applog.WithComponent("pgsync"), "push").With(slog.String("table", name))

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	cols := append([]string{export.RowColumn}, export.ColumnIdentifiers(headers)...)
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ident := pgx.Identifier{name}
	if _, err := tx.Exec(ctx, createTableSQL(ident, cols)); err != nil {
		return 0, fmt.Errorf("create table: %w", err)
	}
	if opt.Replace {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+ident.Sanitize()); err != nil {
			return 0, fmt.Errorf("truncate: %w", err)
		}
	}
	n, err := tx.CopyFrom(ctx, ident, cols, pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
		vals := make([]any, 0, len(cols))
		vals = append(vals, int64(i+1))
		for _, v := range rows[i] {
			vals = append(vals, v)
		}
		return vals, nil
	}))
	if err != nil {
		return 0, fmt.Errorf("copy rows: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	l.Info("pushed", slog.Int64("rows", n), slog.Bool("replace", opt.Replace))
	return n, nil
}

func createTableSQL(table pgx.Identifier, cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := "TEXT"
		if i == 0 {
			typ = "INTEGER"
		}
		defs[i] = pgx.Identifier{c}.Sanitize() + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table.Sanitize(), strings.Join(defs, ", "))
}
