/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"csvedit/internal/grid"
	applog "csvedit/internal/log"
	"csvedit/internal/storage"
)

// edit runs one mutation against file and saves it. fn returns the
// confirmation line printed before the "updated" line.
func (a *app) edit(file string, fn func(g *grid.Grid) (string, error)) error {
	var msg string
	doc, err := storage.Edit(file, a.saveOptions(), func(g *grid.Grid) error {
		var err error
		msg, err = fn(g)
		return err
	})
	a.doc = doc
	if err != nil {
		return err
	}
	applog.WithOperation(applog.WithComponent("cli"), "edit").Info(msg, slog.String("path", file))
	fmt.Fprintln(a.stdout, msg)
	fmt.Fprintf(a.stdout, "File '%s' updated successfully\n", file)
	return nil
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit FILE ROW COL VALUE",
		Short: "Set a cell value and save the file",
		Args:  args(cobra.ExactArgs(4)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			row, err := index("row", argv[1])
			if err != nil {
				return err
			}
			col, err := index("column", argv[2])
			if err != nil {
				return err
			}
			value := argv[3]
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				return fmt.Sprintf("Set cell (%d, %d) = '%s'", row, col, value), g.SetCell(row, col, value)
			})
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear FILE ROW COL",
		Short: "Clear a cell and save the file",
		Args:  args(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			row, err := index("row", argv[1])
			if err != nil {
				return err
			}
			col, err := index("column", argv[2])
			if err != nil {
				return err
			}
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				return fmt.Sprintf("Cleared cell (%d, %d)", row, col), g.ClearCell(row, col)
			})
		},
	}
}

func (a *app) insertRowCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "insert-row FILE ROW",
		Short: "Insert empty rows and save the file",
		Long:  "Insert empty rows before ROW. ROW may equal the row count to append.",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			row, err := index("row", argv[1])
			if err != nil {
				return err
			}
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				return plural(fmt.Sprintf("Inserted row at position %d", row), count), g.InsertRows(row, count)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of rows to insert")
	return cmd
}

func (a *app) deleteRowCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "delete-row FILE ROW",
		Short: "Delete rows and save the file",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			row, err := index("row", argv[1])
			if err != nil {
				return err
			}
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				return plural(fmt.Sprintf("Deleted row at position %d", row), count), g.RemoveRows(row, count)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of rows to delete")
	return cmd
}

func (a *app) insertColCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "insert-col FILE COL [HEADER]",
		Short: "Insert an empty column and save the file",
		Long:  "Insert empty columns before COL. COL may equal the column count to append. HEADER names the first new column.",
		Args:  args(cobra.RangeArgs(2, 3)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			col, err := index("column", argv[1])
			if err != nil {
				return err
			}
			header := ""
			if len(argv) == 3 {
				header = argv[2]
			}
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				msg := plural(fmt.Sprintf("Inserted column at position %d", col), count)
				if err := g.InsertColumns(col, count); err != nil {
					return msg, err
				}
				if header == "" {
					return msg, nil
				}
				return fmt.Sprintf("%s with header '%s'", msg, header), g.SetHeader(col, header)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of columns to insert")
	return cmd
}

func (a *app) deleteColCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "delete-col FILE COL",
		Short: "Delete columns and save the file",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			col, err := index("column", argv[1])
			if err != nil {
				return err
			}
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				return plural(fmt.Sprintf("Deleted column at position %d", col), count), g.RemoveColumns(col, count)
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of columns to delete")
	return cmd
}

func (a *app) headerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "header FILE COL TEXT",
		Short: "Rename a column header and save the file",
		Args:  args(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			col, err := index("column", argv[1])
			if err != nil {
				return err
			}
			text := argv[2]
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				return fmt.Sprintf("Set header for column %d = '%s'", col, text), g.SetHeader(col, text)
			})
		},
	}
}

func (a *app) moveColCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move-col FILE FROM TO",
		Short: "Move a column with its cells and save the file",
		Args:  args(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			from, err := index("column", argv[1])
			if err != nil {
				return err
			}
			to, err := index("column", argv[2])
			if err != nil {
				return err
			}
			return a.edit(argv[0], func(g *grid.Grid) (string, error) {
				return fmt.Sprintf("Moved column %d to position %d", from, to), g.MoveColumn(from, to)
			})
		},
	}
}

// plural appends "(N times)" to msg when more than one row or column changed.
func plural(msg string, n int) string {
	if n == 1 {
		return msg
	}
	return fmt.Sprintf("%s (%d times)", msg, n)
}
