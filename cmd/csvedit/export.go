/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"csvedit/internal/config"
	"csvedit/internal/export"
	"csvedit/internal/pgsync"
	"csvedit/internal/storage"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		format string
		opt    export.Options
	)
	names := make([]string, len(export.Formats))
	for i, f := range export.Formats {
		names[i] = string(f)
	}
	cmd := &cobra.Command{
		Use:   "export FILE OUT",
		Short: "Export the file to another format",
		Long: "Export the file to " + strings.Join(names, ", ") + ".\n" +
			"The format is taken from the extension of OUT unless --format is given.",
		Args: args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			var (
				f   export.Format
				err error
			)
			if format != "" {
				f, err = export.ParseFormat(format)
			} else {
				f, err = export.FormatFromPath(argv[1])
			}
			if err != nil {
				return usageError{err}
			}
			doc, err := storage.Open(argv[0])
			if err != nil {
				return err
			}
			a.doc = doc
			if opt.Table == "" {
				opt.Table = a.cfg.Database.Table
			}
			if opt.Title == "" {
				opt.Title = doc.Path
			}
			if err := export.Export(doc.Grid, argv[1], f, opt); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Exported %d rows to '%s' (%s)\n", doc.Grid.RowCount(), argv[1], f)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "output format ("+strings.Join(names, "|")+")")
	cmd.Flags().IntSliceVar(&opt.Order, "order", nil, "column order as 0-based indexes")
	cmd.Flags().StringVar(&opt.Table, "table", "", "table name for sqlite output")
	cmd.Flags().StringVar(&opt.Title, "title", "", "document title for pdf output")
	cmd.Flags().IntVar(&opt.MaxRows, "rows", 0, "rows drawn into png output")
	cmd.Flags().StringVar(&opt.FontFile, "font", "", "monospaced TTF/OTF font for png output")
	cmd.Flags().Float64Var(&opt.FontSize, "font-size", 0, "font size in points for --font")
	return cmd
}

func (a *app) pushCmd() *cobra.Command {
	var (
		dsn, table string
		opt        pgsync.PushOptions
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Copy the file into a PostgreSQL table",
		Long: "Copy the file into a PostgreSQL table, creating it when missing.\n" +
			"The connection string comes from --dsn, " + config.EnvPGDSN + " or the OS keychain (see \"config set-dsn\").",
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			doc, err := storage.Open(argv[0])
			if err != nil {
				return err
			}
			a.doc = doc
			if table == "" {
				table = a.cfg.Database.Table
			}
			if !cmd.Flags().Changed("replace") {
				opt.Replace = a.cfg.Database.Replace
			}
			opt.Timeout = timeout
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			n, err := pgsync.Push(ctx, config.DSN(dsn), table, doc.Grid, opt)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Copied %d rows into table '%s'\n", n, table)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "PostgreSQL connection string")
	cmd.Flags().StringVar(&table, "table", "", "target table")
	cmd.Flags().BoolVar(&opt.Replace, "replace", false, "truncate the table before copying")
	cmd.Flags().IntSliceVar(&opt.Order, "order", nil, "column order as 0-based indexes")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline")
	return cmd
}
