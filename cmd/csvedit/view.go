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
	"strings"

	"github.com/spf13/cobra"

	"csvedit/internal/grid"
	"csvedit/internal/storage"
)

func (a *app) viewCmd() *cobra.Command {
	var rows, width int
	cmd := &cobra.Command{
		Use:   "view FILE",
		Short: "Print the file as a table",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			doc, err := storage.Open(argv[0])
			if err != nil {
				return err
			}
			a.doc = doc
			if !cmd.Flags().Changed("rows") {
				rows = a.cfg.Editor.ViewRows
			}
			if !cmd.Flags().Changed("width") {
				width = a.cfg.Editor.ViewWidth
			}
			fmt.Fprintf(a.stdout, "File: %s\n", doc.Path)
			fmt.Fprintln(a.stdout, doc.Grid.Render(grid.ViewOptions{MaxRows: rows, MaxWidth: width}))
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", grid.DefaultViewRows, "data rows to show")
	cmd.Flags().IntVar(&width, "width", grid.DefaultViewWidth, "maximum column width")
	return cmd
}

func (a *app) newCmd() *cobra.Command {
	var (
		force   bool
		headers []string
	)
	cmd := &cobra.Command{
		Use:   "new FILE",
		Short: "Create a CSV file with a header row",
		Long:  "Create a CSV file holding only a header row. Without --headers the configured default headers are used.",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			hs, what := headers, "headers"
			if len(hs) == 0 {
				hs, what = a.cfg.Editor.DefaultHeaders, "default headers"
			}
			doc, err := storage.Create(argv[0], hs, force, a.saveOptions())
			if err != nil {
				return err
			}
			a.doc = doc
			fmt.Fprintf(a.stdout, "Created new file '%s' with %s\n", doc.Path, what)
			fmt.Fprintf(a.stdout, "Headers: %s\n", strings.Join(doc.Grid.Headers(), ", "))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().StringSliceVar(&headers, "headers", nil, "comma separated header names")
	return cmd
}
