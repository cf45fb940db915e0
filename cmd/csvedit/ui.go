/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"github.com/spf13/cobra"

	"csvedit/internal/ui"
)

func (a *app) uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui [FILE]",
		Short: "Open the desktop editor",
		Args:  args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			path := ""
			if len(argv) == 1 {
				path = argv[0]
			}
			return ui.Run(path, ui.Options{
				SaveOptions:    a.saveOptions(),
				DefaultHeaders: a.cfg.Editor.DefaultHeaders,
				Theme:          a.cfg.General.Theme,
			})
		},
	}
}
