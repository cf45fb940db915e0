/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"csvedit/internal/config"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect settings and stored credentials",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as YAML",
			Args:  args(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				out, err := yaml.Marshal(a.cfg)
				if err != nil {
					return err
				}
				_, err = a.stdout.Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  args(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				p, err := config.ConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, p)
				return nil
			},
		},
		a.setCmd(),
		a.setDSNCmd(),
	)
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Change one setting in the config file",
		Long:  "Change one setting in the config file. Keys:\n  " + strings.Join(config.Keys, "\n  "),
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			key, value := argv[0], argv[1]
			if err := config.Set(key, value); err != nil {
				if errors.Is(err, config.ErrUnknownKey) || errors.Is(err, config.ErrInvalidValue) {
					return usageError{err}
				}
				return err
			}
			fmt.Fprintf(a.stdout, "Set %s = '%s'\n", key, value)
			if env, ok := config.EnvOverrideFor(key); ok {
				fmt.Fprintf(a.stdout, "Note: %s is set and overrides this value\n", env)
			}
			return nil
		},
	}
}

func (a *app) setDSNCmd() *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "set-dsn [DSN]",
		Short: "Store the PostgreSQL connection string in the OS keychain",
		Args:  args(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, argv []string) error {
			if remove == (len(argv) == 1) {
				return usageError{errors.New("give a DSN or --clear")}
			}
			dsn := ""
			if !remove {
				dsn = argv[0]
			}
			if err := config.SetDSN(dsn); err != nil {
				return fmt.Errorf("keychain: %w", err)
			}
			if remove {
				fmt.Fprintln(a.stdout, "Removed stored DSN")
			} else {
				fmt.Fprintln(a.stdout, "Stored DSN in the OS keychain")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "clear", false, "remove the stored DSN")
	return cmd
}
