/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command csvedit views and edits CSV files from the terminal or a desktop window.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"csvedit/internal/config"
	"csvedit/internal/crash"
	applog "csvedit/internal/log"
	"csvedit/internal/storage"
	"csvedit/internal/telemetry"
	"csvedit/internal/version"
)

// app carries what every command needs: configuration, output streams and
// the document currently in memory (for crash snapshots).
type app struct {
	cfg    config.AppConfig
	stdout io.Writer
	stderr io.Writer
	doc    *storage.Document
}

// usageError marks bad arguments or flags; they exit with code 2.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	defer crash.RecoverCurrent(func() *storage.Document { return a.doc })
	os.Exit(a.run(os.Args[1:]))
}

// run executes one command line and returns the process exit code.
func (a *app) run(args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	start := time.Now()
	cmd, err := root.ExecuteC()
	name, path := "csvedit", "csvedit"
	if cmd != nil {
		name, path = cmd.Name(), cmd.CommandPath()
	}
	tc := telemetry.Default()
	tc.Command(name, err, time.Since(start))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	tc.Flush(ctx)
	cancel()

	if err == nil {
		return 0
	}
	applog.WithComponent("cli").Debug("command failed", slog.String("command", name), slog.Any("err", err))
	fmt.Fprintln(a.stderr, "Error:", err)
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(a.stderr, "Run '%s --help' for usage.\n", path)
		return 2
	}
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "csvedit",
		Short: "View and edit CSV files",
		Long: `csvedit views and edits CSV files.

Every editing command loads the file, applies one change and saves it.
Rows and columns are numbered from 0; the header row is not counted.
Use "csvedit ui" for the desktop editor.`,
		Version:       version.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(
		a.viewCmd(),
		a.editCmd(),
		a.clearCmd(),
		a.insertRowCmd(),
		a.deleteRowCmd(),
		a.insertColCmd(),
		a.deleteColCmd(),
		a.headerCmd(),
		a.moveColCmd(),
		a.newCmd(),
		a.exportCmd(),
		a.pushCmd(),
		a.uiCmd(),
		a.configCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads the configuration and wires logging and telemetry from it.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	lo := cfg.Logging.LogOptions()
	lo.Writer = a.stderr
	applog.Init(lo)

	tcfg := telemetry.FromEnv()
	tcfg.OptIn = cfg.General.TelemetryOptIn
	telemetry.SetDefault(telemetry.New(tcfg))
	return nil
}

func (a *app) saveOptions() storage.SaveOptions { return a.cfg.Editor.SaveOptions() }

// args validates the positional argument count as a usage error.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// index parses a 0-based row or column argument.
func index(what, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, usageError{fmt.Errorf("invalid %s index %q", what, s)}
	}
	return n, nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  args(cobra.NoArgs),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(a.stdout, version.String())
		},
	}
}
