/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a snapshot of unsaved data.
package crash

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "csvedit/internal/log"
	"csvedit/internal/storage"
	"csvedit/internal/telemetry"
	"csvedit/internal/version"
)

// Injectable for tests.
var (
	exitFn           = os.Exit
	stderr io.Writer = os.Stderr
)

// Recover captures a panic, logs it with the stack, writes a report file,
// snapshots the open document (if any) and exits with code 2.
//
// Usage: defer crash.Recover(doc)
func Recover(doc *storage.Document) {
	if r := recover(); r != nil {
		handle(r, doc)
	}
}

// RecoverCurrent is Recover for callers whose document changes over time,
// such as the GUI. current is called only after a panic.
//
// Usage: defer crash.RecoverCurrent(func() *storage.Document { return session.Doc })
func RecoverCurrent(current func() *storage.Document) {
	if r := recover(); r != nil {
		var doc *storage.Document
		if current != nil {
			doc = current()
		}
		handle(r, doc)
	}
}

func handle(r any, doc *storage.Document) {
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	reportPath, err := writeReport(doc, r, stack)
	if err != nil {
		l.Error("write crash report failed", slog.Any("err", err))
	}
	if doc != nil && doc.Grid != nil {
		if path, err := storage.AutosaveCrashSnapshot(doc); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			_, _ = fmt.Fprintf(stderr, "Unsaved data was written to: %s\n", path)
		}
	}
	_, _ = fmt.Fprintf(stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	_, _ = fmt.Fprintf(stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

// reportDir is the crash dir next to the document, or the temp dir.
func reportDir(doc *storage.Document) string {
	if doc == nil || doc.Path == "" {
		return os.TempDir()
	}
	return filepath.Join(filepath.Dir(doc.Path), storage.WorkDirName, storage.CrashDirName)
}

func writeReport(doc *storage.Document, panicVal any, stack []byte) (string, error) {
	dir := reportDir(doc)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", now.Format("20060102-150405")))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "csvedit crash report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if doc != nil {
		fmt.Fprintf(&buf, "File: %s\n", doc.Path)
		fmt.Fprintf(&buf, "Modified: %t\n", doc.Modified)
		if doc.Grid != nil {
			fmt.Fprintf(&buf, "Size: %d rows, %d columns\n", doc.Grid.RowCount(), doc.Grid.ColumnCount())
		}
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// the uploaded copy carries no path
	telemetry.Default().UploadCrash(bytes.ReplaceAll(buf.Bytes(), []byte(docPath(doc)), []byte("<file>")))
	return path, nil
}

func docPath(doc *storage.Document) string {
	if doc == nil || doc.Path == "" {
		return "\x00"
	}
	return doc.Path
}
