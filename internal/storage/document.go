/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"csvedit/internal/grid"
	applog "csvedit/internal/log"
)

const (
	// WorkDirName holds backups and crash snapshots next to the edited file.
	WorkDirName    = ".csvedit"
	BackupsDirName = "backups"
	CrashDirName   = "crash"

	stampLayout = "20060102-150405.000" // fixed width, sorts chronologically
)

var ErrExists = errors.New("file already exists")

// Document is a CSV file loaded into memory.
// Modified is set by callers after a mutation and cleared by Save.
type Document struct {
	Path     string
	Grid     *grid.Grid
	Modified bool
}

// SaveOptions controls how a document is written.
type SaveOptions struct {
	Order       []int // column order to write; empty keeps the natural order
	CRLF        bool  // terminate records with \r\n
	BOM         bool  // prefix the file with a UTF-8 BOM
	Backup      bool  // copy the previous file into the backups dir before replacing it
	KeepBackups int   // newest backups kept per file; 0 keeps all
}

// DefaultSaveOptions mirrors the editor defaults in config.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{CRLF: true, Backup: true, KeepBackups: 10}
}

// BackupsDir returns the directory that receives backups of path.
func BackupsDir(path string) string {
	return filepath.Join(filepath.Dir(path), WorkDirName, BackupsDirName)
}

// Open loads the CSV file at path. If the file exists but cannot be parsed,
// the latest backup is loaded instead.
func Open(path string) (*Document, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	g, perr := Decode(data)
	if perr != nil {
		bg, bpath, berr := openLatestBackup(path)
		if berr != nil {
			return nil, fmt.Errorf("load %s: %w; backup attempt: %v", path, perr, berr)
		}
		l.Warn("file unreadable, loaded latest backup", slog.Any("err", perr), slog.String("backup", bpath))
		return &Document{Path: path, Grid: bg, Modified: true}, nil
	}
	l.Debug("loaded", slog.Int("rows", g.RowCount()), slog.Int("cols", g.ColumnCount()))
	return &Document{Path: path, Grid: g}, nil
}

// Create writes a new sheet with the given headers to path. An existing file
// is only replaced when force is set.
func Create(path string, headers []string, force bool, opts SaveOptions) (*Document, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	if _, err := os.Stat(path); err == nil && !force {
		return nil, fmt.Errorf("%w: %s", ErrExists, path)
	}
	doc := &Document{Path: path, Grid: grid.NewWithHeaders(headers)}
	if err := Save(doc, opts); err != nil {
		return nil, err
	}
	return doc, nil
}

// Save writes doc to doc.Path with transactional semantics: the data goes to
// a temp file in the same directory which then replaces the target.
func Save(doc *Document, opts SaveOptions) error {
	if doc == nil || doc.Grid == nil {
		return errors.New("nil document")
	}
	if doc.Path == "" {
		return errors.New("document has no path")
	}
	l := applog.WithOperation(applog.WithComponent("storage"), "save").With(slog.String("path", doc.Path))

	var buf bytes.Buffer
	if err := Encode(&buf, doc.Grid, opts); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}

	if opts.Backup {
		if _, statErr := os.Stat(doc.Path); statErr == nil {
			bpath, err := backupFile(doc.Path)
			if err != nil {
				return fmt.Errorf("backup current file: %w", err)
			}
			l.Debug("backup written", slog.String("backup", bpath))
			if opts.KeepBackups > 0 {
				if n, err := pruneBackups(doc.Path, opts.KeepBackups); err != nil {
					l.Warn("prune backups failed", slog.Any("err", err))
				} else if n > 0 {
					l.Debug("pruned backups", slog.Int("removed", n))
				}
			}
		}
	}

	dir := filepath.Dir(doc.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	base := filepath.Base(doc.Path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, buf.Bytes()); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp file: %w", err)
	}
	// rename does not replace an existing file on Windows
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(doc.Path); err == nil {
			_ = os.Remove(doc.Path)
		}
	}
	if err := os.Rename(temp, doc.Path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace %s: %w", base, err)
	}
	doc.Modified = false
	l.Info("saved", slog.Int("rows", doc.Grid.RowCount()), slog.Int("cols", doc.Grid.ColumnCount()))
	return nil
}

// SaveAs points doc at newPath and saves it there.
func SaveAs(doc *Document, newPath string, opts SaveOptions) error {
	if doc == nil {
		return errors.New("nil document")
	}
	if strings.TrimSpace(newPath) == "" {
		return errors.New("new path is empty")
	}
	doc.Path = newPath
	return Save(doc, opts)
}

// Edit loads path, applies fn to its grid and saves the result. Nothing is
// written when fn fails.
func Edit(path string, opts SaveOptions, fn func(g *grid.Grid) error) (*Document, error) {
	doc, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := fn(doc.Grid); err != nil {
		return doc, err
	}
	doc.Modified = true
	if err := Save(doc, opts); err != nil {
		return doc, err
	}
	return doc, nil
}

// AutosaveCrashSnapshot writes the in-memory grid to a timestamped CSV under
// the crash directory next to the document and returns its path.
func AutosaveCrashSnapshot(doc *Document) (string, error) {
	if doc == nil || doc.Grid == nil {
		return "", errors.New("nil document")
	}
	name := filepath.Base(doc.Path)
	dir := filepath.Join(filepath.Dir(doc.Path), WorkDirName, CrashDirName)
	if doc.Path == "" {
		name = "untitled.csv"
		dir = filepath.Join(os.TempDir(), "csvedit-crash")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure crash dir: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc.Grid, SaveOptions{CRLF: true}); err != nil {
		return "", err
	}
	ext := filepath.Ext(name)
	path := filepath.Join(dir, fmt.Sprintf("%s.%s%s", strings.TrimSuffix(name, ext), time.Now().Format(stampLayout), ext))
	if err := writeFileSync(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func backupName(path string, t time.Time) string {
	return filepath.Join(BackupsDir(path), fmt.Sprintf("%s.%s.bak", filepath.Base(path), t.Format(stampLayout)))
}

// backupFile copies path into the backups dir. A name already taken within
// the same millisecond moves the stamp forward so no backup is overwritten.
func backupFile(path string) (string, error) {
	t := time.Now()
	bpath := backupName(path, t)
	for {
		if _, err := os.Stat(bpath); err != nil {
			break
		}
		t = t.Add(time.Millisecond)
		bpath = backupName(path, t)
	}
	return bpath, copyFile(path, bpath)
}

// isBackupOf reports whether name is "<base>.<stamp>.bak" for this base.
// Backups of sibling files such as "<base>.old" do not match.
func isBackupOf(name, base string) bool {
	prefix := base + "."
	if len(name) != len(prefix)+len(stampLayout)+len(".bak") {
		return false
	}
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".bak") {
		return false
	}
	_, err := time.Parse(stampLayout, name[len(prefix):len(prefix)+len(stampLayout)])
	return err == nil
}

// listBackups returns backups of path sorted oldest first; the timestamp in
// the name yields lexicographic order.
func listBackups(path string) ([]string, error) {
	bdir := BackupsDir(path)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	var out []string
	for _, e := range ents {
		name := e.Name()
		if isBackupOf(name, base) {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}

func pruneBackups(path string, keep int) (int, error) {
	all, err := listBackups(path)
	if err != nil {
		return 0, err
	}
	removed := 0
	for len(all)-removed > keep {
		if err := os.Remove(all[removed]); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func openLatestBackup(path string) (*grid.Grid, string, error) {
	all, err := listBackups(path)
	if err != nil {
		return nil, "", fmt.Errorf("read backups dir: %w", err)
	}
	if len(all) == 0 {
		return nil, "", errors.New("no backups found")
	}
	latest := all[len(all)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, "", fmt.Errorf("read latest backup: %w", err)
	}
	g, err := Decode(b)
	if err != nil {
		return nil, "", fmt.Errorf("parse latest backup: %w", err)
	}
	return g, latest, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
