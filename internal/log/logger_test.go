/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFromEnvDefaultsAndOverrides(t *testing.T) {
	t.Setenv(EnvLevel, "")
	t.Setenv(EnvFormat, "")
	t.Setenv(EnvSource, "")
	t.Setenv(EnvFile, "")
	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "console" || opts.AddSource || opts.File != "" {
		t.Fatalf("defaults mismatch: %+v", opts)
	}

	t.Setenv(EnvLevel, "debug")
	t.Setenv(EnvFormat, "json")
	t.Setenv(EnvSource, "TRUE")
	opts = FromEnv()
	if opts.Level != "debug" || opts.Format != "json" || !opts.AddSource {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		" INFO": slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelWarn,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	var h slog.Handler = &consoleHandler{level: slog.LevelWarn, w: &buf, mu: new(sync.Mutex)}
	ctx := context.Background()

	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn level")
	}
	h = h.WithAttrs([]slog.Attr{slog.String("path", "a b.csv")}).WithGroup("grid")

	r := slog.NewRecord(time.Now(), slog.LevelError, "save failed", 0)
	r.AddAttrs(slog.Int("rows", 3), slog.Float64("ratio", 0.5))
	if err := h.Handle(ctx, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ERR", "save failed", `path="a b.csv"`, "grid.rows=3", "grid.ratio=0.5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestInitWritesJSONFileWithStaticAttrs(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "csvedit.log")
	var console bytes.Buffer
	Init(Options{Level: "debug", Format: "console", File: fpath, Writer: &console})
	t.Cleanup(func() { Init(Options{Writer: &bytes.Buffer{}}) })

	WithOperation(WithComponent("storage"), "save").Info("saved", slog.Int("rows", 2))

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", last, err)
	}
	if m["app"] != "csvedit" || m["component"] != "storage" || m["op"] != "save" || m["msg"] != "saved" {
		t.Fatalf("unexpected record: %v", m)
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr: %v", m)
	}
	if !strings.Contains(console.String(), "saved") {
		t.Fatalf("console output missing record: %q", console.String())
	}
}

func TestConsoleHandlerAddsSource(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(&consoleHandler{level: slog.LevelInfo, source: true, w: &buf, mu: &sync.Mutex{}})
	l.Info("located")
	out := buf.String()
	if !strings.Contains(out, " src=") || !strings.Contains(out, "logger_test.go:") {
		t.Fatalf("missing source location: %q", out)
	}

	buf.Reset()
	r := slog.NewRecord(time.Now(), slog.LevelInfo, "no pc", 0)
	h := &consoleHandler{level: slog.LevelInfo, source: true, w: &buf, mu: &sync.Mutex{}}
	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if strings.Contains(buf.String(), "src=") {
		t.Fatalf("record without pc printed a source: %q", buf.String())
	}
}
