package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// runCLI executes one command line against an isolated config and returns
// exit code, stdout and stderr.
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("CSVEDIT_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("CSVEDIT_TELEMETRY_OPT_IN", "false")
	t.Setenv("CSVEDIT_LOG_FILE", "")
	var out, errOut bytes.Buffer
	a := &app{stdout: &out, stderr: &errOut}
	code := a.run(args)
	return code, out.String(), errOut.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

func TestViewPrintsTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("ID,Name\n1,alpha\n22,b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, out, errOut := runCLI(t, "view", path)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	want := "File: " + path + "\n" +
		"ID | Name \n" +
		"----------\n" +
		"1  | alpha\n" +
		"22 | b    \n" +
		"\n" +
		"Total: 2 rows, 2 columns\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("view output mismatch (-want +got):\n%s", diff)
	}
}

func TestViewMissingFileFails(t *testing.T) {
	code, _, errOut := runCLI(t, "view", filepath.Join(t.TempDir(), "nope.csv"))
	if code != 1 {
		t.Fatalf("exit = %d, want 1", code)
	}
	if !strings.HasPrefix(errOut, "Error:") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestEditingSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.csv")
	steps := []struct {
		args []string
		msg  string
	}{
		{[]string{"new", path, "--headers", "ID,Name"}, "Created new file '" + path + "' with headers"},
		{[]string{"insert-row", path, "0", "-n", "2"}, "Inserted row at position 0 (2 times)"},
		{[]string{"edit", path, "0", "0", "1"}, "Set cell (0, 0) = '1'"},
		{[]string{"edit", path, "1", "1", "b, c"}, "Set cell (1, 1) = 'b, c'"},
		{[]string{"insert-col", path, "2", "Notes"}, "Inserted column at position 2 with header 'Notes'"},
		{[]string{"header", path, "1", "Title"}, "Set header for column 1 = 'Title'"},
		{[]string{"move-col", path, "2", "0"}, "Moved column 2 to position 0"},
		{[]string{"clear", path, "0", "1"}, "Cleared cell (0, 1)"},
		{[]string{"delete-row", path, "0"}, "Deleted row at position 0"},
	}
	for _, s := range steps {
		code, out, errOut := runCLI(t, s.args...)
		if code != 0 {
			t.Fatalf("%v: exit %d, stderr: %s", s.args, code, errOut)
		}
		if !strings.Contains(out, s.msg) {
			t.Fatalf("%v: output %q lacks %q", s.args, out, s.msg)
		}
	}
	if got, want := readFile(t, path), "Notes,ID,Title\r\n,,\"b, c\"\r\n"; got != want {
		t.Fatalf("file = %q, want %q", got, want)
	}

	code, out, _ := runCLI(t, "delete-col", path, "0")
	if code != 0 || !strings.HasSuffix(out, "File '"+path+"' updated successfully\n") {
		t.Fatalf("delete-col exit %d, out %q", code, out)
	}
	if got, want := readFile(t, path), "ID,Title\r\n,\"b, c\"\r\n"; got != want {
		t.Fatalf("file = %q, want %q", got, want)
	}
}

func TestNewUsesDefaultHeadersAndRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqs.csv")
	code, out, errOut := runCLI(t, "new", path)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "with default headers") || !strings.Contains(out, "Headers: Type Parent Requirement, ID, Name") {
		t.Fatalf("unexpected output: %q", out)
	}
	if code, _, _ := runCLI(t, "new", path); code != 1 {
		t.Fatalf("second new exit = %d, want 1", code)
	}
	if code, _, _ := runCLI(t, "new", "--force", path, "--headers", "A"); code != 0 {
		t.Fatalf("forced new exit = %d", code)
	}
	if got := readFile(t, path); got != "A\r\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestOutOfRangeLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("A\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, errOut := runCLI(t, "edit", path, "5", "0", "x")
	if code != 1 {
		t.Fatalf("exit = %d, want 1 (stderr %q)", code, errOut)
	}
	if got := readFile(t, path); got != "A\n1\n" {
		t.Fatalf("file changed: %q", got)
	}
}

func TestUsageErrorsExitTwo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	for _, args := range [][]string{
		{"edit", path, "x", "0", "v"},
		{"edit", path, "0"},
		{"view"},
		{"view", path, "--nope"},
		{"export", path, filepath.Join(t.TempDir(), "out.txt")},
		{"config", "set-dsn"},
	} {
		code, _, errOut := runCLI(t, args...)
		if code != 2 {
			t.Fatalf("%v: exit = %d, want 2 (stderr %q)", args, code, errOut)
		}
		if !strings.Contains(errOut, "--help' for usage.") {
			t.Fatalf("%v: stderr lacks usage hint: %q", args, errOut)
		}
	}
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, []byte("A,B\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "data.json")
	code, stdout, errOut := runCLI(t, "export", path, out, "--order", "1,0")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(stdout, "Exported 1 rows") {
		t.Fatalf("stdout = %q", stdout)
	}
	var doc struct {
		Headers []string   `json:"headers"`
		Rows    [][]string `json:"rows"`
	}
	if err := json.Unmarshal([]byte(readFile(t, out)), &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if diff := cmp.Diff([]string{"B", "A"}, doc.Headers); diff != "" {
		t.Fatalf("headers (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"2", "1"}}, doc.Rows); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
}

func TestConfigPathAndShow(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv("CSVEDIT_CONFIG", cfgPath)
	var out, errOut bytes.Buffer
	a := &app{stdout: &out, stderr: &errOut}
	if code := a.run([]string{"config", "path"}); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if strings.TrimSpace(out.String()) != cfgPath {
		t.Fatalf("config path = %q", out.String())
	}

	out.Reset()
	if code := a.run([]string{"config", "show"}); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "view_rows: 20") {
		t.Fatalf("config show lacks defaults:\n%s", out.String())
	}
}

func TestConfigSet(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("CSVEDIT_CONFIG", cfgPath)
	t.Setenv("CSVEDIT_BACKUPS", "")
	var out, errOut bytes.Buffer
	a := &app{stdout: &out, stderr: &errOut}
	if code := a.run([]string{"config", "set", "editor.view_rows", "3"}); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "Set editor.view_rows = '3'") {
		t.Fatalf("stdout = %q", out.String())
	}
	if !strings.Contains(readFile(t, cfgPath), "view_rows: 3") {
		t.Fatalf("config file not updated:\n%s", readFile(t, cfgPath))
	}

	t.Setenv("CSVEDIT_BACKUPS", "false")
	out.Reset()
	if code := a.run([]string{"config", "set", "editor.backups", "true"}); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "CSVEDIT_BACKUPS is set") {
		t.Fatalf("missing override note: %q", out.String())
	}

	if code := a.run([]string{"config", "set", "editor.view_rows", "many"}); code != 2 {
		t.Fatalf("invalid value exit = %d, want 2", code)
	}
	if code := a.run([]string{"config", "set", "no.such", "1"}); code != 2 {
		t.Fatalf("unknown key exit = %d, want 2", code)
	}
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	if code != 0 || !strings.HasPrefix(out, "csvedit ") {
		t.Fatalf("version exit %d, out %q", code, out)
	}
}
