package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under dir; keys are slash-separated paths.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, text := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	}
}

type runResult struct {
	stdout, stderr string
	err            error
}

func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	root, finish := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--color=off"}, args...))
	err := root.Execute()
	finish()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func TestCookCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{
		"main.f90": "#define N 10\nprogram p\n  include 'inc.h'\n  x = N ! set\nend\n",
		"inc.h":    "integer :: x\n",
	})

	got := run(t, "", "cook", "main.f90")
	require.NoError(t, got.err)
	assert.Equal(t, "program p\ninteger :: x\n  x = 10\nend\n", got.stdout)
	assert.Empty(t, got.stderr)
}

func TestCookCommandReportsErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{
		"main.f90": "include 'missing.h'\nx = 1\n",
	})

	tests := []struct {
		format string
		want   string
	}{
		{"short", "error PRE1001 main.f90:1:1 cannot find include file 'missing.h'\n"},
		{"pretty", "main.f90:1:1: error[PRE1001]: cannot find include file 'missing.h'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got := run(t, "", "cook", "--format", tt.format, "main.f90")
			require.ErrorIs(t, got.err, errHasErrors)
			assert.Equal(t, "x = 1\n", got.stdout)
			assert.Equal(t, tt.want, got.stderr)
		})
	}
}

func TestCookCommandJSON(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{
		"main.f90": "#undef X\nx = 1\n",
	})

	got := run(t, "", "cook", "--format=json", "--no-text", "main.f90")
	require.NoError(t, got.err)
	assert.Empty(t, got.stdout)

	var out struct {
		Diagnostics []struct {
			Severity string `json:"severity"`
			Code     string `json:"code"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(got.stderr), &out))
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "PRE1007", out.Diagnostics[0].Code)
}

func TestCookCommandQuietHidesWarnings(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{"main.f90": "#undef X\nx = 1\n"})

	got := run(t, "", "--quiet", "cook", "main.f90")
	require.NoError(t, got.err)
	assert.Empty(t, got.stderr)
}

func TestCookCommandMinSeverity(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{
		"main.f90": "#undef X\ninclude 'gone.h'\n",
	})

	got := run(t, "", "cook", "--format=short", "--min-severity=error", "main.f90")
	require.ErrorIs(t, got.err, errHasErrors)
	assert.Equal(t, "error PRE1001 main.f90:2:1 cannot find include file 'gone.h'\n", got.stderr)

	writeTree(t, dir, map[string]string{"fortsrc.toml": "[diagnostics]\nmin_severity = \"warning\"\n"})
	got = run(t, "", "cook", "--format=short", "main.f90")
	require.ErrorIs(t, got.err, errHasErrors)
	assert.Equal(t, "warning PRE1007 main.f90:1:1 'X' is not defined\n"+
		"error PRE1001 main.f90:2:1 cannot find include file 'gone.h'\n", got.stderr)

	got = run(t, "", "cook", "--min-severity=fatal", "main.f90")
	require.Error(t, got.err)
	assert.Contains(t, got.err.Error(), "invalid severity")
}

func TestCookCommandPathMode(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{
		"src/main.f90": "include 'missing.h'\n",
	})

	got := run(t, "", "cook", "--format=short", "--path-mode=basename", "src/main.f90")
	require.ErrorIs(t, got.err, errHasErrors)
	assert.Equal(t, "error PRE1001 main.f90:1:1 cannot find include file 'missing.h'\n", got.stderr)

	writeTree(t, dir, map[string]string{"fortsrc.toml": "[diagnostics]\npath_mode = \"absolute\"\n"})
	got = run(t, "", "cook", "--format=short", "src/main.f90")
	require.ErrorIs(t, got.err, errHasErrors)
	assert.True(t, strings.HasPrefix(got.stderr, "error PRE1001 /"), got.stderr)
	assert.Contains(t, got.stderr, "/src/main.f90:1:1 cannot find include file")

	got = run(t, "", "cook", "--path-mode=short", "src/main.f90")
	require.Error(t, got.err)
	assert.Contains(t, got.err.Error(), "invalid path mode")
}

func TestCookCommandDefinesAndStdin(t *testing.T) {
	got := run(t, "x = N + DEBUG ! c\n", "cook", "-D", "N=3", "-D", "DEBUG", "-")
	require.NoError(t, got.err)
	assert.Equal(t, "x = 3 + 1\n", got.stdout)
}

func TestCookCommandManifest(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{
		"fortsrc.toml": "[source]\ninclude = [\"inc\"]\n\n[diagnostics]\nmax = 5\n",
		"src/main.f90": "include 'defs.h'\nx = K\n",
		"inc/defs.h":   "#define K 7\n",
	})

	got := run(t, "", "cook", "src/main.f90")
	require.NoError(t, got.err)
	assert.Equal(t, "x = 7\n", got.stdout)

	// -I directories are searched before the manifest's.
	writeTree(t, dir, map[string]string{"alt/defs.h": "#define K 8\n"})
	got = run(t, "", "cook", "-I", "alt", "src/main.f90")
	require.NoError(t, got.err)
	assert.Equal(t, "x = 8\n", got.stdout)
}

func TestCookCommandBadFormat(t *testing.T) {
	got := run(t, "", "cook", "--format", "xml", "-")
	require.Error(t, got.err)
	assert.Contains(t, got.err.Error(), "unsupported format")
}

func TestCookCommandMissingRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	got := run(t, "", "cook", "nope.f90")
	require.Error(t, got.err)
	assert.Contains(t, got.err.Error(), "open nope.f90")
}

func TestLocateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{"main.f90": "ab\ncd\n"})

	got := run(t, "", "locate", "--jobs", "2", "main.f90", "0", "4")
	require.NoError(t, got.err)
	lines := strings.Split(strings.TrimSuffix(got.stdout, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "0: "), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], " main.f90:1:1 \"a\""), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "4: "), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], " main.f90:2:2 \"d\""), lines[1])

	got = run(t, "", "locate", "main.f90")
	require.NoError(t, got.err)
	assert.Equal(t, 6, strings.Count(got.stdout, "\n"))

	got = run(t, "", "locate", "main.f90", "6")
	require.NoError(t, got.err)
	assert.Equal(t, "6: ", got.stdout[:3])
	assert.True(t, strings.HasSuffix(got.stdout, " <compiler> <end>\n"), got.stdout)

	got = run(t, "", "locate", "main.f90", "x")
	require.Error(t, got.err)
	assert.Contains(t, got.err.Error(), "invalid offset")
}

func TestFindCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{"main.f90": "! header\nab\n"})

	got := run(t, "", "find", "main.f90", "main.f90:2:2")
	require.NoError(t, got.err)
	assert.Equal(t, "main.f90:2:2: 1 \"b\"\n", got.stdout)

	got = run(t, "", "find", "main.f90", "main.f90:1:3")
	require.ErrorIs(t, got.err, errNotFound)
	assert.Equal(t, "main.f90:1:3: not found\n", got.stdout)
}

func TestDumpCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	writeTree(t, dir, map[string]string{"main.f90": "x = 1\n"})

	got := run(t, "", "dump", "main.f90")
	require.NoError(t, got.err)
	for _, want := range []string{"cooked text:\nx = 1\n", "forward index:", "inverse index:"} {
		assert.Contains(t, got.stdout, want)
	}
}

func TestTraceRingDumpedToStderr(t *testing.T) {
	got := run(t, "x\n", "--trace-level", "phase", "cook", "-")
	require.NoError(t, got.err)
	assert.Equal(t, "x\n", got.stdout)
	assert.Contains(t, got.stderr, "cook")
	assert.Contains(t, got.stderr, "scan_file")
}

func TestTimingsAndProfiles(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	got := run(t, "x = 1\n", "--timings", "--cpu-profile", cpu, "locate", "-", "0")
	require.NoError(t, got.err)
	assert.Contains(t, got.stderr, "timings:\n  cook ")
	assert.Contains(t, got.stderr, "\n  locate ")
	assert.Contains(t, got.stderr, "\n  total ")
	assert.FileExists(t, cpu)
}

func TestVersionCommandJSON(t *testing.T) {
	got := run(t, "", "version", "--format", "json", "--hash")
	require.NoError(t, got.err)

	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(got.stdout), &payload))
	assert.Equal(t, "fortsrc", payload.Tool)
	assert.NotContains(t, payload.Version, "\x1b")
	assert.NotEmpty(t, payload.GitCommit)
	assert.Empty(t, payload.BuildDate)
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in        string
		path      string
		line, col uint32
		wantErr   bool
	}{
		{in: "a.f90:3:7", path: "a.f90", line: 3, col: 7},
		{in: `C:\src\a.f90:1:1`, path: `C:\src\a.f90`, line: 1, col: 1},
		{in: "a.f90:3", wantErr: true},
		{in: ":1:1", wantErr: true},
		{in: "a.f90:0:1", wantErr: true},
		{in: "a.f90:1:x", wantErr: true},
	}
	for _, tt := range tests {
		path, line, col, err := parsePosition(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parsePosition(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("parsePosition(%q) error: %v", tt.in, err)
			continue
		}
		if path != tt.path || line != tt.line || col != tt.col {
			t.Errorf("parsePosition(%q) = %q %d %d", tt.in, path, line, col)
		}
	}
}

func TestParseDefines(t *testing.T) {
	got, err := parseDefines([]string{"A=1", "B", "C=x=y", "D="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "1", "C": "x=y", "D": ""}, got)

	_, err = parseDefines([]string{"=3"})
	require.Error(t, err)
}
