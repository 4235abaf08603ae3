package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/bookctl/internal/monitor"
	"github.com/dgallion1/bookctl/internal/subset"
)

const sampleRoot = `\documentclass{book}
\begin{document}
\chapterwithsummaryfromfile[ch:golden]{01_golden_ratio}
\inputstory{01_golden_ratio}
\chapterwithsummaryfromfile{03_fractals}
\inputstory{03_fractals}
\chapterwithsummaryfromfile[ch:primes]{05_primes}
\end{document}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BOOKCTL_CONFIG", "")
	var out bytes.Buffer
	cmd := newRootCmd(io.Discard)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func bookDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.tex"), []byte(sampleRoot), 0o644))
	return dir
}

func TestPdfTarget(t *testing.T) {
	tests := []struct {
		args                []string
		wantPDF, wantDir, b string
	}{
		{[]string{"build/main.pdf"}, "build/main.pdf", "build", "main"},
		{[]string{"main"}, "main.pdf", ".", "main"},
		{[]string{"out/book.PDF", "main"}, "out/book.PDF", "out", "main"},
	}
	for _, tt := range tests {
		pdf, dir, base := pdfTarget(tt.args)
		assert.Equal(t, tt.wantPDF, pdf, "%v", tt.args)
		assert.Equal(t, tt.wantDir, dir, "%v", tt.args)
		assert.Equal(t, tt.b, base, "%v", tt.args)
	}
}

func TestSubsetCommand(t *testing.T) {
	dir := bookDir(t)
	out, err := run(t, "--root", dir, "subset", "1,primes")
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 chapters")

	data, err := os.ReadFile(filepath.Join(dir, "main_ch.tex"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `\chapterwithsummaryfromfile[ch:golden]{01_golden_ratio}`)
	assert.Contains(t, text, `\chapterwithsummaryfromfile[ch:primes]{05_primes}`)
	assert.NotContains(t, text, "03_fractals")
	assert.Contains(t, text, "% Selected chapters: 1, 5")
}

func TestSubsetCommand_Errors(t *testing.T) {
	dir := bookDir(t)

	_, err := run(t, "--root", dir, "subset")
	require.ErrorIs(t, err, subset.ErrEmptySpec)

	_, err = run(t, "--root", dir, "subset", "nothing-like-this")
	require.ErrorIs(t, err, subset.ErrNoMatch)

	_, err = run(t, "--root", dir, "subset", "-i", filepath.Join(dir, "missing.tex"), "1")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSubsetCommand_List(t *testing.T) {
	dir := bookDir(t)
	out, err := run(t, "--root", dir, "subset", "-l")
	require.NoError(t, err)
	assert.Contains(t, out, "Available chapters:")
	assert.Contains(t, out, "05_primes")
}

func TestFlattenCommand_MissingRoot(t *testing.T) {
	_, err := run(t, "--root", t.TempDir(), "flatten")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRestoreCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt.bak"), []byte("old"), 0o644))

	out, err := run(t, "--root", dir, "restore")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored 1 files")

	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "restore", "--root", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown log level")
}

// yamlList renders argv as a YAML flow sequence of double-quoted strings.
func yamlList(argv ...string) string {
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = strconv.Quote(a)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// compileConfig writes a config that runs /bin/sh scripts in place of the
// compiler and the post-compile tools. The source file arrives as $1.
func compileConfig(t *testing.T, compile string, scale ...string) string {
	t.Helper()
	content := strings.Join([]string{
		"compiler: sh",
		"compiler_args: " + yamlList("-c", compile, "fakelatex"),
		"page_table_command: " + yamlList("sh", "-c", "echo table", "pagetable"),
		"scale_command: " + yamlList(scale...),
		"",
	}, "\n")
	path := filepath.Join(t.TempDir(), "bookctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileCommand(t *testing.T) {
	const (
		succeed = `printf 'Output written on main.pdf (3 pages, 100 bytes).\n'; : > "${1%.tex}.pdf"`
		fail    = `printf '! Emergency stop.\n'; exit 1`
	)
	copyScale := []string{"sh", "-c", `cp "$1" "$2"`, "scale"}
	brokenScale := []string{"false"}

	tests := []struct {
		name       string
		script     string
		scale      []string
		args       []string
		missing    bool
		wantErr    error
		wantOut    string
		wantScaled bool
	}{
		{name: "success", script: succeed, scale: copyScale, wantOut: "COMPILATION COMPLETE"},
		{name: "success with scale", script: succeed, scale: copyScale, args: []string{"--scale"}, wantScaled: true},
		{name: "scale failure keeps success", script: succeed, scale: brokenScale, args: []string{"--scale-to-7x10"},
			wantOut: "Compilation succeeded but scaling failed"},
		{name: "compile failure", script: fail, scale: copyScale, wantErr: errCompileFailed},
		{name: "missing source", script: succeed, scale: copyScale, missing: true, wantErr: monitor.ErrSourceMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := bookDir(t)
			source := filepath.Join(dir, "main.tex")
			if tt.missing {
				source = filepath.Join(dir, "absent.tex")
			}
			args := append([]string{"--config", compileConfig(t, tt.script, tt.scale...), "--no-color", "compile"}, tt.args...)
			args = append(args, source)

			out, err := run(t, args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err, out)
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
			_, statErr := os.Stat(filepath.Join(dir, "main_7x10.pdf"))
			assert.Equal(t, tt.wantScaled, statErr == nil, "scaled artifact presence")
		})
	}
}
