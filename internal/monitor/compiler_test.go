package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/bookctl/internal/config"
)

type recorder struct {
	mu       sync.Mutex
	passes   []int
	events   []Event
	finished []PassResult
	messages []string
	tool     []string
}

func (r *recorder) Header(string, int) {}
func (r *recorder) PassStarted(pass int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.passes = append(r.passes, pass)
}
func (r *recorder) Observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}
func (r *recorder) PassFinished(res PassResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
}
func (r *recorder) Info(msg string) { r.note(msg) }
func (r *recorder) Warn(msg string) { r.note(msg) }
func (r *recorder) Fail(msg string) { r.note(msg) }
func (r *recorder) ToolOutput(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tool = append(r.tool, line)
}
func (r *recorder) note(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) said(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

const sourceTex = "\\begin{document}\n\\chapterwithsummaryfromfile{01_golden}\n\\chapterwithsummaryfromfile{02_primes}\n\\end{document}\n"

// fakeCompiler configures /bin/sh as the compiler; the source file name
// arrives as $1.
func fakeCompiler(script string) config.Config {
	return config.Config{
		Compiler:           "sh",
		CompilerArgs:       []string{"-c", script, "fakelatex"},
		PollInterval:       5 * time.Millisecond,
		ArtifactExtensions: []string{"aux", "toc", "log"},
		PageTableCommand:   []string{"sh", "-c", `echo "rows for $1 $2"; echo; echo "done"`, "pagetable"},
		ScaleCommand:       []string{"sh", "-c", `cp "$1" "$2"`, "scale"},
	}
}

func newSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.tex")
	if err := os.WriteFile(path, []byte(sourceTex), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompile_SuccessDespiteNonZeroExit(t *testing.T) {
	path := newSource(t)
	script := `printf '(./01_golden/title.tex)\n(./02_primes/main.tex)\nOutput written on main.pdf (12 pages, 34567 bytes).\n'; exit 1`
	rec := &recorder{}
	store := NewRunStore(time.Hour)

	out, err := NewCompiler(fakeCompiler(script), rec, store, quiet).Compile(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Success {
		t.Fatal("expected success from completion marker")
	}
	if len(out.Passes) != 2 {
		t.Fatalf("expected 2 passes, got %d", len(out.Passes))
	}
	for _, p := range out.Passes {
		if p.ExitCode != 1 {
			t.Errorf("pass %d: expected exit code 1, got %d", p.Pass, p.ExitCode)
		}
		if !p.CompletionSeen || p.ArtifactExists {
			t.Errorf("pass %d: expected completion without artifact, got %+v", p.Pass, p)
		}
		if p.Pages != 12 || p.Bytes != 34567 {
			t.Errorf("pass %d: expected 12 pages/34567 bytes, got %d/%d", p.Pass, p.Pages, p.Bytes)
		}
		if p.Run.Chapter != 2 || p.Run.TotalChapters != 2 {
			t.Errorf("pass %d: expected chapter 2 of 2, got %d of %d", p.Pass, p.Run.Chapter, p.Run.TotalChapters)
		}
	}
	if len(store.List()) != 2 {
		t.Errorf("expected 2 stored runs, got %d", len(store.List()))
	}
	// No artifact on disk, so the page table step is skipped.
	if !rec.said("skipping page structure table") {
		t.Error("expected page table skip notice")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), "compile_pass2.log")); err != nil {
		t.Errorf("expected pass log on disk: %v", err)
	}
}

func TestCompile_ArtifactWithoutMarker(t *testing.T) {
	path := newSource(t)
	script := `: > "${1%.tex}.pdf"`
	rec := &recorder{}

	out, err := NewCompiler(fakeCompiler(script), rec, nil, quiet).Compile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success {
		t.Fatal("expected success from artifact existence")
	}
	if out.Passes[0].CompletionSeen || !out.Passes[0].ArtifactExists {
		t.Errorf("expected artifact without completion marker, got %+v", out.Passes[0])
	}

	want := []string{"rows for main.pdf main", "done"}
	if strings.Join(rec.tool, "|") != strings.Join(want, "|") {
		t.Errorf("expected tool output %q, got %q", want, rec.tool)
	}
}

func TestCompile_FirstPassFailureSkipsSecond(t *testing.T) {
	path := newSource(t)
	script := `echo '! Emergency stop.'; exit 1`
	rec := &recorder{}

	out, err := NewCompiler(fakeCompiler(script), rec, nil, quiet).Compile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Success {
		t.Fatal("expected failure")
	}
	if len(out.Passes) != 1 {
		t.Fatalf("expected pass 2 to be skipped, got %d passes", len(out.Passes))
	}
	if len(rec.passes) != 1 {
		t.Errorf("expected 1 pass started, got %v", rec.passes)
	}
	if out.Passes[0].Run.Phase != PhaseFailed {
		t.Errorf("expected failed phase, got %q", out.Passes[0].Run.Phase)
	}
	if len(out.Passes[0].Run.Errors) != 1 {
		t.Errorf("expected 1 error line, got %v", out.Passes[0].Run.Errors)
	}
	if !rec.said("First pass failed") {
		t.Error("expected abort message")
	}
}

func TestCompile_CompilerMissing(t *testing.T) {
	path := newSource(t)
	cfg := fakeCompiler("")
	cfg.Compiler = "bookctl-no-such-compiler"
	// A stale artifact must not count when nothing ran.
	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "main.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := NewCompiler(cfg, &recorder{}, nil, quiet).Compile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if out.Success || len(out.Passes) != 1 {
		t.Fatalf("expected single failed pass, got %+v", out)
	}
	if out.Passes[0].StartErr == nil {
		t.Error("expected start error")
	}
}

func TestCompile_SourceMissing(t *testing.T) {
	_, err := NewCompiler(fakeCompiler(""), &recorder{}, nil, quiet).
		Compile(context.Background(), filepath.Join(t.TempDir(), "main.tex"))
	if !errors.Is(err, ErrSourceMissing) {
		t.Errorf("expected ErrSourceMissing, got %v", err)
	}
}

func TestCompile_CleansBeforeFirstPass(t *testing.T) {
	path := newSource(t)
	dir := filepath.Dir(path)
	stale := filepath.Join(dir, "main.aux")
	touch(t, stale)

	// The compiler fails if the stale aux file is still there.
	script := `test ! -e main.aux && : > main.pdf`
	out, err := NewCompiler(fakeCompiler(script), &recorder{}, nil, quiet).Compile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success {
		t.Error("expected stale artifacts to be cleaned before compiling")
	}
}

func TestScale(t *testing.T) {
	path := newSource(t)
	dir := filepath.Dir(path)
	c := NewCompiler(fakeCompiler(""), &recorder{}, nil, quiet)

	if err := c.Scale(context.Background(), path); err == nil {
		t.Fatal("expected error without artifact")
	}

	if err := os.WriteFile(filepath.Join(dir, "main.pdf"), []byte("%PDF-1.5"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.Scale(context.Background(), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "main_7x10.pdf")); err != nil {
		t.Errorf("expected scaled artifact: %v", err)
	}

	cfg := fakeCompiler("")
	cfg.ScaleCommand = []string{"sh", "-c", "exit 3", "scale"}
	if err := NewCompiler(cfg, &recorder{}, nil, quiet).Scale(context.Background(), path); err == nil {
		t.Error("expected error from failing scale tool")
	}
}
