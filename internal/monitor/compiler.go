// Package monitor drives the two-pass document compile, following the
// compiler's log while it runs.
package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/bookctl/internal/config"
)

// ErrSourceMissing is returned when the document source file does not exist.
var ErrSourceMissing = errors.New("source file not found")

// PassResult keeps every signal from one compiler invocation. The exit code
// is recorded but does not decide success: the compiler exits non-zero on
// recoverable problems while still producing the artifact.
type PassResult struct {
	Pass           int
	ExitCode       int
	StartErr       error
	CompletionSeen bool
	ArtifactExists bool
	Pages          int
	Bytes          int64
	Elapsed        time.Duration
	Run            RunSnapshot
}

// Succeeded reports whether the pass produced the artifact.
func (p PassResult) Succeeded() bool {
	return p.CompletionSeen || p.ArtifactExists
}

// Outcome is the result of a full compile.
type Outcome struct {
	Passes   []PassResult
	Elapsed  time.Duration
	Artifact string
	Success  bool
}

// Compiler runs the external document compiler.
type Compiler struct {
	cfg      config.Config
	reporter Reporter
	store    *RunStore
	log      *slog.Logger
}

// NewCompiler creates a Compiler. store may be nil.
func NewCompiler(cfg config.Config, reporter Reporter, store *RunStore, log *slog.Logger) *Compiler {
	return &Compiler{cfg: cfg, reporter: reporter, store: store, log: log}
}

// source is the resolved layout of one compile target.
type source struct {
	dir  string // working directory for the compiler
	file string // file name passed to the compiler
	base string // file name without extension
}

func (s source) path(ext string) string {
	return filepath.Join(s.dir, s.base+ext)
}

func resolve(path string) (source, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return source{}, fmt.Errorf("%s: %w", path, ErrSourceMissing)
	}
	file := filepath.Base(path)
	return source{
		dir:  filepath.Dir(path),
		file: file,
		base: strings.TrimSuffix(file, filepath.Ext(file)),
	}, nil
}

// Compile cleans stale artifacts and runs the compiler twice. The second
// pass is skipped when the first fails. When both succeed the page table
// tool is run; its failure is reported but does not affect the outcome.
func (c *Compiler) Compile(ctx context.Context, path string) (Outcome, error) {
	src, err := resolve(path)
	if err != nil {
		return Outcome{}, err
	}
	log := c.log.With("source", path)

	chapters := DefaultChapterCount
	if data, err := os.ReadFile(path); err == nil {
		chapters = CountChapters(string(data))
	} else {
		log.Warn("read source for chapter count", "error", err)
	}
	c.reporter.Header(path, chapters)

	removed := Clean(src.dir, src.base, c.cfg.ArtifactExtensions, log)
	c.reporter.Info(fmt.Sprintf("Cleaned %d build artifacts", removed))

	start := time.Now()
	out := Outcome{Artifact: src.path(".pdf")}

	first := c.runPass(ctx, 1, src, chapters, log)
	out.Passes = append(out.Passes, first)
	if !first.Succeeded() {
		c.reporter.Fail("First pass failed, aborting.")
		out.Elapsed = time.Since(start)
		return out, nil
	}

	second := c.runPass(ctx, 2, src, chapters, log)
	out.Passes = append(out.Passes, second)
	out.Elapsed = time.Since(start)
	out.Success = second.Succeeded()

	c.reporter.Info("")
	c.reporter.Info("COMPILATION COMPLETE")
	c.reporter.Info("Total time: " + FormatDuration(out.Elapsed))
	c.reportSizes(src)

	if out.Success {
		c.pageTable(ctx, src)
	}

	log.Info("compile finished", "success", out.Success, "elapsed_ms", out.Elapsed.Milliseconds())
	return out, nil
}

func (c *Compiler) runPass(ctx context.Context, pass int, src source, chapters int, log *slog.Logger) PassResult {
	log = log.With("pass", pass)
	run := NewRun(src.file, pass, chapters)
	if c.store != nil {
		c.store.Put(run)
	}
	c.reporter.PassStarted(pass)

	res := PassResult{Pass: pass, ExitCode: -1}
	logPath := filepath.Join(src.dir, PassLogName(pass))

	logFile, err := os.Create(logPath)
	if err != nil {
		res.StartErr = fmt.Errorf("create pass log: %w", err)
		run.Finish(false, time.Now())
		res.Run = run.Snapshot()
		c.reporter.PassFinished(res)
		return res
	}

	args := append(append([]string{}, c.cfg.CompilerArgs...), src.file)
	cmd := exec.CommandContext(ctx, c.cfg.Compiler, args...)
	cmd.Dir = src.dir
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	start := time.Now()
	run.Start(start)

	tailCtx, stopTail := context.WithCancel(context.Background())
	tailDone := make(chan struct{})
	go func() {
		defer close(tailDone)
		NewTailer(logPath, c.cfg.PollInterval).Follow(tailCtx, func(line string) {
			for _, ev := range run.Feed(line, time.Now()) {
				c.reporter.Observe(ev)
			}
		})
	}()

	err = cmd.Run()
	logFile.Close()
	stopTail()
	<-tailDone

	res.Elapsed = time.Since(start)
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.StartErr = err
	}

	snap := run.Snapshot()
	res.CompletionSeen = snap.PDFObserved
	res.Pages = snap.Pages
	res.Bytes = snap.Bytes
	if res.StartErr == nil {
		res.ArtifactExists = fileExists(src.path(".pdf"))
	}

	run.Finish(res.Succeeded(), time.Now())
	res.Run = run.Snapshot()
	c.reporter.PassFinished(res)

	log.Info("pass finished",
		"exit_code", res.ExitCode,
		"completion_seen", res.CompletionSeen,
		"artifact_exists", res.ArtifactExists,
		"errors", len(res.Run.Errors),
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
	if res.StartErr != nil {
		log.Error("compiler did not start", "error", res.StartErr)
	}
	return res
}

func (c *Compiler) reportSizes(src source) {
	if info, err := os.Stat(src.path(".pdf")); err == nil {
		c.reporter.Info(fmt.Sprintf("PDF: %.1fMB", megabytes(info.Size())))
	}
	if info, err := os.Stat(src.path(".toc")); err == nil {
		if info.Size() > 0 {
			c.reporter.Info(fmt.Sprintf("ToC: %d bytes", info.Size()))
		} else {
			c.reporter.Warn("ToC is empty (0 bytes) - check for issues!")
		}
	}
}

// pageTable runs the page structure tool on the artifact and relays its
// output. Failures are reported only.
func (c *Compiler) pageTable(ctx context.Context, src source) {
	pdf := src.base + ".pdf"
	if !fileExists(src.path(".pdf")) {
		c.reporter.Warn(fmt.Sprintf("PDF file not found: %s - skipping page structure table", pdf))
		return
	}

	argv := c.cfg.PageTableCommand
	if len(argv) == 0 {
		exe, err := os.Executable()
		if err != nil {
			c.reporter.Fail(fmt.Sprintf("Could not run page structure analysis: %v", err))
			return
		}
		argv = []string{exe, "pagetable"}
	}

	cmd := exec.CommandContext(ctx, argv[0], append(append([]string{}, argv[1:]...), pdf, src.base)...)
	cmd.Dir = src.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		c.log.Warn("page table tool failed", "error", err, "stderr", stderr.String())
		c.reporter.Fail("Page structure table generation failed: " + strings.TrimSpace(stderr.String()))
		return
	}
	relay(out, c.reporter)
}

// Scale runs the page rescaling tool on the compiled artifact of path,
// writing <base>_7x10.pdf next to it.
func (c *Compiler) Scale(ctx context.Context, path string) error {
	src, err := resolve(path)
	if err != nil {
		return err
	}
	pdf := src.base + ".pdf"
	scaled := src.base + "_7x10.pdf"

	if !fileExists(src.path(".pdf")) {
		return fmt.Errorf("cannot scale: %s not found", pdf)
	}
	if len(c.cfg.ScaleCommand) == 0 {
		return fmt.Errorf("cannot scale: no scale command configured")
	}

	c.reporter.Info("")
	c.reporter.Info(`SCALING PDF TO 7"x10"`)
	c.reporter.Info(strings.Repeat("=", 30))

	argv := c.cfg.ScaleCommand
	cmd := exec.CommandContext(ctx, argv[0], append(append([]string{}, argv[1:]...), pdf, scaled)...)
	cmd.Dir = src.dir
	out, err := cmd.CombinedOutput()
	relay(out, c.reporter)
	if err != nil {
		return fmt.Errorf("scale tool: %w", err)
	}

	info, err := os.Stat(filepath.Join(src.dir, scaled))
	if err != nil {
		return fmt.Errorf("scaling failed: %s not created", scaled)
	}
	c.reporter.Info(fmt.Sprintf("Scaled PDF created: %s (%.1fMB)", scaled, megabytes(info.Size())))
	return nil
}

func relay(out []byte, r Reporter) {
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			r.ToolOutput(strings.TrimRight(line, "\r"))
		}
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
