package monitor

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Reporter receives user-facing notifications from a compilation.
type Reporter interface {
	Header(source string, chapters int)
	PassStarted(pass int)
	Observe(ev Event)
	PassFinished(res PassResult)
	Info(msg string)
	Warn(msg string)
	Fail(msg string)
	ToolOutput(line string)
}

const barWidth = 40

// ConsoleReporter prints progress to a terminal-like writer.
type ConsoleReporter struct {
	w   io.Writer
	bar progress.Model

	title   lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	curious lipgloss.Style

	inline bool // a \r progress line is pending a newline
}

// NewConsoleReporter creates a reporter writing to w. With color disabled
// all output is plain text.
func NewConsoleReporter(w io.Writer, color bool) *ConsoleReporter {
	r := lipgloss.NewRenderer(w)
	opts := []progress.Option{
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
		progress.WithSolidFill("#7571F9"),
		progress.WithFillCharacters('█', '░'),
	}
	if !color {
		r.SetColorProfile(termenv.Ascii)
		opts = append(opts, progress.WithColorProfile(termenv.Ascii))
	}
	return &ConsoleReporter{
		w:       w,
		bar:     progress.New(opts...),
		title:   r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		fail:    r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		curious: r.NewStyle().Foreground(lipgloss.Color("45")),
	}
}

func (c *ConsoleReporter) Header(source string, chapters int) {
	c.println(c.title.Render("REAL-TIME LATEX COMPILATION"))
	c.println(strings.Repeat("=", 50))
	c.println(fmt.Sprintf("Compiling: %s", source))
	c.println(fmt.Sprintf("Detected %d chapters", chapters))
}

func (c *ConsoleReporter) PassStarted(pass int) {
	c.println("")
	c.println(c.title.Render(fmt.Sprintf("Pass %d: %s", pass, passTitle(pass))))
}

func (c *ConsoleReporter) Observe(ev Event) {
	switch ev.Kind {
	case EventProgress:
		c.progressLine(ev)
	case EventCompleted:
		if ev.Pages > 0 {
			c.println(c.ok.Render(fmt.Sprintf("PDF generated: %d pages, %.1fMB", ev.Pages, megabytes(ev.Bytes))))
		}
	case EventCuriosity:
		c.println(c.curious.Render(fmt.Sprintf("Mystery string detected: '%s'", ev.Line)))
	case EventError:
		c.println(c.fail.Render("Error detected: " + ev.Line))
	}
}

func (c *ConsoleReporter) PassFinished(res PassResult) {
	if res.Succeeded() {
		c.println(c.ok.Render(fmt.Sprintf("Pass %d completed in %s", res.Pass, FormatDuration(res.Elapsed))))
		return
	}
	msg := fmt.Sprintf("Pass %d failed after %s", res.Pass, FormatDuration(res.Elapsed))
	if res.StartErr != nil {
		msg += ": " + res.StartErr.Error()
	}
	c.println(c.fail.Render(msg))
}

func (c *ConsoleReporter) Info(msg string) { c.println(msg) }
func (c *ConsoleReporter) Warn(msg string) { c.println(c.warn.Render(msg)) }
func (c *ConsoleReporter) Fail(msg string) { c.println(c.fail.Render(msg)) }

func (c *ConsoleReporter) ToolOutput(line string) { c.println("  " + line) }

func (c *ConsoleReporter) progressLine(ev Event) {
	p := ev.Progress
	if p.Total <= 0 {
		return
	}
	eta := ""
	if p.HasETA && p.Remaining > 0 {
		eta = " | ETA: " + FormatDuration(p.Remaining)
	}
	fmt.Fprintf(c.w, "\r[%s] %.1f%% | Ch.%02d: %-20s | %s%s",
		c.bar.ViewAs(p.Fraction), p.Fraction*100, ev.Chapter, truncate(ev.ChapterName, 20),
		FormatDuration(p.Elapsed), eta)
	c.inline = true
}

func (c *ConsoleReporter) println(s string) {
	if c.inline {
		fmt.Fprintln(c.w)
		c.inline = false
	}
	fmt.Fprintln(c.w, s)
}

func passTitle(pass int) string {
	if pass == 1 {
		return "Building document structure"
	}
	return "Finalizing cross-references"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
