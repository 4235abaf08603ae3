package pagetable

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/bookctl/internal/book"
)

// Header is the column schema of the page structure CSV.
var Header = []string{
	"page", "chapter", "chapter_name", "section",
	"page_in_chapter", "page_in_section", "has_warning", "warning_type",
}

// PageCounter reports the page count of a PDF.
type PageCounter interface {
	Count(ctx context.Context, path string) (int, error)
}

// Options configures Generate.
type Options struct {
	Dir      string // directory holding the auxiliary files
	Base     string // document base name
	PDF      string // artifact path; empty to rely on auxiliary files only
	Counter  PageCounter
	Fallback int
	Log      *slog.Logger
}

// Report is the outcome of Generate.
type Report struct {
	Rows          []Row
	CSVPath       string
	AuxChapters   int
	AuxReferences int
	TocEntries    int
	LogPages      int
	Total         int
	Counted       bool // Total came from the PDF itself
}

// CSVName returns the output file name for base.
func CSVName(base string) string {
	return base + "_page_structure.csv"
}

// Generate parses <base>.aux, <base>.toc and <base>.log, merges them and
// writes <base>_page_structure.csv. Missing or unreadable auxiliary files
// contribute nothing.
func Generate(ctx context.Context, opts Options) (*Report, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("base", opts.Base)
	path := func(ext string) string { return filepath.Join(opts.Dir, opts.Base+ext) }

	aux := ParseAux(book.ReadFile(path(".aux"), log))
	toc := ParseToc(book.ReadFile(path(".toc"), log))
	logLayer := ParseLog(book.ReadFile(path(".log"), log))

	rep := &Report{
		AuxChapters:   len(aux.Chapters),
		AuxReferences: len(aux.References),
		TocEntries:    len(toc),
		LogPages:      len(logLayer),
	}

	counted := 0
	if opts.PDF != "" && opts.Counter != nil {
		n, err := opts.Counter.Count(ctx, opts.PDF)
		if err != nil {
			log.Warn("count pdf pages", "pdf", opts.PDF, "error", err)
		} else {
			counted = n
		}
	}
	rep.Counted = counted > 0
	rep.Total = TotalPages(counted, opts.Fallback, aux.MaxPage(), toc.MaxPage(), logLayer.MaxPage())
	rep.Rows = Merge(rep.Total, aux.Chapters, logLayer, toc)

	rep.CSVPath = filepath.Join(opts.Dir, CSVName(opts.Base))
	f, err := os.Create(rep.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("create page table: %w", err)
	}
	if err := WriteCSV(f, rep.Rows); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close page table: %w", err)
	}

	log.Info("page table written", "path", rep.CSVPath, "pages", rep.Total, "counted", rep.Counted)
	return rep, nil
}

// WriteCSV writes rows with the Header schema.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write page table header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.Page),
			strconv.Itoa(r.Chapter),
			r.ChapterName,
			r.Section,
			strconv.Itoa(r.PageInChapter),
			strconv.Itoa(r.PageInSection),
			strconv.FormatBool(r.HasWarning),
			r.WarningType,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write page table row %d: %w", r.Page, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush page table: %w", err)
	}
	return nil
}

// SectionCount is one line of the section breakdown.
type SectionCount struct {
	Section string
	Pages   int
}

// Breakdown counts pages per section, largest first.
func Breakdown(rows []Row) []SectionCount {
	counts := map[string]int{}
	for _, r := range rows {
		counts[r.Section]++
	}
	out := make([]SectionCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, SectionCount{Section: s, Pages: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pages != out[j].Pages {
			return out[i].Pages > out[j].Pages
		}
		return out[i].Section < out[j].Section
	})
	return out
}

// WriteSummary prints the console summary of a report.
func WriteSummary(w io.Writer, rep *Report) {
	fmt.Fprintln(w, "GENERATING PAGE STRUCTURE TABLE")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "  - Aux chapter labels: %d\n", rep.AuxChapters)
	fmt.Fprintf(w, "  - Aux reference pages: %d\n", rep.AuxReferences)
	fmt.Fprintf(w, "  - ToC entries: %d\n", rep.TocEntries)
	fmt.Fprintf(w, "  - Log page mappings: %d\n", rep.LogPages)
	if rep.Counted {
		fmt.Fprintf(w, "PDF contains %d pages\n", rep.Total)
	} else {
		fmt.Fprintf(w, "Estimated %d pages (from auxiliary files)\n", rep.Total)
	}
	fmt.Fprintf(w, "Page structure table saved: %s\n", rep.CSVPath)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SECTION BREAKDOWN:")
	for _, sc := range Breakdown(rep.Rows) {
		fmt.Fprintf(w, "  %-12s: %3d pages\n", sc.Section, sc.Pages)
	}
	warnings := 0
	for _, r := range rep.Rows {
		if r.HasWarning {
			warnings++
		}
	}
	if warnings > 0 {
		fmt.Fprintf(w, "\nPages with warnings: %d\n", warnings)
	}
}
