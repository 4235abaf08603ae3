// Package chapterpages measures how many pages each chapter of the compiled
// book occupies.
package chapterpages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/bookctl/internal/book"
	"github.com/dgallion1/bookctl/internal/texclean"
)

// ErrNoChapters is returned when the contents table lists no chapters.
var ErrNoChapters = errors.New("no chapters found in contents table")

// unknownTailPages is added to the last chapter start when the total page
// count cannot be determined.
const unknownTailPages = 10

var (
	tocRe        = regexp.MustCompile(`\\contentsline\s*\{chapter\}\s*\{\\numberline\s*\{(\d+)\}(.*?)\}\s*\{(\d+)\}`)
	outputRe     = regexp.MustCompile(`Output written on [^(]*\((\d+) pages`)
	commentEnvRe = regexp.MustCompile(`(?s)\\begin\{comment\}.*?\\end\{comment\}`)
	folderRe     = regexp.MustCompile(`^(\d+)_(.+)$`)
)

// Entry is a chapter start read from the contents table.
type Entry struct {
	Number int
	Title  string
	Start  int
}

// Chapter is an Entry with its page span and source folder.
type Chapter struct {
	Entry
	End        int
	Length     int
	FolderName string
	FullFolder string
}

// ParseToc returns the chapter entries of a .toc file ordered by number.
func ParseToc(content string) []Entry {
	var out []Entry
	for _, m := range tocRe.FindAllStringSubmatch(content, -1) {
		n, _ := strconv.Atoi(m[1])
		start, _ := strconv.Atoi(m[3])
		title := m[2]
		if i := strings.Index(title, `\\`); i >= 0 {
			title = title[:i]
		}
		if i := strings.IndexAny(title, "{}"); i >= 0 {
			title = title[:i]
		}
		out = append(out, Entry{Number: n, Title: texclean.Collapse(title), Start: start})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// LogPages reads the page count from the compiler's "Output written on" line.
func LogPages(content string) (int, bool) {
	m := outputRe.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// Spans turns chapter starts into spans. Each chapter ends the page before
// the next one starts; the last ends at total. Lengths are at least 1.
func Spans(entries []Entry, total int) []Chapter {
	out := make([]Chapter, 0, len(entries))
	for i, e := range entries {
		end := total
		if i+1 < len(entries) {
			end = entries[i+1].Start - 1
		} else if total <= 0 {
			end = e.Start
		}
		out = append(out, Chapter{Entry: e, End: end, Length: max(1, end-e.Start+1)})
	}
	return out
}

// Folder is one chapter directory in inclusion order.
type Folder struct {
	Name string // descriptive part after the number prefix
	Full string
}

// Folders maps chapter positions (1-based) to their directories, following
// the \inputstory order of the root document. Commented lines and comment
// environments are ignored. When the root names no existing directories,
// numbered directories under dir are used, keyed by their prefix.
func Folders(dir, rootTex string, log *slog.Logger) map[int]Folder {
	out := map[int]Folder{}
	if data, err := os.ReadFile(rootTex); err == nil {
		content := commentEnvRe.ReplaceAllString(string(data), "")
		for i, name := range book.StoryDirs(content) {
			if info, err := os.Stat(filepath.Join(dir, name)); err != nil || !info.IsDir() {
				continue
			}
			out[i+1] = folder(name)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		log.Warn("read root document for chapter order", "path", rootTex, "error", err)
	}
	if len(out) > 0 {
		return out
	}

	log.Warn("chapter order not found in root document, using folder numbers")
	items, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		m := folderRe.FindStringSubmatch(item.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		out[n] = folder(item.Name())
	}
	return out
}

func folder(name string) Folder {
	f := Folder{Name: name, Full: name}
	if m := folderRe.FindStringSubmatch(name); m != nil {
		f.Name = m[2]
	}
	return f
}

// PageCounter reports the page count of a PDF.
type PageCounter interface {
	Count(ctx context.Context, path string) (int, error)
}

// Options configures Analyze.
type Options struct {
	Dir     string
	Base    string
	Counter PageCounter
	Log     *slog.Logger
}

// TotalSource says where Analysis.Total came from.
type TotalSource string

const (
	TotalFromLog      TotalSource = "log file"
	TotalFromPDF      TotalSource = "PDF file"
	TotalFromEstimate TotalSource = "estimate"
)

// Analysis is the result of Analyze.
type Analysis struct {
	Chapters []Chapter
	Total    int
	Source   TotalSource
	Stats    Stats
}

// Analyze reads <base>.toc, <base>.log and <base>.tex under Dir.
func Analyze(ctx context.Context, opts Options) (*Analysis, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	path := func(ext string) string { return filepath.Join(opts.Dir, opts.Base+ext) }

	data, err := os.ReadFile(path(".toc"))
	if err != nil {
		return nil, fmt.Errorf("read contents table: %w", err)
	}
	entries := ParseToc(string(data))
	if len(entries) == 0 {
		return nil, ErrNoChapters
	}

	a := &Analysis{}
	if n, ok := LogPages(book.ReadFile(path(".log"), log)); ok {
		a.Total, a.Source = n, TotalFromLog
	} else if opts.Counter != nil {
		if n, err := opts.Counter.Count(ctx, path(".pdf")); err == nil && n > 0 {
			a.Total, a.Source = n, TotalFromPDF
		} else if err != nil {
			log.Warn("count pdf pages", "error", err)
		}
	}
	if a.Total == 0 {
		a.Total, a.Source = entries[len(entries)-1].Start+unknownTailPages, TotalFromEstimate
	}

	a.Chapters = Spans(entries, a.Total)
	folders := Folders(opts.Dir, path(".tex"), log)
	for i := range a.Chapters {
		c := &a.Chapters[i]
		if f, ok := folders[c.Number]; ok {
			c.FolderName, c.FullFolder = f.Name, f.Full
		} else {
			c.FolderName, c.FullFolder = "Unknown", fmt.Sprintf("Chapter%02d", c.Number)
		}
	}
	a.Stats = Summarize(a.Chapters)
	return a, nil
}
