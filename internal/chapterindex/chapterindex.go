// Package chapterindex builds a CSV inventory of chapter directories: which
// fragment files exist, which PDFs and images they hold.
package chapterindex

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/bookctl/internal/texclean"
)

// FileName is the default output name.
const FileName = "chapter_index.csv"

var chapterDirRe = regexp.MustCompile(`^\d{2}_`)

// Tracked lists the fragment files reported as Has columns, in column order.
var Tracked = []string{
	"title.tex", "summary.tex", "main.tex", "technical.tex", "historical.tex",
	"sidenote.tex", "topicmap.tex", "quote.tex", "exercises.tex", "joke.tex",
}

var imageExts = []string{".png", ".jpg", ".jpeg", ".pdf"}

// Header returns the 17 column names.
func Header() []string {
	h := []string{"Number", "Folder Name", "Topic", "Title", "Main PDF", "Other PDFs"}
	for _, name := range Tracked {
		h = append(h, "Has "+name)
	}
	return append(h, "Has Images")
}

// Row describes one chapter directory.
type Row struct {
	Number    int
	Folder    string
	Topic     string
	Title     string
	MainPDF   string
	OtherPDFs []string
	Has       map[string]bool // keyed by Tracked file name
	HasImages bool
}

// Record formats the row for CSV output.
func (r Row) Record() []string {
	rec := []string{
		strconv.Itoa(r.Number),
		r.Folder,
		r.Topic,
		r.Title,
		r.MainPDF,
		strings.Join(r.OtherPDFs, "; "),
	}
	for _, name := range Tracked {
		rec = append(rec, yesNo(r.Has[name]))
	}
	return append(rec, yesNo(r.HasImages))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Dirs returns the chapter directories (two-digit prefix) under root, sorted.
func Dirs(root string) ([]string, error) {
	items, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read book directory: %w", err)
	}
	var dirs []string
	for _, item := range items {
		if item.IsDir() && chapterDirRe.MatchString(item.Name()) {
			dirs = append(dirs, item.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Build inspects every chapter directory under root using up to workers
// goroutines. Rows keep directory order.
func Build(ctx context.Context, root string, workers int, log *slog.Logger) ([]Row, error) {
	if log == nil {
		log = slog.Default()
	}
	dirs, err := Dirs(root)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(dirs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, dir := range dirs {
		i, dir := i, dir
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := inspect(root, dir, log)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func inspect(root, dir string, log *slog.Logger) (Row, error) {
	path := filepath.Join(root, dir)
	entries, err := os.ReadDir(path)
	if err != nil {
		return Row{}, fmt.Errorf("read chapter %s: %w", dir, err)
	}

	n, _ := strconv.Atoi(dir[:2])
	row := Row{
		Number: n,
		Folder: dir,
		Topic:  dir,
		Title:  "N/A",
		Has:    make(map[string]bool, len(Tracked)),
	}
	if _, topic, ok := strings.Cut(dir, "_"); ok {
		row.Topic = topic
	}

	present := make(map[string]bool, len(entries))
	prefix := fmt.Sprintf("%02d_", n)
	for _, e := range entries {
		name := e.Name()
		present[name] = true
		lower := strings.ToLower(name)
		for _, ext := range imageExts {
			if strings.HasSuffix(lower, ext) {
				row.HasImages = true
			}
		}
		if !strings.HasSuffix(name, ".pdf") {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			row.MainPDF = name
		} else {
			row.OtherPDFs = append(row.OtherPDFs, name)
		}
	}
	for _, name := range Tracked {
		row.Has[name] = present[name]
	}

	if data, err := os.ReadFile(filepath.Join(path, "title.tex")); err == nil {
		row.Title = texclean.Title(string(data))
	} else if present["title.tex"] {
		log.Warn("read chapter title", "chapter", dir, "error", err)
	}
	return row, nil
}

// WriteCSV writes the header and rows.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return fmt.Errorf("write chapter index header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.Record()); err != nil {
			return fmt.Errorf("write chapter index row %s: %w", r.Folder, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush chapter index: %w", err)
	}
	return nil
}

// WriteFile writes the CSV to path.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chapter index: %w", err)
	}
	if err := WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Stats counts chapters with optional material.
type Stats struct {
	Chapters  int
	Exercises int
	Jokes     int
	Images    int
}

// Summarize computes Stats over rows.
func Summarize(rows []Row) Stats {
	s := Stats{Chapters: len(rows)}
	for _, r := range rows {
		if r.Has["exercises.tex"] {
			s.Exercises++
		}
		if r.Has["joke.tex"] {
			s.Jokes++
		}
		if r.HasImages {
			s.Images++
		}
	}
	return s
}
