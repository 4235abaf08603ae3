package chapterpages

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Header is the column schema of the chapter pages CSV.
var Header = []string{
	"chapter_num", "chapter_title", "folder_name", "full_folder",
	"start_page", "end_page", "page_length",
}

const topN = 10

// CSVName returns the output file name for base.
func CSVName(base string) string {
	return "chapter_pages_analysis_" + base + ".csv"
}

// WriteCSV writes one row per chapter in chapter order.
func WriteCSV(w io.Writer, chapters []Chapter) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, c := range chapters {
		rec := []string{
			strconv.Itoa(c.Number), c.Title, c.FolderName, c.FullFolder,
			strconv.Itoa(c.Start), strconv.Itoa(c.End), strconv.Itoa(c.Length),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV to path.
func WriteFile(path string, chapters []Chapter) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chapter pages csv: %w", err)
	}
	if err := WriteCSV(f, chapters); err != nil {
		f.Close()
		return fmt.Errorf("write chapter pages csv: %w", err)
	}
	return f.Close()
}

// Longest returns up to n chapters ordered by length descending. Ties keep
// chapter order.
func Longest(chapters []Chapter, n int) []Chapter {
	out := append([]Chapter(nil), chapters...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Length > out[j].Length })
	return out[:min(n, len(out))]
}

// Shortest returns up to n chapters ordered by length ascending.
func Shortest(chapters []Chapter, n int) []Chapter {
	out := append([]Chapter(nil), chapters...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Length < out[j].Length })
	return out[:min(n, len(out))]
}

// WriteSummary prints the chapter table, statistics, distribution and the
// longest and shortest chapters.
func WriteSummary(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Total pages: %d (from %s)\n\n", a.Total, a.Source)

	fmt.Fprintf(w, "%-4s %-40s %-25s %6s %6s %6s\n", "Ch", "Title", "Folder", "Start", "End", "Pages")
	fmt.Fprintln(w, strings.Repeat("-", 92))
	for _, c := range a.Chapters {
		fmt.Fprintf(w, "%-4d %-40s %-25s %6d %6d %6d\n",
			c.Number, clip(c.Title, 40), clip(c.FolderName, 25), c.Start, c.End, c.Length)
	}

	s := a.Stats
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Chapters:           %d\n", s.Count)
	fmt.Fprintf(w, "Total chapter pages: %d\n", s.Total)
	fmt.Fprintf(w, "Average length:     %.1f\n", s.Avg)
	fmt.Fprintf(w, "Median length:      %d\n", s.Median)
	fmt.Fprintf(w, "90th percentile:    %.1f\n", s.P90)
	fmt.Fprintf(w, "Shortest:           %d\n", s.Min)
	fmt.Fprintf(w, "Longest:            %d\n", s.Max)
	fmt.Fprintf(w, "Standard deviation: %.1f\n", s.StdDev)

	fmt.Fprintln(w, "\nLength distribution:")
	for _, b := range Distribution(a.Chapters) {
		fmt.Fprintf(w, "  %3d pages: %3d chapters (%5.1f%%) %s\n",
			b.Length, b.Chapters, b.Percent, strings.Repeat("#", b.Chapters))
	}

	fmt.Fprintln(w, "\nLongest chapters:")
	for _, c := range Longest(a.Chapters, topN) {
		fmt.Fprintf(w, "  %3d pages  Ch %d: %s\n", c.Length, c.Number, c.Title)
	}
	fmt.Fprintln(w, "\nShortest chapters:")
	for _, c := range Shortest(a.Chapters, topN) {
		fmt.Fprintf(w, "  %3d pages  Ch %d: %s\n", c.Length, c.Number, c.Title)
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
