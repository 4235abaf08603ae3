package chapterpages

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

const sampleToc = `\contentsline {chapter}{\numberline {2}Primes}{15}{chapter.2}%
\contentsline {section}{\numberline {2.1}Sieve}{16}{section.2.1}%
\contentsline {chapter}{\numberline {1}The Golden \\ {\small Ratio}}{3}{chapter.1}%
\contentsline {chapter}{\numberline {3}Infinity}{27}{chapter.3}%
`

type fakeCounter struct {
	n      int
	err    error
	called bool
}

func (f *fakeCounter) Count(context.Context, string) (int, error) {
	f.called = true
	return f.n, f.err
}

func TestParseToc(t *testing.T) {
	want := []Entry{
		{Number: 1, Title: "The Golden", Start: 3},
		{Number: 2, Title: "Primes", Start: 15},
		{Number: 3, Title: "Infinity", Start: 27},
	}
	if diff := cmp.Diff(want, ParseToc(sampleToc)); diff != "" {
		t.Errorf("ParseToc mismatch (-want +got):\n%s", diff)
	}
	if got := ParseToc("no chapters here"); len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
}

func TestLogPages(t *testing.T) {
	n, ok := LogPages("junk\nOutput written on main.pdf (412 pages, 9876543 bytes).\n")
	assert.True(t, ok)
	assert.Equal(t, 412, n)

	_, ok = LogPages("No pages of output.")
	assert.False(t, ok)
}

func TestSpans(t *testing.T) {
	entries := []Entry{
		{Number: 1, Start: 3},
		{Number: 2, Start: 15},
		{Number: 3, Start: 15},
		{Number: 4, Start: 20},
	}
	got := Spans(entries, 30)
	ends := []int{14, 14, 19, 30}
	lengths := []int{12, 1, 5, 11}
	for i, c := range got {
		assert.Equal(t, ends[i], c.End, "chapter %d end", c.Number)
		assert.Equal(t, lengths[i], c.Length, "chapter %d length", c.Number)
	}
}

func TestSummarize(t *testing.T) {
	chapters := []Chapter{{Length: 12}, {Length: 16}, {Length: 4}, {Length: 4}}
	s := Summarize(chapters)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 36, s.Total)
	assert.Equal(t, 4, s.Min)
	assert.Equal(t, 16, s.Max)
	assert.Equal(t, 12, s.Median)
	assert.InDelta(t, 9.0, s.Avg, 1e-9)
	assert.InDelta(t, 14.8, s.P90, 1e-9)
	assert.InDelta(t, 5.196, s.StdDev, 1e-3)

	assert.Equal(t, Stats{}, Summarize(nil))
}

func TestDistribution(t *testing.T) {
	chapters := []Chapter{{Length: 12}, {Length: 4}, {Length: 4}, {Length: 16}}
	want := []Bucket{
		{Length: 4, Chapters: 2, Percent: 50},
		{Length: 12, Chapters: 1, Percent: 25},
		{Length: 16, Chapters: 1, Percent: 25},
	}
	if diff := cmp.Diff(want, Distribution(chapters)); diff != "" {
		t.Errorf("Distribution mismatch (-want +got):\n%s", diff)
	}
}

func TestLongestShortest(t *testing.T) {
	chapters := []Chapter{
		{Entry: Entry{Number: 1}, Length: 5},
		{Entry: Entry{Number: 2}, Length: 9},
		{Entry: Entry{Number: 3}, Length: 5},
	}
	long := Longest(chapters, 2)
	require.Len(t, long, 2)
	assert.Equal(t, 2, long[0].Number)
	assert.Equal(t, 1, long[1].Number)

	short := Shortest(chapters, 10)
	require.Len(t, short, 3)
	assert.Equal(t, []int{1, 3, 2}, []int{short[0].Number, short[1].Number, short[2].Number})
	assert.Equal(t, 1, chapters[0].Number, "input must not be reordered")
}

func writeBook(t *testing.T, dir string, files map[string]string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o755))
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func TestAnalyze_LogTotalAndStoryOrder(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, dir, map[string]string{
		"main.toc": sampleToc,
		"main.log": "Output written on main.pdf (40 pages, 1234 bytes).",
		"main.tex": "\\begin{document}\n" +
			"\\inputstory{02_primes}\n" +
			"% \\inputstory{04_commented}\n" +
			"\\begin{comment}\n\\inputstory{03_skip}\n\\end{comment}\n" +
			"\\inputstory{01_golden}\n" +
			"\\end{document}\n",
	}, "01_golden", "02_primes", "03_skip", "04_commented")

	counter := &fakeCounter{n: 99}
	a, err := Analyze(context.Background(), Options{Dir: dir, Base: "main", Counter: counter, Log: quiet})
	require.NoError(t, err)
	assert.False(t, counter.called, "log total must win over the PDF")
	assert.Equal(t, 40, a.Total)
	assert.Equal(t, TotalFromLog, a.Source)

	require.Len(t, a.Chapters, 3)
	assert.Equal(t, "primes", a.Chapters[0].FolderName)
	assert.Equal(t, "02_primes", a.Chapters[0].FullFolder)
	assert.Equal(t, "golden", a.Chapters[1].FolderName)
	assert.Equal(t, "Unknown", a.Chapters[2].FolderName)
	assert.Equal(t, "Chapter03", a.Chapters[2].FullFolder)
	assert.Equal(t, 14, a.Chapters[2].Length)
	assert.Equal(t, 3, a.Stats.Count)
}

func TestAnalyze_TotalFallbacks(t *testing.T) {
	dir := t.TempDir()
	writeBook(t, dir, map[string]string{"main.toc": sampleToc}, "01_golden", "03_infinity")

	a, err := Analyze(context.Background(), Options{Dir: dir, Base: "main", Counter: &fakeCounter{n: 50}, Log: quiet})
	require.NoError(t, err)
	assert.Equal(t, 50, a.Total)
	assert.Equal(t, TotalFromPDF, a.Source)
	assert.Equal(t, "golden", a.Chapters[0].FolderName)
	assert.Equal(t, "Unknown", a.Chapters[1].FolderName)
	assert.Equal(t, "infinity", a.Chapters[2].FolderName)

	a, err = Analyze(context.Background(), Options{
		Dir: dir, Base: "main", Counter: &fakeCounter{err: errors.New("no pdf")}, Log: quiet,
	})
	require.NoError(t, err)
	assert.Equal(t, 37, a.Total)
	assert.Equal(t, TotalFromEstimate, a.Source)
	assert.Equal(t, 11, a.Chapters[2].Length)
}

func TestAnalyze_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Analyze(context.Background(), Options{Dir: dir, Base: "main", Log: quiet})
	require.ErrorIs(t, err, os.ErrNotExist)

	writeBook(t, dir, map[string]string{"main.toc": "\\contentsline {section}{x}{1}{}"})
	_, err = Analyze(context.Background(), Options{Dir: dir, Base: "main", Log: quiet})
	require.ErrorIs(t, err, ErrNoChapters)
}

func TestWriteCSV(t *testing.T) {
	chapters := Spans([]Entry{{Number: 1, Title: "Golden, Ratio", Start: 3}}, 10)
	chapters[0].FolderName, chapters[0].FullFolder = "golden", "01_golden"

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, chapters))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	want := [][]string{
		Header,
		{"1", "Golden, Ratio", "golden", "01_golden", "3", "10", "8"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "chapter_pages_analysis_main.csv", CSVName("main"))
}

func TestWriteSummary(t *testing.T) {
	a := &Analysis{
		Chapters: Spans([]Entry{{Number: 1, Title: "Golden", Start: 1}, {Number: 2, Title: "Primes", Start: 6}}, 8),
		Total:    8,
		Source:   TotalFromLog,
	}
	a.Stats = Summarize(a.Chapters)
	var buf bytes.Buffer
	WriteSummary(&buf, a)
	out := buf.String()
	assert.Contains(t, out, "Total pages: 8 (from log file)")
	assert.Contains(t, out, "Length distribution:")
	assert.True(t, strings.Contains(out, "Ch 1: Golden"), out)
}
