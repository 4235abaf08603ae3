// Package subset writes a copy of the root document that keeps only some
// chapters, for quick partial builds.
package subset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/bookctl/internal/book"
)

var (
	ErrEmptySpec = errors.New("no chapters specified")
	ErrNoMatch   = errors.New("no valid chapters selected")
)

// Selection is the parsed form of a chapter specification.
type Selection struct {
	Numbers  []int    // sorted, without duplicates
	Warnings []string // parts that selected nothing
}

// ParseSpec parses a comma-separated list of chapter numbers, ranges such as
// "3-7", and case-insensitive directory name fragments.
func ParseSpec(spec string, chapters []book.ChapterRef) Selection {
	var sel Selection
	seen := map[int]bool{}
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			sel.Numbers = append(sel.Numbers, n)
		}
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			continue
		case strings.Contains(part, "-") && isDigit(part[0]):
			lo, hi, err := parseRange(part)
			if err != nil {
				sel.Warnings = append(sel.Warnings, fmt.Sprintf("Invalid range '%s', skipping", part))
				continue
			}
			for n := lo; n <= hi; n++ {
				add(n)
			}
		case allDigits(part):
			n, _ := strconv.Atoi(part)
			add(n)
		default:
			matched := false
			needle := strings.ToLower(part)
			for _, ch := range chapters {
				if !strings.Contains(strings.ToLower(ch.Dir), needle) {
					continue
				}
				matched = true
				if n, ok := ch.Number(); ok {
					add(n)
				}
			}
			if !matched {
				sel.Warnings = append(sel.Warnings, fmt.Sprintf("No chapter found matching '%s'", part))
			}
		}
	}

	sort.Ints(sel.Numbers)
	return sel
}

func parseRange(part string) (int, int, error) {
	a, b, ok := strings.Cut(part, "-")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: missing '-'", part)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", part, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", part, err)
	}
	return lo, hi, nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

// List prints the chapters of doc ordered by number. Chapters without a
// numeric prefix come last.
func List(w io.Writer, doc *book.RootDocument) {
	chapters := doc.Ordered()
	key := func(ch book.ChapterRef) int {
		if n, ok := ch.Number(); ok {
			return n
		}
		return 999
	}
	sort.SliceStable(chapters, func(i, j int) bool { return key(chapters[i]) < key(chapters[j]) })

	rule := strings.Repeat("-", 80)
	fmt.Fprintln(w, "Available chapters:")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%3s | %-35s | %-25s | %-10s\n", "#", "Directory", "Label", "Status")
	fmt.Fprintln(w, rule)
	for _, ch := range chapters {
		num := "??"
		if n, ok := ch.Number(); ok {
			num = strconv.Itoa(n)
		}
		fmt.Fprintf(w, "%3s | %-35s | %-25s | %-10s\n", num, ch.Dir, ch.Label, doc.StoryStatus(ch))
	}
}

// Render builds the subset document: the preamble, a generated-by comment,
// each selected chapter directive with its story line in original order,
// then everything from \end{document} on. It returns the chapters kept.
func Render(doc *book.RootDocument, numbers []int) (string, []book.ChapterRef, error) {
	if len(numbers) == 0 {
		return "", nil, ErrEmptySpec
	}
	want := map[int]bool{}
	for _, n := range numbers {
		want[n] = true
	}

	var picked []book.ChapterRef
	for _, ch := range doc.Ordered() {
		if n, ok := ch.Number(); ok && want[n] {
			picked = append(picked, ch)
		}
	}
	if len(picked) == 0 {
		return "", nil, ErrNoMatch
	}

	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)
	listed := make([]string, len(sorted))
	for i, n := range sorted {
		listed[i] = strconv.Itoa(n)
	}

	out := append([]string{}, doc.HeaderLines()...)
	out = append(out,
		"",
		"% This is a generated subset of chapters",
		"% Selected chapters: "+strings.Join(listed, ", "),
		"% Generated by bookctl subset",
		"",
	)
	for _, ch := range picked {
		out = append(out, doc.Lines[ch.Line])
		if story, ok := doc.StoryLine(ch); ok {
			out = append(out, story)
		}
		out = append(out, "")
	}
	out = append(out, doc.PostambleLines()...)

	return strings.Join(out, "\n"), picked, nil
}

// WriteFile renders the subset and writes it to path.
func WriteFile(path string, doc *book.RootDocument, numbers []int) ([]book.ChapterRef, error) {
	text, picked, err := Render(doc, numbers)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("write subset: %w", err)
	}
	return picked, nil
}
