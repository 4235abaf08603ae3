// Package toc writes a plain-text (and optionally Word) table of contents
// from the chapter directories' title and summary fragments.
package toc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/bookctl/internal/book"
	"github.com/dgallion1/bookctl/internal/texclean"
)

// FileName is the default output name.
const FileName = "TABLE_OF_CONTENTS.txt"

// WrapWidth is the column limit for summaries.
const WrapWidth = 80

var chapterDirRe = regexp.MustCompile(`^(\d+)_`)

// Entry is one chapter in the table.
type Entry struct {
	Number  int
	Dir     string
	Title   string
	Summary string
}

// Heading returns the entry's chapter line.
func (e Entry) Heading() string {
	return fmt.Sprintf("Chapter %02d: %s", e.Number, e.Title)
}

// Scan reads every numbered chapter directory under root, in numeric order.
func Scan(root string, log *slog.Logger) ([]Entry, error) {
	items, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read book directory: %w", err)
	}

	var entries []Entry
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		m := chapterDirRe.FindStringSubmatch(item.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		frag := book.Fragments{Base: root, Dir: item.Name(), Log: log}
		entries = append(entries, Entry{
			Number:  n,
			Dir:     item.Name(),
			Title:   texclean.Plain(frag.Read(book.RoleTitle)),
			Summary: texclean.Plain(frag.Read(book.RoleSummary)),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Number != entries[j].Number {
			return entries[i].Number < entries[j].Number
		}
		return entries[i].Dir < entries[j].Dir
	})
	return entries, nil
}

// Lines renders the text table, one element per output line.
func Lines(bookTitle string, entries []Entry) []string {
	lines := []string{"TABLE OF CONTENTS", "=================", "", bookTitle, ""}
	for _, e := range entries {
		heading := e.Heading()
		lines = append(lines, heading, strings.Repeat("-", utf8.RuneCountInString(heading)))
		if e.Summary == "" {
			lines = append(lines, "(Summary not available)")
		} else {
			lines = append(lines, Wrap(e.Summary, WrapWidth)...)
		}
		lines = append(lines, "")
	}
	return lines
}

// Wrap greedily fills lines of at most width runes. A single word longer
// than width gets a line of its own.
func Wrap(text string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
		n     int
	)
	for _, word := range strings.Fields(text) {
		wl := utf8.RuneCountInString(word)
		if n > 0 && n+1+wl > width {
			lines = append(lines, cur.String())
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(word)
		n += wl
	}
	if n > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// WriteText writes the text table to path and returns the number of lines.
func WriteText(path, bookTitle string, entries []Entry) (int, error) {
	lines := Lines(bookTitle, entries)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		return 0, fmt.Errorf("write table of contents: %w", err)
	}
	return len(lines), nil
}

// DocxPath returns the Word output path next to a text output path.
func DocxPath(textPath string) string {
	return strings.TrimSuffix(textPath, filepath.Ext(textPath)) + ".docx"
}
