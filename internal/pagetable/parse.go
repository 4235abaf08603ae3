// Package pagetable maps every page of the compiled book to its chapter and
// section, using the compiler's auxiliary files.
package pagetable

import (
	"regexp"
	"strconv"
	"strings"
)

// Source identifies which auxiliary file a Mark came from. Higher values
// take precedence when two sources describe the same page.
type Source int

const (
	SourceAux Source = iota + 1
	SourceLog
	SourceToc
)

func (s Source) String() string {
	switch s {
	case SourceAux:
		return "aux"
	case SourceLog:
		return "log"
	case SourceToc:
		return "toc"
	}
	return "unknown"
}

// SectionTitlePage is the section recorded for pages found in the contents table.
const SectionTitlePage = "title_page"

// Mark is what one source knows about one page.
type Mark struct {
	Source      Source
	Chapter     int
	ChapterName string
	Section     string // empty keeps the current section
	File        string
}

// Layer is a page-keyed set of marks from one source.
type Layer map[int]Mark

// MaxPage returns the highest page number in the layer, or 0.
func (l Layer) MaxPage() int {
	hi := 0
	for page := range l {
		if page > hi {
			hi = page
		}
	}
	return hi
}

var (
	auxChapterRe = regexp.MustCompile(`\\newlabel\{ch:([^}]+)\}\{\{(\d+)\}\{(\d+)\}`)
	auxLabelRe   = regexp.MustCompile(`\\newlabel\{([^}]+)\}\{\{[^}]*\}\{(\d+)\}`)

	tocChapterRe = regexp.MustCompile(`\\contentsline\s*\{chapter\}\{\\numberline\s*\{(\d+)\}([^}]+).*?\}\{(\d+)\}`)
	tocBreakRe   = regexp.MustCompile(`(?s)\\\\.*$`)
	spaceRe      = regexp.MustCompile(`\s+`)

	logPageRe = regexp.MustCompile(`^\[(\d+)`)
	logFileRe = regexp.MustCompile(`\(\.?/?(\d+_[^/]+/\w+\.tex)`)
	chapDirRe = regexp.MustCompile(`^(\d+)_(.+)$`)
)

// Aux holds the parsed cross-reference table.
type Aux struct {
	Chapters   Layer
	References map[int][]string // other labels by page
}

// ParseAux extracts chapter labels, which carry the chapter number and its
// first page, and the page of every other label.
func ParseAux(content string) Aux {
	aux := Aux{Chapters: Layer{}, References: map[int][]string{}}

	for _, m := range auxChapterRe.FindAllStringSubmatch(content, -1) {
		chapter, _ := strconv.Atoi(m[2])
		page, _ := strconv.Atoi(m[3])
		aux.Chapters[page] = Mark{Source: SourceAux, Chapter: chapter, ChapterName: m[1]}
	}
	for _, m := range auxLabelRe.FindAllStringSubmatch(content, -1) {
		if strings.HasPrefix(m[1], "ch:") {
			continue
		}
		page, _ := strconv.Atoi(m[2])
		aux.References[page] = append(aux.References[page], m[1])
	}
	return aux
}

// ParseToc extracts chapter entries from the contents table. Each marks the
// chapter's title page.
func ParseToc(content string) Layer {
	layer := Layer{}
	for _, m := range tocChapterRe.FindAllStringSubmatch(content, -1) {
		chapter, _ := strconv.Atoi(m[1])
		page, _ := strconv.Atoi(m[3])
		title := strings.TrimSpace(tocBreakRe.ReplaceAllString(m[2], ""))
		title = spaceRe.ReplaceAllString(title, " ")
		layer[page] = Mark{
			Source:      SourceToc,
			Chapter:     chapter,
			ChapterName: title,
			Section:     SectionTitlePage,
		}
	}
	return layer
}

// ParseLog follows page shipouts ("[N") and chapter fragment inclusions in
// the compiler log. A fragment is attributed to the most recent page number
// seen; the last inclusion on a page wins.
func ParseLog(content string) Layer {
	layer := Layer{}
	page := 1
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if m := logPageRe.FindStringSubmatch(line); m != nil {
			page, _ = strconv.Atoi(m[1])
		}
		m := logFileRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		dir, file, ok := strings.Cut(m[1], "/")
		if !ok {
			continue
		}
		cm := chapDirRe.FindStringSubmatch(dir)
		if cm == nil {
			continue
		}
		chapter, _ := strconv.Atoi(cm[1])
		layer[page] = Mark{
			Source:      SourceLog,
			Chapter:     chapter,
			ChapterName: cm[2],
			Section:     strings.TrimSuffix(file, ".tex"),
			File:        m[1],
		}
	}
	return layer
}

// MaxPage returns the highest page carrying a chapter label or any other label.
func (a Aux) MaxPage() int {
	hi := a.Chapters.MaxPage()
	for page := range a.References {
		if page > hi {
			hi = page
		}
	}
	return hi
}
