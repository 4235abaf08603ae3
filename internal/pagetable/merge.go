package pagetable

// SectionUnknown is the section of pages before any source has data.
const SectionUnknown = "unknown"

// Row is one page of the structure table.
type Row struct {
	Page          int
	Chapter       int
	ChapterName   string
	Section       string
	PageInChapter int
	PageInSection int
	HasWarning    bool
	WarningType   string
}

// Overlay folds the layers into one page-keyed mapping, keeping for each
// page the mark with the highest Source.
func Overlay(layers ...Layer) Layer {
	out := Layer{}
	for _, layer := range layers {
		for page, m := range layer {
			if cur, ok := out[page]; !ok || m.Source > cur.Source {
				out[page] = m
			}
		}
	}
	return out
}

// Merge produces one row for every page from 1 to total. Pages without a
// mark carry the previous page's chapter and section forward.
// page_in_chapter restarts when the chapter number changes; page_in_section
// restarts only when the section label changes, so a new chapter that opens
// in the same section keeps counting.
func Merge(total int, layers ...Layer) []Row {
	marks := Overlay(layers...)
	st := cursor{section: SectionUnknown, chapterStart: 1, sectionStart: 1}

	rows := make([]Row, 0, total)
	for page := 1; page <= total; page++ {
		if m, ok := marks[page]; ok {
			st.apply(page, m)
		}
		rows = append(rows, Row{
			Page:          page,
			Chapter:       st.chapter,
			ChapterName:   st.chapterName,
			Section:       st.section,
			PageInChapter: page - st.chapterStart + 1,
			PageInSection: page - st.sectionStart + 1,
		})
	}
	return rows
}

type cursor struct {
	chapter      int
	chapterName  string
	section      string
	chapterStart int
	sectionStart int
}

func (c *cursor) apply(page int, m Mark) {
	section := c.section
	if m.Section != "" {
		section = m.Section
	}
	if m.Chapter != c.chapter {
		c.chapterStart = page
	}
	if section != c.section {
		c.sectionStart = page
	}
	c.chapter = m.Chapter
	c.section = section
	if m.ChapterName != "" {
		c.chapterName = m.ChapterName
	}
}

// TotalPages picks the page count for the table: the counted total when
// positive, else the highest page seen in any source, else fallback.
func TotalPages(counted, fallback int, seen ...int) int {
	if counted > 0 {
		return counted
	}
	hi := 0
	for _, p := range seen {
		if p > hi {
			hi = p
		}
	}
	if hi > 0 {
		return hi
	}
	return fallback
}
