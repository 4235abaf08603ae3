package book

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// ChapterDirective is the command token that introduces a chapter.
const ChapterDirective = `\chapterwithsummaryfromfile`

var (
	chapterRe = regexp.MustCompile(`\\chapterwithsummaryfromfile(?:\[([^\]]+)\])?\{([^\}]+)\}`)
	storyRe   = regexp.MustCompile(`\\inputstory\{([^\}]+)\}`)
)

// RootDocument is a root .tex file split into lines with its chapter directives.
type RootDocument struct {
	Lines        []string
	Chapters     []ChapterRef
	FirstChapter int // line index of the first chapter directive, -1 if none
	EndDocument  int // line index of \end{document}, -1 if none
}

// LoadRoot reads and parses the root document at path.
func LoadRoot(path string) (*RootDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read root document: %w", err)
	}
	return ParseRoot(string(data)), nil
}

// ParseRoot extracts chapter directives in file order. Commented directive
// lines are ignored entirely.
func ParseRoot(content string) *RootDocument {
	doc := &RootDocument{
		Lines:        strings.Split(content, "\n"),
		FirstChapter: -1,
		EndDocument:  -1,
	}

	for i, line := range doc.Lines {
		if IsComment(line) {
			continue
		}
		if doc.EndDocument < 0 && strings.Contains(line, `\end{document}`) {
			doc.EndDocument = i
		}
		if !strings.Contains(line, ChapterDirective) {
			continue
		}
		// Any directive line ends the header, even one too malformed to
		// name a chapter.
		if doc.FirstChapter < 0 {
			doc.FirstChapter = i
		}
		m := chapterRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		doc.Chapters = append(doc.Chapters, ChapterRef{
			Label: strings.TrimSpace(m[1]),
			Dir:   strings.TrimSpace(m[2]),
			Line:  i,
		})
	}

	return doc
}

// HeaderLines returns the lines before the first chapter directive, or every
// line when there is none.
func (d *RootDocument) HeaderLines() []string {
	if d.FirstChapter < 0 {
		return d.Lines
	}
	return d.Lines[:d.FirstChapter]
}

// Header is HeaderLines joined back into text.
func (d *RootDocument) Header() string {
	return strings.Join(d.HeaderLines(), "\n")
}

// PostambleLines returns the lines from \end{document} to the end of file.
func (d *RootDocument) PostambleLines() []string {
	if d.EndDocument < 0 {
		return nil
	}
	return d.Lines[d.EndDocument:]
}

// Ordered returns the chapters sorted by their line in the root document.
func (d *RootDocument) Ordered() []ChapterRef {
	out := make([]ChapterRef, len(d.Chapters))
	copy(out, d.Chapters)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// StoryLine returns the content inclusion line that follows a chapter directive.
func (d *RootDocument) StoryLine(ref ChapterRef) (string, bool) {
	next := ref.Line + 1
	if next >= len(d.Lines) {
		return "", false
	}
	line := d.Lines[next]
	if !storyRe.MatchString(line) {
		return "", false
	}
	return line, true
}

// StoryStatus returns the trailing comment on a chapter's inclusion line,
// which authors use as a status note.
func (d *RootDocument) StoryStatus(ref ChapterRef) string {
	line, ok := d.StoryLine(ref)
	if !ok {
		return ""
	}
	if i := CommentIndex(line); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

// StoryDirs returns the directories referenced by uncommented \inputstory lines.
func StoryDirs(content string) []string {
	var dirs []string
	for _, line := range strings.Split(content, "\n") {
		if IsComment(line) {
			continue
		}
		for _, m := range storyRe.FindAllStringSubmatch(line, -1) {
			dirs = append(dirs, strings.TrimSpace(m[1]))
		}
	}
	return dirs
}
