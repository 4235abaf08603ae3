package monitor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/bookctl/internal/book"
)

// CompletionMarker is printed by the compiler once the artifact is written.
const CompletionMarker = "Output written on"

// DefaultChapterCount is assumed when the source has no chapter directives.
const DefaultChapterCount = 50

var (
	chapterPathRe = regexp.MustCompile(`(\d+)_([^/]+)/`)
	completionRe  = regexp.MustCompile(`(\d+) pages.*?(\d+) bytes`)
	curiosityRe   = regexp.MustCompile(`^\d+show[A-Za-z]+$`)
)

var chapterFiles = []string{"title.tex", "summary.tex", "main.tex"}

var (
	errorNeedles  = []string{"error", "emergency stop", "! "}
	benignNeedles = []string{".code.tex", ".sty", "errorbars.cod"}
)

// ParseChapterLine extracts the chapter number and directory name from a log
// line that opens one of a chapter's fragment files.
func ParseChapterLine(line string) (int, string, bool) {
	if !strings.Contains(line, "/") {
		return 0, "", false
	}
	hit := false
	for _, f := range chapterFiles {
		if strings.Contains(line, f) {
			hit = true
			break
		}
	}
	if !hit {
		return 0, "", false
	}
	m := chapterPathRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}

// ParseCompletion reports whether line carries the completion marker and, if
// the numbers are present, the page count and byte size.
func ParseCompletion(line string) (pages int, size int64, ok bool) {
	if !strings.Contains(line, CompletionMarker) {
		return 0, 0, false
	}
	if m := completionRe.FindStringSubmatch(line); m != nil {
		pages, _ = strconv.Atoi(m[1])
		size, _ = strconv.ParseInt(m[2], 10, 64)
	}
	return pages, size, true
}

// IsCuriosity flags single-token lines such as "7showTitle": a number run into
// a show-command name, usually a stray macro expansion in the output.
func IsCuriosity(line string) bool {
	return curiosityRe.MatchString(line)
}

// IsErrorLine applies substring heuristics to spot compiler errors while
// ignoring warnings, file-loading chatter and known noisy package files.
func IsErrorLine(line string) bool {
	lower := strings.ToLower(line)
	hit := false
	for _, n := range errorNeedles {
		if strings.Contains(lower, n) {
			hit = true
			break
		}
	}
	if !hit {
		return false
	}
	if strings.Contains(lower, "warning") || strings.HasPrefix(line, "(") {
		return false
	}
	for _, n := range benignNeedles {
		if strings.Contains(line, n) {
			return false
		}
	}
	return true
}

// CountChapters counts uncommented chapter directives in a source file's content.
func CountChapters(content string) int {
	n := 0
	for _, line := range strings.Split(content, "\n") {
		if book.IsComment(line) {
			continue
		}
		if strings.Contains(line, book.ChapterDirective) {
			n++
		}
	}
	if n == 0 {
		return DefaultChapterCount
	}
	return n
}
