package book

import (
	"regexp"
	"strconv"
	"strings"
)

// ChapterRef is one chapter directive in the root document.
type ChapterRef struct {
	Label string // Cross-reference label; empty when the directive has none
	Dir   string // Directory holding the chapter's fragment files
	Line  int    // 0-based line index in the root document
}

var dirNumberRe = regexp.MustCompile(`^(\d+)_`)

// Number returns the numeric prefix of the chapter directory ("07_fractals" -> 7).
func (c ChapterRef) Number() (int, bool) {
	m := dirNumberRe.FindStringSubmatch(c.Dir)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Name returns the descriptive part of the directory name.
func (c ChapterRef) Name() string {
	if loc := dirNumberRe.FindStringIndex(c.Dir); loc != nil {
		return c.Dir[loc[1]:]
	}
	return c.Dir
}

// Role names one fragment file inside a chapter directory.
type Role string

const (
	RoleTitle           Role = "title"
	RoleSummary         Role = "summary"
	RoleMain            Role = "main"
	RoleTechnical       Role = "technical"
	RoleSidenote        Role = "sidenote"
	RoleHistorical      Role = "historical"
	RoleTopicmap        Role = "topicmap"
	RoleQuote           Role = "quote"
	RolePhenomenonExtra Role = "phenomenon_extra"
	RoleJoke            Role = "joke"
	RoleExercises       Role = "exercises"
	RoleCartoon         Role = "cartoon"
	RoleImageFigure     Role = "imagefigure"
)

// RequiredRoles are expected in every chapter directory.
var RequiredRoles = []Role{RoleTitle, RoleSummary, RoleMain, RoleTechnical}

// ExtraRoles follow the main text, in this order, when present.
var ExtraRoles = []Role{RolePhenomenonExtra, RoleJoke, RoleExercises, RoleCartoon, RoleImageFigure}

// Filename is the fixed file name for the role.
func (r Role) Filename() string { return string(r) + ".tex" }

// Required reports whether a missing file for r is a gap in the chapter.
func (r Role) Required() bool {
	for _, req := range RequiredRoles {
		if r == req {
			return true
		}
	}
	return false
}

// IsComment reports whether the line is a LaTeX comment line.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "%")
}

// CommentIndex returns the byte offset of the first unescaped '%' in line, or -1.
func CommentIndex(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '%' && (i == 0 || line[i-1] != '\\') {
			return i
		}
	}
	return -1
}
