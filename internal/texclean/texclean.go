// Package texclean reduces LaTeX fragments to plain text for reports.
package texclean

import (
	"regexp"
	"strings"

	"github.com/dgallion1/bookctl/internal/book"
)

var (
	cmdArgRe  = regexp.MustCompile(`\\[a-zA-Z]+\{([^}]*)\}`)
	cmdRe     = regexp.MustCompile(`\\[a-zA-Z]+`)
	cmdStarRe = regexp.MustCompile(`\\[a-zA-Z]+\*?`)
	braceRe   = regexp.MustCompile(`[{}]`)
	inlineRe  = regexp.MustCompile(`\$([^$]*)\$`)
	delimRe   = regexp.MustCompile(`\\[()\[\]]`)
	spaceRe   = regexp.MustCompile(`\s+`)

	envRe = regexp.MustCompile(`\\(?:begin|end)\{[^{}]*\}`)

	mathRes = []*regexp.Regexp{
		regexp.MustCompile(`\$\$[\s\S]*?\$\$`),
		regexp.MustCompile(`\$[^$]*\$`),
		regexp.MustCompile(`\\\[[\s\S]*?\\\]`),
		regexp.MustCompile(`\\\([\s\S]*?\\\)`),
	}
)

// Collapse trims s and folds whitespace runs into single spaces.
func Collapse(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Title keeps the arguments of simple commands and drops everything else
// that looks like markup: "\textbf{Golden} Ratio" becomes "Golden Ratio".
func Title(s string) string {
	s = cmdArgRe.ReplaceAllString(s, "$1")
	s = cmdRe.ReplaceAllString(s, "")
	s = braceRe.ReplaceAllString(s, "")
	return Collapse(s)
}

// Plain is Title plus removal of math delimiters (keeping the math text)
// and stray backslashes.
func Plain(s string) string {
	s = cmdArgRe.ReplaceAllString(s, "$1")
	s = cmdRe.ReplaceAllString(s, "")
	s = braceRe.ReplaceAllString(s, "")
	s = inlineRe.ReplaceAllString(s, "$1")
	s = delimRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, `\`, "")
	return Collapse(s)
}

// Prose strips comments, math and environment markers, keeps the text
// inside commands and unescapes the common specials.
func Prose(s string) string {
	s = StripComments(s)
	for _, re := range mathRes {
		s = re.ReplaceAllString(s, " ")
	}
	s = strings.ReplaceAll(s, "~", " ")
	s = envRe.ReplaceAllString(s, " ")
	s = cmdStarRe.ReplaceAllString(s, "")
	s = braceRe.ReplaceAllString(s, "")
	s = strings.NewReplacer(`\%`, "%", `\_`, "_", `\&`, "&").Replace(s)
	return Collapse(s)
}

// StripComments removes everything from the first unescaped '%' to the end
// of each line.
func StripComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if j := book.CommentIndex(line); j >= 0 {
			lines[i] = line[:j]
		}
	}
	return strings.Join(lines, "\n")
}
