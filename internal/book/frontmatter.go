package book

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
)

var inputRe = regexp.MustCompile(`^\\input\{([^\}]+)\}\s*$`)

// FrontMatter lists the root-level sections whose \input lines are inlined.
// The preamble is never inlined.
var FrontMatter = map[string]bool{
	"intro":     true,
	"prologue":  true,
	"titlepage": true,
}

// InlineMarkers wraps content in BEGIN/END INLINE comment markers.
func InlineMarkers(rel, content string) string {
	return "% BEGIN INLINE " + rel + "\n" + strings.TrimRight(content, " \t\r\n") + "\n% END INLINE " + rel
}

// InlineFrontMatter returns the header lines with front-matter \input lines
// replaced by the referenced file's content. Lines whose file is missing or
// empty are kept as written.
func InlineFrontMatter(lines []string, base string, log *slog.Logger) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if inlined, ok := inlineInput(line, base, log); ok {
			out = append(out, inlined)
			continue
		}
		out = append(out, line)
	}
	return out
}

func inlineInput(line, base string, log *slog.Logger) (string, bool) {
	m := inputRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimSpace(m[1]), ".tex")
	if !FrontMatter[name] {
		return "", false
	}
	rel := name + ".tex"
	content := ReadFile(filepath.Join(base, rel), log)
	if content == "" {
		return "", false
	}
	return InlineMarkers(rel, content), true
}
