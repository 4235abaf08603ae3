// Package flatten renders a root document and its chapter fragment files into
// one self-contained .tex file.
package flatten

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/bookctl/internal/book"
)

const banner = "% === FLATTENED BOOK GENERATED BY bookctl flatten ==="

// Flattener assembles chapters from fragment files found below Base.
type Flattener struct {
	base   string
	strict bool
	log    *slog.Logger
}

// New creates a Flattener. With strict set, a missing required fragment
// aborts rendering instead of leaving an empty block.
func New(base string, strict bool, log *slog.Logger) *Flattener {
	if log == nil {
		log = slog.Default()
	}
	return &Flattener{base: base, strict: strict, log: log}
}

// Render returns the consolidated document.
func (f *Flattener) Render(doc *book.RootDocument) (string, error) {
	out := []string{banner}
	out = append(out, book.InlineFrontMatter(doc.HeaderLines(), f.base, f.log)...)

	for _, ch := range doc.Ordered() {
		lines, err := f.renderChapter(ch)
		if err != nil {
			return "", err
		}
		out = append(out, lines...)
	}

	out = append(out, `\end{document}`)
	return strings.Join(out, "\n") + "\n", nil
}

// WriteFile renders doc to path.
func (f *Flattener) WriteFile(doc *book.RootDocument, path string) error {
	text, err := f.Render(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write flattened document: %w", err)
	}
	return nil
}

func (f *Flattener) renderChapter(ch book.ChapterRef) ([]string, error) {
	log := f.log.With("chapter", ch.Dir)
	frag := book.Fragments{Base: f.base, Dir: ch.Dir, Log: log}

	for _, role := range book.RequiredRoles {
		err := frag.Check(role)
		if err == nil {
			continue
		}
		if f.strict {
			return nil, err
		}
		log.Warn("required fragment missing, emitting empty block", "role", role)
	}

	titleFirst := frag.FirstLine(book.RoleTitle)
	summaryFirst := frag.FirstLine(book.RoleSummary)
	title := inline(frag, book.RoleTitle)
	summary := inline(frag, book.RoleSummary)

	out := []string{"", "% ===== CHAPTER " + ch.Dir + " =====", `\refstepcounter{chapter}`}
	if ch.Label != "" {
		out = append(out, `\label{`+ch.Label+`}`)
	}
	out = append(out, `\phantomsection`)
	out = append(out, versoLines...)
	out = append(out, titlePageBlock(title))

	out = append(out, "% --- PAGE 2: Sidenote (or empty) ---")
	if frag.Exists(book.RoleSidenote) {
		out = append(out, inline(frag, book.RoleSidenote))
	} else {
		out = append(out, `\thispagestyle{empty}`, `\mbox{}`)
	}
	out = append(out, `\clearpage`)

	out = append(out, tocEntryLines(titleFirst, summaryFirst)...)
	out = append(out, overviewPageBlock(title, summary, frag.Read(book.RoleTopicmap), frag.Read(book.RoleQuote)))

	out = append(out,
		"% --- PAGES 4-8: Historical + Main + Optional ---",
		`\chaptermark{`+titleFirst+`}`,
		`{\LARGE \bfseries `,
		strings.TrimRight(title, " \t\r\n"),
		"}",
		inline(frag, book.RoleHistorical),
		inline(frag, book.RoleMain),
	)
	for _, role := range book.ExtraRoles {
		if frag.Exists(role) {
			out = append(out, inline(frag, role))
		}
	}

	out = append(out, "% --- PAGE 9: Technical ---", `\newpage`, inline(frag, book.RoleTechnical))
	return out, nil
}

// inline wraps a fragment in INLINE markers, or returns "" when it is empty.
func inline(frag book.Fragments, role book.Role) string {
	content := frag.Read(role)
	if content == "" {
		return ""
	}
	return book.InlineMarkers(frag.RelPath(role), content) + "\n"
}
