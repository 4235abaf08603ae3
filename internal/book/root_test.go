package book

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const sampleRoot = `\documentclass{book}
\input{preamble}
\begin{document}
\input{intro}
\mainmatter
\chapterwithsummaryfromfile[ch:golden]{01_golden_ratio}
\inputstory{01_golden_ratio} % reviewed
% \chapterwithsummaryfromfile[ch:old]{02_old_chapter}
\chapterwithsummaryfromfile{03_fractals}
\inputstory{03_fractals}
  %\chapterwithsummaryfromfile{04_hidden}
\chapterwithsummaryfromfile[ch:primes]{05_primes}
\end{document}
`

func TestParseRoot_ChaptersInFileOrder(t *testing.T) {
	doc := ParseRoot(sampleRoot)

	want := []ChapterRef{
		{Label: "ch:golden", Dir: "01_golden_ratio", Line: 5},
		{Label: "", Dir: "03_fractals", Line: 8},
		{Label: "ch:primes", Dir: "05_primes", Line: 11},
	}
	if diff := cmp.Diff(want, doc.Chapters); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}
	if doc.FirstChapter != 5 {
		t.Errorf("expected first chapter at line 5, got %d", doc.FirstChapter)
	}
	if doc.EndDocument != 12 {
		t.Errorf("expected \\end{document} at line 12, got %d", doc.EndDocument)
	}
}

func TestParseRoot_HeaderStopsAtFirstUncommentedChapter(t *testing.T) {
	doc := ParseRoot(sampleRoot)
	header := doc.Header()
	if !strings.HasSuffix(header, `\mainmatter`) {
		t.Errorf("expected header to end at \\mainmatter, got %q", header)
	}
	if strings.Contains(header, ChapterDirective) {
		t.Error("expected header to contain no chapter directive")
	}
}

func TestParseRoot_NoDirectives(t *testing.T) {
	inputs := []string{
		"",
		"\\documentclass{book}\n\\begin{document}\nHello\n\\end{document}\n",
		"% \\chapterwithsummaryfromfile{01_commented}\n",
	}
	for _, in := range inputs {
		doc := ParseRoot(in)
		if len(doc.Chapters) != 0 {
			t.Errorf("expected no chapters for %q, got %d", in, len(doc.Chapters))
		}
		if doc.Header() != in {
			t.Errorf("expected header to equal whole file %q, got %q", in, doc.Header())
		}
	}
}

func TestParseRoot_MalformedDirectiveEndsHeader(t *testing.T) {
	content := "\\documentclass{book}\n\\begin{document}\n\\chapterwithsummaryfromfile{}\n\\chapterwithsummaryfromfile{02_primes}\n\\end{document}"
	doc := ParseRoot(content)

	if doc.FirstChapter != 2 {
		t.Errorf("expected header to end at line 2, got %d", doc.FirstChapter)
	}
	if strings.Contains(doc.Header(), ChapterDirective) {
		t.Errorf("expected no directive in header, got %q", doc.Header())
	}
	want := []ChapterRef{{Dir: "02_primes", Line: 3}}
	if diff := cmp.Diff(want, doc.Chapters); diff != "" {
		t.Errorf("chapters mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoot_EscapedPercentIsNotComment(t *testing.T) {
	doc := ParseRoot(`\chapterwithsummaryfromfile{07_rates} \% growth`)
	if len(doc.Chapters) != 1 {
		t.Fatalf("expected 1 chapter, got %d", len(doc.Chapters))
	}
	if doc.Chapters[0].Dir != "07_rates" {
		t.Errorf("expected dir %q, got %q", "07_rates", doc.Chapters[0].Dir)
	}
}

func TestRootDocument_Ordered(t *testing.T) {
	doc := &RootDocument{Chapters: []ChapterRef{
		{Dir: "b", Line: 9},
		{Dir: "a", Line: 2},
		{Dir: "c", Line: 5},
	}}
	var got []string
	for _, ch := range doc.Ordered() {
		got = append(got, ch.Dir)
	}
	if diff := cmp.Diff([]string{"a", "c", "b"}, got); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if doc.Chapters[0].Dir != "b" {
		t.Error("expected Ordered not to mutate the chapter list")
	}
}

func TestRootDocument_StoryLineAndStatus(t *testing.T) {
	doc := ParseRoot(sampleRoot)

	line, ok := doc.StoryLine(doc.Chapters[0])
	if !ok {
		t.Fatal("expected story line after first chapter")
	}
	if !strings.HasPrefix(line, `\inputstory{01_golden_ratio}`) {
		t.Errorf("unexpected story line %q", line)
	}
	if got := doc.StoryStatus(doc.Chapters[0]); got != "reviewed" {
		t.Errorf("expected status %q, got %q", "reviewed", got)
	}
	if _, ok := doc.StoryLine(doc.Chapters[2]); ok {
		t.Error("expected no story line after last chapter")
	}
}

func TestChapterRef_NumberAndName(t *testing.T) {
	tests := []struct {
		dir    string
		num    int
		ok     bool
		name   string
	}{
		{"07_fractals", 7, true, "fractals"},
		{"12_prime_gaps", 12, true, "prime_gaps"},
		{"appendix", 0, false, "appendix"},
	}
	for _, tt := range tests {
		ref := ChapterRef{Dir: tt.dir}
		n, ok := ref.Number()
		if n != tt.num || ok != tt.ok {
			t.Errorf("%s: expected (%d, %v), got (%d, %v)", tt.dir, tt.num, tt.ok, n, ok)
		}
		if ref.Name() != tt.name {
			t.Errorf("%s: expected name %q, got %q", tt.dir, tt.name, ref.Name())
		}
	}
}

func TestStoryDirs(t *testing.T) {
	content := "\\inputstory{01_a}\n% \\inputstory{02_b}\n\\inputstory{03_c} % done\n"
	if diff := cmp.Diff([]string{"01_a", "03_c"}, StoryDirs(content)); diff != "" {
		t.Errorf("dirs mismatch (-want +got):\n%s", diff)
	}
}

func TestCommentIndex(t *testing.T) {
	tests := map[string]int{
		"% full":         0,
		`50\% off`:       -1,
		`x \% y % note`:  7,
		"no comment":     -1,
	}
	for line, want := range tests {
		if got := CommentIndex(line); got != want {
			t.Errorf("CommentIndex(%q): expected %d, got %d", line, want, got)
		}
	}
}

func TestInlineFrontMatter(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "intro.tex"), "Intro text.\n\n")
	writeFile(t, filepath.Join(base, "preamble.tex"), "\\usepackage{x}")

	lines := []string{`\input{preamble}`, `\input{intro}`, `\input{prologue}`, "plain"}
	got := InlineFrontMatter(lines, base, nil)

	want := []string{
		`\input{preamble}`,
		"% BEGIN INLINE intro.tex\nIntro text.\n% END INLINE intro.tex",
		`\input{prologue}`,
		"plain",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("inline mismatch (-want +got):\n%s", diff)
	}
}

func TestFragments(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "01_x", "title.tex"), "\n% comment\n  The Title  \nmore\n")

	f := Fragments{Base: base, Dir: "01_x"}
	if !f.Exists(RoleTitle) {
		t.Fatal("expected title to exist")
	}
	if got := f.FirstLine(RoleTitle); got != "The Title" {
		t.Errorf("expected first line %q, got %q", "The Title", got)
	}
	if got := f.RelPath(RoleSummary); got != "01_x/summary.tex" {
		t.Errorf("expected rel path %q, got %q", "01_x/summary.tex", got)
	}
	if f.Read(RoleSummary) != "" {
		t.Error("expected empty content for missing fragment")
	}

	err := f.Check(RoleSummary)
	var missing *MissingFragmentError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFragmentError, got %v", err)
	}
	if missing.Role != RoleSummary {
		t.Errorf("expected role %q, got %q", RoleSummary, missing.Role)
	}
	if f.Check(RoleTitle) != nil {
		t.Error("expected no error for present fragment")
	}
}

func TestRole_Required(t *testing.T) {
	for _, r := range RequiredRoles {
		if !r.Required() {
			t.Errorf("expected %s to be required", r)
		}
	}
	for _, r := range append([]Role{RoleSidenote, RoleHistorical}, ExtraRoles...) {
		if r.Required() {
			t.Errorf("expected %s to be optional", r)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
