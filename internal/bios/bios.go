// Package bios harvests likely person names from the chapter sources, with
// a few sentences of context for each, as raw material for a glossary.
package bios

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/bookctl/internal/texclean"
)

// OutputPath is the report location relative to the book root.
const OutputPath = "glossary_terms/bios.txt"

const (
	maxNameTokens = 3
	snippetLimit  = 300
)

var (
	chapterDirRe = regexp.MustCompile(`^\d{2}_`)
	tokenRe      = regexp.MustCompile(`[A-Za-zÀ-ÖØ-Ýà-öø-ÿ'’]+`)
	dashes       = strings.NewReplacer("–", " ", "—", " ", "-", " ")
)

var stopwords = set(
	"The", "This", "That", "These", "Those", "We", "It", "If", "In", "On", "For", "From", "By",
	"With", "As", "At", "Of", "And", "Or", "But", "When", "While", "Because", "Thus", "Hence",
	"Figure", "Section", "Table", "Appendix", "Definition", "Example", "Proof", "Remark",
	"Corollary", "Theorem", "Lemma", "Equation", "Chapter", "Sidenote", "Quote",
	"January", "February", "March", "April", "May", "June", "July", "August",
	"September", "October", "November", "December",
)

// Names ending in one of these are concepts ("Banach Tarski Paradox").
var conceptSuffixes = set(
	"Paradox", "Theorem", "Rule", "Effect", "Equation", "Model", "Hypothesis", "Problem",
	"Experiment", "Conjecture", "Algorithm", "Inequality", "Attack", "Process", "Trick",
	"Parable", "Principle",
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Context is one sentence mentioning a name.
type Context struct {
	Chapter  string
	File     string
	Sentence string
}

// Collector walks the chapter sources.
type Collector struct {
	MaxContexts int // per name
	Log         *slog.Logger
}

// Collect reads every .tex file in the two-digit chapter directories under
// root and returns the contexts found for each name, in reading order.
func (c Collector) Collect(root string) (map[string][]Context, error) {
	log := c.Log
	if log == nil {
		log = slog.Default()
	}
	items, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read book directory: %w", err)
	}

	out := map[string][]Context{}
	for _, item := range items {
		if !item.IsDir() || !chapterDirRe.MatchString(item.Name()) {
			continue
		}
		files, err := filepath.Glob(filepath.Join(root, item.Name(), "*.tex"))
		if err != nil {
			return nil, fmt.Errorf("list chapter sources: %w", err)
		}
		sort.Strings(files)
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("read chapter source", "path", path, "error", err)
				continue
			}
			c.collectFile(out, item.Name(), filepath.Base(path), string(data))
		}
	}
	return out, nil
}

func (c Collector) collectFile(out map[string][]Context, chapter, file, raw string) {
	for _, sent := range SplitSentences(texclean.Prose(raw)) {
		names := ExtractNames(sent)
		if len(names) == 0 {
			continue
		}
		seen := map[string]bool{}
		var uniq []string
		for _, n := range names {
			if !seen[n] {
				seen[n] = true
				uniq = append(uniq, n)
			}
		}
		sort.Strings(uniq)
		for _, name := range uniq {
			if c.MaxContexts > 0 && len(out[name]) >= c.MaxContexts {
				continue
			}
			out[name] = append(out[name], Context{Chapter: chapter, File: file, Sentence: sent})
		}
	}
}

// SplitSentences splits text after '.', '!' or '?' when followed by
// whitespace.
func SplitSentences(text string) []string {
	var (
		out   []string
		start int
		prev  rune
	)
	for i, r := range text {
		if unicode.IsSpace(r) && (prev == '.' || prev == '!' || prev == '?') {
			if s := strings.TrimSpace(text[start:i]); s != "" {
				out = append(out, s)
			}
			start = i
		}
		prev = r
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// ExtractNames returns runs of up to three capitalised words that look like
// person names. Hyphenated names are split into separate words.
func ExtractNames(sentence string) []string {
	tokens := tokenRe.FindAllString(dashes.Replace(sentence), -1)

	var names []string
	for i := 0; i < len(tokens); {
		first, ok := nameToken(tokens[i])
		if !ok {
			i++
			continue
		}
		seq := []string{first}
		j := i + 1
		for j < len(tokens) && len(seq) < maxNameTokens {
			next, ok := nameToken(tokens[j])
			if !ok {
				break
			}
			seq = append(seq, next)
			j++
		}
		if !conceptSuffixes[seq[len(seq)-1]] {
			names = append(names, strings.Join(seq, " "))
		}
		i = j
	}
	return names
}

// nameToken strips a possessive and reports whether what remains can be
// part of a name.
func nameToken(tok string) (string, bool) {
	base := stripPossessive(tok)
	if base == "" {
		return "", false
	}
	r, _ := utf8.DecodeRuneInString(base)
	if !unicode.IsUpper(r) {
		return "", false
	}
	if utf8.RuneCountInString(base) >= 2 && isAllUpper(base) {
		return "", false
	}
	if stopwords[base] {
		return "", false
	}
	return base, true
}

func stripPossessive(tok string) string {
	for _, suf := range []string{"'s", "’s", "'", "’"} {
		if strings.HasSuffix(tok, suf) {
			return strings.TrimSuffix(tok, suf)
		}
	}
	return tok
}

func isAllUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

// Snippet shortens long sentences to fit the report.
func Snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetLimit {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:snippetLimit-3]), unicode.IsSpace) + "..."
}

// Render writes the report: names sorted case-insensitively, each followed
// by its contexts.
func Render(w io.Writer, bios map[string][]Context, now time.Time) error {
	names := make([]string, 0, len(bios))
	for n := range bios {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Bios: names and context extracted from chapters (generated %s)\n\n", now.Format("2006-01-02T15:04:05"))
	for _, n := range names {
		fmt.Fprintf(&b, "Name: %s\n", n)
		for _, ctx := range bios[n] {
			fmt.Fprintf(&b, "  - [%s/%s] %s\n", ctx.Chapter, ctx.File, Snippet(ctx.Sentence))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders the report to path, creating its directory.
func WriteFile(path string, bios map[string][]Context, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create bios report: %w", err)
	}
	if err := Render(f, bios, now); err != nil {
		f.Close()
		return fmt.Errorf("write bios report: %w", err)
	}
	return f.Close()
}
