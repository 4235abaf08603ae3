package normalize

import (
	"bytes"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownNormalizer replaces quotes in prose but leaves code spans and
// code blocks byte for byte.
type MarkdownNormalizer struct{}

func (MarkdownNormalizer) Normalize(src []byte) ([]byte, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var code []text.Segment
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				code = append(code, lines.At(i))
			}
			return ast.WalkSkipChildren, nil
		case ast.KindCodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					code = append(code, t.Segment)
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(code, func(i, j int) bool { return code[i].Start < code[j].Start })

	var out bytes.Buffer
	out.Grow(len(src))
	pos := 0
	for _, seg := range code {
		if seg.Start < pos {
			continue
		}
		out.WriteString(Quotes.Replace(string(src[pos:seg.Start])))
		out.Write(src[seg.Start:seg.Stop])
		pos = seg.Stop
	}
	out.WriteString(Quotes.Replace(string(src[pos:])))
	return out.Bytes(), nil
}
