package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html"
)

// MarkupNormalizer replaces quotes in the text nodes of SVG, OPF and HTML
// files. Tags, attributes and comments are copied unchanged.
type MarkupNormalizer struct{}

func (MarkupNormalizer) Normalize(src []byte) ([]byte, error) {
	z := html.NewTokenizer(bytes.NewReader(src))
	var out bytes.Buffer
	out.Grow(len(src))

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("tokenize markup: %w", err)
			}
			return out.Bytes(), nil
		}
		raw := z.Raw()
		if tt == html.TextToken {
			out.WriteString(Quotes.Replace(string(raw)))
		} else {
			out.Write(raw)
		}
	}
}
