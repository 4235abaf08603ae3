// Package normalize replaces typographic quotes with their ASCII
// equivalents in the book's source and asset files.
package normalize

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Normalizer rewrites the content of one file.
type Normalizer interface {
	Normalize(src []byte) ([]byte, error)
}

// SupportedExtensions lists the file types that are processed.
var SupportedExtensions = map[string]bool{
	".tex": true,
	".md":  true,
	".py":  true,
	".txt": true,
	".sh":  true,
	".svg": true,
	".opf": true,
}

// Quotes maps curly double and single quotes (and primes) to straight ones.
var Quotes = strings.NewReplacer(
	"\u201c", `"`, // left double
	"\u201d", `"`, // right double
	"\u201e", `"`, // low double
	"\u201f", `"`,
	"\u2033", `"`, // double prime
	"\u2018", "'", // left single
	"\u2019", "'", // right single
	"\u201a", "'", // low single
	"\u201b", "'",
	"\u2032", "'", // prime
)

// ForFile returns the normalizer for a file name.
func ForFile(filename string) (Normalizer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".tex", ".py", ".txt", ".sh":
		return TextNormalizer{}, nil
	case ".md", ".markdown":
		return MarkdownNormalizer{}, nil
	case ".svg", ".opf", ".html", ".htm", ".xhtml":
		return MarkupNormalizer{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension reports whether the walker processes filename.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// TextNormalizer replaces quotes everywhere.
type TextNormalizer struct{}

func (TextNormalizer) Normalize(src []byte) ([]byte, error) {
	return []byte(Quotes.Replace(string(src))), nil
}
