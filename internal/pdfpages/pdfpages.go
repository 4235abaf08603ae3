// Package pdfpages counts the pages of a compiled PDF.
package pdfpages

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Counter asks the pdfinfo utility first, then falls back to parsing the
// file with the Go PDF library.
type Counter struct {
	PDFInfo string // pdfinfo binary; empty skips the external tool
}

// Count returns the number of pages in the PDF at path.
func (c Counter) Count(ctx context.Context, path string) (int, error) {
	var errs []error
	if c.PDFInfo != "" {
		n, err := countPDFInfo(ctx, c.PDFInfo, path)
		if err == nil {
			return n, nil
		}
		errs = append(errs, err)
	}
	n, err := countLibrary(path)
	if err == nil {
		return n, nil
	}
	errs = append(errs, err)
	return 0, fmt.Errorf("count pages of %s: %w", path, errors.Join(errs...))
}

func countPDFInfo(ctx context.Context, bin, path string) (int, error) {
	out, err := exec.CommandContext(ctx, bin, path).Output()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo: %w", err)
	}
	return ParsePDFInfo(out)
}

// ParsePDFInfo extracts the "Pages:" field from pdfinfo output.
func ParsePDFInfo(out []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		rest, ok := strings.CutPrefix(line, "Pages:")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return 0, fmt.Errorf("pdfinfo pages %q: %w", rest, err)
		}
		return n, nil
	}
	return 0, errors.New("pdfinfo: no Pages field")
}

func countLibrary(path string) (n int, err error) {
	// The library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf library: %v", r)
		}
	}()
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("pdf library: %w", err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}
