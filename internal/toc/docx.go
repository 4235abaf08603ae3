package toc

import (
	"fmt"
	"os"

	"github.com/fumiama/go-docx"
)

// BuildDocx lays the table out as a Word document: a centred title, then a
// Heading1 paragraph per chapter followed by its summary in italics.
func BuildDocx(bookTitle string, entries []Entry) *docx.Docx {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().Justification("center").AddText("TABLE OF CONTENTS").Bold().Size("32")
	doc.AddParagraph().Justification("center").AddText(bookTitle).Italic().Size("24")

	for _, e := range entries {
		doc.AddParagraph().Style("Heading1").AddText(e.Heading()).Bold()
		summary := e.Summary
		if summary == "" {
			summary = "(Summary not available)"
		}
		doc.AddParagraph().Justification("both").AddText(summary).Italic()
	}
	return doc
}

// WriteDocx writes BuildDocx's document to path.
func WriteDocx(path, bookTitle string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create docx: %w", err)
	}
	if _, err := BuildDocx(bookTitle, entries).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write docx: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close docx: %w", err)
	}
	return nil
}
