package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bookctl/internal/bios"
	"github.com/dgallion1/bookctl/internal/chapterindex"
	"github.com/dgallion1/bookctl/internal/chapterpages"
	"github.com/dgallion1/bookctl/internal/pagetable"
	"github.com/dgallion1/bookctl/internal/pdfpages"
	"github.com/dgallion1/bookctl/internal/toc"
)

// pdfTarget splits the pagetable arguments into the artifact path, the
// directory of the auxiliary files and their base name. The first argument
// may be the PDF or just the base name.
func pdfTarget(args []string) (pdf, dir, base string) {
	first := args[0]
	if strings.EqualFold(filepath.Ext(first), ".pdf") {
		pdf = first
		base = strings.TrimSuffix(filepath.Base(first), filepath.Ext(first))
	} else {
		base = filepath.Base(first)
		pdf = first + ".pdf"
	}
	if len(args) > 1 {
		base = args[1]
	}
	return pdf, filepath.Dir(pdf), base
}

func newPageTableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pagetable <pdf|base> [base]",
		Short: "Write <base>_page_structure.csv mapping every page to its chapter and section",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdf, dir, base := pdfTarget(args)
			rep, err := pagetable.Generate(cmd.Context(), pagetable.Options{
				Dir:      dir,
				Base:     base,
				PDF:      pdf,
				Counter:  pdfpages.Counter{PDFInfo: a.cfg.PDFInfo},
				Fallback: a.cfg.FallbackPageCount,
				Log:      a.log.With("component", "pagetable"),
			})
			if err != nil {
				return err
			}
			pagetable.WriteSummary(cmd.OutOrStdout(), rep)
			return nil
		},
	}
}

func newPagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pages [base]",
		Short: "Analyse chapter lengths in pages from the compiled contents table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := "main"
			if len(args) > 0 {
				base = args[0]
			}
			analysis, err := chapterpages.Analyze(cmd.Context(), chapterpages.Options{
				Dir:     a.root,
				Base:    base,
				Counter: pdfpages.Counter{PDFInfo: a.cfg.PDFInfo},
				Log:     a.log.With("component", "pages"),
			})
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			chapterpages.WriteSummary(w, analysis)

			path := filepath.Join(a.root, chapterpages.CSVName(base))
			if err := chapterpages.WriteFile(path, analysis.Chapters); err != nil {
				return err
			}
			fmt.Fprintf(w, "\nResults saved to: %s\n", path)
			return nil
		},
	}
}

func newTocCmd(a *app) *cobra.Command {
	var withDocx bool
	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Write TABLE_OF_CONTENTS.txt from chapter titles and summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := toc.Scan(a.root, a.log.With("component", "toc"))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			path := filepath.Join(a.root, toc.FileName)
			lines, err := toc.WriteText(path, a.cfg.BookTitle, entries)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Table of contents written to %s (%d chapters, %d lines)\n", path, len(entries), lines)

			if withDocx {
				docxPath := toc.DocxPath(path)
				if err := toc.WriteDocx(docxPath, a.cfg.BookTitle, entries); err != nil {
					return err
				}
				fmt.Fprintf(w, "Word document written to %s\n", docxPath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDocx, "docx", false, "Also write a .docx version")
	return cmd
}

func newIndexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Write chapter_index.csv listing each chapter's files and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := chapterindex.Build(cmd.Context(), a.root, a.cfg.IndexWorkers, a.log.With("component", "index"))
			if err != nil {
				return err
			}
			path := filepath.Join(a.root, chapterindex.FileName)
			if err := chapterindex.WriteFile(path, rows); err != nil {
				return err
			}

			s := chapterindex.Summarize(rows)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Chapter index written to %s\n", path)
			fmt.Fprintf(w, "  Total chapters:          %d\n", s.Chapters)
			fmt.Fprintf(w, "  Chapters with exercises: %d\n", s.Exercises)
			fmt.Fprintf(w, "  Chapters with jokes:     %d\n", s.Jokes)
			fmt.Fprintf(w, "  Chapters with images:    %d\n", s.Images)
			return nil
		},
	}
}

func newBiosCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bios",
		Short: "Collect person names and their context sentences into glossary_terms/bios.txt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := bios.Collector{MaxContexts: a.cfg.ContextsPerName, Log: a.log.With("component", "bios")}
			found, err := c.Collect(a.root)
			if err != nil {
				return err
			}
			path := filepath.Join(a.root, bios.OutputPath)
			if err := bios.WriteFile(path, found, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d names to %s\n", len(found), path)
			return nil
		},
	}
}
