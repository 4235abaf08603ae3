package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bookctl/internal/api"
	"github.com/dgallion1/bookctl/internal/book"
	"github.com/dgallion1/bookctl/internal/flatten"
	"github.com/dgallion1/bookctl/internal/monitor"
	"github.com/dgallion1/bookctl/internal/subset"
)

const defaultRoot = "main.tex"

var errCompileFailed = errors.New("compilation failed")

// rootDocument returns the root document path from args, defaulting to
// main.tex in the book root.
func (a *app) rootDocument(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return filepath.Join(a.root, defaultRoot)
}

func newFlattenCmd(a *app) *cobra.Command {
	var (
		output string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "flatten [main.tex]",
		Short: "Write a single self-contained .tex file with every chapter inlined",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.rootDocument(args)
			doc, err := book.LoadRoot(path)
			if err != nil {
				return err
			}
			base := filepath.Dir(path)
			if output == "" {
				output = filepath.Join(base, "main_flat.tex")
			}

			f := flatten.New(base, strict || a.cfg.StrictFragments, a.log.With("component", "flatten"))
			if err := f.WriteFile(doc, output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Flattened %d chapters into %s\n", len(doc.Chapters), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default main_flat.tex next to the root document)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when a required fragment file is missing")
	return cmd
}

func newCompileCmd(a *app) *cobra.Command {
	var (
		scale      bool
		statusAddr string
	)
	cmd := &cobra.Command{
		Use:   "compile [main.tex]",
		Short: "Run the two-pass compile with live chapter progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := a.rootDocument(args)
			log := a.log.With("component", "compile")

			if statusAddr == "" {
				statusAddr = a.cfg.StatusAddr
			}
			var store *monitor.RunStore
			if statusAddr != "" {
				store = monitor.NewRunStore(time.Hour)
				stop := serveStatus(ctx, store, statusAddr, a.cfg.StatusToken, log)
				defer stop()
			}

			reporter := monitor.NewConsoleReporter(cmd.OutOrStdout(), !a.noColor)
			compiler := monitor.NewCompiler(a.cfg, reporter, store, log)
			out, err := compiler.Compile(ctx, path)
			if err != nil {
				return err
			}
			if !out.Success {
				return errCompileFailed
			}
			if !scale {
				return nil
			}
			if err := compiler.Scale(ctx, path); err != nil {
				a.log.Warn("scale failed after successful compile", "source", path, "error", err)
				fmt.Fprintf(cmd.OutOrStdout(), "Compilation succeeded but scaling failed: %v\n", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&scale, "scale", false, `Rescale the PDF to 7"x10" after a successful compile`)
	cmd.Flags().BoolVar(&scale, "scale-to-7x10", false, "Alias for --scale")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "Serve compile status over HTTP on this address")
	return cmd
}

// serveStatus runs the status server until the returned stop func is called.
func serveStatus(ctx context.Context, store *monitor.RunStore, addr, token string, log *slog.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- api.NewServer(store, token, log.With("component", "api")).ListenAndServe(ctx, addr)
	}()
	return func() {
		cancel()
		if err := <-done; err != nil {
			log.Warn("status server", "error", err)
		}
	}
}

func newSubsetCmd(a *app) *cobra.Command {
	var (
		list   bool
		output string
		input  string
	)
	cmd := &cobra.Command{
		Use:   "subset <chapters>",
		Short: "Write a copy of the root document with only some chapters",
		Long: "Chapters are given as a comma-separated list of numbers, ranges such as 3-7, " +
			"or fragments of directory names: bookctl subset 1,5-7,golden",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if input == "" {
				input = filepath.Join(a.root, defaultRoot)
			}
			doc, err := book.LoadRoot(input)
			if err != nil {
				return err
			}
			if list {
				subset.List(w, doc)
				return nil
			}
			if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
				return subset.ErrEmptySpec
			}

			sel := subset.ParseSpec(args[0], doc.Ordered())
			for _, warning := range sel.Warnings {
				a.log.Warn(warning)
			}
			if len(sel.Numbers) == 0 {
				return subset.ErrNoMatch
			}
			if output == "" {
				output = filepath.Join(filepath.Dir(input), "main_ch.tex")
			}
			picked, err := subset.WriteFile(output, doc, sel.Numbers)
			if err != nil {
				return err
			}

			fmt.Fprintf(w, "Generated %s with %d chapters:\n", output, len(picked))
			for _, ch := range picked {
				n, _ := ch.Number()
				fmt.Fprintf(w, "  %2d. %s\n", n, ch.Dir)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List available chapters")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default main_ch.tex next to the input)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Root document (default main.tex in the book root)")
	return cmd
}
