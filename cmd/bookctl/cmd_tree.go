package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bookctl/internal/normalize"
	"github.com/dgallion1/bookctl/internal/restore"
)

func newFixQuotesCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "fixquotes",
		Short: "Replace curly quotes with straight ones in the book sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := normalize.Tree(cmd.Context(), a.root, dryRun, a.log.With("component", "fixquotes"))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			verb := "Updated"
			if dryRun {
				verb = "Would update"
			}
			for _, rel := range res.Updated {
				fmt.Fprintf(w, "%s: %s\n", verb, rel)
			}
			fmt.Fprintf(w, "Scanned %d files, %d changed, %d failed\n", res.Scanned, len(res.Updated), res.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report files that would change without writing them")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Copy every *.bak backup back over its original",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			restored, err := restore.Tree(cmd.Context(), a.root, a.log.With("component", "restore"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %d files, list written to %s\n",
				len(restored), filepath.Join(a.root, restore.ManifestName))
			return nil
		},
	}
}
