// Command bookctl builds and inspects the book: it flattens and compiles the
// LaTeX sources and produces the page, chapter and glossary reports.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/bookctl/internal/config"
)

// app carries what every subcommand needs once the root command has run.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	root    string
	noColor bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{}
	var (
		configPath string
		logLevel   string
		logFormat  string
	)

	rootCmd := &cobra.Command{
		Use:           "bookctl",
		Short:         "Build tooling for the LaTeX book",
		Long:          "bookctl flattens, compiles and analyses a LaTeX book whose chapters live in numbered directories of fragment files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.cfg = cfg
			a.log = newLogger(logOut, cfg.Log)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a YAML config file (default $BOOKCTL_CONFIG or ./bookctl.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&a.root, "root", ".", "Book root directory")
	pf.BoolVar(&a.noColor, "no-color", false, "Disable colored console output")

	rootCmd.AddCommand(
		newFlattenCmd(a),
		newCompileCmd(a),
		newSubsetCmd(a),
		newPageTableCmd(a),
		newPagesCmd(a),
		newTocCmd(a),
		newIndexCmd(a),
		newBiosCmd(a),
		newFixQuotesCmd(a),
		newRestoreCmd(a),
	)
	return rootCmd
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
