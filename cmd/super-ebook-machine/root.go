package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samhuann/SuperEbookMachine/internal/cli"
	"github.com/samhuann/SuperEbookMachine/internal/cli/config"
	"github.com/samhuann/SuperEbookMachine/pkg/converter"
)

var (
	// Set at build time via -ldflags.
	version = "dev"
	commit  = "none"
	date    = "unknown"

	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "super-ebook-machine -i <inputDir> -o <outputDir>",
	Short: "Batch-converts ebook libraries with Calibre's ebook-convert.",
	Long: `super-ebook-machine scans a directory tree for ebooks and converts
every matching file in parallel using Calibre's ebook-convert tool.

It features:
  - Parallel conversion across a bounded worker pool.
  - Mirrored or flattened output layouts.
  - Device presets (Kindle app vs. physical Kindle) and output profiles.
  - A copy mode that transfers files without converting them.
  - An interactive terminal UI with graceful stop.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// First Ctrl+C requests a graceful stop through the run logic; a
		// second one cancels the signal context and falls back to the
		// default handler.
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		opts, logger, err := config.LoadAndValidate(cfgFile, version, cmd.Flags())
		if err != nil {
			return err
		}
		return cli.Run(ctx, opts, logger)
	},
}

// Execute runs the root command. Cobra prints the error and exits non-zero
// when RunE fails.
func Execute() {
	rootCmd.SetVersionTemplate(`{{.Use}} version {{.Version}}` + "\n")
	_ = rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Configuration file path (default searches ., $HOME/.config/super-ebook-machine/)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging output (disables TUI)")

	// Not marked required at the cobra level so subcommands like "check"
	// stay usable without paths; config validation enforces them for runs.
	rootCmd.PersistentFlags().StringP("input", "i", "", "Required. Directory tree to scan for ebooks.")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Required. Directory to write converted files under.")

	// Selection flags
	rootCmd.Flags().StringSlice("ext", []string{".pdf"}, fmt.Sprintf("Input extensions to convert, comma-separated (well-supported: %s)", strings.Join(converter.DefaultInputExtensions, ",")))
	rootCmd.Flags().StringSlice("ignore", []string{}, "Glob patterns for files/directories to skip (can be repeated)")

	// Conversion flags
	rootCmd.Flags().Bool("copy", false, "Copy matching files instead of converting them")
	rootCmd.Flags().StringP("format", "f", converter.DefaultOutputFormatName, fmt.Sprintf("Output format %v", converter.KnownOutputFormats))
	rootCmd.Flags().String("profile", converter.DefaultProfile, fmt.Sprintf("Calibre output profile %v", converter.KnownProfiles))
	rootCmd.Flags().String("target", string(converter.DefaultTarget), `Device preset: "app" (EPUB) or "device" (AZW3); supplies the format unless --format is given`)
	rootCmd.Flags().String("converter", "", "Path to the ebook-convert executable (default: search PATH, then the standard Calibre install)")

	// Behavior flags
	rootCmd.Flags().Bool("overwrite", converter.DefaultOverwrite, "Replace existing output files instead of skipping them")
	rootCmd.Flags().Bool("flatten", converter.DefaultFlatten, "Write all outputs directly into the output directory with path-derived names")
	rootCmd.Flags().IntP("workers", "w", converter.DefaultConcurrency, fmt.Sprintf("Number of parallel conversions (1-%d)", converter.MaxConcurrency))

	// Presentation flags
	rootCmd.Flags().Bool("no-tui", false, "Disable the interactive terminal UI even in a TTY")
	rootCmd.Flags().String("report-format", string(converter.DefaultReportFormat), `Final report format ("text", "json")`)
}
