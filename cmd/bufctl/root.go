package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/joshuapare/offheap/internal/logger"
	"github.com/joshuapare/offheap/native"
)

var (
	// Global flags
	verbose       bool
	quiet         bool
	jsonOut       bool
	allocatorKind string
	arenaSize     string
	logDir        string
)

var rootCmd = &cobra.Command{
	Use:   "bufctl",
	Short: "Exercise and diagnose off-heap buffers",
	Long: `bufctl drives the off-heap buffer engine against a chosen allocator.
It fills and multiplies buffers, prints the segment layout of huge buffers,
races Acquire/Release against Free, and reports allocator statistics.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&allocatorKind, "allocator", "mmap", "Allocator source: mmap, heap or arena")
	rootCmd.PersistentFlags().
		StringVar(&arenaSize, "arena-size", "256MiB", "Capacity of the arena allocator")
	rootCmd.PersistentFlags().
		StringVar(&logDir, "log-dir", "", "Write JSON logs to this directory")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging routes debug logs to stderr with --verbose and to daily files
// with --log-dir.
func initLogging() error {
	switch {
	case verbose && !quiet:
		return logger.Init(logger.Options{Enabled: true, Writer: os.Stderr, Level: slog.LevelDebug})
	case logDir != "":
		return logger.Init(logger.Options{Enabled: true, LogDir: logDir, Level: slog.LevelDebug})
	default:
		return logger.Init(logger.Options{})
	}
}

// newAllocator builds the allocator selected by --allocator.
func newAllocator() (*native.Client, error) {
	opts := native.DefaultOptions()
	opts.Name = "bufctl-" + allocatorKind
	switch allocatorKind {
	case "mmap":
		return native.NewMmap(opts), nil
	case "heap":
		return native.NewHeap(opts), nil
	case "arena":
		capacity, err := humanize.ParseBytes(arenaSize)
		if err != nil {
			return nil, fmt.Errorf("invalid --arena-size %q: %w", arenaSize, err)
		}
		return native.NewArena(capacity, opts)
	default:
		return nil, fmt.Errorf("unknown allocator %q (want mmap, heap or arena)", allocatorKind)
	}
}

// closeAllocator releases an arena's mapping; the other sources hold nothing.
func closeAllocator(a *native.Client) {
	if arena, ok := a.Source().(*native.ArenaSource); ok {
		if err := arena.Close(); err != nil {
			printVerbose("closing arena: %v\n", err)
		}
	}
}

// Helper functions for output

var printer = message.NewPrinter(language.English)

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		printer.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
