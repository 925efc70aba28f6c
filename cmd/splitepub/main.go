package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "splitepub",
		Short: "Split an omnibus EPUB into one EPUB per book",
		Long: `splitepub takes a single omnibus EPUB that bundles several books of a
series and produces one standalone EPUB per book, driven by a catalog that
says which chapters belong to which book.`,
		SilenceUsage: true,
	}
	root.AddCommand(newSplitCmd(), newBooksCmd(), newInspectCmd(), newTemplatesCmd())
	return root
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", defaultLogLevel, "Log level: debug, info, warn, error")
	cmd.Flags().String("log-format", defaultLogFormat, "Log format: text or json")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose output (same as --log-level debug)")
}

func readLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if _, ok := parseLogLevel(level); !ok {
		return nil, fmt.Errorf("invalid --log-level %q: must be one of debug, info, warn, error", level)
	}
	switch strings.ToLower(format) {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid --log-format %q: must be text or json", format)
	}
	if verbose {
		level = "debug"
	}
	return buildLogger(cmd.ErrOrStderr(), level, format), nil
}

func parseLogLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// buildLogger returns a text or JSON slog logger writing to w.
func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, _ := parseLogLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
