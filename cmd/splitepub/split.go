package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yuanying/splitepub/internal/catalog"
	"github.com/yuanying/splitepub/internal/splitter"
)

const (
	defaultCatalogPath  = "books.toml"
	defaultTemplatesDir = "templates"
	defaultCoversDir    = "covers"
)

// cliOptions is the validated flag set of the split command.
type cliOptions struct {
	SourcePath     string
	WorkDir        string
	CatalogPath    string
	TemplatesDir   string
	CoversDir      string
	CoverMaxHeight int
	Only           []int
	Logger         *slog.Logger
}

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <source.epub>",
		Short: "Split the omnibus into per-book EPUB files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			return runSplit(cmd, opts)
		},
	}
	cmd.Flags().StringP("workdir", "w", ".", "Working directory holding source/, staging/ and out/")
	cmd.Flags().StringP("catalog", "c", defaultCatalogPath, "Book catalog (TOML)")
	cmd.Flags().String("templates", defaultTemplatesDir, "Directory with template overrides")
	cmd.Flags().String("covers", defaultCoversDir, "Directory with per-book covers (<n>.jpg)")
	cmd.Flags().Int("cover-max-height", 0, "Scale covers taller than this many pixels (0 keeps the original)")
	cmd.Flags().IntSlice("only", nil, "Build only these book numbers (comma separated)")
	addLogFlags(cmd)
	return cmd
}

func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	var opts cliOptions
	if len(args) != 1 {
		return opts, fmt.Errorf("expected exactly one source EPUB, got %d", len(args))
	}
	opts.SourcePath = args[0]

	flags := cmd.Flags()
	opts.WorkDir, _ = flags.GetString("workdir")
	opts.CatalogPath, _ = flags.GetString("catalog")
	opts.TemplatesDir, _ = flags.GetString("templates")
	opts.CoversDir, _ = flags.GetString("covers")
	opts.CoverMaxHeight, _ = flags.GetInt("cover-max-height")
	opts.Only, _ = flags.GetIntSlice("only")

	if opts.WorkDir == "" {
		return opts, fmt.Errorf("invalid --workdir: must not be empty")
	}
	if opts.CatalogPath == "" {
		return opts, fmt.Errorf("invalid --catalog: must not be empty")
	}
	if opts.CoverMaxHeight < 0 {
		return opts, fmt.Errorf("invalid --cover-max-height %d: must be >= 0", opts.CoverMaxHeight)
	}
	for _, n := range opts.Only {
		if n <= 0 {
			return opts, fmt.Errorf("invalid --only %d: book numbers start at 1", n)
		}
	}

	logger, err := readLogger(cmd)
	if err != nil {
		return opts, err
	}
	opts.Logger = logger
	return opts, nil
}

func runSplit(cmd *cobra.Command, opts cliOptions) error {
	c, err := catalog.Load(opts.CatalogPath)
	if err != nil {
		return err
	}
	opts.Logger.Info("catalog loaded", "series", c.Series, "books", len(c.Books))

	p := splitter.NewPipeline(splitter.SplitOptions{
		SourcePath:     opts.SourcePath,
		WorkDir:        opts.WorkDir,
		Catalog:        c,
		TemplatesDir:   opts.TemplatesDir,
		CoversDir:      opts.CoversDir,
		CoverMaxHeight: opts.CoverMaxHeight,
		Only:           opts.Only,
		Logger:         opts.Logger,
	})
	results, err := p.Run()
	if len(results) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), resultsTable(results))
	}
	if err != nil {
		return fmt.Errorf("split failed: %w", err)
	}
	return nil
}

func resultsTable(results []splitter.BookResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			strconv.Itoa(r.Number),
			r.Title,
			strconv.Itoa(r.Chapters),
			strconv.Itoa(r.Entries),
			strconv.FormatInt(r.Bytes, 10),
			filepath.Base(r.Path),
		})
	}
	return renderTable(
		[]string{"Book", "Title", "Chapters", "Entries", "Bytes", "File"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}
