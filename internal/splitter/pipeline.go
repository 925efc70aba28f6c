// Package splitter turns one omnibus EPUB into one EPUB archive per catalog book.
package splitter

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/yuanying/splitepub/internal/catalog"
	"github.com/yuanying/splitepub/internal/epub"
	"github.com/yuanying/splitepub/internal/render"
	"github.com/yuanying/splitepub/internal/workspace"
)

var (
	ErrSourceNotFound    = errors.New("source EPUB not found")
	ErrMissingSourceFile = errors.New("expected source file is missing")
	ErrDanglingReference = errors.New("package references a file that does not exist")
)

// SplitOptions holds options for the split pipeline.
type SplitOptions struct {
	SourcePath     string
	WorkDir        string
	Catalog        *catalog.Catalog
	TemplatesDir   string
	CoversDir      string
	CoverMaxHeight int   // 0 keeps the cover's size
	Only           []int // book numbers to build; empty builds all
	Logger         *slog.Logger
}

// BookResult describes one written archive.
type BookResult struct {
	Number   int
	Title    string
	Path     string
	Chapters int
	Entries  int
	Bytes    int64
}

// Pipeline orchestrates splitting the omnibus into per-book EPUBs.
type Pipeline struct {
	Options SplitOptions
	logger  *slog.Logger
}

// NewPipeline creates a new split pipeline.
func NewPipeline(opts SplitOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	return &Pipeline{Options: opts, logger: logger}
}

// Run executes the whole pipeline. It stops at the first error; archives
// already written for earlier books are left in place.
func (p *Pipeline) Run() ([]BookResult, error) {
	books, renderer, err := p.prepare()
	if err != nil {
		return nil, err
	}

	ws := workspace.New(p.Options.WorkDir)
	if err := ws.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := ws.Unlock(); err != nil {
			p.logger.Warn("failed to release workspace lock", "error", err)
		}
	}()

	p.logger.Info("cleaning up from previous runs", "workdir", ws.Root)
	if err := ws.Prepare(); err != nil {
		return nil, fmt.Errorf("prepare workspace: %w", err)
	}

	p.logger.Info("decompressing source EPUB", "source", p.Options.SourcePath)
	n, err := epub.Extract(p.Options.SourcePath, ws.Source)
	if err != nil {
		return nil, fmt.Errorf("unpack source: %w", err)
	}
	p.logger.Debug("source unpacked", "files", n)

	a := &assembler{
		ws:             ws,
		catalog:        p.Options.Catalog,
		renderer:       renderer,
		coversDir:      p.Options.CoversDir,
		coverMaxHeight: p.Options.CoverMaxHeight,
		logger:         p.logger,
	}

	results := make([]BookResult, 0, len(books))
	for _, book := range books {
		res, err := a.build(book)
		if err != nil {
			return results, fmt.Errorf("book %d (%s): %w", book.Number, book.Title, err)
		}
		results = append(results, res)
	}

	p.logger.Info("all books written", "count", len(results), "out", ws.Out)
	return results, nil
}

// prepare checks preconditions and compiles templates before the workspace
// is touched.
func (p *Pipeline) prepare() ([]catalog.Book, *render.Renderer, error) {
	if p.Options.Catalog == nil {
		return nil, nil, errors.New("no catalog configured")
	}
	if err := p.Options.Catalog.Validate(); err != nil {
		return nil, nil, err
	}
	info, err := os.Stat(p.Options.SourcePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrSourceNotFound, p.Options.SourcePath)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, p.Options.SourcePath)
	}

	books, err := p.Options.Catalog.Select(p.Options.Only)
	if err != nil {
		return nil, nil, err
	}

	renderer, err := render.New(p.Options.TemplatesDir)
	if err != nil {
		return nil, nil, err
	}
	for _, name := range render.Names {
		p.logger.Debug("template loaded", "template", name, "source", renderer.Source(name))
	}
	return books, renderer, nil
}
