package splitter

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/yuanying/splitepub/internal/catalog"
	"github.com/yuanying/splitepub/internal/epub"
	"github.com/yuanying/splitepub/internal/render"
	"github.com/yuanying/splitepub/internal/workspace"
)

// skeleton lists the directories every book package starts with.
var skeleton = []string{"META-INF", "OEBPS", "OEBPS/css", "OEBPS/images"}

// assembler builds one book package at a time from the unpacked source.
type assembler struct {
	ws             *workspace.Workspace
	catalog        *catalog.Catalog
	renderer       *render.Renderer
	coversDir      string
	coverMaxHeight int
	logger         *slog.Logger
}

func (a *assembler) build(book catalog.Book) (BookResult, error) {
	logger := a.logger.With("book", book.Number)
	logger.Info("working on book", "title", book.Title, "chapters", len(book.Chapters))

	bookDir := a.ws.BookDir(book.Number)
	for _, dir := range skeleton {
		if err := workspace.MkdirAll(filepath.Join(bookDir, filepath.FromSlash(dir))); err != nil {
			return BookResult{}, fmt.Errorf("create package skeleton: %w", err)
		}
	}

	logger.Info("copying static contents")
	for _, rel := range a.catalog.Static.Files {
		if err := a.copySource(rel, bookDir, logger); err != nil {
			return BookResult{}, err
		}
	}
	coverSrc := a.coverPath(book)
	coverDst := filepath.Join(bookDir, filepath.FromSlash(a.catalog.Static.CoverSlot))
	if err := prepareCover(coverSrc, coverDst, a.coverMaxHeight); err != nil {
		return BookResult{}, err
	}
	logger.Debug("cover written", "from", coverSrc, "slot", a.catalog.Static.CoverSlot)
	if err := a.copySource("mimetype", bookDir, logger); err != nil {
		return BookResult{}, err
	}

	logger.Info("generating manifests and ToC")
	resolved, err := a.resolveChapterTitles(book)
	if err != nil {
		return BookResult{}, err
	}
	docs, err := a.renderer.Render(render.NewBookView(a.catalog, resolved))
	if err != nil {
		return BookResult{}, err
	}
	oebps := filepath.Join(bookDir, "OEBPS")
	for _, doc := range docs {
		if err := os.WriteFile(filepath.Join(oebps, doc.Name), doc.Data, 0o644); err != nil {
			return BookResult{}, fmt.Errorf("write %s: %w", doc.Name, err)
		}
	}

	logger.Info("copying chapters")
	for _, ch := range book.Chapters {
		if err := a.copySource(path.Join("OEBPS", ch.File), bookDir, logger); err != nil {
			return BookResult{}, err
		}
	}

	if err := verifyPackage(bookDir); err != nil {
		return BookResult{}, err
	}

	outPath := filepath.Join(a.ws.Out, OutputName(a.catalog.Series, book))
	logger.Info("generating EPUB file", "path", outPath)
	packed, err := epub.Pack(bookDir, outPath)
	if err != nil {
		return BookResult{}, fmt.Errorf("pack %s: %w", outPath, err)
	}
	logger.Info("book complete", "entries", packed.Entries, "stored", packed.Stored, "bytes", packed.ByteCount)

	return BookResult{
		Number:   book.Number,
		Title:    book.Title,
		Path:     outPath,
		Chapters: len(book.Chapters),
		Entries:  packed.Entries,
		Bytes:    packed.ByteCount,
	}, nil
}

// copySource copies a package-relative file from the unpacked source into
// the same relative location under bookDir.
func (a *assembler) copySource(rel, bookDir string, logger *slog.Logger) error {
	src := filepath.Join(a.ws.Source, filepath.FromSlash(rel))
	dst := filepath.Join(bookDir, filepath.FromSlash(rel))
	if err := copyFile(src, dst); err != nil {
		return err
	}
	logger.Debug("copied", "file", rel)
	return nil
}

// coverPath returns the per-book cover: the book's explicit cover when set
// (relative paths resolve against the covers directory), otherwise
// <covers>/<number>.jpg.
func (a *assembler) coverPath(book catalog.Book) string {
	if book.Cover == "" {
		return filepath.Join(a.coversDir, fmt.Sprintf("%d.jpg", book.Number))
	}
	if filepath.IsAbs(book.Cover) {
		return book.Cover
	}
	return filepath.Join(a.coversDir, filepath.FromSlash(book.Cover))
}

// resolveChapterTitles returns a copy of book whose untitled chapters carry
// the heading of their source document.
func (a *assembler) resolveChapterTitles(book catalog.Book) (catalog.Book, error) {
	chapters := make([]catalog.Chapter, len(book.Chapters))
	copy(chapters, book.Chapters)
	for i, ch := range chapters {
		if ch.Title != "" {
			continue
		}
		src := filepath.Join(a.ws.Source, "OEBPS", filepath.FromSlash(ch.File))
		data, err := os.ReadFile(src)
		if err != nil {
			return book, missingOr(err, src)
		}
		title, err := epub.DocumentTitle(data)
		if err != nil {
			return book, fmt.Errorf("read title of %s: %w", ch.File, err)
		}
		chapters[i].Title = title
	}
	book.Chapters = chapters
	return book, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return missingOr(err, src)
	}
	defer in.Close()

	if err := workspace.MkdirAll(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

func missingOr(err error, p string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrMissingSourceFile, p)
	}
	return fmt.Errorf("open %s: %w", p, err)
}
