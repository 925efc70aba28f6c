package splitter

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/yuanying/splitepub/internal/catalog"
)

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

func chapterDoc(heading string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>Omnibus</title></head>
<body><h1>` + heading + `</h1><p>Lorem ipsum dolor sit amet, consectetur adipiscing elit.</p></body></html>`
}

// sourceFiles returns the omnibus layout used by the pipeline tests.
func sourceFiles() map[string]string {
	return map[string]string{
		"META-INF/container.xml":                        containerXML,
		"META-INF/com.apple.ibooks.display-options.xml": `<?xml version="1.0" encoding="UTF-8"?><display_options/>`,
		"OEBPS/content.opf":                             "<package/>",
		"OEBPS/copyright.xhtml":                         chapterDoc("Copyright"),
		"OEBPS/cover.xhtml":                             chapterDoc("Cover"),
		"OEBPS/css/media.css":                           "@media print { body { margin: 0; } }",
		"OEBPS/css/style.css":                           "p{}",
		"OEBPS/images/vellum-created.png":               "not really a png but copied verbatim",
		"OEBPS/images/xn.jpg":                           "omnibus cover",
		"OEBPS/ch1.xhtml":                               chapterDoc("Chapter One"),
		"OEBPS/ch2.xhtml":                               chapterDoc("Chapter Two"),
		"OEBPS/ch3.xhtml":                               chapterDoc("Chapter Three"),
	}
}

// writeSourceEPUB writes an omnibus archive with a stored mimetype first.
func writeSourceEPUB(t *testing.T, dir string, files map[string]string) string {
	t.Helper()
	p := filepath.Join(dir, "omnibus.epub")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create source epub: %v", err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	mw, err := w.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatal(err)
	}
	mw.Write([]byte("application/epub+zip"))

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ew, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		ew.Write([]byte(files[name]))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close source epub: %v", err)
	}
	return p
}

func writeCover(t *testing.T, p string, width, height int) {
	t.Helper()
	img := imaging.New(width, height, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(img, p); err != nil {
		t.Fatalf("save cover: %v", err)
	}
}

func twoBookCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Series:   "Series",
		Author:   "Author",
		Language: "en",
		Static:   catalog.DefaultStaticAssets(),
		Books: []catalog.Book{
			{Number: 1, Title: "Alpha", Chapters: []catalog.Chapter{{File: "ch1.xhtml"}, {File: "ch2.xhtml"}}},
			{Number: 2, Title: "Beta", Chapters: []catalog.Chapter{{File: "ch3.xhtml"}}},
		},
	}
}

type fixture struct {
	source  string
	workDir string
	covers  string
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	root := t.TempDir()
	fx := fixture{
		source:  writeSourceEPUB(t, root, files),
		workDir: filepath.Join(root, "work"),
		covers:  filepath.Join(root, "covers"),
	}
	writeCover(t, filepath.Join(fx.covers, "1.jpg"), 40, 60)
	writeCover(t, filepath.Join(fx.covers, "2.jpg"), 40, 60)
	return fx
}

func (fx fixture) options(c *catalog.Catalog) SplitOptions {
	return SplitOptions{
		SourcePath: fx.source,
		WorkDir:    fx.workDir,
		Catalog:    c,
		CoversDir:  fx.covers,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func archiveNames(t *testing.T, p string) []string {
	t.Helper()
	zr, err := zip.OpenReader(p)
	if err != nil {
		t.Fatalf("open %s: %v", p, err)
	}
	defer zr.Close()
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func readEntry(t *testing.T, p, name string) []byte {
	t.Helper()
	zr, err := zip.OpenReader(p)
	if err != nil {
		t.Fatalf("open %s: %v", p, err)
	}
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatal(err)
		}
		return data
	}
	t.Fatalf("%s has no entry %s", p, name)
	return nil
}

func decodeImage(t *testing.T, data []byte) (image.Config, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode image: %v", err)
	}
	return cfg, format
}
