package main

import (
	"archive/zip"
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yuanying/splitepub/internal/catalog"
	"github.com/yuanying/splitepub/internal/epub"
	"github.com/yuanying/splitepub/internal/splitter"
)

func readSplitOptionsForTest(t *testing.T, flagArgs ...string) error {
	t.Helper()
	cmd := newSplitCmd()
	if err := cmd.ParseFlags(flagArgs); err != nil {
		return err
	}
	_, err := readCLIOptions(cmd, []string{"./omnibus.epub"})
	return err
}

func TestReadCLIOptions_Defaults(t *testing.T) {
	cmd := newSplitCmd()
	opts, err := readCLIOptions(cmd, []string{"./omnibus.epub"})
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.SourcePath != "./omnibus.epub" {
		t.Fatalf("SourcePath = %q", opts.SourcePath)
	}
	if opts.WorkDir != "." {
		t.Fatalf("WorkDir = %q, want %q", opts.WorkDir, ".")
	}
	if opts.CatalogPath != defaultCatalogPath {
		t.Fatalf("CatalogPath = %q, want %q", opts.CatalogPath, defaultCatalogPath)
	}
	if opts.TemplatesDir != defaultTemplatesDir {
		t.Fatalf("TemplatesDir = %q, want %q", opts.TemplatesDir, defaultTemplatesDir)
	}
	if opts.CoversDir != defaultCoversDir {
		t.Fatalf("CoversDir = %q, want %q", opts.CoversDir, defaultCoversDir)
	}
	if opts.CoverMaxHeight != 0 {
		t.Fatalf("CoverMaxHeight = %d, want 0", opts.CoverMaxHeight)
	}
	if len(opts.Only) != 0 {
		t.Fatalf("Only = %v, want empty", opts.Only)
	}
	if opts.Logger == nil {
		t.Fatal("Logger is nil, want non-nil")
	}
	if !opts.Logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Logger should be enabled at INFO level by default")
	}
	if opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Logger should not be enabled at DEBUG level by default")
	}
}

func TestReadCLIOptions_CustomFlags(t *testing.T) {
	cmd := newSplitCmd()
	if err := cmd.ParseFlags([]string{
		"--workdir", "/tmp/work",
		"--catalog", "series.toml",
		"--templates", "tpl",
		"--covers", "art",
		"--cover-max-height", "1600",
		"--only", "2,3",
		"--log-level", "warn",
		"--verbose",
	}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	opts, err := readCLIOptions(cmd, []string{"./omnibus.epub"})
	if err != nil {
		t.Fatalf("readCLIOptions() error = %v", err)
	}

	if opts.WorkDir != "/tmp/work" {
		t.Fatalf("WorkDir = %q", opts.WorkDir)
	}
	if opts.CatalogPath != "series.toml" {
		t.Fatalf("CatalogPath = %q", opts.CatalogPath)
	}
	if opts.TemplatesDir != "tpl" {
		t.Fatalf("TemplatesDir = %q", opts.TemplatesDir)
	}
	if opts.CoversDir != "art" {
		t.Fatalf("CoversDir = %q", opts.CoversDir)
	}
	if opts.CoverMaxHeight != 1600 {
		t.Fatalf("CoverMaxHeight = %d", opts.CoverMaxHeight)
	}
	if !reflect.DeepEqual(opts.Only, []int{2, 3}) {
		t.Fatalf("Only = %v", opts.Only)
	}
	// --verbose overrides log-level to debug
	if !opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Logger should be enabled at DEBUG level when --verbose is set")
	}
}

func TestReadCLIOptions_InvalidCoverMaxHeight(t *testing.T) {
	err := readSplitOptionsForTest(t, "--cover-max-height", "-1")
	if err == nil || !strings.Contains(err.Error(), "--cover-max-height") {
		t.Fatalf("expected cover-max-height validation error, got %v", err)
	}
}

func TestReadCLIOptions_InvalidOnly(t *testing.T) {
	err := readSplitOptionsForTest(t, "--only", "1,0")
	if err == nil || !strings.Contains(err.Error(), "--only") {
		t.Fatalf("expected only validation error, got %v", err)
	}
}

func TestReadCLIOptions_InvalidLogLevel(t *testing.T) {
	err := readSplitOptionsForTest(t, "--log-level", "trace")
	if err == nil || !strings.Contains(err.Error(), "--log-level") {
		t.Fatalf("expected log-level validation error, got %v", err)
	}
}

func TestReadCLIOptions_InvalidLogFormat(t *testing.T) {
	err := readSplitOptionsForTest(t, "--log-format", "yaml")
	if err == nil || !strings.Contains(err.Error(), "--log-format") {
		t.Fatalf("expected log-format validation error, got %v", err)
	}
}

func TestReadCLIOptions_EmptyCatalog(t *testing.T) {
	err := readSplitOptionsForTest(t, "--catalog", "")
	if err == nil || !strings.Contains(err.Error(), "--catalog") {
		t.Fatalf("expected catalog validation error, got %v", err)
	}
}

func TestBuildLogger_FormatNormalization(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "info", "JSON")
	logger.Info("test message")
	output := buf.String()
	if len(output) == 0 || output[0] != '{' {
		t.Fatalf("expected JSON output for format 'JSON', got: %s", output)
	}
}

func TestBuildLogger_TextLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "WARN", "text")
	logger.Info("hidden")
	logger.Warn("shown")
	output := buf.String()
	if strings.Contains(output, "hidden") || !strings.Contains(output, "shown") {
		t.Fatalf("unexpected output at warn level: %s", output)
	}
}

func TestBooksCmd_Table(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "books.toml")
	if err := os.WriteFile(path, []byte(catalog.Sample()), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"books", "--catalog", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"Renegade Immortal", "Book", "chapter-003.xhtml", "chapter-010.xhtml", "Renegade Immortal - Book 2 - "} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestBooksCmd_Sample(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"books", "--sample"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out.String() != catalog.Sample() {
		t.Fatalf("sample output differs from embedded catalog")
	}
}

func TestTemplatesCmd_Export(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tpl")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"templates", dir})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "content.opf.tmpl")); err != nil {
		t.Fatalf("content.opf.tmpl not exported: %v", err)
	}
}

func TestInspectCmd_RejectsNonEPUB(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.epub")
	if err := os.WriteFile(p, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"inspect", p})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for non-EPUB input")
	}
}

const inspectContainer = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`

const inspectOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Series - Book 1 - Alpha</dc:title>
    <dc:creator>Er Gen</dc:creator>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">urn:uuid:alpha-0001</dc:identifier>
    <meta name="cover" content="cover-image"/>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="cover-image" href="images/xn.jpg" media-type="image/jpeg"/>
    <item id="ch1" href="ch%201.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
  </spine>
</package>`

func inspectNCX(uid string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="` + uid + `"/>
    <meta name="dtb:depth" content="1"/>
  </head>
  <docTitle><text>Alpha</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter One</text></navLabel>
      <content src="ch%201.xhtml#start"/>
    </navPoint>
  </navMap>
</ncx>`
}

func writeInspectEPUB(t *testing.T, files map[string]string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "book.epub")
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(epub.MimeType)); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"META-INF/container.xml", "OEBPS/content.opf", "OEBPS/toc.ncx", "OEBPS/images/xn.jpg", "OEBPS/ch 1.xhtml"} {
		body, ok := files[name]
		if !ok {
			continue
		}
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

func runInspect(t *testing.T, p string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"inspect", p})
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectCmd_PackageMetadata(t *testing.T) {
	p := writeInspectEPUB(t, map[string]string{
		"META-INF/container.xml": inspectContainer,
		"OEBPS/content.opf":      inspectOPF,
		"OEBPS/toc.ncx":          inspectNCX("urn:uuid:alpha-0001"),
		"OEBPS/images/xn.jpg":    "jpeg",
		"OEBPS/ch 1.xhtml":       "<html/>",
	})

	got, err := runInspect(t, p)
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, got)
	}
	for _, want := range []string{
		"Series - Book 1 - Alpha",
		"Er Gen",
		"urn:uuid:alpha-0001",
		"cover-image (OEBPS/images/xn.jpg)",
		"manifest:    [OK] 3 items",
		"spine:       [OK] 1 of 1 itemrefs resolved",
		`ncx:         [OK] "Alpha" uid=urn:uuid:alpha-0001 depth=1`,
		"Chapter One",
		"OEBPS/ch 1.xhtml#start",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestInspectCmd_ReportsInconsistencies(t *testing.T) {
	p := writeInspectEPUB(t, map[string]string{
		"META-INF/container.xml": inspectContainer,
		"OEBPS/content.opf":      strings.Replace(inspectOPF, `<itemref idref="ch1"/>`, `<itemref idref="ch1"/><itemref idref="gone"/>`, 1),
		"OEBPS/toc.ncx":          inspectNCX("urn:uuid:other"),
		"OEBPS/ch 1.xhtml":       "<html/>",
	})

	got, err := runInspect(t, p)
	if err != nil {
		t.Fatalf("Execute() error = %v\n%s", err, got)
	}
	for _, want := range []string{
		"manifest:    [FAIL] missing OEBPS/images/xn.jpg",
		"spine:       [FAIL] 1 of 2 itemrefs resolved",
		"(unknown id gone)",
		"(package identifier is urn:uuid:alpha-0001)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestInspectCmd_MalformedPackageDocument(t *testing.T) {
	p := writeInspectEPUB(t, map[string]string{
		"META-INF/container.xml": inspectContainer,
		"OEBPS/content.opf":      "<package><manifest>",
	})

	got, err := runInspect(t, p)
	if err == nil {
		t.Fatal("expected error for malformed package document")
	}
	if !strings.Contains(got, "package:     [FAIL]") {
		t.Errorf("output missing package failure:\n%s", got)
	}
}

func TestResultsTable(t *testing.T) {
	got := resultsTable([]splitter.BookResult{
		{Number: 1, Title: "Alpha", Path: "/w/out/Series - Book 1 - Alpha.epub", Chapters: 2, Entries: 15, Bytes: 4096},
	})
	for _, want := range []string{"Alpha", "Series - Book 1 - Alpha.epub", "4096", "15"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "/w/out") {
		t.Errorf("table should show base names only:\n%s", got)
	}
}

func TestMethodName(t *testing.T) {
	tests := map[uint16]string{0: "stored", 8: "deflated", 12: "method 12"}
	for m, want := range tests {
		if got := methodName(m); got != want {
			t.Errorf("methodName(%d) = %q, want %q", m, got, want)
		}
	}
}

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("container", "OEBPS/content.opf", true, false)
	if got != "container:   [OK] OEBPS/content.opf" {
		t.Fatalf("renderStatusLine() = %q", got)
	}

	colored := renderStatusLine("container", "broken", false, true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red status line, got %q", colored)
	}
	if !strings.Contains(colored, "[FAIL] broken") {
		t.Fatalf("status line missing verdict: %q", colored)
	}
}

func TestShouldColorize_Buffer(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("shouldColorize() = true for a buffer")
	}
}
