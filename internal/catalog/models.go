package catalog

// Catalog is the full set of logical books contained in the omnibus EPUB
// together with the series-level metadata shared by every output.
type Catalog struct {
	Series    string       `toml:"series"`
	Author    string       `toml:"author"`
	Language  string       `toml:"language"`
	Publisher string       `toml:"publisher"`
	Static    StaticAssets `toml:"static"`
	Books     []Book       `toml:"books"`
}

// Book is one logical book inside the omnibus.
type Book struct {
	Number   int       `toml:"number"`
	Title    string    `toml:"title"`
	Cover    string    `toml:"cover"` // optional explicit cover path
	Chapters []Chapter `toml:"chapters"`

	// Chapter ranges expand into Chapters when the catalog is loaded.
	ChapterPattern string `toml:"chapter_pattern"`
	FirstChapter   int    `toml:"first_chapter"`
	LastChapter    int    `toml:"last_chapter"`
}

// Chapter references a content document inside the source OEBPS tree.
type Chapter struct {
	File  string `toml:"file"`
	Title string `toml:"title"`
}

// StaticAssets lists the files copied unchanged from the source into every
// book. Paths are relative to the package root (e.g. "OEBPS/css/style.css").
type StaticAssets struct {
	Files     []string `toml:"files"`
	CoverSlot string   `toml:"cover_slot"`
}

// ContentDir is the package directory that chapters, static XHTML and the
// generated documents live in.
const ContentDir = "OEBPS"

// GeneratedDocuments are rendered per book into ContentDir. No chapter may
// share their names.
var GeneratedDocuments = []string{"content.opf", "contents.xhtml", "title-page.xhtml", "toc.ncx"}

// DefaultStaticAssets matches the layout of the omnibus produced by Vellum.
func DefaultStaticAssets() StaticAssets {
	return StaticAssets{
		Files: []string{
			"META-INF/com.apple.ibooks.display-options.xml",
			"META-INF/container.xml",
			"OEBPS/copyright.xhtml",
			"OEBPS/cover.xhtml",
			"OEBPS/css/media.css",
			"OEBPS/css/style.css",
			"OEBPS/images/vellum-created.png",
		},
		CoverSlot: "OEBPS/images/xn.jpg",
	}
}

// ChapterFiles returns the chapter file names in reading order.
func (b Book) ChapterFiles() []string {
	files := make([]string, len(b.Chapters))
	for i, ch := range b.Chapters {
		files[i] = ch.File
	}
	return files
}
