package render

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/yuanying/splitepub/internal/catalog"
	"github.com/yuanying/splitepub/internal/epub"
)

const contentDir = catalog.ContentDir

// Generated document names, relative to contentDir.
const (
	ContentOPF     = "content.opf"
	ContentsXHTML  = "contents.xhtml"
	TitlePageXHTML = "title-page.xhtml"
	TocNCX         = "toc.ncx"
)

// bookNamespace seeds the per-book UUIDv5 identifiers.
var bookNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/yuanying/splitepub"))

// BookView is the value every template is executed against.
type BookView struct {
	Series     string
	Author     string
	Language   string
	Publisher  string
	Number     int
	Title      string
	FullTitle  string
	Identifier string

	Chapters []ChapterView
	Cover    AssetView

	// Assets are the OEBPS static files other than the cover image.
	// CoverPage is the static XHTML document named "cover", if any, and
	// FrontPages are the remaining static XHTML documents.
	Assets     []AssetView
	CoverPage  *AssetView
	FrontPages []AssetView
}

// ChapterView is one chapter as seen by the templates.
type ChapterView struct {
	ID        string
	Href      string
	Title     string
	MediaType string
	PlayOrder int
}

// AssetView is a manifest item that is copied rather than generated.
type AssetView struct {
	ID        string
	Href      string
	MediaType string
}

// NewBookView builds the template input for one book. Chapter titles must
// already be resolved; an empty title is replaced by the file name stem.
func NewBookView(c *catalog.Catalog, b catalog.Book) BookView {
	v := BookView{
		Series:     c.Series,
		Author:     c.Author,
		Language:   c.Language,
		Publisher:  c.Publisher,
		Number:     b.Number,
		Title:      b.Title,
		FullTitle:  fmt.Sprintf("%s - Book %d - %s", c.Series, b.Number, b.Title),
		Identifier: BookIdentifier(c.Series, b.Number),
	}

	v.Cover = AssetView{
		ID:        "cover-image",
		Href:      oebpsRel(c.Static.CoverSlot),
		MediaType: epub.MediaTypeFor(c.Static.CoverSlot),
	}

	for _, f := range c.Static.Files {
		if !strings.HasPrefix(f, contentDir+"/") || f == c.Static.CoverSlot {
			continue
		}
		a := AssetView{
			ID:        assetID(oebpsRel(f)),
			Href:      oebpsRel(f),
			MediaType: epub.MediaTypeFor(f),
		}
		v.Assets = append(v.Assets, a)
		if !epub.IsXHTML(a.MediaType) {
			continue
		}
		if epub.FileStem(f) == "cover" && v.CoverPage == nil {
			page := a
			v.CoverPage = &page
			continue
		}
		v.FrontPages = append(v.FrontPages, a)
	}

	// Play order 1 and 2 belong to the title page and contents page.
	for i, ch := range b.Chapters {
		title := ch.Title
		if title == "" {
			title = epub.FileStem(ch.File)
		}
		v.Chapters = append(v.Chapters, ChapterView{
			ID:        fmt.Sprintf("chapter-%d", i+1),
			Href:      ch.File,
			Title:     title,
			MediaType: epub.MediaTypeFor(ch.File),
			PlayOrder: i + 3,
		})
	}
	return v
}

// BookIdentifier returns a stable urn:uuid identifier for a book.
func BookIdentifier(series string, number int) string {
	id := uuid.NewSHA1(bookNamespace, []byte(fmt.Sprintf("%s\x00%d", series, number)))
	return id.URN()
}

func oebpsRel(p string) string {
	return strings.TrimPrefix(path.Clean(p), contentDir+"/")
}

// assetID derives an XML NCName from an href.
func assetID(href string) string {
	var b strings.Builder
	b.WriteString("asset-")
	for _, r := range href {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
