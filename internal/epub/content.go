package epub

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// headingSelectors are tried in order when looking for a document's title.
var headingSelectors = []string{"h1", "h2", "title"}

// DocumentTitle parses an XHTML content document and returns the text of
// its first heading, falling back to the <title> element. It returns an
// empty string when the document carries neither.
func DocumentTitle(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse XHTML: %w", err)
	}

	for _, sel := range headingSelectors {
		text := collapseSpace(doc.Find(sel).First().Text())
		if text != "" {
			return text, nil
		}
	}
	return "", nil
}

// FileStem returns the base name of p without its extension.
func FileStem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
