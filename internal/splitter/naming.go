package splitter

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/yuanying/splitepub/internal/catalog"
)

var nameReplacer = strings.NewReplacer("/", "-", `\`, "-", "\x00", "")

// OutputName returns the archive file name for a book:
// "<Series> - Book <n> - <Title>.epub", NFC-normalized, with path
// separators replaced.
func OutputName(series string, book catalog.Book) string {
	name := fmt.Sprintf("%s - Book %d - %s.epub", series, book.Number, book.Title)
	return nameReplacer.Replace(norm.NFC.String(name))
}
