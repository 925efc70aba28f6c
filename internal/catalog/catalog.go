package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_catalog.toml
var sampleCatalog string

var (
	ErrNoBooks         = errors.New("catalog contains no books")
	ErrDuplicateBook   = errors.New("duplicate book number")
	ErrInvalidBook     = errors.New("invalid book")
	ErrMissingSeries   = errors.New("catalog series title is empty")
	ErrInvalidChapters = errors.New("invalid chapter list")
)

// Sample returns an annotated example catalog.
func Sample() string {
	return sampleCatalog
}

// Load reads and validates a TOML catalog file.
func Load(filePath string) (*Catalog, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", filePath, err)
	}
	return c, nil
}

// Parse decodes a TOML catalog, expands chapter ranges, applies defaults,
// sorts books by number and validates the result.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c.normalize()
	for i := range c.Books {
		if err := c.Books[i].expandRange(); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(c.Books, func(i, j int) bool {
		return c.Books[i].Number < c.Books[j].Number
	})

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) normalize() {
	c.Series = strings.TrimSpace(c.Series)
	if c.Language == "" {
		c.Language = "en"
	}
	defaults := DefaultStaticAssets()
	if len(c.Static.Files) == 0 {
		c.Static.Files = defaults.Files
	}
	if c.Static.CoverSlot == "" {
		c.Static.CoverSlot = defaults.CoverSlot
	}
	for i := range c.Books {
		c.Books[i].Title = strings.TrimSpace(c.Books[i].Title)
		for j := range c.Books[i].Chapters {
			ch := &c.Books[i].Chapters[j]
			ch.File = path.Clean(strings.TrimSpace(ch.File))
			ch.Title = strings.TrimSpace(ch.Title)
		}
	}
}

// expandRange appends the chapters described by ChapterPattern.
func (b *Book) expandRange() error {
	if b.ChapterPattern == "" {
		return nil
	}
	if !strings.Contains(b.ChapterPattern, "%") {
		return fmt.Errorf("%w: book %d: chapter_pattern %q has no verb", ErrInvalidChapters, b.Number, b.ChapterPattern)
	}
	if b.FirstChapter <= 0 || b.LastChapter < b.FirstChapter {
		return fmt.Errorf("%w: book %d: bad chapter range %d..%d", ErrInvalidChapters, b.Number, b.FirstChapter, b.LastChapter)
	}
	for n := b.FirstChapter; n <= b.LastChapter; n++ {
		b.Chapters = append(b.Chapters, Chapter{File: fmt.Sprintf(b.ChapterPattern, n)})
	}
	return nil
}

// Validate checks the catalog invariants. Books must already be sorted.
func (c *Catalog) Validate() error {
	if c.Series == "" {
		return ErrMissingSeries
	}
	if len(c.Books) == 0 {
		return ErrNoBooks
	}
	if c.Static.CoverSlot == "" || !isSafeRel(c.Static.CoverSlot) {
		return fmt.Errorf("invalid cover slot %q", c.Static.CoverSlot)
	}
	for _, f := range c.Static.Files {
		if !isSafeRel(f) {
			return fmt.Errorf("invalid static asset path %q", f)
		}
	}

	reserved := c.reservedPaths()
	seen := make(map[int]struct{}, len(c.Books))
	for _, b := range c.Books {
		if b.Number <= 0 {
			return fmt.Errorf("%w: number %d must be positive", ErrInvalidBook, b.Number)
		}
		if _, dup := seen[b.Number]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateBook, b.Number)
		}
		seen[b.Number] = struct{}{}

		if b.Title == "" {
			return fmt.Errorf("%w: book %d has no title", ErrInvalidBook, b.Number)
		}
		if len(b.Chapters) == 0 {
			return fmt.Errorf("%w: book %d has no chapters", ErrInvalidChapters, b.Number)
		}
		files := make(map[string]struct{}, len(b.Chapters))
		for _, ch := range b.Chapters {
			if !isSafeRel(ch.File) {
				return fmt.Errorf("%w: book %d: bad chapter file %q", ErrInvalidChapters, b.Number, ch.File)
			}
			if owner, taken := reserved[path.Join(ContentDir, ch.File)]; taken {
				return fmt.Errorf("%w: book %d: chapter %q collides with the %s", ErrInvalidChapters, b.Number, ch.File, owner)
			}
			if _, dup := files[ch.File]; dup {
				return fmt.Errorf("%w: book %d lists %q twice", ErrInvalidChapters, b.Number, ch.File)
			}
			files[ch.File] = struct{}{}
		}
	}
	return nil
}

// reservedPaths maps every package path a chapter must not overwrite to a
// description of its owner.
func (c *Catalog) reservedPaths() map[string]string {
	reserved := make(map[string]string, len(c.Static.Files)+len(GeneratedDocuments)+1)
	for _, f := range c.Static.Files {
		reserved[path.Clean(f)] = "static asset " + f
	}
	reserved[path.Clean(c.Static.CoverSlot)] = "cover slot"
	for _, name := range GeneratedDocuments {
		reserved[path.Join(ContentDir, name)] = "generated " + name
	}
	return reserved
}

// Select returns the books whose numbers are listed, keeping catalog order.
// An empty selection returns every book.
func (c *Catalog) Select(numbers []int) ([]Book, error) {
	if len(numbers) == 0 {
		return c.Books, nil
	}
	want := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		want[n] = false
	}
	var out []Book
	for _, b := range c.Books {
		if _, ok := want[b.Number]; ok {
			want[b.Number] = true
			out = append(out, b)
		}
	}
	for _, n := range numbers {
		if !want[n] {
			return nil, fmt.Errorf("%w: book %d is not in the catalog", ErrInvalidBook, n)
		}
	}
	return out, nil
}

func isSafeRel(p string) bool {
	if p == "" || p == "." || strings.HasPrefix(p, "/") {
		return false
	}
	cleaned := path.Clean(p)
	return cleaned != ".." && !strings.HasPrefix(cleaned, "../")
}
