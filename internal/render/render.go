// Package render holds the four per-book template contracts: the package
// manifest, the contents page, the title page and the NCX navigation map.
package render

import (
	"bytes"
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

// Names lists the generated documents in the order they are rendered.
var Names = []string{ContentOPF, ContentsXHTML, TitlePageXHTML, TocNCX}

// Document is one rendered file destined for the book's OEBPS directory.
type Document struct {
	Name string
	Data []byte
}

// Renderer holds the compiled templates. It is safe to reuse across books.
type Renderer struct {
	templates map[string]*template.Template
	sources   map[string]string
}

var funcs = template.FuncMap{
	"xml":  escapeXML,
	"href": escapeHref,
}

// New compiles the four templates. For each document, <dir>/<name>.tmpl is
// used when it exists; otherwise the built-in template is used. An empty
// dir selects the built-in templates only.
func New(dir string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(Names)),
		sources:   make(map[string]string, len(Names)),
	}
	for _, name := range Names {
		text, source, err := loadTemplate(dir, name)
		if err != nil {
			return nil, err
		}
		tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("compile template %s (%s): %w", name, source, err)
		}
		r.templates[name] = tmpl
		r.sources[name] = source
	}
	return r, nil
}

func loadTemplate(dir, name string) (text, source string, err error) {
	if dir != "" {
		p := filepath.Join(dir, name+".tmpl")
		data, err := os.ReadFile(p)
		switch {
		case err == nil:
			return string(data), p, nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", "", fmt.Errorf("read template %s: %w", p, err)
		}
	}
	data, err := defaultTemplates.ReadFile("templates/" + name + ".tmpl")
	if err != nil {
		return "", "", fmt.Errorf("built-in template %s: %w", name, err)
	}
	return string(data), "built-in", nil
}

// Source reports where the named template was loaded from.
func (r *Renderer) Source(name string) string {
	return r.sources[name]
}

// Render executes every template against v.
func (r *Renderer) Render(v BookView) ([]Document, error) {
	docs := make([]Document, 0, len(Names))
	for _, name := range Names {
		var buf bytes.Buffer
		if err := r.templates[name].Execute(&buf, v); err != nil {
			return nil, fmt.Errorf("render %s for book %d: %w", name, v.Number, err)
		}
		docs = append(docs, Document{Name: name, Data: buf.Bytes()})
	}
	return docs, nil
}

// Export writes the built-in templates into dir so they can be customized.
// Existing files are left untouched.
func Export(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create template dir: %w", err)
	}
	var written []string
	for _, name := range Names {
		p := filepath.Join(dir, name+".tmpl")
		if _, err := os.Stat(p); err == nil {
			continue
		}
		data, err := defaultTemplates.ReadFile("templates/" + name + ".tmpl")
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", p, err)
		}
		written = append(written, p)
	}
	return written, nil
}

// escapeHref percent-encodes a relative package path for use as an IRI
// reference, so spaces, '#' and '%' in file names survive.
func escapeHref(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

func escapeXML(s string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
