package epub

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// NCX represents the parsed navigation control structure from an NCX document.
type NCX struct {
	UID       string
	Depth     int
	DocTitle  string
	NavPoints []NavPoint
}

// NavPoint represents a single navigation point in the table of contents.
type NavPoint struct {
	ID          string
	PlayOrder   int
	Label       string
	ContentPath string // fragment-free, package-relative path
	Fragment    string // fragment identifier (without #)
	Children    []NavPoint
}

type ncxDocument struct {
	XMLName xml.Name `xml:"ncx"`
	Head    struct {
		Meta []struct {
			Name    string `xml:"name,attr"`
			Content string `xml:"content,attr"`
		} `xml:"meta"`
	} `xml:"head"`
	DocTitle struct {
		Text string `xml:"text"`
	} `xml:"docTitle"`
	NavMap struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	ID        string `xml:"id,attr"`
	PlayOrder string `xml:"playOrder,attr"`
	NavLabel  struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

// ParseNCX parses toc.ncx content. ncxDir is the package-relative directory
// holding the NCX file; content sources are resolved against it.
func ParseNCX(content []byte, ncxDir string) (*NCX, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX XML: %w", err)
	}

	ncx := &NCX{DocTitle: strings.TrimSpace(doc.DocTitle.Text)}
	for _, m := range doc.Head.Meta {
		switch m.Name {
		case "dtb:uid":
			ncx.UID = strings.TrimSpace(m.Content)
		case "dtb:depth":
			ncx.Depth, _ = strconv.Atoi(m.Content)
		}
	}

	ncx.NavPoints = convertNavPoints(doc.NavMap.NavPoints, ncxDir)
	return ncx, nil
}

func convertNavPoints(points []ncxNavPoint, ncxDir string) []NavPoint {
	if len(points) == 0 {
		return nil
	}
	out := make([]NavPoint, 0, len(points))
	for _, p := range points {
		src, fragment := splitFragment(strings.TrimSpace(p.Content.Src))
		np := NavPoint{
			ID:       p.ID,
			Label:    strings.TrimSpace(p.NavLabel.Text),
			Fragment: fragment,
			Children: convertNavPoints(p.NavPoints, ncxDir),
		}
		np.PlayOrder, _ = strconv.Atoi(p.PlayOrder)
		if src != "" {
			np.ContentPath = joinPath(ncxDir, unescapeHref(src))
		}
		out = append(out, np)
	}
	return out
}

// Flatten returns every nav point in document order, parents before children.
func (n *NCX) Flatten() []NavPoint {
	var out []NavPoint
	var walk func([]NavPoint)
	walk = func(points []NavPoint) {
		for _, p := range points {
			out = append(out, p)
			walk(p.Children)
		}
	}
	walk(n.NavPoints)
	return out
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}
