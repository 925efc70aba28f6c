package epub

// OPF represents the parsed Open Package Format document
type OPF struct {
	Metadata      Metadata
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in document order
	Spine         []SpineItem
	NCXPath       string
}

// Metadata represents the metadata section of the OPF
type Metadata struct {
	Title      string
	Creators   []string
	Language   string
	Identifier string
	Publisher  string
	CoverID    string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID        string
	Href      string
	MediaType string
}

// SpineItem represents an item reference in the spine
type SpineItem struct {
	IDRef  string
	Linear bool
}

// Hrefs returns every manifest href in document order.
func (o *OPF) Hrefs() []string {
	hrefs := make([]string, 0, len(o.ManifestOrder))
	for _, id := range o.ManifestOrder {
		hrefs = append(hrefs, o.Manifest[id].Href)
	}
	return hrefs
}

// SpineHrefs resolves the spine to manifest hrefs in reading order.
// Spine entries without a manifest item are skipped.
func (o *OPF) SpineHrefs() []string {
	hrefs := make([]string, 0, len(o.Spine))
	for _, s := range o.Spine {
		if item, ok := o.Manifest[s.IDRef]; ok {
			hrefs = append(hrefs, item.Href)
		}
	}
	return hrefs
}
