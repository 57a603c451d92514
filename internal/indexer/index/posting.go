package index

import "time"

// ContentType identifies the original format of an ingested document.
type ContentType string

const (
	ContentHTML     ContentType = "html"
	ContentMarkdown ContentType = "markdown"
	ContentPDF      ContentType = "pdf"
)

// Document is the metadata record for one indexed document. The ID is
// unique within the index; for web pages it is the canonicalized URL.
type Document struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	URL           string      `json:"url,omitempty"`
	SourcePath    string      `json:"source_path,omitempty"`
	ContentType   ContentType `json:"content_type"`
	LastIndexedAt time.Time   `json:"last_indexed_at"`
}

// Posting records one (term, document) pair: how often the term occurs and
// at which token offsets. Positions is a set for O(1) membership checks
// during phrase matching.
type Posting struct {
	DocID         string
	TermFrequency int
	Positions     map[int]struct{}
}

// HasPosition reports whether the term occurs at the given token offset.
func (p *Posting) HasPosition(pos int) bool {
	_, ok := p.Positions[pos]
	return ok
}
