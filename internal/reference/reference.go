// Package reference defines the core domain types for bibliographic records.
package reference

import "time"

// Metadata is a bibliographic record as extracted from a file, resolved by
// an external registry, or merged from both. Empty strings and a zero Year
// mean the field is unset.
type Metadata struct {
	Title   string `json:"title,omitempty"`
	Authors string `json:"authors,omitempty"` // Free-text display string, e.g. "Jane Smith, John Doe"
	Year    int    `json:"year,omitempty"`
	DOI     string `json:"doi,omitempty"` // Bare 10.xxxx/... form

	// Venue and locator fields (populated by resolvers)
	Journal   string `json:"journal,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Volume    string `json:"volume,omitempty"`
	Issue     string `json:"issue,omitempty"`
	Pages     string `json:"pages,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Merge returns m with every non-empty field of over taking precedence.
// Fields unset in both remain unset.
func (m Metadata) Merge(over Metadata) Metadata {
	out := m
	if over.Title != "" {
		out.Title = over.Title
	}
	if over.Authors != "" {
		out.Authors = over.Authors
	}
	if over.Year != 0 {
		out.Year = over.Year
	}
	if over.DOI != "" {
		out.DOI = over.DOI
	}
	if over.Journal != "" {
		out.Journal = over.Journal
	}
	if over.Publisher != "" {
		out.Publisher = over.Publisher
	}
	if over.Volume != "" {
		out.Volume = over.Volume
	}
	if over.Issue != "" {
		out.Issue = over.Issue
	}
	if over.Pages != "" {
		out.Pages = over.Pages
	}
	if over.URL != "" {
		out.URL = over.URL
	}
	return out
}

// IsEmpty reports whether no field is set.
func (m Metadata) IsEmpty() bool {
	return m == Metadata{}
}

// Source types for papers in the library.
const (
	SourcePDF    = "pdf"
	SourceEPUB   = "epub"
	SourceDOI    = "doi"
	SourceManual = "manual"
)

// Paper is a stored paper record: normalized metadata plus library bookkeeping.
type Paper struct {
	// Identity
	ID string `json:"id"` // UUID assigned on import

	Metadata

	// Import Tracking
	Source   string    `json:"source"`              // pdf, epub, doi, manual
	FileName string    `json:"file_name,omitempty"` // Original upload name, if any
	AddedAt  time.Time `json:"added_at"`
}

// NewPaper builds a paper record from normalized metadata.
func NewPaper(id string, m Metadata, source string, added time.Time) Paper {
	return Paper{
		ID:       id,
		Metadata: m,
		Source:   source,
		AddedAt:  added.UTC(),
	}
}
