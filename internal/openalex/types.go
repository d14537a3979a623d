// Package openalex provides a client for the OpenAlex works search API.
package openalex

import (
	"strings"

	"github.com/matsen/papermeta/internal/reference"
)

// SearchResponse is the envelope returned by GET /works?search=.
type SearchResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta carries result counts for a search.
type Meta struct {
	Count int `json:"count"`
}

// Work is the subset of an OpenAlex work record used for metadata.
type Work struct {
	ID              string       `json:"id"`  // e.g. https://openalex.org/W2741809807
	DOI             string       `json:"doi"` // URL form, e.g. https://doi.org/10.7717/peerj.4375
	Title           string       `json:"title"`
	PublicationYear int          `json:"publication_year"`
	Authorships     []Authorship `json:"authorships"`
}

// Authorship links a work to one of its authors.
type Authorship struct {
	Author struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
}

// BareDOI returns the work's DOI without its https://doi.org/ prefix.
func (w Work) BareDOI() string {
	return strings.TrimPrefix(w.DOI, "https://doi.org/")
}

// Metadata maps the work to a bibliographic record.
func (w Work) Metadata() reference.Metadata {
	names := make([]string, 0, len(w.Authorships))
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			names = append(names, a.Author.DisplayName)
		}
	}

	m := reference.Metadata{
		Title:   w.Title,
		Authors: strings.Join(names, ", "),
		Year:    w.PublicationYear,
		DOI:     w.BareDOI(),
		URL:     w.DOI,
	}
	if m.URL == "" {
		m.URL = w.ID
	}
	return m
}
