// Package crossref provides a client for the CrossRef REST API works endpoint.
package crossref

import (
	"strings"

	"github.com/matsen/papermeta/internal/reference"
)

// WorkResponse is the envelope returned by GET /works/{doi}.
type WorkResponse struct {
	Status  string `json:"status"`
	Message Work   `json:"message"`
}

// Work is the subset of a CrossRef work record used for citations.
type Work struct {
	DOI             string    `json:"DOI"`
	Title           []string  `json:"title"`
	Author          []Author  `json:"author"`
	Published       *DateInfo `json:"published,omitempty"`
	PublishedPrint  *DateInfo `json:"published-print,omitempty"`
	PublishedOnline *DateInfo `json:"published-online,omitempty"`
	ContainerTitle  []string  `json:"container-title"`
	Publisher       string    `json:"publisher"`
	Volume          string    `json:"volume"`
	Issue           string    `json:"issue"`
	Page            string    `json:"page"`
	URL             string    `json:"URL"`
}

// Author is a CrossRef contributor. Organizations carry only Name.
type Author struct {
	Given  string `json:"given,omitempty"`
	Family string `json:"family,omitempty"`
	Name   string `json:"name,omitempty"`
}

// DateInfo holds CrossRef's nested [[year, month, day]] date representation.
type DateInfo struct {
	DateParts [][]int `json:"date-parts"`
}

// Year returns the first element of the first date-parts triple, or 0.
func (d *DateInfo) Year() int {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
		return 0
	}
	return d.DateParts[0][0]
}

// DisplayName renders "Given Family", falling back to Name then Family.
func (a Author) DisplayName() string {
	if a.Given != "" && a.Family != "" {
		return a.Given + " " + a.Family
	}
	if a.Name != "" {
		return a.Name
	}
	return a.Family
}

// Year picks the publication year from published, then published-print,
// then published-online.
func (w Work) Year() int {
	for _, d := range []*DateInfo{w.Published, w.PublishedPrint, w.PublishedOnline} {
		if y := d.Year(); y != 0 {
			return y
		}
	}
	return 0
}

// Metadata maps the work to a bibliographic record for the given
// (normalized) DOI.
func (w Work) Metadata(doi string) reference.Metadata {
	m := reference.Metadata{
		Title:     first(w.Title),
		Authors:   joinAuthors(w.Author),
		Year:      w.Year(),
		DOI:       doi,
		Journal:   first(w.ContainerTitle),
		Publisher: w.Publisher,
		Volume:    w.Volume,
		Issue:     w.Issue,
		Pages:     w.Page,
		URL:       w.URL,
	}
	if m.URL == "" {
		m.URL = "https://doi.org/" + doi
	}
	return m
}

func joinAuthors(authors []Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if n := a.DisplayName(); n != "" {
			names = append(names, n)
		}
	}
	return strings.Join(names, ", ")
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
