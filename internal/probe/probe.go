// Package probe opens PDF and EPUB byte streams and exposes the document
// metadata and sample text used for bibliographic extraction.
package probe

import (
	"errors"
	"path/filepath"
	"strings"
)

// Kind is a supported document format.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindEPUB Kind = "epub"
)

// Info dictionary keys. PDF documents populate Title, Author, Subject and
// CreationDate; EPUB packages populate Title, Author, Date and Identifier.
const (
	InfoTitle        = "Title"
	InfoAuthor       = "Author"
	InfoSubject      = "Subject"
	InfoCreationDate = "CreationDate"
	InfoDate         = "Date"
	InfoIdentifier   = "Identifier"
)

var (
	// ErrUnsupportedKind indicates a file format other than PDF or EPUB.
	ErrUnsupportedKind = errors.New("unsupported document kind")

	// ErrUnparsable indicates the document could not be opened or decoded.
	ErrUnparsable = errors.New("document could not be parsed")

	// ErrNoPackage indicates an EPUB archive without an OPF package file.
	ErrNoPackage = errors.New("no OPF package found in EPUB")
)

// Probe is what a document reader learns about a file.
type Probe struct {
	Info       map[string]string // Document-level metadata fields (see Info* keys)
	SampleText string            // First-page text for PDF, empty for EPUB
}

// Field returns an info field, or "" if absent.
func (p *Probe) Field(key string) string {
	if p == nil || p.Info == nil {
		return ""
	}
	return p.Info[key]
}

// KindFromName determines the document kind from a file name's extension.
func KindFromName(name string) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, true
	case ".epub":
		return KindEPUB, true
	}
	return "", false
}

// Read probes a document of the given kind.
func Read(data []byte, kind Kind) (*Probe, error) {
	switch kind {
	case KindPDF:
		return ReadPDF(data)
	case KindEPUB:
		return ReadEPUB(data)
	}
	return nil, ErrUnsupportedKind
}
