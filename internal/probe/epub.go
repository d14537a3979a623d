package probe

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const containerPath = "META-INF/container.xml"

// maxOPFSize bounds how much of a package file is read.
const maxOPFSize = 4 << 20

var rootfilePattern = regexp.MustCompile(`full-path="([^"]+\.opf)"`)

// opfFields maps Info keys to the OPF tags tried in order.
var opfFields = []struct {
	key  string
	tags []string
}{
	{InfoTitle, []string{"dc:title", "title"}},
	{InfoAuthor, []string{"dc:creator", "creator"}},
	{InfoDate, []string{"dc:date", "date"}},
	{InfoIdentifier, []string{"dc:identifier"}},
}

// tagPatterns caches compiled tag-content patterns by tag name.
var tagPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp)
	for _, f := range opfFields {
		for _, tag := range f.tags {
			q := regexp.QuoteMeta(tag)
			m[tag] = regexp.MustCompile(`(?i)<` + q + `[^>]*>([^<]+)</` + q + `>`)
		}
	}
	return m
}()

// ReadEPUB locates the OPF package in an EPUB archive and reads its
// Dublin Core metadata. SampleText is always empty.
func ReadEPUB(data []byte) (*Probe, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	opf := findOPF(zr)
	if opf == nil {
		return nil, ErrNoPackage
	}

	content, err := readEntry(opf)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnparsable, opf.Name, err)
	}

	return &Probe{Info: parseOPF(content)}, nil
}

// findOPF resolves the package file from container.xml, falling back to the
// first archive entry ending in .opf.
func findOPF(zr *zip.Reader) *zip.File {
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}

	if container, ok := entries[containerPath]; ok {
		if xml, err := readEntry(container); err == nil {
			if m := rootfilePattern.FindStringSubmatch(xml); m != nil {
				if f, ok := entries[m[1]]; ok {
					return f
				}
			}
		}
	}

	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".opf") {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, maxOPFSize))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// parseOPF extracts metadata by simple tag-content matching.
func parseOPF(content string) map[string]string {
	info := make(map[string]string)
	for _, f := range opfFields {
		for _, tag := range f.tags {
			if v := xmlTag(content, tag); v != "" {
				info[f.key] = v
				break
			}
		}
	}
	return info
}

// xmlTag returns the trimmed, entity-decoded text content of the first
// <tag ...>text</tag>.
func xmlTag(content, tag string) string {
	m := tagPatterns[tag].FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}
