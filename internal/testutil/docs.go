// Package testutil builds small in-memory PDF and EPUB documents for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// PDFInfo holds document-info dictionary entries for BuildPDF.
type PDFInfo map[string]string

// BuildPDF returns a minimal single-page PDF whose first page shows each of
// lines as a separate text row, with the given info dictionary.
func BuildPDF(info PDFInfo, lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("0 -20 Td\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", escapePDFString(line))
	}
	content.WriteString("ET")
	return BuildPDFContent(info, content.String())
}

// BuildPDFContent returns a minimal single-page PDF whose page content
// stream is stream verbatim, with the given info dictionary.
func BuildPDFContent(info PDFInfo, stream string) []byte {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var infoDict strings.Builder
	infoDict.WriteString("<<")
	for _, k := range keys {
		fmt.Fprintf(&infoDict, " /%s (%s)", k, escapePDFString(info[k]))
	}
	infoDict.WriteString(" >>")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		infoDict.String(),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info 6 0 R >>\n", len(objects)+1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)

	return buf.Bytes()
}

func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}

// EPUBFile is an archive entry for BuildEPUB.
type EPUBFile struct {
	Name string
	Body string
}

// BuildEPUB zips the given entries in order.
func BuildEPUB(files ...EPUBFile) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(f.Body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Container returns a META-INF/container.xml entry pointing at opfPath.
func Container(opfPath string) EPUBFile {
	return EPUBFile{
		Name: "META-INF/container.xml",
		Body: `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="` + opfPath + `" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`,
	}
}

// OPF returns a package document entry with the given metadata elements.
func OPF(path, metadata string) EPUBFile {
	return EPUBFile{
		Name: path,
		Body: `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    ` + metadata + `
  </metadata>
</package>`,
	}
}
