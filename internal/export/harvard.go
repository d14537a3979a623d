package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/papermeta/internal/extract"
	"github.com/matsen/papermeta/internal/reference"
)

const (
	anonymous     = "Anon."
	noDate        = "n.d."
	accessedStamp = "2 January 2006"
)

// FormatAuthorsHarvard renders a free-text author string in Harvard style:
// "Surname, I." per author, joined with "and", with "et al." for four or
// more authors. Single-word names pass through unchanged.
func FormatAuthorsHarvard(authors string) string {
	names := extract.SplitAuthors(authors)
	formatted := make([]string, len(names))
	for i, name := range names {
		formatted[i] = harvardName(name)
	}

	switch len(formatted) {
	case 0:
		return ""
	case 1:
		return formatted[0]
	case 2:
		return formatted[0] + " and " + formatted[1]
	case 3:
		return formatted[0] + ", " + formatted[1] + " and " + formatted[2]
	}
	return formatted[0] + " et al."
}

func harvardName(name string) string {
	a := reference.ParseAuthor(name)
	if len(a.Given) == 0 {
		return a.Last
	}
	return a.Last + ", " + a.Initials()
}

// HarvardReference renders a reference-list entry, stamping URL-only
// sources with today's access date.
func HarvardReference(m reference.Metadata) string {
	return HarvardReferenceAt(m, time.Now())
}

// HarvardReferenceAt is HarvardReference with an explicit access date.
func HarvardReferenceAt(m reference.Metadata, accessed time.Time) string {
	var b strings.Builder

	authors := FormatAuthorsHarvard(m.Authors)
	if authors == "" {
		authors = anonymous
	}
	fmt.Fprintf(&b, "%s (%s) ", authors, yearOrNoDate(m.Year))

	switch {
	case m.Journal != "":
		fmt.Fprintf(&b, "'%s', %s", m.Title, m.Journal)
		if m.Volume != "" {
			b.WriteString(", " + m.Volume)
			if m.Issue != "" {
				b.WriteString("(" + m.Issue + ")")
			}
		}
		if m.Pages != "" {
			b.WriteString(", pp. " + m.Pages)
		}
		b.WriteString(".")
	case m.Publisher != "":
		fmt.Fprintf(&b, "%s. %s.", m.Title, m.Publisher)
	default:
		b.WriteString(m.Title + ".")
	}

	switch {
	case m.DOI != "":
		fmt.Fprintf(&b, " doi: %s.", m.DOI)
	case m.URL != "":
		fmt.Fprintf(&b, " Available at: %s (Accessed: %s).", m.URL, accessed.Format(accessedStamp))
	}

	return b.String()
}

// InTextCitation renders the parenthetical form, e.g. "(Smith and Doe, 2019)"
// or "(Smith et al., 2020, p. 4)". The page is included only when
// includePage is set and page is non-empty.
func InTextCitation(m reference.Metadata, includePage bool, page string) string {
	names := extract.SplitAuthors(m.Authors)

	authorPart := anonymous
	switch {
	case len(names) == 1:
		authorPart = surname(names[0])
	case len(names) == 2:
		authorPart = surname(names[0]) + " and " + surname(names[1])
	case len(names) > 2:
		authorPart = surname(names[0]) + " et al."
	}

	citation := "(" + authorPart + ", " + yearOrNoDate(m.Year)
	if includePage && page != "" {
		citation += ", p. " + page
	}
	return citation + ")"
}

func surname(name string) string {
	return reference.ParseAuthor(name).Last
}

func yearOrNoDate(year int) string {
	if year == 0 {
		return noDate
	}
	return strconv.Itoa(year)
}
