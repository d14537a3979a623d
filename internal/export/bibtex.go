// Package export renders library papers as citations and BibTeX entries.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/matsen/papermeta/internal/extract"
	"github.com/matsen/papermeta/internal/reference"
)

// ToBibTeX converts a paper to a BibTeX entry keyed by CiteKey.
func ToBibTeX(p reference.Paper) string {
	entryType := determineEntryType(p.Metadata)
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@%s{%s,\n", entryType, CiteKey(p)))

	if p.Authors != "" {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(p.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))

	switch entryType {
	case "article":
		b.WriteString(fmt.Sprintf("  journal = {%s},\n", escapeLatex(p.Journal)))
	case "book":
		b.WriteString(fmt.Sprintf("  publisher = {%s},\n", escapeLatex(p.Publisher)))
	}

	if p.Year != 0 {
		b.WriteString(fmt.Sprintf("  year = {%d},\n", p.Year))
	}

	optional := []struct{ name, value string }{
		{"volume", p.Volume},
		{"number", p.Issue},
		{"pages", bibPages(p.Pages)},
	}
	for _, f := range optional {
		if f.value != "" {
			b.WriteString(fmt.Sprintf("  %s = {%s},\n", f.name, escapeLatex(f.value)))
		}
	}

	if p.DOI != "" {
		b.WriteString(fmt.Sprintf("  doi = {%s},\n", p.DOI))
	} else if p.URL != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.URL))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple papers to BibTeX format.
func ToBibTeXList(papers []reference.Paper) string {
	var entries []string
	for _, p := range papers {
		entries = append(entries, ToBibTeX(p))
	}
	return strings.Join(entries, "\n")
}

// determineEntryType picks the entry type from the record shape, the same
// way the Harvard formatter distinguishes articles from books.
func determineEntryType(m reference.Metadata) string {
	switch {
	case m.Journal != "":
		return "article"
	case m.Publisher != "":
		return "book"
	}
	return "misc"
}

// CiteKey builds a citation key from the first author's surname, the year
// and a short prefix of the paper ID, e.g. "Smith2020-3f2a".
func CiteKey(p reference.Paper) string {
	name := "Anon"
	if authors := extract.SplitAuthors(p.Authors); len(authors) > 0 {
		if s := keySafe(reference.ParseAuthor(authors[0]).Last); s != "" {
			name = s
		}
	}

	key := name
	if p.Year != 0 {
		key += fmt.Sprint(p.Year)
	}
	if id := keySafe(p.ID); id != "" {
		if len(id) > 4 {
			id = id[:4]
		}
		key += "-" + id
	}
	return key
}

// keySafe keeps only ASCII letters and digits.
func keySafe(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}

// formatAuthors formats authors in BibTeX style: "Last, First and Last, First"
func formatAuthors(authors string) string {
	var formatted []string
	for _, name := range extract.SplitAuthors(authors) {
		a := reference.ParseAuthor(name)
		if len(a.Given) > 0 {
			formatted = append(formatted, fmt.Sprintf("%s, %s", escapeLatex(a.Last), escapeLatex(strings.Join(a.Given, " "))))
		} else {
			formatted = append(formatted, escapeLatex(a.Last))
		}
	}
	return strings.Join(formatted, " and ")
}

// bibPages converts a single hyphen page range to the BibTeX "--" form.
func bibPages(pages string) string {
	if strings.Count(pages, "-") == 1 && !strings.Contains(pages, "--") {
		return strings.Replace(pages, "-", "--", 1)
	}
	return pages
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
