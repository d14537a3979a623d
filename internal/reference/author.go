package reference

import "strings"

// Author is a display name split into given-name parts and a surname.
// The last whitespace-separated word is taken as the surname.
type Author struct {
	Given []string // Given/middle names, possibly empty
	Last  string   // Surname, or the whole token for single-word names
}

// ParseAuthor splits a single author token such as "Jane Q. Smith".
func ParseAuthor(name string) Author {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return Author{}
	case 1:
		return Author{Last: parts[0]}
	}
	return Author{
		Given: parts[:len(parts)-1],
		Last:  parts[len(parts)-1],
	}
}

// Initials renders the given names as concatenated uppercase initials, e.g. "J.Q.".
func (a Author) Initials() string {
	var b strings.Builder
	for _, g := range a.Given {
		for _, r := range g {
			b.WriteString(strings.ToUpper(string(r)))
			b.WriteString(".")
			break
		}
	}
	return b.String()
}
